package repository

import (
	"context"

	"clima-data/internal/domain"
)

// ReadingsRepository 读数Repository接口
type ReadingsRepository interface {
	// InsertBatch 单条语句批量写入，自然键冲突的行跳过；返回实际写入行数
	// 任一行外键不合法时整批失败，不落任何行
	InsertBatch(ctx context.Context, readings []domain.Reading) (int64, error)

	// ListReadings 导出分页：ts DESC, device_id, sensor_id, reading_id
	ListReadings(ctx context.Context, limit, offset int) ([]*domain.Reading, error)
}
