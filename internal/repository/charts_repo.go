package repository

import (
	"context"

	"clima-data/internal/domain"
)

// ChartsRepository 图表聚合Repository接口
type ChartsRepository interface {
	// GetChartData 按时间桶聚合读数；空桶不返回
	// 排序：bucket_start, device_id, sensor_id
	GetChartData(ctx context.Context, q domain.ChartQuery) ([]domain.ChartBucket, error)
}
