package repository

import (
	"context"

	"clima-data/internal/domain"
)

// SensorsRepository 传感器Repository接口
type SensorsRepository interface {
	// UpsertSensor code 非空时按 (device_id, code) 原子 upsert；code 为空时总是新建
	// device_id 不存在时返回 NotFound
	UpsertSensor(ctx context.Context, in domain.SensorUpsert) (int64, error)

	GetSensor(ctx context.Context, sensorID int64) (*domain.Sensor, error)
	ListSensorsByDevice(ctx context.Context, deviceID int64) ([]*domain.Sensor, error)
}
