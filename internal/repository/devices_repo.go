package repository

import (
	"context"

	"clima-data/internal/domain"
)

// DevicesRepository 设备Repository接口
type DevicesRepository interface {
	// UpsertDevice 按 serial 原子地插入或更新，返回 device_id（已存在时返回原 id）
	UpsertDevice(ctx context.Context, in domain.DeviceUpsert) (int64, error)

	GetDevice(ctx context.Context, deviceID int64) (*domain.Device, error)
	ListDevices(ctx context.Context, limit, offset int) ([]*domain.Device, error)
}
