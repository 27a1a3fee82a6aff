package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"clima-data/internal/domain"
	"clima-data/internal/repository"

	"go.uber.org/zap"
)

// 设备列表分页
const (
	defaultDeviceListSize = 100
	maxDeviceListSize     = 1000
)

// IdentityService 设备与传感器登记服务接口
type IdentityService interface {
	UpsertDevice(ctx context.Context, in domain.DeviceUpsert) (int64, error)
	UpsertSensor(ctx context.Context, in domain.SensorUpsert) (int64, error)

	GetDevice(ctx context.Context, deviceID int64) (*domain.Device, error)
	ListDevices(ctx context.Context, limit, offset int) ([]*domain.Device, error)
	GetSensor(ctx context.Context, sensorID int64) (*domain.Sensor, error)
	ListSensorsByDevice(ctx context.Context, deviceID int64) ([]*domain.Sensor, error)
}

type identityService struct {
	devicesRepo repository.DevicesRepository
	sensorsRepo repository.SensorsRepository
	timeout     time.Duration
	logger      *zap.Logger
}

// NewIdentityService 创建 IdentityService 实例
func NewIdentityService(devicesRepo repository.DevicesRepository, sensorsRepo repository.SensorsRepository, timeout time.Duration, logger *zap.Logger) IdentityService {
	return &identityService{
		devicesRepo: devicesRepo,
		sensorsRepo: sensorsRepo,
		timeout:     timeout,
		logger:      logger,
	}
}

// UpsertDevice 按 serial 登记设备；已存在时除 id/serial 外全部覆盖
func (s *identityService) UpsertDevice(ctx context.Context, in domain.DeviceUpsert) (int64, error) {
	in.Serial = strings.TrimSpace(in.Serial)
	in.Name = strings.TrimSpace(in.Name)
	if in.Serial == "" {
		return 0, domain.NewValidationError("serial is required")
	}
	if in.Name == "" {
		return 0, domain.NewValidationError("name is required")
	}
	if len(in.Config) > 0 && !json.Valid(in.Config) {
		return 0, domain.NewValidationError("config must be a JSON document")
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	id, err := s.devicesRepo.UpsertDevice(ctx, in)
	if err != nil {
		s.logger.Error("UpsertDevice failed", zap.String("serial", in.Serial), zap.Error(err))
		return 0, err
	}
	s.logger.Debug("device upserted", zap.String("serial", in.Serial), zap.Int64("device_id", id))
	return id, nil
}

// UpsertSensor 登记传感器；device_id 不存在时返回 NotFound
func (s *identityService) UpsertSensor(ctx context.Context, in domain.SensorUpsert) (int64, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Unit = strings.TrimSpace(in.Unit)
	if in.Code != nil {
		code := strings.TrimSpace(*in.Code)
		if code == "" {
			in.Code = nil
		} else {
			in.Code = &code
		}
	}

	if err := validateSensor(in); err != nil {
		return 0, err
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	id, err := s.sensorsRepo.UpsertSensor(ctx, in)
	if err != nil {
		s.logger.Error("UpsertSensor failed", zap.Int64("device_id", in.DeviceID), zap.Error(err))
		return 0, err
	}
	return id, nil
}

func validateSensor(in domain.SensorUpsert) error {
	if in.DeviceID <= 0 {
		return domain.NewValidationError("device_id must be positive")
	}
	if in.Name == "" {
		return domain.NewValidationError("name is required")
	}
	if in.Unit == "" {
		return domain.NewValidationError("unit is required")
	}
	for field, v := range map[string]*float64{
		"scale_factor": in.ScaleFactor,
		"offset":       in.Offset,
		"range_min":    in.RangeMin,
		"range_max":    in.RangeMax,
	} {
		if v != nil && (math.IsNaN(*v) || math.IsInf(*v, 0)) {
			return domain.NewValidationError(fmt.Sprintf("%s must be a finite number", field))
		}
	}
	if in.RangeMin != nil && in.RangeMax != nil && *in.RangeMin > *in.RangeMax {
		return domain.NewValidationError("range_min must not exceed range_max")
	}
	return nil
}

func (s *identityService) GetDevice(ctx context.Context, deviceID int64) (*domain.Device, error) {
	if deviceID <= 0 {
		return nil, domain.NewValidationError("device_id must be positive")
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	return s.devicesRepo.GetDevice(ctx, deviceID)
}

// ListDevices limit 为 0 时取默认页大小
func (s *identityService) ListDevices(ctx context.Context, limit, offset int) ([]*domain.Device, error) {
	if limit == 0 {
		limit = defaultDeviceListSize
	}
	if limit < 0 || limit > maxDeviceListSize {
		return nil, domain.NewValidationError(fmt.Sprintf("limit must be in 1..%d", maxDeviceListSize))
	}
	if offset < 0 {
		return nil, domain.NewValidationError("offset must not be negative")
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	devices, err := s.devicesRepo.ListDevices(ctx, limit, offset)
	if err != nil {
		s.logger.Error("ListDevices failed", zap.Error(err))
		return nil, err
	}
	return devices, nil
}

func (s *identityService) GetSensor(ctx context.Context, sensorID int64) (*domain.Sensor, error) {
	if sensorID <= 0 {
		return nil, domain.NewValidationError("sensor_id must be positive")
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	return s.sensorsRepo.GetSensor(ctx, sensorID)
}

// ListSensorsByDevice 设备不存在时返回 NotFound（区别于无传感器的空列表）
func (s *identityService) ListSensorsByDevice(ctx context.Context, deviceID int64) ([]*domain.Sensor, error) {
	if deviceID <= 0 {
		return nil, domain.NewValidationError("device_id must be positive")
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.devicesRepo.GetDevice(ctx, deviceID); err != nil {
		return nil, err
	}
	return s.sensorsRepo.ListSensorsByDevice(ctx, deviceID)
}
