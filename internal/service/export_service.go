package service

import (
	"context"
	"fmt"
	"time"

	"clima-data/internal/domain"
	"clima-data/internal/repository"

	"go.uber.org/zap"
)

// DefaultExportMaxLimit 单页导出上限
const DefaultExportMaxLimit = 100000

// ExportService 读数导出服务接口
type ExportService interface {
	// ExportReadings 按 ts DESC, device_id, sensor_id, reading_id 分页
	ExportReadings(ctx context.Context, limit, offset int) ([]*domain.Reading, error)
}

type exportService struct {
	readingsRepo repository.ReadingsRepository
	maxLimit     int
	timeout      time.Duration
	logger       *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(readingsRepo repository.ReadingsRepository, maxLimit int, timeout time.Duration, logger *zap.Logger) ExportService {
	if maxLimit <= 0 {
		maxLimit = DefaultExportMaxLimit
	}
	return &exportService{
		readingsRepo: readingsRepo,
		maxLimit:     maxLimit,
		timeout:      timeout,
		logger:       logger,
	}
}

func (s *exportService) ExportReadings(ctx context.Context, limit, offset int) ([]*domain.Reading, error) {
	if limit <= 0 || limit > s.maxLimit {
		return nil, domain.NewValidationError(fmt.Sprintf("limit must be in 1..%d", s.maxLimit))
	}
	if offset < 0 {
		return nil, domain.NewValidationError("offset must not be negative")
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.readingsRepo.ListReadings(ctx, limit, offset)
	if err != nil {
		s.logger.Error("ExportReadings failed", zap.Int("limit", limit), zap.Int("offset", offset), zap.Error(err))
		return nil, err
	}
	return rows, nil
}
