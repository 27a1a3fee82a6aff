package service

import (
	"context"
	"time"

	"clima-data/internal/domain"
	"clima-data/internal/repository"

	"go.uber.org/zap"
)

// ChartService 图表聚合服务接口
type ChartService interface {
	// GetChartData 区间为 [From, To)，调用方必须显式给出
	GetChartData(ctx context.Context, q domain.ChartQuery) ([]domain.ChartBucket, error)
}

type chartService struct {
	chartsRepo repository.ChartsRepository
	timeout    time.Duration
	logger     *zap.Logger
}

// NewChartService 创建 ChartService 实例
func NewChartService(chartsRepo repository.ChartsRepository, timeout time.Duration, logger *zap.Logger) ChartService {
	return &chartService{
		chartsRepo: chartsRepo,
		timeout:    timeout,
		logger:     logger,
	}
}

func (s *chartService) GetChartData(ctx context.Context, q domain.ChartQuery) ([]domain.ChartBucket, error) {
	if _, err := domain.ParseBucket(string(q.Bucket)); err != nil {
		return nil, err
	}
	if q.From.IsZero() || q.To.IsZero() {
		return nil, domain.NewValidationError("from and to are required")
	}
	if !q.From.Before(q.To) {
		return nil, domain.NewValidationError("from must be before to")
	}
	if q.DeviceID != nil && *q.DeviceID <= 0 {
		return nil, domain.NewValidationError("device_id must be positive")
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	buckets, err := s.chartsRepo.GetChartData(ctx, q)
	if err != nil {
		s.logger.Error("GetChartData failed",
			zap.String("bucket", string(q.Bucket)),
			zap.Time("from", q.From),
			zap.Time("to", q.To),
			zap.Error(err),
		)
		return nil, err
	}
	return buckets, nil
}
