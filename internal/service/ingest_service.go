package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"clima-data/internal/domain"
	"clima-data/internal/repository"

	"go.uber.org/zap"
)

// RefreshTrigger 入库成功后的图表刷新通知，不得阻塞
type RefreshTrigger interface {
	Trigger()
}

// IngestService 读数批量写入服务接口
type IngestService interface {
	// InsertBatch 返回实际写入的行数（重复的自然键不计入）
	InsertBatch(ctx context.Context, readings []domain.Reading) (int64, error)
}

type ingestService struct {
	readingsRepo repository.ReadingsRepository
	refresher    RefreshTrigger
	timeout      time.Duration
	logger       *zap.Logger
}

// NewIngestService 创建 IngestService 实例；refresher 可以为 nil
func NewIngestService(readingsRepo repository.ReadingsRepository, refresher RefreshTrigger, timeout time.Duration, logger *zap.Logger) IngestService {
	return &ingestService{
		readingsRepo: readingsRepo,
		refresher:    refresher,
		timeout:      timeout,
		logger:       logger,
	}
}

func (s *ingestService) InsertBatch(ctx context.Context, readings []domain.Reading) (int64, error) {
	if len(readings) == 0 {
		return 0, nil
	}

	for i := range readings {
		if err := validateReading(i, &readings[i]); err != nil {
			return 0, err
		}
	}

	// 批内重复的自然键只保留第一条，与 ON CONFLICT DO NOTHING 的语义一致
	batch := dedupe(readings)

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	inserted, err := s.readingsRepo.InsertBatch(ctx, batch)
	if err != nil {
		s.logger.Error("InsertBatch failed", zap.Int("batch_size", len(batch)), zap.Error(err))
		return 0, err
	}

	s.logger.Debug("readings inserted",
		zap.Int("batch_size", len(readings)),
		zap.Int64("inserted", inserted),
	)

	if inserted > 0 && s.refresher != nil {
		s.refresher.Trigger()
	}
	return inserted, nil
}

func validateReading(i int, r *domain.Reading) error {
	switch {
	case r.DeviceID <= 0:
		return domain.NewValidationError(fmt.Sprintf("reading %d: device_id must be positive", i))
	case r.SensorID <= 0:
		return domain.NewValidationError(fmt.Sprintf("reading %d: sensor_id must be positive", i))
	case r.Timestamp.IsZero():
		return domain.NewValidationError(fmt.Sprintf("reading %d: timestamp is required", i))
	case math.IsNaN(r.Value) || math.IsInf(r.Value, 0):
		return domain.NewValidationError(fmt.Sprintf("reading %d: value must be a finite number", i))
	case r.Quality < 0 || r.Quality > math.MaxInt16:
		return domain.NewValidationError(fmt.Sprintf("reading %d: quality out of range", i))
	}
	for name, v := range r.Channels {
		if name == "" {
			return domain.NewValidationError(fmt.Sprintf("reading %d: channel name is empty", i))
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return domain.NewValidationError(fmt.Sprintf("reading %d: channel %q must be a finite number", i, name))
		}
	}
	return nil
}

func dedupe(readings []domain.Reading) []domain.Reading {
	seen := make(map[domain.ReadingKey]struct{}, len(readings))
	out := make([]domain.Reading, 0, len(readings))
	for _, r := range readings {
		k := r.Key()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	return out
}
