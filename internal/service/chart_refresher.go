package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	commonredis "clima-data/common/redis"
	"clima-data/internal/domain"
	"clima-data/internal/store"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	// RecentWindow 入库后刷新的图表区间；起点对齐到整点，第一个桶是完整的
	RecentWindow = 24 * time.Hour

	DefaultRecentCacheKey = "clima:chart:recent:hour"
	DefaultRecentTTL      = 10 * time.Minute

	// EventChartRefreshed 刷新完成后发布到事件流的类型
	EventChartRefreshed = "chart.refreshed"
)

// RecentChart 最近 24 小时按小时聚合的图表
type RecentChart struct {
	From        time.Time            `json:"from"`
	To          time.Time            `json:"to"`
	Bucket      domain.Bucket        `json:"bucket"`
	GeneratedAt time.Time            `json:"generated_at"`
	Buckets     []domain.ChartBucket `json:"buckets"`
}

// EventPublisher 事件发布
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, data interface{}) error
}

// RedisStreamPublisher 发布到 Redis Stream
type RedisStreamPublisher struct {
	client *redis.Client
	stream string
}

func NewRedisStreamPublisher(client *redis.Client, stream string) *RedisStreamPublisher {
	return &RedisStreamPublisher{client: client, stream: stream}
}

func (p *RedisStreamPublisher) Publish(ctx context.Context, eventType string, data interface{}) error {
	_, err := commonredis.PublishJSONToStream(ctx, p.client, p.stream, eventType, data)
	return err
}

// RefresherOptions ChartRefresher 参数
type RefresherOptions struct {
	CacheKey string
	TTL      time.Duration
}

// ChartRefresher 入库后的图表刷新
// 多次 Trigger 在 worker 空闲前合并为一次刷新；刷新失败只记录日志
type ChartRefresher struct {
	charts    ChartService
	kv        store.KV
	publisher EventPublisher
	key       string
	ttl       time.Duration
	now       func() time.Time
	pending   chan struct{}
	logger    *zap.Logger
}

// NewChartRefresher kv 与 publisher 可以为 nil
func NewChartRefresher(charts ChartService, kv store.KV, publisher EventPublisher, opts RefresherOptions, logger *zap.Logger) *ChartRefresher {
	if opts.CacheKey == "" {
		opts.CacheKey = DefaultRecentCacheKey
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultRecentTTL
	}
	return &ChartRefresher{
		charts:    charts,
		kv:        kv,
		publisher: publisher,
		key:       opts.CacheKey,
		ttl:       opts.TTL,
		now:       time.Now,
		pending:   make(chan struct{}, 1),
		logger:    logger,
	}
}

// Trigger 非阻塞；已有待处理的刷新时直接返回
func (r *ChartRefresher) Trigger() {
	select {
	case r.pending <- struct{}{}:
	default:
	}
}

// Start 运行刷新 worker，直到 ctx 取消
func (r *ChartRefresher) Start(ctx context.Context) {
	r.logger.Info("Chart refresher started", zap.String("cache_key", r.key))
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Chart refresher stopped")
			return
		case <-r.pending:
			if _, err := r.Refresh(ctx); err != nil {
				r.logger.Warn("chart refresh failed", zap.Error(err))
			}
		}
	}
}

// Refresh 重新计算最近 24 小时的图表并写入缓存
// 计算失败时删除旧缓存，Recent 下次现算，不再返回入库前的结果
func (r *ChartRefresher) Refresh(ctx context.Context) (*RecentChart, error) {
	to := r.now().UTC()
	from := domain.BucketHour.Truncate(to.Add(-RecentWindow))

	buckets, err := r.charts.GetChartData(ctx, domain.ChartQuery{From: from, To: to, Bucket: domain.BucketHour})
	if err != nil {
		if r.kv != nil {
			if derr := r.kv.Delete(ctx, r.key); derr != nil {
				r.logger.Warn("failed to drop stale recent chart", zap.String("key", r.key), zap.Error(derr))
			}
		}
		return nil, err
	}

	chart := &RecentChart{
		From:        from,
		To:          to,
		Bucket:      domain.BucketHour,
		GeneratedAt: to,
		Buckets:     buckets,
	}

	if r.kv != nil {
		b, err := json.Marshal(chart)
		if err != nil {
			return nil, err
		}
		if err := r.kv.Set(ctx, r.key, string(b), r.ttl); err != nil {
			r.logger.Warn("failed to cache recent chart", zap.String("key", r.key), zap.Error(err))
		}
	}

	if r.publisher != nil {
		event := map[string]interface{}{
			"from":    from,
			"to":      to,
			"bucket":  domain.BucketHour,
			"buckets": len(buckets),
		}
		if err := r.publisher.Publish(ctx, EventChartRefreshed, event); err != nil {
			r.logger.Warn("failed to publish chart event", zap.Error(err))
		}
	}

	r.logger.Debug("recent chart refreshed", zap.Int("buckets", len(buckets)))
	return chart, nil
}

// Recent 优先读缓存；未命中或缓存损坏时现算
func (r *ChartRefresher) Recent(ctx context.Context) (*RecentChart, error) {
	if r.kv != nil {
		raw, err := r.kv.Get(ctx, r.key)
		switch {
		case err == nil:
			var chart RecentChart
			if jerr := json.Unmarshal([]byte(raw), &chart); jerr == nil {
				return &chart, nil
			}
			r.logger.Warn("discarding malformed recent chart cache", zap.String("key", r.key))
		case !errors.Is(err, store.ErrMiss):
			r.logger.Warn("failed to read recent chart cache", zap.Error(err))
		}
	}
	return r.Refresh(ctx)
}
