package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"clima-data/internal/domain"
	"clima-data/internal/service"

	"go.uber.org/zap"
)

// defaultChartWindow 未指定 desde 时回看的区间
const defaultChartWindow = 7 * 24 * time.Hour

// RecentCharts 最近 24 小时图表（缓存）
type RecentCharts interface {
	Recent(ctx context.Context) (*service.RecentChart, error)
}

// ChartsHandler 图表查询
type ChartsHandler struct {
	charts service.ChartService
	recent RecentCharts
	now    func() time.Time
	logger *zap.Logger
}

func NewChartsHandler(charts service.ChartService, recent RecentCharts, logger *zap.Logger) *ChartsHandler {
	return &ChartsHandler{charts: charts, recent: recent, now: time.Now, logger: logger}
}

// GetCharts GET /charts?dispositivoid=&sensornombre=&desde=&hasta=&bucket=
// desde 缺省为 now-7d，hasta 缺省为 now，bucket 缺省为 hour
func (h *ChartsHandler) GetCharts(w http.ResponseWriter, r *http.Request) {
	q, err := h.parseChartQuery(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	buckets, err := h.charts.GetChartData(r.Context(), q)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(buckets))
}

// GetRecent GET /charts/recent
func (h *ChartsHandler) GetRecent(w http.ResponseWriter, r *http.Request) {
	chart, err := h.recent.Recent(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(chart))
}

func (h *ChartsHandler) parseChartQuery(r *http.Request) (domain.ChartQuery, error) {
	values := r.URL.Query()
	now := h.now().UTC()
	q := domain.ChartQuery{
		From:   now.Add(-defaultChartWindow),
		To:     now,
		Bucket: domain.BucketHour,
	}

	if s := strings.TrimSpace(values.Get("dispositivoid")); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return q, domain.NewValidationError(fmt.Sprintf("dispositivoid must be an integer, got %q", s))
		}
		q.DeviceID = &id
	}
	if values.Has("sensornombre") {
		name := values.Get("sensornombre")
		q.SensorName = &name
	}
	if s := values.Get("desde"); s != "" {
		t, err := domain.ParseTimestamp(s)
		if err != nil {
			return q, err
		}
		q.From = t
	}
	if s := values.Get("hasta"); s != "" {
		t, err := domain.ParseTimestamp(s)
		if err != nil {
			return q, err
		}
		q.To = t
	}
	if s := values.Get("bucket"); s != "" {
		b, err := domain.ParseBucket(s)
		if err != nil {
			return q, err
		}
		q.Bucket = b
	}
	return q, nil
}
