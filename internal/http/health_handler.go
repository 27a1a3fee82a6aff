package httpapi

import (
	"context"
	"net/http"

	"go.uber.org/zap"
)

// Pinger 存储连通性检查
type Pinger func(ctx context.Context) error

// HealthHandler GET /health
type HealthHandler struct {
	ping   Pinger
	logger *zap.Logger
}

func NewHealthHandler(ping Pinger, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{ping: ping, logger: logger}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		methodNotAllowed(w)
		return
	}
	if err := h.ping(r.Context()); err != nil {
		// 不暴露内部细节
		h.logger.Error("health check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, Fail("DB check failed"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]string{"status": "ok"}))
}
