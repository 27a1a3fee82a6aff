package httpapi

import (
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// Router 使用标准库 http.ServeMux
type Router struct {
	mux    *http.ServeMux
	auth   *Authenticator
	logger *zap.Logger
}

// NewRouter auth 为 nil 时所有接口都不需要登录
func NewRouter(auth *Authenticator, logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		auth:   auth,
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// only 限定请求方法
func only(method string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if req.Method != method {
			methodNotAllowed(w)
			return
		}
		h(w, req)
	}
}

// RegisterHealthRoutes /health 与根路径跳转
func (r *Router) RegisterHealthRoutes(h *HealthHandler) {
	r.mux.Handle("/health", h)
	r.Handle("/", func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path != "/" {
			writeJSON(w, http.StatusNotFound, Fail("not found"))
			return
		}
		http.Redirect(w, req, "/health", http.StatusTemporaryRedirect)
	})
}

// RegisterAuthRoutes 注册与登录
func (r *Router) RegisterAuthRoutes(h *AuthHandler) {
	r.Handle("/auth/register", only(http.MethodPost, h.Register))
	r.Handle("/auth/token", only(http.MethodPost, h.Token))
}

// RegisterIdentityRoutes 设备与传感器
func (r *Router) RegisterIdentityRoutes(h *IdentityHandler) {
	r.Handle("/devices", func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodGet:
			h.ListDevices(w, req)
		case http.MethodPost:
			r.auth.Require(h.CreateDevice)(w, req)
		default:
			methodNotAllowed(w)
		}
	})

	// /devices/{id} 与 /devices/{id}/sensors
	r.Handle("/devices/", only(http.MethodGet, func(w http.ResponseWriter, req *http.Request) {
		if strings.HasSuffix(req.URL.Path, "/sensors") {
			id, ok := pathID(req.URL.Path, "/devices/", "/sensors")
			if !ok {
				writeJSON(w, http.StatusNotFound, Fail("not found"))
				return
			}
			h.ListSensors(w, req, id)
			return
		}
		id, ok := pathID(req.URL.Path, "/devices/", "")
		if !ok {
			writeJSON(w, http.StatusNotFound, Fail("not found"))
			return
		}
		h.GetDevice(w, req, id)
	}))

	r.Handle("/sensors", only(http.MethodPost, r.auth.Require(h.CreateSensor)))
	r.Handle("/sensors/", only(http.MethodGet, func(w http.ResponseWriter, req *http.Request) {
		id, ok := pathID(req.URL.Path, "/sensors/", "")
		if !ok {
			writeJSON(w, http.StatusNotFound, Fail("not found"))
			return
		}
		h.GetSensor(w, req, id)
	}))
}

// RegisterReadingRoutes 批量写入；/readings/batch 为别名
func (r *Router) RegisterReadingRoutes(h *ReadingsHandler) {
	insert := only(http.MethodPost, r.auth.Require(h.InsertBatch))
	r.Handle("/lecturas/batch", insert)
	r.Handle("/readings/batch", insert)
}

// RegisterChartRoutes 图表
func (r *Router) RegisterChartRoutes(h *ChartsHandler) {
	r.Handle("/charts", only(http.MethodGet, h.GetCharts))
	r.Handle("/charts/recent", only(http.MethodGet, h.GetRecent))
}

// RegisterExportRoutes 导出
func (r *Router) RegisterExportRoutes(h *ExportHandler) {
	r.Handle("/export/lecturas", only(http.MethodGet, r.auth.Require(h.ExportReadings)))
}
