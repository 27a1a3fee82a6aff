package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"clima-data/internal/domain"
	"clima-data/internal/service"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ctxKey int

const (
	ctxRequestID ctxKey = iota
	ctxUsername
	ctxRequestInfo
)

// requestInfo 由访问日志中间件创建，认证通过后回填用户名
type requestInfo struct {
	username string
}

// HeaderRequestID 请求追踪头；客户端未提供时生成
const HeaderRequestID = "X-Request-ID"

func requestIDFrom(ctx context.Context) string {
	if v, ok := ctx.Value(ctxRequestID).(string); ok {
		return v
	}
	return ""
}

// UsernameFrom 返回通过认证的用户名（未认证为空）
func UsernameFrom(ctx context.Context) string {
	if v, ok := ctx.Value(ctxUsername).(string); ok {
		return v
	}
	return ""
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	n, err := s.ResponseWriter.Write(b)
	s.bytes += n
	return n, err
}

// WithRequestLogging 生成 request id、记录访问日志、兜底 panic
func WithRequestLogging(next http.Handler, logger *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		id := r.Header.Get(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, id)
		info := &requestInfo{}
		ctx := context.WithValue(r.Context(), ctxRequestID, id)
		r = r.WithContext(context.WithValue(ctx, ctxRequestInfo, info))

		rec := &statusRecorder{ResponseWriter: w}
		defer func() {
			if p := recover(); p != nil {
				logger.Error("panic in handler",
					zap.String("request_id", id),
					zap.String("path", r.URL.Path),
					zap.Any("panic", p),
				)
				if rec.status == 0 {
					writeJSON(rec, http.StatusInternalServerError, Fail("internal error"))
				}
			}

			status := rec.status
			if status == 0 {
				status = http.StatusOK
			}
			fields := []zap.Field{
				zap.String("request_id", id),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", status),
				zap.Int("bytes", rec.bytes),
				zap.Duration("duration", time.Since(start)),
			}
			if info.username != "" {
				fields = append(fields, zap.String("username", info.username))
			}
			logger.Info("http request", fields...)
		}()

		next.ServeHTTP(rec, r)
	})
}

// Authenticator 校验 Bearer token
type Authenticator struct {
	auth     service.AuthService
	required bool
	logger   *zap.Logger
}

// NewAuthenticator required 为 false 时 Require 直接放行
func NewAuthenticator(auth service.AuthService, required bool, logger *zap.Logger) *Authenticator {
	return &Authenticator{auth: auth, required: required, logger: logger}
}

// Require 包装需要登录的接口
func (a *Authenticator) Require(h http.HandlerFunc) http.HandlerFunc {
	if a == nil || !a.required {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			writeError(w, r, a.logger, domain.NewUnauthorizedError("not authenticated"))
			return
		}

		claims, err := a.auth.Authenticate(strings.TrimSpace(token))
		if err != nil {
			writeError(w, r, a.logger, err)
			return
		}
		if info, ok := r.Context().Value(ctxRequestInfo).(*requestInfo); ok {
			info.username = claims.Subject
		}
		h(w, r.WithContext(context.WithValue(r.Context(), ctxUsername, claims.Subject)))
	}
}
