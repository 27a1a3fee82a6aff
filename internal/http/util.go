package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"clima-data/internal/domain"

	"go.uber.org/zap"
)

// maxBodyBytes 单次请求体上限（批量读数）
const maxBodyBytes = 10 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusForKind 错误分类到 HTTP 状态码
func statusForKind(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindForeignKey, domain.KindConflict:
		return http.StatusConflict
	case domain.KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// writeError 只返回安全摘要；内部原因写日志
func writeError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	kind := domain.KindOf(err)
	status := statusForKind(kind)

	fields := []zap.Field{
		zap.String("request_id", requestIDFrom(r.Context())),
		zap.String("path", r.URL.Path),
		zap.String("kind", string(kind)),
		zap.Error(err),
	}
	if u := UsernameFrom(r.Context()); u != "" {
		fields = append(fields, zap.String("username", u))
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", fields...)
	} else {
		logger.Debug("request rejected", fields...)
	}

	if kind == domain.KindUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeJSON(w, status, Result[any]{Code: ResultUnauthorized, Type: "error", Message: domain.SafeMessage(err)})
		return
	}
	writeJSON(w, status, Fail(domain.SafeMessage(err)))
}

// queryInt 解析整数查询参数；缺省返回 def，格式错误返回 ValidationError
func queryInt(r *http.Request, name string, def int) (int, error) {
	s := strings.TrimSpace(r.URL.Query().Get(name))
	if s == "" {
		return def, nil
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, domain.NewValidationError(fmt.Sprintf("%s must be an integer", name))
	}
	return i, nil
}

// pathID 从 /prefix/{id}[/suffix] 中取出 id
func pathID(path, prefix, suffix string) (int64, bool) {
	rest := strings.TrimPrefix(path, prefix)
	if rest == path {
		return 0, false
	}
	rest = strings.TrimSuffix(rest, suffix)
	if rest == "" || strings.Contains(rest, "/") {
		return 0, false
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func readBodyJSON(r *http.Request, maxBytes int64, out any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBytes+1))
	if err != nil {
		return domain.WrapError(domain.KindValidation, "failed to read request body", err)
	}
	if int64(len(body)) > maxBytes {
		return domain.NewValidationError("request body too large")
	}
	if len(body) == 0 {
		return domain.NewValidationError("request body is required")
	}
	if err := json.Unmarshal(body, out); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return domain.WrapError(domain.KindValidation, fmt.Sprintf("field %s has the wrong type", typeErr.Field), err)
		}
		return domain.WrapError(domain.KindValidation, "request body is not valid JSON", err)
	}
	return nil
}

func methodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, Fail("method not allowed"))
}
