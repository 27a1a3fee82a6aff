package httpapi

// Result 统一响应包
// - code: 2000 成功，其它为失败
// - type: 'success' | 'error'
// - message: 失败时为可以展示的摘要，不包含内部原因
// - result: any
type Result[T any] struct {
	Code    int    `json:"code"`
	Type    string `json:"type"`
	Message string `json:"message"`
	Result  T      `json:"result"`
}

const (
	ResultSuccess = 2000
	ResultError   = -1
	// ResultUnauthorized 与 HTTP 401 一起返回，客户端据此重新登录
	ResultUnauthorized = 40100
)

func Ok[T any](result T) Result[T] {
	return Result[T]{Code: ResultSuccess, Type: "success", Message: "ok", Result: result}
}

func Fail(message string) Result[any] {
	return Result[any]{Code: ResultError, Type: "error", Message: message, Result: nil}
}
