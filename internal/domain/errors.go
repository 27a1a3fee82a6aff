package domain

import (
	"errors"
	"fmt"
)

// ErrorKind 错误分类（由边界层映射为传输层表示）
type ErrorKind string

const (
	KindValidation   ErrorKind = "validation"
	KindNotFound     ErrorKind = "not_found"
	KindForeignKey   ErrorKind = "foreign_key"
	KindConflict     ErrorKind = "conflict"
	KindUnauthorized ErrorKind = "unauthorized"
	KindStore        ErrorKind = "store"
)

// Error 领域错误
// Message 可以返回给调用方；Err 是内部原因（驱动报错等），只用于日志
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is 按 Kind 匹配哨兵错误：errors.Is(err, domain.ErrNotFound)
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Err == nil && t.Kind == e.Kind
}

// 哨兵错误，仅用于 errors.Is 判断
var (
	ErrValidation   = &Error{Kind: KindValidation}
	ErrNotFound     = &Error{Kind: KindNotFound}
	ErrForeignKey   = &Error{Kind: KindForeignKey}
	ErrConflict     = &Error{Kind: KindConflict}
	ErrUnauthorized = &Error{Kind: KindUnauthorized}
)

func NewValidationError(msg string) error {
	return &Error{Kind: KindValidation, Message: msg}
}

func NewNotFoundError(msg string) error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func NewUnauthorizedError(msg string) error {
	return &Error{Kind: KindUnauthorized, Message: msg}
}

// WrapError 以指定分类包装内部错误
func WrapError(kind ErrorKind, msg string, err error) error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// KindOf 返回错误分类；非领域错误一律视为 store
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindStore
}

// SafeMessage 返回可以暴露给调用方的摘要，不包含内部原因
func SafeMessage(err error) string {
	var de *Error
	if errors.As(err, &de) && de.Message != "" {
		return de.Message
	}
	return "internal error"
}
