package repository

import (
	"context"
	"database/sql"
	"errors"

	"clima-data/internal/domain"

	"github.com/lib/pq"
)

// translateError 将驱动错误转换为领域错误
// msg 为可以返回给调用方的摘要；驱动原文只保留在 Err 中用于日志
func translateError(err error, msg string) error {
	if err == nil {
		return nil
	}

	var de *domain.Error
	if errors.As(err, &de) {
		return err
	}

	if errors.Is(err, context.Canceled) {
		return domain.WrapError(domain.KindStore, msg+": request cancelled", err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.WrapError(domain.KindStore, msg+": store timeout", err)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return domain.WrapError(domain.KindNotFound, msg+": not found", err)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Name() {
		case "foreign_key_violation":
			return domain.WrapError(domain.KindForeignKey, msg+": referenced device or sensor does not exist", err)
		case "unique_violation":
			return domain.WrapError(domain.KindConflict, msg+": duplicate key", err)
		case "not_null_violation", "check_violation", "invalid_text_representation",
			"numeric_value_out_of_range", "invalid_datetime_format", "datetime_field_overflow":
			return domain.WrapError(domain.KindValidation, msg+": invalid value", err)
		}
	}

	return domain.WrapError(domain.KindStore, msg, err)
}

// isForeignKeyViolation 判断是否为外键约束错误
func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code.Name() == "foreign_key_violation"
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func nullFloat(nf sql.NullFloat64) *float64 {
	if !nf.Valid {
		return nil
	}
	f := nf.Float64
	return &f
}
