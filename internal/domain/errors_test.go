package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_IsByKind(t *testing.T) {
	err := WrapError(KindForeignKey, "unknown device or sensor", errors.New("pq: insert violates foreign key"))

	assert.True(t, errors.Is(err, ErrForeignKey))
	assert.False(t, errors.Is(err, ErrNotFound))

	// 经过 fmt.Errorf 包装仍可识别
	wrapped := fmt.Errorf("insert batch: %w", err)
	assert.True(t, errors.Is(wrapped, ErrForeignKey))
	assert.Equal(t, KindForeignKey, KindOf(wrapped))
}

func TestSafeMessage_HidesCause(t *testing.T) {
	err := WrapError(KindStore, "failed to upsert device", errors.New("dial tcp 10.0.0.1:5432: connection refused"))

	assert.Equal(t, "failed to upsert device", SafeMessage(err))
	assert.Contains(t, err.Error(), "connection refused")

	assert.Equal(t, "internal error", SafeMessage(errors.New("raw")))
	assert.Equal(t, KindStore, KindOf(errors.New("raw")))
}

func TestSensorUpsert_ResolveDefaults(t *testing.T) {
	u := SensorUpsert{}
	scale, offset := u.Resolve()
	assert.Equal(t, 1.0, scale)
	assert.Equal(t, 0.0, offset)

	s, o := 0.1, -40.0
	u = SensorUpsert{ScaleFactor: &s, Offset: &o}
	scale, offset = u.Resolve()
	assert.Equal(t, 0.1, scale)
	assert.Equal(t, -40.0, offset)
}
