package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimestamp(t *testing.T) {
	cases := []struct {
		in   string
		want time.Time
	}{
		{"2024-03-01T09:10:00Z", time.Date(2024, 3, 1, 9, 10, 0, 0, time.UTC)},
		{"2024-03-01T10:10:00+01:00", time.Date(2024, 3, 1, 9, 10, 0, 0, time.UTC)},
		{"2024-03-01T09:10:00", time.Date(2024, 3, 1, 9, 10, 0, 0, time.UTC)},
		{"2024-03-01 09:10:00.5", time.Date(2024, 3, 1, 9, 10, 0, 500000000, time.UTC)},
		{"2024-03-01", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseTimestamp(tc.in)
			require.NoError(t, err)
			assert.True(t, tc.want.Equal(got), "got %s", got)
		})
	}
}

func TestParseTimestamp_Invalid(t *testing.T) {
	for _, in := range []string{"", "   ", "yesterday", "2024-13-01T00:00:00Z"} {
		_, err := ParseTimestamp(in)
		assert.True(t, errors.Is(err, ErrValidation), in)
	}
}
