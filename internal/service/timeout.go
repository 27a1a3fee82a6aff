package service

import (
	"context"
	"time"
)

// withTimeout 为单次存储调用加上超时；d <= 0 时只继承调用方的 ctx
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
