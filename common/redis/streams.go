package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// defaultStreamMaxLen 事件流近似上限，避免无人消费时无限增长
const defaultStreamMaxLen = 10000

// PublishJSONToStream 发布 JSON 消息到 Redis Streams
// 消息格式：{"event": <type>, "data": <json>, "timestamp": <unix>}
func PublishJSONToStream(ctx context.Context, client *redis.Client, stream string, eventType string, data interface{}) (string, error) {
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to marshal stream payload: %w", err)
	}

	// 使用 XADD 命令添加消息（MAXLEN ~ 近似裁剪）
	id, err := client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		MaxLen: defaultStreamMaxLen,
		Approx: true,
		Values: map[string]interface{}{
			"event":     eventType,
			"data":      string(jsonBytes),
			"timestamp": fmt.Sprintf("%d", time.Now().Unix()),
		},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("failed to publish to stream %s: %w", stream, err)
	}

	return id, nil
}
