package consumer

import (
	"context"
	"fmt"

	"clima-data/common/config"
	mqttcommon "clima-data/common/mqtt"
	"clima-data/internal/domain"
	"clima-data/internal/payload"
	"clima-data/internal/service"

	"go.uber.org/zap"
)

// Subscriber MQTT 订阅接口（*mqttcommon.Client 实现）
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqttcommon.MessageHandler) error
	Unsubscribe(topics ...string) error
}

// MQTTConsumer 订阅读数主题，消息体与 POST /lecturas/batch 相同
type MQTTConsumer struct {
	config *config.MQTTConfig
	client Subscriber
	ingest service.IngestService
	logger *zap.Logger

	ctx context.Context
}

// NewMQTTConsumer 创建MQTT消费者
func NewMQTTConsumer(cfg *config.MQTTConfig, client Subscriber, ingest service.IngestService, logger *zap.Logger) *MQTTConsumer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MQTTConsumer{
		config: cfg,
		client: client,
		ingest: ingest,
		logger: logger,
		ctx:    context.Background(),
	}
}

// Start 订阅后阻塞到 ctx 取消
func (c *MQTTConsumer) Start(ctx context.Context) error {
	c.ctx = ctx
	if err := c.client.Subscribe(c.config.Topic, c.config.QoS, c.handleMessage); err != nil {
		return fmt.Errorf("failed to subscribe to readings topic: %w", err)
	}

	c.logger.Info("MQTT consumer started",
		zap.String("topic", c.config.Topic),
		zap.Uint8("qos", c.config.QoS),
	)

	<-ctx.Done()
	return nil
}

// Stop 取消订阅
func (c *MQTTConsumer) Stop() {
	if err := c.client.Unsubscribe(c.config.Topic); err != nil {
		c.logger.Error("Failed to unsubscribe", zap.Error(err))
	}
	c.logger.Info("MQTT consumer stopped")
}

// handleMessage 解析并写入一批读数
// 消息格式错误只记录日志，不重投
func (c *MQTTConsumer) handleMessage(topic string, data []byte) error {
	c.logger.Debug("Received MQTT message",
		zap.String("topic", topic),
		zap.Int("payload_size", len(data)),
	)

	readings, err := payload.DecodeReadings(data)
	if err != nil {
		c.logger.Warn("Dropping malformed readings payload",
			zap.String("topic", topic),
			zap.String("reason", domain.SafeMessage(err)),
		)
		return nil
	}
	if len(readings) == 0 {
		return nil
	}

	inserted, err := c.ingest.InsertBatch(c.ctx, readings)
	if err != nil {
		if domain.KindOf(err) == domain.KindValidation || domain.KindOf(err) == domain.KindForeignKey {
			c.logger.Warn("Rejected readings batch",
				zap.String("topic", topic),
				zap.Int("received", len(readings)),
				zap.String("reason", domain.SafeMessage(err)),
			)
			return nil
		}
		return fmt.Errorf("failed to insert readings from %s: %w", topic, err)
	}

	c.logger.Debug("Stored readings from MQTT",
		zap.String("topic", topic),
		zap.Int("received", len(readings)),
		zap.Int64("inserted", inserted),
	)
	return nil
}
