package domain

import (
	"encoding/json"
	"time"
)

// Device 设备领域模型（对应 devices 表）
// serial 为自然键：全局唯一，首次 upsert 后不可变
type Device struct {
	DeviceID int64   `json:"device_id"`
	Serial   string  `json:"serial"`
	Name     string  `json:"name"`
	Location *string `json:"location,omitempty"`
	Type     *string `json:"type,omitempty"`
	Firmware *string `json:"firmware,omitempty"`

	// Config 不透明的配置文档（JSONB），原样保存，不经过 Go 类型转换；未设置时为 nil
	Config json.RawMessage `json:"config"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DeviceUpsert upsertDevice 的入参
type DeviceUpsert struct {
	Serial   string
	Name     string
	Location *string
	Type     *string
	Firmware *string
	Config   json.RawMessage
}
