package domain

import "time"

// DefaultQuality 未指定质量标记时的默认值
const DefaultQuality = 1

// Reading 传感器读数（对应 readings 表）
// 自然键 (device_id, sensor_id, timestamp)；重复写入被静默跳过
type Reading struct {
	ReadingID int64     `json:"reading_id,omitempty"`
	DeviceID  int64     `json:"device_id"`
	SensorID  int64     `json:"sensor_id"`
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`

	// Channels 额外的数值通道（如 temperature/humidity），可为空
	Channels map[string]float64 `json:"channels,omitempty"`

	Quality int     `json:"quality"`
	RawRow  *string `json:"raw_row,omitempty"`
}

// ReadingKey 读数自然键
type ReadingKey struct {
	DeviceID  int64
	SensorID  int64
	Timestamp time.Time
}

// Key 返回自然键（时间统一为 UTC，保证等值比较）
func (r *Reading) Key() ReadingKey {
	return ReadingKey{DeviceID: r.DeviceID, SensorID: r.SensorID, Timestamp: r.Timestamp.UTC()}
}
