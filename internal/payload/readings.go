// Package payload 读数的传输格式（HTTP 批量接口与 MQTT 消息共用）
// 字段名沿用设备端既有的西班牙语命名
package payload

import (
	"encoding/json"
	"fmt"

	"clima-data/internal/domain"
)

// ReadingPayload 单条读数
type ReadingPayload struct {
	DeviceID  int64              `json:"dispositivoid"`
	SensorID  int64              `json:"sensorid"`
	Timestamp string             `json:"fechahora"`
	Value     *float64           `json:"valor"`
	Quality   *int               `json:"calidad,omitempty"`
	Channels  map[string]float64 `json:"canales,omitempty"`
	RawRow    *string            `json:"rawrow,omitempty"`
}

// ToReading 转换为领域模型；calidad 缺省为 1
func (p ReadingPayload) ToReading() (domain.Reading, error) {
	ts, err := domain.ParseTimestamp(p.Timestamp)
	if err != nil {
		return domain.Reading{}, err
	}
	if p.Value == nil {
		return domain.Reading{}, domain.NewValidationError("valor is required")
	}
	quality := domain.DefaultQuality
	if p.Quality != nil {
		quality = *p.Quality
	}
	return domain.Reading{
		DeviceID:  p.DeviceID,
		SensorID:  p.SensorID,
		Timestamp: ts,
		Value:     *p.Value,
		Channels:  p.Channels,
		Quality:   quality,
		RawRow:    p.RawRow,
	}, nil
}

// ToReadings 批量转换，错误信息带上行号
func ToReadings(payloads []ReadingPayload) ([]domain.Reading, error) {
	out := make([]domain.Reading, 0, len(payloads))
	for i, p := range payloads {
		r, err := p.ToReading()
		if err != nil {
			return nil, domain.NewValidationError(fmt.Sprintf("reading %d: %s", i, domain.SafeMessage(err)))
		}
		out = append(out, r)
	}
	return out, nil
}

// DecodeReadings 解析 JSON 数组形式的读数
func DecodeReadings(data []byte) ([]domain.Reading, error) {
	var payloads []ReadingPayload
	if err := json.Unmarshal(data, &payloads); err != nil {
		return nil, domain.WrapError(domain.KindValidation, "payload must be a JSON array of readings", err)
	}
	return ToReadings(payloads)
}
