package domain

// 传感器换算默认值（调用方未提供时填充）
const (
	DefaultScaleFactor = 1.0
	DefaultOffset      = 0.0
)

// Sensor 传感器领域模型（对应 sensors 表）
// 自然键 (device_id, code)；code 为空的传感器无法去重，每次写入都会新建一行
type Sensor struct {
	SensorID    int64    `json:"sensor_id"`
	DeviceID    int64    `json:"device_id"`
	Code        *string  `json:"code,omitempty"`
	Name        string   `json:"name"`
	Unit        string   `json:"unit"`
	ScaleFactor float64  `json:"scale_factor"`
	Offset      float64  `json:"offset"`
	RangeMin    *float64 `json:"range_min,omitempty"`
	RangeMax    *float64 `json:"range_max,omitempty"`
}

// SensorUpsert upsertSensor 的入参；ScaleFactor/Offset 为 nil 时使用默认值
type SensorUpsert struct {
	DeviceID    int64
	Code        *string
	Name        string
	Unit        string
	ScaleFactor *float64
	Offset      *float64
	RangeMin    *float64
	RangeMax    *float64
}

// Resolve 填充默认值后返回 (scale_factor, offset)
func (u *SensorUpsert) Resolve() (float64, float64) {
	scale, offset := DefaultScaleFactor, DefaultOffset
	if u.ScaleFactor != nil {
		scale = *u.ScaleFactor
	}
	if u.Offset != nil {
		offset = *u.Offset
	}
	return scale, offset
}
