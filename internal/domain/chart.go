package domain

import (
	"fmt"
	"time"
)

// Bucket 图表聚合的时间桶粒度
type Bucket string

const (
	BucketMinute Bucket = "minute"
	BucketHour   Bucket = "hour"
	BucketDay    Bucket = "day"
	BucketWeek   Bucket = "week"
	BucketMonth  Bucket = "month"
)

// Buckets 支持的全部粒度
var Buckets = []Bucket{BucketMinute, BucketHour, BucketDay, BucketWeek, BucketMonth}

// ParseBucket 解析粒度字符串（大小写敏感），非法值返回 ValidationError
func ParseBucket(s string) (Bucket, error) {
	for _, b := range Buckets {
		if string(b) == s {
			return b, nil
		}
	}
	return "", NewValidationError(fmt.Sprintf("invalid bucket %q (expected minute, hour, day, week or month)", s))
}

// Truncate 将时间截断到所在桶的起点（UTC）
// week 以 ISO 周一为起点，month 以当月 1 日为起点
func (b Bucket) Truncate(t time.Time) time.Time {
	t = t.UTC()
	y, m, d := t.Date()
	switch b {
	case BucketMinute:
		return time.Date(y, m, d, t.Hour(), t.Minute(), 0, 0, time.UTC)
	case BucketHour:
		return time.Date(y, m, d, t.Hour(), 0, 0, 0, time.UTC)
	case BucketDay:
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	case BucketWeek:
		// Go 的 Weekday 以周日为 0，转换为周一为 0
		offset := (int(t.Weekday()) + 6) % 7
		return time.Date(y, m, d-offset, 0, 0, 0, 0, time.UTC)
	case BucketMonth:
		return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
	default:
		return t
	}
}

// Next 返回桶的结束时间（即下一个桶的起点）
func (b Bucket) Next(start time.Time) time.Time {
	switch b {
	case BucketMinute:
		return start.Add(time.Minute)
	case BucketHour:
		return start.Add(time.Hour)
	case BucketDay:
		return start.AddDate(0, 0, 1)
	case BucketWeek:
		return start.AddDate(0, 0, 7)
	case BucketMonth:
		return start.AddDate(0, 1, 0)
	default:
		return start
	}
}

// ChannelStats 单个数值通道在桶内的统计
type ChannelStats struct {
	Count int64   `json:"count"`
	Avg   float64 `json:"avg"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// ChartBucket 图表桶（查询时计算，不落库）
// Avg/Min/Max 为换算后的工程值（value * scale_factor + offset）
type ChartBucket struct {
	DeviceID    int64     `json:"device_id"`
	SensorID    int64     `json:"sensor_id"`
	SensorName  string    `json:"sensor_name"`
	Unit        string    `json:"unit"`
	BucketStart time.Time `json:"bucket_start"`
	// BucketEnd 桶结束时间（不含）
	BucketEnd   time.Time `json:"bucket_end"`
	BucketWidth Bucket    `json:"bucket_width"`
	Count       int64     `json:"count"`
	Avg         float64   `json:"avg"`
	Min         float64   `json:"min"`
	Max         float64   `json:"max"`

	Channels map[string]ChannelStats `json:"channels,omitempty"`
}

// ChartQuery 图表查询条件；From/To 为半开区间 [From, To)
type ChartQuery struct {
	DeviceID   *int64
	SensorName *string
	From       time.Time
	To         time.Time
	Bucket     Bucket
}
