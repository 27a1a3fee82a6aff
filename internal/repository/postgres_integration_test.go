//go:build integration

package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"testing"
	"time"

	"clima-data/common/config"
	"clima-data/common/database"
	"clima-data/internal/domain"
	"clima-data/migrations"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// getTestDB 连接测试库并应用迁移；连不上时跳过
func getTestDB(t *testing.T) *sql.DB {
	cfg := &config.DatabaseConfig{
		Host:            getEnv("TEST_DB_HOST", "localhost"),
		Port:            getEnvInt("TEST_DB_PORT", 5432),
		User:            getEnv("TEST_DB_USER", "postgres"),
		Password:        getEnv("TEST_DB_PASSWORD", "postgres"),
		Database:        getEnv("TEST_DB_NAME", "clima_test"),
		SSLMode:         getEnv("TEST_DB_SSLMODE", "disable"),
		ConnectAttempts: 1,
	}

	db, err := database.NewPostgresDB(context.Background(), cfg, zap.NewNop())
	if err != nil {
		t.Skipf("Skipping integration test: cannot connect to database: %v", err)
		return nil
	}

	all, err := migrations.All()
	require.NoError(t, err)
	for _, m := range all {
		_, err := db.Exec(m.SQL)
		require.NoError(t, err, "apply migration %s", m.Name)
	}
	return db
}

// createTestDevice 每个测试使用独立 serial，互不干扰
func createTestDevice(t *testing.T, repo *PostgresDevicesRepository) int64 {
	serial := fmt.Sprintf("it-%s-%d", t.Name(), time.Now().UnixNano())
	id, err := repo.UpsertDevice(context.Background(), domain.DeviceUpsert{Serial: serial, Name: "integration"})
	require.NoError(t, err)
	t.Cleanup(func() {
		// readings/sensors 随设备级联删除
		_, _ = repo.db.Exec(`DELETE FROM devices WHERE device_id = $1`, id)
	})
	return id
}

func TestIntegration_DeviceRegistrationIsIdempotent(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	repo := NewPostgresDevicesRepository(db)
	ctx := context.Background()
	serial := fmt.Sprintf("it-idem-%d", time.Now().UnixNano())
	defer db.Exec(`DELETE FROM devices WHERE serial = $1`, serial)

	id1, err := repo.UpsertDevice(ctx, domain.DeviceUpsert{Serial: serial, Name: "first", Config: json.RawMessage(`{"a":[1.0,"x"],"big":12345678901234567891}`)})
	require.NoError(t, err)
	id2, err := repo.UpsertDevice(ctx, domain.DeviceUpsert{Serial: serial, Name: "second"})
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	d, err := repo.GetDevice(ctx, id1)
	require.NoError(t, err)
	assert.Equal(t, "second", d.Name)
	assert.Nil(t, d.Config)

	_, err = repo.UpsertDevice(ctx, domain.DeviceUpsert{Serial: serial, Name: "third", Config: json.RawMessage(`{"a":[1.0,"x"],"big":12345678901234567891}`)})
	require.NoError(t, err)
	d, err = repo.GetDevice(ctx, id1)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":[1.0,"x"],"big":12345678901234567891}`, string(d.Config))
	assert.Contains(t, string(d.Config), "12345678901234567891")
}

func TestIntegration_SensorNaturalKey(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	devices := NewPostgresDevicesRepository(db)
	sensors := NewPostgresSensorsRepository(db)
	ctx := context.Background()
	deviceID := createTestDevice(t, devices)

	code := "T1"
	id1, err := sensors.UpsertSensor(ctx, domain.SensorUpsert{DeviceID: deviceID, Code: &code, Name: "temp", Unit: "C"})
	require.NoError(t, err)
	id2, err := sensors.UpsertSensor(ctx, domain.SensorUpsert{DeviceID: deviceID, Code: &code, Name: "temperatura", Unit: "K"})
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	s, err := sensors.GetSensor(ctx, id1)
	require.NoError(t, err)
	assert.Equal(t, "temperatura", s.Name)
	assert.Equal(t, "K", s.Unit)

	// code 为空的传感器不合并
	n1, err := sensors.UpsertSensor(ctx, domain.SensorUpsert{DeviceID: deviceID, Name: "extra", Unit: "u"})
	require.NoError(t, err)
	n2, err := sensors.UpsertSensor(ctx, domain.SensorUpsert{DeviceID: deviceID, Name: "extra", Unit: "u"})
	require.NoError(t, err)
	assert.NotEqual(t, n1, n2)

	_, err = sensors.UpsertSensor(ctx, domain.SensorUpsert{DeviceID: -1, Code: &code, Name: "x", Unit: "u"})
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestIntegration_ReadingsAndCharts(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	devices := NewPostgresDevicesRepository(db)
	sensors := NewPostgresSensorsRepository(db)
	readings := NewPostgresReadingsRepository(db)
	charts := NewPostgresChartsRepository(db)
	ctx := context.Background()

	deviceID := createTestDevice(t, devices)
	code := "H1"
	scale, offset := 2.0, 1.0
	sensorID, err := sensors.UpsertSensor(ctx, domain.SensorUpsert{
		DeviceID: deviceID, Code: &code, Name: "humedad", Unit: "%", ScaleFactor: &scale, Offset: &offset,
	})
	require.NoError(t, err)

	at := func(h, m int) time.Time { return time.Date(2024, 3, 1, h, m, 0, 0, time.UTC) }
	batch := []domain.Reading{
		{DeviceID: deviceID, SensorID: sensorID, Timestamp: at(9, 10), Value: 1, Quality: 1, Channels: map[string]float64{"t": 10}},
		{DeviceID: deviceID, SensorID: sensorID, Timestamp: at(9, 45), Value: 3, Quality: 1, Channels: map[string]float64{"t": 20}},
	}
	n, err := readings.InsertBatch(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	// 5 行中 2 行已存在
	batch = append(batch,
		domain.Reading{DeviceID: deviceID, SensorID: sensorID, Timestamp: at(10, 5), Value: 5, Quality: 1},
		domain.Reading{DeviceID: deviceID, SensorID: sensorID, Timestamp: at(11, 0), Value: 5, Quality: 1},
		domain.Reading{DeviceID: deviceID, SensorID: sensorID, Timestamp: at(12, 0), Value: 5, Quality: 1},
	)
	n, err = readings.InsertBatch(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	// 外键失败时整批不落库
	bad := []domain.Reading{
		{DeviceID: deviceID, SensorID: sensorID, Timestamp: at(13, 0), Value: 1, Quality: 1},
		{DeviceID: deviceID, SensorID: -1, Timestamp: at(13, 0), Value: 1, Quality: 1},
	}
	_, err = readings.InsertBatch(ctx, bad)
	assert.True(t, errors.Is(err, domain.ErrForeignKey))
	var cnt int
	require.NoError(t, db.QueryRow(`SELECT count(*) FROM readings WHERE device_id = $1`, deviceID).Scan(&cnt))
	assert.Equal(t, 5, cnt)

	name := "humedad"
	out, err := charts.GetChartData(ctx, domain.ChartQuery{
		DeviceID: &deviceID, SensorName: &name, From: at(9, 0), To: at(11, 0), Bucket: domain.BucketHour,
	})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, at(9, 0), out[0].BucketStart)
	assert.Equal(t, int64(2), out[0].Count)
	assert.InDelta(t, 5.0, out[0].Avg, 1e-9) // (1*2+1 + 3*2+1) / 2
	assert.Equal(t, domain.ChannelStats{Count: 2, Avg: 15, Min: 10, Max: 20}, out[0].Channels["t"])
	assert.Equal(t, at(10, 0), out[1].BucketStart)
	assert.Equal(t, int64(1), out[1].Count)

	// 名称大小写敏感
	upper := "Humedad"
	out, err = charts.GetChartData(ctx, domain.ChartQuery{
		DeviceID: &deviceID, SensorName: &upper, From: at(9, 0), To: at(11, 0), Bucket: domain.BucketHour,
	})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestIntegration_ExportPaginationIsStable(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	readings := NewPostgresReadingsRepository(db)
	ctx := context.Background()

	page1, err := readings.ListReadings(ctx, 5, 0)
	require.NoError(t, err)
	page2, err := readings.ListReadings(ctx, 5, 5)
	require.NoError(t, err)
	all, err := readings.ListReadings(ctx, 10, 0)
	require.NoError(t, err)

	joined := append(append([]*domain.Reading{}, page1...), page2...)
	require.Equal(t, len(all), len(joined))
	for i := range all {
		assert.Equal(t, all[i].ReadingID, joined[i].ReadingID)
	}
}
