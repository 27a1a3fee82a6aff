package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDatabaseConfig_GetDSN(t *testing.T) {
	c := DatabaseConfig{Host: "db", Port: 5432, User: "clima", Password: "pw", Database: "clima", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=clima password=pw dbname=clima sslmode=disable", c.GetDSN())

	c.URL = "postgres://u:p@h/d"
	assert.Equal(t, "postgres://u:p@h/d", c.GetDSN())
}

func TestDatabaseConfig_LoadFromEnv(t *testing.T) {
	t.Setenv("DB_HOST", "pg")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("DB_POOL_MAX", "6")
	t.Setenv("DB_TIMEOUT", "30")
	t.Setenv("DB_CONNECT_DELAY", "500ms")

	var c DatabaseConfig
	c.LoadFromEnv("DB")

	assert.Equal(t, "pg", c.Host)
	assert.Equal(t, 6543, c.Port)
	assert.Equal(t, 6, c.MaxConns)
	assert.Equal(t, 30*time.Second, c.QueryTimeout)
	assert.Equal(t, 500*time.Millisecond, c.ConnectDelay)
}

func TestMQTTConfig_LoadFromEnv(t *testing.T) {
	t.Setenv("MQTT_ENABLED", "true")
	t.Setenv("MQTT_TOPIC", "clima/+/lecturas")
	t.Setenv("MQTT_QOS", "5")

	c := MQTTConfig{QoS: 1}
	c.LoadFromEnv("MQTT")

	assert.True(t, c.Enabled)
	assert.Equal(t, "clima/+/lecturas", c.Topic)
	assert.Equal(t, byte(1), c.QoS, "out of range qos is ignored")
}
