package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultValues(t *testing.T) {
	// 清除环境变量
	os.Clearenv()

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8000", cfg.HTTP.Addr)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 6, cfg.Database.MaxConns)
	assert.Equal(t, 1, cfg.Database.MaxIdle)
	assert.Equal(t, 60*time.Second, cfg.Database.QueryTimeout)
	assert.Equal(t, 5, cfg.Database.ConnectAttempts)
	assert.Equal(t, "clima/+/lecturas", cfg.MQTT.Topic)
	assert.False(t, cfg.MQTT.Enabled)
	assert.Equal(t, 60*time.Minute, cfg.Auth.TokenTTL)
	assert.Equal(t, 10000, cfg.Export.DefaultLimit)
	assert.Equal(t, 100000, cfg.Export.MaxLimit)
	assert.Equal(t, "clima:chart:recent:hour", cfg.Charts.CacheKey)
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	os.Clearenv()
	t.Setenv("PORT", "9000")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/clima?sslmode=disable")
	t.Setenv("DB_POOL_MAX", "12")
	t.Setenv("DB_TIMEOUT", "5")
	t.Setenv("DB_SSL_MODE", "disable")
	t.Setenv("ACCESS_TOKEN_EXPIRE_MINUTES", "15")
	t.Setenv("MQTT_ENABLED", "true")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.HTTP.Addr)
	assert.Equal(t, "postgres://u:p@db:5432/clima?sslmode=disable", cfg.Database.GetDSN())
	assert.Equal(t, 12, cfg.Database.MaxConns)
	assert.Equal(t, 5*time.Second, cfg.Database.QueryTimeout)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, 15*time.Minute, cfg.Auth.TokenTTL)
	assert.True(t, cfg.MQTT.Enabled)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_YAMLFileThenEnvOverride(t *testing.T) {
	os.Clearenv()
	dir := t.TempDir()
	path := filepath.Join(dir, "clima.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http:
  addr: ":7000"
database:
  host: yaml-host
  max_conns: 3
export:
  max_limit: 500
  default_limit: 100
`), 0o600))

	t.Setenv("CLIMA_CONFIG", path)
	t.Setenv("DB_HOST", "env-host")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.HTTP.Addr)
	assert.Equal(t, "env-host", cfg.Database.Host)
	assert.Equal(t, 3, cfg.Database.MaxConns)
	assert.Equal(t, 500, cfg.Export.MaxLimit)
	assert.Equal(t, 100, cfg.Export.DefaultLimit)
	// 未出现在 YAML 中的字段保留默认值
	assert.Equal(t, 5432, cfg.Database.Port)
}

func TestLoad_Invalid(t *testing.T) {
	os.Clearenv()
	t.Setenv("AUTH_REQUIRED", "true")

	_, err := Load()
	assert.Error(t, err)

	t.Setenv("SECRET_KEY", "real-secret")
	t.Setenv("EXPORT_DEFAULT_LIMIT", "200000")
	_, err = Load()
	assert.Error(t, err)
}

func TestLoad_MissingConfigFile(t *testing.T) {
	os.Clearenv()
	t.Setenv("CLIMA_CONFIG", filepath.Join(t.TempDir(), "absent.yaml"))

	_, err := Load()
	assert.Error(t, err)
}
