package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	commoncfg "clima-data/common/config"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config clima-data（HTTP API + 可选 MQTT 接入）配置
// 加载顺序：.env -> CLIMA_CONFIG 指向的 YAML -> 环境变量（环境变量优先）
type Config struct {
	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`
	Database commoncfg.DatabaseConfig `yaml:"database"`
	Redis    commoncfg.RedisConfig    `yaml:"redis"`
	MQTT     commoncfg.MQTTConfig     `yaml:"mqtt"`
	Log      struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Auth   AuthConfig   `yaml:"auth"`
	Export ExportConfig `yaml:"export"`
	Charts ChartsConfig `yaml:"charts"`
}

// AuthConfig 登录与 access token
type AuthConfig struct {
	SecretKey string        `yaml:"secret_key"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
	// Required 为 true 时写入与导出接口需要 Bearer token
	Required bool `yaml:"required"`
}

// ExportConfig 导出分页
type ExportConfig struct {
	DefaultLimit int `yaml:"default_limit"`
	MaxLimit     int `yaml:"max_limit"`
}

// ChartsConfig 入库后图表刷新
type ChartsConfig struct {
	RefreshEnabled bool          `yaml:"refresh_enabled"`
	RefreshTTL     time.Duration `yaml:"refresh_ttl"`
	CacheKey       string        `yaml:"cache_key"`
	Stream         string        `yaml:"stream"`
}

const defaultSecretKey = "change_this_secret_in_production"

// Load 加载配置
func Load() (*Config, error) {
	// .env 不存在不算错误
	_ = godotenv.Load()

	cfg := defaults()

	if path := os.Getenv("CLIMA_CONFIG"); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	cfg := &Config{}
	cfg.HTTP.Addr = ":8000"

	cfg.Database.Host = "localhost"
	cfg.Database.Port = 5432
	cfg.Database.User = "postgres"
	cfg.Database.Password = "postgres"
	cfg.Database.Database = "clima"
	cfg.Database.SSLMode = "require"
	cfg.Database.MaxConns = 6
	cfg.Database.MaxIdle = 1
	cfg.Database.ConnMaxLifetime = 30 * time.Minute
	cfg.Database.QueryTimeout = 60 * time.Second
	cfg.Database.ConnectAttempts = 5
	cfg.Database.ConnectDelay = 2 * time.Second

	cfg.Redis.Addr = "localhost:6379"

	cfg.MQTT.Broker = "tcp://localhost:1883"
	cfg.MQTT.ClientID = "clima-data"
	cfg.MQTT.Topic = "clima/+/lecturas"
	cfg.MQTT.QoS = 1

	cfg.Log.Level = "info"
	cfg.Log.Format = "json"

	cfg.Auth.SecretKey = defaultSecretKey
	cfg.Auth.TokenTTL = 60 * time.Minute

	cfg.Export.DefaultLimit = 10000
	cfg.Export.MaxLimit = 100000

	cfg.Charts.RefreshEnabled = true
	cfg.Charts.RefreshTTL = 10 * time.Minute
	cfg.Charts.CacheKey = "clima:chart:recent:hour"
	cfg.Charts.Stream = "clima:events"
	return cfg
}

func applyEnv(cfg *Config) {
	// PORT 与旧部署兼容；HTTP_ADDR 优先
	if port := os.Getenv("PORT"); port != "" {
		cfg.HTTP.Addr = ":" + port
	}
	cfg.HTTP.Addr = getEnv("HTTP_ADDR", cfg.HTTP.Addr)

	cfg.Database.LoadFromEnv("DB")
	// 旧变量名
	if v := os.Getenv("DB_SSL_MODE"); v != "" {
		cfg.Database.SSLMode = v
	}
	cfg.Redis.LoadFromEnv("REDIS")
	cfg.MQTT.LoadFromEnv("MQTT")

	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getEnv("LOG_FORMAT", cfg.Log.Format)

	cfg.Auth.SecretKey = getEnv("SECRET_KEY", cfg.Auth.SecretKey)
	if v := os.Getenv("ACCESS_TOKEN_EXPIRE_MINUTES"); v != "" {
		if m := parseInt(v, 0); m > 0 {
			cfg.Auth.TokenTTL = time.Duration(m) * time.Minute
		}
	}
	if v := os.Getenv("AUTH_REQUIRED"); v != "" {
		cfg.Auth.Required = v == "true"
	}

	cfg.Export.DefaultLimit = parseInt(getEnv("EXPORT_DEFAULT_LIMIT", ""), cfg.Export.DefaultLimit)
	cfg.Export.MaxLimit = parseInt(getEnv("EXPORT_MAX_LIMIT", ""), cfg.Export.MaxLimit)

	if v := os.Getenv("CHART_REFRESH_ENABLED"); v != "" {
		cfg.Charts.RefreshEnabled = v == "true"
	}
	if v := os.Getenv("CHART_REFRESH_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Charts.RefreshTTL = d
		}
	}
	cfg.Charts.Stream = getEnv("CHART_EVENTS_STREAM", cfg.Charts.Stream)
}

// Validate 校验互相依赖的取值
func (c *Config) Validate() error {
	if c.Export.MaxLimit <= 0 {
		return fmt.Errorf("export max limit must be positive, got %d", c.Export.MaxLimit)
	}
	if c.Export.DefaultLimit <= 0 || c.Export.DefaultLimit > c.Export.MaxLimit {
		return fmt.Errorf("export default limit must be in 1..%d, got %d", c.Export.MaxLimit, c.Export.DefaultLimit)
	}
	if c.Auth.Required && (c.Auth.SecretKey == "" || c.Auth.SecretKey == defaultSecretKey) {
		return fmt.Errorf("SECRET_KEY must be set when AUTH_REQUIRED=true")
	}
	if c.MQTT.Enabled && c.MQTT.Broker == "" {
		return fmt.Errorf("MQTT_BROKER must be set when MQTT_ENABLED=true")
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}
