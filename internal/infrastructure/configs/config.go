package configs

import (
	"fmt"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pointdeck/pointdeck/internal/infrastructure/env"
)

type Config struct {
	HTTP        HTTPConfig        `koanf:"http"`
	RateLimiter RateLimiterConfig `koanf:"rateLimiter"`
	RoomStore   RoomStoreConfig   `koanf:"room_store"`
	WS          WSConfig          `koanf:"ws"`
	Tracing     TracingConfig     `koanf:"tracing"`
}

type HTTPConfig struct {
	Host         string        `koanf:"host"`
	Port         uint16        `koanf:"port"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
}

type RateLimiterConfig struct {
	RequestsPerTimeFrame int           `koanf:"requestsPerTimeFrame"`
	TimeFrame            time.Duration `koanf:"timeFrame"`
}

type RoomStoreConfig struct {
	Capacity     uint          `koanf:"capacity"`
	IdleGrace    time.Duration `koanf:"idle_grace"`
	ReapInterval time.Duration `koanf:"reap_interval"`
}

type WSConfig struct {
	SendBuffer     int           `koanf:"send_buffer"`
	WriteTimeout   time.Duration `koanf:"write_timeout"`
	PongTimeout    time.Duration `koanf:"pong_timeout"`
	PingInterval   time.Duration `koanf:"ping_interval"`
	MaxMessageSize int64         `koanf:"max_message_size"`
}

type TracingConfig struct {
	Enabled     bool   `koanf:"enabled"`
	Endpoint    string `koanf:"endpoint"`
	ServiceName string `koanf:"service_name"`
	Environment string `koanf:"environment"`
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	applyDefaults(k)
	applyEnvOverrides(k)

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(k *koanf.Koanf) {
	// HTTP defaults
	setDefault(k, "http.host", "0.0.0.0")
	setDefault(k, "http.port", 8080)
	setDefault(k, "http.read_timeout", 10*time.Second)
	setDefault(k, "http.write_timeout", 30*time.Second)

	// Rate limiter defaults
	setDefault(k, "rateLimiter.requestsPerTimeFrame", 60)
	setDefault(k, "rateLimiter.timeFrame", time.Minute)

	// Room store defaults
	setDefault(k, "room_store.capacity", 500)
	setDefault(k, "room_store.idle_grace", 10*time.Minute)
	setDefault(k, "room_store.reap_interval", time.Minute)

	// WebSocket defaults
	setDefault(k, "ws.send_buffer", 64)
	setDefault(k, "ws.write_timeout", 10*time.Second)
	setDefault(k, "ws.pong_timeout", 60*time.Second)
	setDefault(k, "ws.ping_interval", 30*time.Second)
	setDefault(k, "ws.max_message_size", 4096)

	// Tracing defaults
	setDefault(k, "tracing.enabled", false)
	setDefault(k, "tracing.endpoint", "http://localhost:4318")
	setDefault(k, "tracing.service_name", "pointdeck")
	setDefault(k, "tracing.environment", "development")
}

func applyEnvOverrides(k *koanf.Koanf) {
	if host := env.GetString("HTTP_HOST", ""); host != "" {
		k.Set("http.host", host)
	}
	if port := env.GetInt("HTTP_PORT", 0); port > 0 {
		k.Set("http.port", port)
	}
	if readTimeout := env.GetInt("HTTP_READ_TIMEOUT_SECONDS", 0); readTimeout > 0 {
		k.Set("http.read_timeout", time.Duration(readTimeout)*time.Second)
	}
	if writeTimeout := env.GetInt("HTTP_WRITE_TIMEOUT_SECONDS", 0); writeTimeout > 0 {
		k.Set("http.write_timeout", time.Duration(writeTimeout)*time.Second)
	}

	if maxRequests := env.GetInt("RATE_LIMIT_REQUESTS_PER_TIME_FRAME", 0); maxRequests > 0 {
		k.Set("rateLimiter.requestsPerTimeFrame", maxRequests)
	}
	if frame := env.GetInt("RATE_LIMIT_TIME_FRAME_SECONDS", 0); frame > 0 {
		k.Set("rateLimiter.timeFrame", time.Duration(frame)*time.Second)
	}

	if capacity := env.GetInt("ROOM_STORE_CAPACITY", 0); capacity > 0 {
		k.Set("room_store.capacity", uint(capacity))
	}
	if grace := env.GetInt("ROOM_STORE_IDLE_GRACE_MINUTES", 0); grace > 0 {
		k.Set("room_store.idle_grace", time.Duration(grace)*time.Minute)
	}

	if endpoint := env.GetString("OTLP_ENDPOINT", ""); endpoint != "" {
		k.Set("tracing.endpoint", endpoint)
		k.Set("tracing.enabled", true)
	}
	if environment := env.GetString("ENVIRONMENT", ""); environment != "" {
		k.Set("tracing.environment", environment)
	}
}

// setDefault only sets the value if the key doesn't already exist
func setDefault(k *koanf.Koanf, key string, value interface{}) {
	if !k.Exists(key) {
		k.Set(key, value)
	}
}
