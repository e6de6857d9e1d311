// Package config は環境変数からサービス設定を読み込みます。
package config

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"
)

// モデルのバックエンド
const (
	BackendONNX   = "onnx"
	BackendVision = "vision"
)

// Config はサービス全体の設定です。
type Config struct {
	Server ServerConfig
	Model  ModelConfig
	Redis  RedisConfig
	Log    LogConfig

	CacheEnable bool   `env:"CACHE_ENABLE" envDefault:"false"`
	GinMode     string `env:"GIN_MODE" envDefault:"release"`
}

// ServerConfig はHTTPサーバーと入力画像の上限に関する設定です。
type ServerConfig struct {
	Host            string        `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Port            int           `env:"SERVER_PORT" envDefault:"8000"`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	MaxImageBytes   int           `env:"SERVER_MAX_IMAGE_BYTES" envDefault:"20971520"`
	MaxImagePixels  int           `env:"SERVER_MAX_IMAGE_PIXELS" envDefault:"50000000"`
}

// Addr は http.Server 用の host:port を返します。
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// ModelConfig は検出モデルの読み込みと推論に関する設定です。
type ModelConfig struct {
	Backend       string  `env:"MODEL_BACKEND" envDefault:"onnx"`
	Path          string  `env:"MODEL_PATH" envDefault:"models/best.onnx"`
	LabelsPath    string  `env:"MODEL_LABELS_PATH"`
	RuntimeLib    string  `env:"ONNXRUNTIME_LIB_PATH"`
	InputSize     int     `env:"MODEL_INPUT_SIZE" envDefault:"640"`
	InputName     string  `env:"MODEL_INPUT_NAME" envDefault:"images"`
	OutputName    string  `env:"MODEL_OUTPUT_NAME" envDefault:"output0"`
	ConfThreshold float64 `env:"MODEL_CONF_THRESHOLD" envDefault:"0.25"`
	IoUThreshold  float64 `env:"MODEL_IOU_THRESHOLD" envDefault:"0.7"`
	MaxDetections int     `env:"MODEL_MAX_DETECTIONS" envDefault:"300"`
	PoolSize      int     `env:"MODEL_POOL_SIZE" envDefault:"1"`
	Threads       int     `env:"MODEL_THREADS" envDefault:"0"`
	EagerLoad     bool    `env:"MODEL_EAGER_LOAD" envDefault:"false"`
}

// RedisConfig は結果キャッシュ用のRedis接続設定です。
type RedisConfig struct {
	Addr      string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password  string        `env:"REDIS_PASSWORD"`
	DB        int           `env:"REDIS_DB" envDefault:"0"`
	TTL       time.Duration `env:"CACHE_TTL" envDefault:"10m"`
	Namespace string        `env:"CACHE_NAMESPACE" envDefault:"analysis"`
}

// LogConfig はログの出力レベルと形式の設定です。
type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"text"`
}

// Load は環境変数を読み込み、検証済みの Config を返します。
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Model.Backend {
	case BackendONNX, BackendVision:
	default:
		return fmt.Errorf("MODEL_BACKEND must be %q or %q, got %q", BackendONNX, BackendVision, c.Model.Backend)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT out of range: %d", c.Server.Port)
	}
	if c.Model.ConfThreshold < 0 || c.Model.ConfThreshold > 1 {
		return fmt.Errorf("MODEL_CONF_THRESHOLD must be within [0,1], got %v", c.Model.ConfThreshold)
	}
	if c.Model.IoUThreshold < 0 || c.Model.IoUThreshold > 1 {
		return fmt.Errorf("MODEL_IOU_THRESHOLD must be within [0,1], got %v", c.Model.IoUThreshold)
	}
	if c.Server.MaxImagePixels < 0 {
		return fmt.Errorf("SERVER_MAX_IMAGE_PIXELS must not be negative, got %d", c.Server.MaxImagePixels)
	}
	return nil
}
