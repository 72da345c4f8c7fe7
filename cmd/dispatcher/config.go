package main

import (
	"fmt"
	"os"
	"time"

	"judgegate/internal/common/db"
	"judgegate/internal/common/logagg"
	"judgegate/internal/common/mq"
	"judgegate/internal/submit/service"
	"judgegate/pkg/utils/logger"

	"gopkg.in/yaml.v3"
)

const (
	defaultHTTPAddr        = "0.0.0.0:8000"
	defaultReadTimeout     = 5 * time.Second
	defaultWriteTimeout    = 10 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 10 * time.Second
	defaultQueue           = "judge"
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	IdleTimeout  time.Duration `yaml:"idleTimeout"`
}

// BrokerConfig selects and configures the task broker.
type BrokerConfig struct {
	Driver    string             `yaml:"driver"` // amqp, kafka
	AMQP      mq.AMQPConfig      `yaml:"amqp"`
	Kafka     mq.KafkaConfig     `yaml:"kafka"`
	Reconnect mq.PublisherConfig `yaml:"reconnect"`
}

// AuthConfig selects the token validator.
type AuthConfig struct {
	Mode      string `yaml:"mode"` // allow, jwt
	JWTSecret string `yaml:"jwtSecret"`
	Issuer    string `yaml:"issuer"`
}

// DispatchConfig holds request handling settings.
type DispatchConfig struct {
	Timeouts service.TimeoutConfig `yaml:"timeouts"`
}

// AppConfig holds dispatcher configuration.
type AppConfig struct {
	Server   ServerConfig   `yaml:"server"`
	Logger   logger.Config  `yaml:"logger"`
	Database db.MySQLConfig `yaml:"database"`
	Broker   BrokerConfig   `yaml:"broker"`
	Auth     AuthConfig     `yaml:"auth"`
	Dispatch DispatchConfig `yaml:"dispatch"`
}

func loadYAML(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file failed: %w", err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse config file failed: %w", err)
	}
	return nil
}

func loadAppConfig(path string) (*AppConfig, error) {
	var cfg AppConfig
	if err := loadYAML(path, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaultHTTPAddr
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = defaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = defaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = defaultIdleTimeout
	}

	if cfg.Logger.Files == nil {
		cfg.Logger.Files = map[string]logagg.FileConfig{
			"server": {Path: "logs/server.log", MaxBackups: 50},
			"access": {Path: "logs/access.log", MaxBackups: 50},
		}
	}

	if cfg.Broker.Driver == "" {
		cfg.Broker.Driver = "amqp"
	}
	if cfg.Broker.AMQP.Queue == "" {
		cfg.Broker.AMQP.Queue = defaultQueue
	}
	if cfg.Broker.Kafka.Topic == "" {
		cfg.Broker.Kafka.Topic = defaultQueue
	}

	if cfg.Auth.Mode == "" {
		cfg.Auth.Mode = "allow"
	}

	if cfg.Dispatch.Timeouts.DB == 0 {
		cfg.Dispatch.Timeouts.DB = 3 * time.Second
	}
	if cfg.Dispatch.Timeouts.MQ == 0 {
		cfg.Dispatch.Timeouts.MQ = 3 * time.Second
	}
}

func validate(cfg *AppConfig) error {
	switch cfg.Broker.Driver {
	case "amqp", "kafka":
	default:
		return fmt.Errorf("unsupported broker driver: %s", cfg.Broker.Driver)
	}
	switch cfg.Auth.Mode {
	case "allow":
	case "jwt":
		if cfg.Auth.JWTSecret == "" {
			return fmt.Errorf("auth.jwtSecret is required in jwt mode")
		}
	default:
		return fmt.Errorf("unsupported auth mode: %s", cfg.Auth.Mode)
	}
	if cfg.Database.DSN == "" && cfg.Database.Host == "" {
		return fmt.Errorf("database dsn or host is required")
	}
	return nil
}
