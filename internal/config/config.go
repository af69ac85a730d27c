package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const (
	EnvProduction  = "production"
	EnvDevelopment = "development"

	// devJWTSecret используется только вне production
	devJWTSecret = "dev-secret-change-in-production"
)

var ErrMissingJWTSecret = errors.New("JWT_SECRET is required in production")

type Config struct {
	AppEnv      string
	Port        int64
	DatabaseURL string
	FrontendURL string
	JWTSecret   string
	LogLevel    logrus.Level
	EventRoom   string

	MetricsEnabled bool

	MQTT     MQTTConfig
	Telegram TelegramConfig
}

// MQTTConfig - мост событий в брокер. Пустой Broker отключает мост.
type MQTTConfig struct {
	Broker      string
	ClientID    string
	TopicPrefix string
	Username    string
	Password    string
}

func (c MQTTConfig) Enabled() bool {
	return c.Broker != ""
}

// TelegramConfig - уведомления координаторам. Без токена уведомления выключены.
type TelegramConfig struct {
	Token  string
	ChatID int64
}

func (c TelegramConfig) Enabled() bool {
	return c.Token != "" && c.ChatID != 0
}

// Load читает .env (если есть) и переменные окружения
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv собирает конфигурацию только из окружения процесса
func FromEnv() (*Config, error) {
	cfg := &Config{
		AppEnv:         strings.ToLower(getEnv("APP_ENV", EnvDevelopment)),
		Port:           getEnvAsInt("PORT", 5000),
		DatabaseURL:    getEnv("DATABASE_URL", "planning.db"),
		FrontendURL:    getEnv("FRONTEND_URL", "http://localhost:3000"),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		EventRoom:      getEnv("EVENT_ROOM", "main"),
		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
		MQTT: MQTTConfig{
			Broker:      getEnv("MQTT_BROKER", ""),
			ClientID:    getEnv("MQTT_CLIENT_ID", "work-allocation"),
			TopicPrefix: strings.TrimSuffix(getEnv("MQTT_TOPIC_PREFIX", "planning"), "/"),
			Username:    getEnv("MQTT_USERNAME", ""),
			Password:    getEnv("MQTT_PASSWORD", ""),
		},
		Telegram: TelegramConfig{
			Token:  getEnv("TELEGRAM_BOT_TOKEN", ""),
			ChatID: getEnvAsInt("TELEGRAM_CHAT_ID", 0),
		},
	}

	level, err := logrus.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("parse LOG_LEVEL: %w", err)
	}
	cfg.LogLevel = level

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid PORT %d", cfg.Port)
	}

	if cfg.JWTSecret == "" {
		if cfg.IsProduction() {
			return nil, ErrMissingJWTSecret
		}
		cfg.JWTSecret = devJWTSecret
	}

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == EnvProduction
}

// UsesDevSecret сообщает, что токены подписываются встроенным ключом
func (c *Config) UsesDevSecret() bool {
	return c.JWTSecret == devJWTSecret
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func getEnv(key string, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}

	return defaultVal
}

func getEnvAsBool(name string, defaultVal bool) bool {
	valStr := getEnv(name, "")
	if val, err := strconv.ParseBool(valStr); err == nil {
		return val
	}

	return defaultVal
}

func getEnvAsInt(name string, defaultVal int64) int64 {
	valStr := getEnv(name, "")
	if val, err := strconv.ParseInt(valStr, 10, 64); err == nil {
		return val
	}

	return defaultVal
}
