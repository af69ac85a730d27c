package config

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, key := range []string{"APP_ENV", "PORT", "DATABASE_URL", "JWT_SECRET", "LOG_LEVEL", "MQTT_BROKER", "TELEGRAM_BOT_TOKEN", "METRICS_ENABLED"} {
		t.Setenv(key, "")
	}
	t.Setenv("PORT", "not-a-number")
	t.Setenv("LOG_LEVEL", "info")
	t.Setenv("METRICS_ENABLED", "maybe")
	t.Setenv("DATABASE_URL", "planning.db")
	t.Setenv("APP_ENV", "development")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, int64(5000), cfg.Port)
	assert.Equal(t, ":5000", cfg.Addr())
	assert.Equal(t, "planning.db", cfg.DatabaseURL)
	assert.Equal(t, logrus.InfoLevel, cfg.LogLevel)
	assert.True(t, cfg.MetricsEnabled)
	assert.True(t, cfg.UsesDevSecret())
	assert.False(t, cfg.MQTT.Enabled())
	assert.False(t, cfg.Telegram.Enabled())
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "Production")
	t.Setenv("PORT", "8080")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("EVENT_ROOM", "site-b")
	t.Setenv("MQTT_BROKER", "tcp://localhost:1883")
	t.Setenv("MQTT_TOPIC_PREFIX", "plant/")
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_CHAT_ID", "-1001")
	t.Setenv("METRICS_ENABLED", "false")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, int64(8080), cfg.Port)
	assert.Equal(t, "s3cret", cfg.JWTSecret)
	assert.Equal(t, logrus.DebugLevel, cfg.LogLevel)
	assert.Equal(t, "site-b", cfg.EventRoom)
	assert.True(t, cfg.MQTT.Enabled())
	assert.Equal(t, "plant", cfg.MQTT.TopicPrefix)
	assert.True(t, cfg.Telegram.Enabled())
	assert.Equal(t, int64(-1001), cfg.Telegram.ChatID)
	assert.False(t, cfg.MetricsEnabled)
}

func TestFromEnvRequiresSecretInProduction(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("PORT", "5000")
	t.Setenv("LOG_LEVEL", "info")

	_, err := FromEnv()
	assert.ErrorIs(t, err, ErrMissingJWTSecret)
}

func TestFromEnvRejectsBadValues(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("LOG_LEVEL", "loud")
	_, err := FromEnv()
	assert.Error(t, err)

	t.Setenv("LOG_LEVEL", "info")
	t.Setenv("PORT", "70000")
	_, err = FromEnv()
	assert.Error(t, err)
}
