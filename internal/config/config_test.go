package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blueridgecivic/waterwatch-service/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.APIAddr)
	assert.Equal(t, ":9090", cfg.OpsAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)

	assert.Equal(t, 24*time.Hour, cfg.VerificationWindow)
	assert.Equal(t, 50, cfg.DisplayRetention)
	assert.Equal(t, time.Hour, cfg.PruneInterval)

	assert.False(t, cfg.MongoEnabled)
	assert.Equal(t, "waterwatch", cfg.MongoDatabase)
	assert.False(t, cfg.KafkaEnabled)
	assert.Equal(t, "water-reports", cfg.KafkaReportsTopic)
	assert.Equal(t, "waterwatch-consensus", cfg.KafkaGroupID)
}

func TestLoad_CustomValues(t *testing.T) {
	t.Setenv("API_ADDR", ":3000")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("VERIFICATION_WINDOW", "12h")
	t.Setenv("DISPLAY_RETENTION", "25")
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("KAFKA_BROKERS", "broker-a:9092, broker-b:9092")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.APIAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 12*time.Hour, cfg.VerificationWindow)
	assert.Equal(t, 25, cfg.DisplayRetention)

	assert.True(t, cfg.MongoEnabled, "archive enables when MONGO_URI is set")
	assert.True(t, cfg.KafkaEnabled, "stream enables when KAFKA_BROKERS is set")
	assert.Equal(t, []string{"broker-a:9092", "broker-b:9092"}, cfg.KafkaBrokers)
}

func TestLoad_ExplicitDisableOverridesURI(t *testing.T) {
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("MONGO_ENABLED", "false")
	t.Setenv("KAFKA_BROKERS", "broker-a:9092")
	t.Setenv("KAFKA_ENABLED", "false")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.False(t, cfg.MongoEnabled)
	assert.False(t, cfg.KafkaEnabled)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad window", "VERIFICATION_WINDOW", "soon"},
		{"negative window", "VERIFICATION_WINDOW", "-1h"},
		{"bad retention", "DISPLAY_RETENTION", "many"},
		{"zero retention", "DISPLAY_RETENTION", "0"},
		{"mongo enabled without URI", "MONGO_ENABLED", "true"},
		{"kafka enabled without brokers", "KAFKA_ENABLED", "true"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := config.Load()
			assert.Error(t, err)
		})
	}
}
