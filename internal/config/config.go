package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	APIAddr         string
	OpsAddr         string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Consensus tuning.
	VerificationWindow time.Duration
	DisplayRetention   int
	PruneInterval      time.Duration

	// Document archive (report history and the events board). Enabled when
	// MONGO_URI is set, overridable with MONGO_ENABLED.
	MongoURI      string
	MongoDatabase string
	MongoEnabled  bool
	MongoTimeout  time.Duration

	// Report stream fan-out. Enabled when KAFKA_BROKERS is set, overridable
	// with KAFKA_ENABLED.
	KafkaBrokers      []string
	KafkaReportsTopic string
	KafkaGroupID      string
	KafkaEnabled      bool
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := envDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	window, err := envDuration("VERIFICATION_WINDOW", 24*time.Hour)
	if err != nil {
		return nil, err
	}
	pruneInterval, err := envDuration("PRUNE_INTERVAL", time.Hour)
	if err != nil {
		return nil, err
	}
	mongoTimeout, err := envDuration("MONGO_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	displayRetention, err := envInt("DISPLAY_RETENTION", 50)
	if err != nil {
		return nil, err
	}

	mongoURI := os.Getenv("MONGO_URI")
	mongoEnabled := mongoURI != ""
	if v := os.Getenv("MONGO_ENABLED"); v != "" {
		mongoEnabled = v == "true"
	}

	brokers := parseBrokers(os.Getenv("KAFKA_BROKERS"))
	kafkaEnabled := len(brokers) > 0
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		APIAddr:         envOrDefault("API_ADDR", ":8080"),
		OpsAddr:         envOrDefault("OPS_ADDR", ":9090"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		VerificationWindow: window,
		DisplayRetention:   displayRetention,
		PruneInterval:      pruneInterval,

		MongoURI:      mongoURI,
		MongoDatabase: envOrDefault("MONGO_DB", "waterwatch"),
		MongoEnabled:  mongoEnabled,
		MongoTimeout:  mongoTimeout,

		KafkaBrokers:      brokers,
		KafkaReportsTopic: envOrDefault("KAFKA_REPORTS_TOPIC", "water-reports"),
		KafkaGroupID:      envOrDefault("KAFKA_GROUP_ID", "waterwatch-consensus"),
		KafkaEnabled:      kafkaEnabled,
	}

	if cfg.DisplayRetention <= 0 {
		return nil, errors.New("DISPLAY_RETENTION must be positive")
	}
	if cfg.MongoEnabled && cfg.MongoURI == "" {
		return nil, errors.New("MONGO_ENABLED is true but MONGO_URI is not set")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.KafkaEnabled && cfg.KafkaReportsTopic == "" {
		return nil, errors.New("KAFKA_REPORTS_TOPIC is required when Kafka is enabled")
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return d, nil
}

func envInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return n, nil
}

func parseBrokers(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
