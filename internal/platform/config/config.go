package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName         string
	PostgresDSN         string
	KafkaBrokers        []string
	OutboxRelayInterval time.Duration
	OutboxBatchSize     int

	EnableOutboxRelay    bool
	EnableEntryConsumer  bool
	EnableLegacyScoring  bool
	RunMigrationsOnStart bool
}

func Load() (Config, error) {
	service := os.Getenv("SERVICE_NAME")
	if service == "" {
		service = "photojury"
	}

	var brokers []string
	for _, value := range strings.Split(os.Getenv("KAFKA_BROKERS"), ",") {
		value = strings.TrimSpace(value)
		if value != "" {
			brokers = append(brokers, value)
		}
	}
	if len(brokers) == 0 {
		brokers = []string{"localhost:9092"}
	}

	return Config{
		ServiceName:         service,
		PostgresDSN:         os.Getenv("POSTGRES_DSN"),
		KafkaBrokers:        brokers,
		OutboxRelayInterval: envDuration("OUTBOX_RELAY_INTERVAL", 2*time.Second),
		OutboxBatchSize:     envInt("OUTBOX_BATCH_SIZE", 100),

		EnableOutboxRelay:    envBool("ENABLE_OUTBOX_RELAY", true),
		EnableEntryConsumer:  envBool("ENABLE_ENTRY_CONSUMER", true),
		EnableLegacyScoring:  envBool("ENABLE_LEGACY_SCORING", false),
		RunMigrationsOnStart: envBool("RUN_MIGRATIONS_ON_START", false),
	}, nil
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return fallback
	}
}

func envInt(name string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

func envDuration(name string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
