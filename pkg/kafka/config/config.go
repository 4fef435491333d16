package kafka_config

import (
	"fmt"
	"strings"
	"time"
)

// Config holds the settings of the quote event producer. It is embedded in
// the service configuration and read by cleanenv.
type Config struct {
	Enabled bool     `env:"KAFKA_ENABLED" env-default:"false"`
	Brokers []string `env:"KAFKA_BROKERS" env-default:"localhost:9092" env-separator:","`

	Topic    string `env:"KAFKA_TOPIC" env-default:"quotes.requested"`
	DLQTopic string `env:"KAFKA_DLQ_TOPIC"`

	ProducerMaxAttempts  int           `env:"KAFKA_PRODUCER_MAX_ATTEMPTS" env-default:"3"`
	ProducerBatchTimeout time.Duration `env:"KAFKA_PRODUCER_BATCH_TIMEOUT" env-default:"10ms"`
	ProducerRequireAcks  int           `env:"KAFKA_PRODUCER_REQUIRE_ACKS" env-default:"-1"` // -1 = all, 0 = none, 1 = leader only
	ProducerCompression  string        `env:"KAFKA_PRODUCER_COMPRESSION" env-default:"snappy"`
	ProducerAsync        bool          `env:"KAFKA_PRODUCER_ASYNC" env-default:"false"`
}

// Validate returns every problem found, one per line. A disabled producer
// is always valid.
func (cfg *Config) Validate() []string {
	if !cfg.Enabled {
		return nil
	}

	var errors []string

	if len(cfg.Brokers) == 0 {
		errors = append(errors, "At least one Kafka broker is required")
	}
	for i, broker := range cfg.Brokers {
		if strings.TrimSpace(broker) == "" {
			errors = append(errors, fmt.Sprintf("Kafka broker %d cannot be empty", i))
		}
	}

	if cfg.Topic == "" {
		errors = append(errors, "KafkaTopic cannot be empty")
	}
	if cfg.DLQTopic != "" && cfg.DLQTopic == cfg.Topic {
		errors = append(errors, fmt.Sprintf("KafkaDLQTopic must differ from KafkaTopic, got: %s", cfg.DLQTopic))
	}

	if cfg.ProducerMaxAttempts <= 0 {
		errors = append(errors, fmt.Sprintf("ProducerMaxAttempts must be positive, got: %d", cfg.ProducerMaxAttempts))
	}
	if cfg.ProducerBatchTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ProducerBatchTimeout must be positive, got: %s", cfg.ProducerBatchTimeout))
	}

	validCompressions := map[string]bool{
		"none": true, "gzip": true, "snappy": true, "lz4": true, "zstd": true,
	}
	if !validCompressions[cfg.ProducerCompression] {
		errors = append(errors, fmt.Sprintf("ProducerCompression must be one of [none, gzip, snappy, lz4, zstd], got: %s", cfg.ProducerCompression))
	}

	validAcks := map[int]bool{-1: true, 0: true, 1: true}
	if !validAcks[cfg.ProducerRequireAcks] {
		errors = append(errors, fmt.Sprintf("ProducerRequireAcks must be -1, 0, or 1, got: %d", cfg.ProducerRequireAcks))
	}

	return errors
}

func (cfg *Config) LogAttrs() []any {
	return []any{
		"kafka_enabled", cfg.Enabled,
		"kafka_brokers", cfg.Brokers,
		"kafka_topic", cfg.Topic,
		"kafka_dlq_topic", cfg.DLQTopic,
		"kafka_producer_max_attempts", cfg.ProducerMaxAttempts,
		"kafka_producer_require_acks", cfg.ProducerRequireAcks,
		"kafka_producer_compression", cfg.ProducerCompression,
		"kafka_producer_async", cfg.ProducerAsync,
	}
}
