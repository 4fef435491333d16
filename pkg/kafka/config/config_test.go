package kafka_config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validConfig() Config {
	return Config{
		Enabled:              true,
		Brokers:              []string{DefaultKafkaBrokers},
		Topic:                DefaultQuotesTopic,
		ProducerMaxAttempts:  DefaultProducerMaxAttempts,
		ProducerBatchTimeout: DefaultProducerBatchTimeout,
		ProducerRequireAcks:  DefaultProducerRequireAcks,
		ProducerCompression:  DefaultProducerCompression,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr int
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "disabled ignores everything", mutate: func(c *Config) { *c = Config{} }},
		{name: "no brokers", mutate: func(c *Config) { c.Brokers = nil }, wantErr: 1},
		{name: "blank broker", mutate: func(c *Config) { c.Brokers = []string{"a:9092", " "} }, wantErr: 1},
		{name: "dlq equals topic", mutate: func(c *Config) { c.DLQTopic = c.Topic }, wantErr: 1},
		{name: "bad compression and acks", mutate: func(c *Config) {
			c.ProducerCompression = "brotli"
			c.ProducerRequireAcks = 2
		}, wantErr: 2},
		{name: "non positive producer settings", mutate: func(c *Config) {
			c.ProducerMaxAttempts = 0
			c.ProducerBatchTimeout = -time.Second
		}, wantErr: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			assert.Len(t, cfg.Validate(), tt.wantErr)
		})
	}
}
