package kafka_middleware

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"autoquote/pkg/kafka"
	"autoquote/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingProducerMiddleware(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Config{Level: logger.DEBUG, Output: &buf})
	mw := LoggingProducerMiddleware(log)

	msg, err := kafka.NewMessage().WithKey("k").WithValue("v").WithEventType(kafka.EventTypeQuoteRequested).Build()
	require.NoError(t, err)

	err = mw(context.Background(), msg, func(context.Context, kafka.Message) error { return nil })
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Published message")
	assert.Contains(t, buf.String(), kafka.EventTypeQuoteRequested)

	buf.Reset()
	boom := errors.New("broker down")
	err = mw(context.Background(), msg, func(context.Context, kafka.Message) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, buf.String(), "broker down")
}
