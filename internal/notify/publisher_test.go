package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingPublisher(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	p := NewLoggingPublisher(logger)

	payload, err := StatusChanged{EventID: "e1", From: "pendente", To: "aprovado", OccurredAt: time.Now()}.Encode()
	require.NoError(t, err)

	require.NoError(t, p.Publish(context.Background(), "event.approved", payload, "e1"))

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "notification published", line["msg"])
	assert.Equal(t, "event.approved", line["event_type"])
	assert.Equal(t, "e1", line["partition_key"])
}

func TestNewKafkaPublisher_RequiresBrokers(t *testing.T) {
	_, err := NewKafkaPublisher(nil, "agendacity.events")
	assert.Error(t, err)

	p, err := NewKafkaPublisher([]string{"localhost:9092"}, "agendacity.events")
	require.NoError(t, err)
	assert.NoError(t, p.Close())
}
