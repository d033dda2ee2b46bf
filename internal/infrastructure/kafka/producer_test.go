package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	messages []kafka.Message
	err      error
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *recordingWriter) Close() error { return nil }

func TestPublishWritesKeyedEnvelope(t *testing.T) {
	w := &recordingWriter{}
	p := &Producer{writer: w, topic: "report-lifecycle", source: "test"}

	err := p.Publish(context.Background(), "report.approved", "report-1", map[string]interface{}{"status": "approved"})
	require.NoError(t, err)
	require.Len(t, w.messages, 1)

	msg := w.messages[0]
	assert.Equal(t, "report-1", string(msg.Key))
	assert.Equal(t, "event-type", msg.Headers[0].Key)
	assert.Equal(t, "report.approved", string(msg.Headers[0].Value))

	var event Event
	require.NoError(t, json.Unmarshal(msg.Value, &event))
	assert.Equal(t, "report.approved", event.Type)
	assert.Equal(t, "approved", event.Data["status"])
	assert.NotEmpty(t, event.ID)
}

func TestPublishPropagatesWriterError(t *testing.T) {
	p := &Producer{writer: &recordingWriter{err: errors.New("broker down")}, topic: "t", source: "test"}

	err := p.Publish(context.Background(), "report.approved", "", nil)
	assert.EqualError(t, err, "broker down")
}

func TestNewProducerDoesNotBlockCallers(t *testing.T) {
	p := NewProducer([]string{"localhost:9092"}, "report-lifecycle")
	defer p.Close()

	w, ok := p.writer.(*kafka.Writer)
	require.True(t, ok)
	assert.True(t, w.Async)
	assert.NotNil(t, w.Completion)
}
