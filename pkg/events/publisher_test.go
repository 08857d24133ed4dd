package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type recordingWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *recordingWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaPublisherBuildsMessage(t *testing.T) {
	writer := &recordingWriter{}
	pub := newKafkaPublisher(writer, "clinic.appointments", zap.NewNop())

	event, err := NewEvent("appointment.created", "clinic-1", "appt-1", map[string]string{"status": "SCHEDULED"})
	require.NoError(t, err)
	require.NoError(t, pub.Publish(context.Background(), event))

	require.Len(t, writer.messages, 1)
	msg := writer.messages[0]
	assert.Equal(t, "appt-1", string(msg.Key))
	assert.Equal(t, event.ID, HeaderValue(msg.Headers, "event_id"))
	assert.Equal(t, "appointment.created", HeaderValue(msg.Headers, "event_type"))
	assert.Equal(t, "clinic-1", HeaderValue(msg.Headers, "clinic_id"))

	var decoded Event
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.JSONEq(t, `{"status":"SCHEDULED"}`, string(decoded.Payload))

	require.NoError(t, pub.Close())
	assert.True(t, writer.closed)
}

func TestKafkaPublisherWrapsWriterError(t *testing.T) {
	writer := &recordingWriter{err: errors.New("broker down")}
	pub := newKafkaPublisher(writer, "clinic.appointments", zap.NewNop())

	event, err := NewEvent("appointment.deleted", "clinic-1", "appt-1", nil)
	require.NoError(t, err)
	err = pub.Publish(context.Background(), event)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
}

func TestNewKafkaPublisherWithoutBrokersIsNop(t *testing.T) {
	pub := NewKafkaPublisher(nil, "topic", nil)
	_, ok := pub.(NopPublisher)
	assert.True(t, ok)
}

func TestTraceHeadersRoundTrip(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	defer otel.SetTextMapPropagator(prev)

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	headers := InjectTraceHeaders(ctx, []kafka.Header{{Key: "event_id", Value: []byte("1")}})
	assert.NotEmpty(t, HeaderValue(headers, "traceparent"))

	extracted := trace.SpanContextFromContext(ExtractTraceContext(context.Background(), kafka.Message{Headers: headers}))
	assert.Equal(t, traceID, extracted.TraceID())
}
