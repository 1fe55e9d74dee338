package pubsub

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

type capturedPublish struct {
	topic   string
	payload []byte
}

type fakeBroker struct {
	published []capturedPublish
}

func (f *fakeBroker) Publish(topic string, payload []byte) {
	f.published = append(f.published, capturedPublish{topic: topic, payload: payload})
}

func TestDispatcherPublish(t *testing.T) {
	broker := &fakeBroker{}
	d := NewEventDispatcher(broker, noop.NewTracerProvider().Tracer("test"))

	err := d.Publish(context.Background(), "stadium/maintenance/staff-assignments",
		map[string]any{"event_type": "staff_assignment", "staffId": "7"})
	require.NoError(t, err)

	require.Len(t, broker.published, 1)
	assert.Equal(t, "stadium/maintenance/staff-assignments", broker.published[0].topic)
	assert.JSONEq(t, `{"event_type":"staff_assignment","staffId":"7"}`, string(broker.published[0].payload))
}

func TestDispatcherRejectsUnserializablePayloads(t *testing.T) {
	broker := &fakeBroker{}
	d := NewEventDispatcher(broker, noop.NewTracerProvider().Tracer("test"))

	assert.Error(t, d.Publish(context.Background(), "stadium/x", map[string]any{"bad": make(chan int)}))
	assert.Error(t, d.Publish(context.Background(), "stadium/x", nil))
	assert.Empty(t, broker.published, "no partial publish on failure")
}

func TestIngressPublishesToThePipeline(t *testing.T) {
	ch := NewGoChannel(watermill.NopLogger{})
	defer ch.Close()

	msgs, err := ch.Subscribe(context.Background(), IngressTopic)
	require.NoError(t, err)

	ingress := NewIngress(ch, slog.New(slog.NewTextHandler(io.Discard, nil)))

	// Accept blocks until the pipeline acks, so it must run off the test
	// goroutine that consumes the message.
	accepted := make(chan struct{})
	go func() {
		defer close(accepted)
		ingress.Accept("stadium/crowd/gate-5", []byte(`{"density":0.8}`))
	}()

	select {
	case msg := <-msgs:
		assert.Equal(t, "stadium/crowd/gate-5", msg.Metadata.Get(MetaBrokerTopic))
		assert.Equal(t, []byte(`{"density":0.8}`), []byte(msg.Payload))
		msg.Ack()
	case <-time.After(time.Second):
		t.Fatal("no message arrived on the ingress topic")
	}

	select {
	case <-accepted:
	case <-time.After(time.Second):
		t.Fatal("Accept did not return after the ack")
	}
}
