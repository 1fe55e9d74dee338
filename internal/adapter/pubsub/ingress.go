// Package pubsub adapts the broker bridge to the in-process watermill
// pipeline: inbound broker events enter through Ingress, outbound
// control-plane events leave through the EventDispatcher.
package pubsub

import (
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

const (
	// IngressTopic is the in-process topic carrying raw broker events to
	// the forwarding pipeline.
	IngressTopic = "gateway.broker.ingress"

	// MetaBrokerTopic is the message metadata key holding the original
	// broker topic.
	MetaBrokerTopic = "broker_topic"
)

// NewGoChannel builds the in-process pub/sub carrying broker events to the
// forwarding pipeline.
func NewGoChannel(wmLogger watermill.LoggerAdapter) *gochannel.GoChannel {
	return gochannel.NewGoChannel(gochannel.Config{
		// Publish returns only once the forwarding handler has acked, so
		// events are handled one at a time, in broker arrival order, paced
		// by paho's serialized delivery goroutine.
		BlockPublishUntilSubscriberAck: true,
	}, wmLogger)
}

// Ingress publishes raw broker events onto the in-process pipeline. It is
// the bridge's event sink.
type Ingress struct {
	publisher message.Publisher
	logger    *slog.Logger
}

func NewIngress(publisher message.Publisher, logger *slog.Logger) *Ingress {
	return &Ingress{publisher: publisher, logger: logger}
}

// Accept is invoked once per inbound broker event, in arrival order, and
// returns only after the pipeline has handled the event, so deliveries never
// overlap. A publish failure is logged and swallowed so the next delivery
// proceeds.
func (i *Ingress) Accept(topic string, payload []byte) {
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set(MetaBrokerTopic, topic)

	if err := i.publisher.Publish(IngressTopic, msg); err != nil {
		i.logger.Error("ingress publish failed", "topic", topic, "error", err)
	}
}
