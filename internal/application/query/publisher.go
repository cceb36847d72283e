package query

import (
	"context"

	"github.com/turtacn/Musaid-NLQ/internal/infrastructure/messaging/kafka"
)

// EnvelopePublisher is the producer side used for turn events.
type EnvelopePublisher interface {
	PublishJSON(ctx context.Context, topic, eventType, key string, v interface{}) error
}

type eventPublisher struct {
	producer EnvelopePublisher
	topic    string
}

// NewEventPublisher publishes turn events to topic keyed by session id, so
// the turns of one session stay ordered within a partition.
func NewEventPublisher(p EnvelopePublisher, topic string) TurnPublisher {
	if topic == "" {
		topic = kafka.TopicTurnCompleted
	}
	return &eventPublisher{producer: p, topic: topic}
}

func (p *eventPublisher) PublishTurn(ctx context.Context, event TurnEvent) error {
	return p.producer.PublishJSON(ctx, p.topic, kafka.EventTurnCompleted, event.SessionID, event)
}

var _ EnvelopePublisher = (*kafka.Producer)(nil)

//Personal.AI order the ending
