package events

import (
	"context"
	"time"

	"github.com/docpoint/platform/pkg/logging"
)

// Publisher encodes domain events and puts them on the queue. A nil Publisher
// is valid and drops everything, so callers never guard their emit sites.
type Publisher struct {
	queue  Queue
	logger *logging.Logger
	now    func() time.Time
}

func NewPublisher(queue Queue, logger *logging.Logger) *Publisher {
	if queue == nil {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Publisher{
		queue:  queue,
		logger: logger,
		now:    time.Now,
	}
}

// Publish encodes and sends one event. Errors are logged, not returned; event
// delivery is best-effort relative to the state change that produced it.
func (p *Publisher) Publish(ctx context.Context, eventType string, payload any) {
	if p == nil {
		return
	}
	body, err := Encode(eventType, p.now(), payload)
	if err != nil {
		p.logger.Error("encode event", "type", eventType, "error", err)
		return
	}
	if err := p.queue.Send(ctx, body); err != nil {
		p.logger.Error("publish event", "type", eventType, "error", err)
	}
}
