package audit

import (
	"context"
	"log/slog"

	"keepsafe/internal/platform/metrics"
)

// Publisher hands events to the worker over a buffered channel. Publishing
// never blocks a request: when the inbox is full the event is dropped and
// counted, which the concurrency model accepts over stalling writes.
type Publisher struct {
	inbox   chan Event
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewPublisher(buffer int, logger *slog.Logger, m *metrics.Metrics) *Publisher {
	if buffer <= 0 {
		buffer = 256
	}
	return &Publisher{
		inbox:   make(chan Event, buffer),
		logger:  logger,
		metrics: m,
	}
}

func (p *Publisher) Publish(ctx context.Context, event Event) {
	select {
	case p.inbox <- event:
	default:
		if p.metrics != nil {
			p.metrics.AuditEventsDropped.Inc()
		}
		p.logger.WarnContext(ctx, "audit inbox full, event dropped",
			"action", event.Action,
			"request_id", event.RequestID,
		)
	}
}

// Inbox exposes the receive side for the worker.
func (p *Publisher) Inbox() <-chan Event {
	return p.inbox
}
