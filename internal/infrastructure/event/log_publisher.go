// Package event delivers domain events to downstream consumers. The log
// publisher is the default sink; a broker-backed publisher can replace it
// behind the same interface without touching the services.
package event

import (
	"context"

	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/shared"
)

// LogPublisher writes domain events to the structured log
type LogPublisher struct {
	logger *zap.Logger
}

// NewLogPublisher creates a new LogPublisher
func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogPublisher{logger: logger}
}

// Publish records the event. It never fails.
func (p *LogPublisher) Publish(_ context.Context, e shared.DomainEvent) error {
	p.logger.Info("Domain event",
		zap.String("event_type", e.EventType()),
		zap.String("event_id", e.EventID().String()),
		zap.String("aggregate_type", e.AggregateType()),
		zap.String("aggregate_id", e.AggregateID().String()),
		zap.String("store_id", e.StoreID().String()),
		zap.Time("occurred_at", e.OccurredAt()))
	return nil
}

var _ shared.EventPublisher = (*LogPublisher)(nil)
