// Package common holds helpers shared by the workflow use cases.
package common

import (
	"context"

	"github.com/landreg/cadastre/internal/domain/shared/events"
	"github.com/landreg/cadastre/internal/shared/logger"
)

// PublishAll delivers events after the business transaction committed. A
// delivery failure is logged and never reported to the caller.
func PublishAll(ctx context.Context, publisher events.EventPublisher, log logger.Interface, list ...events.DomainEvent) {
	if publisher == nil {
		return
	}
	for _, event := range list {
		if err := publisher.Publish(ctx, event); err != nil {
			log.Warnw("failed to publish workflow event",
				"event_type", event.GetEventType(),
				"aggregate_id", event.GetAggregateID(),
				"error", err,
			)
		}
	}
}
