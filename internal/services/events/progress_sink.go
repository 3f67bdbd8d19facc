package events

import (
	"context"

	"github.com/ternarybob/marketlens/internal/interfaces"
	"github.com/ternarybob/marketlens/internal/models"
)

// ProgressPublisher is a ProgressSink that republishes every progress event on the event bus
type ProgressPublisher struct {
	events interfaces.EventService
}

// NewProgressPublisher creates a progress sink over events
func NewProgressPublisher(events interfaces.EventService) *ProgressPublisher {
	return &ProgressPublisher{events: events}
}

// Report publishes event synchronously so subscribers observe events in emission order
func (p *ProgressPublisher) Report(ctx context.Context, event models.ProgressEvent) error {
	return p.events.PublishSync(ctx, interfaces.Event{
		Type:    interfaces.EventAnalysisProgress,
		Payload: event,
	})
}
