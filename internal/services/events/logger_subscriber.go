package events

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/marketlens/internal/interfaces"
	"github.com/ternarybob/marketlens/internal/models"
)

// NewLoggerSubscriber creates an event handler that logs analysis events
func NewLoggerSubscriber(logger arbor.ILogger) interfaces.EventHandler {
	return func(ctx context.Context, event interfaces.Event) error {
		logEvent := logger.Debug().
			Str("event_type", string(event.Type))

		switch payload := event.Payload.(type) {
		case models.ProgressEvent:
			logEvent = logEvent.
				Str("run_id", payload.RunID).
				Str("state", string(payload.State)).
				Int("percentage", payload.Percentage)
		case map[string]interface{}:
			if id, ok := payload["run_id"].(string); ok {
				logEvent = logEvent.Str("run_id", id)
			}
			if variant, ok := payload["variant"].(string); ok {
				logEvent = logEvent.Str("variant", variant)
			}
		}

		logEvent.Msg("Event published")
		return nil
	}
}

// SubscribeLoggerToAllEvents subscribes the logger to all analysis event types
func SubscribeLoggerToAllEvents(eventService interfaces.EventService, logger arbor.ILogger) error {
	subscriber := NewLoggerSubscriber(logger)

	eventTypes := []interfaces.EventType{
		interfaces.EventAnalysisStarted,
		interfaces.EventAnalysisProgress,
		interfaces.EventAnalysisCompleted,
		interfaces.EventAnalysisFailed,
	}

	for _, eventType := range eventTypes {
		if err := eventService.Subscribe(eventType, subscriber); err != nil {
			return fmt.Errorf("failed to subscribe logger to event type %s: %w", eventType, err)
		}
	}

	return nil
}
