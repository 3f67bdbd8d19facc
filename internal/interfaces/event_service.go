package interfaces

import "context"

// EventType represents different event types in the system
type EventType string

const (
	// EventAnalysisStarted is published when a run starts.
	// Payload: map with run_id, variant
	EventAnalysisStarted EventType = "analysis_started"

	// EventAnalysisProgress is published for every progress event of a run.
	// Payload: models.ProgressEvent
	EventAnalysisProgress EventType = "analysis_progress"

	// EventAnalysisCompleted is published when a run produced a report.
	// Payload: map with run_id, variant, quality_score, status
	EventAnalysisCompleted EventType = "analysis_completed"

	// EventAnalysisFailed is published when a run ended with an error envelope.
	// Payload: map with run_id, variant, error
	EventAnalysisFailed EventType = "analysis_failed"
)

// Event represents a system event
type Event struct {
	Type    EventType
	Payload interface{}
}

// EventHandler is a function that handles events
type EventHandler func(ctx context.Context, event Event) error

// EventService manages pub/sub event bus
type EventService interface {
	// Subscribe to an event type
	Subscribe(eventType EventType, handler EventHandler) error

	// Publish an event to all subscribers
	Publish(ctx context.Context, event Event) error

	// PublishSync publishes event and waits for all handlers to complete
	PublishSync(ctx context.Context, event Event) error

	// Close shuts down the event service
	Close() error
}
