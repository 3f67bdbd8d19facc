package interfaces

import (
	"context"

	"github.com/ternarybob/marketlens/internal/models"
)

// ProgressSink receives progress events of a run. Report is awaited before the
// pipeline continues, so sinks observe events in emission order.
type ProgressSink interface {
	Report(ctx context.Context, event models.ProgressEvent) error
}

// ProgressFunc adapts a function to ProgressSink
type ProgressFunc func(ctx context.Context, event models.ProgressEvent) error

// Report calls f(ctx, event)
func (f ProgressFunc) Report(ctx context.Context, event models.ProgressEvent) error {
	return f(ctx, event)
}

// MultiSink fans an event out to several sinks in order. Every sink is
// called; the first error is returned.
type MultiSink []ProgressSink

// Report forwards event to every sink
func (m MultiSink) Report(ctx context.Context, event models.ProgressEvent) error {
	var first error
	for _, sink := range m {
		if sink == nil {
			continue
		}
		if err := sink.Report(ctx, event); err != nil && first == nil {
			first = err
		}
	}
	return first
}
