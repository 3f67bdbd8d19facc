package interfaces

import (
	"context"

	"github.com/ternarybob/marketlens/internal/models"
)

// Producer is an analysis component that turns a context mapping into a
// partial result. Core and enrichment producers share this contract.
type Producer interface {
	// Name identifies the producer in logs and results
	Name() string

	// Produce runs the analysis. Implementations must honour ctx cancellation
	// and must not mutate input.
	Produce(ctx context.Context, input models.PartialResult) (models.PartialResult, error)
}
