package pipeline

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/marketlens/internal/interfaces"
	"github.com/ternarybob/marketlens/internal/models"
)

// Enricher runs the specialized enrichment producers enabled by a config
type Enricher struct {
	producers map[models.Enrichment]interfaces.Producer
	executor  *PhaseExecutor
	logger    arbor.ILogger
}

// NewEnricher creates an enricher from a producer per enrichment
func NewEnricher(producers map[models.Enrichment]interfaces.Producer, executor *PhaseExecutor, logger arbor.ILogger) *Enricher {
	registry := make(map[models.Enrichment]interfaces.Producer, len(producers))
	for k, v := range producers {
		registry[k] = v
	}
	return &Enricher{
		producers: registry,
		executor:  executor,
		logger:    logger,
	}
}

// Enrich runs every enabled enrichment concurrently against the core snapshot.
// The result has exactly one key per enabled toggle; disabled toggles are absent.
// Each task receives its own copy of core, so no task can observe another's writes.
func (e *Enricher) Enrich(ctx context.Context, core models.PartialResult, config models.AnalysisConfig) models.SpecializedResultSet {
	enabled := config.EnabledEnrichments()
	tasks := make([]Task, 0, len(enabled))

	for _, name := range enabled {
		producer := e.producers[name]
		snapshot := core.Clone()
		tasks = append(tasks, Task{
			Key: string(name),
			Run: func(ctx context.Context) (models.PartialResult, error) {
				if producer == nil {
					return nil, fmt.Errorf("no producer registered for enrichment %s", name)
				}
				return producer.Produce(ctx, snapshot)
			},
		})
	}

	outcomes := e.executor.Execute(ctx, string(models.StateEnriching), tasks)

	results := make(models.SpecializedResultSet, len(enabled))
	failed := 0
	for _, name := range enabled {
		results[name] = outcomes[string(name)]
		if !results[name].OK() {
			failed++
		}
	}

	e.logger.Info().
		Int("enabled", len(enabled)).
		Int("failed", failed).
		Msg("Specialized enrichment completed")

	return results
}
