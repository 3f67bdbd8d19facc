package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/marketlens/internal/interfaces"
	"github.com/ternarybob/marketlens/internal/models"
)

// ResearchDataKey is the context key under which the research bundle is passed to core producers
const ResearchDataKey = "research_data"

// forensicConclusion is the fixed conclusion of the inline forensic summary
const forensicConclusion = "forensic analysis completed from the evidence available in context"

// CoreProducers are the delegates of the core analysis phase
type CoreProducers struct {
	Comprehensive  interfaces.Producer
	Archaeological interfaces.Producer
	Visceral       interfaces.Producer
}

// Dispatcher selects and runs exactly one core producer per run
type Dispatcher struct {
	producers CoreProducers
	timeout   time.Duration
	logger    arbor.ILogger
}

// NewDispatcher creates a dispatcher. A zero timeout disables the deadline.
func NewDispatcher(producers CoreProducers, timeout time.Duration, logger arbor.ILogger) *Dispatcher {
	return &Dispatcher{
		producers: producers,
		timeout:   timeout,
		logger:    logger,
	}
}

// MergeContext builds the shared core-analysis context: every request field
// plus the research bundle under research_data.
func MergeContext(request models.AnalysisRequest, bundle models.ResearchBundle) models.PartialResult {
	merged := models.PartialResult(request.Clone())
	if merged == nil {
		merged = models.PartialResult{}
	}
	merged[ResearchDataKey] = bundle.AsMap()
	return merged
}

// Dispatch runs the core analysis for config's variant. Any delegate failure,
// including a failure reported by value or a timeout, is returned as an error
// and is fatal to the run.
func (d *Dispatcher) Dispatch(ctx context.Context, request models.AnalysisRequest, bundle models.ResearchBundle, config models.AnalysisConfig) (models.PartialResult, error) {
	merged := MergeContext(request, bundle)
	variant := config.Variant()

	d.logger.Info().
		Str("variant", string(variant)).
		Msg("Dispatching core analysis")

	switch variant {
	case models.VariantArchaeological:
		return d.delegate(ctx, d.producers.Archaeological, merged)
	case models.VariantVisceral:
		return d.delegate(ctx, d.producers.Visceral, merged)
	case models.VariantForensic:
		return ForensicSummary(merged), nil
	case models.VariantDetailed, models.VariantUnified, models.VariantComplete:
		return d.delegate(ctx, d.producers.Comprehensive, merged)
	default:
		return nil, fmt.Errorf("%w: %q", models.ErrUnknownVariant, variant)
	}
}

// ForensicSummary packages findings and evidence already present in context.
// It performs no search or inference.
func ForensicSummary(merged models.PartialResult) models.PartialResult {
	return models.PartialResult{
		"forensic_findings": listValue(merged, "findings"),
		"evidence_analysis": mapValue(merged, "evidence"),
		"conclusion":        forensicConclusion,
	}
}

func (d *Dispatcher) delegate(ctx context.Context, producer interfaces.Producer, input models.PartialResult) (models.PartialResult, error) {
	if producer == nil {
		return nil, errors.New("core producer is not configured")
	}

	callCtx, cancel := ctx, context.CancelFunc(func() {})
	if d.timeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, d.timeout)
	}
	defer cancel()

	started := time.Now()
	done := make(chan taskResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- taskResult{err: fmt.Errorf("core producer %s panicked: %v", producer.Name(), r)}
			}
		}()
		value, err := producer.Produce(callCtx, input)
		done <- taskResult{value: value, err: err}
	}()

	var r taskResult
	select {
	case r = <-done:
	case <-callCtx.Done():
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, fmt.Errorf("core producer %s: %w after %s", producer.Name(), ErrTaskTimeout, d.timeout)
		}
		return nil, fmt.Errorf("core producer %s: %w", producer.Name(), callCtx.Err())
	}

	outcome := models.FromResult(r.value, r.err)
	if !outcome.OK() {
		return nil, fmt.Errorf("core producer %s failed: %s", producer.Name(), outcome.Err)
	}

	d.logger.Info().
		Str("producer", producer.Name()).
		Int("keys", len(outcome.Value)).
		Dur("duration", time.Since(started)).
		Msg("Core analysis completed")

	return outcome.Value, nil
}
