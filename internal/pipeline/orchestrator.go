// -----------------------------------------------------------------------
// Pipeline orchestrator - sequences the analysis phases of a single run
// -----------------------------------------------------------------------

package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/marketlens/internal/common"
	"github.com/ternarybob/marketlens/internal/interfaces"
	"github.com/ternarybob/marketlens/internal/models"
)

// maxProgressEvents is one event per state transition
const maxProgressEvents = 7

// Orchestrator owns the end-to-end sequence of a run:
// validate, research, core analysis, enrichment, consolidation, finalization.
type Orchestrator struct {
	researcher *Researcher
	dispatcher *Dispatcher
	enricher   *Enricher
	logger     arbor.ILogger
}

// NewOrchestrator creates an orchestrator from its phase components
func NewOrchestrator(researcher *Researcher, dispatcher *Dispatcher, enricher *Enricher, logger arbor.ILogger) *Orchestrator {
	return &Orchestrator{
		researcher: researcher,
		dispatcher: dispatcher,
		enricher:   enricher,
		logger:     logger,
	}
}

// Run executes the pipeline under a new run ID. See RunWithID.
func (o *Orchestrator) Run(ctx context.Context, request models.AnalysisRequest, config models.AnalysisConfig, sink interfaces.ProgressSink) (*models.ConsolidatedReport, error) {
	return o.RunWithID(ctx, uuid.New().String(), request, config, sink)
}

// RunWithID executes the pipeline and returns the consolidated report.
//
// Parameters:
//   - runID: correlation ID stamped on logs, progress events and report metadata
//   - request: free-form input; never modified
//   - config: immutable run configuration
//   - sink: optional progress receiver, awaited for each of at most seven events
//
// Returns:
//   - *models.ConsolidatedReport on success, including PARTIAL quality runs
//   - *models.ErrorEnvelope as the error when a phase fails fatally; partial
//     phase outputs are discarded
func (o *Orchestrator) RunWithID(ctx context.Context, runID string, request models.AnalysisRequest, config models.AnalysisConfig, sink interfaces.ProgressSink) (report *models.ConsolidatedReport, err error) {
	started := time.Now()
	logger := o.logger.WithCorrelationId(runID)
	progress := &progressReporter{sink: sink, runID: runID, logger: logger}
	variant := config.Variant()
	state := models.StateInit

	defer func() {
		if r := recover(); r != nil {
			report = nil
			err = o.fail(ctx, logger, progress, state, fmt.Errorf("pipeline panic: %v", r), started)
		}
	}()

	logger.Info().
		Str("variant", string(variant)).
		Int("depth_level", config.DepthLevel()).
		Int("enrichments", len(config.EnabledEnrichments())).
		Msg("Starting analysis run")

	progress.emit(ctx, models.StateInit, fmt.Sprintf("Starting %s analysis", variant))

	// VALIDATING
	state = models.StateValidating
	validated := Prepare(request)
	progress.emit(ctx, state, "Input validated and prepared")

	// RESEARCHING
	state = models.StateResearching
	if err := ctx.Err(); err != nil {
		return nil, o.fail(ctx, logger, progress, state, err, started)
	}
	bundle := o.researcher.Research(ctx, validated)
	progress.emit(ctx, state, fmt.Sprintf("Research completed with %d sources", bundle.TotalSources))

	// CORE_ANALYSIS
	state = models.StateCoreAnalysis
	if err := ctx.Err(); err != nil {
		return nil, o.fail(ctx, logger, progress, state, err, started)
	}
	core, err := o.dispatcher.Dispatch(ctx, validated, bundle, config)
	if err != nil {
		return nil, o.fail(ctx, logger, progress, state, err, started)
	}
	progress.emit(ctx, state, "Core analysis completed")

	// ENRICHING
	state = models.StateEnriching
	if err := ctx.Err(); err != nil {
		return nil, o.fail(ctx, logger, progress, state, err, started)
	}
	specialized := o.enricher.Enrich(ctx, core, config)
	progress.emit(ctx, state, fmt.Sprintf("Specialized components processed (%d)", len(specialized)))

	// CONSOLIDATING
	state = models.StateConsolidating
	report = &models.ConsolidatedReport{
		Success:            true,
		AnalysisType:       variant,
		Sections:           Consolidate(core, specialized, config),
		SpecializedResults: specialized.AsMap(),
		Metadata: models.ReportMetadata{
			RunID:         runID,
			AnalysisType:  variant,
			DepthLevel:    config.DepthLevel(),
			EngineVersion: common.GetVersion(),
		},
	}
	progress.emit(ctx, state, "Results consolidated")

	// FINALIZED
	state = models.StateFinalized
	Finalize(report, core, specialized)
	elapsed := time.Since(started)
	report.Metadata.ExecutionTime = elapsed.Seconds()
	report.Metadata.Timestamp = time.Now()
	progress.emit(ctx, state, "Analysis completed successfully")

	logger.Info().
		Str("variant", string(variant)).
		Str("status", report.QualityMetrics.Status).
		Int("sections", report.Metadata.SectionsGenerated).
		Int("warnings", len(report.Warnings)).
		Dur("duration", elapsed).
		Msg("Analysis run completed")

	return report, nil
}

func (o *Orchestrator) fail(ctx context.Context, logger arbor.ILogger, progress *progressReporter, state models.PipelineState, cause error, started time.Time) error {
	envelope := models.NewErrorEnvelope(state, cause, time.Since(started))

	logger.Error().
		Err(cause).
		Str("state", string(state)).
		Dur("duration", time.Since(started)).
		Msg("Analysis run failed")

	progress.emit(context.WithoutCancel(ctx), models.StateFailed, "Analysis failed: "+envelope.Message)
	return envelope
}

// progressReporter emits at most one event per transition, never decreasing
// the percentage. Sink errors are logged and do not affect the run; a sink
// panic surfaces as a run failure.
type progressReporter struct {
	sink    interfaces.ProgressSink
	runID   string
	logger  arbor.ILogger
	last    int
	emitted int
}

func (p *progressReporter) emit(ctx context.Context, state models.PipelineState, message string) {
	if p.emitted >= maxProgressEvents {
		return
	}

	pct := state.Percentage()
	if pct < p.last {
		pct = p.last
	}
	p.last = pct

	event := models.ProgressEvent{
		RunID:      p.runID,
		State:      state,
		Percentage: pct,
		Message:    message,
		Timestamp:  time.Now(),
	}

	p.logger.Debug().
		Str("state", string(state)).
		Int("percentage", pct).
		Msg(message)

	if p.sink == nil {
		p.emitted++
		return
	}
	// An event counts toward the cap only once the sink has returned.
	err := p.sink.Report(ctx, event)
	p.emitted++
	if err != nil {
		p.logger.Warn().
			Err(err).
			Str("state", string(state)).
			Msg("Progress sink failed")
	}
}
