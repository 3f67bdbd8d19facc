package runs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/marketlens/internal/interfaces"
	"github.com/ternarybob/marketlens/internal/models"
	"github.com/ternarybob/marketlens/internal/services/events"
)

// Analyzer executes one pipeline run under a caller-chosen ID
type Analyzer interface {
	RunWithID(ctx context.Context, runID string, request models.AnalysisRequest, config models.AnalysisConfig, sink interfaces.ProgressSink) (*models.ConsolidatedReport, error)
}

// Service records analysis runs: it persists a run record before the pipeline
// starts, mirrors every progress event into storage and onto the event bus, and
// stores the final report or error.
type Service struct {
	analyzer     Analyzer
	storage      interfaces.RunStorage
	eventService interfaces.EventService
	logger       arbor.ILogger
}

// NewService creates a run service
func NewService(analyzer Analyzer, storage interfaces.RunStorage, eventService interfaces.EventService, logger arbor.ILogger) *Service {
	return &Service{
		analyzer:     analyzer,
		storage:      storage,
		eventService: eventService,
		logger:       logger,
	}
}

// Execute runs an analysis and records it. The returned record is always
// non-nil once the run was registered; err is the pipeline's error envelope
// when the run failed.
func (s *Service) Execute(ctx context.Context, request models.AnalysisRequest, config models.AnalysisConfig, sink interfaces.ProgressSink) (*models.RunRecord, error) {
	run := &models.RunRecord{
		ID:        uuid.New().String(),
		Status:    models.RunStatusRunning,
		Variant:   config.Variant(),
		Request:   request.Clone(),
		StartedAt: time.Now(),
	}
	if err := s.storage.SaveRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to register run: %w", err)
	}

	logger := s.logger.WithCorrelationId(run.ID)
	s.publish(ctx, interfaces.EventAnalysisStarted, map[string]interface{}{
		"run_id":  run.ID,
		"variant": string(run.Variant),
	})

	recorder := &progressRecorder{run: run, storage: s.storage, logger: logger}
	sinks := interfaces.MultiSink{recorder, sink}
	if s.eventService != nil {
		sinks = append(sinks, events.NewProgressPublisher(s.eventService))
	}

	report, runErr := s.analyzer.RunWithID(ctx, run.ID, request, config, sinks)

	recorder.mu.Lock()
	run.FinishedAt = time.Now()
	if runErr != nil {
		run.Status = models.RunStatusFailed
		run.Error = runErr.Error()
		var envelope *models.ErrorEnvelope
		if errors.As(runErr, &envelope) {
			run.Error = envelope.Message
		}
	} else {
		run.Status = models.RunStatusCompleted
		run.Report = report
	}
	recorder.mu.Unlock()

	// Persist the outcome even if the caller's context was cancelled
	if err := s.storage.SaveRun(context.WithoutCancel(ctx), run); err != nil {
		logger.Error().Err(err).Msg("Failed to persist run outcome")
	}

	if runErr != nil {
		s.publish(ctx, interfaces.EventAnalysisFailed, map[string]interface{}{
			"run_id":  run.ID,
			"variant": string(run.Variant),
			"error":   run.Error,
		})
		return run, runErr
	}

	s.publish(ctx, interfaces.EventAnalysisCompleted, map[string]interface{}{
		"run_id":        run.ID,
		"variant":       string(run.Variant),
		"quality_score": report.QualityMetrics.CompletenessScore,
		"status":        report.QualityMetrics.Status,
	})
	return run, nil
}

// Get returns a stored run
func (s *Service) Get(ctx context.Context, id string) (*models.RunRecord, error) {
	return s.storage.GetRun(ctx, id)
}

// List returns up to limit runs, newest first
func (s *Service) List(ctx context.Context, limit int) ([]*models.RunRecord, error) {
	return s.storage.ListRuns(ctx, limit)
}

// Progress returns the recorded progress trail of a run
func (s *Service) Progress(ctx context.Context, id string) ([]models.ProgressEvent, error) {
	if _, err := s.storage.GetRun(ctx, id); err != nil {
		return nil, err
	}
	return s.storage.GetProgress(ctx, id)
}

// Delete removes a run and its progress trail
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.storage.GetRun(ctx, id); err != nil {
		return err
	}
	return s.storage.DeleteRun(ctx, id)
}

func (s *Service) publish(ctx context.Context, eventType interfaces.EventType, payload map[string]interface{}) {
	if s.eventService == nil {
		return
	}
	if err := s.eventService.Publish(ctx, interfaces.Event{Type: eventType, Payload: payload}); err != nil {
		s.logger.Warn().Err(err).Str("event_type", string(eventType)).Msg("Failed to publish event")
	}
}

// progressRecorder persists each progress event and keeps the run's last
// percentage current
type progressRecorder struct {
	mu      sync.Mutex
	run     *models.RunRecord
	storage interfaces.RunStorage
	logger  arbor.ILogger
}

func (r *progressRecorder) Report(ctx context.Context, event models.ProgressEvent) error {
	ctx = context.WithoutCancel(ctx)
	if err := r.storage.AppendProgress(ctx, event); err != nil {
		return fmt.Errorf("failed to record progress: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.run.LastPercentage = event.Percentage
	r.run.LastMessage = event.Message
	return r.storage.SaveRun(ctx, r.run)
}
