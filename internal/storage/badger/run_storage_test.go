package badger

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/marketlens/internal/common"
	"github.com/ternarybob/marketlens/internal/interfaces"
	"github.com/ternarybob/marketlens/internal/models"
)

func newTestStorage(t *testing.T) *RunStorage {
	t.Helper()
	logger := arbor.NewLogger()
	db, err := NewBadgerDB(logger, &common.BadgerConfig{Path: filepath.Join(t.TempDir(), "db")})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRunStorage(db, logger)
}

func TestRunStorage_SaveAndGet(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()
	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	run := &models.RunRecord{
		ID:        "run-1",
		Status:    models.RunStatusCompleted,
		Variant:   models.VariantUnified,
		Request:   models.AnalysisRequest{"segmento": "cafeterias"},
		StartedAt: started,
		Report: &models.ConsolidatedReport{
			Success:      true,
			AnalysisType: models.VariantUnified,
			Sections: models.SectionMap{
				models.SectionInsights: {"insights_principais": []interface{}{"a", "b"}},
			},
			Metadata: models.ReportMetadata{RunID: "run-1", QualityScore: 82.5},
		},
	}
	require.NoError(t, storage.SaveRun(ctx, run))

	got, err := storage.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusCompleted, got.Status)
	assert.Equal(t, "cafeterias", got.Request["segmento"])
	assert.True(t, started.Equal(got.StartedAt))
	require.NotNil(t, got.Report)
	assert.Equal(t, 82.5, got.Report.Metadata.QualityScore)
	assert.Equal(t, []interface{}{"a", "b"}, got.Report.Sections[models.SectionInsights]["insights_principais"])

	// upsert replaces
	run.Status = models.RunStatusFailed
	require.NoError(t, storage.SaveRun(ctx, run))
	got, err = storage.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusFailed, got.Status)
}

func TestRunStorage_Errors(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	_, err := storage.GetRun(ctx, "missing")
	assert.ErrorIs(t, err, interfaces.ErrRunNotFound)

	assert.Error(t, storage.SaveRun(ctx, &models.RunRecord{}))
	assert.Error(t, storage.AppendProgress(ctx, models.ProgressEvent{}))
	assert.NoError(t, storage.DeleteRun(ctx, "missing"))
}

func TestRunStorage_ListRunsNewestFirst(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, storage.SaveRun(ctx, &models.RunRecord{
			ID:        id,
			Status:    models.RunStatusCompleted,
			StartedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}

	runs, err := storage.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "c", runs[0].ID)
	assert.Equal(t, "a", runs[2].ID)

	runs, err = storage.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "c", runs[0].ID)
	assert.Equal(t, "b", runs[1].ID)
}

func TestRunStorage_ProgressTrail(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()
	now := time.Now()

	states := []models.PipelineState{models.StateInit, models.StateValidating, models.StateResearching}
	for i, state := range states {
		require.NoError(t, storage.AppendProgress(ctx, models.ProgressEvent{
			RunID:      "run-1",
			State:      state,
			Percentage: state.Percentage(),
			Timestamp:  now.Add(time.Duration(i) * time.Millisecond),
		}))
	}
	require.NoError(t, storage.AppendProgress(ctx, models.ProgressEvent{RunID: "run-10", State: models.StateInit, Timestamp: now}))

	trail, err := storage.GetProgress(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, trail, 3)
	for i, event := range trail {
		assert.Equal(t, states[i], event.State)
	}

	require.NoError(t, storage.SaveRun(ctx, &models.RunRecord{ID: "run-1", StartedAt: now}))
	require.NoError(t, storage.DeleteRun(ctx, "run-1"))

	trail, err = storage.GetProgress(ctx, "run-1")
	require.NoError(t, err)
	assert.Empty(t, trail)

	_, err = storage.GetRun(ctx, "run-1")
	assert.ErrorIs(t, err, interfaces.ErrRunNotFound)

	other, err := storage.GetProgress(ctx, "run-10")
	require.NoError(t, err)
	assert.Len(t, other, 1)
}
