package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/marketlens/internal/models"
)

func cafeteriaRequest() models.AnalysisRequest {
	return models.AnalysisRequest{"segmento": "cafeterias", "produto": "assinatura mensal"}
}

func TestOrchestrator_UnifiedWithAllEnrichments(t *testing.T) {
	core, _ := testCoreProducers()
	core.Comprehensive = staticProducer("comprehensive", sampleCore())
	o := newTestOrchestrator(resultsSearch(2), core, asPorts(enrichmentProducers()))
	sink := &recordingSink{}

	report, err := o.Run(context.Background(), cafeteriaRequest(), mustConfig(models.DefaultConfigOptions(models.VariantUnified)), sink)
	require.NoError(t, err)
	require.NotNil(t, report)

	assert.True(t, report.Success)
	assert.Equal(t, models.VariantUnified, report.AnalysisType)
	assert.Equal(t, models.VariantUnified, report.Metadata.AnalysisType)
	for _, name := range models.RequiredSections {
		require.Contains(t, report.Sections, name)
		assert.NotEqual(t, models.SectionStatusFallback, report.Sections[name]["status"], name)
	}
	assert.Empty(t, report.Warnings)
	assert.Len(t, report.SpecializedResults, len(models.AllEnrichments))
	assert.Equal(t, len(report.Sections), report.Metadata.SectionsGenerated)
	assert.Equal(t, report.QualityMetrics.CompletenessScore, report.Metadata.QualityScore)
	assert.NotEmpty(t, report.Metadata.RunID)
	assert.False(t, report.Metadata.Timestamp.IsZero())

	assert.Equal(t, []int{0, 10, 25, 50, 75, 90, 100}, sink.percentages())
	assert.Equal(t, models.StateFinalized, sink.last().State)
}

func TestOrchestrator_ForensicWithoutEnrichmentsIsPartial(t *testing.T) {
	core, fakes := testCoreProducers()
	enrichers := enrichmentProducers()
	o := newTestOrchestrator(resultsSearch(1), core, asPorts(enrichers))
	sink := &recordingSink{}

	report, err := o.Run(context.Background(), cafeteriaRequest(), mustConfig(noEnrichments(models.VariantForensic)), sink)
	require.NoError(t, err)

	assert.True(t, report.Success)
	assert.Empty(t, report.SpecializedResults)
	assert.NotNil(t, report.SpecializedResults)

	for _, name := range []string{
		models.SectionMentalDrivers,
		models.SectionPrePitch,
		models.SectionPredictions,
		models.SectionVisualProofs,
		models.SectionAntiObjections,
	} {
		assert.Equal(t, models.SectionStatusFallback, report.Sections[name]["status"], name)
	}
	require.Len(t, report.Warnings, 1)
	assert.Equal(t, models.QualityPartial, report.QualityMetrics.Status)

	for _, fake := range fakes {
		assert.Equal(t, 0, fake.callCount())
	}
	for _, fake := range enrichers {
		assert.Equal(t, 0, fake.callCount())
	}
	assert.Equal(t, []int{0, 10, 25, 50, 75, 90, 100}, sink.percentages())
}

func TestOrchestrator_CoreFailureReturnsEnvelope(t *testing.T) {
	core := CoreProducers{
		Comprehensive: newFakeProducer("comprehensive", func(ctx context.Context, input models.PartialResult) (models.PartialResult, error) {
			return nil, errors.New("llm quota exhausted")
		}),
	}
	enrichers := enrichmentProducers()
	o := newTestOrchestrator(resultsSearch(1), core, asPorts(enrichers))
	sink := &recordingSink{}

	report, err := o.Run(context.Background(), cafeteriaRequest(), mustConfig(models.DefaultConfigOptions(models.VariantDetailed)), sink)
	assert.Nil(t, report)
	require.Error(t, err)

	var envelope *models.ErrorEnvelope
	require.True(t, errors.As(err, &envelope))
	assert.False(t, envelope.Success)
	assert.Contains(t, envelope.Message, "llm quota exhausted")
	assert.Empty(t, envelope.PartialResults)
	assert.NotNil(t, envelope.PartialResults)
	assert.GreaterOrEqual(t, envelope.ExecutionTime, 0.0)
	assert.Equal(t, models.StateCoreAnalysis, envelope.State)

	data, jerr := json.Marshal(envelope)
	require.NoError(t, jerr)
	assert.JSONEq(t, `{"success":false,"error":"`+envelope.Message+`","partial_results":{},"execution_time":`+jsonNumber(t, envelope.ExecutionTime)+`,"failed_state":"CORE_ANALYSIS"}`, string(data))

	assert.Equal(t, []int{0, 10, 25, 100}, sink.percentages())
	last := sink.last()
	assert.Equal(t, models.StateFailed, last.State)
	assert.Contains(t, last.Message, "llm quota exhausted")

	for _, fake := range enrichers {
		assert.Equal(t, 0, fake.callCount())
	}
}

func TestOrchestrator_CoreErrorWithoutMessageIsFatal(t *testing.T) {
	core := CoreProducers{
		Comprehensive: newFakeProducer("comprehensive", func(ctx context.Context, input models.PartialResult) (models.PartialResult, error) {
			return nil, errors.New("")
		}),
	}
	o := newTestOrchestrator(resultsSearch(1), core, asPorts(enrichmentProducers()))
	sink := &recordingSink{}

	report, err := o.Run(context.Background(), cafeteriaRequest(), mustConfig(models.DefaultConfigOptions(models.VariantUnified)), sink)
	assert.Nil(t, report)

	var envelope *models.ErrorEnvelope
	require.True(t, errors.As(err, &envelope))
	assert.Equal(t, models.StateCoreAnalysis, envelope.State)
	assert.Contains(t, envelope.Message, "producer failed")
	assert.Equal(t, models.StateFailed, sink.last().State)
}

func TestOrchestrator_EnrichmentFailureIsIsolated(t *testing.T) {
	core, _ := testCoreProducers()
	enrichers := enrichmentProducers()
	enrichers[models.EnrichmentAntiObjections] = newFakeProducer("anti_objections", func(ctx context.Context, input models.PartialResult) (models.PartialResult, error) {
		panic("unexpected shape")
	})
	o := newTestOrchestrator(resultsSearch(1), core, asPorts(enrichers))

	report, err := o.Run(context.Background(), cafeteriaRequest(), mustConfig(models.DefaultConfigOptions(models.VariantComplete)), nil)
	require.NoError(t, err)

	assert.True(t, report.Success)
	failed := report.SpecializedResults[string(models.EnrichmentAntiObjections)]
	assert.Equal(t, false, failed["success"])
	assert.Contains(t, failed["error"], "unexpected shape")
	for _, name := range models.AllEnrichments {
		if name == models.EnrichmentAntiObjections {
			continue
		}
		assert.Equal(t, string(name)+" summary", report.SpecializedResults[string(name)]["summary"])
	}
	assert.Equal(t, false, report.Sections[models.SectionAntiObjections]["success"])
}

func TestOrchestrator_ResearchFailureDoesNotAbort(t *testing.T) {
	core, fakes := testCoreProducers()
	search := &fakeSearch{fn: func(ctx context.Context, query string) (*models.SearchResponse, error) {
		return nil, errors.New("search offline")
	}}
	o := newTestOrchestrator(search, core, asPorts(enrichmentProducers()))

	report, err := o.Run(context.Background(), cafeteriaRequest(), mustConfig(models.DefaultConfigOptions(models.VariantArchaeological)), nil)
	require.NoError(t, err)
	assert.True(t, report.Success)

	input := fakes["archaeological"].inputs[0]
	research := input[ResearchDataKey].(map[string]interface{})
	assert.Equal(t, 0, research["total_sources"])
}

func TestOrchestrator_CancelledContextFails(t *testing.T) {
	core, _ := testCoreProducers()
	o := newTestOrchestrator(resultsSearch(1), core, asPorts(enrichmentProducers()))
	sink := &recordingSink{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := o.Run(ctx, cafeteriaRequest(), mustConfig(models.DefaultConfigOptions(models.VariantUnified)), sink)
	assert.Nil(t, report)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 100, sink.last().Percentage)
}

func TestOrchestrator_SinkErrorsAreIgnored(t *testing.T) {
	core, _ := testCoreProducers()
	o := newTestOrchestrator(resultsSearch(1), core, asPorts(enrichmentProducers()))

	calls := 0
	sink := progressFunc(func(ctx context.Context, event models.ProgressEvent) error {
		calls++
		return errors.New("sink closed")
	})

	report, err := o.Run(context.Background(), cafeteriaRequest(), mustConfig(models.DefaultConfigOptions(models.VariantVisceral)), sink)
	require.NoError(t, err)
	assert.True(t, report.Success)
	assert.Equal(t, 7, calls)
}

func TestOrchestrator_SinkPanicOnFinalizedStillReportsFailure(t *testing.T) {
	core, _ := testCoreProducers()
	o := newTestOrchestrator(resultsSearch(1), core, asPorts(enrichmentProducers()))

	var delivered []models.ProgressEvent
	sink := progressFunc(func(ctx context.Context, event models.ProgressEvent) error {
		if event.State == models.StateFinalized {
			panic("subscriber gone")
		}
		delivered = append(delivered, event)
		return nil
	})

	report, err := o.Run(context.Background(), cafeteriaRequest(), mustConfig(models.DefaultConfigOptions(models.VariantUnified)), sink)
	assert.Nil(t, report)

	var envelope *models.ErrorEnvelope
	require.True(t, errors.As(err, &envelope))
	assert.Contains(t, envelope.Message, "subscriber gone")

	require.Len(t, delivered, 7)
	last := delivered[len(delivered)-1]
	assert.Equal(t, models.StateFailed, last.State)
	assert.Equal(t, 100, last.Percentage)
	assert.Contains(t, last.Message, "subscriber gone")
}

type progressFunc func(ctx context.Context, event models.ProgressEvent) error

func (f progressFunc) Report(ctx context.Context, event models.ProgressEvent) error { return f(ctx, event) }

func jsonNumber(t *testing.T, v float64) string {
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}
