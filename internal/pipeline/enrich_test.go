package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/marketlens/internal/models"
)

func newTestEnricher(producers map[models.Enrichment]*fakeProducer) *Enricher {
	logger := testLogger()
	return NewEnricher(asPorts(producers), NewPhaseExecutor(logger, time.Second, 0), logger)
}

func TestEnricher_OneKeyPerEnabledToggle(t *testing.T) {
	tests := []struct {
		name string
		opts models.ConfigOptions
		want []models.Enrichment
	}{
		{"all", models.DefaultConfigOptions(models.VariantUnified), models.AllEnrichments},
		{"none", noEnrichments(models.VariantUnified), nil},
		{"some", models.ConfigOptions{
			Variant:              models.VariantUnified,
			IncludePredictions:   true,
			IncludeMentalDrivers: true,
		}, []models.Enrichment{models.EnrichmentPredictions, models.EnrichmentMentalDrivers}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			producers := enrichmentProducers()
			e := newTestEnricher(producers)

			results := e.Enrich(context.Background(), models.PartialResult{"insights": []interface{}{"core"}}, mustConfig(tt.opts))

			assert.Len(t, results, len(tt.want))
			for _, name := range tt.want {
				require.Contains(t, results, name)
				assert.True(t, results[name].OK())
			}
			for _, name := range models.AllEnrichments {
				if _, ok := results[name]; !ok {
					assert.Equal(t, 0, producers[name].callCount(), string(name))
				}
			}
		})
	}
}

func TestEnricher_FailureIsIsolated(t *testing.T) {
	producers := enrichmentProducers()
	producers[models.EnrichmentVisualProofs] = newFakeProducer("visual_proofs", func(ctx context.Context, input models.PartialResult) (models.PartialResult, error) {
		return nil, errors.New("renderer crashed")
	})
	e := newTestEnricher(producers)

	results := e.Enrich(context.Background(), models.PartialResult{}, mustConfig(models.DefaultConfigOptions(models.VariantUnified)))

	require.Len(t, results, len(models.AllEnrichments))
	failed := results[models.EnrichmentVisualProofs]
	assert.False(t, failed.OK())
	assert.Equal(t, models.PartialResult{"success": false, "error": "renderer crashed"}, failed.AsMap())

	for _, name := range models.AllEnrichments {
		if name == models.EnrichmentVisualProofs {
			continue
		}
		assert.True(t, results[name].OK(), string(name))
		assert.Equal(t, string(name)+" summary", results[name].Value["summary"])
	}
}

func TestEnricher_EmptyErrorMessageIsStillFailure(t *testing.T) {
	producers := enrichmentProducers()
	producers[models.EnrichmentPredictions] = newFakeProducer("predictions", func(ctx context.Context, input models.PartialResult) (models.PartialResult, error) {
		return nil, errors.New("")
	})
	e := newTestEnricher(producers)

	results := e.Enrich(context.Background(), models.PartialResult{}, mustConfig(models.DefaultConfigOptions(models.VariantUnified)))

	failed := results[models.EnrichmentPredictions]
	assert.False(t, failed.OK())
	assert.Equal(t, models.PartialResult{"success": false, "error": "producer failed"}, failed.AsMap())
	assert.True(t, results[models.EnrichmentPrePitch].OK())
}

func TestEnricher_CoreSnapshotIsNotMutated(t *testing.T) {
	mutate := func(ctx context.Context, input models.PartialResult) (models.PartialResult, error) {
		input["injected"] = true
		if list, ok := input["insights"].([]interface{}); ok && len(list) > 0 {
			list[0] = "overwritten"
		}
		return models.PartialResult{}, nil
	}
	producers := map[models.Enrichment]*fakeProducer{}
	for _, name := range models.AllEnrichments {
		producers[name] = newFakeProducer(string(name), mutate)
	}
	e := newTestEnricher(producers)

	core := models.PartialResult{"insights": []interface{}{"original"}}
	_ = e.Enrich(context.Background(), core, mustConfig(models.DefaultConfigOptions(models.VariantUnified)))

	assert.Equal(t, models.PartialResult{"insights": []interface{}{"original"}}, core)
}

func TestEnricher_MissingProducerIsCapturedFailure(t *testing.T) {
	e := newTestEnricher(map[models.Enrichment]*fakeProducer{})

	results := e.Enrich(context.Background(), models.PartialResult{}, mustConfig(models.ConfigOptions{
		Variant:         models.VariantUnified,
		IncludePrePitch: true,
	}))

	require.Contains(t, results, models.EnrichmentPrePitch)
	assert.False(t, results[models.EnrichmentPrePitch].OK())
}
