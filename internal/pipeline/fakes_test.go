package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/marketlens/internal/interfaces"
	"github.com/ternarybob/marketlens/internal/models"
)

func testLogger() arbor.ILogger {
	return arbor.NewLogger()
}

type fakeProducer struct {
	name string
	fn   func(ctx context.Context, input models.PartialResult) (models.PartialResult, error)

	mu     sync.Mutex
	calls  int
	inputs []models.PartialResult
}

func newFakeProducer(name string, fn func(ctx context.Context, input models.PartialResult) (models.PartialResult, error)) *fakeProducer {
	return &fakeProducer{name: name, fn: fn}
}

func staticProducer(name string, out models.PartialResult) *fakeProducer {
	return newFakeProducer(name, func(ctx context.Context, input models.PartialResult) (models.PartialResult, error) {
		return out.Clone(), nil
	})
}

func (p *fakeProducer) Name() string { return p.name }

func (p *fakeProducer) Produce(ctx context.Context, input models.PartialResult) (models.PartialResult, error) {
	p.mu.Lock()
	p.calls++
	p.inputs = append(p.inputs, input)
	p.mu.Unlock()
	return p.fn(ctx, input)
}

func (p *fakeProducer) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

type fakeSearch struct {
	fn func(ctx context.Context, query string) (*models.SearchResponse, error)

	mu      sync.Mutex
	queries []string
}

func (s *fakeSearch) Search(ctx context.Context, query string) (*models.SearchResponse, error) {
	s.mu.Lock()
	s.queries = append(s.queries, query)
	s.mu.Unlock()
	return s.fn(ctx, query)
}

func resultsSearch(n int) *fakeSearch {
	return &fakeSearch{fn: func(ctx context.Context, query string) (*models.SearchResponse, error) {
		results := make([]map[string]interface{}, n)
		for i := range results {
			results[i] = map[string]interface{}{"title": query, "rank": i}
		}
		return &models.SearchResponse{Query: query, Results: results}, nil
	}}
}

type recordingSink struct {
	mu     sync.Mutex
	events []models.ProgressEvent
}

func (s *recordingSink) Report(ctx context.Context, event models.ProgressEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSink) percentages() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int, len(s.events))
	for i, e := range s.events {
		out[i] = e.Percentage
	}
	return out
}

func (s *recordingSink) last() models.ProgressEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.events[len(s.events)-1]
}

func mustConfig(opts models.ConfigOptions) models.AnalysisConfig {
	cfg, err := models.NewAnalysisConfig(opts)
	if err != nil {
		panic(err)
	}
	return cfg
}

func noEnrichments(variant models.AnalysisVariant) models.ConfigOptions {
	return models.ConfigOptions{Variant: variant, DepthLevel: 5}
}

// enrichmentProducers returns a producer per enrichment, each echoing one insight
func enrichmentProducers() map[models.Enrichment]*fakeProducer {
	out := make(map[models.Enrichment]*fakeProducer)
	for _, e := range models.AllEnrichments {
		out[e] = staticProducer(string(e), models.PartialResult{
			"insights": []interface{}{string(e) + " insight"},
			"summary":  string(e) + " summary",
		})
	}
	return out
}

func asPorts(in map[models.Enrichment]*fakeProducer) map[models.Enrichment]interfaces.Producer {
	out := make(map[models.Enrichment]interfaces.Producer, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func newTestOrchestrator(search interfaces.SearchService, core CoreProducers, enrichers map[models.Enrichment]interfaces.Producer) *Orchestrator {
	logger := testLogger()
	executor := NewPhaseExecutor(logger, 2*time.Second, 0)
	return NewOrchestrator(
		NewResearcher(search, executor, logger, 2024),
		NewDispatcher(core, 2*time.Second, logger),
		NewEnricher(enrichers, executor, logger),
		logger,
	)
}
