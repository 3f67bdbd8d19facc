package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/marketlens/internal/interfaces"
	"github.com/ternarybob/marketlens/internal/models"
)

// Research query roles
const (
	RoleWebResearch        = "web_research"
	RoleCompetitorResearch = "competitor_research"
	RoleProductResearch    = "product_research"
)

type researchQuery struct {
	role  string
	field string
	build func(value string, year int) string
}

// researchQueries is evaluated in order; each query is driven by one request field.
var researchQueries = []researchQuery{
	{
		role:  RoleWebResearch,
		field: FieldSegment,
		build: func(v string, year int) string { return fmt.Sprintf("%s mercado tendências %d", v, year) },
	},
	{
		role:  RoleCompetitorResearch,
		field: FieldSegment,
		build: func(v string, _ int) string { return fmt.Sprintf("%s principais empresas líderes", v) },
	},
	{
		role:  RoleProductResearch,
		field: FieldProduct,
		build: func(v string, year int) string { return fmt.Sprintf("mercado de %s no brasil desde %d", v, year-2) },
	},
}

// Researcher runs the research phase against a search service
type Researcher struct {
	search   interfaces.SearchService
	executor *PhaseExecutor
	logger   arbor.ILogger
	year     int
}

// NewResearcher creates a researcher. year drives the trend queries; zero
// means the current year.
func NewResearcher(search interfaces.SearchService, executor *PhaseExecutor, logger arbor.ILogger, year int) *Researcher {
	return &Researcher{
		search:   search,
		executor: executor,
		logger:   logger,
		year:     year,
	}
}

// BuildQueries returns the query per role derived from the request. Roles whose
// driving field is absent or a sentinel are omitted.
func (r *Researcher) BuildQueries(request models.AnalysisRequest) map[string]string {
	year := r.year
	if year == 0 {
		year = time.Now().Year()
	}

	queries := make(map[string]string)
	for _, q := range researchQueries {
		if IsUnspecified(request[q.field]) {
			continue
		}
		value := stringValue(request, q.field)
		if value == "" {
			continue
		}
		queries[q.role] = q.build(value, year)
	}
	return queries
}

// Research runs every derivable query concurrently. A failed query is recorded
// as an empty result with an error marker; it never fails the phase.
func (r *Researcher) Research(ctx context.Context, request models.AnalysisRequest) models.ResearchBundle {
	queries := r.BuildQueries(request)

	var tasks []Task
	for _, q := range researchQueries {
		query, ok := queries[q.role]
		if !ok {
			continue
		}
		tasks = append(tasks, Task{
			Key: q.role,
			Run: func(ctx context.Context) (models.PartialResult, error) {
				return r.runQuery(ctx, query)
			},
		})
	}

	outcomes := r.executor.Execute(ctx, string(models.StateResearching), tasks)

	bundle := models.ResearchBundle{Roles: make(map[string]models.PartialResult, len(researchQueries))}
	for _, q := range researchQueries {
		outcome, ran := outcomes[q.role]
		switch {
		case !ran:
			bundle.Roles[q.role] = models.PartialResult{}
		case outcome.OK():
			bundle.Roles[q.role] = outcome.Value
			bundle.TotalSources += len(listValue(outcome.Value, "results"))
		default:
			bundle.Roles[q.role] = models.PartialResult{
				"success": false,
				"error":   outcome.Err,
				"query":   queries[q.role],
				"results": []interface{}{},
			}
		}
	}

	r.logger.Info().
		Int("queries", len(tasks)).
		Int("total_sources", bundle.TotalSources).
		Msg("Research phase completed")

	return bundle
}

func (r *Researcher) runQuery(ctx context.Context, query string) (models.PartialResult, error) {
	if r.search == nil {
		return nil, fmt.Errorf("no search service configured")
	}
	resp, err := r.search.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search %q failed: %w", query, err)
	}
	if resp == nil {
		return models.PartialResult{"query": query, "results": []interface{}{}}, nil
	}

	results := make([]interface{}, len(resp.Results))
	for i, item := range resp.Results {
		results[i] = models.CloneValue(item)
	}
	out := models.PartialResult{
		"query":   query,
		"results": results,
	}
	if resp.Summary != "" {
		out["summary"] = resp.Summary
	}
	return out, nil
}
