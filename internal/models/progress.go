package models

import "time"

// PipelineState is a stage of the analysis state machine
type PipelineState string

// PipelineState constants, in execution order
const (
	StateInit          PipelineState = "INIT"
	StateValidating    PipelineState = "VALIDATING"
	StateResearching   PipelineState = "RESEARCHING"
	StateCoreAnalysis  PipelineState = "CORE_ANALYSIS"
	StateEnriching     PipelineState = "ENRICHING"
	StateConsolidating PipelineState = "CONSOLIDATING"
	StateFinalized     PipelineState = "FINALIZED"
	StateFailed        PipelineState = "FAILED"
)

// Percentage returns the progress percentage reported when the state is reached
func (s PipelineState) Percentage() int {
	switch s {
	case StateInit:
		return 0
	case StateValidating:
		return 10
	case StateResearching:
		return 25
	case StateCoreAnalysis:
		return 50
	case StateEnriching:
		return 75
	case StateConsolidating:
		return 90
	case StateFinalized, StateFailed:
		return 100
	default:
		return 0
	}
}

// ProgressEvent is a single progress notification of a run
type ProgressEvent struct {
	RunID      string        `json:"run_id,omitempty"`
	State      PipelineState `json:"state"`
	Percentage int           `json:"percentage"`
	Message    string        `json:"message"`
	Timestamp  time.Time     `json:"timestamp"`
}

// SearchResponse is the result of one web search query
type SearchResponse struct {
	Query   string                   `json:"query"`
	Summary string                   `json:"summary,omitempty"`
	Results []map[string]interface{} `json:"results"`
}

// ResearchBundle holds the per-role research outcomes and the total source count
type ResearchBundle struct {
	Roles        map[string]PartialResult `json:"roles"`
	TotalSources int                      `json:"total_sources"`
}

// AsMap renders the bundle as the research_data mapping handed to core producers
func (b ResearchBundle) AsMap() map[string]interface{} {
	out := make(map[string]interface{}, len(b.Roles)+1)
	for role, result := range b.Roles {
		out[role] = map[string]interface{}(result.Clone())
	}
	out["total_sources"] = b.TotalSources
	return out
}
