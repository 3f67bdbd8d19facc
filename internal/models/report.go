package models

import (
	"fmt"
	"time"
)

// Section is the content of one report section
type Section map[string]interface{}

// SectionMap maps section names to their content
type SectionMap map[string]Section

// Canonical section names
const (
	SectionCompetition    = "concorrencia"
	SectionMentalDrivers  = "drivers_mentais"
	SectionSalesFunnel    = "funil_vendas"
	SectionInsights       = "insights"
	SectionMetrics        = "metricas"
	SectionKeywords       = "palavras_chave"
	SectionWebResearch    = "pesquisa_web"
	SectionActionPlan     = "plano_acao"
	SectionPositioning    = "posicionamento"
	SectionPrePitch       = "pre_pitch"
	SectionPredictions    = "predicoes_futuro"
	SectionVisualProofs   = "provas_visuais"
	SectionReports        = "reports"
	SectionAnalyses       = "analyses"
	SectionAntiObjections = "anti_objecao"
	SectionAvatars        = "avatars"
	SectionCompleteness   = "completas"
)

// RequiredSections is the ordered list of canonical sections every report carries
var RequiredSections = []string{
	SectionCompetition,
	SectionMentalDrivers,
	SectionSalesFunnel,
	SectionInsights,
	SectionMetrics,
	SectionKeywords,
	SectionWebResearch,
	SectionActionPlan,
	SectionPositioning,
	SectionPrePitch,
	SectionPredictions,
	SectionVisualProofs,
	SectionReports,
	SectionAnalyses,
	SectionAntiObjections,
	SectionAvatars,
	SectionCompleteness,
}

// IsRequiredSection reports whether name is a canonical section
func IsRequiredSection(name string) bool {
	for _, s := range RequiredSections {
		if s == name {
			return true
		}
	}
	return false
}

// Section status values
const (
	SectionStatusCustom   = "custom_generated"
	SectionStatusFallback = "generated_fallback"
)

// Quality status values
const (
	QualityComplete = "COMPLETE"
	QualityPartial  = "PARTIAL"
)

// CompleteThreshold is the minimum completeness score for COMPLETE status
const CompleteThreshold = 95.0

// QualityMetrics summarizes section coverage of a report
type QualityMetrics struct {
	CompletenessScore float64 `json:"completeness_score"`
	CompletedSections int     `json:"completed_sections"`
	TotalSections     int     `json:"total_sections"`
	Status            string  `json:"status"`
}

// ReportMetadata describes how a report was produced
type ReportMetadata struct {
	RunID             string          `json:"run_id,omitempty"`
	AnalysisType      AnalysisVariant `json:"analysis_type"`
	ExecutionTime     float64         `json:"execution_time"`
	Timestamp         time.Time       `json:"timestamp"`
	SectionsGenerated int             `json:"sections_generated"`
	QualityScore      float64         `json:"quality_score"`
	DepthLevel        int             `json:"depth_level"`
	EngineVersion     string          `json:"engine_version"`
}

// ConsolidatedReport is the final artifact of a successful run
type ConsolidatedReport struct {
	Success            bool                     `json:"success"`
	AnalysisType       AnalysisVariant          `json:"analysis_type"`
	Sections           SectionMap               `json:"sections"`
	SpecializedResults map[string]PartialResult `json:"specialized_results"`
	QualityMetrics     QualityMetrics           `json:"quality_metrics"`
	Metadata           ReportMetadata           `json:"metadata"`
	Warnings           []string                 `json:"warnings,omitempty"`
}

// ErrorEnvelope is returned in place of a report when a phase fails fatally
type ErrorEnvelope struct {
	Success        bool                   `json:"success"`
	Message        string                 `json:"error"`
	PartialResults map[string]interface{} `json:"partial_results"`
	ExecutionTime  float64                `json:"execution_time"`
	State          PipelineState          `json:"failed_state,omitempty"`
	cause          error
}

// NewErrorEnvelope wraps cause as a failed run that reached state
func NewErrorEnvelope(state PipelineState, cause error, elapsed time.Duration) *ErrorEnvelope {
	msg := "unknown error"
	if cause != nil {
		msg = cause.Error()
	}
	return &ErrorEnvelope{
		Success:        false,
		Message:        msg,
		PartialResults: map[string]interface{}{},
		ExecutionTime:  elapsed.Seconds(),
		State:          state,
		cause:          cause,
	}
}

func (e *ErrorEnvelope) Error() string {
	return fmt.Sprintf("analysis failed during %s: %s", e.State, e.Message)
}

func (e *ErrorEnvelope) Unwrap() error { return e.cause }
