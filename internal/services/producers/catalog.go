package producers

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/marketlens/internal/common"
	"github.com/ternarybob/marketlens/internal/interfaces"
	"github.com/ternarybob/marketlens/internal/models"
	"github.com/ternarybob/marketlens/internal/pipeline"
	"github.com/ternarybob/marketlens/internal/services/llm"
)

// coreKeys are requested from every core producer. The English keys feed the
// section mapping; the <section>_resumo keys carry one summary per section.
var coreKeys = []string{
	"competitors", "competitive_analysis", "market_positioning", "market_gaps",
	"key_metrics", "market_benchmarks", "suggested_targets", "tracking_metrics",
	"primary_keywords", "secondary_keywords", "long_tail_keywords", "keyword_competition",
	"immediate_actions", "medium_term_actions", "long_term_actions", "timeline", "required_resources",
	"current_positioning", "suggested_positioning", "value_proposition", "differentiation",
	"executive_summary", "technical_report", "commercial_report",
	"primary_persona", "secondary_personas", "customer_journey", "pain_points",
	"insights", researchDataKey,
	models.SectionCompetition + "_resumo",
	models.SectionSalesFunnel + "_resumo",
	models.SectionInsights + "_resumo",
	models.SectionMetrics + "_resumo",
	models.SectionKeywords + "_resumo",
	models.SectionWebResearch + "_resumo",
	models.SectionActionPlan + "_resumo",
	models.SectionPositioning + "_resumo",
	models.SectionReports + "_resumo",
	models.SectionAnalyses + "_resumo",
	models.SectionAvatars + "_resumo",
	models.SectionCompleteness + "_resumo",
}

// researchDataKey echoes the research context back in the shape the web
// research section reads
const researchDataKey = "research_data"

// keyHints describe the expected shape of structured keys in the prompt
var keyHints = map[string]string{
	researchDataKey: "object with sources (list of {title, url}), extracted_data (object), trends (list) and research_insights (list), drawn from the context research_data",
}

var coreDefinitions = map[string]Definition{
	"comprehensive": {
		Name:       "comprehensive",
		Role:       "You are a senior market analyst producing a complete, evidence-based market analysis for a Brazilian business. Use the research_data sources when present.",
		OutputKeys: coreKeys,
	},
	"archaeological": {
		Name:       "archaeological",
		Role:       "You are a market archaeologist. Dig into the history, hidden patterns and buried assumptions of the segment before recommending anything. Use the research_data sources when present.",
		OutputKeys: append([]string{"historical_layers", "hidden_patterns"}, coreKeys...),
	},
	"visceral": {
		Name:       "visceral",
		Role:       "You are a visceral market analyst. Expose the raw fears, desires and frustrations of the audience and ground every recommendation in them. Use the research_data sources when present.",
		OutputKeys: append([]string{"deep_fears", "deep_desires"}, coreKeys...),
	},
}

var enrichmentDefinitions = map[models.Enrichment]Definition{
	models.EnrichmentPredictions: {
		Name:       string(models.EnrichmentPredictions),
		Role:       "You forecast how the market described in the core analysis will evolve over the next five years.",
		OutputKeys: []string{models.SectionPredictions, "scenarios", "insights"},
	},
	models.EnrichmentAntiObjections: {
		Name:       string(models.EnrichmentAntiObjections),
		Role:       "You map every objection the target audience raises against the offer and write a response for each.",
		OutputKeys: []string{models.SectionAntiObjections, "objections", "insights"},
	},
	models.EnrichmentVisualProofs: {
		Name:       string(models.EnrichmentVisualProofs),
		Role:       "You design visual proofs (demonstrations, comparisons, case studies) that make the offer's claims concrete.",
		OutputKeys: []string{models.SectionVisualProofs, "proofs", "insights"},
	},
	models.EnrichmentMentalDrivers: {
		Name:       string(models.EnrichmentMentalDrivers),
		Role:       "You identify the mental drivers that move the target audience to act and how to activate each one.",
		OutputKeys: []string{models.SectionMentalDrivers, "drivers", "insights"},
	},
	models.EnrichmentPrePitch: {
		Name:       string(models.EnrichmentPrePitch),
		Role:       "You build the pre-pitch sequence that prepares the audience before the offer is presented.",
		OutputKeys: []string{models.SectionPrePitch, "sequence", "insights"},
	},
}

// Catalog builds the LLM-backed producers used by the pipeline
type Catalog struct {
	generator llm.Generator
	options   Options
	logger    arbor.ILogger
}

// NewCatalog creates a producer catalog from producer configuration
func NewCatalog(generator llm.Generator, config *common.ProducersConfig, logger arbor.ILogger) *Catalog {
	return &Catalog{
		generator: generator,
		options: Options{
			Model:       config.Model,
			Temperature: config.Temperature,
			MaxTokens:   config.MaxTokens,
		},
		logger: logger,
	}
}

// Core returns the core analysis delegates
func (c *Catalog) Core() pipeline.CoreProducers {
	return pipeline.CoreProducers{
		Comprehensive:  c.producer(coreDefinitions["comprehensive"]),
		Archaeological: c.producer(coreDefinitions["archaeological"]),
		Visceral:       c.producer(coreDefinitions["visceral"]),
	}
}

// Enrichments returns one producer per enrichment
func (c *Catalog) Enrichments() map[models.Enrichment]interfaces.Producer {
	out := make(map[models.Enrichment]interfaces.Producer, len(enrichmentDefinitions))
	for _, name := range models.AllEnrichments {
		out[name] = c.producer(enrichmentDefinitions[name])
	}
	return out
}

func (c *Catalog) producer(def Definition) interfaces.Producer {
	return NewLLMProducer(def, c.generator, c.options, c.logger)
}
