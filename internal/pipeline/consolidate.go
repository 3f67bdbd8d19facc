package pipeline

import (
	"fmt"

	"github.com/ternarybob/marketlens/internal/models"
)

// MaxInsights caps the merged insights list
const MaxInsights = 10

// funnelStages is the fixed funnel shape of the sales funnel section
var funnelStages = []interface{}{"Consciência", "Interesse", "Consideração", "Decisão", "Retenção"}

type fieldKind int

const (
	kindList fieldKind = iota
	kindMap
	kindText
)

// field maps a section key onto a source key, with the empty value used when
// the source key is absent.
type field struct {
	target string
	source string
	kind   fieldKind
}

type consolidationInput struct {
	core        models.PartialResult
	specialized models.SpecializedResultSet
}

// sectionRule derives one canonical section. ok=false leaves the section
// absent so that finalization synthesizes a fallback for it.
type sectionRule struct {
	name  string
	build func(in consolidationInput) (section models.Section, ok bool)
}

// sectionRules holds exactly one rule per canonical section, in canonical order.
var sectionRules = []sectionRule{
	{models.SectionCompetition, fromCore(
		field{"principais_concorrentes", "competitors", kindList},
		field{"analise_swot", "competitive_analysis", kindMap},
		field{"posicionamento_competitivo", "market_positioning", kindMap},
		field{"oportunidades_gap", "market_gaps", kindList},
	)},
	{models.SectionMentalDrivers, passThrough(models.EnrichmentMentalDrivers)},
	{models.SectionSalesFunnel, salesFunnelSection},
	{models.SectionInsights, insightsSection},
	{models.SectionMetrics, fromCore(
		field{"kpis_principais", "key_metrics", kindMap},
		field{"benchmarks_mercado", "market_benchmarks", kindMap},
		field{"metas_sugeridas", "suggested_targets", kindMap},
		field{"metricas_acompanhamento", "tracking_metrics", kindList},
	)},
	{models.SectionKeywords, fromCore(
		field{"palavras_primarias", "primary_keywords", kindList},
		field{"palavras_secundarias", "secondary_keywords", kindList},
		field{"palavras_cauda_longa", "long_tail_keywords", kindList},
		field{"analise_competitividade", "keyword_competition", kindMap},
	)},
	{models.SectionWebResearch, webResearchSection},
	{models.SectionActionPlan, fromCore(
		field{"acoes_imediatas", "immediate_actions", kindList},
		field{"acoes_medio_prazo", "medium_term_actions", kindList},
		field{"acoes_longo_prazo", "long_term_actions", kindList},
		field{"cronograma_sugerido", "timeline", kindMap},
		field{"recursos_necessarios", "required_resources", kindList},
	)},
	{models.SectionPositioning, fromCore(
		field{"posicionamento_atual", "current_positioning", kindText},
		field{"posicionamento_sugerido", "suggested_positioning", kindText},
		field{"proposta_valor", "value_proposition", kindText},
		field{"diferenciacao", "differentiation", kindList},
	)},
	{models.SectionPrePitch, passThrough(models.EnrichmentPrePitch)},
	{models.SectionPredictions, passThrough(models.EnrichmentPredictions)},
	{models.SectionVisualProofs, passThrough(models.EnrichmentVisualProofs)},
	{models.SectionReports, fromCore(
		field{"relatorio_executivo", "executive_summary", kindText},
		field{"relatorio_tecnico", "technical_report", kindText},
		field{"relatorio_comercial", "commercial_report", kindText},
	)},
	{models.SectionAnalyses, func(in consolidationInput) (models.Section, bool) {
		return models.Section(in.core.Clone()), true
	}},
	{models.SectionAntiObjections, passThrough(models.EnrichmentAntiObjections)},
	{models.SectionAvatars, fromCore(
		field{"avatar_primario", "primary_persona", kindMap},
		field{"avatares_secundarios", "secondary_personas", kindList},
		field{"jornada_cliente", "customer_journey", kindMap},
		field{"pontos_dor", "pain_points", kindList},
	)},
	{models.SectionCompleteness, func(in consolidationInput) (models.Section, bool) {
		m := ScoreCompleteness(in.core, in.specialized, nil)
		return models.Section{
			"score_completude": m.CompletenessScore,
			"secoes_completas": m.CompletedSections,
			"secoes_totais":    m.TotalSections,
			"status":           m.Status,
		}, true
	}},
}

func init() {
	if err := checkRuleTable(); err != nil {
		panic(err)
	}
}

// checkRuleTable verifies one rule per canonical section, in canonical order
func checkRuleTable() error {
	if len(sectionRules) != len(models.RequiredSections) {
		return fmt.Errorf("consolidation rules cover %d sections, want %d", len(sectionRules), len(models.RequiredSections))
	}
	for i, rule := range sectionRules {
		if rule.name != models.RequiredSections[i] {
			return fmt.Errorf("consolidation rule %d is %q, want %q", i, rule.name, models.RequiredSections[i])
		}
		if rule.build == nil {
			return fmt.Errorf("consolidation rule %q has no builder", rule.name)
		}
	}
	return nil
}

// Consolidate maps core analysis and enrichment results onto the section
// schema. It performs no I/O, never mutates its inputs, and returns equal
// output for equal input.
func Consolidate(core models.PartialResult, specialized models.SpecializedResultSet, config models.AnalysisConfig) models.SectionMap {
	if core == nil {
		core = models.PartialResult{}
	}
	in := consolidationInput{core: core, specialized: specialized}

	sections := make(models.SectionMap, len(sectionRules))
	for _, rule := range sectionRules {
		if section, ok := rule.build(in); ok {
			sections[rule.name] = section
		}
	}

	for _, name := range config.CustomSections() {
		if models.IsRequiredSection(name) {
			continue
		}
		if _, exists := sections[name]; exists {
			continue
		}
		relevant, ok := core[name]
		if !ok || relevant == nil {
			relevant = map[string]interface{}{}
		}
		sections[name] = models.Section{
			"name":          name,
			"content":       "custom section: " + name,
			"relevant_data": models.CloneValue(relevant),
			"status":        models.SectionStatusCustom,
		}
	}

	return sections
}

func fromCore(fields ...field) func(in consolidationInput) (models.Section, bool) {
	return func(in consolidationInput) (models.Section, bool) {
		return pick(in.core, fields), true
	}
}

func pick(src map[string]interface{}, fields []field) models.Section {
	section := make(models.Section, len(fields))
	for _, f := range fields {
		section[f.target] = fieldValue(src, f.source, f.kind)
	}
	return section
}

func fieldValue(src map[string]interface{}, key string, kind fieldKind) interface{} {
	if v, ok := src[key]; ok && v != nil {
		return models.CloneValue(v)
	}
	switch kind {
	case kindList:
		return []interface{}{}
	case kindMap:
		return map[string]interface{}{}
	default:
		return ""
	}
}

// passThrough copies an enrichment outcome verbatim, failures included.
// A disabled enrichment yields no section.
func passThrough(name models.Enrichment) func(in consolidationInput) (models.Section, bool) {
	return func(in consolidationInput) (models.Section, bool) {
		outcome, ok := in.specialized[name]
		if !ok {
			return nil, false
		}
		return models.Section(outcome.AsMap().Clone()), true
	}
}

func salesFunnelSection(in consolidationInput) (models.Section, bool) {
	section := pick(in.core, []field{
		{"metricas_conversao", "conversion_metrics", kindMap},
		{"gargalos_identificados", "funnel_bottlenecks", kindList},
		{"otimizacoes_sugeridas", "funnel_optimizations", kindList},
	})
	section["etapas_funil"] = models.CloneValue(funnelStages)
	return section, true
}

// insightsSection merges core insights with every enrichment's insights in
// declaration order, keeping the first MaxInsights entries.
func insightsSection(in consolidationInput) (models.Section, bool) {
	merged := listValue(in.core, "insights")
	for _, name := range models.AllEnrichments {
		outcome, ok := in.specialized[name]
		if !ok || !outcome.OK() {
			continue
		}
		merged = append(merged, listValue(outcome.Value, "insights")...)
	}
	if len(merged) > MaxInsights {
		merged = merged[:MaxInsights]
	}

	section := pick(in.core, []field{
		{"descobertas_surpreendentes", "surprising_findings", kindList},
		{"recomendacoes_acionaveis", "actionable_recommendations", kindList},
	})
	section["insights_principais"] = merged
	return section, true
}

func webResearchSection(in consolidationInput) (models.Section, bool) {
	research := mapValue(in.core, ResearchDataKey)
	return pick(research, []field{
		{"fontes_consultadas", "sources", kindList},
		{"dados_coletados", "extracted_data", kindMap},
		{"tendencias_identificadas", "trends", kindList},
		{"insights_pesquisa", "research_insights", kindList},
	}), true
}
