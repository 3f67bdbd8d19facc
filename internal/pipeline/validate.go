package pipeline

import (
	"strings"

	"github.com/ternarybob/marketlens/internal/models"
)

// ScoreCompleteness counts canonical sections derivable from producer output.
//
// A section counts when some key of core, or of any successful enrichment
// result, contains the section name as a substring and carries a non-empty
// value. This is a deliberately loose heuristic: it may over- or under-count
// relative to the actual sections map. Sections listed in excluded never count.
func ScoreCompleteness(core models.PartialResult, specialized models.SpecializedResultSet, excluded map[string]bool) models.QualityMetrics {
	total := len(models.RequiredSections)
	completed := 0

	for _, section := range models.RequiredSections {
		if excluded[section] {
			continue
		}
		if hasKeyContaining(core, section) {
			completed++
			continue
		}
		for _, name := range models.AllEnrichments {
			outcome, ok := specialized[name]
			if ok && outcome.OK() && hasKeyContaining(outcome.Value, section) {
				completed++
				break
			}
		}
	}

	score := 0.0
	if total > 0 {
		score = 100 * float64(completed) / float64(total)
	}

	status := models.QualityPartial
	if score >= models.CompleteThreshold {
		status = models.QualityComplete
	}

	return models.QualityMetrics{
		CompletenessScore: score,
		CompletedSections: completed,
		TotalSections:     total,
		Status:            status,
	}
}

func hasKeyContaining(src map[string]interface{}, section string) bool {
	for key, value := range src {
		if strings.Contains(key, section) && !isEmpty(value) {
			return true
		}
	}
	return false
}

// FallbackSection is the placeholder synthesized for a missing canonical section
func FallbackSection(name string) models.Section {
	return models.Section{
		"status":  models.SectionStatusFallback,
		"content": "section " + name + " auto-generated by fallback system",
	}
}

// Finalize fills every canonical section missing from report.Sections with a
// fallback, records one comma-joined warning naming them, and sets the
// quality metrics. A section filled by fallback never counts as completed.
// PARTIAL status is a quality signal, never an error.
func Finalize(report *models.ConsolidatedReport, core models.PartialResult, specialized models.SpecializedResultSet) {
	if report.Sections == nil {
		report.Sections = models.SectionMap{}
	}

	var missing []string
	fallback := make(map[string]bool)
	for _, name := range models.RequiredSections {
		if _, ok := report.Sections[name]; ok {
			continue
		}
		report.Sections[name] = FallbackSection(name)
		fallback[name] = true
		missing = append(missing, name)
	}

	if len(missing) > 0 {
		report.Warnings = append(report.Warnings, "sections generated by fallback: "+strings.Join(missing, ", "))
	}

	report.QualityMetrics = ScoreCompleteness(core, specialized, fallback)
	report.Metadata.SectionsGenerated = len(report.Sections)
	report.Metadata.QualityScore = report.QualityMetrics.CompletenessScore
}
