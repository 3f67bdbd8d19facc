package export

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ternarybob/marketlens/internal/models"
)

// RenderMarkdown renders a report as a markdown document: a metadata table,
// the warnings, then every canonical section in canonical order followed by
// custom sections sorted by name. Map keys are rendered in sorted order so the
// output is stable for equal reports.
func RenderMarkdown(report *models.ConsolidatedReport, title string) string {
	var b strings.Builder

	if title == "" {
		title = "Market Analysis"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)

	b.WriteString("| Field | Value |\n|-------|-------|\n")
	fmt.Fprintf(&b, "| Run | %s |\n", report.Metadata.RunID)
	fmt.Fprintf(&b, "| Analysis type | %s |\n", report.AnalysisType)
	fmt.Fprintf(&b, "| Quality | %.1f%% (%s) |\n", report.QualityMetrics.CompletenessScore, report.QualityMetrics.Status)
	fmt.Fprintf(&b, "| Sections | %d |\n", report.Metadata.SectionsGenerated)
	fmt.Fprintf(&b, "| Execution time | %.2fs |\n", report.Metadata.ExecutionTime)
	if !report.Metadata.Timestamp.IsZero() {
		fmt.Fprintf(&b, "| Generated | %s |\n", report.Metadata.Timestamp.Format("2006-01-02 15:04:05"))
	}
	if report.Metadata.EngineVersion != "" {
		fmt.Fprintf(&b, "| Engine | %s |\n", report.Metadata.EngineVersion)
	}
	b.WriteString("\n")

	if len(report.Warnings) > 0 {
		b.WriteString("## Warnings\n\n")
		for _, w := range report.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
		b.WriteString("\n")
	}

	for _, name := range sectionOrder(report.Sections) {
		fmt.Fprintf(&b, "## %s\n\n", humanize(name))
		writeMap(&b, report.Sections[name], 0)
		b.WriteString("\n")
	}

	return b.String()
}

// sectionOrder lists canonical sections first, then custom ones alphabetically
func sectionOrder(sections models.SectionMap) []string {
	order := make([]string, 0, len(sections))
	for _, name := range models.RequiredSections {
		if _, ok := sections[name]; ok {
			order = append(order, name)
		}
	}

	var custom []string
	for name := range sections {
		if !models.IsRequiredSection(name) {
			custom = append(custom, name)
		}
	}
	sort.Strings(custom)
	return append(order, custom...)
}

func writeMap(b *strings.Builder, m map[string]interface{}, depth int) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	indent := strings.Repeat("  ", depth)
	for _, k := range keys {
		v := m[k]
		if isScalar(v) {
			fmt.Fprintf(b, "%s- **%s**: %s\n", indent, humanize(k), scalar(v))
			continue
		}
		fmt.Fprintf(b, "%s- **%s**\n", indent, humanize(k))
		writeValue(b, v, depth+1)
	}
}

func writeValue(b *strings.Builder, v interface{}, depth int) {
	indent := strings.Repeat("  ", depth)
	switch t := v.(type) {
	case map[string]interface{}:
		writeMap(b, t, depth)
	case models.Section:
		writeMap(b, t, depth)
	case models.PartialResult:
		writeMap(b, t, depth)
	case []interface{}:
		for _, item := range t {
			if isScalar(item) {
				fmt.Fprintf(b, "%s- %s\n", indent, scalar(item))
				continue
			}
			fmt.Fprintf(b, "%s-\n", indent)
			writeValue(b, item, depth+1)
		}
	case []string:
		for _, item := range t {
			fmt.Fprintf(b, "%s- %s\n", indent, item)
		}
	default:
		fmt.Fprintf(b, "%s- %s\n", indent, scalar(v))
	}
}

func isScalar(v interface{}) bool {
	switch v.(type) {
	case map[string]interface{}, models.Section, models.PartialResult, []interface{}, []string:
		return false
	}
	return true
}

func scalar(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return "-"
	case string:
		return strings.ReplaceAll(t, "\n", " ")
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%.2f", t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// humanize turns a snake_case key into a capitalized label
func humanize(key string) string {
	label := strings.ReplaceAll(key, "_", " ")
	r, size := utf8.DecodeRuneInString(label)
	if r == utf8.RuneError {
		return label
	}
	return string(unicode.ToUpper(r)) + label[size:]
}
