package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/marketlens/internal/models"
)

// Format is an export file format
type Format string

const (
	FormatMarkdown Format = "md"
	FormatHTML     Format = "html"
	FormatPDF      Format = "pdf"
	FormatJSON     Format = "json"
)

// ErrUnknownFormat is returned for an unsupported export format
var ErrUnknownFormat = errors.New("unknown export format")

// ParseFormat resolves a format name or file extension
func ParseFormat(s string) (Format, error) {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), ".") {
	case "md", "markdown":
		return FormatMarkdown, nil
	case "html", "htm":
		return FormatHTML, nil
	case "pdf":
		return FormatPDF, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// Service renders consolidated reports into shareable documents
type Service struct {
	logger arbor.ILogger
}

// NewService creates a new export service
func NewService(logger arbor.ILogger) *Service {
	return &Service{logger: logger}
}

// Render renders report in format. title heads the document.
func (s *Service) Render(report *models.ConsolidatedReport, title string, format Format) ([]byte, error) {
	if report == nil {
		return nil, fmt.Errorf("no report to export")
	}

	s.logger.Debug().
		Str("format", string(format)).
		Int("sections", len(report.Sections)).
		Msg("Rendering report")

	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to encode report: %w", err)
		}
		return data, nil
	case FormatMarkdown:
		return []byte(RenderMarkdown(report, title)), nil
	case FormatHTML:
		return RenderHTML(RenderMarkdown(report, title), title)
	case FormatPDF:
		data, err := RenderPDF(RenderMarkdown(report, title), title)
		if err != nil {
			s.logger.Error().Err(err).Msg("Failed to generate PDF")
			return nil, err
		}
		s.logger.Debug().Int("pdf_size", len(data)).Msg("PDF generated successfully")
		return data, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// Title builds a document title from the run request
func Title(run *models.RunRecord) string {
	if segment, ok := run.Request["segmento"].(string); ok && strings.TrimSpace(segment) != "" {
		return "Market Analysis: " + segment
	}
	return "Market Analysis " + run.ID
}
