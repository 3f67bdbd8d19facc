package search

import (
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/marketlens/internal/common"
	"github.com/ternarybob/marketlens/internal/interfaces"
)

// NewSearchService creates a search service based on configuration.
// Supported modes:
//   - "gemini": Gemini with GoogleSearch grounding (default)
//   - "disabled": No-op service, every query fails
func NewSearchService(clients ClientProvider, config *common.SearchConfig, logger arbor.ILogger) interfaces.SearchService {
	mode := strings.ToLower(strings.TrimSpace(config.Mode))

	switch mode {
	case "gemini", "":
		logger.Info().
			Str("mode", "gemini").
			Str("model", config.Model).
			Str("rate_limit", config.RateLimit).
			Msg("Initializing grounded web search")
		return NewGeminiSearchService(clients, config, logger)

	case "disabled":
		logger.Warn().
			Str("mode", "disabled").
			Msg("Web search explicitly disabled via configuration")
		return NewDisabledSearchService(logger)

	default:
		logger.Warn().
			Str("mode", mode).
			Str("fallback", "gemini").
			Msg("Unknown search mode, falling back to grounded web search")
		return NewGeminiSearchService(clients, config, logger)
	}
}
