package search

import (
	"context"
	"errors"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/marketlens/internal/models"
)

// ErrSearchDisabled is returned when web research is turned off in configuration
var ErrSearchDisabled = errors.New("search service is disabled in configuration")

// DisabledSearchService is a no-op implementation used when search mode is "disabled".
// Every query fails, which the research phase records as a failed role.
type DisabledSearchService struct {
	logger arbor.ILogger
}

// NewDisabledSearchService creates a no-op search service
func NewDisabledSearchService(logger arbor.ILogger) *DisabledSearchService {
	return &DisabledSearchService{logger: logger}
}

// Search returns ErrSearchDisabled
func (s *DisabledSearchService) Search(ctx context.Context, query string) (*models.SearchResponse, error) {
	s.logger.Debug().
		Str("query", query).
		Msg("Search attempted but service is disabled")
	return nil, ErrSearchDisabled
}
