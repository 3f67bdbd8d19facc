package interfaces

import (
	"context"

	"github.com/ternarybob/marketlens/internal/models"
)

// SearchService runs web research queries
type SearchService interface {
	Search(ctx context.Context, query string) (*models.SearchResponse, error)
}
