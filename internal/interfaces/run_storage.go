package interfaces

import (
	"context"
	"errors"

	"github.com/ternarybob/marketlens/internal/models"
)

// ErrRunNotFound is returned when a run id has no stored record
var ErrRunNotFound = errors.New("run not found")

// RunStorage persists the history of analysis runs
type RunStorage interface {
	SaveRun(ctx context.Context, run *models.RunRecord) error
	GetRun(ctx context.Context, id string) (*models.RunRecord, error)
	ListRuns(ctx context.Context, limit int) ([]*models.RunRecord, error)
	DeleteRun(ctx context.Context, id string) error

	// AppendProgress records a progress event in the run's trail
	AppendProgress(ctx context.Context, event models.ProgressEvent) error
	// GetProgress returns the progress trail of a run in emission order
	GetProgress(ctx context.Context, runID string) ([]models.ProgressEvent, error)
}
