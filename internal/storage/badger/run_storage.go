package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/dgraph-io/badger/v4"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/marketlens/internal/interfaces"
	"github.com/ternarybob/marketlens/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// RunStorage implements interfaces.RunStorage.
// Run records are badgerhold documents; the progress trail is written as raw
// keys progress:{runID}:{unixNano}:{seq} so a prefix scan returns emission order.
type RunStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
	seq    atomic.Uint64
}

// NewRunStorage creates a new RunStorage instance
func NewRunStorage(db *BadgerDB, logger arbor.ILogger) *RunStorage {
	return &RunStorage{
		db:     db,
		logger: logger,
	}
}

func (s *RunStorage) SaveRun(ctx context.Context, run *models.RunRecord) error {
	if run.ID == "" {
		return fmt.Errorf("run ID is required")
	}
	if err := s.db.Store().Upsert(run.ID, run); err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

func (s *RunStorage) GetRun(ctx context.Context, id string) (*models.RunRecord, error) {
	var run models.RunRecord
	if err := s.db.Store().Get(id, &run); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", interfaces.ErrRunNotFound, id)
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &run, nil
}

// ListRuns returns runs newest first. A non-positive limit returns all runs.
func (s *RunStorage) ListRuns(ctx context.Context, limit int) ([]*models.RunRecord, error) {
	query := badgerhold.Where("ID").Ne("").SortBy("StartedAt").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}

	var runs []models.RunRecord
	if err := s.db.Store().Find(&runs, query); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	result := make([]*models.RunRecord, len(runs))
	for i := range runs {
		result[i] = &runs[i]
	}
	return result, nil
}

// DeleteRun removes the run record and its progress trail
func (s *RunStorage) DeleteRun(ctx context.Context, id string) error {
	if err := s.db.Store().Delete(id, &models.RunRecord{}); err != nil && !errors.Is(err, badgerhold.ErrNotFound) {
		return fmt.Errorf("failed to delete run: %w", err)
	}

	prefix := progressPrefix(id)
	err := s.db.Store().Badger().Update(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)

		var keys [][]byte
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		it.Close()

		for _, key := range keys {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete progress for run %s: %w", id, err)
	}
	return nil
}

func (s *RunStorage) AppendProgress(ctx context.Context, event models.ProgressEvent) error {
	if event.RunID == "" {
		return fmt.Errorf("run ID is required")
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal progress event: %w", err)
	}

	key := []byte(fmt.Sprintf("%s%020d:%010d", progressPrefix(event.RunID), event.Timestamp.UnixNano(), s.seq.Add(1)))
	return s.db.Store().Badger().Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
}

func (s *RunStorage) GetProgress(ctx context.Context, runID string) ([]models.ProgressEvent, error) {
	prefix := progressPrefix(runID)
	events := []models.ProgressEvent{}

	err := s.db.Store().Badger().View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var event models.ProgressEvent
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &event)
			}); err != nil {
				return err
			}
			events = append(events, event)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read progress for run %s: %w", runID, err)
	}
	return events, nil
}

func progressPrefix(runID string) []byte {
	return []byte("progress:" + runID + ":")
}
