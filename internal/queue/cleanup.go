package queue

import (
	"context"

	"github.com/dot-mike/ta-scripts/internal/index"
	"github.com/dot-mike/ta-scripts/pkg/logger"
)

var log = logger.Get("QueueMaint")

type idStore interface {
	AllIDs(ctx context.Context, indexName string) (map[string]struct{}, error)
	DeleteByIDs(ctx context.Context, indexName string, ids []string) (int, []string, error)
}

// CleanupReport describes the outcome of a duplicate cleanup run.
type CleanupReport struct {
	Queued     int
	Archived   int
	Duplicates []string
	Removed    int
	Failed     []string
}

// FindDuplicates intersects the download queue with the archived videos:
// anything present in both no longer needs to be queued.
func FindDuplicates(ctx context.Context, store idStore) (*CleanupReport, error) {
	queued, err := store.AllIDs(ctx, index.DownloadIndex)
	if err != nil {
		return nil, err
	}
	log.Emit(logger.INFO, "Found %d video ids in download queue\n", len(queued))

	archived, err := store.AllIDs(ctx, index.VideoIndex)
	if err != nil {
		return nil, err
	}
	log.Emit(logger.INFO, "Found %d archived video ids\n", len(archived))

	duplicates := make([]string, 0)
	for id := range queued {
		if _, exists := archived[id]; exists {
			duplicates = append(duplicates, id)
		}
	}

	return &CleanupReport{
		Queued:     len(queued),
		Archived:   len(archived),
		Duplicates: duplicates,
	}, nil
}

// RemoveDuplicates bulk-deletes the duplicates recorded in the report
// from the download queue, updating the report in place.
func RemoveDuplicates(ctx context.Context, store idStore, report *CleanupReport) error {
	if len(report.Duplicates) == 0 {
		return nil
	}

	removed, failed, err := store.DeleteByIDs(ctx, index.DownloadIndex, report.Duplicates)
	if err != nil {
		return err
	}

	report.Removed = removed
	report.Failed = failed
	if len(failed) > 0 {
		log.Emit(logger.WARNING, "Failed to remove %d duplicates from the queue\n", len(failed))
	}

	return nil
}
