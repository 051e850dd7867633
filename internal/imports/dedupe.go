package imports

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/dot-mike/ta-scripts/internal/index"
	"github.com/dot-mike/ta-scripts/pkg/logger"
	"github.com/dot-mike/ta-scripts/pkg/worker"
)

type archiveLookup interface {
	ExistingIDs(ctx context.Context, indexName string, ids []string) (map[string]struct{}, error)
}

// FindArchived returns the bundles whose video is already present in
// the archive; importing them again would be a no-op that wastes the
// importer's time. Bundles without media are ignored.
func FindArchived(ctx context.Context, store archiveLookup, bundles []*Bundle) ([]*Bundle, error) {
	ids := make([]string, 0, len(bundles))
	candidates := make([]*Bundle, 0, len(bundles))
	for _, bundle := range bundles {
		if bundle.Media == "" {
			continue
		}
		ids = append(ids, bundle.VideoID)
		candidates = append(candidates, bundle)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	existing, err := store.ExistingIDs(ctx, index.VideoIndex, ids)
	if err != nil {
		return nil, err
	}

	archived := make([]*Bundle, 0)
	for _, bundle := range candidates {
		if _, found := existing[bundle.VideoID]; found {
			archived = append(archived, bundle)
		}
	}

	log.Emit(logger.INFO, "%d of %d local bundles are already archived\n", len(archived), len(candidates))
	return archived, nil
}

// RemoveBundles deletes every file of the given bundles in parallel.
// Individual deletion failures are logged and counted, not fatal.
func RemoveBundles(bundles []*Bundle, parallelism int) (removed int, failed int) {
	if parallelism < 1 {
		parallelism = 1
	}

	files := make([]string, 0)
	for _, bundle := range bundles {
		files = append(files, bundle.Files()...)
	}

	var mu sync.Mutex
	next := 0
	claim := func() string {
		mu.Lock()
		defer mu.Unlock()
		if next >= len(files) {
			return ""
		}
		path := files[next]
		next++
		return path
	}

	task := func(w *worker.Worker) (bool, error) {
		path := claim()
		if path == "" {
			return false, nil
		}

		err := os.Remove(path)

		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			log.Emit(logger.WARNING, "Failed to delete %s: %v\n", path, err)
			failed++
		} else {
			removed++
		}

		return true, nil
	}

	pool := worker.NewPool()
	for i := 0; i < parallelism; i++ {
		pool.Push(worker.New(fmt.Sprintf("dedupe-worker-%d", i), task))
	}
	pool.Start()
	pool.Wait()

	return removed, failed
}
