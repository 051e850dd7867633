package imports

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/dot-mike/ta-scripts/pkg/logger"
	"github.com/rjeczalik/notify"
)

// WatchOptions tunes the import directory watcher.
type WatchOptions struct {
	// ForceSyncInterval rescans the directory on a timer, protecting
	// against missed file system events.
	ForceSyncInterval time.Duration

	// ModTimeHold is how long a bundle's files must be unmodified
	// before the bundle is reported. New files are likely in-progress
	// downloads; there is no way to know when a download completes, so
	// a quiet period stands in for completion.
	ModTimeHold time.Duration
}

// WatchReport is delivered to the handler whenever settled bundles
// appear in the watched directory.
type WatchReport struct {
	// NewBundles are complete bundles seen for the first time.
	NewBundles []*Bundle

	// Incomplete are video IDs whose bundles settled without media or
	// metadata.
	Incomplete []string
}

const (
	defaultForceSyncInterval = 2 * time.Minute
	defaultModTimeHold       = 2 * time.Minute
)

// Watch monitors the directory for new video bundles and invokes the
// handler with every batch of settled arrivals. It blocks until the
// context is cancelled.
func Watch(ctx context.Context, dir string, opts WatchOptions, handle func(WatchReport)) error {
	if opts.ForceSyncInterval <= 0 {
		opts.ForceSyncInterval = defaultForceSyncInterval
	}
	if opts.ModTimeHold <= 0 {
		opts.ModTimeHold = defaultModTimeHold
	}

	fsEvents := make(chan notify.EventInfo, 16)
	if err := notify.Watch(filepath.Join(dir, "..."), fsEvents, notify.Create, notify.Write, notify.Rename); err != nil {
		return err
	}
	defer notify.Stop(fsEvents)

	ticker := time.NewTicker(opts.ForceSyncInterval)
	defer ticker.Stop()

	// holdTimer fires when the youngest held bundle should have settled,
	// triggering a rescan without waiting for the force sync.
	holdTimer := time.NewTimer(opts.ModTimeHold)
	holdTimer.Stop()
	defer holdTimer.Stop()

	log.Emit(logger.INFO, "Watching %s for new bundles\n", dir)

	seen := make(map[string]struct{})
	rescan := func() {
		held := discover(dir, opts.ModTimeHold, seen, handle)
		if held {
			holdTimer.Reset(opts.ModTimeHold)
		}
	}

	rescan()
	for {
		select {
		case <-fsEvents:
			rescan()
		case <-ticker.C:
			rescan()
		case <-holdTimer.C:
			rescan()
		case <-ctx.Done():
			return nil
		}
	}
}

// discover scans the directory and reports bundles that are both new and
// settled. Returns whether any new bundle is still on modtime hold.
func discover(dir string, hold time.Duration, seen map[string]struct{}, handle func(WatchReport)) bool {
	bundles, err := Scan(dir)
	if err != nil {
		log.Emit(logger.ERROR, "Rescan of %s failed: %v\n", dir, err)
		return false
	}

	report := WatchReport{}
	anyHeld := false
	for _, bundle := range bundles {
		if _, known := seen[bundle.VideoID]; known {
			continue
		}

		if youngestModTime(bundle).After(time.Now().Add(-hold)) {
			log.Emit(logger.VERBOSE, "Bundle %s still settling, holding\n", bundle.VideoID)
			anyHeld = true
			continue
		}

		seen[bundle.VideoID] = struct{}{}
		if bundle.Media == "" || bundle.Metadata == "" {
			report.Incomplete = append(report.Incomplete, bundle.VideoID)
		} else {
			report.NewBundles = append(report.NewBundles, bundle)
		}
	}

	if len(report.NewBundles) > 0 || len(report.Incomplete) > 0 {
		handle(report)
	}

	return anyHeld
}

func youngestModTime(bundle *Bundle) time.Time {
	var youngest time.Time
	for _, path := range bundle.Files() {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		if modTime := info.ModTime(); modTime.After(youngest) {
			youngest = modTime
		}
	}

	return youngest
}
