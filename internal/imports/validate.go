package imports

import (
	"fmt"
	"sort"
	"sync"

	"github.com/dot-mike/ta-scripts/pkg/logger"
	"github.com/dot-mike/ta-scripts/pkg/worker"
)

type mediaProber interface {
	ValidateMedia(path string) error
}

// ValidationReport lists the bundles that cannot be imported as-is.
type ValidationReport struct {
	Checked      int
	MissingMedia []string
	Invalid      []string
}

// Validate probes every bundle's media file, in parallel, and reports
// bundles with no media at all and bundles whose media fails the probe.
func Validate(bundles []*Bundle, prober mediaProber, parallelism int) (*ValidationReport, error) {
	if parallelism < 1 {
		parallelism = 1
	}

	report := &ValidationReport{}
	var mu sync.Mutex
	next := 0

	claim := func() *Bundle {
		mu.Lock()
		defer mu.Unlock()
		for next < len(bundles) {
			bundle := bundles[next]
			next++

			if bundle.Media == "" {
				report.MissingMedia = append(report.MissingMedia, bundle.VideoID)
				continue
			}

			report.Checked++
			return bundle
		}

		return nil
	}

	task := func(w *worker.Worker) (bool, error) {
		bundle := claim()
		if bundle == nil {
			return false, nil
		}

		if err := prober.ValidateMedia(bundle.Media); err != nil {
			log.Emit(logger.WARNING, "Media file for %s failed validation: %v\n", bundle.VideoID, err)
			mu.Lock()
			report.Invalid = append(report.Invalid, bundle.VideoID)
			mu.Unlock()
		}

		return true, nil
	}

	pool := worker.NewPool()
	for i := 0; i < parallelism; i++ {
		if err := pool.Push(worker.New(fmt.Sprintf("validate-worker-%d", i), task)); err != nil {
			return nil, err
		}
	}
	if err := pool.Start(); err != nil {
		return nil, err
	}
	if err := pool.Wait(); err != nil {
		return nil, err
	}

	sort.Strings(report.MissingMedia)
	sort.Strings(report.Invalid)

	return report, nil
}
