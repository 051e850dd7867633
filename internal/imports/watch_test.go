package imports_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dot-mike/ta-scripts/internal/imports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Watch_ReportsSettledBundles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "Video [aaaaaaaaaaa].mkv", "media")
	writeFile(t, dir, "Video [aaaaaaaaaaa].info.json", "{}")
	writeFile(t, dir, "Partial [bbbbbbbbbbb].info.json", "{}")

	var mu sync.Mutex
	var newIDs, incomplete []string

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- imports.Watch(ctx, dir, imports.WatchOptions{
			ForceSyncInterval: 50 * time.Millisecond,
			ModTimeHold:       10 * time.Millisecond,
		}, func(report imports.WatchReport) {
			mu.Lock()
			defer mu.Unlock()
			for _, bundle := range report.NewBundles {
				newIDs = append(newIDs, bundle.VideoID)
			}
			incomplete = append(incomplete, report.Incomplete...)
		})
	}()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(newIDs) == 1 && len(incomplete) == 1
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"aaaaaaaaaaa"}, newIDs)
	assert.Equal(t, []string{"bbbbbbbbbbb"}, incomplete)
}

func Test_Watch_DoesNotReportTwice(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "Video [ccccccccccc].mkv", "media")
	writeFile(t, dir, "Video [ccccccccccc].info.json", "{}")

	var mu sync.Mutex
	reports := 0

	ctx, cancel := context.WithTimeout(context.Background(), 400*time.Millisecond)
	defer cancel()

	err := imports.Watch(ctx, dir, imports.WatchOptions{
		ForceSyncInterval: 50 * time.Millisecond,
		ModTimeHold:       10 * time.Millisecond,
	}, func(report imports.WatchReport) {
		mu.Lock()
		defer mu.Unlock()
		reports++
	})
	require.NoError(t, err)

	assert.Equal(t, 1, reports, "a settled bundle is reported exactly once")
}
