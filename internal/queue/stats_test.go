package queue_test

import (
	"context"
	"sort"
	"testing"

	"github.com/dot-mike/ta-scripts/internal/index"
	"github.com/dot-mike/ta-scripts/internal/queue"
	"github.com/dot-mike/ta-scripts/internal/tubearch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_ParseDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected int
	}{
		{"15m 32s", 932},
		{"1h 2m 3s", 3723},
		{"45s", 45},
		{"2h", 7200},
		{"  10m  ", 600},
		{"", 0},
		{"garbage", 0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, queue.ParseDuration(tt.input))
		})
	}
}

func Test_Summarize(t *testing.T) {
	t.Parallel()

	items := []tubearch.QueueItem{
		{Status: "pending", ChannelName: "Chan A", Published: "2023-04-01", Duration: "2m 10s", VidThumbURL: "http://x/1.jpg"},
		{Status: "pending", ChannelName: "Chan A", Published: "2024-01-15", Duration: "25m"},
		{Status: "ignore", ChannelName: "Chan B", Published: "2024-06-30", Duration: "1h 5m", Message: "Sign in to confirm you’re not a bot"},
		{Status: "pending", Published: "2023-11-11"},
	}

	stats := queue.Summarize(items)

	assert.Equal(t, 4, stats.TotalVideos)
	assert.Equal(t, map[string]int{"pending": 3, "ignore": 1}, stats.Statuses)
	assert.Equal(t, map[string]int{"Chan A": 2, "Chan B": 1, "Unknown": 1}, stats.Channels)
	assert.Equal(t, map[string]int{"2023": 2, "2024": 2}, stats.PublicationByYear)
	assert.Equal(t, 3, stats.ErrorStats.ErrorFree)
	assert.Equal(t, 1, stats.ErrorStats.WithErrors)
	assert.Equal(t, map[string]int{"bot_protection": 1}, stats.CommonErrors)
	assert.Equal(t, 1, stats.ThumbnailStats.WithThumbnails)
	assert.Equal(t, 3, stats.ThumbnailStats.WithoutThumbnails)
	assert.Equal(t, 1, stats.LengthBuckets.Short)
	assert.Equal(t, 1, stats.LengthBuckets.Medium)
	assert.Equal(t, 1, stats.LengthBuckets.Long)
}

type fakeIDStore struct {
	byIndex map[string]map[string]struct{}
	deleted map[string][]string
	failIDs map[string]struct{}
}

func (f *fakeIDStore) AllIDs(_ context.Context, indexName string) (map[string]struct{}, error) {
	return f.byIndex[indexName], nil
}

func (f *fakeIDStore) DeleteByIDs(_ context.Context, indexName string, ids []string) (int, []string, error) {
	if f.deleted == nil {
		f.deleted = make(map[string][]string)
	}
	f.deleted[indexName] = append(f.deleted[indexName], ids...)

	failed := make([]string, 0)
	removed := 0
	for _, id := range ids {
		if _, fail := f.failIDs[id]; fail {
			failed = append(failed, id)
		} else {
			removed++
		}
	}

	return removed, failed, nil
}

func idSet(ids ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func Test_CleanupRemovesOnlyDuplicates(t *testing.T) {
	t.Parallel()

	store := &fakeIDStore{byIndex: map[string]map[string]struct{}{
		index.DownloadIndex: idSet("dupVideo0001", "freshVideo01"),
		index.VideoIndex:    idSet("dupVideo0001", "archivedVid1"),
	}}

	report, err := queue.FindDuplicates(context.Background(), store)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Queued)
	assert.Equal(t, 2, report.Archived)
	assert.Equal(t, []string{"dupVideo0001"}, report.Duplicates)

	require.NoError(t, queue.RemoveDuplicates(context.Background(), store, report))
	assert.Equal(t, 1, report.Removed)
	assert.Empty(t, report.Failed)

	deleted := store.deleted[index.DownloadIndex]
	sort.Strings(deleted)
	assert.Equal(t, []string{"dupVideo0001"}, deleted)
}

func Test_CleanupNothingToDo(t *testing.T) {
	t.Parallel()

	store := &fakeIDStore{byIndex: map[string]map[string]struct{}{
		index.DownloadIndex: idSet("freshVideo01"),
		index.VideoIndex:    idSet("archivedVid1"),
	}}

	report, err := queue.FindDuplicates(context.Background(), store)
	require.NoError(t, err)
	assert.Empty(t, report.Duplicates)

	require.NoError(t, queue.RemoveDuplicates(context.Background(), store, report))
	assert.Zero(t, report.Removed)
	assert.Empty(t, store.deleted)
}
