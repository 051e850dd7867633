package video_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/dot-mike/ta-scripts/internal/index"
	"github.com/dot-mike/ta-scripts/internal/tubearch"
	"github.com/dot-mike/ta-scripts/internal/video"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	hits     []index.Hit
	existing map[string]struct{}

	lastIndex string
	lastBody  map[string]interface{}
}

func (f *fakeStore) Search(_ context.Context, indexName string, body map[string]interface{}) (*index.Result, error) {
	f.lastIndex = indexName
	f.lastBody = body
	return &index.Result{Total: len(f.hits), Hits: f.hits}, nil
}

func (f *fakeStore) ExistingIDs(_ context.Context, _ string, _ []string) (map[string]struct{}, error) {
	return f.existing, nil
}

func (f *fakeStore) ScrollAll(_ context.Context, indexName string, body map[string]interface{}, visit func(index.Hit) error) error {
	f.lastIndex = indexName
	f.lastBody = body
	for _, hit := range f.hits {
		if err := visit(hit); err != nil {
			return err
		}
	}
	return nil
}

func videoHit(t *testing.T, v tubearch.Video) index.Hit {
	t.Helper()

	if v.Stats.ViewCount == "" {
		v.Stats.ViewCount = "0"
	}
	if v.Stats.LikeCount == "" {
		v.Stats.LikeCount = "0"
	}

	source, err := json.Marshal(v)
	require.NoError(t, err)
	return index.Hit{ID: v.YoutubeID, Source: source}
}

func Test_Search_DecodesHits(t *testing.T) {
	t.Parallel()

	store := &fakeStore{hits: []index.Hit{
		videoHit(t, tubearch.Video{YoutubeID: "aaaaaaaaaaa", Title: "First", Active: true}),
		videoHit(t, tubearch.Video{YoutubeID: "bbbbbbbbbbb", Title: "Second"}),
	}}

	videos, err := video.Search(context.Background(), store, index.VideoQuery{})
	require.NoError(t, err)

	assert.Equal(t, index.VideoIndex, store.lastIndex)
	require.Len(t, videos, 2)
	assert.Equal(t, "First", videos[0].Title)
	assert.False(t, videos[1].Active)
}

func Test_MissingFromArchive(t *testing.T) {
	t.Parallel()

	store := &fakeStore{existing: map[string]struct{}{"aaaaaaaaaaa": {}}}

	missing, err := video.MissingFromArchive(context.Background(), store, []string{"aaaaaaaaaaa", "bbbbbbbbbbb", "ccccccccccc"})
	require.NoError(t, err)
	assert.Equal(t, []string{"bbbbbbbbbbb", "ccccccccccc"}, missing)
}

func Test_WithoutComments_CollectsIDs(t *testing.T) {
	t.Parallel()

	store := &fakeStore{hits: []index.Hit{
		videoHit(t, tubearch.Video{YoutubeID: "aaaaaaaaaaa"}),
		videoHit(t, tubearch.Video{YoutubeID: "bbbbbbbbbbb"}),
	}}

	ids, err := video.WithoutComments(context.Background(), store)
	require.NoError(t, err)
	assert.Equal(t, []string{"aaaaaaaaaaa", "bbbbbbbbbbb"}, ids)

	assert.NotContains(t, store.lastBody, "size")
	assert.Contains(t, store.lastBody, "_source")
}

func Test_Summarize_Videos(t *testing.T) {
	t.Parallel()

	videos := []tubearch.Video{
		{
			YoutubeID: "aaaaaaaaaaa", Active: true, VidType: "videos",
			Channel: tubearch.VideoChannel{ChannelID: "UCchanA", ChannelName: "Chan A"},
			Stats:   tubearch.VideoStats{ViewCount: json.Number("100"), LikeCount: json.Number("10")},
		},
		{
			YoutubeID: "bbbbbbbbbbb", Active: true, VidType: "videos",
			Channel: tubearch.VideoChannel{ChannelID: "UCchanA", ChannelName: "Chan A"},
			Stats:   tubearch.VideoStats{ViewCount: json.Number("300"), LikeCount: json.Number("30")},
		},
		{
			YoutubeID: "ccccccccccc", VidType: "shorts",
			Channel: tubearch.VideoChannel{ChannelID: "UCchanB", ChannelName: "Chan B"},
			Stats:   tubearch.VideoStats{ViewCount: json.Number("50")},
		},
	}

	stats := video.Summarize(videos)

	assert.Equal(t, 3, stats.TotalVideos)
	assert.Equal(t, 2, stats.ActiveVideos)
	assert.Equal(t, 1, stats.InactiveVideos)
	assert.Equal(t, int64(450), stats.TotalViews)
	assert.Equal(t, int64(40), stats.TotalLikes)
	assert.InDelta(t, 150.0, stats.AverageViews, 0.001)
	assert.Equal(t, map[string]int{"videos": 2, "shorts": 1}, stats.VideosByType)

	require.Len(t, stats.Channels, 2)
	assert.Equal(t, video.ChannelCount{ID: "UCchanA", Name: "Chan A", Count: 2}, stats.Channels[0])
}

func Test_Summarize_Empty(t *testing.T) {
	t.Parallel()

	stats := video.Summarize(nil)
	assert.Zero(t, stats.TotalVideos)
	assert.Zero(t, stats.AverageViews)
}
