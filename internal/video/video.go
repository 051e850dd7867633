// Package video implements queries and reports over the archived video
// index.
package video

import (
	"context"

	"github.com/dot-mike/ta-scripts/internal/index"
	"github.com/dot-mike/ta-scripts/internal/tubearch"
	"github.com/dot-mike/ta-scripts/pkg/logger"
)

var log = logger.Get("VideoQuery")

type searcher interface {
	Search(ctx context.Context, indexName string, body map[string]interface{}) (*index.Result, error)
	ExistingIDs(ctx context.Context, indexName string, ids []string) (map[string]struct{}, error)
	ScrollAll(ctx context.Context, indexName string, body map[string]interface{}, visit func(index.Hit) error) error
}

// Search runs the query against ta_video and decodes the matched
// documents.
func Search(ctx context.Context, store searcher, query index.VideoQuery) ([]tubearch.Video, error) {
	result, err := store.Search(ctx, index.VideoIndex, query.Body())
	if err != nil {
		return nil, err
	}

	videos := make([]tubearch.Video, 0, len(result.Hits))
	for _, hit := range result.Hits {
		var video tubearch.Video
		if err := hit.DecodeSource(&video); err != nil {
			return nil, err
		}
		videos = append(videos, video)
	}

	log.Emit(logger.DEBUG, "Query matched %d of %d videos\n", len(videos), result.Total)
	return videos, nil
}

// MissingFromArchive reports which of the given IDs have no document in
// ta_video yet, making them candidates for downloading.
func MissingFromArchive(ctx context.Context, store searcher, ids []string) ([]string, error) {
	existing, err := store.ExistingIDs(ctx, index.VideoIndex, ids)
	if err != nil {
		return nil, err
	}

	missing := make([]string, 0)
	for _, id := range ids {
		if _, found := existing[id]; !found {
			missing = append(missing, id)
		}
	}

	return missing, nil
}

// WithoutComments walks ta_video for regular videos whose comments were
// never fetched and returns their IDs.
func WithoutComments(ctx context.Context, store searcher) ([]string, error) {
	query := index.VideoQuery{WithoutComments: true, VidType: "videos"}
	body := query.Body()
	delete(body, "size")
	body["_source"] = []string{"youtube_id", "published", "vid_type", "title"}

	ids := make([]string, 0)
	err := store.ScrollAll(ctx, index.VideoIndex, body, func(hit index.Hit) error {
		var source struct {
			YoutubeID string `json:"youtube_id"`
		}
		if err := hit.DecodeSource(&source); err != nil {
			return err
		}
		ids = append(ids, source.YoutubeID)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return ids, nil
}
