package index

import (
	"context"
	"fmt"
)

// ChannelIDs returns every channel ID known to the ta_channel index,
// optionally restricted to channels with fewer than maxSubs subscribers.
func (store *Store) ChannelIDs(ctx context.Context, maxSubs int) ([]string, error) {
	body := map[string]interface{}{
		"size": 0,
		"aggs": map[string]interface{}{
			"unique_channels": map[string]interface{}{
				"terms": map[string]interface{}{"field": "channel_id", "size": 10000},
			},
		},
	}
	if maxSubs > 0 {
		body["query"] = rangeQuery("channel_subs", map[string]interface{}{"lt": maxSubs})
	}

	buckets, err := store.TermsAgg(ctx, ChannelIndex, body, "unique_channels")
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(buckets))
	for _, bucket := range buckets {
		ids = append(ids, bucket.Key)
	}

	return ids, nil
}

// ChannelVideoCount returns how many archived videos the channel has.
func (store *Store) ChannelVideoCount(ctx context.Context, channelID string) (int, error) {
	body := map[string]interface{}{
		"size":  0,
		"query": term("channel.channel_id", channelID),
	}

	result, err := store.Search(ctx, VideoIndex, body)
	if err != nil {
		return 0, err
	}

	return result.Total, nil
}

// PendingByChannel aggregates the pending download queue per channel,
// returning channel buckets ordered by pending count.
func (store *Store) PendingByChannel(ctx context.Context) ([]Bucket, error) {
	body := map[string]interface{}{
		"size":  0,
		"query": term("status", "pending"),
		"aggs": map[string]interface{}{
			"channel_count": map[string]interface{}{
				"terms": map[string]interface{}{"field": "channel_id", "size": 10000},
			},
		},
	}

	return store.TermsAgg(ctx, DownloadIndex, body, "channel_count")
}

// PendingForChannel returns the queued-pending items of one channel,
// oldest first.
func (store *Store) PendingForChannel(ctx context.Context, channelID string) ([]Hit, error) {
	body := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": []interface{}{
					term("channel_id", channelID),
					term("status", "pending"),
				},
			},
		},
		"sort": []interface{}{
			map[string]interface{}{"timestamp": map[string]interface{}{"order": "asc"}},
		},
	}

	hits := make([]Hit, 0)
	err := store.ScrollAll(ctx, DownloadIndex, body, func(hit Hit) error {
		hits = append(hits, hit)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return hits, nil
}

// channelTermField maps each per-channel index to the field holding the
// channel ID in its documents.
var channelTermField = map[string]string{
	ChannelIndex:  "channel_id",
	VideoIndex:    "channel.channel_id",
	SubtitleIndex: "subtitle_channel_id",
	CommentIndex:  "comment_channel_id",
	PlaylistIndex: "playlist_channel_id",
}

// ChannelDocuments scrolls every document belonging to the channel in
// the given index, for backup exports.
func (store *Store) ChannelDocuments(ctx context.Context, indexName string, channelID string, visit func(Hit) error) error {
	field, ok := channelTermField[indexName]
	if !ok {
		return fmt.Errorf("index %s has no per-channel field mapping", indexName)
	}

	body := map[string]interface{}{
		"query": term(field, channelID),
	}

	return store.ScrollAll(ctx, indexName, body, visit)
}
