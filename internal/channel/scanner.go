// Package channel implements maintenance over archived channels: finding
// channels with nothing archived, dumping their queued videos, and
// bumping small stalled channels to the front of the download queue.
package channel

import (
	"context"

	"github.com/dot-mike/ta-scripts/internal/index"
	"github.com/dot-mike/ta-scripts/pkg/logger"
)

var log = logger.Get("ChanScan")

// Defaults mirror how the queue behaves in practice: a channel small
// enough to finish quickly gets prioritized, but only when its backlog
// is short enough that prioritizing does not starve everything else.
const (
	DefaultMaxSubscribers = 3000
	DefaultMaxPending     = 40
)

type channelStore interface {
	ChannelIDs(ctx context.Context, maxSubs int) ([]string, error)
	ChannelVideoCount(ctx context.Context, channelID string) (int, error)
	PendingForChannel(ctx context.Context, channelID string) ([]index.Hit, error)
	PendingByChannel(ctx context.Context) ([]index.Bucket, error)
}

type prioritizer interface {
	QueuePrioritize(ctx context.Context, videoID string) error
}

// WithoutVideos returns every known channel that has no archived video.
func WithoutVideos(ctx context.Context, store channelStore) ([]string, error) {
	ids, err := store.ChannelIDs(ctx, 0)
	if err != nil {
		return nil, err
	}
	log.Emit(logger.INFO, "Checking %d channels for archived videos\n", len(ids))

	empty := make([]string, 0)
	for _, id := range ids {
		count, err := store.ChannelVideoCount(ctx, id)
		if err != nil {
			return nil, err
		}
		if count == 0 {
			empty = append(empty, id)
		}
	}

	return empty, nil
}

// PendingIDs returns the queued-pending video IDs for each requested
// channel, oldest first.
func PendingIDs(ctx context.Context, store channelStore, channelIDs []string) (map[string][]string, error) {
	pending := make(map[string][]string, len(channelIDs))
	for _, channelID := range channelIDs {
		hits, err := store.PendingForChannel(ctx, channelID)
		if err != nil {
			return nil, err
		}

		ids := make([]string, 0, len(hits))
		for _, hit := range hits {
			ids = append(ids, hit.ID)
		}
		pending[channelID] = ids
	}

	return pending, nil
}

// ScanOptions tunes which channels Prioritize considers.
type ScanOptions struct {
	MaxSubscribers int
	MaxPending     int
	DryRun         bool
}

// ScanResult records what Prioritize did for one channel.
type ScanResult struct {
	ChannelID   string
	Pending     int
	Prioritized int
	Failed      []string
}

// Prioritize finds small channels that have nothing archived yet but a
// short pending backlog, and moves their queued videos to priority so
// the channel completes. Channels with too many pending videos are
// reported but left alone.
func Prioritize(ctx context.Context, store channelStore, api prioritizer, opts ScanOptions) ([]ScanResult, error) {
	if opts.MaxSubscribers <= 0 {
		opts.MaxSubscribers = DefaultMaxSubscribers
	}
	if opts.MaxPending <= 0 {
		opts.MaxPending = DefaultMaxPending
	}

	ids, err := store.ChannelIDs(ctx, opts.MaxSubscribers)
	if err != nil {
		return nil, err
	}
	log.Emit(logger.INFO, "Scanning %d channels under %d subscribers\n", len(ids), opts.MaxSubscribers)

	results := make([]ScanResult, 0)
	for _, channelID := range ids {
		count, err := store.ChannelVideoCount(ctx, channelID)
		if err != nil {
			return nil, err
		}
		if count > 0 {
			continue
		}

		hits, err := store.PendingForChannel(ctx, channelID)
		if err != nil {
			return nil, err
		}
		if len(hits) == 0 {
			log.Emit(logger.VERBOSE, "Channel %s has no archived videos and nothing queued\n", channelID)
			continue
		}

		result := ScanResult{ChannelID: channelID, Pending: len(hits)}
		if len(hits) >= opts.MaxPending {
			log.Emit(logger.INFO, "Channel %s has %d pending videos, skipping prioritization\n", channelID, len(hits))
			results = append(results, result)
			continue
		}

		for _, hit := range hits {
			if opts.DryRun {
				result.Prioritized++
				continue
			}
			if err := api.QueuePrioritize(ctx, hit.ID); err != nil {
				log.Emit(logger.WARNING, "Failed to prioritize video %s: %v\n", hit.ID, err)
				result.Failed = append(result.Failed, hit.ID)
				continue
			}
			result.Prioritized++
		}

		log.Emit(logger.SUCCESS, "Channel %s: prioritized %d of %d pending videos\n", channelID, result.Prioritized, result.Pending)
		results = append(results, result)
	}

	return results, nil
}
