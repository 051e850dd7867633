// Package queue implements maintenance over the TubeArchivist download
// queue: duplicate cleanup and summary statistics of queued items.
package queue

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/dot-mike/ta-scripts/internal/index"
	"github.com/dot-mike/ta-scripts/internal/tubearch"
)

// Stats summarises a set of queue items.
type Stats struct {
	TotalVideos       int            `json:"total_videos"`
	Statuses          map[string]int `json:"statuses"`
	Channels          map[string]int `json:"channels"`
	PublicationByYear map[string]int `json:"publication_by_year"`
	ErrorStats        ErrorStats     `json:"error_stats"`
	CommonErrors      map[string]int `json:"common_errors"`
	ThumbnailStats    ThumbnailStats `json:"thumbnail_stats"`
	LengthBuckets     LengthBuckets  `json:"video_length_distribution"`
}

type ErrorStats struct {
	ErrorFree  int `json:"error_free"`
	WithErrors int `json:"with_errors"`
}

type ThumbnailStats struct {
	WithThumbnails    int `json:"with_thumbnails"`
	WithoutThumbnails int `json:"without_thumbnails"`
}

type LengthBuckets struct {
	Short  int `json:"short"`  // under 5 minutes
	Medium int `json:"medium"` // 5 to 30 minutes
	Long   int `json:"long"`   // over 30 minutes
}

const topChannelCount = 5

// Summarize computes summary statistics over the given queue items.
func Summarize(items []tubearch.QueueItem) Stats {
	stats := Stats{
		TotalVideos:       len(items),
		Statuses:          make(map[string]int),
		PublicationByYear: make(map[string]int),
		CommonErrors:      make(map[string]int),
	}

	channels := make(map[string]int)
	for _, item := range items {
		stats.Statuses[item.Status]++

		name := item.ChannelName
		if name == "" {
			name = "Unknown"
		}
		channels[name]++

		if len(item.Published) >= 4 {
			stats.PublicationByYear[item.Published[:4]]++
		}

		if item.Message == "" {
			stats.ErrorStats.ErrorFree++
		} else {
			stats.ErrorStats.WithErrors++
			for category, phrase := range index.ErrorMessageFilters {
				if strings.Contains(item.Message, phrase) {
					stats.CommonErrors[category]++
				}
			}
		}

		if item.VidThumbURL != "" {
			stats.ThumbnailStats.WithThumbnails++
		} else {
			stats.ThumbnailStats.WithoutThumbnails++
		}

		if item.Duration != "" {
			switch seconds := ParseDuration(item.Duration); {
			case seconds < 300:
				stats.LengthBuckets.Short++
			case seconds <= 1800:
				stats.LengthBuckets.Medium++
			default:
				stats.LengthBuckets.Long++
			}
		}
	}

	stats.Channels = topChannels(channels, topChannelCount)

	return stats
}

var durationMatcher = regexp.MustCompile(`^(?:(\d+)h)?\s*(?:(\d+)m)?\s*(?:(\d+)s)?$`)

// ParseDuration converts a human duration string like "1h 15m 32s" in to
// total seconds. Unparseable input yields zero.
func ParseDuration(duration string) int {
	groups := durationMatcher.FindStringSubmatch(strings.TrimSpace(duration))
	if groups == nil {
		return 0
	}

	total := 0
	for i, multiplier := range []int{3600, 60, 1} {
		if groups[i+1] == "" {
			continue
		}
		value, err := strconv.Atoi(groups[i+1])
		if err != nil {
			return 0
		}
		total += value * multiplier
	}

	return total
}

// topChannels keeps only the n channels with the most queued items.
func topChannels(counts map[string]int, n int) map[string]int {
	type entry struct {
		name  string
		count int
	}

	entries := make([]entry, 0, len(counts))
	for name, count := range counts {
		entries = append(entries, entry{name, count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].name < entries[j].name
	})

	if len(entries) > n {
		entries = entries[:n]
	}

	top := make(map[string]int, len(entries))
	for _, e := range entries {
		top[e.name] = e.count
	}

	return top
}
