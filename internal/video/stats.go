package video

import (
	"sort"

	"github.com/dot-mike/ta-scripts/internal/tubearch"
)

// Stats summarises a set of archived videos.
type Stats struct {
	TotalVideos    int            `json:"total_videos"`
	ActiveVideos   int            `json:"active_videos"`
	InactiveVideos int            `json:"inactive_videos"`
	TotalViews     int64          `json:"total_views"`
	TotalLikes     int64          `json:"total_likes"`
	AverageViews   float64        `json:"average_views"`
	AverageLikes   float64        `json:"average_likes"`
	VideosByType   map[string]int `json:"videos_by_type"`
	Channels       []ChannelCount `json:"channels"`
}

type ChannelCount struct {
	ID    string `json:"id"`
	Name  string `json:"text"`
	Count int    `json:"count"`
}

// Summarize computes totals, averages and per-channel counts for the
// given videos.
func Summarize(videos []tubearch.Video) Stats {
	stats := Stats{
		TotalVideos:  len(videos),
		VideosByType: make(map[string]int),
	}
	if len(videos) == 0 {
		return stats
	}

	channels := make(map[string]*ChannelCount)
	for _, v := range videos {
		if v.Active {
			stats.ActiveVideos++
		} else {
			stats.InactiveVideos++
		}

		if views, err := v.Stats.ViewCount.Int64(); err == nil {
			stats.TotalViews += views
		}
		if likes, err := v.Stats.LikeCount.Int64(); err == nil {
			stats.TotalLikes += likes
		}

		vidType := v.VidType
		if vidType == "" {
			vidType = "unknown"
		}
		stats.VideosByType[vidType]++

		id := v.Channel.ChannelID
		if id == "" {
			id = "unknown"
		}
		if entry, exists := channels[id]; exists {
			entry.Count++
		} else {
			channels[id] = &ChannelCount{ID: id, Name: v.Channel.ChannelName, Count: 1}
		}
	}

	stats.AverageViews = float64(stats.TotalViews) / float64(len(videos))
	stats.AverageLikes = float64(stats.TotalLikes) / float64(len(videos))

	stats.Channels = make([]ChannelCount, 0, len(channels))
	for _, entry := range channels {
		stats.Channels = append(stats.Channels, *entry)
	}
	sort.Slice(stats.Channels, func(i, j int) bool {
		if stats.Channels[i].Count != stats.Channels[j].Count {
			return stats.Channels[i].Count > stats.Channels[j].Count
		}
		return stats.Channels[i].ID < stats.Channels[j].ID
	})

	return stats
}
