package tubearch

import "encoding/json"

type (
	Video struct {
		YoutubeID    string       `json:"youtube_id"`
		Title        string       `json:"title"`
		Published    string       `json:"published"`
		VidType      string       `json:"vid_type"`
		Active       bool         `json:"active"`
		Channel      VideoChannel `json:"channel"`
		Stats        VideoStats   `json:"stats"`
		CommentCount *int         `json:"comment_count,omitempty"`
	}

	VideoChannel struct {
		ChannelID   string `json:"channel_id"`
		ChannelName string `json:"channel_name"`
	}

	VideoStats struct {
		ViewCount json.Number `json:"view_count"`
		LikeCount json.Number `json:"like_count"`
	}

	QueueItem struct {
		YoutubeID   string `json:"youtube_id"`
		Title       string `json:"title"`
		ChannelID   string `json:"channel_id"`
		ChannelName string `json:"channel_name"`
		Status      string `json:"status"`
		Duration    string `json:"duration"`
		Published   string `json:"published"`
		VidType     string `json:"vid_type"`
		VidThumbURL string `json:"vid_thumb_url,omitempty"`
		Message     string `json:"message,omitempty"`
		AutoStart   bool   `json:"auto_start"`
		Timestamp   int64  `json:"timestamp"`
	}

	downloadPage struct {
		Data     []QueueItem `json:"data"`
		Paginate struct {
			LastPage    int `json:"last_page"`
			CurrentPage int `json:"current_page"`
		} `json:"paginate"`
	}

	apiError struct {
		Message string `json:"message"`
	}
)
