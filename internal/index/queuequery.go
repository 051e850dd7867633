package index

import (
	"fmt"
	"sort"
	"time"
)

// ErrorMessageFilters maps a short category name to the yt-dlp error
// message TubeArchivist records on failed queue items. The phrases are
// matched with match_phrase against the message field.
var ErrorMessageFilters = map[string]string{
	"player_response_error": "Failed to extract any player response",
	"age_restriction":       "Sign in to confirm your age",
	"ip_blocked":            "All player responses are invalid. Your IP is likely being blocked by Youtube",
	"hate_speech":           "This video has been removed for violating YouTube's policy on hate speech.",
	"video_unavailable":     "Video unavailable",
	"account_terminated":    "This video is no longer available because the YouTube account associated with this video has been terminated.",
	"private_video":         "Private video. Sign in if you've been granted access to this video",
	"copyright_claim":       "Video unavailable. This video is no longer available due to a copyright claim",
	"bot_protection":        "Sign in to confirm you’re not a bot",
}

// ErrorFilterNames returns the known category names, sorted for stable
// CLI help output.
func ErrorFilterNames() []string {
	names := make([]string, 0, len(ErrorMessageFilters))
	for name := range ErrorMessageFilters {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// QueueQuery describes a filtered search against the ta_download index.
type QueueQuery struct {
	// Status filters on the queue status, "pending" or "ignore".
	Status string

	// TitleContains is a full-text match against the item title.
	TitleContains string

	// NoErrors matches items that carry no error message.
	NoErrors bool

	// MessageFilters selects items whose error message matches any of
	// the named ErrorMessageFilters categories.
	MessageFilters []string

	// QueuedAfter/QueuedBefore bound the time the item entered the
	// queue (the timestamp field).
	QueuedAfter  *time.Time
	QueuedBefore *time.Time

	VidType string
}

// Body renders the query as an Elasticsearch request body. Unknown
// message filter categories are rejected.
func (q QueueQuery) Body() (map[string]interface{}, error) {
	must := make([]interface{}, 0)
	should := make([]interface{}, 0)

	if q.Status != "" {
		must = append(must, term("status", q.Status))
	}
	if q.TitleContains != "" {
		must = append(must, map[string]interface{}{
			"match": map[string]interface{}{"title": q.TitleContains},
		})
	}
	if q.NoErrors {
		must = append(must, map[string]interface{}{
			"bool": map[string]interface{}{
				"must_not": map[string]interface{}{"exists": map[string]interface{}{"field": "message"}},
			},
		})
	}
	if q.VidType != "" {
		must = append(must, term("vid_type", q.VidType))
	}
	if q.QueuedAfter != nil || q.QueuedBefore != nil {
		must = append(must, epochRange("timestamp", q.QueuedAfter, q.QueuedBefore))
	}

	for _, name := range q.MessageFilters {
		phrase, known := ErrorMessageFilters[name]
		if !known {
			return nil, fmt.Errorf("unknown error message filter %q", name)
		}
		should = append(should, map[string]interface{}{
			"match_phrase": map[string]interface{}{"message": map[string]interface{}{"query": phrase}},
		})
	}

	minimumShouldMatch := 0
	if len(should) > 0 {
		minimumShouldMatch = 1
	}

	return map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must":                 must,
				"should":               should,
				"minimum_should_match": minimumShouldMatch,
			},
		},
		"sort": []interface{}{
			map[string]interface{}{"auto_start": map[string]interface{}{"order": "desc"}},
			map[string]interface{}{"timestamp": map[string]interface{}{"order": "asc"}},
		},
	}, nil
}
