package index

import (
	"strconv"
	"time"
)

// VideoQuery describes a filtered search against the ta_video index.
// Zero values mean "no filter".
type VideoQuery struct {
	Active          *bool
	VidType         string
	PublishedAfter  *time.Time
	PublishedBefore *time.Time
	// TubeArchivist stores the download date as epoch seconds in
	// date_downloaded.
	DownloadedAfter  *time.Time
	DownloadedBefore *time.Time
	ChannelID        string
	MinViews         *int
	MaxViews         *int
	MinLikes         *int
	MaxLikes         *int

	// IDs restricts results to the given youtube IDs.
	IDs []string

	// WithoutComments matches videos whose comments were never fetched.
	WithoutComments bool

	// TitleSearch matches the search-as-you-type subfields of title.
	TitleSearch string

	// MaxResults caps the result size; defaults to 10000.
	MaxResults int
}

// Body renders the query as an Elasticsearch request body.
func (q VideoQuery) Body() map[string]interface{} {
	must := make([]interface{}, 0)
	mustNot := make([]interface{}, 0)
	filter := make([]interface{}, 0)

	if q.Active != nil {
		must = append(must, term("active", *q.Active))
	}
	if q.VidType != "" {
		must = append(must, term("vid_type", q.VidType))
	}
	if q.ChannelID != "" {
		must = append(must, term("channel.channel_id", q.ChannelID))
	}
	if len(q.IDs) > 0 {
		must = append(must, map[string]interface{}{"terms": map[string]interface{}{"youtube_id": q.IDs}})
	}
	if q.TitleSearch != "" {
		must = append(must, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  q.TitleSearch,
				"fields": []string{"title._2gram", "title._3gram", "title.search_as_you_type"},
			},
		})
	}
	if q.WithoutComments {
		mustNot = append(mustNot,
			map[string]interface{}{"exists": map[string]interface{}{"field": "comment_count"}},
			rangeQuery("comment_count", map[string]interface{}{"gt": 0}),
		)
	}

	if q.PublishedAfter != nil || q.PublishedBefore != nil {
		filter = append(filter, epochRange("published", q.PublishedAfter, q.PublishedBefore))
	}
	if q.DownloadedAfter != nil || q.DownloadedBefore != nil {
		filter = append(filter, epochRange("date_downloaded", q.DownloadedAfter, q.DownloadedBefore))
	}
	if q.MinViews != nil || q.MaxViews != nil {
		filter = append(filter, intRange("stats.view_count", q.MinViews, q.MaxViews))
	}
	if q.MinLikes != nil || q.MaxLikes != nil {
		filter = append(filter, intRange("stats.like_count", q.MinLikes, q.MaxLikes))
	}

	size := q.MaxResults
	if size <= 0 {
		size = 10000
	}

	return map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must":     must,
				"must_not": mustNot,
				"filter":   filter,
			},
		},
		"sort": []interface{}{
			map[string]interface{}{"published": map[string]interface{}{"order": "desc"}},
		},
		"size": size,
	}
}

func term(field string, value interface{}) map[string]interface{} {
	return map[string]interface{}{"term": map[string]interface{}{field: map[string]interface{}{"value": value}}}
}

func rangeQuery(field string, bounds map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{"range": map[string]interface{}{field: bounds}}
}

func epochRange(field string, after *time.Time, before *time.Time) map[string]interface{} {
	bounds := map[string]interface{}{"format": "epoch_second"}
	if after != nil {
		bounds["gte"] = strconv.FormatInt(after.Unix(), 10)
	}
	if before != nil {
		bounds["lte"] = strconv.FormatInt(before.Unix(), 10)
	}

	return rangeQuery(field, bounds)
}

func intRange(field string, min *int, max *int) map[string]interface{} {
	bounds := map[string]interface{}{}
	if min != nil {
		bounds["gte"] = *min
	}
	if max != nil {
		bounds["lte"] = *max
	}

	return rangeQuery(field, bounds)
}
