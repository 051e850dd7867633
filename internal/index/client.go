// Package index provides direct access to the Elasticsearch indices
// backing a TubeArchivist installation. Queries the TubeArchivist API
// does not expose (scrolled exports, aggregations, bulk deletes) go
// through here.
package index

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/dot-mike/ta-scripts/pkg/logger"
	elasticsearch "github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/mitchellh/mapstructure"
)

var log = logger.Get("Index")

// Index names used by TubeArchivist.
const (
	VideoIndex    = "ta_video"
	DownloadIndex = "ta_download"
	ChannelIndex  = "ta_channel"
	SubtitleIndex = "ta_subtitle"
	CommentIndex  = "ta_comment"
	PlaylistIndex = "ta_playlist"
)

const (
	scrollKeepAlive = 2 * time.Minute
	scrollPageSize  = 1000
)

type Config struct {
	Host     string
	User     string
	Password string
}

type Store struct {
	es *elasticsearch.Client
}

func New(config Config) (*Store, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{config.Host},
		Username:  config.User,
		Password:  config.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to construct elasticsearch client: %w", err)
	}

	return &Store{es: es}, nil
}

type (
	Hit struct {
		ID     string          `json:"_id"`
		Source json.RawMessage `json:"_source"`
	}

	Result struct {
		Total int
		Hits  []Hit
	}

	// Bucket is a single entry of a terms aggregation.
	Bucket struct {
		Key      string `mapstructure:"key"`
		DocCount int    `mapstructure:"doc_count"`
	}

	searchResponse struct {
		ScrollID string `json:"_scroll_id"`
		Hits     struct {
			Total struct {
				Value int `json:"value"`
			} `json:"total"`
			Hits []Hit `json:"hits"`
		} `json:"hits"`
		Aggregations map[string]json.RawMessage `json:"aggregations"`
	}
)

// DecodeSource unmarshals the hit's _source document in to target.
func (hit Hit) DecodeSource(target interface{}) error {
	if err := json.Unmarshal(hit.Source, target); err != nil {
		return fmt.Errorf("failed to decode document %s: %w", hit.ID, err)
	}

	return nil
}

// Search runs a single (non-scrolled) search against the index.
func (store *Store) Search(ctx context.Context, index string, body map[string]interface{}) (*Result, error) {
	response, err := store.search(ctx, index, body, 0)
	if err != nil {
		return nil, err
	}

	return &Result{Total: response.Hits.Total.Value, Hits: response.Hits.Hits}, nil
}

// ScrollAll walks every hit matching the query, invoking visit for each.
// The query body should not set a size; scroll pages are sized internally.
func (store *Store) ScrollAll(ctx context.Context, index string, body map[string]interface{}, visit func(Hit) error) error {
	body["size"] = scrollPageSize

	response, err := store.search(ctx, index, body, scrollKeepAlive)
	if err != nil {
		return err
	}

	scrollID := response.ScrollID
	defer store.clearScroll(scrollID)

	hits := response.Hits.Hits
	for len(hits) > 0 {
		for _, hit := range hits {
			if err := visit(hit); err != nil {
				return err
			}
		}

		res, err := store.es.Scroll(
			store.es.Scroll.WithContext(ctx),
			store.es.Scroll.WithScrollID(scrollID),
			store.es.Scroll.WithScroll(scrollKeepAlive),
		)
		if err != nil {
			return fmt.Errorf("scroll request failed: %w", err)
		}

		var page searchResponse
		if err := decodeResponse(res.Body, res.IsError(), res.Status(), &page); err != nil {
			return err
		}

		scrollID = page.ScrollID
		hits = page.Hits.Hits
	}

	return nil
}

// TermsAgg runs the query and decodes the named terms aggregation's
// buckets.
func (store *Store) TermsAgg(ctx context.Context, index string, body map[string]interface{}, aggName string) ([]Bucket, error) {
	response, err := store.search(ctx, index, body, 0)
	if err != nil {
		return nil, err
	}

	raw, ok := response.Aggregations[aggName]
	if !ok {
		return nil, fmt.Errorf("response is missing aggregation %q", aggName)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("failed to decode aggregation %q: %w", aggName, err)
	}

	var agg struct {
		Buckets []Bucket `mapstructure:"buckets"`
	}
	if err := mapstructure.WeakDecode(decoded, &agg); err != nil {
		return nil, fmt.Errorf("failed to decode aggregation buckets: %w", err)
	}

	return agg.Buckets, nil
}

// DeleteByIDs bulk-deletes the given document IDs from the index,
// returning the count of deletions that succeeded and the IDs that failed.
func (store *Store) DeleteByIDs(ctx context.Context, index string, ids []string) (int, []string, error) {
	if len(ids) == 0 {
		return 0, nil, nil
	}

	var buf bytes.Buffer
	for _, id := range ids {
		action := map[string]map[string]string{"delete": {"_index": index, "_id": id}}
		if err := json.NewEncoder(&buf).Encode(action); err != nil {
			return 0, nil, fmt.Errorf("failed to encode bulk action: %w", err)
		}
	}

	res, err := store.es.Bulk(bytes.NewReader(buf.Bytes()), store.es.Bulk.WithContext(ctx))
	if err != nil {
		return 0, nil, fmt.Errorf("bulk delete failed: %w", err)
	}

	var response struct {
		Errors bool `json:"errors"`
		Items  []struct {
			Delete struct {
				ID     string `json:"_id"`
				Status int    `json:"status"`
			} `json:"delete"`
		} `json:"items"`
	}
	if err := decodeResponse(res.Body, res.IsError(), res.Status(), &response); err != nil {
		return 0, nil, err
	}

	succeeded := 0
	failed := make([]string, 0)
	for _, item := range response.Items {
		if item.Delete.Status >= 200 && item.Delete.Status < 300 {
			succeeded++
		} else {
			failed = append(failed, item.Delete.ID)
		}
	}

	return succeeded, failed, nil
}

// ExistingIDs returns the subset of the given youtube IDs that already
// have a document in the index.
func (store *Store) ExistingIDs(ctx context.Context, index string, ids []string) (map[string]struct{}, error) {
	body := map[string]interface{}{
		"query":   map[string]interface{}{"terms": map[string]interface{}{"youtube_id": ids}},
		"_source": []string{"youtube_id"},
	}

	return store.collectIDs(ctx, index, body)
}

// AllIDs returns every youtube ID present in the index.
func (store *Store) AllIDs(ctx context.Context, index string) (map[string]struct{}, error) {
	body := map[string]interface{}{
		"query":   map[string]interface{}{"match_all": map[string]interface{}{}},
		"_source": []string{"youtube_id"},
	}

	return store.collectIDs(ctx, index, body)
}

func (store *Store) collectIDs(ctx context.Context, index string, body map[string]interface{}) (map[string]struct{}, error) {
	found := make(map[string]struct{})
	err := store.ScrollAll(ctx, index, body, func(hit Hit) error {
		var source struct {
			YoutubeID string `json:"youtube_id"`
		}
		if err := hit.DecodeSource(&source); err != nil {
			return err
		}
		if source.YoutubeID != "" {
			found[source.YoutubeID] = struct{}{}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return found, nil
}

func (store *Store) search(ctx context.Context, index string, body map[string]interface{}, scroll time.Duration) (*searchResponse, error) {
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode query body: %w", err)
	}
	log.Emit(logger.VERBOSE, "Query against %s: %s\n", index, encoded)

	options := []func(*esapi.SearchRequest){
		store.es.Search.WithContext(ctx),
		store.es.Search.WithIndex(index),
		store.es.Search.WithBody(bytes.NewReader(encoded)),
	}
	if scroll > 0 {
		options = append(options, store.es.Search.WithScroll(scroll))
	}

	res, err := store.es.Search(options...)
	if err != nil {
		return nil, fmt.Errorf("search against %s failed: %w", index, err)
	}

	var response searchResponse
	if err := decodeResponse(res.Body, res.IsError(), res.Status(), &response); err != nil {
		return nil, err
	}

	return &response, nil
}

func (store *Store) clearScroll(scrollID string) {
	if scrollID == "" {
		return
	}

	res, err := store.es.ClearScroll(store.es.ClearScroll.WithScrollID(scrollID))
	if err != nil {
		log.Emit(logger.WARNING, "Failed to clear scroll context: %v\n", err)
		return
	}
	res.Body.Close()
}

func decodeResponse(body io.ReadCloser, isError bool, status string, target interface{}) error {
	defer body.Close()

	raw, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("failed to read elasticsearch response: %w", err)
	}
	if isError {
		return fmt.Errorf("elasticsearch answered %s: %s", status, raw)
	}

	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("failed to decode elasticsearch response: %w", err)
	}

	return nil
}
