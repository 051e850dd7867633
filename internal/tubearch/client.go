// Package tubearch implements a client for the TubeArchivist HTTP API.
// Only the endpoints the toolkit needs are covered: video lookups, the
// download queue, and metadata refresh.
package tubearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dot-mike/ta-scripts/pkg/logger"
)

var log = logger.Get("TAClient")

const watchURLPrefix = "https://www.youtube.com/watch?v="

type Config struct {
	// Base URL of the TubeArchivist installation, without trailing
	// slash (e.g. http://ta.local:8000).
	URL string

	// API token, sent as 'Authorization: Token <token>'.
	Token string

	// Pause between mutating queue calls. TubeArchivist extracts
	// metadata synchronously on some endpoints and rate limits bursts.
	Throttle time.Duration
}

type Client struct {
	config Config
	http   *http.Client
}

func New(config Config) *Client {
	return &Client{
		config: config,
		http:   &http.Client{Timeout: 2 * time.Minute},
	}
}

// Video fetches the archived video document for the given ID.
func (client *Client) Video(ctx context.Context, videoID string) (*Video, error) {
	var payload struct {
		Data Video `json:"data"`
	}
	if err := client.getJSON(ctx, fmt.Sprintf("/api/video/%s/", videoID), &payload); err != nil {
		return nil, err
	}

	return &payload.Data, nil
}

// VideoExists reports whether the video is already archived. A 404 is
// not an error here, only a negative answer.
func (client *Client) VideoExists(ctx context.Context, videoID string) (bool, error) {
	_, err := client.Video(ctx, videoID)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}

	return false, err
}

// QueueAdd posts the given video IDs to the download queue. IDs that are
// already archived are filtered out first; the returned slice holds the
// IDs that were actually submitted.
func (client *Client) QueueAdd(ctx context.Context, videoIDs []string, autostart bool) ([]string, error) {
	fresh := make([]string, 0, len(videoIDs))
	for _, id := range videoIDs {
		exists, err := client.VideoExists(ctx, id)
		if err != nil {
			return nil, err
		}
		if exists {
			log.Emit(logger.DEBUG, "Video %s already archived, skipping\n", id)
			continue
		}
		fresh = append(fresh, id)
	}

	if len(fresh) == 0 {
		return nil, nil
	}

	type entry struct {
		YoutubeID string `json:"youtube_id"`
		Status    string `json:"status"`
	}
	payload := struct {
		Data []entry `json:"data"`
	}{Data: make([]entry, 0, len(fresh))}
	for _, id := range fresh {
		payload.Data = append(payload.Data, entry{YoutubeID: watchURLPrefix + id, Status: "pending"})
	}

	path := "/api/download/"
	if autostart {
		path += "?autostart=true"
	}
	if err := client.sendJSON(ctx, http.MethodPost, path, payload, nil); err != nil {
		return nil, err
	}

	return fresh, nil
}

// QueueRemove deletes a single video from the download queue.
func (client *Client) QueueRemove(ctx context.Context, videoID string) error {
	defer client.throttle(ctx)
	return client.sendJSON(ctx, http.MethodDelete, fmt.Sprintf("/api/download/%s/", videoID), nil, nil)
}

// QueuePrioritize moves a queued video to the front of the queue.
func (client *Client) QueuePrioritize(ctx context.Context, videoID string) error {
	defer client.throttle(ctx)
	payload := map[string]string{"status": "priority"}
	return client.sendJSON(ctx, http.MethodPost, fmt.Sprintf("/api/download/%s/", videoID), payload, nil)
}

// QueueStatus fetches the queue document for a video. ErrNotFound means
// the video is not queued.
func (client *Client) QueueStatus(ctx context.Context, videoID string) (*QueueItem, error) {
	var payload struct {
		Data QueueItem `json:"data"`
	}
	if err := client.getJSON(ctx, fmt.Sprintf("/api/download/%s/", videoID), &payload); err != nil {
		return nil, err
	}

	return &payload.Data, nil
}

// Pending walks the paginated download queue listing, returning every
// item matching the filter ("pending" or "ignore") and optional channel.
func (client *Client) Pending(ctx context.Context, filter string, channelID string) ([]QueueItem, error) {
	items := make([]QueueItem, 0)

	for page := 1; ; page++ {
		path := fmt.Sprintf("/api/download/?filter=%s&page=%d", filter, page)
		if channelID != "" {
			path += "&channel=" + channelID
		}

		var payload downloadPage
		if err := client.getJSON(ctx, path, &payload); err != nil {
			// The API answers 404 once pagination runs past the
			// last page.
			if errors.Is(err, ErrNotFound) {
				break
			}
			return nil, err
		}

		items = append(items, payload.Data...)
		log.Emit(logger.DEBUG, "Fetched %d queue items on page %d\n", len(payload.Data), page)

		if payload.Paginate.LastPage == 0 || page >= payload.Paginate.LastPage {
			break
		}
	}

	return items, nil
}

// Refresh schedules the given videos for a metadata reindex.
func (client *Client) Refresh(ctx context.Context, videoIDs []string) error {
	payload := map[string][]string{"video": videoIDs}
	return client.sendJSON(ctx, http.MethodPost, "/api/refresh/", payload, nil)
}

func (client *Client) throttle(ctx context.Context) {
	if client.config.Throttle <= 0 {
		return
	}

	select {
	case <-time.After(client.config.Throttle):
	case <-ctx.Done():
	}
}

func (client *Client) getJSON(ctx context.Context, path string, target interface{}) error {
	return client.sendJSON(ctx, http.MethodGet, path, nil, target)
}

// sendJSON performs a single authenticated request against the API,
// decoding the response body in to target when one is provided.
func (client *Client) sendJSON(ctx context.Context, method string, path string, body interface{}, target interface{}) error {
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return &UnknownRequestError{fmt.Sprintf("request payload could not be marshalled: %s", err.Error())}
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, client.config.URL+path, reqBody)
	if err != nil {
		return &UnknownRequestError{fmt.Sprintf("failed to build %s request for %s: %s", method, path, err.Error())}
	}
	req.Header.Set("Authorization", "Token "+client.config.Token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.http.Do(req)
	if err != nil {
		return &UnknownRequestError{fmt.Sprintf("failed to perform %s(%s): %s", method, path, err.Error())}
	}
	defer resp.Body.Close()

	respBody, readErr := io.ReadAll(resp.Body)

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr apiError
		if err := json.Unmarshal(respBody, &apiErr); err != nil || apiErr.Message == "" {
			return &RequestError{Status: resp.StatusCode, Message: "non-OK response could not be unmarshalled"}
		}
		return &RequestError{Status: resp.StatusCode, Message: apiErr.Message}
	}

	if readErr != nil {
		return &UnknownRequestError{fmt.Sprintf("failed to read response body: %s", readErr.Error())}
	}

	if target != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, target); err != nil {
			return &UnknownRequestError{fmt.Sprintf("response JSON could not be unmarshalled: %s", err.Error())}
		}
	}

	return nil
}
