package tubearch_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dot-mike/ta-scripts/internal/tubearch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T, handler http.HandlerFunc) *tubearch.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return tubearch.New(tubearch.Config{URL: srv.URL, Token: "test-token"})
}

func Test_VideoExists(t *testing.T) {
	t.Parallel()

	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Token test-token", r.Header.Get("Authorization"))

		switch r.URL.Path {
		case "/api/video/knownVideo1/":
			_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{"youtube_id": "knownVideo1"}})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	exists, err := client.VideoExists(context.Background(), "knownVideo1")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = client.VideoExists(context.Background(), "missingVid1")
	require.NoError(t, err)
	assert.False(t, exists)
}

func Test_QueueAdd_SkipsArchivedVideos(t *testing.T) {
	t.Parallel()

	var queued struct {
		Data []struct {
			YoutubeID string `json:"youtube_id"`
			Status    string `json:"status"`
		} `json:"data"`
	}

	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/video/knownVideo1/":
			_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{"youtube_id": "knownVideo1"}})
		case r.Method == http.MethodGet:
			w.WriteHeader(http.StatusNotFound)
		case r.Method == http.MethodPost && r.URL.Path == "/api/download/":
			assert.Equal(t, "true", r.URL.Query().Get("autostart"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&queued))
			w.WriteHeader(http.StatusOK)
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL)
		}
	})

	added, err := client.QueueAdd(context.Background(), []string{"knownVideo1", "freshVideo1"}, true)
	require.NoError(t, err)

	assert.Equal(t, []string{"freshVideo1"}, added)
	require.Len(t, queued.Data, 1)
	assert.Equal(t, "https://www.youtube.com/watch?v=freshVideo1", queued.Data[0].YoutubeID)
	assert.Equal(t, "pending", queued.Data[0].Status)
}

func Test_QueueAdd_AllArchived(t *testing.T) {
	t.Parallel()

	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{"youtube_id": "x"}})
	})

	added, err := client.QueueAdd(context.Background(), []string{"knownVideo1"}, true)
	require.NoError(t, err)
	assert.Empty(t, added)
}

func Test_Pending_FollowsPagination(t *testing.T) {
	t.Parallel()

	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "pending", r.URL.Query().Get("filter"))

		page := r.URL.Query().Get("page")
		switch page {
		case "1", "2":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"data":     []map[string]any{{"youtube_id": fmt.Sprintf("videoOnPg%s1", page), "status": "pending"}},
				"paginate": map[string]any{"last_page": 2, "current_page": page},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	items, err := client.Pending(context.Background(), "pending", "")
	require.NoError(t, err)

	require.Len(t, items, 2)
	assert.Equal(t, "videoOnPg11", items[0].YoutubeID)
	assert.Equal(t, "videoOnPg21", items[1].YoutubeID)
}

func Test_Pending_StopsOnNotFound(t *testing.T) {
	t.Parallel()

	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "1" {
			// pagination claims more pages than actually exist
			_ = json.NewEncoder(w).Encode(map[string]any{
				"data":     []map[string]any{{"youtube_id": "onlyVideo11", "status": "pending"}},
				"paginate": map[string]any{"last_page": 3, "current_page": 1},
			})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})

	items, err := client.Pending(context.Background(), "pending", "")
	require.NoError(t, err)
	require.Len(t, items, 1)
}

func Test_QueueStatus_NotQueued(t *testing.T) {
	t.Parallel()

	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.QueueStatus(context.Background(), "missingVid1")
	assert.ErrorIs(t, err, tubearch.ErrNotFound)
}

func Test_RequestError_CarriesAPIMessage(t *testing.T) {
	t.Parallel()

	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "invalid token"})
	})

	err := client.Refresh(context.Background(), []string{"someVideo11"})
	require.Error(t, err)

	var reqErr *tubearch.RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, http.StatusForbidden, reqErr.Status)
	assert.Equal(t, "invalid token", reqErr.Message)
}
