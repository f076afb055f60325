package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatchMerge_SendsOrderedURLsAndAuth(t *testing.T) {
	var got MergeRequest
	var auth, apiKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		auth = r.Header.Get("Authorization")
		apiKey = r.Header.Get("X-API-Key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	c := NewClient(server.URL, "secret", "key-1", 0)
	err := c.DispatchMerge(context.Background(), MergeRequest{
		BookID:           "book-1",
		ChapterAudioURLs: []string{"https://cdn/1.mp3", "https://cdn/2.mp3"},
		CallbackURL:      "https://studio/api/audio/merge/callback",
	})

	require.NoError(t, err)
	assert.Equal(t, "Bearer secret", auth)
	assert.Equal(t, "key-1", apiKey)
	assert.Equal(t, "book-1", got.BookID)
	assert.Equal(t, []string{"https://cdn/1.mp3", "https://cdn/2.mp3"}, got.ChapterAudioURLs)
}

func TestDispatchMerge_OmitsUnsetAuthHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		assert.Empty(t, r.Header.Get("X-API-Key"))
	}))
	defer server.Close()

	err := NewClient(server.URL, "", "", 0).DispatchMerge(context.Background(), MergeRequest{BookID: "b"})
	assert.NoError(t, err)
}

func TestDispatchMerge_Non2xxIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusInternalServerError)
	}))
	defer server.Close()

	err := NewClient(server.URL, "", "", 0).DispatchMerge(context.Background(), MergeRequest{BookID: "b"})
	require.ErrorIs(t, err, ErrWorkerUnavailable)
	assert.Contains(t, err.Error(), "overloaded")
}

func TestDispatchMerge_TransportErrorIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	err := NewClient(url, "", "", 0).DispatchMerge(context.Background(), MergeRequest{BookID: "b"})
	assert.ErrorIs(t, err, ErrWorkerUnavailable)
}
