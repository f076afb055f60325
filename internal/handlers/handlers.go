package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"audiobook-studio/internal/audio"
	"audiobook-studio/internal/db"
	"audiobook-studio/internal/models"

	log "github.com/sirupsen/logrus"
)

// GenerationRequester accepts audio generation requests.
type GenerationRequester interface {
	Request(ctx context.Context, req audio.GenerateRequest) (models.AudioJob, models.AudioGeneration, error)
}

// BookMerger produces the full-book audio for a book.
type BookMerger interface {
	Merge(ctx context.Context, bookID string) (audio.MergeResult, error)
}

type Handlers struct {
	requester     GenerationRequester
	merger        BookMerger
	providerErr   error
	callbackToken string
	baseURL       string
}

// New wires the HTTP handlers. providerErr is the result of building the
// TTS provider at startup; while it is set, generation requests fail.
func New(requester GenerationRequester, merger BookMerger, providerErr error, callbackToken, baseURL string) *Handlers {
	return &Handlers{
		requester:     requester,
		merger:        merger,
		providerErr:   providerErr,
		callbackToken: callbackToken,
		baseURL:       baseURL,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// ownedBook loads the book and checks it belongs to the authenticated user.
// It writes the error response itself and reports whether to continue.
func ownedBook(w http.ResponseWriter, r *http.Request, bookID string) (models.Book, bool) {
	user, ok := r.Context().Value(models.UserContextKey).(*models.User)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return models.Book{}, false
	}

	book, err := db.GetBookByID(r.Context(), bookID)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "Book not found")
		return models.Book{}, false
	}
	if err != nil {
		log.WithField("book_id", bookID).Errorf("Error loading book: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return models.Book{}, false
	}
	if book.UserID != user.ID {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return models.Book{}, false
	}
	return book, true
}
