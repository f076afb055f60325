package handlers

import (
	"database/sql"
	"errors"
	"net/http"

	"audiobook-studio/internal/audio"
	"audiobook-studio/internal/db"
	"audiobook-studio/internal/feed"
	"audiobook-studio/internal/models"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

func (h *Handlers) GetBookFeed(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["feedToken"]
	if _, err := uuid.Parse(token); err != nil {
		http.Error(w, "Feed not found", http.StatusNotFound)
		return
	}

	book, err := db.GetBookByFeedToken(r.Context(), token)
	if errors.Is(err, sql.ErrNoRows) {
		http.Error(w, "Feed not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("Error loading book for feed: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	chapters, err := db.GetCompletedChapterAudio(r.Context(), book.ID)
	if err != nil {
		log.WithField("book_id", book.ID).Errorf("Error getting chapter audio: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	audio.SortChapterAudio(chapters)

	var fullBook *models.AudioGeneration
	gen, err := db.GetAudioGenerationForSlot(r.Context(), book.ID, nil, models.ContentTypeFullBook)
	switch {
	case err == nil:
		fullBook = &gen
	case !errors.Is(err, sql.ErrNoRows):
		log.WithField("book_id", book.ID).Errorf("Error getting full book audio: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	rss, err := feed.GenerateBookFeed(book, chapters, fullBook, h.baseURL)
	if err != nil {
		log.WithField("book_id", book.ID).Errorf("Error generating RSS: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/rss+xml")
	w.Header().Set("Last-Modified", feed.Updated(book, chapters, fullBook).UTC().Format(http.TimeFormat))
	w.Write([]byte(rss))
}
