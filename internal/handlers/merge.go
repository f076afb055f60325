package handlers

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"

	"audiobook-studio/internal/audio"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

func (h *Handlers) MergeBookAudio(w http.ResponseWriter, r *http.Request) {
	book, ok := ownedBook(w, r, mux.Vars(r)["bookId"])
	if !ok {
		return
	}

	result, err := h.merger.Merge(r.Context(), book.ID)
	switch {
	case errors.Is(err, audio.ErrNoAudioToMerge):
		writeError(w, http.StatusBadRequest, "No completed chapter audio to merge")
		return
	case err != nil:
		log.WithField("book_id", book.ID).Errorf("Merge failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to merge audio")
		return
	}

	if result.Queued {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "queued": true})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "audioUrl": result.AudioURL})
}

func (h *Handlers) MergeCallback(w http.ResponseWriter, r *http.Request) {
	if h.callbackToken != "" {
		token := r.URL.Query().Get("token")
		if subtle.ConstantTimeCompare([]byte(token), []byte(h.callbackToken)) != 1 {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
	}

	var payload audio.CallbackPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid callback payload")
		return
	}

	err := audio.HandleMergeCallback(r.Context(), payload)
	switch {
	case errors.Is(err, audio.ErrMalformedCallback):
		writeError(w, http.StatusBadRequest, "Callback requires audioUrl or error")
		return
	case err != nil:
		log.WithField("book_id", payload.BookID).Errorf("Error handling merge callback: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
