package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"audiobook-studio/internal/audio"
	"audiobook-studio/internal/db"
	"audiobook-studio/internal/models"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type generateAudioRequest struct {
	VoiceID     string             `json:"voiceId"`
	VoiceName   string             `json:"voiceName"`
	Text        string             `json:"text"`
	BookID      string             `json:"bookId"`
	ChapterID   *string            `json:"chapterId"`
	ContentType models.ContentType `json:"contentType"`
	Language    string             `json:"language"`
}

func (req generateAudioRequest) validate() string {
	switch {
	case strings.TrimSpace(req.VoiceID) == "":
		return "voiceId is required"
	case strings.TrimSpace(req.Text) == "":
		return "text is required"
	case strings.TrimSpace(req.BookID) == "":
		return "bookId is required"
	case !req.ContentType.Valid():
		return "contentType must be INTRODUCTION, CHAPTER or FULL_BOOK"
	case req.ContentType == models.ContentTypeChapter && (req.ChapterID == nil || *req.ChapterID == ""):
		return "chapterId is required for CHAPTER audio"
	}
	return ""
}

type generateAudioResponse struct {
	JobID           string                 `json:"jobId"`
	AudioGeneration models.AudioGeneration `json:"audioGeneration"`
	Message         string                 `json:"message"`
}

func (h *Handlers) GenerateAudio(w http.ResponseWriter, r *http.Request) {
	var req generateAudioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	book, ok := ownedBook(w, r, req.BookID)
	if !ok {
		return
	}

	if req.ContentType == models.ContentTypeChapter {
		chapter, err := db.GetChapterByID(r.Context(), *req.ChapterID)
		if errors.Is(err, sql.ErrNoRows) || (err == nil && chapter.BookID != book.ID) {
			writeError(w, http.StatusNotFound, "Chapter not found")
			return
		}
		if err != nil {
			log.WithField("book_id", book.ID).Errorf("Error loading chapter: %v", err)
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
	}

	if h.providerErr != nil {
		log.Errorf("Audio generation requested but no provider is available: %v", h.providerErr)
		writeError(w, http.StatusInternalServerError, "Voice provider is not configured")
		return
	}

	job, gen, err := h.requester.Request(r.Context(), audio.GenerateRequest{
		VoiceID:     req.VoiceID,
		VoiceName:   req.VoiceName,
		Text:        req.Text,
		BookID:      book.ID,
		ChapterID:   req.ChapterID,
		ContentType: req.ContentType,
		Language:    req.Language,
	})
	if err != nil {
		log.WithField("book_id", book.ID).Errorf("Error requesting audio generation: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to start audio generation")
		return
	}

	writeJSON(w, http.StatusOK, generateAudioResponse{
		JobID:           job.JobID,
		AudioGeneration: gen,
		Message:         "Audio generation started",
	})
}

func (h *Handlers) ListBookAudio(w http.ResponseWriter, r *http.Request) {
	book, ok := ownedBook(w, r, mux.Vars(r)["bookId"])
	if !ok {
		return
	}

	gens, err := db.GetAudioGenerationsByBookID(r.Context(), book.ID)
	if err != nil {
		log.WithField("book_id", book.ID).Errorf("Error listing audio generations: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if gens == nil {
		gens = []models.AudioGeneration{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"audioGenerations": gens})
}

func (h *Handlers) GetAudioJob(w http.ResponseWriter, r *http.Request) {
	job, err := db.GetAudioJobByJobID(r.Context(), mux.Vars(r)["jobId"])
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "Job not found")
		return
	}
	if err != nil {
		log.Errorf("Error loading audio job: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if _, ok := ownedBook(w, r, job.BookID); !ok {
		return
	}

	writeJSON(w, http.StatusOK, job)
}
