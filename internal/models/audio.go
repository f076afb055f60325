package models

import "time"

// AudioStatus is the lifecycle state shared by audio jobs and generations.
type AudioStatus string

const (
	AudioStatusPending    AudioStatus = "PENDING"
	AudioStatusProcessing AudioStatus = "PROCESSING"
	AudioStatusCompleted  AudioStatus = "COMPLETED"
	AudioStatusFailed     AudioStatus = "FAILED"
)

// Terminal reports whether no further transitions are allowed.
func (s AudioStatus) Terminal() bool {
	return s == AudioStatusCompleted || s == AudioStatusFailed
}

// ContentType identifies which portion of a book an audio artifact narrates.
type ContentType string

const (
	ContentTypeIntroduction ContentType = "INTRODUCTION"
	ContentTypeChapter      ContentType = "CHAPTER"
	ContentTypeFullBook     ContentType = "FULL_BOOK"
)

func (c ContentType) Valid() bool {
	switch c {
	case ContentTypeIntroduction, ContentTypeChapter, ContentTypeFullBook:
		return true
	}
	return false
}

// AudioJob is one attempt at synthesizing one piece of text. It is never
// reopened; a regeneration creates a new job with a fresh JobID.
type AudioJob struct {
	ID           int64       `db:"id" json:"-"`
	JobID        string      `db:"job_id" json:"jobId"`
	Status       AudioStatus `db:"status" json:"status"`
	VoiceID      string      `db:"voice_id" json:"voiceId"`
	VoiceName    string      `db:"voice_name" json:"voiceName"`
	Text         string      `db:"text" json:"-"`
	ContentType  ContentType `db:"content_type" json:"contentType"`
	BookID       string      `db:"book_id" json:"bookId"`
	ChapterID    *string     `db:"chapter_id" json:"chapterId,omitempty"`
	AudioURL     *string     `db:"audio_url" json:"audioUrl,omitempty"`
	ErrorMessage *string     `db:"error_message" json:"errorMessage,omitempty"`
	CreatedAt    time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time   `db:"updated_at" json:"updatedAt"`
}

// AudioGeneration is the current artifact for a (book, chapter, content type)
// slot. There is at most one row per slot; regeneration updates it in place.
type AudioGeneration struct {
	ID           int64       `db:"id" json:"id"`
	Status       AudioStatus `db:"status" json:"status"`
	VoiceID      string      `db:"voice_id" json:"voiceId"`
	VoiceName    string      `db:"voice_name" json:"voiceName"`
	TextLength   int         `db:"text_length" json:"textLength"`
	JobID        *string     `db:"job_id" json:"jobId,omitempty"`
	AudioURL     *string     `db:"audio_url" json:"audioUrl,omitempty"`
	ErrorMessage *string     `db:"error_message" json:"errorMessage,omitempty"`
	ContentType  ContentType `db:"content_type" json:"contentType"`
	BookID       string      `db:"book_id" json:"bookId"`
	ChapterID    *string     `db:"chapter_id" json:"chapterId,omitempty"`
	CreatedAt    time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time   `db:"updated_at" json:"updatedAt"`
}

// ChapterAudio is a completed chapter generation joined with the ordering
// fields of its chapter.
type ChapterAudio struct {
	GenerationID     int64     `db:"generation_id"`
	ChapterID        string    `db:"chapter_id"`
	ChapterTitle     string    `db:"chapter_title"`
	ChapterOrder     int       `db:"chapter_order"`
	ChapterCreatedAt time.Time `db:"chapter_created_at"`
	AudioURL         string    `db:"audio_url"`
	UpdatedAt        time.Time `db:"updated_at"`
}
