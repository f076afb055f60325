package test

import (
	"context"
	"io"
	"strings"
	"sync"

	"audiobook-studio/internal/storage"
	"audiobook-studio/internal/tts"
)

// Upload is one object written to a FakeStore.
type Upload struct {
	Bucket      string
	Key         string
	Data        []byte
	ContentType string
}

// FakeStore is an in-memory storage.ObjectStore. Events records uploads and
// deletes in call order as "upload:<key>" and "delete:<url>".
type FakeStore struct {
	mu        sync.Mutex
	Uploads   []Upload
	Deleted   []string
	UploadErr error
	// OnEvent, when set, is called with every event as it happens.
	OnEvent func(event string)
}

const FakeStoreBaseURL = "https://cdn.test"

func (s *FakeStore) Upload(ctx context.Context, bucket, key string, r io.Reader, size int64, contentType string) (string, error) {
	if s.UploadErr != nil {
		return "", &storage.WriteError{Bucket: bucket, Key: key, Err: s.UploadErr}
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", &storage.WriteError{Bucket: bucket, Key: key, Err: err}
	}
	s.mu.Lock()
	s.Uploads = append(s.Uploads, Upload{Bucket: bucket, Key: key, Data: data, ContentType: contentType})
	s.mu.Unlock()
	s.emit("upload:" + key)
	return s.PublicURL(bucket, key), nil
}

func (s *FakeStore) DeleteByURL(ctx context.Context, bucket, url string) {
	s.mu.Lock()
	s.Deleted = append(s.Deleted, url)
	s.mu.Unlock()
	s.emit("delete:" + url)
}

func (s *FakeStore) PublicURL(bucket, key string) string {
	return FakeStoreBaseURL + "/" + strings.TrimPrefix(key, "/")
}

func (s *FakeStore) emit(event string) {
	if s.OnEvent != nil {
		s.OnEvent(event)
	}
}

var _ storage.ObjectStore = (*FakeStore)(nil)

// FakeProvider is a scripted tts.VoiceProvider.
type FakeProvider struct {
	ProviderName string
	Audio        []byte
	Err          error

	Calls     int
	LastVoice string
	LastText  string
	LastOpts  tts.Options
}

func (p *FakeProvider) Name() string {
	if p.ProviderName == "" {
		return "fake"
	}
	return p.ProviderName
}

func (p *FakeProvider) GenerateSpeech(ctx context.Context, voiceID, text string, opts tts.Options) ([]byte, error) {
	p.Calls++
	p.LastVoice, p.LastText, p.LastOpts = voiceID, text, opts
	if p.Err != nil {
		return nil, p.Err
	}
	return p.Audio, nil
}

var _ tts.VoiceProvider = (*FakeProvider)(nil)
