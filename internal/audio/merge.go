package audio

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"time"

	"audiobook-studio/internal/db"
	"audiobook-studio/internal/media"
	"audiobook-studio/internal/metrics"
	"audiobook-studio/internal/models"
	"audiobook-studio/internal/remote"
	"audiobook-studio/internal/storage"

	log "github.com/sirupsen/logrus"
)

// Dispatcher hands a merge to the remote worker.
type Dispatcher interface {
	DispatchMerge(ctx context.Context, req remote.MergeRequest) error
}

// Fetcher downloads a chapter's audio to a local file.
type Fetcher interface {
	Fetch(ctx context.Context, url, dest string) error
}

type MergeConfig struct {
	Bucket      string
	GapDuration time.Duration
	StepTimeout time.Duration
	WorkDir     string
	// CallbackURL is where the remote worker reports back.
	CallbackURL string
}

// MergeResult is either a queued remote merge or a finished local one.
type MergeResult struct {
	Queued   bool
	AudioURL string
}

// MergeCoordinator assembles a book's completed chapter audio into one
// FULL_BOOK artifact.
type MergeCoordinator struct {
	store   storage.ObjectStore
	fetcher Fetcher
	toolkit media.Toolkit
	remote  Dispatcher
	cfg     MergeConfig
}

// NewMergeCoordinator builds a coordinator. A nil dispatcher means local
// merges only.
func NewMergeCoordinator(store storage.ObjectStore, fetcher Fetcher, toolkit media.Toolkit, dispatcher Dispatcher, cfg MergeConfig) *MergeCoordinator {
	if cfg.GapDuration <= 0 {
		cfg.GapDuration = 350 * time.Millisecond
	}
	if cfg.StepTimeout <= 0 {
		cfg.StepTimeout = 60 * time.Second
	}
	return &MergeCoordinator{store: store, fetcher: fetcher, toolkit: toolkit, remote: dispatcher, cfg: cfg}
}

// SortChapterAudio orders by chapter order, then chapter creation time, then
// chapter id.
func SortChapterAudio(audios []models.ChapterAudio) {
	sort.SliceStable(audios, func(i, j int) bool {
		a, b := audios[i], audios[j]
		if a.ChapterOrder != b.ChapterOrder {
			return a.ChapterOrder < b.ChapterOrder
		}
		if !a.ChapterCreatedAt.Equal(b.ChapterCreatedAt) {
			return a.ChapterCreatedAt.Before(b.ChapterCreatedAt)
		}
		return a.ChapterID < b.ChapterID
	})
}

// ConcatSequence interleaves gap between chapters, with no trailing gap.
func ConcatSequence(chapters []string, gap string) []string {
	seq := make([]string, 0, 2*len(chapters))
	for i, c := range chapters {
		if i > 0 {
			seq = append(seq, gap)
		}
		seq = append(seq, c)
	}
	return seq
}

func (m *MergeCoordinator) Merge(ctx context.Context, bookID string) (MergeResult, error) {
	logger := log.WithField("book_id", bookID)

	book, err := db.GetBookByID(ctx, bookID)
	if err != nil {
		return MergeResult{}, fmt.Errorf("failed to load book: %w", err)
	}
	audios, err := db.GetCompletedChapterAudio(ctx, bookID)
	if err != nil {
		return MergeResult{}, fmt.Errorf("failed to load chapter audio: %w", err)
	}
	if len(audios) == 0 {
		return MergeResult{}, ErrNoAudioToMerge
	}
	SortChapterAudio(audios)

	prevURL, err := m.currentFullBookURL(ctx, bookID)
	if err != nil {
		return MergeResult{}, err
	}

	dispatched := false
	if m.remote != nil {
		dispatched = true
		if prevURL != "" {
			m.store.DeleteByURL(ctx, m.cfg.Bucket, prevURL)
			prevURL = ""
		}
		if _, err := db.UpsertAudioGeneration(ctx, models.AudioGeneration{
			Status:      models.AudioStatusProcessing,
			ContentType: models.ContentTypeFullBook,
			BookID:      bookID,
		}); err != nil {
			return MergeResult{}, fmt.Errorf("failed to mark full book processing: %w", err)
		}

		urls := make([]string, len(audios))
		for i, a := range audios {
			urls[i] = a.AudioURL
		}
		err := m.remote.DispatchMerge(ctx, remote.MergeRequest{
			BookID:           bookID,
			ChapterAudioURLs: urls,
			CallbackURL:      m.cfg.CallbackURL,
		})
		if err == nil {
			metrics.AudioMergesTotal.WithLabelValues("remote", "queued").Inc()
			logger.Infof("Merge of %d chapters queued on remote worker", len(audios))
			return MergeResult{Queued: true}, nil
		}
		metrics.AudioMergesTotal.WithLabelValues("remote", "fallback").Inc()
		logger.Warnf("Remote merge worker rejected the job, merging locally: %v", err)
	}

	url, err := m.mergeLocal(ctx, book, audios)
	if err != nil {
		metrics.AudioMergesTotal.WithLabelValues("local", "failed").Inc()
		if dispatched {
			// This request moved the slot to PROCESSING; don't leave it there.
			if _, ferr := db.FailFullBookGeneration(context.WithoutCancel(ctx), bookID, err.Error()); ferr != nil {
				logger.Errorf("Failed to mark full book failed: %v", ferr)
			}
		}
		return MergeResult{}, err
	}

	if _, err := db.UpsertAudioGeneration(ctx, models.AudioGeneration{
		Status:      models.AudioStatusCompleted,
		ContentType: models.ContentTypeFullBook,
		BookID:      bookID,
		AudioURL:    &url,
	}); err != nil {
		m.store.DeleteByURL(context.WithoutCancel(ctx), m.cfg.Bucket, url)
		return MergeResult{}, &MergeError{Step: "record", Err: err}
	}
	if prevURL != "" && prevURL != url {
		m.store.DeleteByURL(ctx, m.cfg.Bucket, prevURL)
	}

	metrics.AudioMergesTotal.WithLabelValues("local", "completed").Inc()
	logger.WithField("audio_url", url).Infof("Merged %d chapters locally", len(audios))
	return MergeResult{AudioURL: url}, nil
}

func (m *MergeCoordinator) currentFullBookURL(ctx context.Context, bookID string) (string, error) {
	gen, err := db.GetAudioGenerationForSlot(ctx, bookID, nil, models.ContentTypeFullBook)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load full book generation: %w", err)
	}
	if gen.AudioURL == nil {
		return "", nil
	}
	return *gen.AudioURL, nil
}

func (m *MergeCoordinator) mergeLocal(ctx context.Context, book models.Book, audios []models.ChapterAudio) (string, error) {
	dir, err := os.MkdirTemp(m.cfg.WorkDir, "merge-*")
	if err != nil {
		return "", &MergeError{Step: "workdir", Err: err}
	}
	defer os.RemoveAll(dir)

	raw := make([]string, len(audios))
	for i, a := range audios {
		raw[i] = filepath.Join(dir, fmt.Sprintf("source-%03d.mp3", i+1))
		if err := m.step(ctx, func(ctx context.Context) error {
			return m.fetcher.Fetch(ctx, a.AudioURL, raw[i])
		}); err != nil {
			return "", &MergeError{Step: "download", Err: fmt.Errorf("chapter %s: %w", a.ChapterID, err)}
		}
	}

	info := media.DefaultStreamInfo
	if err := m.step(ctx, func(ctx context.Context) error {
		probed, err := m.toolkit.ProbeAudio(ctx, raw[0])
		if err != nil {
			return err
		}
		info = probed.WithDefaults()
		return nil
	}); err != nil {
		log.WithField("book_id", book.ID).Warnf("Probe failed, using %d Hz / %d ch / %d bps: %v",
			info.SampleRate, info.Channels, info.BitRate, err)
	}

	gap := filepath.Join(dir, "gap.mp3")
	if len(audios) > 1 {
		if err := m.step(ctx, func(ctx context.Context) error {
			return m.toolkit.GenerateSilence(ctx, gap, m.cfg.GapDuration, info)
		}); err != nil {
			return "", &MergeError{Step: "silence", Err: err}
		}
	}

	clean := make([]string, len(raw))
	for i, in := range raw {
		clean[i] = filepath.Join(dir, fmt.Sprintf("chapter-%03d.mp3", i+1))
		if err := m.step(ctx, func(ctx context.Context) error {
			return m.toolkit.StripMetadata(ctx, in, clean[i])
		}); err != nil {
			return "", &MergeError{Step: "strip-metadata", Err: err}
		}
	}

	out := filepath.Join(dir, "merged.mp3")
	if err := m.step(ctx, func(ctx context.Context) error {
		return m.toolkit.Concat(ctx, ConcatSequence(clean, gap), out)
	}); err != nil {
		return "", &MergeError{Step: "concat", Err: err}
	}

	f, err := os.Open(out)
	if err != nil {
		return "", &MergeError{Step: "concat", Err: err}
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return "", &MergeError{Step: "concat", Err: err}
	}

	var url string
	if err := m.step(ctx, func(ctx context.Context) error {
		url, err = m.store.Upload(ctx, m.cfg.Bucket, MergedKey(book.Title, now()), f, st.Size(), "audio/mpeg")
		return err
	}); err != nil {
		return "", &MergeError{Step: "upload", Err: err}
	}
	return url, nil
}

// step runs fn under the per-step timeout.
func (m *MergeCoordinator) step(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, m.cfg.StepTimeout)
	defer cancel()
	return fn(ctx)
}

// HTTPFetcher downloads over plain HTTP(S).
type HTTPFetcher struct {
	Client *http.Client
}

func (f HTTPFetcher) Fetch(ctx context.Context, url, dest string) error {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: status %d", url, resp.StatusCode)
	}

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := out.ReadFrom(resp.Body); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
