package tts

import (
	"context"
	"errors"
	"fmt"

	"audiobook-studio/internal/config"
)

// ErrProviderNotConfigured is returned when no usable TTS backend is configured.
var ErrProviderNotConfigured = errors.New("tts provider is not configured")

// Options tune a single synthesis call.
type Options struct {
	Format     string // "mp3" unless the provider is told otherwise
	SampleRate int
	Language   string // optional hint, e.g. "en" or "de"
}

// VoiceProvider synthesizes speech and returns raw audio bytes.
type VoiceProvider interface {
	Name() string
	GenerateSpeech(ctx context.Context, voiceID, text string, opts Options) ([]byte, error)
}

// ProviderError is a failed upstream call after retries were exhausted or
// skipped because the failure was not transient.
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
	Retryable  bool
}

func (e *ProviderError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s tts error: %s", e.Provider, e.Message)
	}
	return fmt.Sprintf("%s tts error (status %d): %s", e.Provider, e.StatusCode, e.Message)
}

// FileExtension maps a requested output format to the stored file extension.
func FileExtension(format string) string {
	switch format {
	case "opus", "aac", "flac", "wav", "pcm":
		return format
	default:
		return "mp3"
	}
}

// ContentTypeFor maps a file extension to its MIME type.
func ContentTypeFor(ext string) string {
	switch ext {
	case "opus":
		return "audio/ogg"
	case "aac":
		return "audio/aac"
	case "flac":
		return "audio/flac"
	case "wav":
		return "audio/wav"
	case "pcm":
		return "audio/L16"
	default:
		return "audio/mpeg"
	}
}

// NewProviderFromConfig selects the backend named by TTS_PROVIDER.
func NewProviderFromConfig(cfg config.TTSConfig) (VoiceProvider, error) {
	policy := RetryPolicy{
		MaxAttempts: cfg.MaxAttempts,
		BaseDelay:   cfg.RetryBaseDelay,
		MaxJitter:   cfg.RetryMaxJitter,
	}

	// Chapter merges stream-copy into an MP3 container.
	if cfg.Format != "" && cfg.Format != "mp3" {
		return nil, fmt.Errorf("%w: TTS_FORMAT %q is not supported, use mp3", ErrProviderNotConfigured, cfg.Format)
	}

	switch cfg.Provider {
	case "", OpenAIName:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("%w: OPENAI_API_KEY is empty", ErrProviderNotConfigured)
		}
		return NewOpenAIProvider(OpenAIConfig{
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.OpenAIModel,
			BaseURL: cfg.OpenAIBaseURL,
			Timeout: cfg.Timeout,
			Retry:   policy,
		}), nil
	case ElevenLabsName:
		if cfg.ElevenLabsAPIKey == "" {
			return nil, fmt.Errorf("%w: ELEVENLABS_API_KEY is empty", ErrProviderNotConfigured)
		}
		return NewElevenLabsProvider(ElevenLabsConfig{
			APIKey:  cfg.ElevenLabsAPIKey,
			Model:   cfg.ElevenLabsModel,
			BaseURL: cfg.ElevenLabsBaseURL,
			Timeout: cfg.Timeout,
			Retry:   policy,
		}), nil
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", ErrProviderNotConfigured, cfg.Provider)
	}
}
