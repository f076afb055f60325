package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	ElevenLabsName          = "elevenlabs"
	elevenLabsDefaultBase   = "https://api.elevenlabs.io/v1"
	elevenLabsDefaultModel  = "eleven_multilingual_v2"
	elevenLabsErrBodyLimit  = 2048
	elevenLabsDefaultFormat = "mp3_44100_128"
)

type ElevenLabsConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
	Retry   RetryPolicy
}

// ElevenLabsProvider talks to the ElevenLabs text-to-speech endpoint.
type ElevenLabsProvider struct {
	apiKey  string
	model   string
	baseURL string
	retry   RetryPolicy
	client  *http.Client
}

type elevenLabsRequest struct {
	Text          string                  `json:"text"`
	ModelID       string                  `json:"model_id"`
	LanguageCode  string                  `json:"language_code,omitempty"`
	VoiceSettings elevenLabsVoiceSettings `json:"voice_settings"`
}

type elevenLabsVoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

func NewElevenLabsProvider(cfg ElevenLabsConfig) *ElevenLabsProvider {
	if cfg.Model == "" {
		cfg.Model = elevenLabsDefaultModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = elevenLabsDefaultBase
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}
	return &ElevenLabsProvider{
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		retry:   cfg.Retry,
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

func (p *ElevenLabsProvider) Name() string {
	return ElevenLabsName
}

func (p *ElevenLabsProvider) GenerateSpeech(ctx context.Context, voiceID, text string, opts Options) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &ProviderError{Provider: ElevenLabsName, Message: "text is required"}
	}
	if strings.TrimSpace(voiceID) == "" {
		return nil, &ProviderError{Provider: ElevenLabsName, Message: "voice id is required"}
	}

	format, err := elevenLabsFormat(opts)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(elevenLabsRequest{
		Text:         text,
		ModelID:      p.model,
		LanguageCode: opts.Language,
		VoiceSettings: elevenLabsVoiceSettings{
			Stability:       0.5,
			SimilarityBoost: 0.75,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/text-to-speech/%s?output_format=%s",
		p.baseURL, url.PathEscape(voiceID), format)

	var audio []byte
	err = p.retry.Do(ctx, ElevenLabsName, func() error {
		audio, err = p.doRequest(ctx, endpoint, body)
		return err
	})
	if err != nil {
		return nil, err
	}
	return audio, nil
}

func (p *ElevenLabsProvider) doRequest(ctx context.Context, endpoint string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("xi-api-key", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		var netErr net.Error
		timeout := errors.As(err, &netErr) && netErr.Timeout()
		return nil, &ProviderError{Provider: ElevenLabsName, Message: err.Error(), Retryable: timeout}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, elevenLabsErrBodyLimit))
		return nil, &ProviderError{
			Provider:   ElevenLabsName,
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(msg)),
			Retryable:  retryableStatus(resp.StatusCode),
		}
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ProviderError{Provider: ElevenLabsName, Message: fmt.Sprintf("read response: %v", err), Retryable: true}
	}
	return audio, nil
}

// elevenLabsFormat builds the output_format query value. Only MP3 output is
// wired; the sample rate picks the closest ElevenLabs preset.
func elevenLabsFormat(opts Options) (string, error) {
	if opts.Format != "" && opts.Format != "mp3" {
		return "", &ProviderError{Provider: ElevenLabsName, Message: fmt.Sprintf("unsupported output format %q", opts.Format)}
	}
	switch opts.SampleRate {
	case 22050:
		return "mp3_22050_32", nil
	case 24000:
		return "mp3_24000_48", nil
	default:
		return elevenLabsDefaultFormat, nil
	}
}
