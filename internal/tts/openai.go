package tts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	OpenAIName         = "openai"
	openAIDefaultModel = openai.SpeechModelTTS1HD
)

type OpenAIConfig struct {
	APIKey     string
	Model      string
	BaseURL    string // optional, tests point this at httptest
	Timeout    time.Duration
	Retry      RetryPolicy
	HTTPClient *http.Client
}

// OpenAIProvider synthesizes speech with the OpenAI audio API. Retries are
// owned by the RetryPolicy, the SDK's own retry loop is disabled.
type OpenAIProvider struct {
	model  string
	retry  RetryPolicy
	client openai.Client
}

func NewOpenAIProvider(cfg OpenAIConfig) *OpenAIProvider {
	if cfg.Model == "" {
		cfg.Model = openAIDefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAIProvider{
		model:  cfg.Model,
		retry:  cfg.Retry,
		client: openai.NewClient(opts...),
	}
}

func (p *OpenAIProvider) Name() string {
	return OpenAIName
}

func (p *OpenAIProvider) GenerateSpeech(ctx context.Context, voiceID, text string, opts Options) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, &ProviderError{Provider: OpenAIName, Message: "text is required"}
	}
	if strings.TrimSpace(voiceID) == "" {
		return nil, &ProviderError{Provider: OpenAIName, Message: "voice id is required"}
	}

	params := openai.AudioSpeechNewParams{
		Input:          text,
		Model:          openai.SpeechModel(p.model),
		Voice:          openai.AudioSpeechNewParamsVoice(voiceID),
		ResponseFormat: openAIFormat(opts.Format),
	}
	if opts.Language != "" && supportsInstructions(p.model) {
		params.Instructions = openai.String(fmt.Sprintf("Narrate in %s.", opts.Language))
	}

	var audio []byte
	err := p.retry.Do(ctx, OpenAIName, func() error {
		resp, err := p.client.Audio.Speech.New(ctx, params)
		if err != nil {
			return mapOpenAIError(err)
		}
		defer resp.Body.Close()

		audio, err = io.ReadAll(resp.Body)
		if err != nil {
			return &ProviderError{Provider: OpenAIName, Message: fmt.Sprintf("read response: %v", err), Retryable: true}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return audio, nil
}

func supportsInstructions(model string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(model)), "gpt-4o-mini-tts")
}

func openAIFormat(format string) openai.AudioSpeechNewParamsResponseFormat {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "opus":
		return openai.AudioSpeechNewParamsResponseFormatOpus
	case "aac":
		return openai.AudioSpeechNewParamsResponseFormatAAC
	case "flac":
		return openai.AudioSpeechNewParamsResponseFormatFLAC
	case "wav":
		return openai.AudioSpeechNewParamsResponseFormatWAV
	case "pcm":
		return openai.AudioSpeechNewParamsResponseFormatPCM
	default:
		return openai.AudioSpeechNewParamsResponseFormatMP3
	}
}

func mapOpenAIError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		msg := apiErr.Message
		if msg == "" {
			msg = http.StatusText(apiErr.StatusCode)
		}
		return &ProviderError{
			Provider:   OpenAIName,
			StatusCode: apiErr.StatusCode,
			Message:    msg,
			Retryable:  retryableStatus(apiErr.StatusCode),
		}
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	var netErr net.Error
	timeout := errors.As(err, &netErr) && netErr.Timeout()
	return &ProviderError{Provider: OpenAIName, Message: err.Error(), Retryable: timeout}
}
