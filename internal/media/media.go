package media

import (
	"context"
	"time"
)

// StreamInfo describes the first audio stream of a file.
type StreamInfo struct {
	SampleRate int
	Channels   int
	BitRate    int // bits per second
}

// DefaultStreamInfo is used when probing fails or reports nothing useful.
var DefaultStreamInfo = StreamInfo{SampleRate: 44100, Channels: 2, BitRate: 192000}

// WithDefaults fills zero fields from DefaultStreamInfo.
func (s StreamInfo) WithDefaults() StreamInfo {
	if s.SampleRate <= 0 {
		s.SampleRate = DefaultStreamInfo.SampleRate
	}
	if s.Channels <= 0 {
		s.Channels = DefaultStreamInfo.Channels
	}
	if s.BitRate <= 0 {
		s.BitRate = DefaultStreamInfo.BitRate
	}
	return s
}

type Prober interface {
	ProbeAudio(ctx context.Context, path string) (StreamInfo, error)
}

type Transcoder interface {
	// GenerateSilence writes an MP3 of silence matching info.
	GenerateSilence(ctx context.Context, out string, d time.Duration, info StreamInfo) error
	// StripMetadata copies the audio stream of in to out without tags.
	StripMetadata(ctx context.Context, in, out string) error
	// Concat joins inputs in order by stream copy.
	Concat(ctx context.Context, inputs []string, out string) error
}

// Toolkit is everything the local merge pipeline needs.
type Toolkit interface {
	Prober
	Transcoder
}
