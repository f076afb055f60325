package media

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"audiobook-studio/internal/config"

	log "github.com/sirupsen/logrus"
)

var (
	execCommandContext = exec.CommandContext
	lookPath           = exec.LookPath
)

// FFmpeg shells out to ffmpeg and ffprobe.
type FFmpeg struct {
	ffmpegPath  string
	ffprobePath string
}

func NewFFmpeg(cfg config.MergeConfig) *FFmpeg {
	f := &FFmpeg{
		ffmpegPath:  resolveBinary(cfg.FFmpegPath, "ffmpeg"),
		ffprobePath: resolveBinary(cfg.FFprobePath, "ffprobe"),
	}
	log.Printf("Using ffmpeg at %s, ffprobe at %s", f.ffmpegPath, f.ffprobePath)
	return f
}

// resolveBinary picks the configured path, then whatever is on PATH, then the
// bare name so the failure surfaces when the command runs.
func resolveBinary(override, name string) string {
	if override = strings.TrimSpace(override); override != "" {
		return override
	}
	if p, err := lookPath(name); err == nil {
		return p
	}
	return name
}

type ffprobeOutput struct {
	Streams []struct {
		SampleRate string `json:"sample_rate"`
		Channels   int    `json:"channels"`
		BitRate    string `json:"bit_rate"`
	} `json:"streams"`
}

func (f *FFmpeg) ProbeAudio(ctx context.Context, path string) (StreamInfo, error) {
	cmd := execCommandContext(ctx, f.ffprobePath,
		"-v", "error",
		"-select_streams", "a:0",
		"-show_entries", "stream=sample_rate,channels,bit_rate",
		"-of", "json",
		path,
	)
	output, err := cmd.Output()
	if err != nil {
		return StreamInfo{}, fmt.Errorf("ffprobe failed: %w", err)
	}
	return parseProbeOutput(output)
}

func parseProbeOutput(output []byte) (StreamInfo, error) {
	var parsed ffprobeOutput
	if err := json.Unmarshal(output, &parsed); err != nil {
		return StreamInfo{}, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}
	if len(parsed.Streams) == 0 {
		return StreamInfo{}, fmt.Errorf("no audio stream found")
	}
	s := parsed.Streams[0]
	// Missing values come back as "N/A"; Atoi fails and the field stays zero.
	rate, _ := strconv.Atoi(s.SampleRate)
	bitRate, _ := strconv.Atoi(s.BitRate)
	return StreamInfo{SampleRate: rate, Channels: s.Channels, BitRate: bitRate}, nil
}

func (f *FFmpeg) GenerateSilence(ctx context.Context, out string, d time.Duration, info StreamInfo) error {
	info = info.WithDefaults()
	layout := "stereo"
	if info.Channels == 1 {
		layout = "mono"
	}
	return f.run(ctx,
		"-y",
		"-f", "lavfi",
		"-i", fmt.Sprintf("anullsrc=r=%d:cl=%s", info.SampleRate, layout),
		"-t", strconv.FormatFloat(d.Seconds(), 'f', 3, 64),
		"-c:a", "libmp3lame",
		"-b:a", fmt.Sprintf("%dk", info.BitRate/1000),
		out,
	)
}

func (f *FFmpeg) StripMetadata(ctx context.Context, in, out string) error {
	return f.run(ctx,
		"-y",
		"-i", in,
		"-map", "0:a",
		"-map_metadata", "-1",
		"-c:a", "copy",
		out,
	)
}

func (f *FFmpeg) Concat(ctx context.Context, inputs []string, out string) error {
	if len(inputs) == 0 {
		return fmt.Errorf("nothing to concatenate")
	}
	listPath := filepath.Join(filepath.Dir(out), "concat.txt")
	if err := os.WriteFile(listPath, []byte(concatList(inputs)), 0o644); err != nil {
		return fmt.Errorf("failed to write concat list: %w", err)
	}
	return f.run(ctx,
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy",
		out,
	)
}

// concatList renders the concat demuxer input, one quoted path per line.
func concatList(inputs []string) string {
	var b strings.Builder
	for _, p := range inputs {
		fmt.Fprintf(&b, "file '%s'\n", strings.ReplaceAll(p, "'", `'\''`))
	}
	return b.String()
}

func (f *FFmpeg) run(ctx context.Context, args ...string) error {
	cmd := execCommandContext(ctx, f.ffmpegPath, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("ffmpeg interrupted: %w", ctxErr)
		}
		return fmt.Errorf("ffmpeg failed: %w: %s", err, tail(output, 512))
	}
	return nil
}

func tail(b []byte, n int) string {
	if len(b) > n {
		b = b[len(b)-n:]
	}
	return strings.TrimSpace(string(b))
}
