package media

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// FFmpegToolchain shells out to ffmpeg/ffprobe. Extraction converts to
// 16kHz mono PCM WAV, the format the transcription providers expect.
type FFmpegToolchain struct {
	FFmpegPath  string
	FFprobePath string
}

func NewFFmpegToolchain() *FFmpegToolchain {
	return &FFmpegToolchain{FFmpegPath: "ffmpeg", FFprobePath: "ffprobe"}
}

func (t *FFmpegToolchain) Duration(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, t.FFprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w: %s", path, err, strings.TrimSpace(stderr.String()))
	}

	dur, err := strconv.ParseFloat(strings.TrimSpace(stdout.String()), 64)
	if err != nil {
		return 0, fmt.Errorf("parsing ffprobe duration %q: %w", stdout.String(), err)
	}
	return dur, nil
}

func (t *FFmpegToolchain) Extract(ctx context.Context, src, dst string, startSec, duration float64) error {
	cmd := exec.CommandContext(ctx, t.FFmpegPath,
		"-v", "error",
		"-ss", formatSeconds(startSec),
		"-t", formatSeconds(duration),
		"-i", src,
		"-acodec", "pcm_s16le",
		"-ar", "16000",
		"-ac", "1",
		"-y", dst)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg extract [%s +%s] %s: %w: %s",
			formatSeconds(startSec), formatSeconds(duration), src, err,
			strings.TrimSpace(stderr.String()))
	}
	return nil
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
