// Package media plans and extracts overlapping time windows from a
// recording so long meetings can be transcribed segment by segment.
package media

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/meetlens/meetlens/pkg/logging"
)

// Window is one planned extraction range in seconds.
type Window struct {
	Index    int
	StartSec float64
	Duration float64
}

// Segment is an extracted media window on disk.
type Segment struct {
	Window
	Path string
}

// Plan computes the overlapping windows for a recording. Segment 0
// starts at zero; segment i starts at i*(duration-overlap) minus the
// overlap so an utterance spanning a naive cut point lands whole in at
// least one window. The final window is clipped to the media length.
func Plan(totalDuration, segmentDuration, overlap float64, maxSegments int) []Window {
	if totalDuration <= 0 || segmentDuration <= 0 {
		return nil
	}
	step := segmentDuration - overlap
	if step <= 0 {
		step = segmentDuration
	}

	count := int(math.Ceil(totalDuration / step))
	if maxSegments > 0 && count > maxSegments {
		count = maxSegments
	}

	windows := make([]Window, 0, count)
	for i := 0; i < count; i++ {
		start := 0.0
		if i > 0 {
			start = float64(i)*step - overlap
			if start < 0 {
				start = 0
			}
		}
		dur := segmentDuration
		if start+dur > totalDuration {
			dur = totalDuration - start
		}
		if dur <= 0 {
			break
		}
		windows = append(windows, Window{Index: i, StartSec: start, Duration: dur})
	}
	return windows
}

// Toolchain abstracts the external media tooling. One concrete
// implementation is selected at startup by configuration; there is no
// per-call capability probing.
type Toolchain interface {
	// Duration reports the media length of path in seconds.
	Duration(ctx context.Context, path string) (float64, error)
	// Extract writes the [startSec, startSec+duration) window of src
	// to dst, converting to the transcription-ready format.
	Extract(ctx context.Context, src, dst string, startSec, duration float64) error
}

// Segmenter extracts planned windows into per-run temp files.
type Segmenter struct {
	tool            Toolchain
	log             logging.Logger
	segmentDuration float64
	overlap         float64
	maxSegments     int
}

func NewSegmenter(tool Toolchain, log logging.Logger, segmentDuration, overlap float64, maxSegments int) *Segmenter {
	return &Segmenter{
		tool:            tool,
		log:             log,
		segmentDuration: segmentDuration,
		overlap:         overlap,
		maxSegments:     maxSegments,
	}
}

// Segment splits src into overlapping windows under a fresh temp
// directory. The caller owns the directory and removes it when done.
func (s *Segmenter) Segment(ctx context.Context, src string) ([]Segment, string, error) {
	totalDuration, err := s.tool.Duration(ctx, src)
	if err != nil {
		return nil, "", fmt.Errorf("probing media duration: %w", err)
	}

	windows := Plan(totalDuration, s.segmentDuration, s.overlap, s.maxSegments)
	if len(windows) == 0 {
		return nil, "", fmt.Errorf("media has no playable duration")
	}

	tmpDir, err := os.MkdirTemp("", "segments-")
	if err != nil {
		return nil, "", fmt.Errorf("creating segment directory: %w", err)
	}

	s.log.Info("segmenting media",
		logging.F("duration_sec", totalDuration),
		logging.F("segments", len(windows)))

	segments := make([]Segment, 0, len(windows))
	for _, w := range windows {
		dst := filepath.Join(tmpDir, fmt.Sprintf("segment-%d.wav", w.Index))
		if err := s.tool.Extract(ctx, src, dst, w.StartSec, w.Duration); err != nil {
			os.RemoveAll(tmpDir)
			return nil, "", fmt.Errorf("extracting segment %d: %w", w.Index, err)
		}
		segments = append(segments, Segment{Window: w, Path: dst})
	}
	return segments, tmpDir, nil
}
