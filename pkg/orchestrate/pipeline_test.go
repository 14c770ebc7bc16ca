package orchestrate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meetlens/meetlens/pkg/logging"
	"github.com/meetlens/meetlens/pkg/media"
	"github.com/meetlens/meetlens/pkg/records"
	"github.com/meetlens/meetlens/pkg/transcript"
)

type stubToolchain struct{ duration float64 }

func (s *stubToolchain) Duration(context.Context, string) (float64, error) {
	return s.duration, nil
}

func (s *stubToolchain) Extract(_ context.Context, _, dst string, _, _ float64) error {
	return os.WriteFile(dst, []byte("pcm"), 0o644)
}

type stubTranscriber struct {
	calls atomic.Int32
	fail  bool
}

func (s *stubTranscriber) Transcribe(_ context.Context, path, _ string) (transcript.DiarizationResult, error) {
	s.calls.Add(1)
	if s.fail {
		return transcript.DiarizationResult{}, fmt.Errorf("transcription backend down")
	}
	return transcript.DiarizationResult{
		Utterances: []transcript.Utterance{
			{Speaker: 0, Text: "We will review the budget before Friday.", StartSec: transcript.Float64(0), EndSec: transcript.Float64(4)},
			{Speaker: 1, Text: "Agreed, we decided to approve the new hiring plan.", StartSec: transcript.Float64(5), EndSec: transcript.Float64(9)},
		},
		DurationSec: 10,
	}, nil
}

func newTestPipeline(t *testing.T, transcriber *stubTranscriber, threshold int64) (*Pipeline, *records.Store) {
	t.Helper()
	store, err := records.Open(filepath.Join(t.TempDir(), "records.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	metrics := NewMetrics(prometheus.NewRegistry())
	segmenter := media.NewSegmenter(&stubToolchain{duration: 300}, logging.Nop(), 120, 5, 50)
	orchestrator := NewOrchestrator(logging.Nop(), metrics, 3, nil)

	return NewPipeline(PipelineConfig{
		ChunkThreshold: threshold,
		Concurrency:    3,
		Retries:        2,
	}, segmenter, transcriber, orchestrator, store, metrics, logging.Nop()), store
}

func writeMedia(t *testing.T, size int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "meeting.webm")
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o644))
	return path
}

func TestPipelineShortPath(t *testing.T) {
	transcriber := &stubTranscriber{}
	pipeline, store := newTestPipeline(t, transcriber, 1<<20)

	record, err := pipeline.Run(context.Background(), RunInput{
		Path:     writeMedia(t, 100),
		FileName: "meeting.webm",
		FileSize: 100,
		MimeType: "video/webm",
		Mode:     "free",
	})
	require.NoError(t, err)

	// Below the threshold the whole file goes out as one call.
	assert.Equal(t, int32(1), transcriber.calls.Load())
	require.NotNil(t, record.FullAnalysis)
	assert.NotEmpty(t, record.FullAnalysis.ActionItems)

	stored, err := store.Get(record.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.FullAnalysis)
	assert.Len(t, stored.Entries, 2)
}

func TestPipelineLongPathSegments(t *testing.T) {
	transcriber := &stubTranscriber{}
	pipeline, _ := newTestPipeline(t, transcriber, 50)

	record, err := pipeline.Run(context.Background(), RunInput{
		Path:     writeMedia(t, 100),
		FileName: "meeting.webm",
		FileSize: 100,
		MimeType: "video/webm",
		Mode:     "free",
	})
	require.NoError(t, err)

	// 300s at 120s windows with 5s overlap plans three segments.
	assert.Equal(t, int32(3), transcriber.calls.Load())
	require.NotNil(t, record.FullAnalysis)
}

func TestPipelineTranscriptionFailure(t *testing.T) {
	transcriber := &stubTranscriber{fail: true}
	pipeline, _ := newTestPipeline(t, transcriber, 1<<20)

	_, err := pipeline.Run(context.Background(), RunInput{
		Path:     writeMedia(t, 100),
		FileName: "meeting.webm",
		FileSize: 100,
		MimeType: "video/webm",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "transcription backend down")
}
