package orchestrate

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/meetlens/meetlens/pkg/analysis"
	"github.com/meetlens/meetlens/pkg/logging"
	"github.com/meetlens/meetlens/pkg/media"
	"github.com/meetlens/meetlens/pkg/parallel"
	"github.com/meetlens/meetlens/pkg/providers"
	"github.com/meetlens/meetlens/pkg/records"
	"github.com/meetlens/meetlens/pkg/transcript"
)

// PipelineConfig carries the processing knobs for one pipeline.
type PipelineConfig struct {
	// ChunkThreshold is the file size above which media is segmented
	// and transcribed in parallel instead of sent whole.
	ChunkThreshold int64
	Concurrency    int
	Retries        int
	ChunkSize      int
	ChunkOverlap   int
}

// Pipeline drives a merged upload through transcription, merging,
// chunking, analysis, and persistence.
type Pipeline struct {
	cfg          PipelineConfig
	segmenter    *media.Segmenter
	transcriber  providers.Transcriber
	orchestrator *Orchestrator
	store        *records.Store
	metrics      *Metrics
	log          logging.Logger
}

func NewPipeline(cfg PipelineConfig, segmenter *media.Segmenter, transcriber providers.Transcriber,
	orchestrator *Orchestrator, store *records.Store, metrics *Metrics, log logging.Logger) *Pipeline {
	if cfg.ChunkThreshold <= 0 {
		cfg.ChunkThreshold = 50 << 20
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 3
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 500
	}
	if cfg.ChunkOverlap < 0 {
		cfg.ChunkOverlap = 20
	}
	return &Pipeline{
		cfg:          cfg,
		segmenter:    segmenter,
		transcriber:  transcriber,
		orchestrator: orchestrator,
		store:        store,
		metrics:      metrics,
		log:          log,
	}
}

// RunInput describes one merged upload ready for processing.
type RunInput struct {
	Path     string
	FileName string
	FileSize int64
	MimeType string
	Mode     string
}

// Run processes one recording end to end and returns the persisted
// record with its full analysis attached.
func (p *Pipeline) Run(ctx context.Context, in RunInput) (*records.Record, error) {
	start := time.Now()
	path := "short"
	if in.FileSize > p.cfg.ChunkThreshold {
		path = "long"
	}

	record, err := p.run(ctx, in, path)
	p.metrics.PipelineSeconds.WithLabelValues(path).Observe(time.Since(start).Seconds())
	if err != nil {
		p.metrics.PipelineRunsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	p.metrics.PipelineRunsTotal.WithLabelValues("ok").Inc()
	return record, nil
}

func (p *Pipeline) run(ctx context.Context, in RunInput, path string) (*records.Record, error) {
	var diarization transcript.DiarizationResult
	var err error

	if path == "short" {
		p.log.Info("transcribing whole recording",
			logging.F("file_name", in.FileName), logging.F("file_size", in.FileSize))
		diarization, err = p.transcriber.Transcribe(ctx, in.Path, in.MimeType)
		if err != nil {
			return nil, fmt.Errorf("transcribing %s: %w", in.FileName, err)
		}
	} else {
		diarization, err = p.transcribeSegmented(ctx, in)
		if err != nil {
			return nil, err
		}
	}

	entries := transcript.BuildEntries(diarization.Utterances, func(text string) string {
		return analysis.AnalyzeSentiment(text).Sentiment
	})
	if len(entries) == 0 {
		return nil, fmt.Errorf("recording %s produced no utterances", in.FileName)
	}
	chunks := transcript.ChunkEntries(entries, p.cfg.ChunkSize, p.cfg.ChunkOverlap)

	record := &records.Record{
		ID:                uuid.NewString(),
		Mode:              in.Mode,
		CreatedAt:         time.Now().UTC(),
		FileName:          in.FileName,
		FileSize:          in.FileSize,
		MimeType:          in.MimeType,
		DiarizationResult: diarization,
		Entries:           entries,
	}
	if err := p.store.Save(record); err != nil {
		return nil, fmt.Errorf("saving record: %w", err)
	}

	result, err := p.store.AttachFullAnalysis(record.ID, func() (*analysis.Result, error) {
		return p.orchestrator.Analyze(ctx, entries, chunks)
	})
	if err != nil {
		return nil, fmt.Errorf("analyzing record %s: %w", record.ID, err)
	}
	record.FullAnalysis = result

	p.log.Info("pipeline complete",
		logging.F("record_id", record.ID),
		logging.F("entries", len(entries)),
		logging.F("chunks", len(chunks)))
	return record, nil
}

// transcribeSegmented splits the media into overlapping windows,
// transcribes them in parallel under the all-or-nothing contract, and
// merges the per-segment timelines. A missing segment would silently
// corrupt the timeline, so any segment failure fails the run.
func (p *Pipeline) transcribeSegmented(ctx context.Context, in RunInput) (transcript.DiarizationResult, error) {
	segments, tmpDir, err := p.segmenter.Segment(ctx, in.Path)
	if err != nil {
		return transcript.DiarizationResult{}, err
	}
	defer os.RemoveAll(tmpDir)

	p.log.Info("transcribing segments",
		logging.F("file_name", in.FileName), logging.F("segments", len(segments)))

	results, err := parallel.Run(ctx, segments,
		func(ctx context.Context, seg media.Segment, _ int) (transcript.SegmentResult, error) {
			p.metrics.SegmentsTotal.Inc()
			res, err := p.transcriber.Transcribe(ctx, seg.Path, "audio/wav")
			if err != nil {
				return transcript.SegmentResult{}, err
			}
			return transcript.SegmentResult{
				SegmentIndex: seg.Index,
				StartTime:    seg.StartSec,
				Result:       res,
			}, nil
		},
		parallel.Options{
			Concurrency: p.cfg.Concurrency,
			Retries:     p.cfg.Retries,
			OnProgress: func(done, total int) {
				p.log.Debug("segment transcribed",
					logging.F("done", done), logging.F("total", total))
			},
		})
	if err != nil {
		return transcript.DiarizationResult{}, err
	}

	return transcript.Merge(results), nil
}
