// Package orchestrate fans the analysis dimensions out across
// transcript chunks and folds the per-chunk results back into one
// AnalysisResult.
package orchestrate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/meetlens/meetlens/pkg/analysis"
	mlerrors "github.com/meetlens/meetlens/pkg/errors"
	"github.com/meetlens/meetlens/pkg/logging"
	"github.com/meetlens/meetlens/pkg/providers"
	"github.com/meetlens/meetlens/pkg/transcript"
)

const tracerName = "analysis"

// Analysis dimension names, used for spans, metrics, and chunk errors.
const (
	DimKeywords      = "keywords"
	DimActionItems   = "action_items"
	DimDecisions     = "decisions"
	DimTopics        = "topics"
	DimQuestions     = "unanswered_questions"
	DimInterruptions = "interruptions"
	DimGraph         = "relationship_graph"
	DimSummary       = "summary"
)

// Orchestrator runs every analysis dimension over every chunk with a
// bounded worker width. A failed chunk is logged and contributes an
// empty result; it never aborts the dimension. This is deliberately
// more lenient than the all-or-nothing segment transcription contract,
// because partial chunk coverage beats total analysis failure.
type Orchestrator struct {
	log         logging.Logger
	metrics     *Metrics
	tracer      trace.Tracer
	concurrency int

	// generator, when non-nil, rewrites the extractive summary into a
	// narrative one. Failure falls back to the extractive text.
	generator providers.TextGenerator
}

func NewOrchestrator(log logging.Logger, metrics *Metrics, concurrency int, generator providers.TextGenerator) *Orchestrator {
	if concurrency <= 0 {
		concurrency = 3
	}
	return &Orchestrator{
		log:         log,
		metrics:     metrics,
		tracer:      otel.Tracer(tracerName),
		concurrency: concurrency,
		generator:   generator,
	}
}

// Analyze runs all eight dimensions over the chunks, plus the
// whole-transcript supplements (overall sentiment, participation).
func (o *Orchestrator) Analyze(ctx context.Context, entries []transcript.Entry, chunks []transcript.Chunk) (*analysis.Result, error) {
	if len(chunks) == 0 {
		return nil, fmt.Errorf("no transcript chunks to analyze")
	}

	ctx, span := o.tracer.Start(ctx, "analysis.run",
		trace.WithAttributes(
			attribute.Int("chunks", len(chunks)),
			attribute.Int("entries", len(entries)),
		))
	defer span.End()

	result := &analysis.Result{}
	var wg sync.WaitGroup

	run := func(dimension string, fn func(dimCtx context.Context)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			dimCtx, dimSpan := o.tracer.Start(ctx, "analysis."+dimension)
			defer dimSpan.End()
			start := time.Now()
			fn(dimCtx)
			o.metrics.DimensionSeconds.WithLabelValues(dimension).Observe(time.Since(start).Seconds())
		}()
	}

	run(DimKeywords, func(dimCtx context.Context) {
		perChunk := analyzeChunks(dimCtx, o, DimKeywords, chunks, func(c transcript.Chunk) []string {
			return analysis.ExtractKeywords(c.Text())
		})
		result.Keywords = mergeKeywords(perChunk)
	})

	run(DimActionItems, func(dimCtx context.Context) {
		perChunk := analyzeChunks(dimCtx, o, DimActionItems, chunks, func(c transcript.Chunk) []string {
			return analysis.ExtractActionItems(c.Text())
		})
		result.ActionItems = mergeStrings(perChunk, 30)
	})

	run(DimDecisions, func(dimCtx context.Context) {
		perChunk := analyzeChunks(dimCtx, o, DimDecisions, chunks, func(c transcript.Chunk) []string {
			return analysis.IdentifyDecisions(c.Text())
		})
		result.Decisions = mergeStrings(perChunk, 20)
	})

	run(DimTopics, func(dimCtx context.Context) {
		perChunk := analyzeChunks(dimCtx, o, DimTopics, chunks, func(c transcript.Chunk) []analysis.Topic {
			texts := make([]string, len(c.Entries))
			for i, e := range c.Entries {
				texts[i] = e.Text
			}
			return analysis.SegmentTopics(texts)
		})
		result.Topics = mergeTopics(perChunk)
	})

	run(DimQuestions, func(dimCtx context.Context) {
		perChunk := analyzeChunks(dimCtx, o, DimQuestions, chunks, func(c transcript.Chunk) []analysis.UnansweredQuestion {
			return analysis.DetectUnansweredQuestions(c.Entries)
		})
		result.UnansweredQuestions = mergeQuestions(perChunk)
	})

	run(DimInterruptions, func(dimCtx context.Context) {
		perChunk := analyzeChunks(dimCtx, o, DimInterruptions, chunks, func(c transcript.Chunk) []analysis.Interruption {
			return analysis.DetectInterruptions(c.Entries)
		})
		result.Interruptions = mergeInterruptions(perChunk)
	})

	run(DimGraph, func(dimCtx context.Context) {
		perChunk := analyzeChunks(dimCtx, o, DimGraph, chunks, func(c transcript.Chunk) analysis.RelationshipGraph {
			return analysis.BuildRelationshipGraph(c.Entries)
		})
		result.Graph = mergeGraphs(perChunk)
	})

	run(DimSummary, func(dimCtx context.Context) {
		perChunk := analyzeChunks(dimCtx, o, DimSummary, chunks, func(c transcript.Chunk) analysis.SummaryResult {
			return analysis.GenerateSummary(c.Text(), analysis.DefaultSummarySentences)
		})
		result.Summary = o.finishSummary(dimCtx, mergeSummaries(perChunk))
	})

	wg.Wait()

	texts := make([]string, len(entries))
	for i, e := range entries {
		texts[i] = e.Text
	}
	result.OverallSentiment = analysis.AnalyzeBatchSentiment(texts)
	result.Participation = transcript.Participation(entries)

	return result, ctx.Err()
}

// finishSummary optionally rewrites the merged extractive summary via
// the text-generation chain.
func (o *Orchestrator) finishSummary(ctx context.Context, merged analysis.SummaryResult) analysis.SummaryResult {
	if o.generator == nil || merged.SummaryReport == "" {
		return merged
	}
	prompt := "Rewrite these meeting notes as a short narrative summary:\n" + merged.SummaryReport
	narrative, err := o.generator.Generate(ctx, prompt)
	if err != nil {
		o.log.Warn("narrative summary generation failed, keeping extractive summary",
			logging.Err(err))
		return merged
	}
	merged.SummaryReport = narrative
	return merged
}

// analyzeChunks runs fn over every chunk with bounded concurrency.
// Failed chunks are logged with an AnalysisChunkError, counted, and
// excluded from the returned slice.
func analyzeChunks[T any](ctx context.Context, o *Orchestrator, dimension string, chunks []transcript.Chunk, fn func(transcript.Chunk) T) []T {
	type slot struct {
		value T
		ok    bool
	}
	slots := make([]slot, len(chunks))

	sem := make(chan struct{}, o.concurrency)
	var wg sync.WaitGroup

	for i, chunk := range chunks {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		go func(i int, chunk transcript.Chunk) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			defer func() {
				if r := recover(); r != nil {
					chunkErr := &mlerrors.AnalysisChunkError{
						Dimension:  dimension,
						ChunkIndex: i,
						Cause:      fmt.Errorf("%v", r),
					}
					o.log.Error("chunk analysis failed", logging.Err(chunkErr))
					o.metrics.ChunksProcessedTotal.WithLabelValues(dimension, "error").Inc()
				}
			}()

			slots[i] = slot{value: fn(chunk), ok: true}
			o.metrics.ChunksProcessedTotal.WithLabelValues(dimension, "ok").Inc()
		}(i, chunk)
	}
	wg.Wait()

	out := make([]T, 0, len(chunks))
	for _, s := range slots {
		if s.ok {
			out = append(out, s.value)
		}
	}
	return out
}
