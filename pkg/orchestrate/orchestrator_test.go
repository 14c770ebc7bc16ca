package orchestrate

import (
	"context"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meetlens/meetlens/pkg/logging"
	"github.com/meetlens/meetlens/pkg/transcript"
)

func meetingEntries() []transcript.Entry {
	var utterances []transcript.Utterance
	lines := []struct {
		speaker int
		text    string
	}{
		{0, "Welcome everyone, today we review the quarterly budget and the hiring plan."},
		{1, "Thanks. The budget looks great, revenue is up and the forecast is positive."},
		{0, "We decided to increase the engineering budget by ten percent."},
		{1, "We will schedule a follow up review before Friday to confirm the numbers."},
		{0, "Who owns the hiring plan update?"},
		{1, "Done deal."},
		{0, "Action item: send the revised budget spreadsheet to the finance team."},
		{1, "The final decision is to freeze contractor spending until next quarter."},
	}
	for i, l := range lines {
		start := float64(i * 10)
		end := start + 8
		utterances = append(utterances, transcript.Utterance{
			Speaker:  l.speaker,
			Text:     l.text,
			StartSec: transcript.Float64(start),
			EndSec:   transcript.Float64(end),
		})
	}
	return transcript.BuildEntries(utterances, func(string) string { return "Positive" })
}

func newTestOrchestrator() *Orchestrator {
	return NewOrchestrator(logging.Nop(), NewMetrics(prometheus.NewRegistry()), 3, nil)
}

func TestOrchestratorAnalyze(t *testing.T) {
	entries := meetingEntries()
	chunks := transcript.ChunkEntries(entries, 500, 20)

	result, err := newTestOrchestrator().Analyze(context.Background(), entries, chunks)
	require.NoError(t, err)

	assert.NotEmpty(t, result.Keywords)
	assert.NotEmpty(t, result.ActionItems)
	assert.NotEmpty(t, result.Decisions)
	assert.NotEmpty(t, result.Topics)
	assert.NotEmpty(t, result.Summary.SummaryReport)
	assert.NotEmpty(t, result.Graph.Nodes)
	assert.Len(t, result.Participation, 2)
	assert.Equal(t, "Positive", result.OverallSentiment.Sentiment)
}

func TestOrchestratorAnalyzeNoChunks(t *testing.T) {
	_, err := newTestOrchestrator().Analyze(context.Background(), nil, nil)
	assert.Error(t, err)
}

func TestOrchestratorOverlappingChunksDedupe(t *testing.T) {
	entries := meetingEntries()
	// Force overlapping chunks so every dimension sees shared entries.
	chunks := transcript.ChunkEntries(entries, 5, 2)
	require.Greater(t, len(chunks), 1)

	result, err := newTestOrchestrator().Analyze(context.Background(), entries, chunks)
	require.NoError(t, err)

	seen := make(map[string]bool)
	for _, kw := range result.Keywords {
		key := kw
		require.False(t, seen[key], "duplicate keyword %q across chunks", kw)
		seen[key] = true
	}

	seenDecisions := make(map[string]bool)
	for _, d := range result.Decisions {
		require.False(t, seenDecisions[d], "duplicate decision %q", d)
		seenDecisions[d] = true
	}
}

type stubGen struct {
	out string
	err error
}

func (s *stubGen) Name() string { return "stub" }
func (s *stubGen) Generate(context.Context, string) (string, error) {
	return s.out, s.err
}

func TestOrchestratorNarrativeSummary(t *testing.T) {
	entries := meetingEntries()
	chunks := transcript.ChunkEntries(entries, 500, 20)

	o := NewOrchestrator(logging.Nop(), NewMetrics(prometheus.NewRegistry()), 3, &stubGen{out: "narrative version"})
	result, err := o.Analyze(context.Background(), entries, chunks)
	require.NoError(t, err)
	assert.Equal(t, "narrative version", result.Summary.SummaryReport)
}

func TestOrchestratorNarrativeSummaryFallsBack(t *testing.T) {
	entries := meetingEntries()
	chunks := transcript.ChunkEntries(entries, 500, 20)

	o := NewOrchestrator(logging.Nop(), NewMetrics(prometheus.NewRegistry()), 3, &stubGen{err: fmt.Errorf("provider down")})
	result, err := o.Analyze(context.Background(), entries, chunks)
	require.NoError(t, err)
	assert.NotEmpty(t, result.Summary.SummaryReport)
	assert.NotEqual(t, "narrative version", result.Summary.SummaryReport)
}
