package orchestrate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meetlens/meetlens/pkg/analysis"
)

func TestMergeKeywordsFrequencySum(t *testing.T) {
	merged := mergeKeywords([][]string{
		{"roadmap", "budget", "hiring"},
		{"Budget", "roadmap"},
		{"roadmap"},
	})

	require.NotEmpty(t, merged)
	assert.Equal(t, "roadmap", merged[0])
	assert.Equal(t, "budget", merged[1])

	// A keyword appearing in several chunks collapses to one entry.
	count := 0
	for _, k := range merged {
		if k == "roadmap" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestMergeKeywordsOrderIndependent(t *testing.T) {
	a := mergeKeywords([][]string{{"alpha", "beta"}, {"beta"}})
	b := mergeKeywords([][]string{{"beta"}, {"alpha", "beta"}})
	assert.Equal(t, a, b)
}

func TestMergeStringsDedupesAndFilters(t *testing.T) {
	merged := mergeStrings([][]string{
		{"Review the audit findings", "short"},
		{"review the audit findings", "Schedule the retro for Monday"},
	}, 30)

	assert.Equal(t, []string{"Review the audit findings", "Schedule the retro for Monday"}, merged)
}

func TestMergeStringsCap(t *testing.T) {
	items := []string{
		"First long enough item", "Second long enough item", "Third long enough item",
	}
	merged := mergeStrings([][]string{items}, 2)
	assert.Len(t, merged, 2)
}

func TestMergeTopicsCollision(t *testing.T) {
	merged := mergeTopics([][]analysis.Topic{
		{{Topic: "Budget Review", Summary: "first half"}},
		{{Topic: "budget review", Summary: "second half"}, {Topic: "Hiring", Summary: "pipeline"}},
	})

	require.Len(t, merged, 2)
	assert.Equal(t, "Budget Review", merged[0].Topic)
	assert.Contains(t, merged[0].Summary, "first half")
	assert.Contains(t, merged[0].Summary, "second half")
}

func TestMergeQuestionsDedupe(t *testing.T) {
	q := analysis.UnansweredQuestion{Question: "Who owns this?", Speaker: "Speaker 1", Timestamp: "01:00"}
	merged := mergeQuestions([][]analysis.UnansweredQuestion{{q}, {q}})
	assert.Len(t, merged, 1)
}

func TestMergeInterruptionsDedupe(t *testing.T) {
	in := analysis.Interruption{Interrupter: "Speaker 2", Interrupted: "Speaker 1", Timestamp: "02:30", Text: "wait"}
	merged := mergeInterruptions([][]analysis.Interruption{{in}, {in}})
	assert.Len(t, merged, 1)
}

func TestMergeGraphs(t *testing.T) {
	g1 := analysis.RelationshipGraph{
		Nodes: []analysis.GraphNode{
			{ID: "speaker-1", Label: "Speaker 1", Group: 1},
			{ID: "speaker-2", Label: "Speaker 2", Group: 2},
		},
		Links: []analysis.GraphLink{{
			Source: "speaker-1", Target: "speaker-2", Value: 6, AvgSentiment: 0.7,
			Initiator: "speaker-1", Timestamps: []string{"00:10"}, Topics: []string{"budget"},
		}},
	}
	g2 := analysis.RelationshipGraph{
		Nodes: []analysis.GraphNode{
			{ID: "speaker-2", Label: "Speaker 2", Group: 1},
			{ID: "speaker-3", Label: "Speaker 3", Group: 2},
		},
		Links: []analysis.GraphLink{{
			Source: "speaker-1", Target: "speaker-2", Value: 7, AvgSentiment: 0.7,
			Initiator: "speaker-1", Timestamps: []string{"05:10"}, Topics: []string{"hiring"},
		}},
	}

	merged := mergeGraphs([]analysis.RelationshipGraph{g1, g2})

	require.Len(t, merged.Nodes, 3)
	require.Len(t, merged.Links, 1)
	link := merged.Links[0]
	assert.Equal(t, 10, link.Value) // summed then capped
	assert.InDelta(t, 0.7, link.AvgSentiment, 0.001)
	assert.Equal(t, "support", link.Type)
	assert.ElementsMatch(t, []string{"00:10", "05:10"}, link.Timestamps)
	assert.ElementsMatch(t, []string{"budget", "hiring"}, link.Topics)
}

func TestMergeSummaries(t *testing.T) {
	merged := mergeSummaries([]analysis.SummaryResult{
		{SummaryReport: "First chunk summary.", KeyPoints: []string{"a"}},
		{SummaryReport: "No content to summarize.", KeyPoints: nil},
		{SummaryReport: "Second chunk summary.", KeyPoints: []string{"b"}},
	})

	assert.Equal(t, "First chunk summary. Second chunk summary.", merged.SummaryReport)
	assert.Equal(t, []string{"a", "b"}, merged.KeyPoints)
}
