package analysis

import (
	"math"
	"sort"
	"strings"
)

const (
	// DefaultSummarySentences is the summary length when callers pass 0.
	DefaultSummarySentences = 5

	lexRankThreshold   = 0.1
	lexRankDamping     = 0.85
	lexRankIterations  = 30
	lexRankConvergence = 0.0001
)

// SummaryResult is an extractive summary plus the selected key sentences.
type SummaryResult struct {
	SummaryReport string   `json:"summaryReport"`
	KeyPoints     []string `json:"keyPoints"`
}

// GenerateSummary ranks sentences by LexRank (TF-IDF weighted cosine
// similarity fed through PageRank) and keeps the top maxSentences in
// their original order.
func GenerateSummary(transcript string, maxSentences int) SummaryResult {
	if maxSentences <= 0 {
		maxSentences = DefaultSummarySentences
	}

	sentences := splitSentences(transcript)
	if len(sentences) == 0 {
		return SummaryResult{SummaryReport: "No content to summarize.", KeyPoints: []string{}}
	}
	if len(sentences) <= maxSentences {
		return SummaryResult{
			SummaryReport: strings.Join(sentences, " "),
			KeyPoints:     sentences,
		}
	}

	scores := lexRankScores(sentences)

	type ranked struct {
		index int
		score float64
	}
	order := make([]ranked, len(sentences))
	for i, s := range scores {
		order[i] = ranked{index: i, score: s}
	}
	sort.SliceStable(order, func(a, b int) bool { return order[a].score > order[b].score })
	order = order[:maxSentences]
	sort.Slice(order, func(a, b int) bool { return order[a].index < order[b].index })

	keyPoints := make([]string, len(order))
	for i, r := range order {
		keyPoints[i] = sentences[r.index]
	}
	return SummaryResult{
		SummaryReport: strings.Join(keyPoints, " "),
		KeyPoints:     keyPoints,
	}
}

func lexRankScores(sentences []string) []float64 {
	n := len(sentences)
	vectors := tfidfVectors(sentences)

	similarity := make([][]float64, n)
	for i := range similarity {
		similarity[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			if sim := cosineSimilarity(vectors[i], vectors[j]); sim >= lexRankThreshold {
				similarity[i][j] = sim
			}
		}
	}

	rowSums := make([]float64, n)
	for j := 0; j < n; j++ {
		for _, v := range similarity[j] {
			rowSums[j] += v
		}
	}

	scores := make([]float64, n)
	for i := range scores {
		scores[i] = 1.0
	}
	next := make([]float64, n)

	for iter := 0; iter < lexRankIterations; iter++ {
		var maxChange float64
		for i := 0; i < n; i++ {
			var sum float64
			for j := 0; j < n; j++ {
				if i != j && rowSums[j] > 0 {
					sum += similarity[j][i] / rowSums[j] * scores[j]
				}
			}
			next[i] = (1 - lexRankDamping) + lexRankDamping*sum
			maxChange = math.Max(maxChange, math.Abs(next[i]-scores[i]))
		}
		copy(scores, next)
		if maxChange < lexRankConvergence {
			break
		}
	}
	return scores
}
