package analysis

import (
	"sync"

	"github.com/jonreiter/govader"
)

// Sentiment labels.
const (
	SentimentPositive = "Positive"
	SentimentNegative = "Negative"
	SentimentNeutral  = "Neutral"
)

// SentimentResult carries a label plus the VADER compound score in [-1, 1].
type SentimentResult struct {
	Sentiment string  `json:"sentiment"`
	Score     float64 `json:"score"`
}

var (
	vaderOnce     sync.Once
	vaderAnalyzer *govader.SentimentIntensityAnalyzer
	vaderMu       sync.Mutex
)

// AnalyzeSentiment scores text with VADER and classifies the compound
// score at the standard +-0.05 thresholds.
func AnalyzeSentiment(text string) SentimentResult {
	vaderOnce.Do(func() {
		vaderAnalyzer = govader.NewSentimentIntensityAnalyzer()
	})
	vaderMu.Lock()
	scores := vaderAnalyzer.PolarityScores(text)
	vaderMu.Unlock()

	return SentimentResult{
		Sentiment: classifySentiment(scores.Compound),
		Score:     scores.Compound,
	}
}

// AnalyzeBatchSentiment averages the compound scores of texts.
func AnalyzeBatchSentiment(texts []string) SentimentResult {
	if len(texts) == 0 {
		return SentimentResult{Sentiment: SentimentNeutral, Score: 0}
	}

	var sum float64
	for _, t := range texts {
		sum += AnalyzeSentiment(t).Score
	}
	avg := sum / float64(len(texts))

	return SentimentResult{Sentiment: classifySentiment(avg), Score: avg}
}

func classifySentiment(compound float64) string {
	switch {
	case compound >= 0.05:
		return SentimentPositive
	case compound <= -0.05:
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}
