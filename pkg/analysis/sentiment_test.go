package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnalyzeSentiment(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"positive", "This is a great plan, I love the proposal and the team did an excellent job!", SentimentPositive},
		{"negative", "This is terrible, the rollout was a horrible disaster and everyone is angry.", SentimentNegative},
		{"neutral", "The meeting starts at three.", SentimentNeutral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := AnalyzeSentiment(tt.text)
			assert.Equal(t, tt.want, result.Sentiment)
			assert.GreaterOrEqual(t, result.Score, -1.0)
			assert.LessOrEqual(t, result.Score, 1.0)
		})
	}
}

func TestAnalyzeBatchSentiment(t *testing.T) {
	result := AnalyzeBatchSentiment(nil)
	assert.Equal(t, SentimentNeutral, result.Sentiment)
	assert.Zero(t, result.Score)

	result = AnalyzeBatchSentiment([]string{
		"I love this, it is wonderful and amazing.",
		"Fantastic work, really great outcome!",
	})
	assert.Equal(t, SentimentPositive, result.Sentiment)
	assert.Positive(t, result.Score)
}
