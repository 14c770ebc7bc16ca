package analysis

import (
	"strings"
)

const (
	maxTopics            = 10
	topicWindowSize      = 10
	topicBoundarySim     = 0.7
	topicTitleMaxLen     = 50
	topicSummaryMaxLen   = 200
	defaultTopicTitle    = "Main Discussion"
	fallbackTopicTitle   = "Discussion Topic"
)

// Topic is a contiguous discussion segment with a short title and summary.
type Topic struct {
	Topic   string `json:"topic"`
	Summary string `json:"summary"`
}

// SegmentTopics groups utterance texts into fixed windows, vectorizes
// each window with TF-IDF, and opens a new topic wherever adjacent
// windows drop below the similarity threshold. Capped at 10 topics.
func SegmentTopics(texts []string) []Topic {
	if len(texts) == 0 {
		return []Topic{}
	}
	if len(texts) < topicWindowSize {
		return []Topic{{
			Topic:   defaultTopicTitle,
			Summary: truncate(strings.Join(texts, " "), topicSummaryMaxLen),
		}}
	}

	var windows []string
	for i := 0; i < len(texts); i += topicWindowSize {
		end := i + topicWindowSize
		if end > len(texts) {
			end = len(texts)
		}
		windows = append(windows, strings.Join(texts[i:end], " "))
	}

	vectors := tfidfVectors(windows)

	var topics []Topic
	start := 0
	for i := 1; i < len(vectors); i++ {
		if cosineSimilarity(vectors[i-1], vectors[i]) < topicBoundarySim {
			topics = append(topics, newTopic(windows[start:i]))
			start = i
		}
	}
	if start < len(windows) {
		topics = append(topics, newTopic(windows[start:]))
	}

	if len(topics) == 0 {
		topics = []Topic{{
			Topic:   defaultTopicTitle,
			Summary: truncate(strings.Join(windows, " "), topicSummaryMaxLen),
		}}
	}
	if len(topics) > maxTopics {
		topics = topics[:maxTopics]
	}
	return topics
}

func newTopic(windows []string) Topic {
	text := strings.Join(windows, " ")
	return Topic{
		Topic:   topicTitle(text),
		Summary: truncate(text, topicSummaryMaxLen),
	}
}

// topicTitle takes the first sentence, clipped to 50 characters.
func topicTitle(text string) string {
	first := strings.TrimSpace(sentenceSplitRe.Split(text, 2)[0])
	if len(first) > topicTitleMaxLen {
		return first[:topicTitleMaxLen-3] + "..."
	}
	if first == "" {
		return fallbackTopicTitle
	}
	return first
}
