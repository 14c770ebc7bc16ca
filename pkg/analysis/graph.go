package analysis

import (
	"sort"
	"strings"

	"github.com/meetlens/meetlens/pkg/transcript"
)

const (
	graphLookahead      = 4
	graphMinCount       = 2
	graphMaxValue       = 10
	graphMaxTimestamps  = 3
	graphMaxLinkTopics  = 2
	graphSupportCutoff  = 0.3
	graphConflictCutoff = -0.3
)

// GraphNode is one speaker in the relationship graph.
type GraphNode struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Group int    `json:"group"`
}

// GraphLink is a directed interaction edge between two speakers.
type GraphLink struct {
	Source       string   `json:"source"`
	Target       string   `json:"target"`
	Type         string   `json:"type"`
	Value        int      `json:"value"`
	AvgSentiment float64  `json:"avgSentiment"`
	Initiator    string   `json:"initiator"`
	Timestamps   []string `json:"timestamps"`
	Topics       []string `json:"topics"`
}

// RelationshipGraph is the speaker interaction graph for a meeting.
type RelationshipGraph struct {
	Nodes []GraphNode `json:"nodes"`
	Links []GraphLink `json:"links"`
}

type interaction struct {
	count      int
	sentiments []float64
	timestamps []string
	topics     []string
	topicSeen  map[string]bool
}

// BuildRelationshipGraph derives a speaker graph from utterance
// adjacency. Every pair of different speakers within four utterances
// of each other counts as one interaction; pairs with at least two
// interactions become links typed by average sentiment.
func BuildRelationshipGraph(entries []transcript.Entry) RelationshipGraph {
	var nodes []GraphNode
	seen := make(map[string]bool)
	for _, e := range entries {
		if seen[e.Speaker] {
			continue
		}
		seen[e.Speaker] = true
		nodes = append(nodes, GraphNode{
			ID:    e.Speaker,
			Label: e.Label,
			Group: len(nodes) + 1,
		})
	}

	interactions := make(map[string]*interaction)
	for i, current := range entries {
		end := i + 1 + graphLookahead
		if end > len(entries) {
			end = len(entries)
		}
		for j := i + 1; j < end; j++ {
			next := entries[j]
			if current.Speaker == next.Speaker {
				continue
			}

			key := current.Speaker + "->" + next.Speaker
			in, ok := interactions[key]
			if !ok {
				in = &interaction{topicSeen: make(map[string]bool)}
				interactions[key] = in
			}

			in.count++
			in.sentiments = append(in.sentiments, sentimentScore(next.Sentiment))
			if len(in.timestamps) < graphMaxTimestamps {
				in.timestamps = append(in.timestamps, next.Timestamp)
			}
			for _, kw := range linkKeywords(next.Text) {
				if !in.topicSeen[kw] {
					in.topicSeen[kw] = true
					in.topics = append(in.topics, kw)
				}
			}
		}
	}

	keys := make([]string, 0, len(interactions))
	for key, in := range interactions {
		if in.count >= graphMinCount {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	var links []GraphLink
	for _, key := range keys {
		in := interactions[key]
		source, target, _ := strings.Cut(key, "->")

		var sum float64
		for _, s := range in.sentiments {
			sum += s
		}
		avg := sum / float64(len(in.sentiments))

		linkType := "neutral"
		switch {
		case avg > graphSupportCutoff:
			linkType = "support"
		case avg < graphConflictCutoff:
			linkType = "conflict"
		}

		value := in.count
		if value > graphMaxValue {
			value = graphMaxValue
		}
		topics := in.topics
		if len(topics) > graphMaxLinkTopics {
			topics = topics[:graphMaxLinkTopics]
		}

		links = append(links, GraphLink{
			Source:       source,
			Target:       target,
			Type:         linkType,
			Value:        value,
			AvgSentiment: avg,
			Initiator:    source,
			Timestamps:   in.timestamps,
			Topics:       topics,
		})
	}

	return RelationshipGraph{Nodes: nodes, Links: links}
}

func sentimentScore(sentiment string) float64 {
	switch strings.ToLower(sentiment) {
	case "positive":
		return 0.7
	case "negative":
		return -0.7
	default:
		return 0
	}
}

// linkKeywords pulls up to three coarse topic words from an utterance.
func linkKeywords(text string) []string {
	words := tokenize(text, 4)
	var out []string
	for _, w := range words {
		if stopwords[w] {
			continue
		}
		out = append(out, w)
		if len(out) == 3 {
			break
		}
	}
	return out
}
