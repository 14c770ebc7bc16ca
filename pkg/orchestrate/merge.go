package orchestrate

import (
	"sort"
	"strings"

	"github.com/meetlens/meetlens/pkg/analysis"
)

// Per-dimension fan-in rules. All merges are commutative and idempotent
// with respect to chunk arrival order: dedup keys never depend on which
// chunk produced an item, only on the item itself.

const mergedItemMinLen = 10

// mergeKeywords sums keyword frequency across chunks and keeps the top
// 20 by combined count, ties broken by first appearance.
func mergeKeywords(chunkResults [][]string) []string {
	counts := make(map[string]int)
	display := make(map[string]string)
	order := make(map[string]int)
	next := 0

	for _, keywords := range chunkResults {
		for _, kw := range keywords {
			key := strings.ToLower(strings.TrimSpace(kw))
			if key == "" {
				continue
			}
			if _, ok := counts[key]; !ok {
				display[key] = strings.TrimSpace(kw)
				order[key] = next
				next++
			}
			counts[key]++
		}
	}

	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return order[keys[i]] < order[keys[j]]
	})

	if len(keys) > 20 {
		keys = keys[:20]
	}
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = display[k]
	}
	return out
}

// mergeStrings dedupes case-insensitively on trimmed text, keeps the
// first occurrence, drops items shorter than 10 characters, and caps
// the result.
func mergeStrings(chunkResults [][]string, limit int) []string {
	seen := make(map[string]bool)
	var out []string
	for _, items := range chunkResults {
		for _, item := range items {
			trimmed := strings.TrimSpace(item)
			key := strings.ToLower(trimmed)
			if len(trimmed) < mergedItemMinLen || seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, trimmed)
			if len(out) == limit {
				return out
			}
		}
	}
	return out
}

// mergeTopics merges by lowercase title, concatenating summaries on
// collision, capped at 10.
func mergeTopics(chunkResults [][]analysis.Topic) []analysis.Topic {
	index := make(map[string]int)
	var out []analysis.Topic

	for _, topics := range chunkResults {
		for _, topic := range topics {
			key := strings.ToLower(strings.TrimSpace(topic.Topic))
			if i, ok := index[key]; ok {
				if topic.Summary != "" && !strings.Contains(out[i].Summary, topic.Summary) {
					out[i].Summary = strings.TrimSpace(out[i].Summary + " " + topic.Summary)
				}
				continue
			}
			index[key] = len(out)
			out = append(out, topic)
		}
	}

	if len(out) > 10 {
		out = out[:10]
	}
	return out
}

func mergeQuestions(chunkResults [][]analysis.UnansweredQuestion) []analysis.UnansweredQuestion {
	seen := make(map[string]bool)
	var out []analysis.UnansweredQuestion
	for _, questions := range chunkResults {
		for _, q := range questions {
			key := q.Speaker + "|" + strings.ToLower(q.Question)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, q)
			if len(out) == 20 {
				return out
			}
		}
	}
	return out
}

func mergeInterruptions(chunkResults [][]analysis.Interruption) []analysis.Interruption {
	seen := make(map[string]bool)
	var out []analysis.Interruption
	for _, interruptions := range chunkResults {
		for _, in := range interruptions {
			key := in.Timestamp + "|" + in.Interrupter + "|" + in.Interrupted
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, in)
			if len(out) == 50 {
				return out
			}
		}
	}
	return out
}

// mergeGraphs unions nodes by id and links by (source, target), summing
// interaction counts, averaging sentiment, and unioning timestamps and
// topics. Link type is re-derived from the merged average sentiment.
func mergeGraphs(chunkResults []analysis.RelationshipGraph) analysis.RelationshipGraph {
	nodeSeen := make(map[string]bool)
	var nodes []analysis.GraphNode

	type acc struct {
		link         analysis.GraphLink
		sentimentSum float64
		parts        int
		tsSeen       map[string]bool
		topicSeen    map[string]bool
	}
	linkAcc := make(map[string]*acc)
	var linkOrder []string

	for _, graph := range chunkResults {
		for _, node := range graph.Nodes {
			if nodeSeen[node.ID] {
				continue
			}
			nodeSeen[node.ID] = true
			node.Group = len(nodes) + 1
			nodes = append(nodes, node)
		}
		for _, link := range graph.Links {
			key := link.Source + "->" + link.Target
			a, ok := linkAcc[key]
			if !ok {
				a = &acc{
					link:      analysis.GraphLink{Source: link.Source, Target: link.Target, Initiator: link.Initiator},
					tsSeen:    make(map[string]bool),
					topicSeen: make(map[string]bool),
				}
				linkAcc[key] = a
				linkOrder = append(linkOrder, key)
			}
			a.link.Value += link.Value
			a.sentimentSum += link.AvgSentiment
			a.parts++
			for _, ts := range link.Timestamps {
				if !a.tsSeen[ts] {
					a.tsSeen[ts] = true
					a.link.Timestamps = append(a.link.Timestamps, ts)
				}
			}
			for _, topic := range link.Topics {
				if !a.topicSeen[topic] {
					a.topicSeen[topic] = true
					a.link.Topics = append(a.link.Topics, topic)
				}
			}
		}
	}

	var links []analysis.GraphLink
	for _, key := range linkOrder {
		a := linkAcc[key]
		if a.link.Value > 10 {
			a.link.Value = 10
		}
		a.link.AvgSentiment = a.sentimentSum / float64(a.parts)
		switch {
		case a.link.AvgSentiment > 0.3:
			a.link.Type = "support"
		case a.link.AvgSentiment < -0.3:
			a.link.Type = "conflict"
		default:
			a.link.Type = "neutral"
		}
		links = append(links, a.link)
	}

	return analysis.RelationshipGraph{Nodes: nodes, Links: links}
}

// mergeSummaries concatenates non-empty per-chunk summaries.
func mergeSummaries(chunkResults []analysis.SummaryResult) analysis.SummaryResult {
	var parts []string
	var keyPoints []string
	for _, s := range chunkResults {
		if strings.TrimSpace(s.SummaryReport) != "" && s.SummaryReport != "No content to summarize." {
			parts = append(parts, strings.TrimSpace(s.SummaryReport))
		}
		keyPoints = append(keyPoints, s.KeyPoints...)
	}
	return analysis.SummaryResult{
		SummaryReport: strings.Join(parts, " "),
		KeyPoints:     keyPoints,
	}
}
