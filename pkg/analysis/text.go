// Package analysis implements the deterministic, model-free text
// analyzers: keyword extraction, action items, decisions, sentiment,
// extractive summarization, topic segmentation, unanswered questions,
// interruptions, and the speaker relationship graph. All functions are
// pure and perform no I/O.
package analysis

import (
	"math"
	"regexp"
	"strings"
)

var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"in": true, "on": true, "at": true, "to": true, "for": true, "of": true,
	"with": true, "by": true, "from": true, "as": true, "is": true, "was": true,
	"are": true, "were": true, "been": true, "be": true, "have": true, "has": true,
	"had": true, "do": true, "does": true, "did": true, "will": true, "would": true,
	"should": true, "could": true, "may": true, "might": true, "must": true,
	"can": true, "this": true, "that": true, "these": true, "those": true,
	"i": true, "you": true, "he": true, "she": true, "it": true, "we": true,
	"they": true, "what": true, "which": true, "who": true, "when": true,
	"where": true, "why": true, "how": true, "um": true, "uh": true,
	"yeah": true, "yes": true, "no": true, "okay": true, "ok": true,
	"well": true, "so": true, "like": true, "just": true,
}

var nonWordRe = regexp.MustCompile(`[^\w\s]`)

// tokenize lowercases, strips punctuation, and keeps words longer than
// minLen characters.
func tokenize(text string, minLen int) []string {
	cleaned := nonWordRe.ReplaceAllString(strings.ToLower(text), " ")
	var out []string
	for _, w := range strings.Fields(cleaned) {
		if len(w) > minLen {
			out = append(out, w)
		}
	}
	return out
}

var sentenceSplitRe = regexp.MustCompile(`[.!?]+`)

// splitSentences splits text on terminal punctuation and drops fragments
// of 10 characters or fewer.
func splitSentences(text string) []string {
	var out []string
	for _, s := range sentenceSplitRe.Split(text, -1) {
		s = strings.TrimSpace(s)
		if len(s) > 10 {
			out = append(out, s)
		}
	}
	return out
}

// termVector is a sparse term-weight vector.
type termVector map[string]float64

// tfidfVectors computes per-sentence TF-IDF vectors with IDF taken over
// the sentence set itself.
func tfidfVectors(sentences []string) []termVector {
	n := len(sentences)
	tokenized := make([][]string, n)
	df := make(map[string]int)

	for i, s := range sentences {
		tokenized[i] = tokenize(s, 2)
		seen := make(map[string]bool)
		for _, w := range tokenized[i] {
			if !seen[w] {
				seen[w] = true
				df[w]++
			}
		}
	}

	vectors := make([]termVector, n)
	for i, words := range tokenized {
		vec := make(termVector)
		if len(words) == 0 {
			vectors[i] = vec
			continue
		}
		counts := make(map[string]int)
		for _, w := range words {
			counts[w]++
		}
		for w, c := range counts {
			tf := float64(c) / float64(len(words))
			idf := math.Log(float64(n) / float64(df[w]))
			vec[w] = tf * idf
		}
		vectors[i] = vec
	}
	return vectors
}

// cosineSimilarity computes cosine similarity between two sparse vectors.
func cosineSimilarity(a, b termVector) float64 {
	var dot, magA, magB float64
	for w, va := range a {
		magA += va * va
		if vb, ok := b[w]; ok {
			dot += va * vb
		}
	}
	for _, vb := range b {
		magB += vb * vb
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}

// truncate shortens s to max characters, appending an ellipsis when
// anything was cut.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
