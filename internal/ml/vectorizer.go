// Package ml implements the small, self-contained learning primitives the
// classification and anomaly pipelines are built from: a TF-IDF text
// vectorizer, a standard scaler, a random-forest classifier and k-means
// clustering. Every fitted model in this package serializes to JSON so
// trained bundles can be persisted and reloaded across processes.
package ml

import (
	"math"
	"sort"
	"strings"
)

// Short filler words excluded from the vocabulary.
var defaultStopWords = []string{
	"de", "la", "el", "en", "y", "a", "es", "se", "no", "te",
	"lo", "le", "da", "su", "por", "son", "al", "del", "un", "una",
}

// Vectorizer converts normalized text into TF-IDF weighted vectors over a
// vocabulary of the most frequent unigrams and bigrams.
type Vectorizer struct {
	Vocabulary  map[string]int `json:"vocabulary"`
	IDF         []float64      `json:"idf"`
	StopWords   []string       `json:"stop_words"`
	MaxFeatures int            `json:"max_features"`
}

// NewVectorizer creates an unfitted vectorizer with the default vocabulary
// size and stop-word list.
func NewVectorizer(maxFeatures int) *Vectorizer {
	if maxFeatures <= 0 {
		maxFeatures = 1000
	}
	return &Vectorizer{
		MaxFeatures: maxFeatures,
		StopWords:   defaultStopWords,
	}
}

// Dim returns the width of vectors produced by Transform.
func (v *Vectorizer) Dim() int {
	return len(v.Vocabulary)
}

func (v *Vectorizer) stopWordSet() map[string]struct{} {
	set := make(map[string]struct{}, len(v.StopWords))
	for _, w := range v.StopWords {
		set[w] = struct{}{}
	}
	return set
}

// tokenize splits a document into unigrams and bigrams, dropping stop words.
func (v *Vectorizer) tokenize(doc string, stop map[string]struct{}) []string {
	words := strings.Fields(doc)
	kept := make([]string, 0, len(words))
	for _, w := range words {
		if _, skip := stop[w]; skip {
			continue
		}
		kept = append(kept, w)
	}

	terms := make([]string, 0, len(kept)*2)
	terms = append(terms, kept...)
	for i := 0; i+1 < len(kept); i++ {
		terms = append(terms, kept[i]+" "+kept[i+1])
	}
	return terms
}

// Fit builds the vocabulary and IDF table from the given documents.
func (v *Vectorizer) Fit(docs []string) {
	stop := v.stopWordSet()

	termCounts := make(map[string]int)
	docCounts := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]struct{})
		for _, term := range v.tokenize(doc, stop) {
			termCounts[term]++
			if _, ok := seen[term]; !ok {
				seen[term] = struct{}{}
				docCounts[term]++
			}
		}
	}

	// Keep the most frequent terms; ties break alphabetically so a fit on
	// the same corpus always yields the same vocabulary.
	terms := make([]string, 0, len(termCounts))
	for term := range termCounts {
		terms = append(terms, term)
	}
	sort.Slice(terms, func(i, j int) bool {
		if termCounts[terms[i]] != termCounts[terms[j]] {
			return termCounts[terms[i]] > termCounts[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if len(terms) > v.MaxFeatures {
		terms = terms[:v.MaxFeatures]
	}

	v.Vocabulary = make(map[string]int, len(terms))
	v.IDF = make([]float64, len(terms))
	n := float64(len(docs))
	for i, term := range terms {
		v.Vocabulary[term] = i
		df := float64(docCounts[term])
		v.IDF[i] = math.Log((1+n)/(1+df)) + 1
	}
}

// Transform converts one document into an L2-normalized TF-IDF vector using
// the fitted vocabulary. Unknown terms are ignored.
func (v *Vectorizer) Transform(doc string) []float64 {
	vec := make([]float64, len(v.Vocabulary))
	stop := v.stopWordSet()

	for _, term := range v.tokenize(doc, stop) {
		if idx, ok := v.Vocabulary[term]; ok {
			vec[idx]++
		}
	}

	var norm float64
	for i := range vec {
		vec[i] *= v.IDF[i]
		norm += vec[i] * vec[i]
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec
}

// TransformAll vectorizes a batch of documents.
func (v *Vectorizer) TransformAll(docs []string) [][]float64 {
	out := make([][]float64, len(docs))
	for i, doc := range docs {
		out[i] = v.Transform(doc)
	}
	return out
}
