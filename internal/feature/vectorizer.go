package feature

import (
	"sort"
	"strings"
)

// Vectorizer is a bag-of-ngrams text vectorizer over unigrams and bigrams
// with a bounded vocabulary. Fit selects the most frequent terms; Transform
// emits dense term counts in vocabulary order.
type Vectorizer struct {
	maxFeatures int
	vocab       []string
	index       map[string]int
}

// NewVectorizer creates a vectorizer with the given vocabulary bound.
func NewVectorizer(maxFeatures int) *Vectorizer {
	if maxFeatures <= 0 {
		maxFeatures = 100
	}
	return &Vectorizer{maxFeatures: maxFeatures}
}

// RestoreVectorizer rebuilds a vectorizer from a persisted vocabulary.
func RestoreVectorizer(vocab []string) *Vectorizer {
	v := &Vectorizer{maxFeatures: len(vocab), vocab: vocab}
	v.buildIndex()
	return v
}

// Fit learns the vocabulary: the maxFeatures most frequent terms across all
// documents, ties broken alphabetically for determinism.
func (v *Vectorizer) Fit(docs []string) {
	counts := make(map[string]int)
	for _, doc := range docs {
		for _, term := range ngrams(doc) {
			counts[term]++
		}
	}

	terms := make([]string, 0, len(counts))
	for term := range counts {
		terms = append(terms, term)
	}
	sort.Slice(terms, func(a, b int) bool {
		if counts[terms[a]] != counts[terms[b]] {
			return counts[terms[a]] > counts[terms[b]]
		}
		return terms[a] < terms[b]
	})

	if len(terms) > v.maxFeatures {
		terms = terms[:v.maxFeatures]
	}
	// Vocabulary order is alphabetical so columns are stable across fits.
	sort.Strings(terms)
	v.vocab = terms
	v.buildIndex()
}

// Transform emits one dense count row per document, columns in vocabulary order.
func (v *Vectorizer) Transform(docs []string) [][]float64 {
	out := make([][]float64, len(docs))
	for i, doc := range docs {
		row := make([]float64, len(v.vocab))
		for _, term := range ngrams(doc) {
			if j, ok := v.index[term]; ok {
				row[j]++
			}
		}
		out[i] = row
	}
	return out
}

// Vocabulary returns the fitted terms in column order.
func (v *Vectorizer) Vocabulary() []string {
	out := make([]string, len(v.vocab))
	copy(out, v.vocab)
	return out
}

func (v *Vectorizer) buildIndex() {
	v.index = make(map[string]int, len(v.vocab))
	for i, term := range v.vocab {
		v.index[term] = i
	}
}

// ngrams tokenizes a document into lowercase unigrams and bigrams.
func ngrams(doc string) []string {
	tokens := tokenize(doc)
	out := make([]string, 0, len(tokens)*2)
	out = append(out, tokens...)
	for i := 0; i+1 < len(tokens); i++ {
		out = append(out, tokens[i]+" "+tokens[i+1])
	}
	return out
}

func tokenize(doc string) []string {
	fields := strings.FieldsFunc(strings.ToLower(doc), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})
	out := fields[:0]
	for _, f := range fields {
		if len(f) > 1 {
			out = append(out, f)
		}
	}
	return out
}
