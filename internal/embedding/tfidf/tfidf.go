package tfidf

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"regexp"
	"sort"
	"strings"
)

// Encoder is a deterministic local TF-IDF vectorizer. It builds a vocabulary
// from the corpus at build time; the fitted vocabulary must be persisted and
// reloaded so query vectors live in the same space as the indexed chunks.
type Encoder struct {
	vocabulary   map[string]int
	idf          []float64
	dimension    int
	prepared     bool
	tokenPattern *regexp.Regexp
	stopwords    map[string]struct{}
}

// NewEncoder creates an unprepared TF-IDF encoder.
func NewEncoder() *Encoder {
	return &Encoder{
		vocabulary:   make(map[string]int),
		tokenPattern: regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`),
		stopwords:    defaultStopwords(),
	}
}

// Name returns the identifier of this encoder implementation.
func (e *Encoder) Name() string { return "tfidf" }

// Dimension returns the dimensionality of the produced vectors.
func (e *Encoder) Dimension() int { return e.dimension }

// Prepare builds the vocabulary and IDF values from the provided corpus.
func (e *Encoder) Prepare(corpus []string) error {
	if len(corpus) == 0 {
		return errors.New("empty corpus for TF-IDF prepare")
	}
	df := make(map[string]int)
	for _, text := range corpus {
		seen := make(map[string]struct{})
		for _, tok := range e.tokenize(text) {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}
	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	if len(terms) == 0 {
		return errors.New("no tokens found in corpus")
	}
	e.vocabulary = make(map[string]int, len(terms))
	e.idf = make([]float64, len(terms))
	n := float64(len(corpus))
	for i, term := range terms {
		e.vocabulary[term] = i
		// Smoothed IDF
		e.idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1.0
	}
	e.dimension = len(terms)
	e.prepared = true
	return nil
}

// Encode computes L2-normalized TF-IDF vectors for the given texts.
func (e *Encoder) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	if !e.prepared {
		return nil, errors.New("tfidf encoder not prepared")
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = e.embed(text)
	}
	return out, nil
}

func (e *Encoder) embed(text string) []float32 {
	vec := make([]float64, e.dimension)
	tf := make(map[int]int)
	total := 0
	for _, tok := range e.tokenize(text) {
		if idx, ok := e.vocabulary[tok]; ok {
			tf[idx]++
			total++
		}
	}
	out := make([]float32, e.dimension)
	if total == 0 {
		return out
	}
	norm := 0.0
	for idx, count := range tf {
		v := float64(count) / float64(total) * e.idf[idx]
		vec[idx] = v
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for idx := range tf {
			out[idx] = float32(vec[idx] / norm)
		}
	}
	return out
}

// vocabularyFile is the on-disk shape of a fitted vocabulary. Terms are
// stored in vocabulary-index order so the IDF slice stays aligned.
type vocabularyFile struct {
	Terms []string  `json:"terms"`
	IDF   []float64 `json:"idf"`
}

// SaveVocabulary persists the fitted vocabulary and IDF values.
func (e *Encoder) SaveVocabulary(path string) error {
	if !e.prepared {
		return errors.New("tfidf encoder not prepared")
	}
	terms := make([]string, e.dimension)
	for term, idx := range e.vocabulary {
		terms[idx] = term
	}
	data, err := json.Marshal(vocabularyFile{Terms: terms, IDF: e.idf})
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadVocabulary restores a previously fitted vocabulary.
func (e *Encoder) LoadVocabulary(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var vf vocabularyFile
	if err := json.Unmarshal(data, &vf); err != nil {
		return fmt.Errorf("decode vocabulary %s: %w", path, err)
	}
	if len(vf.Terms) == 0 || len(vf.Terms) != len(vf.IDF) {
		return fmt.Errorf("vocabulary %s is corrupt", path)
	}
	e.vocabulary = make(map[string]int, len(vf.Terms))
	for i, term := range vf.Terms {
		e.vocabulary[term] = i
	}
	e.idf = vf.IDF
	e.dimension = len(vf.Terms)
	e.prepared = true
	return nil
}

func (e *Encoder) tokenize(text string) []string {
	raw := e.tokenPattern.FindAllString(strings.ToLower(text), -1)
	out := raw[:0]
	for _, t := range raw {
		if _, isStop := e.stopwords[t]; isStop {
			continue
		}
		out = append(out, t)
	}
	return out
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that", "these", "those", "from", "up", "down", "over", "under", "again", "further", "than", "so", "such", "into", "about", "between", "through", "during", "before", "after", "above", "below", "out", "off", "own", "same", "too", "very", "can", "will", "just", "don", "should", "now",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
