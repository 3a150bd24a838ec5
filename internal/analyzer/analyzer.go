// Package analyzer turns raw text into the tokenized documents the core
// index consumes. It is producer-side tooling, not part of the core
// indexing/query engine: the core only ever sees already-tokenized
// []string slices, so stemming and stopword choices here never affect
// the on-disk format or the retrieval algorithms.
package analyzer

import (
	"strings"
	"unicode"

	snowballeng "github.com/kljensen/snowball/english"
)

// Config controls the tokenization pipeline.
type Config struct {
	MinTokenLength  int
	EnableStemming  bool
	EnableStopwords bool
}

// DefaultConfig is the pipeline Analyze runs.
func DefaultConfig() Config {
	return Config{
		MinTokenLength:  2,
		EnableStemming:  true,
		EnableStopwords: true,
	}
}

// Analyze runs the default pipeline: tokenize, lowercase, remove
// stopwords, drop short tokens, stem.
func Analyze(text string) []string {
	return AnalyzeWithConfig(text, DefaultConfig())
}

// AnalyzeWithConfig runs the pipeline with a custom configuration.
func AnalyzeWithConfig(text string, cfg Config) []string {
	tokens := tokenize(text)
	tokens = lowercaseFilter(tokens)

	if cfg.EnableStopwords {
		tokens = stopwordFilter(tokens)
	}

	tokens = lengthFilter(tokens, cfg.MinTokenLength)

	if cfg.EnableStemming {
		tokens = stemmerFilter(tokens)
	}

	return tokens
}

// tokenize splits on any rune that isn't a letter or digit, Unicode-aware.
func tokenize(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

func lowercaseFilter(tokens []string) []string {
	r := make([]string, len(tokens))
	for i, token := range tokens {
		r[i] = strings.ToLower(token)
	}
	return r
}

func stopwordFilter(tokens []string) []string {
	r := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if !isStopword(token) {
			r = append(r, token)
		}
	}
	return r
}

func lengthFilter(tokens []string, minLength int) []string {
	r := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if len(token) >= minLength {
			r = append(r, token)
		}
	}
	return r
}

// stemmerFilter reduces tokens to their Porter2/Snowball root form.
func stemmerFilter(tokens []string) []string {
	r := make([]string, len(tokens))
	for i, token := range tokens {
		r[i] = snowballeng.Stem(token, false)
	}
	return r
}

// englishStopwords is a small English stop set (the classic Lucene list).
var englishStopwords = func() map[string]struct{} {
	m := make(map[string]struct{})
	for _, w := range strings.Fields("a an and are as at be but by for if in into is it no not of on or such that the their then there these they this to was will with") {
		m[w] = struct{}{}
	}
	return m
}()

func isStopword(token string) bool {
	_, exists := englishStopwords[token]
	return exists
}
