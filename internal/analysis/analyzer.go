//-------------------------------------------------------------------------
//
// pgEdge Rerank Server
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package analysis turns text into normalized, stemmed terms using a
// language specific analyzer.
package analysis

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/kljensen/snowball/english"
	"github.com/kljensen/snowball/russian"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/pgEdge/pgedge-rerank-server/internal/language"
)

// DefaultMinTokenLength is the shortest token (in runes) that is kept.
// Single letters and digits such as the 3 in "python 3" are terms.
const DefaultMinTokenLength = 1

// ErrMalformedText is returned when text cannot be analyzed, for example
// because it is not valid UTF-8.
var ErrMalformedText = errors.New("malformed text")

// analyzer holds the per-language rules plus scratch state. The caser and
// the builder are mutable, so an analyzer must only be used by one
// goroutine at a time.
type analyzer struct {
	lang      language.Language
	stopWords map[string]struct{}
	prepare   func(string) string
	stem      func(string) string
	minLength int

	caser cases.Caser
	term  strings.Builder
}

func newAnalyzer(lang language.Language, minLength int) *analyzer {
	a := &analyzer{
		lang:      lang,
		minLength: minLength,
		caser:     cases.Fold(),
		prepare:   func(s string) string { return s },
	}

	switch lang {
	case language.Russian:
		a.stopWords = RussianStopWords
		a.prepare = foldYo
		a.stem = func(s string) string { return russian.Stem(s, true) }
	default:
		a.stopWords = EnglishStopWords
		a.prepare = stripPossessive
		a.stem = func(s string) string { return english.Stem(s, true) }
	}

	return a
}

// stripPossessive removes the English possessive suffix: cat's -> cat.
func stripPossessive(s string) string {
	return strings.TrimSuffix(s, "'s")
}

// foldYo maps ё to е, which Russian text uses interchangeably.
func foldYo(s string) string {
	return strings.ReplaceAll(s, "ё", "е")
}

// analyze splits text into stemmed terms. Stemmer panics are reported as
// ErrMalformedText so that one bad document cannot take down a batch.
func (a *analyzer) analyze(text string) (tokens []string, err error) {
	if !utf8.ValidString(text) {
		return nil, ErrMalformedText
	}

	defer func() {
		if r := recover(); r != nil {
			tokens = nil
			err = fmt.Errorf("%w: %v", ErrMalformedText, r)
		}
	}()

	text = a.caser.String(norm.NFKC.String(text))
	a.term.Reset()

	for _, r := range text {
		if isTermRune(r) {
			a.term.WriteRune(r)
			continue
		}
		// Apostrophes join the letters around them (don't, cat's).
		if isApostrophe(r) && a.term.Len() > 0 {
			a.term.WriteByte('\'')
			continue
		}
		tokens = a.flush(tokens)
	}
	tokens = a.flush(tokens)

	return tokens, nil
}

// flush emits the pending term if it survives filtering.
func (a *analyzer) flush(tokens []string) []string {
	if a.term.Len() == 0 {
		return tokens
	}
	word := a.prepare(strings.TrimRight(a.term.String(), "'"))
	a.term.Reset()

	if word == "" {
		return tokens
	}
	if utf8.RuneCountInString(word) < a.minLength {
		return tokens
	}
	if _, stop := a.stopWords[word]; stop {
		return tokens
	}

	stemmed := a.stem(word)
	if stemmed == "" {
		return tokens
	}
	return append(tokens, stemmed)
}

func isApostrophe(r rune) bool {
	return r == '\'' || r == '’'
}

func isTermRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r)
}
