//-------------------------------------------------------------------------
//
// pgEdge Rerank Server
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package bm25

// Tokenizer turns document text into terms. Errors mark the text as
// unusable; they never abort corpus construction.
type Tokenizer interface {
	Tokenize(text string) ([]string, error)
}

// DocStats holds the statistics of a single document.
type DocStats struct {
	TermFreqs map[string]int // Term frequencies
	Length    int            // Number of tokens
}

// CorpusStats holds the statistics of one candidate set. It is built once
// per rerank call and not modified afterwards.
type CorpusStats struct {
	TotalDocs    int              // Documents that yielded at least one token
	AvgDocLength float64          // Mean token count over those documents
	DocFreqs     map[string]int   // term -> number of documents containing it
	Docs         map[int]DocStats // input position -> document statistics

	// Tokenless holds the positions of texts that were analyzed but
	// yielded no terms. They add nothing to the statistics and score 0.
	Tokenless map[int]bool

	Empty     int // Documents skipped because they had no text
	Malformed int // Documents skipped because tokenization failed
}

// Has reports whether the document at position i contributed statistics.
func (s *CorpusStats) Has(i int) bool {
	_, ok := s.Docs[i]
	return ok
}

// Scorable reports whether the document at position i takes part in
// ranking: it either contributed statistics or analyzed to no terms.
func (s *CorpusStats) Scorable(i int) bool {
	return s.Has(i) || s.Tokenless[i]
}

// BuildCorpus tokenizes every text and aggregates the corpus statistics.
// Documents are keyed by their position in texts. Texts that are empty,
// tokenize to nothing or fail to tokenize are left out of every statistic;
// only texts that tokenize to nothing are remembered in Tokenless.
func BuildCorpus(texts []string, tok Tokenizer) *CorpusStats {
	stats := &CorpusStats{
		DocFreqs:  make(map[string]int),
		Docs:      make(map[int]DocStats, len(texts)),
		Tokenless: make(map[int]bool),
	}
	totalLen := 0

	for i, text := range texts {
		if text == "" {
			stats.Empty++
			continue
		}

		tokens, err := tok.Tokenize(text)
		if err != nil {
			stats.Malformed++
			continue
		}
		if len(tokens) == 0 {
			stats.Tokenless[i] = true
			continue
		}

		doc := newDocStats(tokens)
		stats.Docs[i] = doc

		// Document frequency counts presence, not occurrences
		for term := range doc.TermFreqs {
			stats.DocFreqs[term]++
		}

		stats.TotalDocs++
		totalLen += doc.Length
	}

	if stats.TotalDocs > 0 {
		stats.AvgDocLength = float64(totalLen) / float64(stats.TotalDocs)
	}

	return stats
}

func newDocStats(tokens []string) DocStats {
	freqs := make(map[string]int, len(tokens))
	for _, token := range tokens {
		freqs[token]++
	}
	return DocStats{
		TermFreqs: freqs,
		Length:    len(tokens),
	}
}
