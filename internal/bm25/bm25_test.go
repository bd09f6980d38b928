//-------------------------------------------------------------------------
//
// pgEdge Rerank Server
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package bm25

import (
	"math"
	"reflect"
	"testing"
)

func TestBM25_New(t *testing.T) {
	bm := New()
	if bm.K1 != DefaultK1 {
		t.Errorf("expected K1 %f, got %f", DefaultK1, bm.K1)
	}
	if bm.B != DefaultB {
		t.Errorf("expected B %f, got %f", DefaultB, bm.B)
	}
}

func TestBM25_NewWithParams(t *testing.T) {
	bm := NewWithParams(1.5, 0.5)
	if bm.K1 != 1.5 {
		t.Errorf("expected K1 1.5, got %f", bm.K1)
	}
	if bm.B != 0.5 {
		t.Errorf("expected B 0.5, got %f", bm.B)
	}
}

func TestBM25_IDF(t *testing.T) {
	bm := New()
	bm.SetCorpusStats(100, 50)

	// Using Lucene-style IDF: log(1 + (N - df + 0.5) / (df + 0.5))
	// This always produces non-negative values
	tests := []struct {
		name    string
		docFreq int
		wantGT  float64 // Score should be greater than this
		wantLT  float64 // Score should be less than this
	}{
		{"rare term", 1, 4.0, 4.5},        // log(1 + 99.5/1.5) ≈ 4.21
		{"common term", 50, 0.5, 0.8},     // log(1 + 50.5/50.5) = log(2) ≈ 0.69
		{"very common term", 99, 0, 0.02}, // log(1 + 1.5/99.5) ≈ 0.015
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idf := bm.IDF(tt.docFreq)
			if idf <= tt.wantGT || idf >= tt.wantLT {
				t.Errorf("IDF(%d) = %f, want between %f and %f",
					tt.docFreq, idf, tt.wantGT, tt.wantLT)
			}
		})
	}
}

func TestBM25_IDF_EdgeCases(t *testing.T) {
	bm := New()

	// No corpus stats set
	if idf := bm.IDF(10); idf != 0 {
		t.Errorf("expected 0 for no corpus stats, got %f", idf)
	}

	bm.SetCorpusStats(100, 50)

	// Zero doc frequency
	if idf := bm.IDF(0); idf != 0 {
		t.Errorf("expected 0 for zero doc frequency, got %f", idf)
	}
}

func TestBM25_Score(t *testing.T) {
	bm := New()
	bm.SetCorpusStats(100, 50)

	// Test that score increases with term frequency
	score1 := bm.Score(1, 10, 50)
	score2 := bm.Score(5, 10, 50)
	if score2 <= score1 {
		t.Error("score should increase with term frequency")
	}

	// Test that score decreases with document length (for same tf)
	shortDoc := bm.Score(5, 10, 25)
	longDoc := bm.Score(5, 10, 100)
	if longDoc >= shortDoc {
		t.Error("score should decrease with document length")
	}

	// Test that rare terms have higher scores
	rareTermScore := bm.Score(1, 5, 50)
	commonTermScore := bm.Score(1, 50, 50)
	if commonTermScore >= rareTermScore {
		t.Error("rare terms should score higher than common terms")
	}
}

func TestBM25_Score_EdgeCases(t *testing.T) {
	bm := New()
	bm.SetCorpusStats(100, 50)

	if score := bm.Score(0, 10, 50); score != 0 {
		t.Errorf("expected 0 for zero tf, got %f", score)
	}

	if score := bm.Score(5, 0, 50); score != 0 {
		t.Errorf("expected 0 for zero doc freq, got %f", score)
	}
}

func TestBM25_ScoreDocument(t *testing.T) {
	bm := New()
	bm.SetCorpusStats(100, 50)

	doc := DocStats{
		TermFreqs: map[string]int{"hello": 2, "world": 1, "foo": 5},
		Length:    50,
	}
	docFreqs := map[string]int{"hello": 10, "world": 50, "foo": 80}

	score := bm.ScoreDocument([]string{"hello", "world"}, doc, docFreqs)
	if score <= 0 {
		t.Error("expected positive score")
	}

	want := bm.Score(2, 10, 50) + bm.Score(1, 50, 50)
	if score != want {
		t.Errorf("expected sum of term scores %f, got %f", want, score)
	}
}

func TestBM25_ScoreDocument_NoMatch(t *testing.T) {
	bm := New()
	bm.SetCorpusStats(100, 50)

	doc := DocStats{
		TermFreqs: map[string]int{"foo": 5, "bar": 3},
		Length:    8,
	}
	docFreqs := map[string]int{"hello": 10, "foo": 80, "bar": 60}

	score := bm.ScoreDocument([]string{"hello"}, doc, docFreqs)
	if score != 0 {
		t.Errorf("expected 0 for no matching terms, got %f", score)
	}
}

func TestBM25_ScoreDocument_ZeroAverageLength(t *testing.T) {
	bm := New()
	bm.SetCorpusStats(3, 0)

	doc := DocStats{TermFreqs: map[string]int{"hello": 1}, Length: 1}
	score := bm.ScoreDocument([]string{"hello"}, doc, map[string]int{"hello": 1})
	if score != 0 {
		t.Errorf("expected 0 when average length is 0, got %f", score)
	}
}

func TestBM25_ScoreDocument_RepeatedQueryTerm(t *testing.T) {
	bm := New()
	bm.SetCorpusStats(10, 5)

	doc := DocStats{TermFreqs: map[string]int{"hello": 1}, Length: 5}
	docFreqs := map[string]int{"hello": 2}

	once := bm.ScoreDocument([]string{"hello"}, doc, docFreqs)
	twice := bm.ScoreDocument([]string{"hello", "hello"}, doc, docFreqs)
	if twice != 2*once {
		t.Errorf("expected repeated term to count twice: once=%f twice=%f", once, twice)
	}
}

func TestBM25_Score_MatchesFormula(t *testing.T) {
	bm := New()
	bm.SetCorpusStats(3, 11.0/3.0)

	// tf=1, df=2, |D|=3
	idf := math.Log(1 + (3-2+0.5)/(2+0.5))
	norm := 1 - DefaultB + DefaultB*3/(11.0/3.0)
	want := idf * (1 * (DefaultK1 + 1)) / (1 + DefaultK1*norm)

	got := bm.Score(1, 2, 3)
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("Score(1, 2, 3) = %.15f, want %.15f", got, want)
	}
}

func TestBM25_IDF_NonNegative(t *testing.T) {
	bm := New()
	for n := 1; n <= 50; n++ {
		bm.SetCorpusStats(n, 10)
		for df := 1; df <= n; df++ {
			if idf := bm.IDF(df); idf < 0 {
				t.Fatalf("IDF(%d) with N=%d is negative: %f", df, n, idf)
			}
		}
	}
}

func TestBM25_Score_TermFrequencyMonotonic(t *testing.T) {
	bm := New()
	bm.SetCorpusStats(20, 30)

	prev := 0.0
	for tf := 1; tf <= 25; tf++ {
		s := bm.Score(tf, 4, 30)
		if s < prev {
			t.Fatalf("score decreased from %f to %f at tf=%d", prev, s, tf)
		}
		prev = s
	}
}

func TestQueryTerms(t *testing.T) {
	tokens := []string{"cat", "chase", "cat", "mice", "chase"}

	deduped := QueryTerms(tokens, true)
	if !reflect.DeepEqual(deduped, []string{"cat", "chase", "mice"}) {
		t.Errorf("QueryTerms(dedupe) = %v", deduped)
	}

	raw := QueryTerms(tokens, false)
	if !reflect.DeepEqual(raw, tokens) {
		t.Errorf("QueryTerms(no dedupe) = %v", raw)
	}

	if got := QueryTerms(nil, true); len(got) != 0 {
		t.Errorf("expected empty result, got %v", got)
	}
}
