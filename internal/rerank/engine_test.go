//-------------------------------------------------------------------------
//
// pgEdge Rerank Server
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package rerank

import (
	"fmt"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/pgEdge/pgedge-rerank-server/internal/analysis"
	"github.com/pgEdge/pgedge-rerank-server/internal/language"
	"github.com/pgEdge/pgedge-rerank-server/internal/metrics"
)

var testAnalyzer = sync.OnceValue(func() *analysis.Pipeline {
	detector, err := language.NewDetector(language.Options{Fallback: language.English})
	if err != nil {
		panic(err)
	}
	return analysis.NewPipeline(detector, analysis.NewProvider(analysis.ProviderOptions{}))
})

func newTestEngine(t *testing.T, mutate ...func(*Config)) *Engine {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Analyzer = testAnalyzer()
	for _, m := range mutate {
		m(&cfg)
	}
	e, err := New(cfg)
	require.NoError(t, err)
	return e
}

func ids(docs []Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.ID
	}
	return out
}

func scoredIDs(scored []ScoredDocument) []string {
	return ids(Documents(scored))
}

func animalCorpus() []Document {
	return []Document{
		{ID: "D1", Content: "cats chase mice"},
		{ID: "D2", Content: "dogs chase cats"},
		{ID: "D3", Content: "completely unrelated text about weather"},
	}
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{})
	assert.ErrorContains(t, err, "analyzer is required")

	_, err = New(Config{Analyzer: testAnalyzer(), K1: -1, B: 0.75})
	assert.ErrorContains(t, err, "k1")

	_, err = New(Config{Analyzer: testAnalyzer(), K1: 1.2, B: 1.5})
	assert.ErrorContains(t, err, "b must be")

	e, err := New(Config{Analyzer: testAnalyzer(), K1: 1.2, B: 0})
	require.NoError(t, err)
	assert.Equal(t, 0.0, e.b)
}

func TestRerank_AnimalScenario(t *testing.T) {
	e := newTestEngine(t)

	got, err := e.Rerank(animalCorpus(), "cats chase", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"D1", "D2"}, ids(got))

	scored, err := e.RerankScored(animalCorpus(), "cats chase", 3)
	require.NoError(t, err)
	require.Len(t, scored, 3)
	assert.Equal(t, "D3", scored[2].ID)
	assert.Equal(t, 0.0, scored[2].Score)
	assert.Greater(t, scored[0].Score, 0.0)
	assert.Equal(t, scored[0].Score, scored[1].Score)
}

func TestRerank_SingleDocumentNoOverlap(t *testing.T) {
	e := newTestEngine(t)
	docs := []Document{{ID: "only", Content: "postgres replication slots"}}

	scored, err := e.RerankScored(docs, "banana smoothie recipe", 1)
	require.NoError(t, err)
	require.Len(t, scored, 1)
	assert.Equal(t, "only", scored[0].ID)
	assert.Equal(t, 0.0, scored[0].Score)
}

func TestRerank_LimitLargerThanCandidates(t *testing.T) {
	e := newTestEngine(t)

	got, err := e.Rerank(animalCorpus(), "cats chase", 10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"D1", "D2", "D3"}, ids(got))
	assert.Len(t, got, 3)
}

func TestRerank_EmptyInputs(t *testing.T) {
	e := newTestEngine(t)

	got, err := e.Rerank(nil, "cats", 5)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = e.Rerank(animalCorpus(), "cats", 0)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = e.Rerank([]Document{{ID: "a"}, {ID: "b", Content: "the and of"}}, "cats", 5)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRerank_NegativeLimit(t *testing.T) {
	e := newTestEngine(t)

	got, err := e.Rerank(animalCorpus(), "cats", -1)
	assert.ErrorIs(t, err, ErrInvalidLimit)
	assert.ErrorContains(t, err, "-1")
	assert.Nil(t, got)
}

func TestRerank_TokenlessDocumentsScoreZero(t *testing.T) {
	e := newTestEngine(t)
	docs := []Document{
		{ID: "empty", Content: ""},
		{ID: "stops", Content: "the and of"},
		{ID: "bad", Content: "broken \xff\xfe bytes"},
		{ID: "good", Content: "cats sleep all day"},
		{ID: "punct", Content: "!! ??"},
		{ID: "other", Content: "weather report for tomorrow"},
	}

	scored, err := e.RerankScored(docs, "sleeping cats", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"good", "stops", "punct", "other"}, scoredIDs(scored))
	assert.Greater(t, scored[0].Score, 0.0)
	for _, s := range scored[1:] {
		assert.Equal(t, 0.0, s.Score, s.ID)
	}

	// Texts without terms fill the result only after every matching document.
	got, err := e.Rerank(docs, "sleeping cats", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"good"}, ids(got))
}

func TestRerank_SingleCharacterTerms(t *testing.T) {
	e := newTestEngine(t)
	docs := []Document{
		{ID: "py2", Content: "python 2 release notes"},
		{ID: "py3", Content: "python 3 release notes"},
	}

	scored, err := e.RerankScored(docs, "python 3", 2)
	require.NoError(t, err)
	require.Len(t, scored, 2)
	assert.Equal(t, "py3", scored[0].ID)
	assert.Greater(t, scored[0].Score, scored[1].Score)
}

func TestRerank_LengthBound(t *testing.T) {
	e := newTestEngine(t)
	docs := []Document{
		{ID: "1", Content: "postgres vacuum tuning"},
		{ID: "2", Content: ""},
		{ID: "3", Content: "vacuum freeze and autovacuum"},
		{ID: "4", Content: "the of and"},
		{ID: "5", Content: "index bloat in postgres"},
	}
	withText := 4

	for k := 0; k <= 7; k++ {
		got, err := e.Rerank(docs, "postgres vacuum", k)
		require.NoError(t, err)
		assert.Len(t, got, min(k, withText), "k=%d", k)
	}
}

func TestRerank_PrefixConsistent(t *testing.T) {
	e := newTestEngine(t)
	docs := []Document{
		{ID: "a", Content: "replication lag on the standby"},
		{ID: "b", Content: "logical replication slots and replication origins"},
		{ID: "c", Content: "backup and restore"},
		{ID: "d", Content: "standby promotion"},
		{ID: "e", Content: "replication"},
		{ID: "f", Content: "monitoring replication lag"},
	}

	full, err := e.Rerank(docs, "replication lag", len(docs))
	require.NoError(t, err)

	for k := 0; k <= len(docs); k++ {
		got, err := e.Rerank(docs, "replication lag", k)
		require.NoError(t, err)
		assert.Equal(t, ids(full[:k]), ids(got), "k=%d", k)
	}
}

func TestRerank_ScoresNonNegativeAndSorted(t *testing.T) {
	e := newTestEngine(t)
	docs := []Document{
		{ID: "1", Content: "common term common term"},
		{ID: "2", Content: "common term"},
		{ID: "3", Content: "common"},
		{ID: "4", Content: "term rare"},
	}

	for _, q := range []string{"common", "common term", "rare", "nothing matches", ""} {
		scored, err := e.RerankScored(docs, q, len(docs))
		require.NoError(t, err)
		for i, s := range scored {
			assert.GreaterOrEqual(t, s.Score, 0.0, "query %q doc %s", q, s.ID)
			if i > 0 {
				assert.GreaterOrEqual(t, scored[i-1].Score, s.Score, "query %q", q)
			}
		}
	}
}

func TestRerank_StableTies(t *testing.T) {
	e := newTestEngine(t)
	docs := []Document{
		{ID: "x", Content: "unrelated words here"},
		{ID: "first", Content: "database tuning"},
		{ID: "second", Content: "database tuning"},
		{ID: "third", Content: "database tuning"},
	}

	got, err := e.Rerank(docs, "database", 4)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second", "third", "x"}, ids(got))
}

func TestRerank_TermFrequencyMonotonic(t *testing.T) {
	e := newTestEngine(t)
	docs := []Document{
		{ID: "A", Content: "apple pear plum"},
		{ID: "B", Content: "apple apple plum"},
		{ID: "C", Content: "grape melon kiwi"},
	}

	scored, err := e.RerankScored(docs, "apple", 3)
	require.NoError(t, err)

	byID := make(map[string]float64)
	for _, s := range scored {
		byID[s.ID] = s.Score
	}
	assert.GreaterOrEqual(t, byID["B"], byID["A"])
	assert.Equal(t, "B", scored[0].ID)
}

func TestRerank_Deterministic(t *testing.T) {
	e := newTestEngine(t)
	docs := []Document{
		{ID: "1", Content: "alpha beta gamma"},
		{ID: "2", Content: "beta gamma delta"},
		{ID: "3", Content: "gamma delta epsilon"},
		{ID: "4", Content: "alpha alpha"},
		{ID: "5", Content: "epsilon zeta"},
	}

	first, err := e.RerankScored(docs, "alpha gamma epsilon", 5)
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		again, err := e.RerankScored(docs, "alpha gamma epsilon", 5)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestRerank_ConcurrentCalls(t *testing.T) {
	e := newTestEngine(t)
	corpora := [][]Document{
		animalCorpus(),
		{
			{ID: "ru1", Content: "Кошки ловят мышей в саду"},
			{ID: "ru2", Content: "Погода сегодня солнечная и теплая"},
		},
	}
	queries := []string{"cats chase", "кошка"}

	want := make([][]ScoredDocument, len(corpora))
	for i := range corpora {
		got, err := e.RerankScored(corpora[i], queries[i], 5)
		require.NoError(t, err)
		want[i] = got
	}

	var g errgroup.Group
	for n := 0; n < 32; n++ {
		i := n % len(corpora)
		g.Go(func() error {
			got, err := e.RerankScored(corpora[i], queries[i], 5)
			if err != nil {
				return err
			}
			if fmt.Sprint(got) != fmt.Sprint(want[i]) {
				return fmt.Errorf("concurrent result %v differs from %v", got, want[i])
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
}

func TestRerank_Russian(t *testing.T) {
	e := newTestEngine(t)
	docs := []Document{
		{ID: "weather", Content: "Погода сегодня солнечная и теплая"},
		{ID: "cats", Content: "Кошки ловят мышей в саду"},
		{ID: "english", Content: "cats chase mice"},
	}

	scored, err := e.RerankScored(docs, "кошка", 3)
	require.NoError(t, err)
	require.Len(t, scored, 3)
	assert.Equal(t, "cats", scored[0].ID)
	assert.Greater(t, scored[0].Score, 0.0)
	assert.Equal(t, 0.0, scored[1].Score)
	assert.Equal(t, "weather", scored[1].ID)
}

func TestRerank_QueryTermDeduplication(t *testing.T) {
	docs := []Document{{ID: "a", Content: "cats sleep"}, {ID: "b", Content: "dogs bark"}}

	deduped := newTestEngine(t)
	weighted := newTestEngine(t, func(c *Config) { c.DedupeQueryTerms = false })

	once, err := deduped.RerankScored(docs, "cats cats", 1)
	require.NoError(t, err)
	twice, err := weighted.RerankScored(docs, "cats cats", 1)
	require.NoError(t, err)

	require.Len(t, once, 1)
	require.Len(t, twice, 1)
	assert.InDelta(t, 2*once[0].Score, twice[0].Score, 1e-12)
}

func TestRerank_PreservesDocumentsAndPositions(t *testing.T) {
	e := newTestEngine(t)
	docs := animalCorpus()
	docs[1].Metadata = map[string]any{"source": "kb"}

	scored, err := e.RerankScored(docs, "dogs", 3)
	require.NoError(t, err)
	require.NotEmpty(t, scored)
	assert.Equal(t, "D2", scored[0].ID)
	assert.Equal(t, 1, scored[0].Position)
	assert.Equal(t, "kb", scored[0].Metadata["source"])

	// The caller's slice is not reordered.
	assert.Equal(t, []string{"D1", "D2", "D3"}, ids(docs))
}

func TestRerank_Metrics(t *testing.T) {
	m := metrics.New()
	e := newTestEngine(t, func(c *Config) { c.Metrics = m })

	_, err := e.Rerank(animalCorpus(), "cats", 2)
	require.NoError(t, err)
	_, err = e.Rerank(nil, "cats", 2)
	require.NoError(t, err)
	_, err = e.Rerank(animalCorpus(), "cats", -3)
	require.Error(t, err)
	_, err = e.Rerank([]Document{{ID: "x"}, {ID: "y", Content: "dogs"}}, "cats", 2)
	require.NoError(t, err)
	// A query that cannot be analyzed is not counted as a detected language.
	_, err = e.Rerank(animalCorpus(), "broken \xff query", 2)
	require.NoError(t, err)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.RerankTotal.WithLabelValues(metrics.OutcomeRanked)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RerankTotal.WithLabelValues(metrics.OutcomeEmpty)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RerankTotal.WithLabelValues(metrics.OutcomeInvalid)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SkippedDocuments.WithLabelValues("empty")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.DetectedLanguages.WithLabelValues("english")))
}

func TestQueryLanguage(t *testing.T) {
	e := newTestEngine(t)
	assert.Equal(t, language.Russian, e.QueryLanguage("Где находится библиотека?"))
	assert.Equal(t, language.English, e.QueryLanguage("where is the library"))
}

func TestJoinContents(t *testing.T) {
	docs := []Document{{Content: "one"}, {Content: ""}, {Content: "two"}}
	assert.Equal(t, "one\ntwo", JoinContents(docs, "\n"))
	assert.Equal(t, "", JoinContents(nil, "\n"))
}
