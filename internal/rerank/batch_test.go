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
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRunner(t *testing.T, size int) *BatchRunner {
	t.Helper()
	r, err := NewBatchRunner(newTestEngine(t), size)
	require.NoError(t, err)
	t.Cleanup(r.Close)
	return r
}

func TestNewBatchRunner_RequiresEngine(t *testing.T) {
	_, err := NewBatchRunner(nil, 2)
	assert.Error(t, err)
}

func TestBatchRunner_PreservesOrder(t *testing.T) {
	r := newTestRunner(t, 2)

	reqs := make([]BatchRequest, 0, 12)
	for i := 0; i < 6; i++ {
		reqs = append(reqs,
			BatchRequest{Documents: animalCorpus(), Query: "cats chase", Limit: 2},
			BatchRequest{Documents: animalCorpus(), Query: "weather", Limit: 1},
		)
	}

	results, err := r.Run(context.Background(), reqs)
	require.NoError(t, err)
	require.Len(t, results, len(reqs))

	for i, res := range results {
		require.NoError(t, res.Err)
		if i%2 == 0 {
			assert.Equal(t, []string{"D1", "D2"}, ids(Documents(res.Documents)))
		} else {
			assert.Equal(t, []string{"D3"}, ids(Documents(res.Documents)))
		}
	}
}

func TestBatchRunner_ErrorsAreIsolated(t *testing.T) {
	r := newTestRunner(t, 0)

	results, err := r.Run(context.Background(), []BatchRequest{
		{Documents: animalCorpus(), Query: "dogs", Limit: 1},
		{Documents: animalCorpus(), Query: "dogs", Limit: -1},
		{Documents: nil, Query: "dogs", Limit: 3},
	})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.NoError(t, results[0].Err)
	assert.Equal(t, []string{"D2"}, ids(Documents(results[0].Documents)))

	assert.ErrorIs(t, results[1].Err, ErrInvalidLimit)
	assert.Nil(t, results[1].Documents)

	assert.NoError(t, results[2].Err)
	assert.Empty(t, results[2].Documents)
}

func TestBatchRunner_Empty(t *testing.T) {
	r := newTestRunner(t, 1)

	results, err := r.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestBatchRunner_CancelledContext(t *testing.T) {
	r := newTestRunner(t, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := r.Run(ctx, []BatchRequest{
		{Documents: animalCorpus(), Query: "cats", Limit: 1},
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, results)
}
