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
	"fmt"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"
)

// BatchRequest is one independent rerank call inside a batch.
type BatchRequest struct {
	Documents []Document
	Query     string
	Limit     int
}

// BatchResult carries the outcome of the request at the same index.
type BatchResult struct {
	Documents []ScoredDocument
	Err       error
}

// BatchRunner executes rerank requests on a bounded worker pool.
type BatchRunner struct {
	engine *Engine
	pool   *ants.Pool
}

// NewBatchRunner creates a runner with size workers. A size below 1
// selects runtime.NumCPU().
func NewBatchRunner(engine *Engine, size int) (*BatchRunner, error) {
	if engine == nil {
		return nil, fmt.Errorf("engine is required")
	}
	if size < 1 {
		size = runtime.NumCPU()
	}

	pool, err := ants.NewPool(size)
	if err != nil {
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}

	return &BatchRunner{
		engine: engine,
		pool:   pool,
	}, nil
}

// Run executes every request and returns the results in request order.
// A failing request only fails its own result. If ctx is cancelled before
// all requests finish, Run returns ctx.Err(); requests already running are
// left to complete in the background.
func (r *BatchRunner) Run(ctx context.Context, reqs []BatchRequest) ([]BatchResult, error) {
	results := make([]BatchResult, len(reqs))
	if len(reqs) == 0 {
		return results, nil
	}

	var wg sync.WaitGroup
	for i := range reqs {
		if err := ctx.Err(); err != nil {
			wg.Wait()
			return nil, err
		}

		wg.Add(1)
		err := r.pool.Submit(func() {
			defer wg.Done()
			if ctx.Err() != nil {
				results[i].Err = ctx.Err()
				return
			}
			req := reqs[i]
			docs, err := r.engine.RerankScored(req.Documents, req.Query, req.Limit)
			results[i] = BatchResult{Documents: docs, Err: err}
		})
		if err != nil {
			wg.Done()
			results[i].Err = fmt.Errorf("failed to schedule request: %w", err)
		}
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return results, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close releases the worker pool.
func (r *BatchRunner) Close() {
	r.pool.Release()
}
