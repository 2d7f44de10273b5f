package tasks

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// BatchOpts contains configuration for paced batches of backend calls.
type BatchOpts struct {
	Workers   int     // Concurrent workers (default: 4, max 10)
	RateLimit float64 // Requests per second (default: 5)
}

// BatchResult is the outcome of one call in a batch.
type BatchResult[T any] struct {
	Index int
	Value T
	Err   error
}

// RunBatch calls fn n times through a worker pool, starting at most RateLimit calls per second.
//
// Results are returned in index order. Items never dispatched carry the limiter's wait error.
// Individual failures do not stop the batch.
func RunBatch[T any](
	ctx context.Context,
	prog chan<- ProgressUpdate,
	n int,
	opts BatchOpts,
	fn func(ctx context.Context, i int) (T, error),
) []BatchResult[T] {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.Workers > 10 {
		opts.Workers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	out := make([]BatchResult[T], n)
	for i := range out {
		out[i].Index = i
	}
	if n == 0 {
		return out
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan int, n)
	results := make(chan BatchResult[T], n)

	var wg sync.WaitGroup
	for range min(opts.Workers, n) {
		wg.Add(1)
		go batchWorker(ctx, &wg, jobs, results, fn)
	}

	dispatched := make([]bool, n)
	var waitErr error
	go func() {
		defer close(jobs)
		for i := range n {
			if err := limiter.Wait(ctx); err != nil {
				waitErr = err
				return
			}
			dispatched[i] = true
			jobs <- i
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		out[res.Index] = res
		if res.Err != nil {
			sendProgress(prog, batchFailedUpdate(completed, n, res.Index, res.Err))
		} else {
			sendProgress(prog, batchDoneUpdate(completed, n, res.Index))
		}
	}

	for i := range out {
		if !dispatched[i] {
			out[i].Err = waitErr
		}
	}
	return out
}

// batchWorker runs calls from the jobs channel until it is closed.
func batchWorker[T any](
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan int,
	results chan<- BatchResult[T],
	fn func(ctx context.Context, i int) (T, error),
) {
	defer wg.Done()

	for i := range jobs {
		if err := ctx.Err(); err != nil {
			results <- BatchResult[T]{Index: i, Err: err}
			continue
		}
		v, err := fn(ctx, i)
		results <- BatchResult[T]{Index: i, Value: v, Err: err}
	}
}
