package slidepdf

import (
	"context"
	"runtime"
	"sync"
)

// Pool sizing constants.
const (
	// MinPoolSize ensures at least one page context renders.
	MinPoolSize = 1

	// MaxPoolSize caps concurrent page contexts in the single engine process.
	MaxPoolSize = 4

	// cpuDivisor leaves headroom for Chrome's renderer processes.
	cpuDivisor = 2
)

// ResolvePoolSize determines how many page contexts render at once.
// Priority: explicit workers > GOMAXPROCS-based calculation.
func ResolvePoolSize(workers int) int {
	if workers > 0 {
		return workers
	}

	// GOMAXPROCS is adjusted by automaxprocs in containers.
	n := runtime.GOMAXPROCS(0) / cpuDivisor

	if n < MinPoolSize {
		return MinPoolSize
	}
	if n > MaxPoolSize {
		return MaxPoolSize
	}
	return n
}

// runIndexed calls work for every index in [0, n) on at most workers
// goroutines. Results are stored by index, not completion order. Once ctx
// is done, remaining indexes get canceled(idx, ctx.Err()) instead.
func runIndexed[R any](
	ctx context.Context,
	workers, n int,
	work func(ctx context.Context, idx int) R,
	canceled func(idx int, err error) R,
) []R {
	if n == 0 {
		return nil
	}
	if workers < 1 {
		workers = 1
	}
	if workers > n {
		workers = n
	}

	results := make([]R, n)
	jobs := make(chan int, n)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				if err := ctx.Err(); err != nil {
					results[idx] = canceled(idx, err)
					continue
				}
				results[idx] = work(ctx, idx)
			}
		}()
	}

	for i := 0; i < n; i++ {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	return results
}
