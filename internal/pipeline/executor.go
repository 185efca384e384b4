package pipeline

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// DefaultChunkSize is the number of points handed to a worker at a time
const DefaultChunkSize = 65536

// Executor is the worker pool a batch runs on. Callers construct one and pass it
// in, so the kernels never see scheduler state.
type Executor struct {
	Workers   int
	ChunkSize int
}

// DefaultExecutor uses one worker per available CPU
func DefaultExecutor() Executor {
	return Executor{
		Workers:   runtime.GOMAXPROCS(0),
		ChunkSize: DefaultChunkSize,
	}
}

func (e Executor) normalized() Executor {
	if e.Workers < 1 {
		e.Workers = runtime.GOMAXPROCS(0)
	}
	if e.ChunkSize < 1 {
		e.ChunkSize = DefaultChunkSize
	}
	return e
}

// Map applies fn to every element of in, spreading contiguous chunks across the
// executor's workers. Each worker writes only to its own chunk of the output, so
// results come back in input order regardless of scheduling. Cancellation is
// checked between chunks.
func Map[T, R any](ctx context.Context, exec Executor, in []T, fn func(T) R) ([]R, error) {
	exec = exec.normalized()
	out := make([]R, len(in))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(exec.Workers)

	for start := 0; start < len(in); start += exec.ChunkSize {
		if gctx.Err() != nil {
			break
		}
		end := min(start+exec.ChunkSize, len(in))
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			for i := start; i < end; i++ {
				out[i] = fn(in[i])
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
