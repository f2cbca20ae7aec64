package distmat

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/semafind/distmat/utils"
	"gonum.org/v1/gonum/mat"
)

type ParallelOptions struct {
	// Number of goroutines computing blocks, defaults to GOMAXPROCS
	Workers int `yaml:"workers"`
	// Output rows per block, defaults to splitting the rows into four blocks
	// per worker
	BlockRows int `yaml:"blockRows"`
}

// resolve fills in defaults for n output rows. There are never more workers
// than blocks.
func (o ParallelOptions) resolve(n int) (workers, blockRows int) {
	workers = o.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	blockRows = o.BlockRows
	if blockRows <= 0 {
		blockRows = (n + 4*workers - 1) / (4 * workers)
	}
	if blockRows < 1 {
		blockRows = 1
	}
	blockCount := (n + blockRows - 1) / blockRows
	if workers > blockCount {
		workers = blockCount
	}
	return workers, blockRows
}

type rowBlock struct {
	start int
	end   int
}

func splitRows(n, blockRows int) []rowBlock {
	blocks := make([]rowBlock, 0, (n+blockRows-1)/blockRows)
	for start := 0; start < n; start += blockRows {
		blocks = append(blocks, rowBlock{start: start, end: min(start+blockRows, n)})
	}
	return blocks
}

// ComputeParallel returns the same matrix as Compute but splits the output
// rows into disjoint blocks that are evaluated concurrently. Each worker
// only ever writes to the rows of its own block.
//
// If the context is cancelled the context error is returned once every
// worker has stopped, and no partial result is handed back.
func ComputeParallel(ctx context.Context, x, y mat.Matrix, opts ParallelOptions) (*mat.Dense, error) {
	n, m, dims, err := validate(x, y)
	if err != nil {
		return nil, err
	}
	workers, blockRows := opts.resolve(n)
	logger := log.With().Str("module", "distmat").Int("rows", n).Int("cols", m).Int("workers", workers).Int("blockRows", blockRows).Logger()
	// ---------------------------
	self := sameDense(x, y)
	normsX := squaredNorms(x)
	normsY := normsX
	if !self {
		normsY = squaredNorms(y)
	}
	// Row slicing needs a dense view, other matrix kinds are copied once
	xs, ok := x.(*mat.Dense)
	if !ok {
		xs = mat.DenseCopyOf(x)
	}
	yT := y.T()
	out := mat.NewDense(n, m, nil)
	// ---------------------------
	startTime := time.Now()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	blockC := utils.ProduceWithContext(ctx, splitRows(n, blockRows))
	outs, errCs := utils.FanOutWithContext(ctx, blockC, workers, func(b rowBlock) (int, bool, error) {
		block := out.Slice(b.start, b.end, 0, m).(*mat.Dense)
		block.Mul(xs.Slice(b.start, b.end, 0, dims), yT)
		finishBlock(block, x, y, normsX, normsY, b.start)
		return b.end - b.start, false, nil
	})
	rowsDone := 0
	sinkErrC := utils.SinkWithContext(ctx, utils.MergeWithContext(ctx, outs...), func(rows int) error {
		rowsDone += rows
		return nil
	})
	if err := utils.WaitErrors(append(errCs, sinkErrC)...); err != nil {
		return nil, fmt.Errorf("could not compute distance blocks: %w", err)
	}
	// The producer may stop early on cancellation and close its channel, in
	// which case every stage finishes cleanly with rows missing
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if rowsDone != n {
		return nil, fmt.Errorf("computed %d of %d rows", rowsDone, n)
	}
	// ---------------------------
	if self {
		symmetrise(out)
	}
	logger.Debug().Dur("duration", time.Since(startTime)).Msg("parallel distance matrix")
	return out, nil
}
