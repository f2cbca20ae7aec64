package distance

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

type DistFunc func(x, y []float64) float64

const (
	// Sums the squared difference one dimension at a time
	KernelLoop = "loop"
	// Materialises x-y, squares it and sums
	KernelDiffSquares = "diff-squares"
	// Materialises x-y and takes its inner product with itself
	KernelDiffDot = "diff-dot"
)

// SquaredEuclidean is the reference kernel, every other kernel is checked
// against it.
func SquaredEuclidean(x, y []float64) float64 {
	return squaredEuclideanDistancePureGo(x, y)
}

// Euclidean delegates to gonum, i.e. the library call.
func Euclidean(x, y []float64) float64 {
	return floats.Distance(x, y, 2)
}

// SquaredNorm returns x·x.
func SquaredNorm(x []float64) float64 {
	return floats.Dot(x, x)
}

/* The difference kernels hold on to a scratch buffer of the vector size so
 * that computing a full matrix does not allocate per pair. The returned
 * function is therefore not safe for concurrent use, each goroutine must
 * request its own. */

func newDiffSquares(dims int) DistFunc {
	buf := make([]float64, dims)
	return func(x, y []float64) float64 {
		floats.SubTo(buf, x, y)
		floats.Mul(buf, buf)
		return floats.Sum(buf)
	}
}

func newDiffDot(dims int) DistFunc {
	buf := make([]float64, dims)
	return func(x, y []float64) float64 {
		floats.SubTo(buf, x, y)
		return floats.Dot(buf, buf)
	}
}

// GetSquaredKernel returns a squared Euclidean kernel by name for vectors of
// the given size.
func GetSquaredKernel(name string, dims int) (DistFunc, error) {
	if dims <= 0 {
		return nil, fmt.Errorf("invalid vector size %d for kernel %s", dims, name)
	}
	switch name {
	case KernelLoop:
		return squaredEuclideanDistancePureGo, nil
	case KernelDiffSquares:
		return newDiffSquares(dims), nil
	case KernelDiffDot:
		return newDiffDot(dims), nil
	default:
		return nil, fmt.Errorf("unknown squared euclidean kernel: %s", name)
	}
}

// ClampedSqrt returns the square root of a squared distance, treating small
// negative values from floating point cancellation as zero.
func ClampedSqrt(sq float64) float64 {
	if sq <= 0 {
		return 0
	}
	return math.Sqrt(sq)
}
