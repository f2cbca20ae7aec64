package distmat

import (
	"fmt"
	"slices"

	"github.com/semafind/distmat/distance"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Method names one way of computing the distance matrix. They all return
// the same result up to floating point rounding and differ only in speed.
type Method string

const (
	// Per pair, per dimension summation, the correctness baseline
	MethodTripleLoop Method = "triple-loop"
	// Per pair: materialise the difference, square and sum
	MethodDiffSquares Method = "diff-squares"
	// Per pair: inner product of the difference with itself
	MethodDiffDot Method = "diff-dot"
	// One loop over X, the row is subtracted from all of Y at once
	MethodRowBroadcast Method = "row-broadcast"
	// Gram identity, see Compute
	MethodGram Method = "gram"
	// Per pair library call to gonum floats.Distance
	MethodLibrary Method = "library"
)

var allMethods = []Method{
	MethodTripleLoop,
	MethodDiffSquares,
	MethodDiffDot,
	MethodRowBroadcast,
	MethodGram,
	MethodLibrary,
}

// Methods lists every method from slowest to fastest in the usual case.
func Methods() []Method {
	return slices.Clone(allMethods)
}

func (m Method) String() string {
	return string(m)
}

func ParseMethod(name string) (Method, error) {
	for _, m := range allMethods {
		if string(m) == name {
			return m, nil
		}
	}
	return "", fmt.Errorf("%s: %w", name, ErrUnknownMethod)
}

// ComputeWith validates the inputs exactly like Compute and then evaluates
// the distance matrix using the given method.
func ComputeWith(method Method, x, y mat.Matrix) (*mat.Dense, error) {
	if !slices.Contains(allMethods, method) {
		return nil, fmt.Errorf("%s: %w", method, ErrUnknownMethod)
	}
	if _, _, _, err := validate(x, y); err != nil {
		return nil, err
	}
	switch method {
	case MethodTripleLoop:
		return pairwiseSquared(distance.KernelLoop, x, y)
	case MethodDiffSquares:
		return pairwiseSquared(distance.KernelDiffSquares, x, y)
	case MethodDiffDot:
		return pairwiseSquared(distance.KernelDiffDot, x, y)
	case MethodRowBroadcast:
		return rowBroadcast(x, y), nil
	case MethodLibrary:
		return pairwise(distance.Euclidean, x, y), nil
	default:
		return gram(x, y), nil
	}
}

// ---------------------------

func pairwiseSquared(kernel string, x, y mat.Matrix) (*mat.Dense, error) {
	_, dims := x.Dims()
	distFn, err := distance.GetSquaredKernel(kernel, dims)
	if err != nil {
		return nil, fmt.Errorf("could not get kernel: %w", err)
	}
	return pairwise(func(a, b []float64) float64 {
		return distance.ClampedSqrt(distFn(a, b))
	}, x, y), nil
}

func pairwise(distFn distance.DistFunc, x, y mat.Matrix) *mat.Dense {
	n, dims := x.Dims()
	m, _ := y.Dims()
	out := mat.NewDense(n, m, nil)
	xBuf := make([]float64, dims)
	yBuf := make([]float64, dims)
	for i := 0; i < n; i++ {
		xRow := rowView(x, i, xBuf)
		outRow := out.RawRowView(i)
		for j := 0; j < m; j++ {
			outRow[j] = distFn(xRow, rowView(y, j, yBuf))
		}
	}
	return out
}

// rowBroadcast computes one output row at a time: the current row of x is
// subtracted from every row of y in a single pass, squared, and the rows of
// the result are summed.
func rowBroadcast(x, y mat.Matrix) *mat.Dense {
	n, dims := x.Dims()
	m, _ := y.Dims()
	out := mat.NewDense(n, m, nil)
	diff := mat.NewDense(m, dims, nil)
	xBuf := make([]float64, dims)
	for i := 0; i < n; i++ {
		xRow := rowView(x, i, xBuf)
		diff.Apply(func(_, k int, v float64) float64 {
			d := v - xRow[k]
			return d * d
		}, y)
		outRow := out.RawRowView(i)
		for j := 0; j < m; j++ {
			outRow[j] = distance.ClampedSqrt(floats.Sum(diff.RawRowView(j)))
		}
	}
	return out
}
