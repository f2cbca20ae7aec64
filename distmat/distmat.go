/*
Package distmat computes pairwise Euclidean distance matrices between two sets
of vectors. Each set is a matrix with one vector per row, so for X of shape
N×d and Y of shape M×d the result D has shape N×M with D[i,j] = ‖X[i] − Y[j]‖.

The production path expands the squared distance into its Gram form

	‖x − y‖² = ‖x‖² − 2·x·y + ‖y‖²

which turns the bulk of the work into a single matrix product X·Yᵀ that gonum
hands to BLAS. The remaining terms are broadcast over rows and columns.

The expansion subtracts large, nearly equal quantities when the vectors are
long compared to the distance between them, so accuracy degrades as ‖x‖² and
‖y‖² grow relative to ‖x − y‖². Results that land inside that noise band are
recomputed directly from the difference vector, and any remaining negative
values are clamped to zero before the square root. Rows whose squared norm
overflows, i.e. entries around 1e154 and above, skip the expansion and use a
scaled distance that stays finite.
*/
package distmat

import (
	"math"

	"github.com/semafind/distmat/distance"
	"gonum.org/v1/gonum/mat"
)

// RefineTolerance is the relative threshold below which a squared distance
// from the Gram form is considered cancellation noise. Such entries are
// recomputed from the difference vector, so identical rows yield exactly 0.
const RefineTolerance = 1e-6

// Compute returns the N×M Euclidean distance matrix between the rows of x
// and the rows of y. The inputs are not modified and the result shares no
// memory with them.
//
// It fails with ErrInvalidInput if either input is nil, empty or contains
// NaN or ±Inf, and with ErrShapeMismatch if the vector sizes differ. No
// output is produced on failure.
//
// When x and y are the same *mat.Dense the result is exactly symmetric with
// a zero diagonal.
//
// Every entry below RefineTolerance is recomputed pair by pair. Sets that sit
// far from the origin compared to their spread, e.g. an offset of 1e4 with a
// spread of 1, put most entries there, and Compute then costs an extra
// O(N·M·d) loop on top of the matrix product. Centre such inputs first.
func Compute(x, y mat.Matrix) (*mat.Dense, error) {
	if _, _, _, err := validate(x, y); err != nil {
		return nil, err
	}
	return gram(x, y), nil
}

func gram(x, y mat.Matrix) *mat.Dense {
	n, _ := x.Dims()
	m, _ := y.Dims()
	self := sameDense(x, y)
	normsX := squaredNorms(x)
	normsY := normsX
	if !self {
		normsY = squaredNorms(y)
	}
	// ---------------------------
	// The output doubles as the buffer for the cross term
	out := mat.NewDense(n, m, nil)
	out.Mul(x, y.T())
	finishBlock(out, x, y, normsX, normsY, 0)
	if self {
		symmetrise(out)
	}
	return out
}

// finishBlock turns a block of the cross term X·Yᵀ into distances in place.
// The block starts at row rowOffset of the full output and spans all
// columns.
func finishBlock(block *mat.Dense, x, y mat.Matrix, normsX, normsY []float64, rowOffset int) {
	rows, cols := block.Dims()
	_, dims := x.Dims()
	xBuf := make([]float64, dims)
	yBuf := make([]float64, dims)
	for i := 0; i < rows; i++ {
		gi := rowOffset + i
		nx := normsX[gi]
		row := block.RawRowView(i)
		var xRow []float64
		for j := 0; j < cols; j++ {
			ny := normsY[j]
			sq := nx - 2*row[j] + ny
			overflow := math.IsInf(nx, 1) || math.IsInf(ny, 1) || math.IsNaN(sq) || math.IsInf(sq, 0)
			if !overflow && sq >= RefineTolerance*(nx+ny) {
				row[j] = distance.ClampedSqrt(sq)
				continue
			}
			if xRow == nil {
				xRow = rowView(x, gi, xBuf)
			}
			yRow := rowView(y, j, yBuf)
			if overflow {
				row[j] = distance.Euclidean(xRow, yRow)
				continue
			}
			row[j] = distance.ClampedSqrt(distance.SquaredEuclidean(xRow, yRow))
		}
	}
}

// symmetrise mirrors the upper triangle onto the lower and zeroes the
// diagonal of a square matrix.
func symmetrise(d *mat.Dense) {
	n, _ := d.Dims()
	for i := 0; i < n; i++ {
		d.Set(i, i, 0)
		for j := i + 1; j < n; j++ {
			d.Set(j, i, d.At(i, j))
		}
	}
}
