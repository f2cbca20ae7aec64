package distmat

import (
	"fmt"
	"math"

	"github.com/semafind/distmat/distance"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// NewVectorSet copies rows into a dense matrix with one vector per row. All
// rows must have the same, non-zero length.
func NewVectorSet(rows [][]float64) (*mat.Dense, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("no vectors given: %w", ErrInvalidInput)
	}
	dims := len(rows[0])
	if dims == 0 {
		return nil, fmt.Errorf("vectors have zero length: %w", ErrInvalidInput)
	}
	data := make([]float64, 0, len(rows)*dims)
	for i, row := range rows {
		if len(row) != dims {
			return nil, fmt.Errorf("vector %d has length %d, expected %d: %w", i, len(row), dims, ErrInvalidInput)
		}
		data = append(data, row...)
	}
	return mat.NewDense(len(rows), dims, data), nil
}

// ---------------------------

func checkNonEmpty(name string, m mat.Matrix) error {
	if m == nil {
		return fmt.Errorf("%s is nil: %w", name, ErrInvalidInput)
	}
	// A typed nil pointer would panic on Dims
	if d, ok := m.(*mat.Dense); ok && (d == nil || d.IsEmpty()) {
		return fmt.Errorf("%s is empty: %w", name, ErrInvalidInput)
	}
	r, c := m.Dims()
	if r == 0 || c == 0 {
		return fmt.Errorf("%s has shape (%d, %d): %w", name, r, c, ErrInvalidInput)
	}
	return nil
}

func checkFinite(name string, m mat.Matrix) error {
	r, c := m.Dims()
	buf := make([]float64, c)
	for i := 0; i < r; i++ {
		row := rowView(m, i, buf)
		if !floats.HasNaN(row) && !hasInf(row) {
			continue
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%s[%d, %d] is %v: %w", name, i, j, v, ErrInvalidInput)
			}
		}
	}
	return nil
}

func hasInf(s []float64) bool {
	for _, v := range s {
		if math.IsInf(v, 0) {
			return true
		}
	}
	return false
}

// validate checks the evaluator preconditions in order: presence, matching
// vector size, then finiteness.
func validate(x, y mat.Matrix) (n, m, dims int, err error) {
	if err := checkNonEmpty("X", x); err != nil {
		return 0, 0, 0, err
	}
	if err := checkNonEmpty("Y", y); err != nil {
		return 0, 0, 0, err
	}
	n, dx := x.Dims()
	m, dy := y.Dims()
	if dx != dy {
		return 0, 0, 0, fmt.Errorf("X has %d columns and Y has %d: %w", dx, dy, ErrShapeMismatch)
	}
	if err := checkFinite("X", x); err != nil {
		return 0, 0, 0, err
	}
	if !sameDense(x, y) {
		if err := checkFinite("Y", y); err != nil {
			return 0, 0, 0, err
		}
	}
	return n, m, dx, nil
}

// ---------------------------

// rowView avoids a copy when the matrix exposes its backing rows. buf must
// have the column count as length and is only used otherwise.
func rowView(m mat.Matrix, i int, buf []float64) []float64 {
	if rv, ok := m.(mat.RawRowViewer); ok {
		return rv.RawRowView(i)
	}
	return mat.Row(buf, i, m)
}

func squaredNorms(m mat.Matrix) []float64 {
	r, c := m.Dims()
	norms := make([]float64, r)
	buf := make([]float64, c)
	for i := 0; i < r; i++ {
		row := rowView(m, i, buf)
		norms[i] = distance.SquaredNorm(row)
	}
	return norms
}

func sameDense(x, y mat.Matrix) bool {
	xd, ok := x.(*mat.Dense)
	if !ok {
		return false
	}
	yd, ok := y.(*mat.Dense)
	return ok && xd == yd
}
