package distmat

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Summary describes a distance matrix without printing all of it.
type Summary struct {
	Rows int     `json:"rows" yaml:"rows"`
	Cols int     `json:"cols" yaml:"cols"`
	Min  float64 `json:"min" yaml:"min"`
	Max  float64 `json:"max" yaml:"max"`
	Mean float64 `json:"mean" yaml:"mean"`
	// xxhash of the entries in row-major order, equal fingerprints mean
	// bit-identical matrices
	Fingerprint uint64 `json:"fingerprint" yaml:"fingerprint"`
}

func Summarise(d *mat.Dense) Summary {
	if d == nil || d.IsEmpty() {
		return Summary{}
	}
	r, c := d.Dims()
	values := flatten(d)
	// ---------------------------
	h := xxhash.New()
	var buf [8]byte
	for _, v := range values {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		h.Write(buf[:])
	}
	// ---------------------------
	return Summary{
		Rows:        r,
		Cols:        c,
		Min:         floats.Min(values),
		Max:         floats.Max(values),
		Mean:        stat.Mean(values, nil),
		Fingerprint: h.Sum64(),
	}
}

// flatten returns the entries in row-major order, sharing the backing data
// when the matrix is contiguous.
func flatten(d *mat.Dense) []float64 {
	raw := d.RawMatrix()
	if raw.Stride == raw.Cols {
		return raw.Data[:raw.Rows*raw.Cols]
	}
	values := make([]float64, 0, raw.Rows*raw.Cols)
	for i := 0; i < raw.Rows; i++ {
		values = append(values, d.RawRowView(i)...)
	}
	return values
}
