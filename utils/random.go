package utils

import (
	"math/rand/v2"
)

// NewRand returns a generator owned by the caller. The same seed always
// produces the same stream so runs can be reproduced.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// RandVectors fills count vectors of the given size with uniform values in
// [0, 1) as a single row-major slice.
func RandVectors(rng *rand.Rand, count, size int) []float64 {
	data := make([]float64, count*size)
	for i := range data {
		data[i] = rng.Float64()
	}
	return data
}
