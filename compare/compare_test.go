package compare_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/semafind/distmat/compare"
	"github.com/semafind/distmat/distmat"
	"github.com/semafind/distmat/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func randSet(seed uint64, n, d int) *mat.Dense {
	return mat.NewDense(n, d, utils.RandVectors(utils.NewRand(seed), n, d))
}

func TestRun_AllMethods(t *testing.T) {
	x := randSet(1, 20, 5)
	y := randSet(2, 15, 5)
	report, err := compare.Run(context.Background(), x, y, compare.Options{Repeats: 2})
	require.NoError(t, err)
	// ---------------------------
	assert.NotEqual(t, uuid.Nil, report.RunId)
	assert.Equal(t, 20, report.Rows)
	assert.Equal(t, 15, report.Cols)
	assert.Equal(t, 5, report.Dims)
	assert.Equal(t, report.CPU.HasVectorSupport(), report.VectorSupport)
	require.Len(t, report.Results, len(distmat.Methods()))
	for i, res := range report.Results {
		assert.Equal(t, distmat.Methods()[i], res.Method)
		assert.LessOrEqual(t, res.Best, res.Mean)
		assert.Less(t, res.MaxDeviation, 1e-9)
	}
	fastest, ok := report.Fastest()
	require.True(t, ok)
	for _, res := range report.Results {
		assert.LessOrEqual(t, fastest.Best, res.Best)
	}
}

func TestRun_Subset(t *testing.T) {
	x := randSet(3, 4, 2)
	opts := compare.Options{Methods: []distmat.Method{distmat.MethodGram, distmat.MethodLibrary}}
	report, err := compare.Run(context.Background(), x, x, opts)
	require.NoError(t, err)
	require.Len(t, report.Results, 2)
	assert.Equal(t, distmat.MethodGram, report.Results[0].Method)
	assert.Equal(t, 0.0, report.Results[0].MaxDeviation)
}

func TestRun_Errors(t *testing.T) {
	x := randSet(3, 4, 2)
	_, err := compare.Run(context.Background(), x, x, compare.Options{Methods: []distmat.Method{}})
	assert.ErrorIs(t, err, compare.ErrNoMethods)
	_, err = compare.Run(context.Background(), x, randSet(4, 4, 3), compare.Options{})
	assert.ErrorIs(t, err, distmat.ErrShapeMismatch)
	_, err = compare.Run(context.Background(), x, x, compare.Options{Methods: []distmat.Method{"cdist"}})
	assert.ErrorIs(t, err, distmat.ErrUnknownMethod)
	// ---------------------------
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = compare.Run(ctx, x, x, compare.Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReport_Fastest(t *testing.T) {
	_, ok := compare.Report{}.Fastest()
	assert.False(t, ok)
	report := compare.Report{Results: []compare.Result{
		{Method: distmat.MethodTripleLoop, Best: 3 * time.Millisecond},
		{Method: distmat.MethodGram, Best: time.Millisecond},
		{Method: distmat.MethodLibrary, Best: 2 * time.Millisecond},
	}}
	fastest, ok := report.Fastest()
	require.True(t, ok)
	assert.Equal(t, distmat.MethodGram, fastest.Method)
}
