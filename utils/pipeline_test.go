package utils_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/semafind/distmat/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_TransformWithContext_NoInput(t *testing.T) {
	in := make(chan int)
	transformFn := func(a int) (string, bool, error) {
		return fmt.Sprintf("%d-%d", a, a), false, nil
	}
	// ---------------------------
	// No input data
	ctx, cancel := context.WithCancel(context.Background())
	_, errC := utils.TransformWithContext(ctx, in, transformFn)
	cancel()
	assert.ErrorIs(t, <-errC, context.Canceled)
}

func Test_TransformWithContext_NoReciever(t *testing.T) {
	in := make(chan int, 1)
	in <- 1
	transformFn := func(a int) (string, bool, error) {
		return fmt.Sprintf("%d-%d", a, a), false, nil
	}
	// ---------------------------
	// No reciever
	ctx, cancel := context.WithCancel(context.Background())
	_, errC := utils.TransformWithContext(ctx, in, transformFn)
	cancel()
	assert.ErrorIs(t, <-errC, context.Canceled)
}

func Test_TransformWithContext_Skip(t *testing.T) {
	ctx := context.Background()
	in := utils.ProduceWithContext(ctx, []int{1, 2, 3, 4})
	out, errC := utils.TransformWithContext(ctx, in, func(a int) (int, bool, error) {
		return a * 10, a%2 == 0, nil
	})
	var got []int
	for v := range out {
		got = append(got, v)
	}
	require.NoError(t, <-errC)
	assert.Equal(t, []int{10, 30}, got)
}

func Test_SinkWithContext_NoInput(t *testing.T) {
	in := make(chan int)
	sinkFn := func(a int) error {
		return nil
	}
	// ---------------------------
	// No input data
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		err := <-utils.SinkWithContext(ctx, in, sinkFn)
		assert.Error(t, err)
		wg.Done()
	}()
	cancel()
	wg.Wait()
}

func Test_FanOut_Merge_Sink(t *testing.T) {
	ctx := context.Background()
	items := make([]int, 100)
	for i := range items {
		items[i] = i
	}
	// ---------------------------
	in := utils.ProduceWithContext(ctx, items)
	outs, errCs := utils.FanOutWithContext(ctx, in, 4, func(a int) (int, bool, error) {
		return a * a, false, nil
	})
	require.Len(t, outs, 4)
	merged := utils.MergeWithContext(ctx, outs...)
	var got []int
	sinkErrC := utils.SinkWithContext(ctx, merged, func(v int) error {
		got = append(got, v)
		return nil
	})
	require.NoError(t, utils.WaitErrors(append(errCs, sinkErrC)...))
	// ---------------------------
	sort.Ints(got)
	require.Len(t, got, len(items))
	for i, v := range got {
		assert.Equal(t, i*i, v)
	}
}

func Test_FanOut_Error(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	boom := errors.New("boom")
	in := utils.ProduceWithContext(ctx, []int{1, 2, 3, 4, 5, 6})
	outs, errCs := utils.FanOutWithContext(ctx, in, 2, func(a int) (int, bool, error) {
		if a == 3 {
			return 0, false, boom
		}
		return a, false, nil
	})
	merged := utils.MergeWithContext(ctx, outs...)
	sinkErrC := utils.SinkWithContext(ctx, merged, func(int) error { return nil })
	assert.ErrorIs(t, utils.WaitErrors(append(errCs, sinkErrC)...), boom)
}

func Test_WaitErrors_Order(t *testing.T) {
	first := errors.New("first")
	second := errors.New("second")
	mk := func(err error) <-chan error {
		c := make(chan error, 1)
		c <- err
		close(c)
		return c
	}
	assert.NoError(t, utils.WaitErrors(mk(nil), mk(nil)))
	assert.ErrorIs(t, utils.WaitErrors(mk(nil), mk(first), mk(second)), first)
}
