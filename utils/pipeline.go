/*
This package helps organise an all or nothing pipeline. If an error occurs at
any point in the pipeline, we assume the entire operation should be cancelled.

The context is checked when reading or writing to a channel. If the context is
cancelled, the operation is stopped whether the channel is closed or not.

Based on: https://go.dev/blog/pipelines
*/
package utils

import (
	"context"
	"sync"
)

func ProduceWithContext[T any](ctx context.Context, in []T) <-chan T {
	out := make(chan T)
	go func() {
		defer close(out)
		for _, t := range in {
			select {
			case out <- t:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

func TransformWithContext[A, B any](ctx context.Context, in <-chan A, transformFn func(A) (out B, skip bool, err error)) (<-chan B, <-chan error) {
	out := make(chan B)
	errC := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errC)
		for {
			select {
			// Is the context cancelled?
			case <-ctx.Done():
				errC <- ctx.Err()
				return
			case a, ok := <-in:
				// Is the channel closed?
				if !ok {
					errC <- nil
					return
				}
				b, skip, err := transformFn(a)
				if err != nil {
					errC <- err
					return
				}
				if skip {
					continue
				}
				// Can we send? It may be the context is cancelled and there are
				// no receivers.
				select {
				case out <- b:
				case <-ctx.Done():
					errC <- ctx.Err()
					return
				}
			}
		}
	}()
	return out, errC
}

// FanOutWithContext starts workers transform stages that all read from the
// same input channel. Each stage gets its own output and error channel.
func FanOutWithContext[A, B any](ctx context.Context, in <-chan A, workers int, transformFn func(A) (out B, skip bool, err error)) ([]<-chan B, []<-chan error) {
	if workers < 1 {
		workers = 1
	}
	outs := make([]<-chan B, workers)
	errCs := make([]<-chan error, workers)
	for i := 0; i < workers; i++ {
		outs[i], errCs[i] = TransformWithContext(ctx, in, transformFn)
	}
	return outs, errCs
}

func MergeWithContext[T any](ctx context.Context, cs ...<-chan T) <-chan T {
	out := make(chan T)
	var wg sync.WaitGroup
	wg.Add(len(cs))
	for _, c := range cs {
		go func(c <-chan T) {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case t, ok := <-c:
					if !ok {
						return
					}
					select {
					case out <- t:
					case <-ctx.Done():
						return
					}
				}
			}
		}(c)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

// WaitErrors blocks until every error channel has delivered its single value
// and returns the first non-nil error in argument order. Unlike a select on
// the context, it guarantees that every stage has stopped touching shared
// data by the time it returns.
func WaitErrors(cs ...<-chan error) error {
	var first error
	for _, c := range cs {
		if err := <-c; err != nil && first == nil {
			first = err
		}
	}
	return first
}

func SinkWithContext[T any](ctx context.Context, in <-chan T, sinkFn func(T) error) <-chan error {
	errC := make(chan error, 1)
	go func() {
		defer close(errC)
		for {
			select {
			case <-ctx.Done():
				errC <- ctx.Err()
				return
			case b, ok := <-in:
				if !ok {
					errC <- nil
					return
				}
				if err := sinkFn(b); err != nil {
					errC <- err
					return
				}
			}
		}
	}()
	return errC
}
