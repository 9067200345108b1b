package internal

import (
	"fmt"
	"slices"
	"sync/atomic"
)

// Compose chains stages into a single HandlerFunc. Stages run in order.
// An error aborts the chain and is returned as is. Respond ends the chain.
// A stage that writes the response and still returns Continue also ends it.
// When the last stage continues without anything written, ErrNoResponse is returned.
func Compose(stages ...Stage) (HandlerFunc, error) {
	if len(stages) == 0 {
		return nil, ErrEmptyPipeline
	}
	for i, s := range stages {
		if s == nil {
			return nil, fmt.Errorf("%w: stage %d", ErrNilStage, i)
		}
	}

	chain := slices.Clone(stages)
	return func(c Context) error {
		for _, stage := range chain {
			res, err := stage(c)
			if err != nil {
				return err
			}
			if res == Respond || c.Written() {
				if !c.Written() {
					return ErrNoResponse
				}
				return nil
			}
		}
		return ErrNoResponse
	}, nil
}

// Chain wraps h with mws. The first middleware is the outermost.
func Chain(h HandlerFunc, mws ...Middleware) HandlerFunc {
	for i := len(mws) - 1; i >= 0; i-- {
		h = once(mws[i], h)
	}
	return h
}

// once hands mw a continuation that can be invoked a single time per request.
func once(mw Middleware, next HandlerFunc) HandlerFunc {
	return func(c Context) error {
		var called atomic.Bool
		guarded := func(c Context) error {
			if !called.CompareAndSwap(false, true) {
				return ErrNextCalledTwice
			}
			return next(c)
		}
		return mw(guarded)(c)
	}
}
