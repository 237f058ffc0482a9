// Package pipeline implements the middleware composition kernel shared by
// the tool and resource pipelines. Composition is onion-style: the first
// layer in the list is outermost, requests flow left-to-right, responses
// flow back right-to-left.
package pipeline

import (
	"context"
	"errors"
)

// ErrNextCalledTwice is returned when a layer invokes its next continuation
// more than once in a single pass. Calling next twice is a programming error
// in the layer; the kernel fails the second call deterministically instead
// of running the inner pipeline again.
var ErrNextCalledTwice = errors.New("pipeline: next called more than once in a single invocation")

// Handler is a terminal operation or a fully composed pipeline.
type Handler[Req, Resp any] func(ctx context.Context, req Req) (Resp, error)

// Middleware is one onion layer. It receives the request and a next
// continuation. A layer may transform the request before calling next,
// transform the result after, short-circuit by returning without calling
// next, or observe/transform an error returned by next.
type Middleware[Req, Resp any] func(ctx context.Context, req Req, next Handler[Req, Resp]) (Resp, error)

// Compose layers the given middlewares around a terminal handler.
// layers[0] is outermost. The returned handler is safe for concurrent use
// as long as the terminal and the layers are; the single-call guard is
// allocated per invocation, never shared across requests.
func Compose[Req, Resp any](terminal Handler[Req, Resp], layers ...Middleware[Req, Resp]) Handler[Req, Resp] {
	h := terminal
	for i := len(layers) - 1; i >= 0; i-- {
		h = wrap(layers[i], h)
	}
	return h
}

// wrap builds one onion ring: layer around inner, with double-invocation
// detection on the continuation handed to the layer.
func wrap[Req, Resp any](layer Middleware[Req, Resp], inner Handler[Req, Resp]) Handler[Req, Resp] {
	return func(ctx context.Context, req Req) (Resp, error) {
		called := false
		next := func(ctx context.Context, req Req) (Resp, error) {
			if called {
				var zero Resp
				return zero, ErrNextCalledTwice
			}
			called = true
			return inner(ctx, req)
		}
		return layer(ctx, req, next)
	}
}
