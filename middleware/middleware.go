// Package middleware provides composable wrappers around the server's
// dispatch function: logging, admission control, panic containment.
//
// A middleware sees the request after framing but before the procedure's
// payload is decoded, so it works uniformly across procedures and codecs.
package middleware

import (
	"context"

	"solo-rpc/message"
)

// HandlerFunc is the dispatch signature: one request in, one response out.
// Implementations never return nil — every request gets a response frame
// unless the connection itself has died.
type HandlerFunc func(ctx context.Context, req *message.Request) *message.Response

// Middleware wraps a HandlerFunc with behavior that runs before and/or
// after dispatch.
type Middleware func(next HandlerFunc) HandlerFunc

// Chain combines middlewares into one. Chain(A, B, C)(handler) wraps in
// reverse so A runs outermost:
//
//	A.before → B.before → C.before → handler → C.after → B.after → A.after
func Chain(middlewares ...Middleware) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}
		return next
	}
}
