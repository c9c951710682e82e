package middleware

import (
	"context"

	"golang.org/x/time/rate"

	"solo-rpc/message"
	"solo-rpc/protocol"
	"solo-rpc/rpcerror"
)

// RateLimit rejects calls beyond r per second (with the given burst) using
// a token bucket. Rejection happens before the query is decoded and before
// the state lock is taken, so an overloaded server sheds load at the
// cheapest possible point.
func RateLimit(r float64, burst int) Middleware {
	limiter := rate.NewLimiter(rate.Limit(r), burst)
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *message.Request) *message.Response {
			if !limiter.Allow() {
				return message.Fail(protocol.StatusInternal, rpcerror.KindInternal, "rate limit exceeded")
			}
			return next(ctx, req)
		}
	}
}
