package middleware

import (
	"context"
	"time"

	"solo-rpc/message"
	"solo-rpc/protocol"
	"solo-rpc/rpcerror"
)

// Timeout answers with a status-2 response when the rest of the chain
// takes longer than the given duration.
//
// It only unblocks the response path. The abandoned dispatch keeps running
// in its goroutine — and keeps the state lock if it is inside Exec — until
// it finishes on its own. A handler that truly hangs will still wedge the
// server; this middleware keeps callers from hanging with it.
func Timeout(timeout time.Duration) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *message.Request) *message.Response {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			done := make(chan *message.Response, 1)
			go func() {
				done <- next(ctx, req)
			}()

			select {
			case resp := <-done:
				return resp
			case <-ctx.Done():
				return message.Fail(protocol.StatusInternal, rpcerror.KindInternal, "call timed out on server")
			}
		}
	}
}
