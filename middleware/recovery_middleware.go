package middleware

import (
	"context"
	"fmt"
	"runtime/debug"

	"go.uber.org/zap"

	"solo-rpc/message"
	"solo-rpc/protocol"
	"solo-rpc/rpcerror"
)

// Recovery converts a panicking handler into a status-2 response instead
// of a crashed server. The stack is logged server-side; the caller gets
// only the panic value, which is plenty for them and nothing for an
// attacker.
//
// The state lock is not at risk here: the container releases it in a defer
// on the panic's way up, before this recover runs.
func Recovery(logger *zap.Logger) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *message.Request) (resp *message.Response) {
			defer func() {
				if x := recover(); x != nil {
					logger.Error("handler panic",
						zap.Stringer("proc", req.Proc),
						zap.Any("panic", x),
						zap.ByteString("stack", debug.Stack()),
					)
					resp = message.Fail(protocol.StatusInternal, rpcerror.KindInternal,
						fmt.Sprintf("handler panic: %v", x))
				}
			}()
			return next(ctx, req)
		}
	}
}
