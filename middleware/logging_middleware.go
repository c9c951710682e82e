package middleware

import (
	"context"
	"time"

	"go.uber.org/zap"

	"solo-rpc/message"
	"solo-rpc/protocol"
	"solo-rpc/rpcerror"
)

// Logging emits one line per dispatched call: procedure, status, duration.
// Failures log at warn with the error description's kind so an operator
// can grep for, say, every unknown_procedure without parsing payloads.
func Logging(logger *zap.Logger) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *message.Request) *message.Response {
			start := time.Now()
			resp := next(ctx, req)
			duration := time.Since(start)

			if resp.Status == protocol.StatusOK {
				logger.Info("call served",
					zap.Stringer("proc", req.Proc),
					zap.Duration("duration", duration),
				)
				return resp
			}

			body, _ := rpcerror.ParseBody(resp.Payload)
			logger.Warn("call failed",
				zap.Stringer("proc", req.Proc),
				zap.Uint8("status", uint8(resp.Status)),
				zap.String("kind", body.Kind),
				zap.String("error", body.Message),
				zap.Duration("duration", duration),
			)
			return resp
		}
	}
}
