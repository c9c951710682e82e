// Package rpcerror defines the error taxonomy shared by solo-rpc clients
// and servers.
//
// Every failure a caller can observe is one of the types below, so callers
// branch with errors.As / errors.Is instead of matching message strings:
//
//   - ConnectionError:       could not dial or write to the server
//   - FramingError:          a frame was malformed, truncated, or oversized
//   - DecodeError:           bytes arrived intact but did not parse
//   - EncodeError:           a value could not be serialized for the wire
//   - AppError:              the handler itself reported a domain failure
//   - UnknownProcedureError: the server has no handler for the procedure ID
//   - ServerInternalError:   the server failed before reaching the handler
//
// AppError is special: it is the only type that crosses the wire in both
// directions. A handler returns one deliberately, the server ships it as a
// status-1 response, and the client rebuilds it so application code sees
// the same type on both sides.
package rpcerror

import (
	"errors"
	"fmt"
)

// ErrRegistrationConflict reports two handlers registered under the same
// procedure ID. Registration happens at startup, before any connection is
// accepted, so this never surfaces to a remote caller.
var ErrRegistrationConflict = errors.New("procedure id already registered")

// AppError is a domain-level failure returned deliberately by a handler.
// It is the handler's way of saying "the call worked, the answer is no".
type AppError struct {
	Msg string
}

func (e *AppError) Error() string { return e.Msg }

// App builds an AppError from a plain message.
func App(msg string) *AppError { return &AppError{Msg: msg} }

// Appf builds an AppError from a format string.
func Appf(format string, args ...any) *AppError {
	return &AppError{Msg: fmt.Sprintf(format, args...)}
}

// ConnectionError reports a failure to establish or use a connection.
// Op is "dial" or "write"; read-side failures are FramingErrors because
// once bytes start arriving the problem is the stream, not the socket.
type ConnectionError struct {
	Op   string
	Addr string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection: %s %s: %v", e.Op, e.Addr, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// FramingError reports a violation of the wire format: bad magic, wrong
// version, a length field over the cap, or a stream that ended mid-frame.
// The connection that produced one is poisoned and must be closed — there
// is no way to find the next frame boundary.
type FramingError struct {
	Err error
}

func (e *FramingError) Error() string { return fmt.Sprintf("framing: %v", e.Err) }

func (e *FramingError) Unwrap() error { return e.Err }

// Framingf builds a FramingError from a format string.
func Framingf(format string, args ...any) *FramingError {
	return &FramingError{Err: fmt.Errorf(format, args...)}
}

// DecodeError reports payload bytes that did not parse as the expected
// type. What names the payload: "query", "response", or "error description".
type DecodeError struct {
	What string
	Err  error
}

func (e *DecodeError) Error() string { return fmt.Sprintf("decode %s: %v", e.What, e.Err) }

func (e *DecodeError) Unwrap() error { return e.Err }

// EncodeError reports a value that could not be serialized for the wire.
// Client-side only: the server reports its own encode failures to the
// caller as a ServerInternalError.
type EncodeError struct {
	What string
	Err  error
}

func (e *EncodeError) Error() string { return fmt.Sprintf("encode %s: %v", e.What, e.Err) }

func (e *EncodeError) Unwrap() error { return e.Err }

// UnknownProcedureError reports a request for a procedure ID the server
// has no handler for. The server answers these without touching shared
// state, so a client with a stale procedure table cannot corrupt anything.
type UnknownProcedureError struct {
	Msg string
}

func (e *UnknownProcedureError) Error() string { return e.Msg }

// ServerInternalError covers every server-side failure that is not the
// handler's own doing: an undecodable query, an unencodable response, a
// handler panic, a rejected or timed-out call.
type ServerInternalError struct {
	Msg string
}

func (e *ServerInternalError) Error() string { return "server: " + e.Msg }
