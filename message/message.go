// Package message defines the in-memory request and response passed through
// the server's dispatch chain.
//
// These are not wire types — framing lives in package protocol. They exist
// so middleware can wrap dispatch without knowing anything about frames or
// sockets.
package message

import (
	"solo-rpc/procedure"
	"solo-rpc/protocol"
	"solo-rpc/rpcerror"
)

// Request is one request frame after reading: the procedure to invoke and
// its still-encoded query payload. Decoding is the handler's job, because
// only the handler knows the query type and codec.
type Request struct {
	Proc    procedure.ID
	Payload []byte
}

// Response is one response frame before writing.
//
//   - Status 0: Payload is the procedure's encoded response value.
//   - Otherwise: Payload is a JSON error description (rpcerror.Body).
type Response struct {
	Status  protocol.Status
	Payload []byte
}

// Fail builds an error response from a status and description.
func Fail(status protocol.Status, kind, msg string) *Response {
	return &Response{
		Status:  status,
		Payload: rpcerror.Body{Kind: kind, Message: msg}.Marshal(),
	}
}
