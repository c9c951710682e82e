package rpcerror

import "encoding/json"

// Error description kinds. The kind is what lets a client tell an unknown
// procedure from a decode failure when both arrive as the same status byte.
const (
	KindApp              = "app"               // handler returned a domain error
	KindDecode           = "decode"            // server could not decode the query
	KindUnknownProcedure = "unknown_procedure" // no handler for the procedure ID
	KindInternal         = "internal"          // panic, encode failure, rejection
)

// Body is the wire form of an error description: the payload of every
// response with a non-zero status. It is always JSON, regardless of the
// procedure's codec, because the server may not have resolved the
// procedure (and so the codec) by the time it must describe a failure.
type Body struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Marshal renders the description payload. Two strings cannot fail to
// marshal, so the signature stays error-free.
func (b Body) Marshal() []byte {
	data, _ := json.Marshal(b)
	return data
}

// ParseBody decodes an error description payload.
func ParseBody(payload []byte) (Body, error) {
	var b Body
	if err := json.Unmarshal(payload, &b); err != nil {
		return Body{}, &DecodeError{What: "error description", Err: err}
	}
	return b, nil
}

// FromBody rebuilds the client-side error for a received description.
// Status-1 responses carry KindApp and come back as *AppError; everything
// else is a server-side failure.
func FromBody(b Body) error {
	switch b.Kind {
	case KindApp:
		return &AppError{Msg: b.Message}
	case KindUnknownProcedure:
		return &UnknownProcedureError{Msg: b.Message}
	default:
		return &ServerInternalError{Msg: b.Message}
	}
}
