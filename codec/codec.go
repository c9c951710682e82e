// Package codec provides the serialization formats a procedure definition
// can choose for its query and response values.
//
// The codec is part of the procedure's contract: the server role and the
// client role of one definition must name the same codec, because the
// choice travels nowhere on the wire. Error descriptions are exempt — they
// are always JSON (see package rpcerror), so a client can read them even
// for a procedure the server never resolved.
package codec

// Type identifies a serialization format.
type Type byte

const (
	TypeJSON Type = 0
	TypeGob  Type = 1
)

// Codec serializes values for one procedure.
type Codec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, v any) error
	Type() Type // 0=JSON, 1=Gob
}

// Get returns the codec for the given type. Unknown types fall back to
// JSON, the default.
func Get(t Type) Codec {
	if t == TypeGob {
		return &GobCodec{}
	}

	return &JSONCodec{}
}
