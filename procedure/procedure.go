// Package procedure defines what a remote procedure is: a numeric ID, a
// codec, and the two roles built on them.
//
// The server role (Handler) knows how to decode a query, run the
// implementation against shared state, and encode the response. The client
// role (Caller) knows only the wire contract — how to encode a query and
// decode a response — so client binaries never link handler code.
//
// Both roles are usually two views of the same Def value, defined once in
// a package shared by client and server. Keeping the definition in one
// place is what keeps the two sides agreeing on IDs and codecs; nothing at
// runtime checks the agreement, and a mismatch surfaces as a decode
// failure on one side or the other.
package procedure

import (
	"fmt"

	"solo-rpc/codec"
)

// ID names one remote procedure. The server routes on the ID and nothing
// else; on the wire it travels as a fixed-width big-endian uint32 (see
// package protocol).
type ID uint32

func (id ID) String() string {
	return fmt.Sprintf("procedure(%d)", uint32(id))
}

// Handler is the server role of a procedure: everything the server needs
// to route a raw payload through the typed implementation.
//
// Decode and Encode run outside the state lock. Exec runs inside it, so it
// is serialized with every other handler on the same server; it must not
// do network I/O, or it stalls the whole server for its duration.
type Handler interface {
	ID() ID
	Decode(payload []byte) (query any, err error)
	Exec(state any, query any) (resp any, err error)
	Encode(resp any) ([]byte, error)
}

// Caller is the client role of a procedure: the wire contract without the
// implementation.
type Caller interface {
	ID() ID
	EncodeQuery(query any) ([]byte, error)
	DecodeResponse(payload []byte, reply any) error
}

// Def is a codec-backed procedure definition. One Def satisfies both
// Handler and Caller; a client-only build leaves NewQuery and Do nil and
// uses just the Caller half.
type Def struct {
	// Proc is the procedure's wire ID.
	Proc ID

	// Codec serializes this procedure's query and response. nil means JSON.
	Codec codec.Codec

	// NewQuery allocates the decode target for one request. Server role.
	NewQuery func() any

	// Do is the implementation. Server role. It receives the shared server
	// state and the decoded query; mutating state is its one permitted
	// side effect. A returned *rpcerror.AppError reaches the caller as a
	// domain error; any other error is reported as server-internal.
	Do func(state any, query any) (any, error)
}

func (d *Def) codec() codec.Codec {
	if d.Codec != nil {
		return d.Codec
	}
	return codec.Get(codec.TypeJSON)
}

func (d *Def) ID() ID { return d.Proc }

// Decode parses a request payload into a fresh query value.
func (d *Def) Decode(payload []byte) (any, error) {
	if d.NewQuery == nil {
		return nil, fmt.Errorf("%v has no server role (NewQuery is nil)", d.Proc)
	}
	query := d.NewQuery()
	if err := d.codec().Decode(payload, query); err != nil {
		return nil, err
	}
	return query, nil
}

// Exec runs the implementation. The server calls this while holding the
// state lock.
func (d *Def) Exec(state any, query any) (any, error) {
	if d.Do == nil {
		return nil, fmt.Errorf("%v has no server role (Do is nil)", d.Proc)
	}
	return d.Do(state, query)
}

// Encode serializes a response value for the wire.
func (d *Def) Encode(resp any) ([]byte, error) {
	return d.codec().Encode(resp)
}

// EncodeQuery serializes a query value for the wire.
func (d *Def) EncodeQuery(query any) ([]byte, error) {
	return d.codec().Encode(query)
}

// DecodeResponse parses a success payload into the caller's reply value.
func (d *Def) DecodeResponse(payload []byte, reply any) error {
	return d.codec().Decode(payload, reply)
}

var (
	_ Handler = (*Def)(nil)
	_ Caller  = (*Def)(nil)
)
