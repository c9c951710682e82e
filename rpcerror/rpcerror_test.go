package rpcerror

import (
	"errors"
	"io"
	"testing"
)

func TestBodyRoundTrip(t *testing.T) {
	b := Body{Kind: KindApp, Message: "name already taken"}

	parsed, err := ParseBody(b.Marshal())
	if err != nil {
		t.Fatalf("ParseBody failed: %v", err)
	}
	if parsed != b {
		t.Errorf("round trip mismatch: got %+v, want %+v", parsed, b)
	}
}

func TestParseBodyGarbage(t *testing.T) {
	_, err := ParseBody([]byte("{truncated"))
	if err == nil {
		t.Fatal("expected error for malformed description, got nil")
	}
	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Errorf("expected *DecodeError, got %T", err)
	}
}

func TestFromBody(t *testing.T) {
	err := FromBody(Body{Kind: KindApp, Message: "out of stock"})
	var appErr *AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("KindApp: expected *AppError, got %T", err)
	}
	if appErr.Msg != "out of stock" {
		t.Errorf("AppError message: got %q, want %q", appErr.Msg, "out of stock")
	}

	err = FromBody(Body{Kind: KindUnknownProcedure, Message: "no handler for procedure(9)"})
	var unknownErr *UnknownProcedureError
	if !errors.As(err, &unknownErr) {
		t.Fatalf("KindUnknownProcedure: expected *UnknownProcedureError, got %T", err)
	}

	// Decode failures, panics, and any kind added later all land on the
	// internal bucket — a client must never crash on an unknown kind.
	for _, kind := range []string{KindDecode, KindInternal, "some_future_kind"} {
		err = FromBody(Body{Kind: kind, Message: "x"})
		var internalErr *ServerInternalError
		if !errors.As(err, &internalErr) {
			t.Errorf("kind %q: expected *ServerInternalError, got %T", kind, err)
		}
	}
}

func TestUnwrap(t *testing.T) {
	cause := io.ErrUnexpectedEOF

	framing := &FramingError{Err: cause}
	if !errors.Is(framing, io.ErrUnexpectedEOF) {
		t.Error("FramingError should unwrap to its cause")
	}

	conn := &ConnectionError{Op: "dial", Addr: "127.0.0.1:9999", Err: cause}
	if !errors.Is(conn, io.ErrUnexpectedEOF) {
		t.Error("ConnectionError should unwrap to its cause")
	}

	decode := &DecodeError{What: "response", Err: cause}
	if !errors.Is(decode, io.ErrUnexpectedEOF) {
		t.Error("DecodeError should unwrap to its cause")
	}
}
