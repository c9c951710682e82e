package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"strings"
	"testing"

	"solo-rpc/rpcerror"
)

func TestRequestRoundTrip(t *testing.T) {
	body := []byte(`"Gaspode the wonder dog"`)

	var buf bytes.Buffer
	if err := WriteRequest(&buf, 42, body); err != nil {
		t.Fatalf("WriteRequest failed: %v", err)
	}

	proc, decodedBody, err := ReadRequest(&buf)
	if err != nil {
		t.Fatalf("ReadRequest failed: %v", err)
	}
	if proc != 42 {
		t.Errorf("procedure mismatch: got %d, want 42", proc)
	}
	if !bytes.Equal(decodedBody, body) {
		t.Errorf("body mismatch: got %s, want %s", decodedBody, body)
	}
}

func TestResponseRoundTrip(t *testing.T) {
	body := []byte(`["Gaspode"]`)

	var buf bytes.Buffer
	if err := WriteResponse(&buf, StatusAppError, body); err != nil {
		t.Fatalf("WriteResponse failed: %v", err)
	}

	status, decodedBody, err := ReadResponse(&buf)
	if err != nil {
		t.Fatalf("ReadResponse failed: %v", err)
	}
	if status != StatusAppError {
		t.Errorf("status mismatch: got %d, want %d", status, StatusAppError)
	}
	if !bytes.Equal(decodedBody, body) {
		t.Errorf("body mismatch: got %s, want %s", decodedBody, body)
	}
}

func TestRequestEmptyBody(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteRequest(&buf, 1, nil); err != nil {
		t.Fatalf("WriteRequest failed: %v", err)
	}
	if buf.Len() != RequestHeaderSize {
		t.Fatalf("frame length = %d, want header only (%d)", buf.Len(), RequestHeaderSize)
	}

	proc, body, err := ReadRequest(&buf)
	if err != nil {
		t.Fatalf("ReadRequest failed: %v", err)
	}
	if proc != 1 {
		t.Errorf("procedure mismatch: got %d, want 1", proc)
	}
	if len(body) != 0 {
		t.Errorf("expected empty body, got length %d", len(body))
	}
}

func TestReadRequestInvalidMagic(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte("GET / HTTP/1.1\r\n"))

	_, _, err := ReadRequest(&buf)
	if err == nil {
		t.Fatal("expected error for invalid magic number, got nil")
	}
	var framingErr *rpcerror.FramingError
	if !errors.As(err, &framingErr) {
		t.Errorf("expected *rpcerror.FramingError, got %T", err)
	}
	if !strings.Contains(err.Error(), "invalid magic number") {
		t.Errorf("error should mention the magic number, got: %v", err)
	}
}

func TestReadResponseInvalidVersion(t *testing.T) {
	frame := []byte{
		MagicNumber, MagicByte2, MagicByte3,
		0xFF, // wrong version
		byte(StatusOK),
		0, 0, 0, 0,
	}

	_, _, err := ReadResponse(bytes.NewReader(frame))
	if err == nil {
		t.Fatal("expected error for unsupported version, got nil")
	}
	if !strings.Contains(err.Error(), "unsupported version") {
		t.Errorf("error should mention the version, got: %v", err)
	}
}

func TestReadResponseUnknownStatus(t *testing.T) {
	frame := []byte{
		MagicNumber, MagicByte2, MagicByte3,
		Version,
		0x07, // not a defined status
		0, 0, 0, 0,
	}

	_, _, err := ReadResponse(bytes.NewReader(frame))
	if err == nil {
		t.Fatal("expected error for unsupported status, got nil")
	}
}

func TestReadRequestTruncatedHeader(t *testing.T) {
	// A peer that dies after 3 bytes of header.
	frame := []byte{MagicNumber, MagicByte2, MagicByte3}

	_, _, err := ReadRequest(bytes.NewReader(frame))
	if err == nil {
		t.Fatal("expected error for truncated header, got nil")
	}
	var framingErr *rpcerror.FramingError
	if !errors.As(err, &framingErr) {
		t.Errorf("expected *rpcerror.FramingError, got %T", err)
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("expected io.ErrUnexpectedEOF in the chain, got: %v", err)
	}
}

func TestReadRequestTruncatedBody(t *testing.T) {
	// Header promises 100 bytes, stream carries 5.
	var buf bytes.Buffer
	header := make([]byte, RequestHeaderSize)
	header[0], header[1], header[2] = MagicNumber, MagicByte2, MagicByte3
	header[3] = Version
	binary.BigEndian.PutUint32(header[4:8], 42)
	binary.BigEndian.PutUint32(header[8:12], 100)
	buf.Write(header)
	buf.Write([]byte("hello"))

	_, _, err := ReadRequest(&buf)
	if err == nil {
		t.Fatal("expected error for truncated body, got nil")
	}
	var framingErr *rpcerror.FramingError
	if !errors.As(err, &framingErr) {
		t.Errorf("expected *rpcerror.FramingError, got %T", err)
	}
}

func TestReadRequestOversizedBody(t *testing.T) {
	// A hostile length field must be rejected before allocation.
	header := make([]byte, RequestHeaderSize)
	header[0], header[1], header[2] = MagicNumber, MagicByte2, MagicByte3
	header[3] = Version
	binary.BigEndian.PutUint32(header[4:8], 1)
	binary.BigEndian.PutUint32(header[8:12], MaxBodyLen+1)

	_, _, err := ReadRequest(bytes.NewReader(header))
	if err == nil {
		t.Fatal("expected error for oversized body length, got nil")
	}
	if !strings.Contains(err.Error(), "exceeds cap") {
		t.Errorf("error should mention the cap, got: %v", err)
	}
}

func TestRequestLargeBody(t *testing.T) {
	largeBody := make([]byte, 1024*1024)
	for i := range largeBody {
		largeBody[i] = byte(i % 256)
	}

	var buf bytes.Buffer
	if err := WriteRequest(&buf, 999, largeBody); err != nil {
		t.Fatalf("WriteRequest failed: %v", err)
	}

	_, decodedBody, err := ReadRequest(&buf)
	if err != nil {
		t.Fatalf("ReadRequest failed: %v", err)
	}
	if !bytes.Equal(decodedBody, largeBody) {
		t.Error("large body mismatch after round trip")
	}
}
