// Package protocol implements the framed binary wire format of solo-rpc.
//
// It solves TCP's sticky packet problem with a fixed-size header followed
// by a variable-length body. The receiver reads the header first to learn
// the body length, then reads exactly that many bytes with io.ReadFull —
// no delimiters, no scanning, no ambiguity with binary payloads.
//
// A connection carries exactly one request frame and at most one response
// frame, so there is no sequence number: the response on a connection is
// the answer to the request on that connection.
//
// Request frame (12-byte header):
//
//	0      3  4  4         8         12
//	┌──────┬──┬───────────┬─────────┬───────────────┐
//	│magic │v │ procedure │ bodyLen │    body ...   │
//	│ srp  │01│  uint32   │ uint32  │ bodyLen bytes │
//	└──────┴──┴───────────┴─────────┴───────────────┘
//
// Response frame (9-byte header):
//
//	0      3  4  5         9
//	┌──────┬──┬──┬─────────┬───────────────┐
//	│magic │v │st│ bodyLen │    body ...   │
//	│ srp  │01│  │ uint32  │ bodyLen bytes │
//	└──────┴──┴──┴─────────┴───────────────┘
//
// Multi-byte integers are big-endian. A status-0 body is the procedure's
// encoded response; any other status carries a JSON error description
// (see package rpcerror).
package protocol

import (
	"encoding/binary"
	"io"

	"solo-rpc/procedure"
	"solo-rpc/rpcerror"
)

// Magic number bytes: "srp" (solo-rpc protocol).
// Used to quickly identify whether the incoming data is a valid frame,
// rejecting non-protocol connections (e.g., HTTP clients hitting the wrong
// port) before anything is allocated for them.
const (
	MagicNumber byte = 0x73 // 's'
	MagicByte2  byte = 0x72 // 'r'
	MagicByte3  byte = 0x70 // 'p'
	Version     byte = 0x01

	RequestHeaderSize  int = 12 // 3 (magic) + 1 (version) + 4 (procedure) + 4 (bodyLen)
	ResponseHeaderSize int = 9  // 3 (magic) + 1 (version) + 1 (status) + 4 (bodyLen)
)

// MaxBodyLen caps a frame body at 16 MiB. A length field beyond the cap is
// a framing error, not an instruction to allocate.
const MaxBodyLen uint32 = 16 << 20

// Status is the first byte of a response body's header: the outcome of the
// call, readable before any payload decoding.
type Status byte

const (
	StatusOK       Status = 0 // body is the procedure's encoded response
	StatusAppError Status = 1 // handler returned a domain error; body describes it
	StatusInternal Status = 2 // server failed before or around the handler; body describes it
)

// WriteRequest writes one complete request frame to w.
// The frame is assembled in a single buffer and written in one call, so a
// write error never leaves a half-frame ambiguity on this side.
func WriteRequest(w io.Writer, proc procedure.ID, body []byte) error {
	buf := make([]byte, RequestHeaderSize, RequestHeaderSize+len(body))
	buf[0], buf[1], buf[2] = MagicNumber, MagicByte2, MagicByte3
	buf[3] = Version
	binary.BigEndian.PutUint32(buf[4:8], uint32(proc))
	binary.BigEndian.PutUint32(buf[8:12], uint32(len(body)))
	buf = append(buf, body...)

	_, err := w.Write(buf)
	return err
}

// ReadRequest reads one complete request frame from r.
// It validates the magic number and version, then reads exactly bodyLen
// bytes. Every failure — short read, bad preamble, oversized length — is a
// *rpcerror.FramingError; the connection it came from cannot be reused.
func ReadRequest(r io.Reader) (procedure.ID, []byte, error) {
	header := make([]byte, RequestHeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return 0, nil, &rpcerror.FramingError{Err: err}
	}

	if err := checkPreamble(header); err != nil {
		return 0, nil, err
	}

	proc := procedure.ID(binary.BigEndian.Uint32(header[4:8]))
	body, err := readBody(r, binary.BigEndian.Uint32(header[8:12]))
	if err != nil {
		return 0, nil, err
	}
	return proc, body, nil
}

// WriteResponse writes one complete response frame to w.
func WriteResponse(w io.Writer, status Status, body []byte) error {
	buf := make([]byte, ResponseHeaderSize, ResponseHeaderSize+len(body))
	buf[0], buf[1], buf[2] = MagicNumber, MagicByte2, MagicByte3
	buf[3] = Version
	buf[4] = byte(status)
	binary.BigEndian.PutUint32(buf[5:9], uint32(len(body)))
	buf = append(buf, body...)

	_, err := w.Write(buf)
	return err
}

// ReadResponse reads one complete response frame from r, validating the
// preamble and the status byte.
func ReadResponse(r io.Reader) (Status, []byte, error) {
	header := make([]byte, ResponseHeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return 0, nil, &rpcerror.FramingError{Err: err}
	}

	if err := checkPreamble(header); err != nil {
		return 0, nil, err
	}

	status := Status(header[4])
	if status != StatusOK && status != StatusAppError && status != StatusInternal {
		return 0, nil, rpcerror.Framingf("unsupported status: %d", header[4])
	}

	body, err := readBody(r, binary.BigEndian.Uint32(header[5:9]))
	if err != nil {
		return 0, nil, err
	}
	return status, body, nil
}

// checkPreamble validates the magic number and version shared by both
// frame shapes.
func checkPreamble(header []byte) error {
	if header[0] != MagicNumber || header[1] != MagicByte2 || header[2] != MagicByte3 {
		return rpcerror.Framingf("invalid magic number: %x", header[0:3])
	}
	if header[3] != Version {
		return rpcerror.Framingf("unsupported version: %d", header[3])
	}
	return nil
}

// readBody reads exactly bodyLen bytes, enforcing the size cap first.
func readBody(r io.Reader, bodyLen uint32) ([]byte, error) {
	if bodyLen > MaxBodyLen {
		return nil, rpcerror.Framingf("body length %d exceeds cap %d", bodyLen, MaxBodyLen)
	}
	body := make([]byte, bodyLen)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, &rpcerror.FramingError{Err: err}
	}
	return body, nil
}
