package attest

import (
	"errors"
	"fmt"
	"io"

	attesttypes "github.com/alex-douk/tahini-attest-go/pkg/types"
)

// MethodAttestBinary names the single RPC the protocol exposes, carried in
// every request envelope the way a tarpc-style service definition would tag
// it on the wire.
const MethodAttestBinary = "attest_binary"

// Request is the envelope a client sends: a method name plus its payload.
// The protocol has exactly one method today, but the envelope keeps the
// door open without changing the frame format.
type Request struct {
	Method  string                             `json:"method"`
	Payload attesttypes.AttestBinaryRequest `json:"payload"`
}

// Response is the envelope a server sends back: exactly one of Report or
// Error is populated.
type Response struct {
	Report *attesttypes.DynamicAttestationReport `json:"report,omitempty"`
	Error  string                                `json:"error,omitempty"`
}

// CallAttestBinary sends an attest_binary request over conn and waits for
// the response frame.
func CallAttestBinary(conn io.ReadWriter, req attesttypes.AttestBinaryRequest) (*attesttypes.DynamicAttestationReport, error) {
	if err := WriteFrame(conn, Request{Method: MethodAttestBinary, Payload: req}); err != nil {
		return nil, fmt.Errorf("attest: sending request: %w", err)
	}
	var resp Response
	if err := ReadFrame(conn, &resp); err != nil {
		return nil, fmt.Errorf("attest: reading response: %w", err)
	}
	if resp.Error != "" {
		return nil, errors.New(resp.Error)
	}
	if resp.Report == nil {
		return nil, errors.New("attest: server returned an empty report")
	}
	return resp.Report, nil
}

// Handler produces a report for one attest_binary request, or an error if
// the service name can't be resolved, its certificate is missing, or the
// FIFO write fails.
type Handler func(attesttypes.AttestBinaryRequest) (*attesttypes.DynamicAttestationReport, error)

// ServeOne reads a single request frame from conn, dispatches it to
// handle, and writes back exactly one response frame. Callers loop this
// per accepted connection.
func ServeOne(conn io.ReadWriter, handle Handler) error {
	var req Request
	if err := ReadFrame(conn, &req); err != nil {
		return fmt.Errorf("attest: reading request: %w", err)
	}
	if req.Method != MethodAttestBinary {
		return WriteFrame(conn, Response{Error: fmt.Sprintf("attest: unknown method %q", req.Method)})
	}
	report, err := handle(req.Payload)
	if err != nil {
		return WriteFrame(conn, Response{Error: err.Error()})
	}
	return WriteFrame(conn, Response{Report: report})
}
