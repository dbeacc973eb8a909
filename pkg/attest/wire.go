package attest

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
)

// MaxFrameSize bounds a single length-delimited frame so a malformed or
// hostile peer can't make a reader allocate without limit.
const MaxFrameSize = 1 << 20

// WriteFrame writes v as a length-delimited JSON frame: a 4-byte
// big-endian length prefix followed by the JSON encoding of v. This is the
// module's hand-rolled stand-in for the reference's tarpc +
// LengthDelimitedCodec transport, carrying the same self-describing
// textual payload §6 calls for.
func WriteFrame(w io.Writer, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("attest: marshaling frame: %w", err)
	}
	if len(payload) > MaxFrameSize {
		return fmt.Errorf("attest: frame of %d bytes exceeds maximum %d", len(payload), MaxFrameSize)
	}
	var header [4]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(payload)))
	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("attest: writing frame header: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("attest: writing frame payload: %w", err)
	}
	return nil
}

// ReadFrame reads one length-delimited JSON frame from r and unmarshals it
// into v.
func ReadFrame(r io.Reader, v any) error {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return fmt.Errorf("attest: reading frame header: %w", err)
	}
	length := binary.BigEndian.Uint32(header[:])
	if length > MaxFrameSize {
		return fmt.Errorf("attest: frame of %d bytes exceeds maximum %d", length, MaxFrameSize)
	}
	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return fmt.Errorf("attest: reading frame payload: %w", err)
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("attest: unmarshaling frame: %w", err)
	}
	return nil
}
