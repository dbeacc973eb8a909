package sidecar

import (
	"fmt"
	"os"
	"sync"
	"syscall"
	"time"

	"github.com/pkg/errors"
)

// FifoWriter serializes every line written to one service's FIFO behind a
// single exclusive lock and carries the pipe KEK that line's ciphertext is
// sealed under — the writer and its key-encryption key share the same
// lifetime and the same lock, so they travel together.
type FifoWriter struct {
	mu   sync.Mutex
	f    *os.File
	kek  []byte
	path string
}

// CreateFIFO removes any stale file at path and creates a fresh named pipe
// in its place.
func CreateFIFO(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "sidecar: removing stale FIFO at %s", path)
	}
	if err := syscall.Mkfifo(path, 0o600); err != nil {
		return errors.Wrapf(err, "sidecar: creating FIFO at %s", path)
	}
	return nil
}

// OpenFifoWriter opens path for writing. Opening the write end of a FIFO
// blocks until a reader has opened the other end, so this must only be
// called after the child process has been spawned — never before, or the
// sidecar deadlocks waiting for a child that hasn't started yet.
//
// A bounded backoff loop retries on ENOENT, tolerating the child racing to
// create its own end of the exchange (the reference's design notes mention
// exactly this reconnect behavior).
func OpenFifoWriter(path string, kek []byte, attempts int, initialDelay time.Duration) (*FifoWriter, error) {
	delay := initialDelay
	var lastErr error
	for i := 0; i < attempts; i++ {
		f, err := os.OpenFile(path, os.O_WRONLY, 0)
		if err == nil {
			return &FifoWriter{f: f, kek: kek, path: path}, nil
		}
		lastErr = err
		if !os.IsNotExist(err) {
			break
		}
		time.Sleep(delay)
		delay *= 2
	}
	return nil, errors.Wrapf(lastErr, "sidecar: opening FIFO writer at %s", path)
}

// WriteLine writes line (already newline-terminated) to the FIFO under the
// writer's exclusive lock, the same lock that makes this write atomic with
// respect to other attestations for this service.
func (w *FifoWriter) WriteLine(line string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.f.WriteString(line); err != nil {
		return fmt.Errorf("sidecar: writing FIFO line to %s: %w", w.path, err)
	}
	return nil
}

// KEK returns the writer's pipe key-encryption key.
func (w *FifoWriter) KEK() []byte { return w.kek }

// Close closes the underlying file descriptor.
func (w *FifoWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.f.Close()
}
