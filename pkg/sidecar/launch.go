package sidecar

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/alex-douk/tahini-attest-go/pkg/attest"
	"github.com/alex-douk/tahini-attest-go/pkg/config"
)

const (
	fifoFileName       = "sidecar_fifo"
	writerOpenAttempts = 5
	writerOpenDelay    = 20 * time.Millisecond
)

// LaunchedBinary is everything the sidecar keeps about one spawned child:
// the process handle and the FIFO writer (carrying its own KEK) used to
// deliver session keys to it.
type LaunchedBinary struct {
	Cmd    *exec.Cmd
	Writer *FifoWriter
}

// Launch creates the binary's FIFO, derives its pipe KEK, spawns the child
// with --fifo_path and --kek_hex, and only then opens the writer end — in
// that order, since opening the writer before the child exists and has
// opened the reader end would block the sidecar indefinitely.
func Launch(entry config.BinaryEntry, l *zap.Logger) (*LaunchedBinary, error) {
	fifoPath := filepath.Join(entry.RunPath, fifoFileName)
	if err := CreateFIFO(fifoPath); err != nil {
		return nil, err
	}

	ikm := make([]byte, 32)
	if _, err := rand.Read(ikm); err != nil {
		return nil, fmt.Errorf("sidecar: generating pipe KEK input key material: %w", err)
	}
	salt := make([]byte, 32)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("sidecar: generating pipe KEK salt: %w", err)
	}
	kek, err := attest.DerivePipeKEK(ikm, salt, fifoPath)
	if err != nil {
		return nil, err
	}

	cmd := exec.Command(entry.BinPath,
		"--fifo_path", fifoPath,
		"--kek_hex", hex.EncodeToString(kek),
	)
	cmd.Dir = entry.RunPath
	if err := cmd.Start(); err != nil {
		return nil, errors.Wrapf(err, "sidecar: spawning %s", entry.BinPath)
	}
	l.Sugar().Debugw("spawned attested binary", "bin_path", entry.BinPath, "pid", cmd.Process.Pid, "fifo_path", fifoPath)

	writer, err := OpenFifoWriter(fifoPath, kek, writerOpenAttempts, writerOpenDelay)
	if err != nil {
		return nil, err
	}

	return &LaunchedBinary{Cmd: cmd, Writer: writer}, nil
}
