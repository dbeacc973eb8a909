// Package ingress runs inside every attested service process. Go has no
// pre-main constructor attribute, so the reference implementation's
// ctor-spawned background thread and lazily-initialized client map become
// an exported Init the service's own main calls first, which starts the
// FIFO reader goroutine and backs the process-wide session map it fills.
package ingress

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/alex-douk/tahini-attest-go/pkg/attest"
	attesttypes "github.com/alex-douk/tahini-attest-go/pkg/types"
)

var (
	mu       sync.Mutex
	sessions = map[attesttypes.ClientID][]byte{}
)

// Init opens the FIFO at fifoPath for reading, decodes the hex-encoded KEK,
// and starts the background reader goroutine that fills the process-wide
// session map. It must be called once, at the top of the attested binary's
// own main, before any RPC handler calls Take.
func Init(fifoPath, kekHex string) error {
	kek, err := hex.DecodeString(kekHex)
	if err != nil {
		return fmt.Errorf("ingress: decoding KEK: %w", err)
	}

	f, err := os.OpenFile(fifoPath, os.O_RDONLY, 0)
	if err != nil {
		return fmt.Errorf("ingress: opening FIFO at %s: %w", fifoPath, err)
	}

	go readLoop(f, kek)
	return nil
}

// readLoop reads one line at a time from the FIFO for the lifetime of the
// process. A malformed line is a programming error on the sidecar's part
// and panics the reader goroutine, per the protocol's contract.
func readLoop(f *os.File, kek []byte) {
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		insertFromLine(scanner.Text(), kek)
	}
}

func insertFromLine(line string, kek []byte) {
	parts := strings.Split(line, ",")
	if len(parts) != 3 {
		panic(fmt.Sprintf("ingress: malformed FIFO line (expected 3 fields, got %d)", len(parts)))
	}

	nonce, err := hex.DecodeString(parts[0])
	if err != nil || len(nonce) != attest.SessionKeyNonceSize {
		panic(fmt.Sprintf("ingress: malformed nonce field %q", parts[0]))
	}
	ciphertext, err := hex.DecodeString(parts[1])
	if err != nil {
		panic(fmt.Sprintf("ingress: malformed ciphertext field %q", parts[1]))
	}
	clientIDVal, err := strconv.ParseUint(strings.TrimSpace(parts[2]), 10, 64)
	if err != nil {
		panic(fmt.Sprintf("ingress: malformed client id field %q", parts[2]))
	}

	plaintext, err := attest.Open(kek, nonce, ciphertext)
	if err != nil {
		panic(fmt.Sprintf("ingress: decrypting session key: %v", err))
	}

	clientID := attesttypes.ClientID(clientIDVal)
	mu.Lock()
	sessions[clientID] = plaintext
	mu.Unlock()
}

// Take removes and returns the session key delivered for clientID. The
// second return is false if no key has been delivered for that id, which
// also guards against a replayed client id: the first successful Take
// consumes the entry.
func Take(clientID attesttypes.ClientID) ([]byte, bool) {
	mu.Lock()
	defer mu.Unlock()
	key, ok := sessions[clientID]
	if ok {
		delete(sessions, clientID)
	}
	return key, ok
}
