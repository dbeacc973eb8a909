package sidecar

import (
	"crypto/ed25519"
	"net"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/alex-douk/tahini-attest-go/pkg/attest"
	attesttypes "github.com/alex-douk/tahini-attest-go/pkg/types"
)

// Serve accepts connections on ln and answers one attest_binary RPC per
// connection. Each accepted connection is handled on its own goroutine, so
// concurrent callers never block each other except at the shared-state
// locks AttestBinary itself acquires.
func Serve(ln net.Listener, s *Sidecar, priv ed25519.PrivateKey, l *zap.Logger) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			return err
		}
		go handleConn(conn, s, priv, l)
	}
}

// handleConn services one attest_binary call. Every connection gets a
// random trace ID purely for correlating its log lines — it never appears
// on the wire or in the report itself, which keeps ClientID the only
// protocol-visible session identifier.
func handleConn(conn net.Conn, s *Sidecar, priv ed25519.PrivateKey, l *zap.Logger) {
	defer conn.Close()
	traceID := uuid.NewString()
	l = l.With(zap.String("trace_id", traceID))

	err := attest.ServeOne(conn, func(req attesttypes.AttestBinaryRequest) (*attesttypes.DynamicAttestationReport, error) {
		return s.AttestBinary(priv, req)
	})
	if err != nil {
		l.Sugar().Warnw("attest_binary call failed", "remote", conn.RemoteAddr(), "error", err)
		return
	}
	l.Sugar().Debugw("attest_binary call completed", "remote", conn.RemoteAddr())
}
