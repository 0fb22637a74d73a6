package transport

import (
	"context"
	"encoding/pem"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ismaiel54/fix-order-client/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeadlineConn_QuietPeerIsRetryable(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	conn := NewDeadlineConn(client, 20*time.Millisecond)
	buf := make([]byte, 16)

	_, err := conn.Read(buf)
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrDeadlineExceeded))
	assert.True(t, session.IsRetryable(err))

	// The deadline is re-armed, so a later write is still read.
	go func() { _, _ = server.Write([]byte("8=FIX.4.4")) }()
	n, err := conn.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "8=FIX.4.4", string(buf[:n]))
}

func newEchoTLSServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "pong")
	}))
	t.Cleanup(srv.Close)
	return srv
}

func roundTrip(t *testing.T, conn net.Conn) string {
	t.Helper()
	_, err := io.WriteString(conn, "GET / HTTP/1.0\r\nHost: example.com\r\n\r\n")
	require.NoError(t, err)
	data, err := io.ReadAll(conn)
	require.NoError(t, err)
	return string(data)
}

func TestDialTLS_Insecure(t *testing.T) {
	srv := newEchoTLSServer(t)

	conn, err := DialTLS(context.Background(), Options{
		Addr:               srv.Listener.Addr().String(),
		InsecureSkipVerify: true,
		ReadTimeout:        2 * time.Second,
	})
	require.NoError(t, err)
	defer conn.Close()

	resp := roundTrip(t, conn)
	assert.True(t, strings.HasPrefix(resp, "HTTP/1.0 200"))
	assert.Contains(t, resp, "pong")
}

func TestDialTLS_RootCAFile(t *testing.T) {
	srv := newEchoTLSServer(t)
	caPath := filepath.Join(t.TempDir(), "ca.pem")
	require.NoError(t, os.WriteFile(caPath,
		pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: srv.Certificate().Raw}), 0600))

	conn, err := DialTLS(context.Background(), Options{
		Addr:        srv.Listener.Addr().String(),
		RootCAFile:  caPath,
		ReadTimeout: 2 * time.Second,
	})
	require.NoError(t, err)
	defer conn.Close()
	assert.Contains(t, roundTrip(t, conn), "pong")
}

func TestDialTLS_UntrustedCertificate(t *testing.T) {
	srv := newEchoTLSServer(t)
	badCA := filepath.Join(t.TempDir(), "ca.pem")
	require.NoError(t, os.WriteFile(badCA, []byte("not a certificate"), 0600))

	_, err := DialTLS(context.Background(), Options{Addr: srv.Listener.Addr().String(), RootCAFile: badCA})
	assert.Error(t, err)

	_, err = DialTLS(context.Background(), Options{Addr: srv.Listener.Addr().String()})
	assert.Error(t, err, "self-signed certificate must not verify against the system pool")
}
