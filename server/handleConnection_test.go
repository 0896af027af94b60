package server

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"testing"
)

// newTestConn returns a conn for s whose peer end is drained into the
// returned function's result once the conn is closed.
func newTestConn(t *testing.T, s *Server) (*conn, func() []byte) {
	t.Helper()
	client, srv := net.Pipe()
	t.Cleanup(func() { client.Close() })

	out := make(chan []byte, 1)
	go func() {
		raw, _ := io.ReadAll(client)
		out <- raw
	}()

	c := &conn{server: s, rwc: srv, log: slog.New(slog.NewTextHandler(io.Discard, nil))}
	return c, func() []byte {
		srv.Close()
		return <-out
	}
}

func TestConn_ServeFileRejectsDirectory(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "d"), 0o755); err != nil {
		t.Fatal(err)
	}
	s := &Server{Root: dir, Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	if err := s.init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	t.Cleanup(s.release)

	c, response := newTestConn(t, s)
	err := c.serveFile(&Request{Method: "GET", Path: "/d"}, "d")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("serveFile error = %v, want ErrNotFound", err)
	}
	want := "HTTP/1.0 404 Not Found\r\nContent-Length: 0\r\n\r\n"
	if raw := response(); string(raw) != want {
		t.Errorf("response = %q, want %q", raw, want)
	}
	if c.status != 404 {
		t.Errorf("status = %d, want 404", c.status)
	}
}

func TestConn_StatusRecordedAfterStatusLine(t *testing.T) {
	client, srv := net.Pipe()
	client.Close()
	c := &conn{rwc: srv}

	err := c.notFound(newError(ErrNotFound, "stat /x", nil))
	if !errors.Is(err, ErrNotFound) || !errors.Is(err, ErrConnectionWrite) {
		t.Errorf("notFound error = %v, want ErrNotFound and ErrConnectionWrite", err)
	}
	if c.status != 0 {
		t.Errorf("status = %d after a failed 404 status line", c.status)
	}

	if _, err := c.writeHeaders("text/plain", 2); !errors.Is(err, ErrConnectionWrite) {
		t.Errorf("writeHeaders error = %v, want ErrConnectionWrite", err)
	}
	if c.status != 0 {
		t.Errorf("status = %d after a failed 200 status line", c.status)
	}
}

func TestConn_WriteHeadersRecordsStatus(t *testing.T) {
	c, response := newTestConn(t, &Server{})
	if _, err := c.writeHeaders("text/plain", 2); err != nil {
		t.Fatalf("writeHeaders failed: %v", err)
	}
	if c.status != 200 {
		t.Errorf("status = %d, want 200", c.status)
	}
	if raw := response(); !bytes.HasPrefix(raw, []byte("HTTP/1.0 200 OK\r\n")) {
		t.Errorf("response = %q", raw)
	}
}
