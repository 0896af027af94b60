package server

import (
	"bytes"
	"errors"
	"syscall"
	"testing"
)

// failingWriter accepts ok writes and then fails every write.
type failingWriter struct {
	ok  int
	buf bytes.Buffer
}

func (w *failingWriter) Write(p []byte) (int, error) {
	if w.ok == 0 {
		return 0, syscall.EPIPE
	}
	w.ok--
	return w.buf.Write(p)
}

func TestResponseWriter_Phases(t *testing.T) {
	var buf bytes.Buffer

	hw, err := StartResponse(&buf, 200)
	if err != nil {
		t.Fatalf("StartResponse failed: %v", err)
	}
	if err := hw.SendHeader("Content-Type", "application/octet-stream"); err != nil {
		t.Fatalf("SendHeader failed: %v", err)
	}
	if err := hw.SendHeader("Content-Length", "6"); err != nil {
		t.Fatalf("SendHeader failed: %v", err)
	}
	body, err := hw.EndHeaders()
	if err != nil {
		t.Fatalf("EndHeaders failed: %v", err)
	}

	// Invalid UTF-8 must pass through untouched.
	chunks := [][]byte{{0xff, 0xfe, 0x00}, {0xc3}, {0x28, 0x80}}
	for _, c := range chunks {
		if err := body.ContinueResponse(c); err != nil {
			t.Fatalf("ContinueResponse failed: %v", err)
		}
	}

	want := []byte("HTTP/1.0 200 OK\r\n" +
		"Content-Type: application/octet-stream\r\n" +
		"Content-Length: 6\r\n" +
		"\r\n")
	want = append(want, 0xff, 0xfe, 0x00, 0xc3, 0x28, 0x80)
	if !bytes.Equal(buf.Bytes(), want) {
		t.Errorf("got %q, want %q", buf.Bytes(), want)
	}
	if body.Written() != 6 {
		t.Errorf("Written() = %d, want 6", body.Written())
	}
}

func TestResponseWriter_NotFoundStatusLine(t *testing.T) {
	var buf bytes.Buffer
	if _, err := StartResponse(&buf, 404); err != nil {
		t.Fatalf("StartResponse failed: %v", err)
	}
	if got := buf.String(); got != "HTTP/1.0 404 Not Found\r\n" {
		t.Errorf("status line = %q", got)
	}
}

func TestResponseWriter_WriteFailures(t *testing.T) {
	testCases := []struct {
		name string
		ok   int
	}{
		{"status line", 0},
		{"header", 1},
		{"header end", 2},
		{"body", 3},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := &failingWriter{ok: tc.ok}
			err := writeSimpleResponse(w)
			if err == nil {
				t.Fatal("expected a write error")
			}
			if !errors.Is(err, ErrConnectionWrite) {
				t.Errorf("got %v, want ErrConnectionWrite", err)
			}
			if !errors.Is(err, syscall.EPIPE) {
				t.Errorf("underlying cause lost: %v", err)
			}
		})
	}
}

func writeSimpleResponse(w *failingWriter) error {
	hw, err := StartResponse(w, 200)
	if err != nil {
		return err
	}
	if err := hw.SendHeader("Content-Length", "2"); err != nil {
		return err
	}
	body, err := hw.EndHeaders()
	if err != nil {
		return err
	}
	return body.ContinueResponse([]byte("hi"))
}

func TestResponseWriter_HeaderAfterEndPanics(t *testing.T) {
	var buf bytes.Buffer
	hw, err := StartResponse(&buf, 200)
	if err != nil {
		t.Fatalf("StartResponse failed: %v", err)
	}
	if _, err := hw.EndHeaders(); err != nil {
		t.Fatalf("EndHeaders failed: %v", err)
	}

	defer func() {
		if recover() == nil {
			t.Error("SendHeader after EndHeaders did not panic")
		}
	}()
	hw.SendHeader("X-Late", "1")
}
