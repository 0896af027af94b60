package server

import (
	"io"
	"net/http"
	"strconv"
)

// We hard-code this because every connection serves exactly one request
// and is then closed, which is HTTP/1.0 behaviour.
const responseProto = "HTTP/1.0"

var nlcf = []byte{0x0d, 0x0a}

// HeaderWriter is returned by StartResponse. It is the only way to send
// headers, and it is spent once EndHeaders is called.
type HeaderWriter struct {
	w     io.Writer
	ended bool
}

// BodyWriter is returned by EndHeaders and only writes raw body bytes.
type BodyWriter struct {
	w       io.Writer
	written int64
}

// StartResponse writes the status line for statusCode.
func StartResponse(w io.Writer, statusCode int) (*HeaderWriter, error) {
	line := make([]byte, 0, 64)
	line = append(line, responseProto...)
	line = append(line, ' ')
	line = strconv.AppendInt(line, int64(statusCode), 10)
	line = append(line, ' ')
	line = append(line, http.StatusText(statusCode)...)
	line = append(line, nlcf...)
	if _, err := w.Write(line); err != nil {
		return nil, newError(ErrConnectionWrite, "write status line", err)
	}
	return &HeaderWriter{w: w}, nil
}

// SendHeader writes one "Name: value" line.
func (h *HeaderWriter) SendHeader(name, value string) error {
	if h.ended {
		panic("server: SendHeader called after EndHeaders")
	}
	line := make([]byte, 0, len(name)+len(value)+4)
	line = append(line, name...)
	line = append(line, ':', ' ')
	line = append(line, value...)
	line = append(line, nlcf...)
	if _, err := h.w.Write(line); err != nil {
		return newError(ErrConnectionWrite, "write header", err)
	}
	return nil
}

// EndHeaders terminates the header block and hands over the body writer.
func (h *HeaderWriter) EndHeaders() (*BodyWriter, error) {
	if h.ended {
		panic("server: EndHeaders called twice")
	}
	h.ended = true
	if _, err := h.w.Write(nlcf); err != nil {
		return nil, newError(ErrConnectionWrite, "write header end", err)
	}
	return &BodyWriter{w: h.w}, nil
}

// ContinueResponse writes chunk as-is.
func (b *BodyWriter) ContinueResponse(chunk []byte) error {
	n, err := b.w.Write(chunk)
	b.written += int64(n)
	if err != nil {
		return newError(ErrConnectionWrite, "write body", err)
	}
	return nil
}

// Written returns the number of body bytes written so far.
func (b *BodyWriter) Written() int64 {
	return b.written
}
