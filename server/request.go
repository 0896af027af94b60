package server

import (
	"bufio"
	"io"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
)

// Limit the request line and headers to 1MB
const maxHeaderBytes = 1 * 1024 * 1024

// HeaderField is a single header line as received.
type HeaderField struct {
	Name  string
	Value string
}

// Header keeps header fields in arrival order. Duplicates are kept.
type Header []HeaderField

// Get returns the first value for name, compared case-insensitively.
func (h Header) Get(name string) string {
	for _, f := range h {
		if strings.EqualFold(f.Name, name) {
			return f.Value
		}
	}
	return ""
}

// Values returns every value for name in arrival order.
func (h Header) Values(name string) []string {
	var vals []string
	for _, f := range h {
		if strings.EqualFold(f.Name, name) {
			vals = append(vals, f.Value)
		}
	}
	return vals
}

// Request is the parsed request line and header block of one connection.
type Request struct {
	Method string
	// Target is the request-target exactly as received.
	Target string
	// Path is the URL-decoded path of Target. It always starts with "/".
	Path   string
	Proto  string
	Header Header

	RemoteAddr string
}

// ReadRequest reads a request line and headers from r. It never reads a body,
// but r may be buffered past the end of the header block.
func ReadRequest(r io.Reader) (*Request, error) {
	reader := textproto.NewReader(bufio.NewReader(io.LimitReader(r, maxHeaderBytes)))

	// Read the request line: GET /path/to/index.html HTTP/1.0
	reqLine, err := reader.ReadLine()
	if err != nil {
		return nil, newError(ErrMalformedRequestLine, "read request line", err)
	}

	req := new(Request)
	var found bool

	req.Method, reqLine, found = strings.Cut(reqLine, " ")
	if !found || !methodValid(req.Method) {
		return nil, newError(ErrMalformedRequestLine, "parse method", nil)
	}

	req.Target, reqLine, found = strings.Cut(reqLine, " ")
	if !found {
		return nil, newError(ErrMalformedRequestLine, "parse target", nil)
	}
	u, err := url.ParseRequestURI(req.Target)
	if err != nil {
		return nil, newError(ErrMalformedRequestLine, "parse target", err)
	}
	if !strings.HasPrefix(u.Path, "/") {
		return nil, newError(ErrMalformedRequestLine, "parse target", nil)
	}
	req.Path = u.Path

	req.Proto = reqLine
	if !protoValid(req.Proto) {
		return nil, newError(ErrMalformedRequestLine, "parse proto", nil)
	}

	for {
		line, err := reader.ReadLine()
		if err != nil {
			// EOF here means the peer closed (or hit the limit) before the blank line.
			return nil, newError(ErrIncompleteRequest, "read header", err)
		}
		if line == "" {
			break
		}

		k, v, ok := strings.Cut(line, ":")
		if !ok || k == "" {
			return nil, newError(ErrMalformedHeader, "parse header", nil)
		}
		req.Header = append(req.Header, HeaderField{
			Name:  k,
			Value: strings.TrimSpace(v),
		})
	}

	return req, nil
}

func protoValid(proto string) bool {
	switch proto {
	case "HTTP/1.0", "HTTP/1.1":
		return true
	}
	return false
}

func methodValid(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodConnect, http.MethodOptions, http.MethodTrace:
		return true
	}
	return false
}
