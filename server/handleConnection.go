package server

import (
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// conn is one accepted connection. It owns rwc until serve returns.
type conn struct {
	server *Server
	rwc    net.Conn
	log    *slog.Logger

	status  int
	written int64
}

func (s *Server) handleConnection(rwc net.Conn) {
	c := &conn{
		server: s,
		rwc:    rwc,
		log: s.Logger.With(
			"conn_id", uuid.NewString(),
			"remote", rwc.RemoteAddr().String(),
		),
	}

	start := time.Now()
	req, err := c.serve()

	var herr *Error
	switch {
	case err == nil:
		c.log.Info("served", c.accessAttrs(req, start)...)
	case errors.As(err, &herr) && herr.Kind.IsParseError():
		// No response is attempted for a request that could not be parsed.
		c.log.Warn("bad request, closing", "err", err)
	case errors.Is(err, ErrNotFound):
		c.log.Info("not found", c.accessAttrs(req, start)...)
	default:
		c.log.Error("http error", append(c.accessAttrs(req, start), "err", err)...)
	}
}

func (c *conn) accessAttrs(req *Request, start time.Time) []any {
	attrs := []any{
		"status", c.status,
		"bytes", c.written,
		"duration", time.Since(start),
	}
	if req != nil {
		attrs = append(attrs, "method", req.Method, "path", req.Path)
	}
	return attrs
}

func (c *conn) serve() (*Request, error) {
	defer c.rwc.Close()

	req, err := ReadRequest(c.rwc)
	if err != nil {
		return nil, err
	}
	req.RemoteAddr = c.rwc.RemoteAddr().String()

	target, err := c.server.dispatcher.Resolve(req.Path)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return req, c.notFound(err)
		}
		return req, err
	}

	switch target.Kind {
	case TargetFile, TargetIndex:
		return req, c.serveFile(req, target.Name)
	case TargetListing:
		return req, c.serveListing(req, target.Listing)
	}
	return req, newError(ErrNotFound, "dispatch "+req.Path, nil)
}

// notFound answers 404 and returns cause, joined with any write error.
func (c *conn) notFound(cause error) error {
	hw, err := StartResponse(c.rwc, http.StatusNotFound)
	if err != nil {
		return errors.Join(cause, err)
	}
	c.status = http.StatusNotFound
	if err := hw.SendHeader("Content-Length", "0"); err != nil {
		return errors.Join(cause, err)
	}
	if _, err := hw.EndHeaders(); err != nil {
		return errors.Join(cause, err)
	}
	return cause
}

// serveFile streams the root-relative file name. The content type is taken
// from name, so an index document is always served as HTML.
func (c *conn) serveFile(req *Request, name string) error {
	f, err := c.server.root.Open(name)
	if err != nil {
		return newError(ErrFileRead, "open "+req.Path, err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return newError(ErrFileRead, "stat "+req.Path, err)
	}
	if !fi.Mode().IsRegular() {
		// the name was swapped for a directory or device after Resolve
		return c.notFound(newError(ErrNotFound, "stat "+req.Path, nil))
	}
	size := fi.Size()

	ctype := MimeType(name)
	if ctype == defaultContentType && c.server.SniffUnknown {
		sniffed, err := sniffContentType(f)
		if err != nil {
			return newError(ErrFileRead, "sniff "+req.Path, err)
		}
		ctype = sniffed
	}

	body, err := c.writeHeaders(ctype, size)
	if err != nil {
		return err
	}
	if req.Method == http.MethodHead {
		return nil
	}

	err = copyChunks(body, c.server.readers.reader(f), size, c.server.chunkSize())
	c.written = body.Written()
	return err
}

func (c *conn) serveListing(req *Request, l *Listing) error {
	body, err := c.writeHeaders(MimeType(indexName), l.Size())
	if err != nil {
		return err
	}
	if req.Method == http.MethodHead {
		return nil
	}

	defer func() { c.written = body.Written() }()
	for _, line := range l.Lines() {
		if err := body.ContinueResponse(line); err != nil {
			return err
		}
	}
	return nil
}

func (c *conn) writeHeaders(contentType string, length int64) (*BodyWriter, error) {
	hw, err := StartResponse(c.rwc, http.StatusOK)
	if err != nil {
		return nil, err
	}
	c.status = http.StatusOK
	if err := hw.SendHeader("Content-Type", contentType); err != nil {
		return nil, err
	}
	if err := hw.SendHeader("Content-Length", strconv.FormatInt(length, 10)); err != nil {
		return nil, err
	}
	return hw.EndHeaders()
}

// copyChunks writes exactly size bytes of src to body, chunkSize bytes at a
// time. A source that ends early is a read error; the body is never padded.
func copyChunks(body *BodyWriter, src io.Reader, size int64, chunkSize int) error {
	buf := make([]byte, chunkSize)
	lr := io.LimitReader(src, size)
	for {
		n, err := lr.Read(buf)
		if n > 0 {
			if werr := body.ContinueResponse(buf[:n]); werr != nil {
				return werr
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return newError(ErrFileRead, "read body", err)
		}
	}
	if body.Written() != size {
		return newError(ErrFileRead, "read body", io.ErrUnexpectedEOF)
	}
	return nil
}
