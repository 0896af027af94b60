package server

import "fmt"

// ErrorKind classifies failures of a single connection.
type ErrorKind int

const (
	// Parse errors
	ErrMalformedRequestLine ErrorKind = iota
	ErrIncompleteRequest
	ErrMalformedHeader

	ErrNotFound

	// I/O errors
	ErrConnectionWrite
	ErrFileRead
	ErrDirectoryRead

	ErrEncoding
)

func (k ErrorKind) Error() string {
	switch k {
	case ErrMalformedRequestLine:
		return "malformed request line"
	case ErrIncompleteRequest:
		return "incomplete request"
	case ErrMalformedHeader:
		return "malformed header"
	case ErrNotFound:
		return "not found"
	case ErrConnectionWrite:
		return "connection write failed"
	case ErrFileRead:
		return "file read failed"
	case ErrDirectoryRead:
		return "directory read failed"
	case ErrEncoding:
		return "unrepresentable name"
	default:
		return fmt.Sprintf("unknown error kind: %d", int(k))
	}
}

// IsParseError reports whether k is one of the request parsing kinds.
func (k ErrorKind) IsParseError() bool {
	switch k {
	case ErrMalformedRequestLine, ErrIncompleteRequest, ErrMalformedHeader:
		return true
	}
	return false
}

// Error carries an ErrorKind together with the operation and the cause.
type Error struct {
	Kind       ErrorKind
	Op         string
	underlying error
}

func newError(kind ErrorKind, op string, underlying error) *Error {
	return &Error{Kind: kind, Op: op, underlying: underlying}
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.underlying != nil {
		return fmt.Sprintf("%s: %v", msg, e.underlying)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.underlying
}

// Is lets errors.Is match an *Error against a bare ErrorKind.
func (e *Error) Is(target error) bool {
	k, ok := target.(ErrorKind)
	return ok && k == e.Kind
}
