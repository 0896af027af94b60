package server

import (
	"errors"
	"io/fs"
	"testing"
)

func TestError(t *testing.T) {
	err := newError(ErrNotFound, "stat /x", fs.ErrNotExist)

	if got, want := err.Error(), "stat /x: not found: file does not exist"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, ErrNotFound) {
		t.Error("errors.Is did not match the kind")
	}
	if errors.Is(err, ErrFileRead) {
		t.Error("errors.Is matched a different kind")
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Error("underlying error not reachable through Unwrap")
	}
	if got := newError(ErrEncoding, "", nil).Error(); got != "unrepresentable name" {
		t.Errorf("bare Error() = %q", got)
	}
}

func TestErrorKind_IsParseError(t *testing.T) {
	parse := map[ErrorKind]bool{
		ErrMalformedRequestLine: true,
		ErrIncompleteRequest:    true,
		ErrMalformedHeader:      true,
		ErrNotFound:             false,
		ErrConnectionWrite:      false,
		ErrFileRead:             false,
		ErrDirectoryRead:        false,
		ErrEncoding:             false,
	}
	for kind, want := range parse {
		if got := kind.IsParseError(); got != want {
			t.Errorf("%v.IsParseError() = %v, want %v", kind, got, want)
		}
	}
}
