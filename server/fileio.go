package server

import (
	"fmt"
	"io"
	"os"
)

// File I/O backends for streaming file bodies.
const (
	FileIOStd   = "std"
	FileIOUring = "uring"
)

const defaultChunkSize = 1024

// fileReaders opens body readers for served files.
type fileReaders interface {
	reader(f *os.File) io.Reader
	Close() error
}

type stdReaders struct{}

func (stdReaders) reader(f *os.File) io.Reader { return f }
func (stdReaders) Close() error                { return nil }

func newFileReaders(kind string) (fileReaders, error) {
	switch kind {
	case "", FileIOStd:
		return stdReaders{}, nil
	case FileIOUring:
		u, err := newUringReaders()
		if err != nil {
			return nil, err
		}
		return u, nil
	}
	return nil, fmt.Errorf("unknown file io %q", kind)
}
