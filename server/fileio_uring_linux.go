//go:build linux

package server

import (
	"fmt"
	"io"
	"os"

	"github.com/iceber/iouring-go"
)

// Queue depth shared by every connection reading through the ring.
const uringEntries = 64

type uringReaders struct {
	iour *iouring.IOURing
}

func newUringReaders() (*uringReaders, error) {
	iour, err := iouring.New(uringEntries)
	if err != nil {
		return nil, fmt.Errorf("init io_uring: %w", err)
	}
	return &uringReaders{iour: iour}, nil
}

func (u *uringReaders) reader(f *os.File) io.Reader {
	return &uringFileReader{iour: u.iour, fd: int(f.Fd())}
}

func (u *uringReaders) Close() error {
	return u.iour.Close()
}

// uringFileReader reads a file from offset 0 with pread submissions.
type uringFileReader struct {
	iour   *iouring.IOURing
	fd     int
	offset uint64
}

func (r *uringFileReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	ch := make(chan iouring.Result, 1)
	if _, err := r.iour.SubmitRequest(iouring.Pread(r.fd, p, r.offset), ch); err != nil {
		return 0, fmt.Errorf("submit pread: %w", err)
	}

	result := <-ch
	n, err := result.ReturnInt()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, io.EOF
	}
	r.offset += uint64(n)
	return n, nil
}
