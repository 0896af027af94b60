//go:build !linux

package server

import "errors"

type uringReaders struct{ stdReaders }

func newUringReaders() (*uringReaders, error) {
	return nil, errors.New("io_uring file io is only available on linux")
}
