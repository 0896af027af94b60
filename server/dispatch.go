package server

import (
	"os"
	"path"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

const indexName = "index.html"

// TargetKind is the classification of a request path.
type TargetKind int

const (
	TargetNotFound TargetKind = iota
	TargetFile
	TargetIndex
	TargetListing
)

func (k TargetKind) String() string {
	switch k {
	case TargetFile:
		return "file"
	case TargetIndex:
		return "index"
	case TargetListing:
		return "listing"
	}
	return "not found"
}

// Target is what a request path resolved to.
type Target struct {
	Kind TargetKind
	// Name is the root-relative file to serve for TargetFile and TargetIndex.
	Name    string
	Listing *Listing
}

// Dispatcher resolves request paths inside a root directory.
type Dispatcher struct {
	root *os.Root
}

func NewDispatcher(root *os.Root) *Dispatcher {
	return &Dispatcher{root: root}
}

// Resolve classifies reqPath. A missing or inaccessible path is reported as
// an ErrNotFound error together with a TargetNotFound target.
func (d *Dispatcher) Resolve(reqPath string) (Target, error) {
	name := rootRelative(reqPath)

	fi, err := d.root.Stat(name)
	if err != nil {
		return Target{Kind: TargetNotFound}, newError(ErrNotFound, "stat "+reqPath, err)
	}
	if fi.Mode().IsRegular() {
		return Target{Kind: TargetFile, Name: name}, nil
	}
	if !fi.IsDir() {
		// sockets, devices and fifos are never served
		return Target{Kind: TargetNotFound}, newError(ErrNotFound, "stat "+reqPath, nil)
	}

	dir, err := d.root.Open(name)
	if err != nil {
		return Target{}, newError(ErrDirectoryRead, "open "+reqPath, err)
	}
	defer dir.Close()

	// ReadDir on the open file keeps the filesystem order; os.ReadDir would sort.
	entries, err := dir.ReadDir(-1)
	if err != nil {
		return Target{}, newError(ErrDirectoryRead, "read "+reqPath, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Name() == indexName && d.isRegular(filepath.Join(name, indexName)) {
			return Target{Kind: TargetIndex, Name: filepath.Join(name, indexName)}, nil
		}
		names = append(names, e.Name())
	}
	for _, n := range names {
		if !utf8.ValidString(n) {
			return Target{}, newError(ErrEncoding, "list "+reqPath, nil)
		}
	}

	return Target{Kind: TargetListing, Listing: NewListing(reqPath, names)}, nil
}

// isRegular follows symlinks, so an index.html link to a directory is not an index.
func (d *Dispatcher) isRegular(name string) bool {
	fi, err := d.root.Stat(name)
	return err == nil && fi.Mode().IsRegular()
}

// rootRelative turns a request path into a name for os.Root. Cleaning against
// "/" drops any leading "..".
func rootRelative(reqPath string) string {
	rel := strings.TrimPrefix(path.Clean("/"+reqPath), "/")
	if rel == "" {
		return "."
	}
	return filepath.FromSlash(rel)
}
