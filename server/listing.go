package server

import (
	"html"
	"net/url"
	"path"
	"strings"
)

// DirEntry is one link of a directory listing.
type DirEntry struct {
	Name string
	Href string
}

// Listing is a rendered directory listing. Lines are kept as bytes so the
// Content-Length is the exact sum of what is written.
type Listing struct {
	Entries []DirEntry
	Parent  string

	lines [][]byte
	size  int64
}

// NewListing builds the listing for the directory at reqPath whose entries
// are names, in the order given.
func NewListing(reqPath string, names []string) *Listing {
	l := &Listing{
		Entries: make([]DirEntry, 0, len(names)),
		Parent:  parentPath(reqPath),
		lines:   make([][]byte, 0, len(names)+1),
	}

	base := strings.TrimSuffix(reqPath, "/")
	for _, name := range names {
		e := DirEntry{Name: name, Href: base + "/" + name}
		l.Entries = append(l.Entries, e)
		l.addLine(e.Href, e.Name)
	}
	l.addLine(l.Parent, l.Parent)
	return l
}

func (l *Listing) addLine(href, text string) {
	line := listingLine(href, text)
	l.lines = append(l.lines, line)
	l.size += int64(len(line))
}

// Size is the byte length of the whole listing body.
func (l *Listing) Size() int64 {
	return l.size
}

// Lines returns the body one line per entry, parent link last.
func (l *Listing) Lines() [][]byte {
	return l.lines
}

func listingLine(href, text string) []byte {
	u := url.URL{Path: href}
	var b strings.Builder
	b.WriteString(`<a href="`)
	b.WriteString(html.EscapeString(u.EscapedPath()))
	b.WriteString(`">`)
	b.WriteString(html.EscapeString(text))
	b.WriteString("</a><br>\r\n")
	return []byte(b.String())
}

// parentPath returns the parent of p; the root is its own parent.
func parentPath(p string) string {
	return path.Dir(path.Clean("/" + p))
}
