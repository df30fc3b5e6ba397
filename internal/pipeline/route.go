package pipeline

import (
	"io"
	"strings"

	"github.com/hyperifyio/ziptext/internal/extract"
	"github.com/hyperifyio/ziptext/internal/sniff"
)

// Route pairs a coarse predicate over the declared entry name with a
// resolver that settles the exact format from the content. Routes are
// evaluated in order and the first match wins.
type Route struct {
	Family  string
	Match   func(name string) bool
	Resolve func(content io.ReadSeeker) (sniff.Format, error)
}

// DefaultRoutes returns the standard chain. Suffix matching is
// case-sensitive. The last route matches every name.
func DefaultRoutes() []Route {
	return []Route{
		{Family: "pdf", Match: hasSuffix(".pdf"), Resolve: fixed(sniff.PDF)},
		{Family: "word", Match: hasSuffix(".doc", ".docx"), Resolve: sniffWord},
		{Family: "plain", Match: func(string) bool { return true }, Resolve: fixed(sniff.Plain)},
	}
}

func hasSuffix(suffixes ...string) func(string) bool {
	return func(name string) bool {
		for _, s := range suffixes {
			if strings.HasSuffix(name, s) {
				return true
			}
		}
		return false
	}
}

func fixed(f sniff.Format) func(io.ReadSeeker) (sniff.Format, error) {
	return func(io.ReadSeeker) (sniff.Format, error) { return f, nil }
}

// sniffWord trusts the bytes, not the extension: a .doc holding a zip
// container is handled as XML, and vice versa.
func sniffWord(r io.ReadSeeker) (sniff.Format, error) {
	switch f := sniff.Detect(r); f {
	case sniff.XMLDoc, sniff.LegacyDoc:
		return f, nil
	}
	return sniff.Unknown, extract.ErrNotDocument
}

func matchRoute(routes []Route, name string) (Route, bool) {
	for _, r := range routes {
		if r.Match(name) {
			return r, true
		}
	}
	return Route{}, false
}
