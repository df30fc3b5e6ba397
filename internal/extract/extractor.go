package extract

import (
	"errors"
	"fmt"

	"github.com/hyperifyio/ziptext/internal/sniff"
)

var (
	// ErrNotDocument reports content that matches none of the document
	// signatures a strategy family accepts.
	ErrNotDocument = errors.New("not a valid document")
	// ErrEncrypted reports password-protected or encrypted documents.
	ErrEncrypted = errors.New("encrypted document")
	// ErrMalformed reports content whose internal structure cannot be parsed.
	ErrMalformed = errors.New("malformed document")
)

// Extractor defines the contract for a text-extraction strategy.
// Implementations consume the whole content and either return the complete
// text or fail; they never return partial text alongside a nil error.
type Extractor interface {
	Extract(content []byte) (string, error)
}

// ExtractorFunc adapts a function to the Extractor interface.
type ExtractorFunc func(content []byte) (string, error)

func (f ExtractorFunc) Extract(content []byte) (string, error) { return f(content) }

// Options configures the default strategy set.
type Options struct {
	// Encoding is the label used by the plain-text strategy, e.g. "utf-8",
	// "windows-1252" or "gbk". Empty means UTF-8.
	Encoding string
}

// Registry maps a content format to the strategy that handles it.
type Registry struct {
	strategies map[sniff.Format]Extractor
}

// NewRegistry wires the default strategy for every supported format.
func NewRegistry(opts Options) (*Registry, error) {
	plain, err := NewPlain(opts.Encoding)
	if err != nil {
		return nil, err
	}
	r := &Registry{strategies: map[sniff.Format]Extractor{}}
	r.Register(sniff.PDF, PDFExtractor{})
	r.Register(sniff.XMLDoc, DOCXExtractor{})
	r.Register(sniff.LegacyDoc, DOCExtractor{})
	r.Register(sniff.Plain, plain)
	return r, nil
}

// Register installs or replaces the strategy for f.
func (r *Registry) Register(f sniff.Format, e Extractor) {
	r.strategies[f] = e
}

// Identifier is implemented by strategies whose output depends on settings
// beyond the content bytes.
type Identifier interface {
	ID() string
}

// StrategyID names the strategy registered for f, including any setting that
// changes its output. Cached text is only valid under the same ID.
func (r *Registry) StrategyID(f sniff.Format) string {
	if id, ok := r.strategies[f].(Identifier); ok {
		return id.ID()
	}
	return f.String()
}

// Lookup returns the strategy for f.
func (r *Registry) Lookup(f sniff.Format) (Extractor, bool) {
	e, ok := r.strategies[f]
	return e, ok
}

// guard runs fn and converts a panic raised by a third-party parser into an
// ErrMalformed failure so the text is never half-built.
func guard(format string, fn func() (string, error)) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			text = ""
			err = fmt.Errorf("%s: %w: %v", format, ErrMalformed, rec)
		}
	}()
	return fn()
}
