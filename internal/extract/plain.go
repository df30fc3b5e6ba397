package extract

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
)

// DefaultEncoding is used by the plain-text strategy when no label is set.
const DefaultEncoding = "utf-8"

// PlainExtractor treats content as line-oriented text. Every line, however it
// was terminated, is emitted followed by a single '\n'.
type PlainExtractor struct {
	enc  encoding.Encoding
	name string
}

// NewPlain resolves an encoding label such as "utf-8", "latin1" or "gbk".
func NewPlain(label string) (*PlainExtractor, error) {
	enc, name, err := LookupEncoding(label)
	if err != nil {
		return nil, err
	}
	return &PlainExtractor{enc: enc, name: name}, nil
}

// LookupEncoding resolves a WHATWG encoding label. An empty label means UTF-8.
func LookupEncoding(label string) (encoding.Encoding, string, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		label = DefaultEncoding
	}
	enc, name := charset.Lookup(label)
	if enc == nil {
		return nil, "", fmt.Errorf("unknown text encoding %q", label)
	}
	if name == "utf-8" {
		// replaces malformed sequences with U+FFFD
		enc = unicode.UTF8
	}
	return enc, name, nil
}

// Encoding reports the canonical name of the decoding in use.
func (p *PlainExtractor) Encoding() string { return p.name }

// ID includes the decoding, so text decoded as utf-8 is never reused for a
// windows-1252 run.
func (p *PlainExtractor) ID() string { return "plain/" + p.name }

func (p *PlainExtractor) Extract(content []byte) (string, error) {
	decoded, err := p.enc.NewDecoder().Bytes(content)
	if err != nil {
		return "", fmt.Errorf("plain: decode %s: %w", p.name, err)
	}
	scanner := bufio.NewScanner(bytes.NewReader(decoded))
	scanner.Buffer(make([]byte, 0, 64*1024), len(decoded)+1)
	scanner.Split(scanLines)
	var b strings.Builder
	b.Grow(len(decoded) + 1)
	for scanner.Scan() {
		b.Write(scanner.Bytes())
		b.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("plain: read lines: %w", err)
	}
	return b.String(), nil
}

// scanLines splits on "\n", "\r\n" or a lone "\r".
func scanLines(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\n' {
			return i + 1, data[:i], nil
		}
		if i+1 < len(data) {
			if data[i+1] == '\n' {
				return i + 2, data[:i], nil
			}
			return i + 1, data[:i], nil
		}
		if atEOF {
			return i + 1, data[:i], nil
		}
		// a '\n' may follow in the next chunk
		return 0, nil, nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
