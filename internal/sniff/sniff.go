// Package sniff classifies entry content by its leading bytes rather than by
// its declared name.
package sniff

import (
	"bytes"
	"io"
)

// Format is the content classification of a single archive entry.
type Format int

const (
	Unknown Format = iota
	LegacyDoc
	XMLDoc
	PDF
	Plain
)

func (f Format) String() string {
	switch f {
	case LegacyDoc:
		return "doc"
	case XMLDoc:
		return "docx"
	case PDF:
		return "pdf"
	case Plain:
		return "plain"
	default:
		return "unknown"
	}
}

// PrefixLen is the number of leading bytes inspected. It covers every
// signature below.
const PrefixLen = 8

type signature struct {
	magic  []byte
	format Format
}

// Ordered; first match wins.
var signatures = []signature{
	// Generic zip container. Only confirms the container, not that the parts
	// inside form a word-processor document.
	{magic: []byte{0x50, 0x4B, 0x03, 0x04}, format: XMLDoc},
	// Compound binary file.
	{magic: []byte{0xD0, 0xCF, 0x11, 0xE0}, format: LegacyDoc},
}

// DetectBytes classifies an in-memory prefix. Prefixes shorter than a
// signature never match it.
func DetectBytes(prefix []byte) Format {
	for _, s := range signatures {
		if bytes.HasPrefix(prefix, s.magic) {
			return s.format
		}
	}
	return Unknown
}

// Detect reads up to PrefixLen bytes from r and restores r to the position it
// had on entry. Readers that cannot seek are not read at all and classify as
// Unknown, so downstream readers always see the full stream.
func Detect(r io.Reader) Format {
	s, ok := r.(io.Seeker)
	if !ok {
		return Unknown
	}
	start, err := s.Seek(0, io.SeekCurrent)
	if err != nil {
		return Unknown
	}
	buf := make([]byte, PrefixLen)
	n, err := io.ReadFull(r, buf)
	if _, serr := s.Seek(start, io.SeekStart); serr != nil {
		return Unknown
	}
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return Unknown
	}
	return DetectBytes(buf[:n])
}
