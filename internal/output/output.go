// Package output persists extracted text, one file per archive entry.
package output

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	prefix = "output_"
	suffix = ".txt"
)

var separators = strings.NewReplacer("/", "_", "\\", "_")

// FileName derives the output file name for an entry. Every path separator
// becomes '_', so "a/b.txt" and "a_b.txt" share a name; that collision is
// accepted and the later write wins.
func FileName(entryName string) string {
	return prefix + separators.Replace(entryName) + suffix
}

// Record describes a persisted output file.
type Record struct {
	Path   string
	Bytes  int
	SHA256 string
}

// Writer writes text files into Dir (the working directory when empty).
type Writer struct {
	Dir string
	// NoOverwrite refuses to replace files that already exist.
	NoOverwrite bool
}

// Write creates or truncates Dir/name and writes content as UTF-8. The file
// is closed on every path.
func (w Writer) Write(name, content string) (rec Record, err error) {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return rec, fmt.Errorf("invalid output name %q", name)
	}
	dir := w.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return rec, fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(dir, name)
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if w.NoOverwrite {
		flags = os.O_WRONLY | os.O_CREATE | os.O_EXCL
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return rec, fmt.Errorf("%s already exists: %w", path, err)
		}
		return rec, fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()
	bw := bufio.NewWriter(f)
	n, err := bw.WriteString(content)
	if err != nil {
		return rec, fmt.Errorf("write %s: %w", path, err)
	}
	if err := bw.Flush(); err != nil {
		return rec, fmt.Errorf("flush %s: %w", path, err)
	}
	sum := sha256.Sum256([]byte(content))
	return Record{Path: path, Bytes: n, SHA256: hex.EncodeToString(sum[:])}, nil
}
