package pipeline

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
)

// Entry is one named item of an archive. Implementations are only valid
// while the owning archive is open.
type Entry interface {
	Name() string
	IsDir() bool
	Open() (io.ReadCloser, error)
}

// Archive owns an opened zip container.
type Archive struct {
	path string
	zr   *zip.ReadCloser
}

// OpenArchive validates path and opens it as a zip container. Path problems
// are reported before the container is touched.
func OpenArchive(path string) (*Archive, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &ArchiveOpenError{Path: path, Err: fmt.Errorf("%w: %v", ErrInvalidInput, err)}
	}
	if !info.Mode().IsRegular() {
		return nil, &ArchiveOpenError{Path: path, Err: fmt.Errorf("%w: not a regular file", ErrInvalidInput)}
	}
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, &ArchiveOpenError{Path: path, Err: err}
	}
	return &Archive{path: path, zr: zr}, nil
}

// Path returns the archive location as given to OpenArchive.
func (a *Archive) Path() string { return a.path }

// Entries lists the archive entries in container order.
func (a *Archive) Entries() []Entry {
	out := make([]Entry, 0, len(a.zr.File))
	for _, f := range a.zr.File {
		out = append(out, zipEntry{f})
	}
	return out
}

// Close releases the container.
func (a *Archive) Close() error {
	if a == nil || a.zr == nil {
		return nil
	}
	err := a.zr.Close()
	a.zr = nil
	return err
}

type zipEntry struct{ f *zip.File }

func (e zipEntry) Name() string                 { return e.f.Name }
func (e zipEntry) IsDir() bool                  { return e.f.FileInfo().IsDir() }
func (e zipEntry) Open() (io.ReadCloser, error) { return e.f.Open() }
