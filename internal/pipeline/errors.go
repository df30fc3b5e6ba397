package pipeline

import (
	"errors"
	"fmt"
)

// ErrInvalidInput reports an archive path that is missing or not a regular
// file.
var ErrInvalidInput = errors.New("invalid input")

// ArchiveOpenError is the only failure that halts a run: the archive path is
// missing, not a regular file, or not a valid container.
type ArchiveOpenError struct {
	Path string
	Err  error
}

func (e *ArchiveOpenError) Error() string {
	return fmt.Sprintf("open archive %s: %v", e.Path, e.Err)
}

func (e *ArchiveOpenError) Unwrap() error { return e.Err }

// EntryReadError reports an entry whose content could not be opened or read.
type EntryReadError struct {
	Entry string
	Err   error
}

func (e *EntryReadError) Error() string {
	return fmt.Sprintf("read entry %s: %v", e.Entry, e.Err)
}

func (e *EntryReadError) Unwrap() error { return e.Err }

// ExtractionError reports content the selected strategy rejected.
type ExtractionError struct {
	Entry  string
	Format string
	Err    error
}

func (e *ExtractionError) Error() string {
	if e.Format == "" {
		return fmt.Sprintf("extract %s: %v", e.Entry, e.Err)
	}
	return fmt.Sprintf("extract %s as %s: %v", e.Entry, e.Format, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// WriteError reports an output file that could not be created or written.
type WriteError struct {
	Entry  string
	Output string
	Err    error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write %s for entry %s: %v", e.Output, e.Entry, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }
