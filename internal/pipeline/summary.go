package pipeline

import (
	"errors"

	"github.com/hyperifyio/ziptext/internal/sniff"
)

// State is where an entry ended up.
type State string

const (
	StateReceived   State = "received"
	StateSkipped    State = "skipped"
	StateClassified State = "classified"
	StateExtracting State = "extracting"
	StateWritten    State = "written"
	StateFailed     State = "failed"
)

// EntryResult is the explicit outcome of one entry. Err is set only when
// State is StateFailed.
type EntryResult struct {
	Name      string
	State     State
	Family    string
	Format    sniff.Format
	Output    string
	Bytes     int
	SHA256    string
	Cached    bool
	Collision bool
	Err       error
}

// Summary aggregates a run in archive order.
type Summary struct {
	Results []EntryResult
}

// Count returns the number of entries that ended in state.
func (s Summary) Count(state State) int {
	n := 0
	for _, r := range s.Results {
		if r.State == state {
			n++
		}
	}
	return n
}

// Failed returns the failed entries in archive order.
func (s Summary) Failed() []EntryResult {
	var out []EntryResult
	for _, r := range s.Results {
		if r.State == StateFailed {
			out = append(out, r)
		}
	}
	return out
}

// Err joins every per-entry failure, or returns nil when none failed.
func (s Summary) Err() error {
	var errs []error
	for _, r := range s.Results {
		if r.State == StateFailed && r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	return errors.Join(errs...)
}
