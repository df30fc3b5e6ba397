package app

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hyperifyio/ziptext/internal/pipeline"
)

// manifestEntry is a compact record of one archive entry's outcome.
type manifestEntry struct {
	Index     int    `json:"index"`
	Name      string `json:"name"`
	State     string `json:"state"`
	Family    string `json:"family,omitempty"`
	Format    string `json:"format,omitempty"`
	Output    string `json:"output,omitempty"`
	SHA256    string `json:"sha256,omitempty"`
	Bytes     int    `json:"bytes,omitempty"`
	Cached    bool   `json:"cached,omitempty"`
	Collision bool   `json:"collision,omitempty"`
	Error     string `json:"error,omitempty"`
}

// manifestMeta captures high-level run details that aid reproducibility.
type manifestMeta struct {
	RunID      string    `json:"run_id"`
	Archive    string    `json:"archive"`
	OutputDir  string    `json:"output_dir"`
	Encoding   string    `json:"encoding"`
	Version    string    `json:"version"`
	Commit     string    `json:"commit"`
	Cache      bool      `json:"cache"`
	Entries    int       `json:"entries"`
	Written    int       `json:"written"`
	Skipped    int       `json:"skipped"`
	Failed     int       `json:"failed"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// buildManifestEntries converts run results into manifest records, keeping
// archive order and 1-based numbering.
func buildManifestEntries(s pipeline.Summary) []manifestEntry {
	out := make([]manifestEntry, 0, len(s.Results))
	for i, r := range s.Results {
		e := manifestEntry{
			Index:     i + 1,
			Name:      r.Name,
			State:     string(r.State),
			Family:    r.Family,
			Output:    r.Output,
			SHA256:    r.SHA256,
			Bytes:     r.Bytes,
			Cached:    r.Cached,
			Collision: r.Collision,
		}
		if r.State != pipeline.StateSkipped && r.Family != "" {
			e.Format = r.Format.String()
		}
		if r.Err != nil {
			e.Error = r.Err.Error()
		}
		out = append(out, e)
	}
	return out
}

func buildManifestMeta(cfg Config, runID string, s pipeline.Summary, started, finished time.Time) manifestMeta {
	return manifestMeta{
		RunID:      runID,
		Archive:    cfg.ArchivePath,
		OutputDir:  cfg.OutputDir,
		Encoding:   cfg.Encoding,
		Version:    BuildVersion,
		Commit:     BuildCommit,
		Cache:      cfg.CacheDir != "",
		Entries:    len(s.Results),
		Written:    s.Count(pipeline.StateWritten),
		Skipped:    s.Count(pipeline.StateSkipped),
		Failed:     s.Count(pipeline.StateFailed),
		StartedAt:  started.UTC(),
		FinishedAt: finished.UTC(),
	}
}

// marshalManifestJSON encodes the machine-readable run manifest.
func marshalManifestJSON(meta manifestMeta, entries []manifestEntry) ([]byte, error) {
	payload := struct {
		Meta    manifestMeta    `json:"meta"`
		Entries []manifestEntry `json:"entries"`
	}{Meta: meta, Entries: entries}
	return json.MarshalIndent(payload, "", "  ")
}

// writeManifest writes the manifest atomically via a temp file and rename.
func writeManifest(path string, meta manifestMeta, entries []manifestEntry) error {
	b, err := marshalManifestJSON(meta, entries)
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir manifest dir: %w", err)
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(b, '\n'), 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return os.Rename(tmp, path)
}
