package app

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigFile_YAML(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "ziptext.yaml")
	body := `archive: in.zip
output: out
encoding: windows-1252
noOverwrite: true
cache:
  dir: .cache
  maxAge: 36h
artifacts:
  manifest: run.json
  summaryPDF: run.pdf
`
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	fc, err := LoadConfigFile(p)
	if err != nil {
		t.Fatalf("LoadConfigFile: %v", err)
	}
	if fc.Archive != "in.zip" || fc.Output != "out" || fc.Encoding != "windows-1252" || !fc.NoOverwrite {
		t.Fatalf("unexpected top-level fields: %+v", fc)
	}
	if fc.Cache.Dir != ".cache" || time.Duration(fc.Cache.MaxAge) != 36*time.Hour {
		t.Fatalf("unexpected cache section: %+v", fc.Cache)
	}
	if fc.Artifacts.Manifest != "run.json" || fc.Artifacts.SummaryPDF != "run.pdf" {
		t.Fatalf("unexpected artifacts section: %+v", fc.Artifacts)
	}
}

func TestLoadConfigFile_JSONAndBadDuration(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "cfg.json")
	if err := os.WriteFile(good, []byte(`{"archive":"a.zip","cache":{"maxAge":"90m"}}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	fc, err := LoadConfigFile(good)
	if err != nil {
		t.Fatalf("LoadConfigFile: %v", err)
	}
	if fc.Archive != "a.zip" || time.Duration(fc.Cache.MaxAge) != 90*time.Minute {
		t.Fatalf("unexpected: %+v", fc)
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte(`{"cache":{"maxAge":"soon"}}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadConfigFile(bad); err == nil {
		t.Fatalf("expected an error for an invalid duration")
	}
}

// Flag values win over the file; defaults are replaced.
func TestApplyFileConfig_Precedence(t *testing.T) {
	var fc FileConfig
	fc.Archive = "file.zip"
	fc.Output = "file-out"
	fc.Encoding = "latin1"
	fc.Cache.Dir = "file-cache"

	cfg := Config{ArchivePath: "flag.zip", OutputDir: outputDirDefault, Encoding: encodingDefault}
	ApplyFileConfig(&cfg, fc)
	if cfg.ArchivePath != "flag.zip" {
		t.Fatalf("ArchivePath=%q, flag must win", cfg.ArchivePath)
	}
	if cfg.OutputDir != "file-out" || cfg.Encoding != "latin1" || cfg.CacheDir != "file-cache" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
}

func TestValidateConfig(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		ok   bool
	}{
		{"valid", Config{ArchivePath: "a.zip"}, true},
		{"missing archive", Config{}, false},
		{"unknown encoding", Config{ArchivePath: "a.zip", Encoding: "no-such-charset"}, false},
		{"negative age", Config{ArchivePath: "a.zip", CacheMaxAge: -time.Second}, false},
		{"clear without dir", Config{ArchivePath: "a.zip", CacheClear: true}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateConfig(tc.cfg)
			if tc.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tc.ok {
				if err == nil {
					t.Fatalf("expected an error")
				}
				if !errors.Is(err, ErrInvalidConfig) {
					t.Fatalf("error %v does not wrap ErrInvalidConfig", err)
				}
			}
		})
	}
}
