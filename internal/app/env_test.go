package app

import (
    "bytes"
    "os"
    "path/filepath"
    "strings"
    "testing"
    "time"

    "github.com/rs/zerolog"
    "github.com/rs/zerolog/log"
)

// LoadEnvFiles reads KEY=VALUE pairs and populates os.Environ.
func TestLoadEnvFiles_LoadsKeyValues(t *testing.T) {
    t.Setenv("FOO", "")
    t.Setenv("BAR", "")

    dir := t.TempDir()
    envPath := filepath.Join(dir, ".env.test")
    content := "\n# sample dotenv file\nFOO=alpha\nBAR=beta\n"
    if err := os.WriteFile(envPath, []byte(content), 0o600); err != nil {
        t.Fatalf("write dotenv: %v", err)
    }

    if err := LoadEnvFiles(envPath); err != nil {
        t.Fatalf("LoadEnvFiles error: %v", err)
    }

    if got := os.Getenv("FOO"); got != "alpha" {
        t.Fatalf("FOO=%q, want alpha", got)
    }
    if got := os.Getenv("BAR"); got != "beta" {
        t.Fatalf("BAR=%q, want beta", got)
    }
}

// Later files override earlier ones when loading multiple dotenv files.
func TestLoadEnvFiles_OverrideOrder(t *testing.T) {
    t.Setenv("K", "")
    dir := t.TempDir()
    a := filepath.Join(dir, ".env.a")
    b := filepath.Join(dir, ".env.b")
    if err := os.WriteFile(a, []byte("K=first\n"), 0o600); err != nil { t.Fatalf("write a: %v", err) }
    if err := os.WriteFile(b, []byte("K=second\n"), 0o600); err != nil { t.Fatalf("write b: %v", err) }

    if err := LoadEnvFiles(a, b); err != nil {
        t.Fatalf("LoadEnvFiles error: %v", err)
    }
    if got := os.Getenv("K"); got != "second" {
        t.Fatalf("override order failed: got %q, want second", got)
    }
}

// A leading "export " and surrounding quotes are stripped.
func TestLoadEnvFiles_ExportPrefixAndQuotes(t *testing.T) {
    t.Setenv("ZIPTEXT_ENCODING", "")
    t.Setenv("ZIPTEXT_OUTPUT_DIR", "")
    dir := t.TempDir()
    p := filepath.Join(dir, ".env")
    content := "export ZIPTEXT_ENCODING=\"windows-1252\"\nZIPTEXT_OUTPUT_DIR='out dir'\nnot a pair\n"
    if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
        t.Fatalf("write dotenv: %v", err)
    }
    if err := LoadEnvFiles(p, filepath.Join(dir, "missing.env")); err != nil {
        t.Fatalf("LoadEnvFiles error: %v", err)
    }
    if got := os.Getenv("ZIPTEXT_ENCODING"); got != "windows-1252" {
        t.Fatalf("ZIPTEXT_ENCODING=%q", got)
    }
    if got := os.Getenv("ZIPTEXT_OUTPUT_DIR"); got != "out dir" {
        t.Fatalf("ZIPTEXT_OUTPUT_DIR=%q", got)
    }
}

// Malformed lines are reported with their position and otherwise ignored.
func TestLoadEnvFiles_WarnsOnMalformedLines(t *testing.T) {
    var buf bytes.Buffer
    prev := log.Logger
    log.Logger = zerolog.New(&buf)
    t.Cleanup(func() { log.Logger = prev })
    t.Setenv("ZIPTEXT_MANIFEST", "")

    p := filepath.Join(t.TempDir(), ".env")
    content := "# comment\nnot a pair\nBAD KEY=x\nZIPTEXT_MANIFEST=run.json\n"
    if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
        t.Fatalf("write dotenv: %v", err)
    }
    if err := LoadEnvFiles(p); err != nil {
        t.Fatalf("LoadEnvFiles error: %v", err)
    }
    if got := os.Getenv("ZIPTEXT_MANIFEST"); got != "run.json" {
        t.Fatalf("ZIPTEXT_MANIFEST=%q", got)
    }
    out := buf.String()
    if strings.Count(out, "ignoring malformed env line") != 2 {
        t.Fatalf("expected two warnings, got:\n%s", out)
    }
    if !strings.Contains(out, `"line":2`) || !strings.Contains(out, `"line":3`) {
        t.Fatalf("warnings lack line numbers:\n%s", out)
    }
}

func TestParseEnvLine(t *testing.T) {
    cases := []struct {
        in       string
        key, val string
        ok, skip bool
    }{
        {"", "", "", false, true},
        {"  # note", "", "", false, true},
        {"A=1", "A", "1", true, false},
        {"export B = 'two words' ", "B", "two words", true, false},
        {`C="mismatched'`, "C", `"mismatched'`, true, false},
        {"=nokey", "", "", false, false},
        {"novalue", "", "", false, false},
    }
    for _, tc := range cases {
        key, val, ok, skip := parseEnvLine(tc.in)
        if key != tc.key || val != tc.val || ok != tc.ok || skip != tc.skip {
            t.Fatalf("parseEnvLine(%q)=(%q,%q,%v,%v)", tc.in, key, val, ok, skip)
        }
    }
}

// ApplyEnvOverrides reads every ZIPTEXT_* variable.
func TestApplyEnvOverrides_FromEnv(t *testing.T) {
    t.Setenv("ZIPTEXT_ARCHIVE", "/data/in.zip")
    t.Setenv("ZIPTEXT_OUTPUT_DIR", "/data/out")
    t.Setenv("ZIPTEXT_CACHE_DIR", "/tmp/ziptext-cache")
    t.Setenv("ZIPTEXT_CACHE_MAX_AGE", "36h")
    t.Setenv("ZIPTEXT_FAIL_ON_ERROR", "yes")

    cfg := Config{OutputDir: "from-file"}
    ApplyEnvOverrides(&cfg)
    if cfg.ArchivePath != "/data/in.zip" {
        t.Fatalf("ArchivePath=%q", cfg.ArchivePath)
    }
    if cfg.OutputDir != "/data/out" {
        t.Fatalf("OutputDir=%q, env must replace the file value", cfg.OutputDir)
    }
    if cfg.CacheDir != "/tmp/ziptext-cache" {
        t.Fatalf("CacheDir=%q", cfg.CacheDir)
    }
    if cfg.CacheMaxAge != 36*time.Hour {
        t.Fatalf("CacheMaxAge=%v", cfg.CacheMaxAge)
    }
    if !cfg.FailOnError {
        t.Fatalf("FailOnError should be enabled from env")
    }
}

// ApplyEnvOverrides replaces values, including turning booleans off.
func TestApplyEnvOverrides_ReplacesValues(t *testing.T) {
    t.Setenv("ZIPTEXT_ENCODING", "latin1")
    t.Setenv("ZIPTEXT_NO_OVERWRITE", "false")
    cfg := Config{Encoding: "utf-8", NoOverwrite: true}
    ApplyEnvOverrides(&cfg)
    if cfg.Encoding != "latin1" {
        t.Fatalf("Encoding=%q", cfg.Encoding)
    }
    if cfg.NoOverwrite {
        t.Fatalf("ZIPTEXT_NO_OVERWRITE=false should disable NoOverwrite")
    }

    t.Setenv("ZIPTEXT_NO_OVERWRITE", "maybe")
    cfg = Config{NoOverwrite: true}
    ApplyEnvOverrides(&cfg)
    if !cfg.NoOverwrite {
        t.Fatalf("unrecognized boolean must leave the value alone")
    }
}
