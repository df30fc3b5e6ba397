package output

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFileName(t *testing.T) {
	cases := map[string]string{
		"report.pdf":         "output_report.pdf.txt",
		"docs/notes.docx":    "output_docs_notes.docx.txt",
		"a/b/c.txt":          "output_a_b_c.txt.txt",
		`win\style\path.doc`: "output_win_style_path.doc.txt",
		"readme.txt":         "output_readme.txt.txt",
	}
	for in, want := range cases {
		if got := FileName(in); got != want {
			t.Fatalf("FileName(%q)=%q, want %q", in, got, want)
		}
	}
}

func TestFileName_SeparatorCollisionIsAccepted(t *testing.T) {
	if FileName("a/b.txt") != FileName("a_b.txt") {
		t.Fatalf("expected names differing only by separator placement to collide")
	}
}

func TestWriter_CreatesAndOverwrites(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	w := Writer{Dir: dir}
	rec, err := w.Write("output_x.txt", "first version\n")
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if rec.Bytes != len("first version\n") || rec.SHA256 == "" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	rec2, err := w.Write("output_x.txt", "second")
	if err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	b, err := os.ReadFile(filepath.Join(dir, "output_x.txt"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(b) != "second" {
		t.Fatalf("content=%q, want overwritten", b)
	}
	if rec2.SHA256 == rec.SHA256 {
		t.Fatalf("digest did not change with content")
	}
}

func TestWriter_SameContentSameDigest(t *testing.T) {
	w := Writer{Dir: t.TempDir()}
	a, _ := w.Write("output_a.txt", "同じ内容\n")
	b, _ := w.Write("output_b.txt", "同じ内容\n")
	if a.SHA256 != b.SHA256 {
		t.Fatalf("digests differ for identical content")
	}
}

func TestWriter_NoOverwrite(t *testing.T) {
	dir := t.TempDir()
	w := Writer{Dir: dir, NoOverwrite: true}
	if _, err := w.Write("output_x.txt", "one"); err != nil {
		t.Fatalf("first write: %v", err)
	}
	_, err := w.Write("output_x.txt", "two")
	if !errors.Is(err, os.ErrExist) {
		t.Fatalf("expected ErrExist, got %v", err)
	}
	b, _ := os.ReadFile(filepath.Join(dir, "output_x.txt"))
	if string(b) != "one" {
		t.Fatalf("existing file modified: %q", b)
	}
}

func TestWriter_RejectsSeparatorsInName(t *testing.T) {
	if _, err := (Writer{Dir: t.TempDir()}).Write("../escape.txt", "x"); err == nil {
		t.Fatalf("expected error for name containing a separator")
	}
}

func TestWriter_ReportsCreateFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}
	// Dir points below a regular file, so the directory cannot be created.
	if _, err := (Writer{Dir: filepath.Join(blocker, "sub")}).Write("output_y.txt", "y"); err == nil {
		t.Fatalf("expected write failure")
	}
}
