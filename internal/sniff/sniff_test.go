package sniff

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestDetectBytes_Signatures(t *testing.T) {
	cases := []struct {
		name string
		in   []byte
		want Format
	}{
		{"zip container", []byte{0x50, 0x4B, 0x03, 0x04, 0x14, 0x00}, XMLDoc},
		{"compound file", []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}, LegacyDoc},
		{"pdf header is not a word signature", []byte("%PDF-1.4"), Unknown},
		{"empty", nil, Unknown},
		{"short zip prefix", []byte{0x50, 0x4B, 0x03}, Unknown},
		{"short compound prefix", []byte{0xD0, 0xCF}, Unknown},
		{"empty zip archive marker", []byte{0x50, 0x4B, 0x05, 0x06}, Unknown},
		{"plain text", []byte("hello world"), Unknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DetectBytes(tc.in); got != tc.want {
				t.Fatalf("DetectBytes(%x)=%v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestDetect_RestoresPosition(t *testing.T) {
	content := append([]byte{0x50, 0x4B, 0x03, 0x04}, []byte("rest of the container")...)
	r := bytes.NewReader(content)
	if got := Detect(r); got != XMLDoc {
		t.Fatalf("Detect=%v, want docx", got)
	}
	all, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read after detect: %v", err)
	}
	if !bytes.Equal(all, content) {
		t.Fatalf("stream consumed by Detect: got %d bytes, want %d", len(all), len(content))
	}
}

func TestDetect_RestoresNonZeroPosition(t *testing.T) {
	r := bytes.NewReader([]byte("xx\xD0\xCF\x11\xE0tail"))
	if _, err := r.Seek(2, io.SeekStart); err != nil {
		t.Fatalf("seek: %v", err)
	}
	if got := Detect(r); got != LegacyDoc {
		t.Fatalf("Detect=%v, want doc", got)
	}
	pos, _ := r.Seek(0, io.SeekCurrent)
	if pos != 2 {
		t.Fatalf("position=%d, want 2", pos)
	}
}

func TestDetect_ShortAndEmptyStreams(t *testing.T) {
	if got := Detect(bytes.NewReader(nil)); got != Unknown {
		t.Fatalf("empty: got %v", got)
	}
	r := bytes.NewReader([]byte{0x50, 0x4B})
	if got := Detect(r); got != Unknown {
		t.Fatalf("short: got %v", got)
	}
	if r.Len() != 2 {
		t.Fatalf("short stream not restored; remaining %d", r.Len())
	}
}

func TestDetect_NonSeekableFailsClosed(t *testing.T) {
	r := io.MultiReader(strings.NewReader("PK\x03\x04payload"))
	if got := Detect(r); got != Unknown {
		t.Fatalf("non-seekable: got %v, want unknown", got)
	}
	b, _ := io.ReadAll(r)
	if string(b) != "PK\x03\x04payload" {
		t.Fatalf("non-seekable stream was read: %q", b)
	}
}

type brokenSeeker struct{ *bytes.Reader }

func (b brokenSeeker) Seek(offset int64, whence int) (int64, error) {
	if whence == io.SeekStart {
		return 0, errors.New("cannot rewind")
	}
	return b.Reader.Seek(offset, whence)
}

func TestDetect_RewindFailureFailsClosed(t *testing.T) {
	r := brokenSeeker{bytes.NewReader([]byte{0xD0, 0xCF, 0x11, 0xE0})}
	if got := Detect(r); got != Unknown {
		t.Fatalf("got %v, want unknown when rewind fails", got)
	}
}

func TestFormat_String(t *testing.T) {
	want := map[Format]string{Unknown: "unknown", LegacyDoc: "doc", XMLDoc: "docx", PDF: "pdf", Plain: "plain"}
	for f, s := range want {
		if f.String() != s {
			t.Fatalf("%d.String()=%q, want %q", int(f), f.String(), s)
		}
	}
}
