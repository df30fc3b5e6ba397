package extract

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/richardlehane/mscfb"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// DOCExtractor reads the main document text of a legacy binary
// word-processor file stored in a compound file container.
type DOCExtractor struct{}

const (
	wordIdent = 0xA5EC

	fibFlagsOffset = 0x0A
	fibCswOffset   = 0x20

	flagEncrypted   = 0x0100
	flagWhichTblStm = 0x0200

	// index of the fcClx/lcbClx pair inside FibRgFcLcb97
	clxPairIndex = 33

	pieceCompressed = 0x40000000
)

func (DOCExtractor) Extract(content []byte) (string, error) {
	return guard("doc", func() (string, error) {
		streams, err := readWordStreams(content)
		if err != nil {
			return "", err
		}
		return wordText(streams)
	})
}

type wordStreams struct {
	word   []byte
	table0 []byte
	table1 []byte
}

func readWordStreams(content []byte) (wordStreams, error) {
	var ws wordStreams
	r, err := mscfb.New(bytes.NewReader(content))
	if err != nil {
		return ws, fmt.Errorf("doc: open compound file: %w", err)
	}
	for entry, err := r.Next(); ; entry, err = r.Next() {
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return ws, fmt.Errorf("doc: read directory: %w", err)
		}
		var dst *[]byte
		switch entry.Name {
		case "WordDocument":
			dst = &ws.word
		case "0Table":
			dst = &ws.table0
		case "1Table":
			dst = &ws.table1
		default:
			continue
		}
		b, err := io.ReadAll(entry)
		if err != nil {
			return ws, fmt.Errorf("doc: read %s stream: %w", entry.Name, err)
		}
		*dst = b
	}
	if ws.word == nil {
		return ws, fmt.Errorf("doc: %w: no WordDocument stream", ErrNotDocument)
	}
	return ws, nil
}

// fib holds the few File Information Block fields needed to locate text.
type fib struct {
	flags   uint16
	ccpText uint32
	fcClx   uint32
	lcbClx  uint32
}

func parseFIB(wd []byte) (fib, error) {
	var f fib
	u16 := func(off int) (uint16, bool) {
		if off < 0 || off+2 > len(wd) {
			return 0, false
		}
		return binary.LittleEndian.Uint16(wd[off:]), true
	}
	u32 := func(off int) (uint32, bool) {
		if off < 0 || off+4 > len(wd) {
			return 0, false
		}
		return binary.LittleEndian.Uint32(wd[off:]), true
	}
	truncated := fmt.Errorf("doc: %w: truncated file information block", ErrMalformed)

	ident, ok := u16(0)
	if !ok {
		return f, truncated
	}
	if ident != wordIdent {
		return f, fmt.Errorf("doc: %w: unexpected identifier %#04x", ErrNotDocument, ident)
	}
	if f.flags, ok = u16(fibFlagsOffset); !ok {
		return f, truncated
	}
	csw, ok := u16(fibCswOffset)
	if !ok {
		return f, truncated
	}
	pos := fibCswOffset + 2 + int(csw)*2
	cslw, ok := u16(pos)
	if !ok {
		return f, truncated
	}
	lw := pos + 2
	if f.ccpText, ok = u32(lw + 12); !ok {
		return f, truncated
	}
	pos = lw + int(cslw)*4
	cbRgFcLcb, ok := u16(pos)
	if !ok {
		return f, truncated
	}
	if int(cbRgFcLcb) <= clxPairIndex {
		return f, fmt.Errorf("doc: %w: no piece table reference", ErrMalformed)
	}
	pair := pos + 2 + clxPairIndex*8
	if f.fcClx, ok = u32(pair); !ok {
		return f, truncated
	}
	if f.lcbClx, ok = u32(pair + 4); !ok {
		return f, truncated
	}
	return f, nil
}

func wordText(ws wordStreams) (string, error) {
	f, err := parseFIB(ws.word)
	if err != nil {
		return "", err
	}
	if f.flags&flagEncrypted != 0 {
		return "", fmt.Errorf("doc: %w", ErrEncrypted)
	}
	table := ws.table0
	name := "0Table"
	if f.flags&flagWhichTblStm != 0 {
		table, name = ws.table1, "1Table"
	}
	if table == nil {
		return "", fmt.Errorf("doc: %w: missing %s stream", ErrMalformed, name)
	}
	end := uint64(f.fcClx) + uint64(f.lcbClx)
	if f.lcbClx == 0 || end > uint64(len(table)) {
		return "", fmt.Errorf("doc: %w: piece table out of range", ErrMalformed)
	}
	pieces, err := parseClx(table[f.fcClx:end])
	if err != nil {
		return "", err
	}
	var text []rune
	for _, p := range pieces {
		s, err := p.decode(ws.word)
		if err != nil {
			return "", err
		}
		text = append(text, []rune(s)...)
	}
	if f.ccpText > 0 && int(f.ccpText) < len(text) {
		text = text[:f.ccpText]
	}
	return normalizeWordText(text), nil
}

type piece struct {
	chars      uint32
	fc         uint32
	compressed bool
}

func parseClx(clx []byte) ([]piece, error) {
	malformed := func(what string) error {
		return fmt.Errorf("doc: %w: %s", ErrMalformed, what)
	}
	i := 0
	// Skip Prc entries (property modifiers) preceding the Pcdt.
	for i < len(clx) && clx[i] == 0x01 {
		if i+3 > len(clx) {
			return nil, malformed("truncated property entry")
		}
		i += 3 + int(binary.LittleEndian.Uint16(clx[i+1:]))
	}
	if i+5 > len(clx) || clx[i] != 0x02 {
		return nil, malformed("missing piece descriptor table")
	}
	lcb := int(binary.LittleEndian.Uint32(clx[i+1:]))
	plc := clx[i+5:]
	if lcb < 16 || lcb > len(plc) || (lcb-4)%12 != 0 {
		return nil, malformed("bad piece descriptor table size")
	}
	n := (lcb - 4) / 12
	cps := make([]uint32, n+1)
	for k := range cps {
		cps[k] = binary.LittleEndian.Uint32(plc[4*k:])
	}
	pieces := make([]piece, 0, n)
	base := 4 * (n + 1)
	for k := 0; k < n; k++ {
		if cps[k+1] < cps[k] {
			return nil, malformed("character positions out of order")
		}
		fc := binary.LittleEndian.Uint32(plc[base+8*k+2:])
		pieces = append(pieces, piece{
			chars:      cps[k+1] - cps[k],
			fc:         fc &^ pieceCompressed,
			compressed: fc&pieceCompressed != 0,
		})
	}
	return pieces, nil
}

func (p piece) decode(wd []byte) (string, error) {
	start, size := uint64(p.fc), uint64(p.chars)*2
	if p.compressed {
		start, size = uint64(p.fc)/2, uint64(p.chars)
	}
	if start+size > uint64(len(wd)) {
		return "", fmt.Errorf("doc: %w: piece beyond end of stream", ErrMalformed)
	}
	raw := wd[start : start+size]
	var (
		out []byte
		err error
	)
	if p.compressed {
		out, err = charmap.Windows1252.NewDecoder().Bytes(raw)
	} else {
		out, err = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder().Bytes(raw)
	}
	if err != nil {
		return "", fmt.Errorf("doc: decode piece: %w", err)
	}
	return string(out), nil
}

// normalizeWordText maps Word control characters onto plain text and drops
// field instructions while keeping field results.
func normalizeWordText(text []rune) string {
	var b strings.Builder
	// one entry per open field; true while still inside its instruction part
	var fields []bool
	hidden := func() bool {
		for _, instr := range fields {
			if instr {
				return true
			}
		}
		return false
	}
	for _, r := range text {
		switch r {
		case 0x13:
			fields = append(fields, true)
			continue
		case 0x14:
			if len(fields) > 0 {
				fields[len(fields)-1] = false
			}
			continue
		case 0x15:
			if len(fields) > 0 {
				fields = fields[:len(fields)-1]
			}
			continue
		}
		if hidden() {
			continue
		}
		switch {
		case r == '\r', r == 0x0B, r == 0x0C:
			b.WriteByte('\n')
		case r == 0x07:
			b.WriteByte('\t')
		case r == 0x1E:
			b.WriteByte('-')
		case r == '\t', r == '\n':
			b.WriteRune(r)
		case r < 0x20:
			// remaining control characters are anchors for objects and notes
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
