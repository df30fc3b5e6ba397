// Package testfixture builds small, valid archives and documents in memory
// for tests: zip containers, zip-based word documents, compound-file word
// documents and PDFs.
package testfixture

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf16"

	"github.com/jung-kurt/gofpdf"
)

// File is one entry of a zip built by Zip. Names ending in "/" become
// directory entries and ignore Body.
type File struct {
	Name string
	Body []byte
}

// Zip returns the bytes of a zip container holding files in order.
func Zip(files ...File) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range files {
		hdr := &zip.FileHeader{Name: f.Name, Method: zip.Deflate, Modified: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
		if strings.HasSuffix(f.Name, "/") {
			hdr.Method = zip.Store
		}
		w, err := zw.CreateHeader(hdr)
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", f.Name, err)
		}
		if strings.HasSuffix(f.Name, "/") {
			continue
		}
		if _, err := w.Write(f.Body); err != nil {
			return nil, fmt.Errorf("write %s: %w", f.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteZip writes a zip built from files to dir/name and returns its path.
func WriteZip(dir, name string, files ...File) (string, error) {
	b, err := Zip(files...)
	if err != nil {
		return "", err
	}
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, b, 0o644); err != nil {
		return "", err
	}
	return p, nil
}

const (
	contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/><Default Extension="xml" ContentType="application/xml"/><Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/></Types>`
	packageRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/></Relationships>`
	documentRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`
)

// DocumentXML renders a word/document.xml body with one paragraph per entry.
// A '\t' inside a paragraph becomes a w:tab element.
func DocumentXML(paragraphs ...string) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
	b.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, p := range paragraphs {
		b.WriteString(`<w:p><w:pPr><w:tabs><w:tab w:val="left" w:pos="720"/></w:tabs></w:pPr>`)
		for i, part := range strings.Split(p, "\t") {
			if i > 0 {
				b.WriteString(`<w:r><w:tab/></w:r>`)
			}
			b.WriteString(`<w:r><w:rPr><w:b/></w:rPr><w:t xml:space="preserve">`)
			_ = xml.EscapeText(&b, []byte(part))
			b.WriteString(`</w:t></w:r>`)
		}
		b.WriteString(`</w:p>`)
	}
	b.WriteString(`<w:sectPr/></w:body></w:document>`)
	return b.String()
}

// DOCX returns a minimal zip-based word document.
func DOCX(paragraphs ...string) ([]byte, error) {
	return DOCXWithDocument(DocumentXML(paragraphs...))
}

// DOCXWithDocument packages an arbitrary word/document.xml part.
func DOCXWithDocument(documentXML string) ([]byte, error) {
	return Zip(
		File{Name: "[Content_Types].xml", Body: []byte(contentTypesXML)},
		File{Name: "_rels/.rels", Body: []byte(packageRelsXML)},
		File{Name: "word/document.xml", Body: []byte(documentXML)},
		File{Name: "word/_rels/document.xml.rels", Body: []byte(documentRelsXML)},
	)
}

// PDF renders one text line per entry on a single A4 page.
func PDF(lines ...string) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(false)
	pdf.SetCreationDate(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	pdf.AddPage()
	pdf.SetFont("Helvetica", "", 12)
	for _, l := range lines {
		pdf.CellFormat(0, 8, l, "", 1, "L", false, 0, "")
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WordDoc configures a compound-file word document built by DOC.
type WordDoc struct {
	// Text is the main document text; use '\r' as the paragraph mark.
	Text string
	// Unicode stores the text as UTF-16LE instead of 8-bit compressed.
	Unicode bool
	// Encrypted sets the FIB encryption flag.
	Encrypted bool
}

const (
	sectorSize  = 512
	streamSize  = 4096 // at the mini stream cutoff, so streams live in regular sectors
	freeSect    = 0xFFFFFFFF
	endOfChain  = 0xFFFFFFFE
	fatSect     = 0xFFFFFFFD
	noStream    = 0xFFFFFFFF
	textOffset  = 0x800
	wordSectors = streamSize / sectorSize
)

// DOC returns a compound file holding WordDocument and 1Table streams with a
// single-piece text table.
func DOC(d WordDoc) ([]byte, error) {
	chars := []rune(d.Text)
	word := make([]byte, streamSize)
	le := binary.LittleEndian
	le.PutUint16(word[0x00:], 0xA5EC)
	le.PutUint16(word[0x02:], 0x00C1)
	flags := uint16(0x0200) // fWhichTblStm: 1Table
	if d.Encrypted {
		flags |= 0x0100
	}
	le.PutUint16(word[0x0A:], flags)
	le.PutUint16(word[0x20:], 14)   // csw
	le.PutUint16(word[0x3E:], 22)   // cslw
	le.PutUint32(word[0x4C:], uint32(len(chars)))
	le.PutUint16(word[0x98:], 0x5D) // cbRgFcLcb

	var fc uint32
	if d.Unicode {
		units := utf16.Encode(chars)
		if textOffset+2*len(units) > streamSize {
			return nil, fmt.Errorf("text too long for fixture")
		}
		for i, u := range units {
			le.PutUint16(word[textOffset+2*i:], u)
		}
		fc = textOffset
	} else {
		if textOffset+len(chars) > streamSize {
			return nil, fmt.Errorf("text too long for fixture")
		}
		for i, r := range chars {
			if r > 0x7F {
				return nil, fmt.Errorf("compressed fixture text must be ASCII")
			}
			word[textOffset+i] = byte(r)
		}
		fc = 0x40000000 | textOffset*2
	}

	table := make([]byte, streamSize)
	clx := []byte{0x01, 0x02, 0x00, 0xAA, 0xBB} // one Prc, skipped by readers
	pcdt := make([]byte, 5+16)
	pcdt[0] = 0x02
	le.PutUint32(pcdt[1:], 16)
	le.PutUint32(pcdt[5:], 0)
	le.PutUint32(pcdt[9:], uint32(len(chars)))
	le.PutUint32(pcdt[15:], fc)
	clx = append(clx, pcdt...)
	copy(table, clx)
	le.PutUint32(word[0x1A2:], 0)                // fcClx
	le.PutUint32(word[0x1A6:], uint32(len(clx))) // lcbClx

	return compoundFile(word, table), nil
}

func compoundFile(word, table []byte) []byte {
	le := binary.LittleEndian
	const (
		wordStart  = 2
		tableStart = wordStart + wordSectors
		sectors    = tableStart + wordSectors
	)
	out := make([]byte, sectorSize*(sectors+1))

	hdr := out[:sectorSize]
	copy(hdr, []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1})
	le.PutUint16(hdr[24:], 0x003E)
	le.PutUint16(hdr[26:], 0x0003)
	le.PutUint16(hdr[28:], 0xFFFE)
	le.PutUint16(hdr[30:], 9)
	le.PutUint16(hdr[32:], 6)
	le.PutUint32(hdr[44:], 1) // FAT sectors
	le.PutUint32(hdr[48:], 1) // first directory sector
	le.PutUint32(hdr[56:], streamSize)
	le.PutUint32(hdr[60:], endOfChain)
	le.PutUint32(hdr[68:], endOfChain)
	le.PutUint32(hdr[76:], 0) // DIFAT[0] -> sector 0
	for i := 1; i < 109; i++ {
		le.PutUint32(hdr[76+4*i:], freeSect)
	}

	sector := func(i int) []byte { return out[sectorSize*(i+1) : sectorSize*(i+2)] }

	fat := sector(0)
	for i := 0; i < sectorSize/4; i++ {
		le.PutUint32(fat[4*i:], freeSect)
	}
	le.PutUint32(fat[0:], fatSect)
	le.PutUint32(fat[4:], endOfChain)
	chain := func(start int) {
		for i := start; i < start+wordSectors; i++ {
			next := uint32(i + 1)
			if i == start+wordSectors-1 {
				next = endOfChain
			}
			le.PutUint32(fat[4*i:], next)
		}
	}
	chain(wordStart)
	chain(tableStart)

	dir := sector(1)
	entry := func(i int, name string, typ byte, left, right, child, start uint32, size uint64) {
		e := dir[128*i : 128*(i+1)]
		units := utf16.Encode([]rune(name))
		for j, u := range units {
			le.PutUint16(e[2*j:], u)
		}
		if name != "" {
			le.PutUint16(e[64:], uint16(2*(len(units)+1)))
		}
		e[66] = typ
		e[67] = 1
		le.PutUint32(e[68:], left)
		le.PutUint32(e[72:], right)
		le.PutUint32(e[76:], child)
		le.PutUint32(e[116:], start)
		le.PutUint64(e[120:], size)
	}
	entry(0, "Root Entry", 5, noStream, noStream, 1, endOfChain, 0)
	entry(1, "WordDocument", 2, noStream, 2, noStream, wordStart, streamSize)
	entry(2, "1Table", 2, noStream, noStream, noStream, tableStart, streamSize)
	entry(3, "", 0, noStream, noStream, noStream, 0, 0)

	for i := 0; i < wordSectors; i++ {
		copy(sector(wordStart+i), word[sectorSize*i:])
		copy(sector(tableStart+i), table[sectorSize*i:])
	}
	return out
}
