package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/nguyenthenguyen/docx"
)

// DOCXExtractor reads the body text of a zip-based word-processor document.
type DOCXExtractor struct{}

func (DOCXExtractor) Extract(content []byte) (string, error) {
	return guard("docx", func() (string, error) {
		doc, err := docx.ReadDocxFromMemory(bytes.NewReader(content), int64(len(content)))
		if err != nil {
			return "", fmt.Errorf("docx: open container: %w", err)
		}
		defer doc.Close()
		return documentXMLText(doc.Editable().GetContent())
	})
}

// documentXMLText flattens word/document.xml into plain text: one line per
// paragraph, tabs and explicit breaks preserved.
func documentXMLText(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", fmt.Errorf("docx: %w: empty document part", ErrMalformed)
	}
	root, err := xmlquery.Parse(strings.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("docx: %w: %v", ErrMalformed, err)
	}
	body := findElement(root, "body")
	if body == nil {
		return "", fmt.Errorf("docx: %w: no w:body", ErrMalformed)
	}
	var b strings.Builder
	collectRuns(&b, body)
	return b.String(), nil
}

func findElement(n *xmlquery.Node, local string) *xmlquery.Node {
	if n.Type == xmlquery.ElementNode && n.Data == local {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, local); found != nil {
			return found
		}
	}
	return nil
}

func collectRuns(b *strings.Builder, n *xmlquery.Node) {
	if n.Type == xmlquery.ElementNode {
		switch n.Data {
		case "t":
			b.WriteString(n.InnerText())
			return
		case "pPr", "rPr", "sectPr", "delText", "instrText":
			// properties, deletions and field instructions carry no visible text
			return
		case "tab":
			b.WriteByte('\t')
			return
		case "br", "cr":
			b.WriteByte('\n')
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectRuns(b, c)
	}
	if n.Type == xmlquery.ElementNode && n.Data == "p" {
		b.WriteByte('\n')
	}
}
