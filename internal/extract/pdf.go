package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Readers tolerate leading junk before the header within this window.
const headerWindow = 1024

// PDFExtractor strips the text layer of a portable document.
type PDFExtractor struct{}

func (PDFExtractor) Extract(content []byte) (string, error) {
	return guard("pdf", func() (string, error) {
		head := content
		if len(head) > headerWindow {
			head = head[:headerWindow]
		}
		if !bytes.Contains(head, []byte("%PDF-")) {
			return "", fmt.Errorf("pdf: %w", ErrNotDocument)
		}
		r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
		if err != nil {
			if strings.Contains(err.Error(), "password") || strings.Contains(err.Error(), "encrypt") {
				return "", fmt.Errorf("pdf: %w: %v", ErrEncrypted, err)
			}
			return "", fmt.Errorf("pdf: open: %w", err)
		}
		plain, err := r.GetPlainText()
		if err != nil {
			return "", fmt.Errorf("pdf: extract text: %w", err)
		}
		var buf bytes.Buffer
		if _, err := buf.ReadFrom(plain); err != nil {
			return "", fmt.Errorf("pdf: read text: %w", err)
		}
		// Invalid sequences from odd font encodings become U+FFFD.
		return strings.ToValidUTF8(buf.String(), "�"), nil
	})
}
