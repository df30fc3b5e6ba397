package app

import (
	"bufio"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// renderSummaryText lays out a run summary as lightweight Markdown: '#'
// headings followed by plain lines.
func renderSummaryText(meta manifestMeta, entries []manifestEntry) string {
	var b strings.Builder
	b.WriteString("# ziptext run summary\n\n")
	fmt.Fprintf(&b, "Archive: %s\n", meta.Archive)
	fmt.Fprintf(&b, "Output directory: %s\n", meta.OutputDir)
	fmt.Fprintf(&b, "Run: %s\n", meta.RunID)
	fmt.Fprintf(&b, "Generated: %s\n", meta.FinishedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "Entries: %d, written: %d, skipped: %d, failed: %d\n\n", meta.Entries, meta.Written, meta.Skipped, meta.Failed)
	b.WriteString("## Entries\n\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "%d. %s [%s]", e.Index, e.Name, e.State)
		if e.Format != "" {
			fmt.Fprintf(&b, " %s", e.Format)
		}
		if e.Output != "" {
			fmt.Fprintf(&b, " -> %s (%d bytes)", e.Output, e.Bytes)
		}
		if e.Error != "" {
			fmt.Fprintf(&b, ": %s", e.Error)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// writeSummaryPDF renders the summary text into a simple PDF. Headings get a
// larger bold font; everything else is wrapped plain text.
func writeSummaryPDF(text string, outPath string) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFont("Helvetica", "", 11)
	pdf.AddPage()

	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		s := strings.TrimSpace(scanner.Text())
		if s == "" {
			pdf.Ln(5)
			continue
		}
		if strings.HasPrefix(s, "#") {
			i := 0
			for i < len(s) && s[i] == '#' {
				i++
			}
			heading := strings.TrimSpace(s[i:])
			if heading == "" {
				continue
			}
			size := 14.0
			if i >= 2 {
				size = 12.0
			}
			pdf.SetFont("Helvetica", "B", size)
			pdf.CellFormat(0, 8, tr(heading), "", 1, "L", false, 0, "")
			pdf.SetFont("Helvetica", "", 11)
			continue
		}
		pdf.MultiCell(0, 5, tr(s), "", "L", false)
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return pdf.OutputFileAndClose(outPath)
}
