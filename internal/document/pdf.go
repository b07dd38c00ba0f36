package document

import (
	"bytes"
	"context"
	"io"
	"os/exec"
	"strings"
	"time"

	pdflib "github.com/ledongthuc/pdf"
	"github.com/rotisserie/eris"
)

const pdftotextTimeout = 30 * time.Second

// PDFParser handles PDF files. Every non-empty text row becomes a paragraph.
// When FallbackPdftotext is set and the library cannot read the file, the
// pdftotext binary is tried instead.
type PDFParser struct {
	FallbackPdftotext bool
}

func (p *PDFParser) Parse(r io.Reader, filename string) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, eris.Wrap(err, "read pdf")
	}

	rows, err := pdfRows(data)
	if err != nil && p.FallbackPdftotext {
		var text string
		text, err = runPdftotext(data)
		rows = strings.Split(text, "\n")
	}
	if err != nil {
		return nil, eris.Wrap(err, "extract pdf text")
	}

	return &Document{
		Title:      titleFromFilename(filename),
		Paragraphs: nonBlankLines(rows),
	}, nil
}

// pdfRows returns the text of each row on each page, in page order.
func pdfRows(data []byte) ([]string, error) {
	reader, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	var out []string
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			continue
		}
		for _, row := range rows {
			var sb strings.Builder
			for _, word := range row.Content {
				sb.WriteString(word.S)
			}
			out = append(out, sb.String())
		}
	}
	return out, nil
}

func runPdftotext(data []byte) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), pdftotextTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "pdftotext", "-layout", "-", "-")
	cmd.Stdin = bytes.NewReader(data)
	out, err := cmd.Output()
	if err != nil {
		return "", eris.Wrap(err, "pdftotext")
	}
	return strings.ReplaceAll(string(out), "\f", "\n"), nil
}

// nonBlankLines drops whitespace-only lines and keeps the rest untouched.
func nonBlankLines(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}
