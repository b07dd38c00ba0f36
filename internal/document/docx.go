package document

import (
	"bytes"
	"io"
	"strings"

	"github.com/fumiama/go-docx"
	"github.com/rotisserie/eris"
)

// DOCXParser handles .docx files. Every body paragraph becomes one entry,
// empty ones included, so paragraph positions match the source document.
type DOCXParser struct{}

func (p *DOCXParser) Parse(r io.Reader, filename string) (*Document, error) {
	// go-docx needs a ReaderAt plus size.
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, eris.Wrap(err, "read docx")
	}

	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, eris.Wrap(err, "parse docx")
	}

	out := &Document{Title: titleFromFilename(filename)}
	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		out.Paragraphs = append(out.Paragraphs, docxParagraphText(para))
	}
	return out, nil
}

// docxParagraphText renders a paragraph the way Word shows it as plain text:
// hyperlink text inline, tabs as "\t" and line breaks as "\n".
func docxParagraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		switch c := child.(type) {
		case *docx.Run:
			writeRunText(&buf, c)
		case *docx.Hyperlink:
			// Word stores the visible link text in <w:t>; go-docx's AddLink
			// writes it as instrText instead.
			if n := writeRunText(&buf, &c.Run); n == 0 {
				buf.WriteString(c.Run.InstrText)
			}
		}
	}
	return buf.String()
}

func writeRunText(buf *strings.Builder, run *docx.Run) int {
	before := buf.Len()
	for _, rc := range run.Children {
		switch t := rc.(type) {
		case *docx.Text:
			buf.WriteString(t.Text)
		case *docx.Tab:
			buf.WriteByte('\t')
		case *docx.BarterRabbet:
			buf.WriteByte('\n')
		}
	}
	return buf.Len() - before
}
