package document

import (
	"bufio"
	"io"

	"github.com/rotisserie/eris"
)

// TextParser handles plain text files. Each line is one paragraph, blank
// lines included, the same way a word processor sees a typed questionnaire.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*Document, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	out := &Document{Title: titleFromFilename(filename)}
	for scanner.Scan() {
		out.Paragraphs = append(out.Paragraphs, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, eris.Wrap(err, "scan text")
	}
	return out, nil
}
