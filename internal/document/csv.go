package document

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/rotisserie/eris"
)

// CSVParser handles CSV files. Non-empty cells are emitted in row-major
// order, so a two-column question/answer sheet reads like a document.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) (*Document, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "parse csv")
	}

	out := &Document{Title: titleFromFilename(filename)}
	for _, row := range records {
		for _, cell := range row {
			if strings.TrimSpace(cell) == "" {
				continue
			}
			out.Paragraphs = append(out.Paragraphs, cell)
		}
	}
	return out, nil
}
