package questionnaire

import "strings"

// Record is one extracted (question, answer) pair.
type Record struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Extract walks paragraphs once, in document order, and groups the lines
// following each catalog question into that question's answer.
//
// Once a question has been seen, a question wrapped across two paragraphs is
// recognized when the paragraph joined to its successor with a single space
// is a catalog question; the successor is then consumed as part of the
// question. A wrapped first question is not recognized. Only one paragraph of
// lookahead is used, so a question wrapped over three or more paragraphs is
// not reassembled.
//
// Headers, blank paragraphs and anything before the first question are
// skipped. Questions with no answer lines are dropped. Extract never fails:
// unrecognized input, including a nil catalog, just yields fewer records.
func Extract(paragraphs []string, catalog *Catalog) []Record {
	var (
		records  []Record
		current  string
		lines    []string
		consumed = -1
	)

	for i := range paragraphs {
		if i == consumed {
			continue
		}
		text := strings.TrimSpace(paragraphs[i])
		next := ""
		if i+1 < len(paragraphs) {
			next = strings.TrimSpace(paragraphs[i+1])
		}

		exact := catalog.IsQuestion(text)
		wrapped := !exact && current != "" && text != "" && next != "" && catalog.IsQuestion(text+" "+next)

		switch {
		case exact || wrapped:
			if current != "" {
				records = append(records, Record{Question: current, Answer: strings.Join(lines, "\n")})
				lines = nil
			}
			current = text
			if wrapped && !catalog.IsQuestion(next) && !catalog.IsHeader(next) {
				current += " " + next
				consumed = i + 1
			}
		case current != "" && text != "" && !catalog.IsHeader(text):
			lines = append(lines, text)
		}
	}

	if current != "" && len(lines) > 0 {
		records = append(records, Record{Question: current, Answer: strings.Join(lines, "\n")})
	}

	out := records[:0]
	for _, r := range records {
		if r.Question != "" && r.Answer != "" {
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		return []Record{}
	}
	return out
}

// FromAnswers builds records from form input keyed by question text. Records
// follow catalog order; unknown questions and blank answers are ignored.
func FromAnswers(catalog *Catalog, answers map[string]string) []Record {
	byQuestion := make(map[string]string, len(answers))
	for q, a := range answers {
		byQuestion[strings.TrimSpace(q)] = strings.TrimSpace(a)
	}

	records := []Record{}
	for _, q := range catalog.Questions() {
		if a := byQuestion[q]; a != "" {
			records = append(records, Record{Question: q, Answer: a})
		}
	}
	return records
}
