package document

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"github.com/fumiama/go-docx"
)

func TestForFile_SelectsParser(t *testing.T) {
	cases := map[string]any{
		"a.txt":      &TextParser{},
		"a.MD":       &MarkdownParser{},
		"a.markdown": &MarkdownParser{},
		"a.csv":      &CSVParser{},
		"a.htm":      &HTMLParser{},
		"a.html":     &HTMLParser{},
		"a.pdf":      &PDFParser{FallbackPdftotext: true},
		"a.docx":     &DOCXParser{},
	}
	for name, want := range cases {
		p, err := ForFile(name, Options{PDFFallbackPdftotext: true})
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", name, err)
		}
		if reflect.TypeOf(p) != reflect.TypeOf(want) {
			t.Errorf("%s: expected %T, got %T", name, want, p)
		}
	}
}

func TestForFile_Unsupported(t *testing.T) {
	if _, err := ForFile("a.xlsx", Options{}); err == nil {
		t.Error("expected error for unsupported extension")
	}
	if IsSupportedExtension("a.exe") {
		t.Error("expected .exe to be unsupported")
	}
	if !IsSupportedExtension("Brand.DOCX") {
		t.Error("expected .DOCX to be supported")
	}
}

func TestTextParser_OneParagraphPerLine(t *testing.T) {
	input := "The Brand Proposition\nWhat is it?\n\n  indented answer  \nlast"
	doc, err := (&TextParser{}).Parse(strings.NewReader(input), "notes.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "notes" {
		t.Errorf("expected title %q, got %q", "notes", doc.Title)
	}
	want := []string{"The Brand Proposition", "What is it?", "", "  indented answer  ", "last"}
	if !reflect.DeepEqual(doc.Paragraphs, want) {
		t.Errorf("expected %q, got %q", want, doc.Paragraphs)
	}
}

func TestTextParser_EmptyInput(t *testing.T) {
	doc, err := (&TextParser{}).Parse(strings.NewReader(""), "empty.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Paragraphs) != 0 {
		t.Errorf("expected 0 paragraphs for empty input, got %d", len(doc.Paragraphs))
	}
}

func TestMarkdownParser_Blocks(t *testing.T) {
	input := `# The Category

What are the trends in the category that inspired you?

Plant-based snacks
are growing fast.

- Clean labels
- Local sourcing

---
`
	doc, err := (&MarkdownParser{}).Parse(strings.NewReader(input), "brief.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "brief" {
		t.Errorf("expected title %q, got %q", "brief", doc.Title)
	}
	want := []string{
		"The Category",
		"What are the trends in the category that inspired you?",
		"Plant-based snacks are growing fast.",
		"Clean labels",
		"Local sourcing",
	}
	if !reflect.DeepEqual(doc.Paragraphs, want) {
		t.Errorf("expected %q, got %q", want, doc.Paragraphs)
	}
}

func TestMarkdownParser_EmptyInput(t *testing.T) {
	doc, err := (&MarkdownParser{}).Parse(strings.NewReader(""), "empty.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Paragraphs) != 0 {
		t.Errorf("expected no paragraphs, got %q", doc.Paragraphs)
	}
}

func TestHTMLParser_Blocks(t *testing.T) {
	input := `<html><head><title>Acme Brief</title><style>p{}</style></head>
<body>
<nav><p>Menu</p></nav>
<h2>The Competition</h2>
<p>Who are your main
   competitors?</p>
<ul><li>Globex</li><li>Initech</li></ul>
<script>var x = 1;</script>
</body></html>`
	doc, err := (&HTMLParser{}).Parse(strings.NewReader(input), "brief.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "Acme Brief" {
		t.Errorf("expected title %q, got %q", "Acme Brief", doc.Title)
	}
	want := []string{"The Competition", "Who are your main competitors?", "Globex", "Initech"}
	if !reflect.DeepEqual(doc.Paragraphs, want) {
		t.Errorf("expected %q, got %q", want, doc.Paragraphs)
	}
}

func TestCSVParser_RowMajorCells(t *testing.T) {
	input := "question,answer\nWhat do you sell?,Snacks\nWho buys?,\n,orphan\n"
	doc, err := (&CSVParser{}).Parse(strings.NewReader(input), "sheet.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"question", "answer", "What do you sell?", "Snacks", "Who buys?", "orphan"}
	if !reflect.DeepEqual(doc.Paragraphs, want) {
		t.Errorf("expected %q, got %q", want, doc.Paragraphs)
	}
}

func TestDOCXParser_RoundTrip(t *testing.T) {
	w := docx.New().WithDefaultTheme()
	w.AddParagraph().AddText("The Brand Proposition")
	w.AddParagraph().AddText("What products/service do you offer to solve this?")
	w.AddParagraph()
	w.AddParagraph().AddText("Healthy snacks.")

	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		t.Fatalf("write docx: %v", err)
	}

	doc, err := (&DOCXParser{}).Parse(&buf, "brief.docx")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "brief" {
		t.Errorf("expected title %q, got %q", "brief", doc.Title)
	}
	want := []string{
		"The Brand Proposition",
		"What products/service do you offer to solve this?",
		"",
		"Healthy snacks.",
	}
	if !reflect.DeepEqual(doc.Paragraphs, want) {
		t.Errorf("expected %q, got %q", want, doc.Paragraphs)
	}
}

func TestDOCXParser_HyperlinksTabsAndBreaks(t *testing.T) {
	w := docx.New().WithDefaultTheme()
	p := w.AddParagraph()
	p.AddText("We admire ")
	p.AddLink("acme.com", "https://acme.com")
	p.AddText(" and others")
	w.AddParagraph().AddText("Name:\tAcme\nSince 1949")

	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		t.Fatalf("write docx: %v", err)
	}

	doc, err := (&DOCXParser{}).Parse(&buf, "links.docx")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{
		"We admire acme.com and others",
		"Name:\tAcme\nSince 1949",
	}
	if !reflect.DeepEqual(doc.Paragraphs, want) {
		t.Errorf("expected %q, got %q", want, doc.Paragraphs)
	}
}

func TestDocxParagraphText_WordHyperlink(t *testing.T) {
	// Word writes hyperlink text as <w:t> inside the link's run.
	para := &docx.Paragraph{Children: []interface{}{
		&docx.Run{Children: []interface{}{&docx.Text{Text: "Visit "}}},
		&docx.Hyperlink{Run: docx.Run{
			InstrText: "HYPERLINK",
			Children:  []interface{}{&docx.Text{Text: "rival.io"}},
		}},
		&docx.Run{Children: []interface{}{&docx.Tab{}, &docx.Text{Text: "now"}, &docx.BarterRabbet{}}},
	}}
	if got, want := docxParagraphText(para), "Visit rival.io\tnow\n"; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestDOCXParser_InvalidData(t *testing.T) {
	if _, err := (&DOCXParser{}).Parse(strings.NewReader("not a zip"), "bad.docx"); err == nil {
		t.Error("expected error for invalid docx")
	}
}

func TestNonBlankLines(t *testing.T) {
	got := nonBlankLines([]string{"Question one?", "  Answer", "", " \t", "Question two?"})
	want := []string{"Question one?", "  Answer", "Question two?"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestPDFParser_InvalidData(t *testing.T) {
	if _, err := (&PDFParser{}).Parse(strings.NewReader("not a pdf"), "bad.pdf"); err == nil {
		t.Error("expected error for invalid pdf")
	}
}
