package questionnaire

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Catalog is the fixed set of recognized questions and section headers.
// It is built once and never mutated, so a single instance can be shared
// across goroutines.
type Catalog struct {
	questions   []string
	headers     []string
	questionSet map[string]struct{}
	headerSet   map[string]struct{}
}

// NewCatalog builds a catalog from question and header strings. Entries are
// trimmed; blanks and duplicates are dropped while catalog order is kept.
func NewCatalog(questions, headers []string) *Catalog {
	c := &Catalog{
		questionSet: make(map[string]struct{}, len(questions)),
		headerSet:   make(map[string]struct{}, len(headers)),
	}
	for _, q := range questions {
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		if _, dup := c.questionSet[q]; dup {
			continue
		}
		c.questionSet[q] = struct{}{}
		c.questions = append(c.questions, q)
	}
	for _, h := range headers {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		if _, dup := c.headerSet[h]; dup {
			continue
		}
		c.headerSet[h] = struct{}{}
		c.headers = append(c.headers, h)
	}
	return c
}

// IsQuestion reports whether s, after trimming, is exactly a catalog question.
func (c *Catalog) IsQuestion(s string) bool {
	if c == nil {
		return false
	}
	_, ok := c.questionSet[strings.TrimSpace(s)]
	return ok
}

// IsHeader reports whether s, after trimming, is exactly a catalog header.
func (c *Catalog) IsHeader(s string) bool {
	if c == nil {
		return false
	}
	_, ok := c.headerSet[strings.TrimSpace(s)]
	return ok
}

// Questions returns the catalog questions in catalog order.
func (c *Catalog) Questions() []string {
	if c == nil {
		return nil
	}
	return append([]string(nil), c.questions...)
}

// Headers returns the section headers in catalog order.
func (c *Catalog) Headers() []string {
	if c == nil {
		return nil
	}
	return append([]string(nil), c.headers...)
}

type catalogFile struct {
	Questions []string `yaml:"questions"`
	Headers   []string `yaml:"headers"`
}

// LoadCatalog reads a YAML catalog of the form:
//
//	questions:
//	  - "What is the Dilemma? ..."
//	headers:
//	  - "The Brand Proposition"
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read catalog %s", path)
	}
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrapf(err, "parse catalog %s", path)
	}
	c := NewCatalog(f.Questions, f.Headers)
	if len(c.questions) == 0 {
		return nil, eris.Errorf("catalog %s has no questions", path)
	}
	return c, nil
}

// DefaultCatalog returns the brand questionnaire shipped with the service.
func DefaultCatalog() *Catalog {
	return NewCatalog(defaultQuestions, defaultHeaders)
}

var defaultQuestions = []string{
	"What is the Dilemma? What is the opportunity out there? What is the gap that be filled?",
	"How will your brand solve the Dilemma? What does the brand promise the consumer?",
	"What products/service do you offer to solve this?",
	"Why should people believe it? What makes you credible?",
	"What are the trends in the category that inspired you?",
	"Who inspires you in this or similar categories? Please list their website domains",
	"Who are your main competitors (list 3-5)? What is their strength, weakness and competitive edge? Please list their website domain",
	"What are the demographics/psychographics of your audience?",
	"Who are the audience that define/personify your brand the most? Who will readily buy the brand (early adopters)?",
	"Who are the audience that would never personify your brand?",
	"Who would represent/endorse your brand? Describe why?",
	"What are their pain/desires? What do they need out of the category?",
	"Who do you want to convince into buying your brand?",
	"How can we best reach them (main channels)?",
	"What is your brand purpose & values?",
	"What do you want people to say about your brand? What is the aspired brand personality? Which words do you want to own?",
	"Which traits will never define your brand?",
	"Is there any word, image, phrase or story that reflects what the brand stands for?",
	"Is there anything else you’d like to add?",
	"What are you expecting out of this branding exercise?",
	"List all your products/services/special features and the respective grouping if relevant.",
	"List any additions or extensions to your product/service that you might introduce in the future.",
}

var defaultHeaders = []string{
	"The Brand Proposition",
	"The Category",
	"The Competition",
	"The Brand Purpose & Perception",
}
