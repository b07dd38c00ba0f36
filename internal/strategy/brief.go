package strategy

import (
	"regexp"
	"strings"
)

const maxBriefField = 200

// Brief identifies the brand a strategy is written for.
type Brief struct {
	BrandName string `json:"brand_name"`
	Industry  string `json:"industry"`
}

// ValidationError lists every problem found with a submission.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid submission: " + strings.Join(e.Problems, "; ")
}

// injectionPattern matches instruction phrases aimed at the model. Single
// words such as "override" or "pretend" are legitimate brand names, so every
// alternative needs at least two words.
var injectionPattern = regexp.MustCompile(
	`(?i)(ignore\s+(all\s+|the\s+)?(previous|above|prior)\s+(instructions|prompts?|rules)|` +
		`(reveal|print|show|ignore|repeat)\s+(the\s+|your\s+)?system\s+prompt|you\s+are\s+now\s+(a|an|the)\s|` +
		`pretend\s+(you\s+are|to\s+be)\s|act\s+as\s+(a|an|the|if)\s|` +
		`forget\s+(everything|all)\s+(you|previous|above)|` +
		`override\s+(the\s+|your\s+|all\s+)?(instructions|rules|system)|` +
		`new\s+instructions\s*:)`,
)

// Problems returns human-readable issues with the brief, in field order.
func (b Brief) Problems() []string {
	var problems []string
	check := func(value, missing, field string) {
		v := strings.TrimSpace(value)
		switch {
		case v == "":
			problems = append(problems, missing)
		case len(v) > maxBriefField:
			problems = append(problems, field+" is too long")
		case injectionPattern.MatchString(v):
			problems = append(problems, field+" contains disallowed instructions")
		}
	}
	check(b.BrandName, "Please enter the brand name.", "brand name")
	check(b.Industry, "Please enter the industry of your brand.", "industry")
	return problems
}

// Validate returns a *ValidationError when the brief has problems.
func (b Brief) Validate() error {
	if p := b.Problems(); len(p) > 0 {
		return &ValidationError{Problems: p}
	}
	return nil
}

// Normalize trims both fields.
func (b Brief) Normalize() Brief {
	return Brief{
		BrandName: strings.TrimSpace(b.BrandName),
		Industry:  strings.TrimSpace(b.Industry),
	}
}

var (
	slugInvalid = regexp.MustCompile(`[^a-z0-9-]`)
	slugDashes  = regexp.MustCompile(`-+`)
)

// Slugify converts a string to a URL/path-safe slug.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = slugInvalid.ReplaceAllString(s, "-")
	s = slugDashes.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > 50 {
		s = strings.TrimRight(s[:50], "-")
	}
	return s
}
