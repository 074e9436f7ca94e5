package enrich

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// naValues are cell texts that spreadsheet tooling conventionally treats as
// missing.
var naValues = map[string]struct{}{
	"#N/A": {}, "#N/A N/A": {}, "#NA": {}, "-1.#IND": {}, "-1.#QNAN": {},
	"-NaN": {}, "-nan": {}, "1.#IND": {}, "1.#QNAN": {}, "<NA>": {},
	"N/A": {}, "NA": {}, "NULL": {}, "NaN": {}, "None": {}, "n/a": {},
	"nan": {}, "null": {},
}

// Subject is the optional free text a unit's stages are asked about.
type Subject struct {
	text    string
	present bool
}

// NewSubject applies the presence predicate to a raw cell value: the value is
// NFC-normalized and trimmed, and blank or missing-value markers yield an
// absent subject.
func NewSubject(raw string) Subject {
	s := strings.TrimSpace(norm.NFC.String(raw))
	if s == "" {
		return Subject{}
	}
	if _, na := naValues[s]; na {
		return Subject{}
	}
	return Subject{text: s, present: true}
}

// Present reports whether the subject has text.
func (s Subject) Present() bool { return s.present }

// Text returns the subject text, or "" when absent.
func (s Subject) Text() string { return s.text }

// Render builds the prompt sent for a template and subject.
func Render(template string, s Subject) string {
	return template + ` "` + s.text + `"`
}

// preview shortens text for log lines.
func preview(text string) string {
	r := []rune(text)
	if len(r) <= 50 {
		return text
	}
	return string(r[:50]) + "..."
}
