// Package extraction parses recognized document text into a StudentRecord
// using ordered pattern rules. For every field the alternatives are tried in
// order and the first accepted match wins; there is no scoring.
package extraction

import (
	"strings"
	"unicode/utf8"

	apperrors "github.com/anime-shed/idcard-scanner-go/internal/errors"
	"github.com/anime-shed/idcard-scanner-go/pkg/models"
)

// Match records which alternative produced a field value
type Match struct {
	Field       models.Field `json:"field"`
	Alternative int          `json:"alternative"`
	Value       string       `json:"value"`
}

// Extractor parses recognized text into student attributes
type Extractor interface {
	Extract(text string) (*models.StudentRecord, error)
	Trace(text string) ([]Match, error)
}

type extractor struct {
	rules []FieldRule
}

var defaultExtractor = NewExtractor(defaultRules)

// NewExtractor creates an extractor over rules, evaluated in slice order
func NewExtractor(rules []FieldRule) Extractor {
	return &extractor{rules: rules}
}

// Extract parses text with the default rule table
func Extract(text string) (*models.StudentRecord, error) {
	return defaultExtractor.Extract(text)
}

// ExtractWithRules parses text with a custom rule table
func ExtractWithRules(text string, rules []FieldRule) (*models.StudentRecord, error) {
	return NewExtractor(rules).Extract(text)
}

// Trace reports, for the default rule table, which alternative matched each field
func Trace(text string) ([]Match, error) {
	return defaultExtractor.Trace(text)
}

// Extract returns a record with every unmatched field absent. It fails only
// when text is not valid UTF-8.
func (e *extractor) Extract(text string) (*models.StudentRecord, error) {
	matches, err := e.Trace(text)
	if err != nil {
		return nil, err
	}
	record := &models.StudentRecord{}
	for _, m := range matches {
		record.Set(m.Field, m.Value)
	}
	return record, nil
}

// Trace returns one Match per field that produced a value, in rule order
func (e *extractor) Trace(text string) ([]Match, error) {
	if !utf8.ValidString(text) {
		return nil, apperrors.NewMalformedTextError("recognized text is not valid UTF-8", nil)
	}
	normalized := normalizeLineBreaks(text)

	var matches []Match
	for _, rule := range e.rules {
		if value, alt, ok := rule.apply(normalized); ok {
			matches = append(matches, Match{Field: rule.Field, Alternative: alt, Value: value})
		}
	}
	return matches, nil
}

// apply tries the alternatives in order. Only the first match of each
// alternative is considered; a value outside the length bounds moves on to
// the next alternative.
func (r FieldRule) apply(text string) (string, int, bool) {
	for i, pattern := range r.Patterns {
		m := pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		value := m[0]
		if len(m) > 1 {
			value = m[1]
		}
		if r.Normalize != nil {
			value = r.Normalize(value)
		}
		if !r.accepts(value) {
			continue
		}
		return value, i, true
	}
	return "", -1, false
}

func (r FieldRule) accepts(value string) bool {
	n := utf8.RuneCountInString(value)
	if n == 0 || n < r.MinLength {
		return false
	}
	return r.MaxLength == 0 || n <= r.MaxLength
}

// normalizeLineBreaks turns every \r and \n into a single space so patterns
// can span the original lines.
func normalizeLineBreaks(text string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(text)
}
