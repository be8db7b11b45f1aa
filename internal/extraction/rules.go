package extraction

import (
	"regexp"
	"strings"

	"github.com/anime-shed/idcard-scanner-go/pkg/models"
)

// FieldRule is the ordered list of pattern alternatives for one field.
// Each pattern's first capture group (or whole match if it has none) is the
// candidate value.
type FieldRule struct {
	Field     models.Field
	Patterns  []*regexp.Regexp
	MinLength int // in runes after Normalize; values shorter fall through to the next pattern
	MaxLength int // 0 means unbounded
	Normalize func(string) string
}

// labelKeywords lists every field label. A labelled free-text value stops
// at the next one.
const labelKeywords = `Student|Matric|ID|Full\s*Name|Name|E-?mail|Phone|Telephone|Tel|Mobile|Contact|Department|Dept|Faculty|Programme|Program|Course|Major|Year|Level|Class|DOB|Date`

var defaultRules = []FieldRule{
	{
		Field: models.FieldStudentID,
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(?:Student\s*ID(?:\s*(?:Number|No\.?))?|ID\s*(?:Number|No\.?)|Matric(?:ulation)?\s*(?:Number|No\.?))[:\s]*([A-Z0-9\-/]+)`),
			regexp.MustCompile(`\b([A-Z]{2,}\d{4,})\b`),
			regexp.MustCompile(`\b(\d{6,10})\b`),
		},
		MinLength: 1,
		Normalize: strings.TrimSpace,
	},
	{
		Field: models.FieldFullName,
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(?:Student\s*Name|Full\s*Name|Name)[:\s]*([A-Za-z\s]{3,50}?)(?:\s*\b(?:` + labelKeywords + `)\b|\s*\d|\s*$)`),
			regexp.MustCompile(`^\s*([A-Z][a-z]+(?:\s+[A-Z][a-z]+){1,3})(?:\s|$)`),
		},
		MinLength: 6,
		Normalize: strings.TrimSpace,
	},
	{
		Field: models.FieldEmail,
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`\b([a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,})\b`),
		},
		MinLength: 1,
		Normalize: strings.TrimSpace,
	},
	{
		Field: models.FieldPhone,
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(?:Phone|Telephone|Tel|Mobile|Contact)[:\s]*([+\d\s\-()]{10,20})`),
			regexp.MustCompile(`\b(\+?\d{1,4}[\s\-]?\(?\d{1,4}\)?[\s\-]?\d{3,4}[\s\-]?\d{3,4})\b`),
		},
		MinLength: 1,
		Normalize: strings.TrimSpace,
	},
	{
		Field: models.FieldDepartment,
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(?:Department|Dept\.?|Faculty)[:\s]*([A-Za-z\s&]{3,50}?)(?:\s*\b(?:` + labelKeywords + `)\b|\s*$)`),
		},
		MinLength: 1,
		Normalize: strings.TrimSpace,
	},
	{
		Field: models.FieldProgram,
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(?:Programme|Program|Course|Major)[:\s]*([A-Za-z\s&]{3,50}?)(?:\s*\b(?:` + labelKeywords + `)\b|\s*$)`),
		},
		MinLength: 1,
		Normalize: strings.TrimSpace,
	},
	{
		Field: models.FieldYearOfStudy,
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(?:Year(?:\s*of\s*Study)?|Level|Class)[:\s]*(\d{1,2}|First|Second|Third|Fourth|Final)`),
			regexp.MustCompile(`(?i)\b(Year\s*\d|Level\s*\d)\b`),
		},
		MinLength: 1,
		Normalize: strings.TrimSpace,
	},
}

// DefaultRules returns the shared rule table. The table is built once at
// package load and must be treated as read-only.
func DefaultRules() []FieldRule {
	return defaultRules
}
