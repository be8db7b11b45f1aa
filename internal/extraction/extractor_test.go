package extraction

import (
	"regexp"
	"strings"
	"sync"
	"testing"

	apperrors "github.com/anime-shed/idcard-scanner-go/internal/errors"
	"github.com/anime-shed/idcard-scanner-go/pkg/models"
)

const sampleCard = "STATE UNIVERSITY\n" +
	"Student ID: CS2021456\n" +
	"Name: John Smith\n" +
	"Email: john.smith@uni.edu\n" +
	"Phone: +1 555 123 4567\n" +
	"Department: Computer Science\n" +
	"Program: Software Engineering\n" +
	"Year: 3"

func mustExtract(t *testing.T, text string) *models.StudentRecord {
	t.Helper()
	record, err := Extract(text)
	if err != nil {
		t.Fatalf("Extract(%q) error: %v", text, err)
	}
	return record
}

func assertField(t *testing.T, record *models.StudentRecord, field models.Field, want string) {
	t.Helper()
	got, ok := record.Get(field)
	if want == "" {
		if ok {
			t.Errorf("Expected %s to be absent, got %q", field, got)
		}
		return
	}
	if !ok {
		t.Errorf("Expected %s = %q, got absent", field, want)
		return
	}
	if got != want {
		t.Errorf("Expected %s = %q, got %q", field, want, got)
	}
}

func TestExtract_FullCard(t *testing.T) {
	record := mustExtract(t, sampleCard)

	assertField(t, record, models.FieldStudentID, "CS2021456")
	assertField(t, record, models.FieldFullName, "John Smith")
	assertField(t, record, models.FieldEmail, "john.smith@uni.edu")
	assertField(t, record, models.FieldPhone, "+1 555 123 4567")
	assertField(t, record, models.FieldDepartment, "Computer Science")
	assertField(t, record, models.FieldProgram, "Software Engineering")
	assertField(t, record, models.FieldYearOfStudy, "3")
}

func TestExtract_StudentID(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"labelled", "Student ID: CS2021456", "CS2021456"},
		{"labelled beats earlier bare token", "Ref AB123456 Student ID: CS2021456", "CS2021456"},
		{"labelled lowercase", "student id: cs2021456", "cs2021456"},
		{"id number", "ID Number: 2021/CS/045", "2021/CS/045"},
		{"id no with period", "ID No. 12/345-A", "12/345-A"},
		{"student id no", "Student ID No: ABC123", "ABC123"},
		{"matric no", "Matric No: U1234-5", "U1234-5"},
		{"bare letters and digits", "Card AB12345 issued", "AB12345"},
		{"bare numeric", "Serial 20214567 here", "20214567"},
		{"bare lowercase is not an id", "code ab12345", ""},
		{"too few digits", "Serial 12345", ""},
		{"none", "no identifiers here", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertField(t, mustExtract(t, tt.text), models.FieldStudentID, tt.want)
		})
	}
}

func TestExtract_FullName(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"labelled end of text", "Name: John Smith", "John Smith"},
		{"labelled full name", "Full Name: Ada Lovelace\nStudent ID: 123456", "Ada Lovelace"},
		{"labelled student name", "Student Name: Grace Brewster Hopper", "Grace Brewster Hopper"},
		{"terminated by digit", "Name: Jane Doe 12 Main St", "Jane Doe"},
		{"terminated by department", "Name: Alan Turing Department: Mathematics", "Alan Turing"},
		{"keeps inner spaces", "Name:   John  Smith", "John  Smith"},
		{"short parts with double space", "Name: Al  Bo", "Al  Bo"},
		{"fallback at start", "Grace Hopper\nID No: 12345", "Grace Hopper"},
		{"short label falls back", "Mary Jane Watson\nName: Al", "Mary Jane Watson"},
		{"short label and no fallback", "Name: Al", ""},
		{"short fallback", "Jo Li", ""},
		{"fallback only at start", "UNIVERSITY OF LAGOS Grace Hopper", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertField(t, mustExtract(t, tt.text), models.FieldFullName, tt.want)
		})
	}
}

func TestExtract_ShortNameTriesFallback(t *testing.T) {
	matches, err := Trace("Mary Jane Watson\nName: Al")
	if err != nil {
		t.Fatalf("Trace() error: %v", err)
	}
	for _, m := range matches {
		if m.Field == models.FieldFullName {
			if m.Alternative != 1 {
				t.Errorf("Expected fallback alternative 1, got %d", m.Alternative)
			}
			return
		}
	}
	t.Error("Expected a full_name match")
}

func TestExtract_Email(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"simple", "Email: jdoe@example.com", "jdoe@example.com"},
		{"first in document order", "a.b@x.com and c+d@y.org", "a.b@x.com"},
		{"subdomain", "mail me at s123@students.uni.ac.uk", "s123@students.uni.ac.uk"},
		{"single letter tld", "x@y.z", ""},
		{"none", "no mail", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertField(t, mustExtract(t, tt.text), models.FieldEmail, tt.want)
		})
	}
}

func TestExtract_Phone(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"labelled", "Phone: +1 555 123 4567", "+1 555 123 4567"},
		{"labelled parentheses", "Tel: (020) 7946-0958", "(020) 7946-0958"},
		{"labelled mobile", "Mobile:0803-123-4567", "0803-123-4567"},
		{"bare", "Call 0712 345 678 today", "0712 345 678"},
		{"too short", "Phone: 12345", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertField(t, mustExtract(t, tt.text), models.FieldPhone, tt.want)
		})
	}
}

func TestExtract_Department(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"labelled", "Department: Computer Science", "Computer Science"},
		{"abbreviated with ampersand", "Dept. Electrical & Electronic Engineering", "Electrical & Electronic Engineering"},
		{"faculty terminated by student", "Faculty: Arts Student ID: 123456", "Arts"},
		{"spans line break", "Department:\r\nComputer Science", "Computer Science"},
		{"no keyword", "Computer Science\nStudent ID: CS2021456", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertField(t, mustExtract(t, tt.text), models.FieldDepartment, tt.want)
		})
	}
}

func TestExtract_Program(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"labelled", "Program: Software Engineering", "Software Engineering"},
		{"course terminated by level", "Course: BSc Nursing Level: 2", "BSc Nursing"},
		{"major", "Major: History & Politics", "History & Politics"},
		{"no keyword", "Software Engineering", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertField(t, mustExtract(t, tt.text), models.FieldProgram, tt.want)
		})
	}
}

func TestExtract_YearOfStudy(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"digit", "Year: 3", "3"},
		{"word", "Year: Final", "Final"},
		{"year of study", "Year of Study: 2", "2"},
		{"level", "Level 4", "4"},
		{"class two digits", "Class: 10", "10"},
		{"calendar year keeps leading digits", "Year 2022", "20"},
		{"three digit level", "Level: 100", "10"},
		{"academic year range", "Academic Year: 2023/2024", "20"},
		{"none", "Freshman", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertField(t, mustExtract(t, tt.text), models.FieldYearOfStudy, tt.want)
		})
	}
}

func TestExtract_EmptyText(t *testing.T) {
	record := mustExtract(t, "")
	if !record.IsEmpty() {
		t.Errorf("Expected empty record, got %v", record.Fields())
	}
	for _, f := range models.StudentFields {
		if _, ok := record.Get(f); ok {
			t.Errorf("Expected %s to be absent", f)
		}
	}
}

func TestExtract_MalformedText(t *testing.T) {
	_, err := Extract("Name: \xff\xfe John")
	if !apperrors.IsType(err, apperrors.ErrorTypeMalformedText) {
		t.Errorf("Expected malformed text error, got %v", err)
	}
}

func TestExtract_AbsentFieldsAreNil(t *testing.T) {
	record := mustExtract(t, "Student ID: CS2021456")
	if record.Department != nil {
		t.Errorf("Expected nil department, got %q", *record.Department)
	}
	if record.StudentID == nil || *record.StudentID != "CS2021456" {
		t.Error("Expected student id to be set")
	}
}

func TestTrace_LabelledStudentID(t *testing.T) {
	matches, err := Trace("Ref AB123456 Student ID: CS2021456")
	if err != nil {
		t.Fatalf("Trace() error: %v", err)
	}
	if len(matches) == 0 || matches[0].Field != models.FieldStudentID {
		t.Fatalf("Expected student_id match first, got %+v", matches)
	}
	if matches[0].Alternative != 0 || matches[0].Value != "CS2021456" {
		t.Errorf("Expected labelled alternative with CS2021456, got %+v", matches[0])
	}
}

func TestExtractWithRules_FallsThroughOnLength(t *testing.T) {
	rules := []FieldRule{
		{
			Field: models.FieldProgram,
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`P:(\w+)`),
				regexp.MustCompile(`Q:(\w+)`),
			},
			MinLength: 4,
			MaxLength: 8,
			Normalize: strings.ToUpper,
		},
	}

	tests := []struct {
		name string
		text string
		want string
	}{
		{"first accepted", "P:math Q:physics", "MATH"},
		{"first too short", "P:cs Q:physics", "PHYSICS"},
		{"first too long", "P:engineering Q:art", ""},
		{"no match", "nothing", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record, err := ExtractWithRules(tt.text, rules)
			if err != nil {
				t.Fatalf("ExtractWithRules() error: %v", err)
			}
			assertField(t, record, models.FieldProgram, tt.want)
		})
	}
}

func TestDefaultRules_SharedTable(t *testing.T) {
	a, b := DefaultRules(), DefaultRules()
	if len(a) != len(models.StudentFields) {
		t.Fatalf("Expected one rule per field, got %d", len(a))
	}
	if &a[0] != &b[0] {
		t.Error("Expected the same table on every call")
	}
	for i, rule := range a {
		if rule.Field != models.StudentFields[i] {
			t.Errorf("Rule %d is for %s, want %s", i, rule.Field, models.StudentFields[i])
		}
	}
}

func TestExtract_Concurrent(t *testing.T) {
	var wg sync.WaitGroup
	errs := make(chan string, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			record, err := Extract(sampleCard)
			if err != nil {
				errs <- err.Error()
				return
			}
			if v, _ := record.Get(models.FieldStudentID); v != "CS2021456" {
				errs <- "unexpected student id " + v
			}
		}()
	}
	wg.Wait()
	close(errs)
	for e := range errs {
		t.Error(e)
	}
}
