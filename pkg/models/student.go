package models

// Field names a single attribute extracted from a student document
type Field string

const (
	FieldStudentID   Field = "student_id"
	FieldFullName    Field = "full_name"
	FieldEmail       Field = "email"
	FieldPhone       Field = "phone"
	FieldDepartment  Field = "department"
	FieldProgram     Field = "program"
	FieldYearOfStudy Field = "year_of_study"
)

// StudentFields lists the fixed field set in a stable order
var StudentFields = []Field{
	FieldStudentID,
	FieldFullName,
	FieldEmail,
	FieldPhone,
	FieldDepartment,
	FieldProgram,
	FieldYearOfStudy,
}

// StudentRecord holds the attributes parsed from recognized text.
// A nil field means "not found"; callers rely on it never being an empty string.
type StudentRecord struct {
	StudentID   *string `json:"student_id"`
	FullName    *string `json:"full_name"`
	Email       *string `json:"email"`
	Phone       *string `json:"phone"`
	Department  *string `json:"department"`
	Program     *string `json:"program"`
	YearOfStudy *string `json:"year_of_study"`
}

func (r *StudentRecord) slot(field Field) **string {
	switch field {
	case FieldStudentID:
		return &r.StudentID
	case FieldFullName:
		return &r.FullName
	case FieldEmail:
		return &r.Email
	case FieldPhone:
		return &r.Phone
	case FieldDepartment:
		return &r.Department
	case FieldProgram:
		return &r.Program
	case FieldYearOfStudy:
		return &r.YearOfStudy
	}
	return nil
}

// Get returns the value of a field and whether it was found
func (r *StudentRecord) Get(field Field) (string, bool) {
	s := r.slot(field)
	if s == nil || *s == nil {
		return "", false
	}
	return **s, true
}

// Set records a found value. Unknown fields are ignored.
func (r *StudentRecord) Set(field Field, value string) {
	if s := r.slot(field); s != nil {
		v := value
		*s = &v
	}
}

// IsEmpty reports whether no field was found
func (r *StudentRecord) IsEmpty() bool {
	for _, f := range StudentFields {
		if _, ok := r.Get(f); ok {
			return false
		}
	}
	return true
}

// Fields returns the found fields as a map; absent fields are omitted
func (r *StudentRecord) Fields() map[Field]string {
	out := make(map[Field]string, len(StudentFields))
	for _, f := range StudentFields {
		if v, ok := r.Get(f); ok {
			out[f] = v
		}
	}
	return out
}
