package models

import "strings"

// Registration sheet columns. Lookups ignore case, spaces, underscores and hyphens.
const (
	ColumnFirstName      = "FirstName"
	ColumnLastName       = "LastName"
	ColumnEmail          = "Email"
	ColumnDateOfBirth    = "DateOfBirth"
	ColumnYear           = "Year"
	ColumnPhoneNumber    = "PhoneNumber"
	ColumnDepartment     = "Department"
	ColumnCourse         = "Course"
	ColumnCredits        = "Credits"
	ColumnEnrollmentDate = "EnrollmentDate"
	ColumnGrade          = "Grade"
)

// RegistrationColumns lists the columns a registration row may carry.
var RegistrationColumns = []string{
	ColumnFirstName,
	ColumnLastName,
	ColumnEmail,
	ColumnDateOfBirth,
	ColumnYear,
	ColumnPhoneNumber,
	ColumnDepartment,
	ColumnCourse,
	ColumnCredits,
	ColumnEnrollmentDate,
	ColumnGrade,
}

// RawRecord is one ingested row: its positional identifier plus header -> cell
// values. A missing key and an empty cell are both treated as null.
type RawRecord struct {
	Row    int               `json:"row"`
	Fields map[string]string `json:"fields"`
}

// NewRawRecord builds a record with canonicalised header keys.
func NewRawRecord(row int, fields map[string]string) RawRecord {
	canonical := make(map[string]string, len(fields))
	for header, value := range fields {
		key := HeaderKey(header)
		if key == "" {
			continue
		}
		canonical[key] = value
	}
	return RawRecord{Row: row, Fields: canonical}
}

// Get returns the raw cell for column or "" when absent.
func (r RawRecord) Get(column string) string {
	if r.Fields == nil {
		return ""
	}
	return r.Fields[HeaderKey(column)]
}

// EmptyFields counts registration columns that are null or empty.
func (r RawRecord) EmptyFields() int {
	empty := 0
	for _, column := range RegistrationColumns {
		if r.Get(column) == "" {
			empty++
		}
	}
	return empty
}

// HeaderKey folds a header into its lookup key: "First Name" and "first_name"
// both become "firstname".
func HeaderKey(header string) string {
	var b strings.Builder
	b.Grow(len(header))
	for _, r := range strings.ToLower(strings.TrimSpace(header)) {
		switch r {
		case ' ', '_', '-', '\t':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// NormalizedRecord holds the typed values derived from one surviving raw record.
// Empty strings and zero numbers mean the value was not supplied.
type NormalizedRecord struct {
	Row            int     `json:"row"`
	FirstName      string  `json:"first_name"`
	LastName       string  `json:"last_name"`
	Email          string  `json:"email"`
	DateOfBirth    string  `json:"date_of_birth"`
	Year           int     `json:"year"`
	Phone          *string `json:"phone,omitempty"`
	Department     string  `json:"department"`
	Course         string  `json:"course,omitempty"`
	Credits        *int    `json:"credits,omitempty"`
	CreditsRaw     string  `json:"-"`
	EnrollmentDate string  `json:"enrollment_date,omitempty"`
	Grade          *string `json:"grade,omitempty"`
}

// HasCourse reports whether the record carries a course enrollment.
func (r NormalizedRecord) HasCourse() bool {
	return r.Course != ""
}

// RegistrationOutcome classifies a single-record registration.
type RegistrationOutcome string

// Possible registration outcomes.
const (
	RegistrationCreated           RegistrationOutcome = "created"
	RegistrationAlreadyRegistered RegistrationOutcome = "already_registered"
	RegistrationInvalid           RegistrationOutcome = "invalid"
)

// RegistrationResult is returned by the single-record registration path.
type RegistrationResult struct {
	Outcome    RegistrationOutcome `json:"outcome"`
	StudentID  int64               `json:"student_id,omitempty"`
	Email      string              `json:"email,omitempty"`
	CourseName string              `json:"course_name,omitempty"`
	Enrolled   bool                `json:"enrolled"`
	Errors     []string            `json:"errors,omitempty"`
}
