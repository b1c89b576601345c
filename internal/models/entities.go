package models

// Department is keyed by its canonical name.
type Department struct {
	ID   int64   `db:"department_id" json:"id,omitempty"`
	Name string  `db:"department_name" json:"name"`
	Head *string `db:"department_head" json:"head,omitempty"`
}

// Student is keyed by lower-cased email.
type Student struct {
	ID             int64   `db:"student_id" json:"id,omitempty"`
	FirstName      string  `db:"student_first_name" json:"first_name"`
	LastName       string  `db:"student_last_name" json:"last_name"`
	Email          string  `db:"student_email" json:"email"`
	DateOfBirth    string  `db:"student_date_of_birth" json:"date_of_birth"`
	Year           int     `db:"student_year" json:"year"`
	Phone          *string `db:"student_phone_number" json:"phone,omitempty"`
	DepartmentName string  `db:"department_name" json:"department"`
}

// Course is keyed by name.
type Course struct {
	ID             int64  `db:"course_id" json:"id,omitempty"`
	Name           string `db:"course_name" json:"name"`
	DepartmentName string `db:"department_name" json:"department"`
	Credits        *int   `db:"course_credits" json:"credits,omitempty"`
}

// Enrollment joins a student and a course by their natural keys.
type Enrollment struct {
	StudentEmail   string  `json:"student_email"`
	CourseName     string  `json:"course_name"`
	EnrollmentDate string  `json:"enrollment_date"`
	Grade          *string `json:"grade,omitempty"`
}

// Entities is the per-table output of entity extraction.
type Entities struct {
	Departments []Department `json:"departments"`
	Students    []Student    `json:"students"`
	Courses     []Course     `json:"courses"`
	Enrollments []Enrollment `json:"enrollments"`
}
