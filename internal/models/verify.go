package models

// TableCounts holds row counts of the four registration tables.
type TableCounts struct {
	Departments int `db:"departments" json:"departments"`
	Students    int `db:"students" json:"students"`
	Courses     int `db:"courses" json:"courses"`
	Enrollments int `db:"enrollments" json:"enrollments"`
}

// DepartmentBreakdown counts students per department.
type DepartmentBreakdown struct {
	Department   string `db:"department_name" json:"department"`
	StudentCount int    `db:"student_count" json:"student_count"`
}

// IntegrityCheck is the result of one post-load consistency query.
type IntegrityCheck struct {
	Name       string `json:"name"`
	Violations int    `json:"violations"`
}

// Passed reports whether the check found no violations.
func (c IntegrityCheck) Passed() bool {
	return c.Violations == 0
}

// VerificationReport is produced by the verify command.
type VerificationReport struct {
	Counts      TableCounts           `json:"counts"`
	Departments []DepartmentBreakdown `json:"departments"`
	Checks      []IntegrityCheck      `json:"checks"`
}

// Healthy reports whether every integrity check passed.
func (r VerificationReport) Healthy() bool {
	for _, check := range r.Checks {
		if !check.Passed() {
			return false
		}
	}
	return true
}
