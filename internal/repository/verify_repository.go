package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/registration-etl/internal/models"
)

// integrityQueries each return the number of violating rows.
var integrityQueries = []struct {
	name  string
	query string
}{
	{
		name:  "students_without_department",
		query: `SELECT COUNT(*) FROM student s LEFT JOIN department d ON d.department_id = s.department_id WHERE d.department_id IS NULL`,
	},
	{
		name:  "enrollments_without_student",
		query: `SELECT COUNT(*) FROM enrollment e LEFT JOIN student s ON s.student_id = e.student_id WHERE s.student_id IS NULL`,
	},
	{
		name:  "enrollments_without_course",
		query: `SELECT COUNT(*) FROM enrollment e LEFT JOIN course c ON c.course_id = e.course_id WHERE c.course_id IS NULL`,
	},
	{
		name:  "duplicate_student_emails",
		query: `SELECT COUNT(*) FROM (SELECT LOWER(student_email) FROM student GROUP BY LOWER(student_email) HAVING COUNT(*) > 1) dup`,
	},
}

// VerifyRepository inspects the registration tables after a load.
type VerifyRepository struct {
	db *sqlx.DB
}

// NewVerifyRepository constructs the repository.
func NewVerifyRepository(db *sqlx.DB) *VerifyRepository {
	return &VerifyRepository{db: db}
}

// Counts returns the row count of each table.
func (r *VerifyRepository) Counts(ctx context.Context) (models.TableCounts, error) {
	const query = `SELECT
	(SELECT COUNT(*) FROM department) AS departments,
	(SELECT COUNT(*) FROM student) AS students,
	(SELECT COUNT(*) FROM course) AS courses,
	(SELECT COUNT(*) FROM enrollment) AS enrollments`
	var counts models.TableCounts
	if err := r.db.GetContext(ctx, &counts, query); err != nil {
		return counts, fmt.Errorf("count tables: %w", err)
	}
	return counts, nil
}

// DepartmentBreakdown counts students per department, largest first.
func (r *VerifyRepository) DepartmentBreakdown(ctx context.Context) ([]models.DepartmentBreakdown, error) {
	const query = `SELECT d.department_name, COUNT(s.student_id) AS student_count
FROM department d
LEFT JOIN student s ON d.department_id = s.department_id
GROUP BY d.department_name
ORDER BY student_count DESC, d.department_name`
	var rows []models.DepartmentBreakdown
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("department breakdown: %w", err)
	}
	return rows, nil
}

// IntegrityChecks runs every consistency query.
func (r *VerifyRepository) IntegrityChecks(ctx context.Context) ([]models.IntegrityCheck, error) {
	checks := make([]models.IntegrityCheck, 0, len(integrityQueries))
	for _, q := range integrityQueries {
		var violations int
		if err := r.db.GetContext(ctx, &violations, q.query); err != nil {
			return nil, fmt.Errorf("integrity check %s: %w", q.name, err)
		}
		checks = append(checks, models.IntegrityCheck{Name: q.name, Violations: violations})
	}
	return checks, nil
}

// Verify assembles the full verification report.
func (r *VerifyRepository) Verify(ctx context.Context) (*models.VerificationReport, error) {
	counts, err := r.Counts(ctx)
	if err != nil {
		return nil, err
	}
	breakdown, err := r.DepartmentBreakdown(ctx)
	if err != nil {
		return nil, err
	}
	checks, err := r.IntegrityChecks(ctx)
	if err != nil {
		return nil, err
	}
	return &models.VerificationReport{Counts: counts, Departments: breakdown, Checks: checks}, nil
}
