package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/registration-etl/internal/models"
)

// ErrStudentExists is returned by Register when the email is already taken.
var ErrStudentExists = errors.New("student already exists")

const uniqueViolation = "23505"

// RegistrationParams is one student with its department and optional course.
type RegistrationParams struct {
	Department models.Department
	Student    models.Student
	Course     *models.Course
	Enrollment *models.Enrollment
}

// RegistrationRepository writes single registrations without touching other rows.
type RegistrationRepository struct {
	db *sqlx.DB
}

// NewRegistrationRepository constructs the repository.
func NewRegistrationRepository(db *sqlx.DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

// FindStudentIDByEmail looks a student up by email, ignoring case.
func (r *RegistrationRepository) FindStudentIDByEmail(ctx context.Context, email string) (int64, bool, error) {
	const query = `SELECT student_id FROM student WHERE LOWER(student_email) = LOWER($1) LIMIT 1`
	var id int64
	if err := r.db.GetContext(ctx, &id, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("find student by email: %w", err)
	}
	return id, true, nil
}

// Register inserts the student, reusing an existing department and course by
// name. It returns ErrStudentExists when the email unique constraint fires.
func (r *RegistrationRepository) Register(ctx context.Context, params RegistrationParams) (studentID int64, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin registration transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const insertDepartment = `INSERT INTO department (department_name, department_head) VALUES ($1, $2)
ON CONFLICT (department_name) DO NOTHING RETURNING department_id`
	const selectDepartment = `SELECT department_id FROM department WHERE department_name = $1`
	departmentID, err := insertOrFetch(ctx, tx, insertDepartment, selectDepartment, params.Department.Name, params.Department.Head)
	if err != nil {
		return 0, fmt.Errorf("upsert department: %w", err)
	}

	const insertStudent = `INSERT INTO student (student_first_name, student_last_name, student_email, student_date_of_birth, student_year, student_phone_number, department_id)
VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING student_id`
	s := params.Student
	if err = tx.GetContext(ctx, &studentID, insertStudent, s.FirstName, s.LastName, s.Email, s.DateOfBirth, s.Year, s.Phone, departmentID); err != nil {
		if isUniqueViolation(err) {
			return 0, ErrStudentExists
		}
		return 0, fmt.Errorf("insert student: %w", err)
	}

	if params.Course != nil && params.Enrollment != nil {
		const insertCourse = `INSERT INTO course (course_name, department_id, course_credits) VALUES ($1, $2, $3)
ON CONFLICT (course_name) DO NOTHING RETURNING course_id`
		const selectCourse = `SELECT course_id FROM course WHERE course_name = $1`
		var courseID int64
		courseID, err = insertOrFetch(ctx, tx, insertCourse, selectCourse, params.Course.Name, departmentID, params.Course.Credits)
		if err != nil {
			return 0, fmt.Errorf("upsert course: %w", err)
		}

		const insertEnrollment = `INSERT INTO enrollment (student_id, course_id, enrollment_date, grade) VALUES ($1, $2, $3, $4)`
		if _, err = tx.ExecContext(ctx, insertEnrollment, studentID, courseID, params.Enrollment.EnrollmentDate, params.Enrollment.Grade); err != nil {
			return 0, fmt.Errorf("insert enrollment: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit registration: %w", err)
	}
	return studentID, nil
}

// insertOrFetch runs an ON CONFLICT DO NOTHING insert and falls back to a
// lookup by the first argument when the row already existed.
func insertOrFetch(ctx context.Context, tx *sqlx.Tx, insertQuery, selectQuery string, args ...interface{}) (int64, error) {
	var id int64
	err := tx.GetContext(ctx, &id, insertQuery, args...)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}
	if err := tx.GetContext(ctx, &id, selectQuery, args[0]); err != nil {
		return 0, err
	}
	return id, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
