package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/registration-etl/internal/etl"
	"github.com/noah-isme/registration-etl/internal/models"
	appErrors "github.com/noah-isme/registration-etl/pkg/errors"
)

// DefaultBatchSize bounds the rows per INSERT statement. PostgreSQL caps bind
// parameters at 65535 and a student row uses seven.
const DefaultBatchSize = 500

const resetTablesQuery = `TRUNCATE TABLE enrollment, course, student, department RESTART IDENTITY CASCADE`

// LoadRepository replaces the registration tables with a freshly extracted
// entity set inside one transaction.
type LoadRepository struct {
	db        *sqlx.DB
	batchSize int
}

// NewLoadRepository constructs the loader. batchSize <= 0 uses DefaultBatchSize.
func NewLoadRepository(db *sqlx.DB, batchSize int) *LoadRepository {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &LoadRepository{db: db, batchSize: batchSize}
}

// Load truncates the four tables and inserts entities. Any failure rolls the
// whole transaction back and is returned as *errors.LoadError.
func (r *LoadRepository) Load(ctx context.Context, entities models.Entities, sink etl.EventSink) (counts models.LoadCounts, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return counts, &appErrors.LoadError{Stage: "begin", Err: err}
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
			etl.Emit(sink, etl.PhaseLoad, etl.EventTransactionRolled, "Transaction rolled back due to error", map[string]interface{}{
				etl.KeyError: err.Error(),
			})
		}
	}()
	etl.Emit(sink, etl.PhaseLoad, etl.EventTransactionStarted, "Transaction started", nil)

	if _, err = tx.ExecContext(ctx, resetTablesQuery); err != nil {
		return counts, &appErrors.LoadError{Stage: "reset", Err: fmt.Errorf("truncate tables: %w", err)}
	}
	etl.Emit(sink, etl.PhaseLoad, etl.EventProgress, "Cleared existing data", nil)

	var departmentIDs, studentIDs, courseIDs map[string]int64

	if departmentIDs, err = r.insertDepartments(ctx, tx, entities.Departments); err != nil {
		return counts, &appErrors.LoadError{Stage: etl.TableDepartment, Err: err}
	}
	counts.Departments = len(departmentIDs)
	emitLoaded(sink, etl.TableDepartment, "departments", counts.Departments)

	if studentIDs, err = r.insertStudents(ctx, tx, entities.Students, departmentIDs); err != nil {
		return counts, &appErrors.LoadError{Stage: etl.TableStudent, Err: err}
	}
	counts.Students = len(studentIDs)
	emitLoaded(sink, etl.TableStudent, "students", counts.Students)

	if courseIDs, err = r.insertCourses(ctx, tx, entities.Courses, departmentIDs); err != nil {
		return counts, &appErrors.LoadError{Stage: etl.TableCourse, Err: err}
	}
	counts.Courses = len(courseIDs)
	emitLoaded(sink, etl.TableCourse, "courses", counts.Courses)

	if counts.Enrollments, err = r.insertEnrollments(ctx, tx, entities.Enrollments, studentIDs, courseIDs, sink); err != nil {
		return counts, &appErrors.LoadError{Stage: etl.TableEnrollment, Err: err}
	}
	emitLoaded(sink, etl.TableEnrollment, "enrollments", counts.Enrollments)

	if err = tx.Commit(); err != nil {
		return counts, &appErrors.LoadError{Stage: "commit", Err: err}
	}
	etl.Emit(sink, etl.PhaseLoad, etl.EventTransactionCommitted, "Transaction committed successfully", nil)
	return counts, nil
}

func emitLoaded(sink etl.EventSink, table, label string, count int) {
	etl.Emit(sink, etl.PhaseLoad, etl.EventTableLoaded, fmt.Sprintf("Inserted %d %s", count, label), map[string]interface{}{
		etl.KeyTable: table,
		etl.KeyCount: count,
	})
}

func (r *LoadRepository) insertDepartments(ctx context.Context, tx *sqlx.Tx, departments []models.Department) (map[string]int64, error) {
	ids := make(map[string]int64, len(departments))
	for start := 0; start < len(departments); start += r.batchSize {
		batch := departments[start:min(start+r.batchSize, len(departments))]
		args := make([]interface{}, 0, len(batch)*2)
		for _, d := range batch {
			args = append(args, d.Name, d.Head)
		}
		query := "INSERT INTO department (department_name, department_head) VALUES " +
			valuesPlaceholders(len(batch), 2) +
			" RETURNING department_id, department_name"
		if err := collectIDs(ctx, tx, query, args, ids); err != nil {
			return nil, fmt.Errorf("insert departments: %w", err)
		}
	}
	return ids, nil
}

func (r *LoadRepository) insertStudents(ctx context.Context, tx *sqlx.Tx, students []models.Student, departmentIDs map[string]int64) (map[string]int64, error) {
	ids := make(map[string]int64, len(students))
	for start := 0; start < len(students); start += r.batchSize {
		batch := students[start:min(start+r.batchSize, len(students))]
		args := make([]interface{}, 0, len(batch)*7)
		for _, s := range batch {
			args = append(args, s.FirstName, s.LastName, s.Email, s.DateOfBirth, s.Year, s.Phone, lookupID(departmentIDs, s.DepartmentName))
		}
		query := "INSERT INTO student (student_first_name, student_last_name, student_email, student_date_of_birth, student_year, student_phone_number, department_id) VALUES " +
			valuesPlaceholders(len(batch), 7) +
			" RETURNING student_id, student_email"
		if err := collectIDs(ctx, tx, query, args, ids); err != nil {
			return nil, fmt.Errorf("insert students: %w", err)
		}
	}
	return ids, nil
}

func (r *LoadRepository) insertCourses(ctx context.Context, tx *sqlx.Tx, courses []models.Course, departmentIDs map[string]int64) (map[string]int64, error) {
	ids := make(map[string]int64, len(courses))
	for start := 0; start < len(courses); start += r.batchSize {
		batch := courses[start:min(start+r.batchSize, len(courses))]
		args := make([]interface{}, 0, len(batch)*3)
		for _, c := range batch {
			args = append(args, c.Name, lookupID(departmentIDs, c.DepartmentName), c.Credits)
		}
		query := "INSERT INTO course (course_name, department_id, course_credits) VALUES " +
			valuesPlaceholders(len(batch), 3) +
			" RETURNING course_id, course_name"
		if err := collectIDs(ctx, tx, query, args, ids); err != nil {
			return nil, fmt.Errorf("insert courses: %w", err)
		}
	}
	return ids, nil
}

func (r *LoadRepository) insertEnrollments(ctx context.Context, tx *sqlx.Tx, enrollments []models.Enrollment, studentIDs, courseIDs map[string]int64, sink etl.EventSink) (int, error) {
	type row struct {
		studentID int64
		courseID  int64
		date      string
		grade     *string
	}

	rows := make([]row, 0, len(enrollments))
	for _, e := range enrollments {
		studentID, okStudent := studentIDs[e.StudentEmail]
		courseID, okCourse := courseIDs[e.CourseName]
		if !okStudent || !okCourse {
			etl.Emit(sink, etl.PhaseWarn, etl.EventEnrollmentSkipped,
				fmt.Sprintf("Skipping enrollment: %s -> %s", e.StudentEmail, e.CourseName),
				map[string]interface{}{etl.KeyEmail: e.StudentEmail, etl.KeyCourse: e.CourseName})
			continue
		}
		rows = append(rows, row{studentID: studentID, courseID: courseID, date: e.EnrollmentDate, grade: e.Grade})
	}

	inserted := 0
	for start := 0; start < len(rows); start += r.batchSize {
		batch := rows[start:min(start+r.batchSize, len(rows))]
		args := make([]interface{}, 0, len(batch)*4)
		for _, e := range batch {
			args = append(args, e.studentID, e.courseID, e.date, e.grade)
		}
		query := "INSERT INTO enrollment (student_id, course_id, enrollment_date, grade) VALUES " +
			valuesPlaceholders(len(batch), 4)
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return inserted, fmt.Errorf("insert enrollments: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return inserted, fmt.Errorf("enrollment rows affected: %w", err)
		}
		inserted += int(affected)
	}
	return inserted, nil
}

// collectIDs runs an INSERT ... RETURNING id, key statement and records key -> id.
func collectIDs(ctx context.Context, tx *sqlx.Tx, query string, args []interface{}, ids map[string]int64) error {
	rows, err := tx.QueryxContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id  int64
			key string
		)
		if err := rows.Scan(&id, &key); err != nil {
			return err
		}
		ids[key] = id
	}
	return rows.Err()
}

// valuesPlaceholders renders "($1, $2), ($3, $4)" for rows x cols parameters.
func valuesPlaceholders(rows, cols int) string {
	var b strings.Builder
	n := 1
	for i := 0; i < rows; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for j := 0; j < cols; j++ {
			if j > 0 {
				b.WriteString(", ")
			}
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			n++
		}
		b.WriteByte(')')
	}
	return b.String()
}

func lookupID(ids map[string]int64, key string) interface{} {
	if id, ok := ids[key]; ok {
		return id
	}
	return nil
}
