package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyRepositoryVerify(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewVerifyRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`(SELECT COUNT(*) FROM department) AS departments`)).
		WillReturnRows(sqlmock.NewRows([]string{"departments", "students", "courses", "enrollments"}).AddRow(3, 40, 5, 38))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT d.department_name, COUNT(s.student_id) AS student_count`)).
		WillReturnRows(sqlmock.NewRows([]string{"department_name", "student_count"}).
			AddRow("Computer Science", 25).
			AddRow("Mathematics", 15).
			AddRow("Physics", 0))
	for i, q := range integrityQueries {
		violations := 0
		if i == len(integrityQueries)-1 {
			violations = 2
		}
		mock.ExpectQuery(regexp.QuoteMeta(q.query)).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(violations))
	}

	report, err := repo.Verify(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 40, report.Counts.Students)
	assert.Equal(t, 38, report.Counts.Enrollments)
	require.Len(t, report.Departments, 3)
	assert.Equal(t, "Computer Science", report.Departments[0].Department)
	require.Len(t, report.Checks, len(integrityQueries))
	assert.Equal(t, "duplicate_student_emails", report.Checks[3].Name)
	assert.False(t, report.Checks[3].Passed())
	assert.False(t, report.Healthy())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVerifyRepositoryCountsError(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewVerifyRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT`)).WillReturnError(errors.New("relation \"student\" does not exist"))

	_, err := repo.Verify(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "count tables")
	require.NoError(t, mock.ExpectationsWereMet())
}
