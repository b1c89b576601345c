package etl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/registration-etl/internal/models"
	"github.com/noah-isme/registration-etl/pkg/config"
	appErrors "github.com/noah-isme/registration-etl/pkg/errors"
)

func TestParseDate(t *testing.T) {
	cases := map[string]string{
		"2024-1-5":       "2024-01-05",
		"2024-01-05":     "2024-01-05",
		"12/20/1999":     "1999-12-20",
		"1/2/2003":       "2003-01-02",
		"15-03-2024":     "2024-03-15",
		"03-15-2024":     "2024-03-15",
		" 2001-02-28 ":   "2001-02-28",
		"Aug 30, 1998":   "1998-08-30",
		"30 August 1998": "1998-08-30",
	}
	for input, want := range cases {
		got, err := ParseDate(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}
}

func TestParseDateEmptyIsMissing(t *testing.T) {
	got, err := ParseDate("   ")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestParseDateRejectsImpossibleDates(t *testing.T) {
	for _, input := range []string{"13/40/2024", "2023-02-29", "31-31-2024", "not a date", "0000-01-01", "01/01/0000"} {
		_, err := ParseDate(input)
		require.Error(t, err, input)

		var parseErr *appErrors.ParseError
		require.ErrorAs(t, err, &parseErr, input)
		assert.True(t, appErrors.IsRecordScoped(err))
		assert.Contains(t, err.Error(), "Invalid date format")
	}
}

func TestNormalizeYear(t *testing.T) {
	cases := map[string]int{"Freshman": 1, "sophomore": 2, "JUNIOR": 3, "senior": 4, "3": 3, "": 0}
	for input, want := range cases {
		got, err := NormalizeYear(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}

	_, err := NormalizeYear("grad")
	var parseErr *appErrors.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "Invalid year: grad", err.Error())
}

func TestNormalizeGrade(t *testing.T) {
	cases := map[string]string{"95": "A", "91": "A-", "88": "B", "85": "B-", "80": "C", "75": "C-", "65": "D", "40": "F", "B-": "B-", "a": "A"}
	for input, want := range cases {
		got, err := NormalizeGrade(input)
		require.NoError(t, err, input)
		require.NotNil(t, got, input)
		assert.Equal(t, want, *got, input)
	}

	for _, input := range []string{"", "null", "NULL"} {
		got, err := NormalizeGrade(input)
		require.NoError(t, err)
		assert.Nil(t, got)
	}

	_, err := NormalizeGrade("excellent")
	assert.Error(t, err)
}

func TestParseCredits(t *testing.T) {
	assert.Nil(t, ParseCredits(""))
	assert.Equal(t, 4, *ParseCredits("four"))
	assert.Equal(t, 2, *ParseCredits("Two"))
	assert.Equal(t, 3, *ParseCredits("3"))
	assert.Equal(t, 0, *ParseCredits("lots"))
}

func TestNormalizeDepartment(t *testing.T) {
	cfg := NewConfig(config.DefaultDepartments())

	got, err := NormalizeDepartment("  COMP   Sci ", cfg.DepartmentAliases)
	require.NoError(t, err)
	assert.Equal(t, "Computer Science", got)

	got, err = NormalizeDepartment("mathematics", cfg.DepartmentAliases)
	require.NoError(t, err)
	assert.Equal(t, "Mathematics", got)

	_, err = NormalizeDepartment("Astrology", cfg.DepartmentAliases)
	assert.EqualError(t, err, "Unknown department: Astrology")
}

func TestNormalizeRecord(t *testing.T) {
	cfg := NewConfig(config.DefaultDepartments())
	raw := models.NewRawRecord(4, map[string]string{
		"FirstName":      " Ada ",
		"Last Name":      "Lovelace",
		"email":          "ADA@Example.com ",
		"date_of_birth":  "12/10/2000",
		"Year":           "Junior",
		"Phone-Number":   "9876543210",
		"Department":     "cs",
		"Course":         "Algorithms",
		"Credits":        "four",
		"EnrollmentDate": "2024-9-1",
		"Grade":          "91",
	})

	rec, err := Normalize(raw, cfg)
	require.NoError(t, err)
	assert.Equal(t, 4, rec.Row)
	assert.Equal(t, "Ada", rec.FirstName)
	assert.Equal(t, "ada@example.com", rec.Email)
	assert.Equal(t, "2000-12-10", rec.DateOfBirth)
	assert.Equal(t, 3, rec.Year)
	require.NotNil(t, rec.Phone)
	assert.Equal(t, "9876543210", *rec.Phone)
	assert.Equal(t, "Computer Science", rec.Department)
	assert.Equal(t, 4, *rec.Credits)
	assert.Equal(t, "2024-09-01", rec.EnrollmentDate)
	assert.Equal(t, "A-", *rec.Grade)
}
