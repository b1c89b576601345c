package etl

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/noah-isme/registration-etl/internal/models"
	appErrors "github.com/noah-isme/registration-etl/pkg/errors"
)

const isoLayout = "2006-01-02"

var (
	isoDatePattern   = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})$`)
	slashDatePattern = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
	dashDatePattern  = regexp.MustCompile(`^(\d{1,2})-(\d{1,2})-(\d{4})$`)
	leadingInt       = regexp.MustCompile(`^[+-]?\d+`)
)

var yearLevels = map[string]int{
	"freshman":  1,
	"sophomore": 2,
	"junior":    3,
	"senior":    4,
	"1":         1,
	"2":         2,
	"3":         3,
	"4":         4,
}

var creditWords = map[string]int{
	"one":   1,
	"two":   2,
	"three": 3,
	"four":  4,
}

var letterGrades = map[string]struct{}{
	"A": {}, "A-": {}, "B": {}, "B-": {}, "C": {}, "C-": {}, "D": {}, "F": {},
}

// ParseDate converts ISO, US slash, dash (US month-first, else day-first) and
// free-text dates to YYYY-MM-DD. Empty input returns "".
func ParseDate(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", nil
	}

	if m := isoDatePattern.FindStringSubmatch(s); m != nil {
		return calendarDate(raw, m[1], m[2], m[3])
	}
	if m := slashDatePattern.FindStringSubmatch(s); m != nil {
		return calendarDate(raw, m[3], m[1], m[2])
	}
	if m := dashDatePattern.FindStringSubmatch(s); m != nil {
		if month, _ := strconv.Atoi(m[1]); month >= 1 && month <= 12 {
			if date, err := calendarDate(raw, m[3], m[1], m[2]); err == nil {
				return date, nil
			}
		}
		return calendarDate(raw, m[3], m[2], m[1])
	}

	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil || t.Year() < 1 {
		return "", invalidDate(raw)
	}
	return t.Format(isoLayout), nil
}

func calendarDate(raw, year, month, day string) (string, error) {
	y, errY := strconv.Atoi(year)
	m, errM := strconv.Atoi(month)
	d, errD := strconv.Atoi(day)
	if errY != nil || errM != nil || errD != nil || y < 1 || m < 1 || m > 12 || d < 1 {
		return "", invalidDate(raw)
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Year() != y || int(t.Month()) != m || t.Day() != d {
		return "", invalidDate(raw)
	}
	return t.Format(isoLayout), nil
}

func invalidDate(raw string) error {
	return &appErrors.ParseError{Field: "date", Value: raw, Reason: "Invalid date format"}
}

// NormalizeYear maps class names and digits to a year level 1-4. Empty input returns 0.
func NormalizeYear(raw string) (int, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return 0, nil
	}
	year, ok := yearLevels[s]
	if !ok {
		return 0, &appErrors.ParseError{Field: "year", Value: raw, Reason: "Invalid year"}
	}
	return year, nil
}

// NormalizeDepartment resolves an alias to its canonical department name.
// Empty input returns "".
func NormalizeDepartment(raw string, aliases map[string]string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", nil
	}
	name, ok := aliases[foldKey(raw)]
	if !ok {
		return "", &appErrors.ParseError{Field: "department", Value: raw, Reason: "Unknown department"}
	}
	return name, nil
}

// NormalizeGrade returns a letter grade, banding numeric scores. Empty input and
// the literal "null" return nil.
func NormalizeGrade(raw string) (*string, error) {
	s := strings.TrimSpace(raw)
	if s == "" || strings.EqualFold(s, "null") {
		return nil, nil
	}

	grade := strings.ToUpper(s)
	if _, ok := letterGrades[grade]; ok {
		return &grade, nil
	}

	digits := leadingInt.FindString(grade)
	if digits == "" {
		return nil, &appErrors.ParseError{Field: "grade", Value: raw, Reason: "Invalid grade"}
	}
	score, err := strconv.Atoi(digits)
	if err != nil {
		return nil, &appErrors.ParseError{Field: "grade", Value: raw, Reason: "Invalid grade"}
	}
	letter := gradeForScore(score)
	return &letter, nil
}

func gradeForScore(score int) string {
	switch {
	case score >= 93:
		return "A"
	case score >= 90:
		return "A-"
	case score >= 87:
		return "B"
	case score >= 83:
		return "B-"
	case score >= 77:
		return "C"
	case score >= 73:
		return "C-"
	case score >= 60:
		return "D"
	default:
		return "F"
	}
}

// ParseCredits reads "one".."four" or an integer. Unparseable input yields 0 so
// the range check in validation rejects it; empty input returns nil.
func ParseCredits(raw string) *int {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return nil
	}
	if n, ok := creditWords[s]; ok {
		return &n
	}
	n, err := strconv.Atoi(leadingInt.FindString(s))
	if err != nil {
		n = 0
	}
	return &n
}

// Normalize converts one raw record into typed values. A ParseError excludes
// the record.
func Normalize(rec models.RawRecord, cfg Config) (models.NormalizedRecord, error) {
	out := models.NormalizedRecord{
		Row:       rec.Row,
		FirstName: strings.TrimSpace(rec.Get(models.ColumnFirstName)),
		LastName:  strings.TrimSpace(rec.Get(models.ColumnLastName)),
		Email:     strings.ToLower(strings.TrimSpace(rec.Get(models.ColumnEmail))),
		Course:    strings.TrimSpace(rec.Get(models.ColumnCourse)),
	}

	var err error
	if out.DateOfBirth, err = ParseDate(rec.Get(models.ColumnDateOfBirth)); err != nil {
		return out, err
	}
	if out.Year, err = NormalizeYear(rec.Get(models.ColumnYear)); err != nil {
		return out, err
	}
	if phone := strings.TrimSpace(rec.Get(models.ColumnPhoneNumber)); phone != "" {
		out.Phone = &phone
	}
	if out.Department, err = NormalizeDepartment(rec.Get(models.ColumnDepartment), cfg.DepartmentAliases); err != nil {
		return out, err
	}
	out.CreditsRaw = strings.TrimSpace(rec.Get(models.ColumnCredits))
	out.Credits = ParseCredits(out.CreditsRaw)
	if out.EnrollmentDate, err = ParseDate(rec.Get(models.ColumnEnrollmentDate)); err != nil {
		return out, err
	}
	if out.Grade, err = NormalizeGrade(rec.Get(models.ColumnGrade)); err != nil {
		return out, err
	}
	return out, nil
}
