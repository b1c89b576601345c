package etl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/registration-etl/internal/models"
	"github.com/noah-isme/registration-etl/pkg/config"
)

type recordingSink struct {
	events []Event
}

func (s *recordingSink) Emit(e Event) { s.events = append(s.events, e) }

func (s *recordingSink) kinds(kind EventKind) []Event {
	var out []Event
	for _, e := range s.events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

func registrationRow(row int, fields map[string]string) models.RawRecord {
	base := map[string]string{
		"FirstName":   "Alan",
		"LastName":    "Turing",
		"Email":       "a@x.com",
		"DateOfBirth": "1999-06-23",
		"Year":        "senior",
		"Department":  "Computer Science",
	}
	for k, v := range fields {
		base[k] = v
	}
	return models.NewRawRecord(row, base)
}

func TestDeduplicateKeepsMoreCompleteRecord(t *testing.T) {
	sink := &recordingSink{}
	first := registrationRow(2, map[string]string{"Email": "A@x.com", "PhoneNumber": "9876543210"})
	second := registrationRow(3, map[string]string{"Email": "a@x.com "})
	other := registrationRow(4, map[string]string{"Email": "b@x.com"})

	out := Deduplicate([]models.RawRecord{first, second, other}, sink)

	require.Len(t, out, 2)
	assert.Equal(t, 2, out[0].Row, "first row has fewer empty fields")
	assert.Equal(t, 4, out[1].Row)
	dups := sink.kinds(EventDuplicateDetected)
	require.Len(t, dups, 1)
	assert.Equal(t, PhaseDedup, dups[0].Phase)
	assert.Equal(t, "a@x.com", dups[0].String(KeyEmail))
}

func TestDeduplicateLaterEqualRecordWinsAtFirstPosition(t *testing.T) {
	sink := &recordingSink{}
	records := []models.RawRecord{
		registrationRow(2, map[string]string{"LastName": "First"}),
		registrationRow(3, map[string]string{"Email": "z@x.com"}),
		registrationRow(4, map[string]string{"LastName": "Second"}),
		registrationRow(5, map[string]string{"LastName": "Third", "Year": ""}),
	}

	out := Deduplicate(records, sink)

	require.Len(t, out, 2)
	assert.Equal(t, 4, out[0].Row)
	assert.Equal(t, "Second", out[0].Get(models.ColumnLastName))
	assert.Equal(t, 3, out[1].Row)
	assert.Len(t, sink.kinds(EventDuplicateDetected), 2, "one event per extra occurrence")
}

func TestDeduplicatePassesRecordsWithoutEmail(t *testing.T) {
	records := []models.RawRecord{
		registrationRow(2, map[string]string{"Email": ""}),
		registrationRow(3, map[string]string{"Email": "  "}),
	}
	out := Deduplicate(records, nil)
	assert.Len(t, out, 2)
}

func TestExtractEntitiesSharesDepartment(t *testing.T) {
	cfg := testConfig()
	recs := []models.NormalizedRecord{validRecord(), validRecord()}
	recs[0].Department = "Computer Science"
	recs[1].Department = "Computer Science"
	recs[1].Email = "other@example.com"

	entities := ExtractEntities(recs, cfg)

	require.Len(t, entities.Departments, 1)
	assert.Equal(t, "Computer Science", entities.Departments[0].Name)
	require.NotNil(t, entities.Departments[0].Head)
	assert.Equal(t, "Dr. Alan Turing", *entities.Departments[0].Head)
	assert.Len(t, entities.Students, 2)
	assert.Empty(t, entities.Courses)
	assert.Empty(t, entities.Enrollments)
}

func TestExtractEntitiesFirstSeenCourseWins(t *testing.T) {
	two, four := 2, 4
	a := validRecord()
	a.Course, a.Credits, a.EnrollmentDate = "Logic", &two, "2024-09-01"
	b := validRecord()
	b.Email = "b@example.com"
	b.Course, b.Credits, b.EnrollmentDate = "Logic", &four, "2024-09-02"

	entities := ExtractEntities([]models.NormalizedRecord{a, b}, testConfig())

	require.Len(t, entities.Courses, 1)
	assert.Equal(t, 2, *entities.Courses[0].Credits)
	assert.Len(t, entities.Enrollments, 2)
	require.NotNil(t, entities.Departments[0].Head)
	assert.Equal(t, "Dr. Emmy Noether", *entities.Departments[0].Head)
}

func TestExtractEntitiesUnknownHeadIsNull(t *testing.T) {
	cfg := NewConfig(config.DepartmentDirectory{Departments: []config.Department{{Name: "Biology"}}})
	rec := validRecord()
	rec.Department = "Biology"

	entities := ExtractEntities([]models.NormalizedRecord{rec}, cfg)

	require.Len(t, entities.Departments, 1)
	assert.Nil(t, entities.Departments[0].Head)
}

func TestTransformEndToEnd(t *testing.T) {
	sink := &recordingSink{}
	rows := []models.RawRecord{
		registrationRow(2, map[string]string{"Department": "cs", "Course": "Algorithms", "Credits": "four", "EnrollmentDate": "2024-09-01"}),
		registrationRow(3, map[string]string{"Department": "Computer Science", "Course": "Algorithms", "Credits": "four", "EnrollmentDate": "2024-09-01"}),
	}

	result := Transform(rows, testConfig(), sink)

	assert.Equal(t, 1, result.Duplicates)
	assert.Empty(t, result.Rejected)
	require.Len(t, result.Entities.Departments, 1)
	assert.Equal(t, "Computer Science", result.Entities.Departments[0].Name)
	require.Len(t, result.Entities.Students, 1)
	assert.Equal(t, "a@x.com", result.Entities.Students[0].Email)
	require.Len(t, result.Entities.Courses, 1)
	assert.Equal(t, 4, *result.Entities.Courses[0].Credits)
	require.Len(t, result.Entities.Enrollments, 1)
	assert.Equal(t, "Algorithms", result.Entities.Enrollments[0].CourseName)

	normalized := sink.kinds(EventRecordsNormalized)
	require.Len(t, normalized, 1)
	assert.Equal(t, 1, normalized[0].Int(KeyCount))
}

func TestTransformRejectsRecordsWithoutStoppingBatch(t *testing.T) {
	sink := &recordingSink{}
	rows := []models.RawRecord{
		registrationRow(2, map[string]string{"Email": "ok@x.com"}),
		registrationRow(3, map[string]string{"Email": "bad@x.com", "Year": "grad"}),
		registrationRow(4, map[string]string{"Email": "nodept@x.com", "Department": ""}),
	}

	result := Transform(rows, testConfig(), sink)

	require.Len(t, result.Valid, 1)
	require.Len(t, result.Rejected, 2)
	assert.Equal(t, models.RowError{RowIndex: 3, Errors: []string{"Invalid year: grad"}}, result.Rejected[0])
	assert.Equal(t, models.RowError{RowIndex: 4, Errors: []string{"Missing department"}}, result.Rejected[1])
	assert.Equal(t, []string{"Invalid year: grad", "Missing department"}, result.RejectedMessages())

	rejected := sink.kinds(EventRecordRejected)
	require.Len(t, rejected, 2)
	assert.Equal(t, PhaseValidation, rejected[0].Phase)
}

func TestCollectorBuildsReport(t *testing.T) {
	collector := NewCollector("run-1", "csv")
	sink := MultiSink{collector, nil, NopSink{}}

	Emit(sink, PhaseExtract, EventRowsExtracted, "Extracted 3 rows", map[string]interface{}{KeyCount: 3})
	result := Transform([]models.RawRecord{
		registrationRow(2, nil),
		registrationRow(3, nil),
		registrationRow(4, map[string]string{"Email": "x@x.com", "Year": "grad"}),
	}, testConfig(), sink)
	Emit(sink, PhaseLoad, EventTableLoaded, "Inserted 1 students", map[string]interface{}{KeyTable: TableStudent, KeyCount: len(result.Entities.Students)})
	Emit(sink, PhaseWarn, EventEnrollmentSkipped, "Skipping enrollment", nil)

	report := collector.Finish(nil)

	assert.Equal(t, "run-1", report.RunID)
	assert.Equal(t, models.RunStatusSucceeded, report.Status)
	assert.Equal(t, 3, report.Summary.Extracted)
	assert.Equal(t, 1, report.Summary.DuplicatesRemoved)
	assert.Equal(t, 1, report.Summary.ValidationErrors)
	assert.Equal(t, 1, report.Summary.TransformedSuccessfully)
	assert.Equal(t, 1, report.Summary.EnrollmentsSkipped)
	assert.Equal(t, 1, report.Summary.Loaded.Students)
	require.Len(t, report.ValidationErrors, 1)
	assert.Equal(t, 4, report.ValidationErrors[0].RowIndex)
	assert.NotEmpty(t, report.Duration)
}

func TestEmitWithNilSink(t *testing.T) {
	assert.NotPanics(t, func() {
		Emit(nil, PhaseLoad, EventProgress, "nothing listens", nil)
		Transform([]models.RawRecord{registrationRow(2, nil)}, testConfig(), nil)
	})
}
