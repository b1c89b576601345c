package etl

import (
	"sync"
	"time"

	"github.com/noah-isme/registration-etl/internal/models"
)

// Collector aggregates events into a RunReport.
type Collector struct {
	mu     sync.Mutex
	report models.RunReport
}

// NewCollector starts a report for runID.
func NewCollector(runID, source string) *Collector {
	return &Collector{report: models.RunReport{
		RunID:            runID,
		Status:           models.RunStatusRunning,
		Source:           source,
		StartedAt:        time.Now().UTC(),
		ValidationErrors: []models.RowError{},
	}}
}

// Emit implements EventSink.
func (c *Collector) Emit(e Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	summary := &c.report.Summary
	switch e.Kind {
	case EventRunStarted:
		if !e.Time.IsZero() {
			c.report.StartedAt = e.Time
		}
	case EventRowsExtracted:
		summary.Extracted = e.Int(KeyCount)
	case EventDuplicateDetected:
		summary.DuplicatesRemoved++
	case EventRecordRejected:
		summary.ValidationErrors++
		errs, _ := e.Context[KeyErrors].([]string)
		c.report.ValidationErrors = append(c.report.ValidationErrors, models.RowError{RowIndex: e.Int(KeyRow), Errors: errs})
	case EventRecordsNormalized:
		summary.TransformedSuccessfully = e.Int(KeyCount)
	case EventEnrollmentSkipped:
		summary.EnrollmentsSkipped++
	case EventTableLoaded:
		switch e.String(KeyTable) {
		case TableDepartment:
			summary.Loaded.Departments = e.Int(KeyCount)
		case TableStudent:
			summary.Loaded.Students = e.Int(KeyCount)
		case TableCourse:
			summary.Loaded.Courses = e.Int(KeyCount)
		case TableEnrollment:
			summary.Loaded.Enrollments = e.Int(KeyCount)
		}
	}
}

// Finish closes the report. A nil err marks the run succeeded.
func (c *Collector) Finish(err error) models.RunReport {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.report.FinishedAt = time.Now().UTC()
	c.report.Duration = c.report.FinishedAt.Sub(c.report.StartedAt).Round(time.Millisecond).String()
	if err != nil {
		c.report.Status = models.RunStatusFailed
		c.report.Error = err.Error()
	} else {
		c.report.Status = models.RunStatusSucceeded
	}

	report := c.report
	report.ValidationErrors = append([]models.RowError(nil), c.report.ValidationErrors...)
	if report.ValidationErrors == nil {
		report.ValidationErrors = []models.RowError{}
	}
	return report
}

// Table names reported by EventTableLoaded.
const (
	TableDepartment = "department"
	TableStudent    = "student"
	TableCourse     = "course"
	TableEnrollment = "enrollment"
)
