package models

import "time"

// RunStatus represents the lifecycle of a batch run.
type RunStatus string

// Possible run statuses.
const (
	RunStatusQueued    RunStatus = "queued"
	RunStatusRunning   RunStatus = "running"
	RunStatusSucceeded RunStatus = "succeeded"
	RunStatusFailed    RunStatus = "failed"
)

// RowError lists the problems that excluded one row.
type RowError struct {
	RowIndex int      `json:"rowIndex"`
	Errors   []string `json:"errors"`
}

// LoadCounts holds inserted row counts per table.
type LoadCounts struct {
	Departments int `json:"departments"`
	Students    int `json:"students"`
	Courses     int `json:"courses"`
	Enrollments int `json:"enrollments"`
}

// RunSummary aggregates the counters of one run.
type RunSummary struct {
	Extracted               int        `json:"extracted"`
	DuplicatesRemoved       int        `json:"duplicatesRemoved"`
	ValidationErrors        int        `json:"validationErrors"`
	TransformedSuccessfully int        `json:"transformedSuccessfully"`
	EnrollmentsSkipped      int        `json:"enrollmentsSkipped"`
	Loaded                  LoadCounts `json:"loaded"`
}

// RunReport is the persisted outcome of a batch run.
type RunReport struct {
	RunID            string     `json:"runId"`
	Status           RunStatus  `json:"status"`
	Source           string     `json:"source,omitempty"`
	StartedAt        time.Time  `json:"startedAt"`
	FinishedAt       time.Time  `json:"timestamp"`
	Duration         string     `json:"duration"`
	Summary          RunSummary `json:"summary"`
	ValidationErrors []RowError `json:"validationErrors"`
	Error            string     `json:"error,omitempty"`
	Files            []string   `json:"files,omitempty"`
}

// RunState is the tracked state of an asynchronously queued run.
type RunState struct {
	RunID     string     `json:"run_id"`
	Status    RunStatus  `json:"status"`
	QueuedAt  time.Time  `json:"queued_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	Report    *RunReport `json:"report,omitempty"`
}
