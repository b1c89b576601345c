package service

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/registration-etl/internal/models"
	"github.com/noah-isme/registration-etl/pkg/export"
)

// Report formats accepted in ETL_REPORT_FORMATS. The JSON report is always written.
const (
	ReportFormatJSON = "json"
	ReportFormatCSV  = "csv"
	ReportFormatPDF  = "pdf"
)

type reportStorage interface {
	Save(filename string, data []byte) (string, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// ReportServiceConfig selects the extra formats and the retention window.
type ReportServiceConfig struct {
	Formats   []string
	Retention time.Duration
}

// ReportService persists run reports next to the rejected rows of the run.
type ReportService struct {
	store     reportStorage
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	formats   map[string]bool
	retention time.Duration
	logger    *zap.Logger
}

// NewReportService constructs the report writer.
func NewReportService(store reportStorage, cfg ReportServiceConfig, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	formats := map[string]bool{ReportFormatJSON: true}
	for _, f := range cfg.Formats {
		formats[strings.ToLower(strings.TrimSpace(f))] = true
	}
	return &ReportService{
		store:     store,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		formats:   formats,
		retention: cfg.Retention,
		logger:    logger,
	}
}

// Write stores the report and returns the names of the files it produced. The
// stored JSON lists the same names under files.
func (s *ReportService) Write(report models.RunReport) ([]string, error) {
	stamp := report.FinishedAt
	if stamp.IsZero() {
		stamp = time.Now().UTC()
	}
	ms := stamp.UnixMilli()

	jsonName := fmt.Sprintf("etl-report-%d.json", ms)
	type artefact struct {
		name   string
		render func() ([]byte, error)
	}
	var extras []artefact
	if s.formats[ReportFormatCSV] && len(report.ValidationErrors) > 0 {
		extras = append(extras, artefact{
			name:   fmt.Sprintf("etl-rejects-%d.csv", ms),
			render: func() ([]byte, error) { return s.csv.Render(rejectsDataset(report)) },
		})
	}
	if s.formats[ReportFormatPDF] {
		extras = append(extras, artefact{
			name:   fmt.Sprintf("etl-report-%d.pdf", ms),
			render: func() ([]byte, error) { return s.pdf.Render(summaryDataset(report), "ETL run report") },
		})
	}

	report.Files = []string{jsonName}
	for _, extra := range extras {
		report.Files = append(report.Files, extra.name)
	}

	payload, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode run report: %w", err)
	}
	written := make([]string, 0, len(report.Files))
	name, err := s.store.Save(jsonName, payload)
	if err != nil {
		return nil, err
	}
	written = append(written, name)

	for _, extra := range extras {
		data, err := extra.render()
		if err != nil {
			return written, fmt.Errorf("render %s: %w", extra.name, err)
		}
		name, err := s.store.Save(extra.name, data)
		if err != nil {
			return written, err
		}
		written = append(written, name)
	}

	s.prune()
	return written, nil
}

func (s *ReportService) prune() {
	if s.retention <= 0 {
		return
	}
	deleted, err := s.store.CleanupOlderThan(s.retention)
	if err != nil {
		s.logger.Warn("failed to prune old reports", zap.Error(err))
		return
	}
	if len(deleted) > 0 {
		s.logger.Info("pruned old reports", zap.Int("count", len(deleted)), zap.Duration("retention", s.retention))
	}
}

func rejectsDataset(report models.RunReport) export.Dataset {
	data := export.Dataset{Headers: []string{"rowIndex", "errors"}}
	for _, rowErr := range report.ValidationErrors {
		data.Rows = append(data.Rows, map[string]string{
			"rowIndex": strconv.Itoa(rowErr.RowIndex),
			"errors":   strings.Join(rowErr.Errors, "; "),
		})
	}
	return data
}

func summaryDataset(report models.RunReport) export.Dataset {
	summary := report.Summary
	counts := []struct {
		stage string
		count int
	}{
		{"Extracted", summary.Extracted},
		{"Duplicates removed", summary.DuplicatesRemoved},
		{"Validation errors", summary.ValidationErrors},
		{"Transformed successfully", summary.TransformedSuccessfully},
		{"Enrollments skipped", summary.EnrollmentsSkipped},
		{"Departments loaded", summary.Loaded.Departments},
		{"Students loaded", summary.Loaded.Students},
		{"Courses loaded", summary.Loaded.Courses},
		{"Enrollments loaded", summary.Loaded.Enrollments},
	}
	data := export.Dataset{
		Headers: []string{"Stage", "Count"},
		Notes: []export.Note{
			{Label: "Run", Value: report.RunID},
			{Label: "Status", Value: string(report.Status)},
			{Label: "Source", Value: report.Source},
			{Label: "Duration", Value: report.Duration},
		},
	}
	if report.Error != "" {
		data.Notes = append(data.Notes, export.Note{Label: "Error", Value: report.Error})
	}
	for _, c := range counts {
		data.Rows = append(data.Rows, map[string]string{"Stage": c.stage, "Count": strconv.Itoa(c.count)})
	}
	return data
}
