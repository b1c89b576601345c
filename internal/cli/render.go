package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/noah-isme/registration-etl/internal/models"
	"github.com/noah-isme/registration-etl/pkg/config"
)

// maxRejectedRows caps the rejected rows printed to the console; the report
// file keeps all of them.
const maxRejectedRows = 20

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	return t
}

func renderRunReport(w io.Writer, report models.RunReport) {
	s := report.Summary

	t := newTable(w)
	t.SetTitle("ETL SUMMARY")
	t.AppendHeader(table.Row{"Metric", "Value"})
	t.AppendRows([]table.Row{
		{"Run", report.RunID},
		{"Status", strings.ToUpper(string(report.Status))},
		{"Duration", report.Duration},
		{"Extracted", s.Extracted},
		{"Duplicates removed", s.DuplicatesRemoved},
		{"Validation errors", s.ValidationErrors},
		{"Transformed successfully", s.TransformedSuccessfully},
		{"Enrollments skipped", s.EnrollmentsSkipped},
	})
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"Departments loaded", s.Loaded.Departments},
		{"Students loaded", s.Loaded.Students},
		{"Courses loaded", s.Loaded.Courses},
		{"Enrollments loaded", s.Loaded.Enrollments},
	})
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}})
	t.Render()

	if len(report.ValidationErrors) > 0 {
		rejected := newTable(w)
		rejected.SetTitle("REJECTED ROWS")
		rejected.AppendHeader(table.Row{"Row", "Errors"})
		for i, rowErr := range report.ValidationErrors {
			if i == maxRejectedRows {
				rejected.AppendFooter(table.Row{"", fmt.Sprintf("%d more in the report file", len(report.ValidationErrors)-maxRejectedRows)})
				break
			}
			rejected.AppendRow(table.Row{rowErr.RowIndex, strings.Join(rowErr.Errors, "; ")})
		}
		rejected.Render()
	}

	if report.Error != "" {
		_, _ = fmt.Fprintf(w, "Error: %s\n", report.Error)
	}
	for _, file := range report.Files {
		_, _ = fmt.Fprintf(w, "Report: %s\n", file)
	}
}

func renderVerification(w io.Writer, report *models.VerificationReport) {
	counts := newTable(w)
	counts.SetTitle("TABLE COUNTS")
	counts.AppendHeader(table.Row{"Table", "Rows"})
	counts.AppendRows([]table.Row{
		{"department", report.Counts.Departments},
		{"student", report.Counts.Students},
		{"course", report.Counts.Courses},
		{"enrollment", report.Counts.Enrollments},
	})
	counts.Render()

	if len(report.Departments) > 0 {
		depts := newTable(w)
		depts.SetTitle("STUDENTS PER DEPARTMENT")
		depts.AppendHeader(table.Row{"Department", "Students"})
		for _, d := range report.Departments {
			depts.AppendRow(table.Row{d.Department, d.StudentCount})
		}
		depts.Render()
	}

	checks := newTable(w)
	checks.SetTitle("INTEGRITY CHECKS")
	checks.AppendHeader(table.Row{"Check", "Violations", "Result"})
	for _, c := range report.Checks {
		result := "PASS"
		if !c.Passed() {
			result = "FAIL"
		}
		checks.AppendRow(table.Row{c.Name, c.Violations, result})
	}
	checks.Render()
}

func renderDepartments(w io.Writer, dir config.DepartmentDirectory) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Department", "Head", "Aliases"})
	for _, d := range dir.Departments {
		head := d.Head
		if head == "" {
			head = "-"
		}
		t.AppendRow(table.Row{d.Name, head, strings.Join(d.Aliases, ", ")})
	}
	t.Render()
}
