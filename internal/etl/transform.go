package etl

import (
	"fmt"

	"github.com/noah-isme/registration-etl/internal/models"
)

// TransformResult is the outcome of the transform stage.
type TransformResult struct {
	Entities   models.Entities
	Valid      []models.NormalizedRecord
	Rejected   []models.RowError
	Duplicates int
}

// Transform deduplicates, normalizes, validates and splits raw records. Record
// level problems are reported through sink and never stop the batch.
func Transform(records []models.RawRecord, cfg Config, sink EventSink) TransformResult {
	Emit(sink, PhaseTransform, EventProgress, "Starting transformation...", map[string]interface{}{KeyCount: len(records)})

	unique := Deduplicate(records, sink)
	result := TransformResult{Duplicates: len(records) - len(unique)}

	for _, raw := range unique {
		rec, err := Normalize(raw, cfg)
		if err != nil {
			result.reject(sink, raw.Row, []string{err.Error()})
			continue
		}
		if check := ValidateRecord(rec, cfg); !check.Valid {
			result.reject(sink, raw.Row, check.Errors)
			continue
		}
		result.Valid = append(result.Valid, rec)
	}

	Emit(sink, PhaseTransform, EventRecordsNormalized,
		fmt.Sprintf("%d records validated successfully", len(result.Valid)),
		map[string]interface{}{KeyCount: len(result.Valid)})

	result.Entities = ExtractEntities(result.Valid, cfg)
	Emit(sink, PhaseTransform, EventEntitiesExtracted,
		fmt.Sprintf("Extracted: %d departments, %d students, %d courses, %d enrollments",
			len(result.Entities.Departments),
			len(result.Entities.Students),
			len(result.Entities.Courses),
			len(result.Entities.Enrollments)),
		map[string]interface{}{
			"departments": len(result.Entities.Departments),
			"students":    len(result.Entities.Students),
			"courses":     len(result.Entities.Courses),
			"enrollments": len(result.Entities.Enrollments),
		})

	return result
}

func (r *TransformResult) reject(sink EventSink, row int, errs []string) {
	r.Rejected = append(r.Rejected, models.RowError{RowIndex: row, Errors: errs})
	Emit(sink, PhaseValidation, EventRecordRejected, fmt.Sprintf("Row %d failed validation", row), map[string]interface{}{
		KeyRow:    row,
		KeyErrors: errs,
	})
}

// RejectedMessages flattens the error lists of rejected rows.
func (r TransformResult) RejectedMessages() []string {
	var out []string
	for _, rowErr := range r.Rejected {
		out = append(out, rowErr.Errors...)
	}
	return out
}
