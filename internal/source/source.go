// Package source reads registration rows from upstream systems and turns them
// into RawRecords. Row identifiers follow spreadsheet numbering: the header is
// row 1 and the first data row is row 2.
package source

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/noah-isme/registration-etl/internal/models"
	"github.com/noah-isme/registration-etl/pkg/config"
	appErrors "github.com/noah-isme/registration-etl/pkg/errors"
)

// Source yields the ordered raw records of one run.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]models.RawRecord, error)
}

var (
	// ErrNoData means the source returned nothing at all.
	ErrNoData = errors.New("no data found in source")
	// ErrHeaderOnly means the source has a header row but no data rows.
	ErrHeaderOnly = errors.New("source has headers but no data rows")
)

// FirstDataRow is the row identifier of the first record after the header.
const FirstDataRow = 2

// RowsToRecords converts a header row plus data rows into RawRecords. Short rows
// are padded with empty cells and cells beyond the header are ignored.
func RowsToRecords(rows [][]string) ([]models.RawRecord, error) {
	if len(rows) == 0 {
		return nil, ErrNoData
	}
	if len(rows) < 2 {
		return nil, ErrHeaderOnly
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	records := make([]models.RawRecord, 0, len(rows)-1)
	for i, row := range rows[1:] {
		fields := make(map[string]string, len(headers))
		for col, header := range headers {
			if header == "" {
				continue
			}
			if col < len(row) {
				fields[header] = row[col]
			} else {
				fields[header] = ""
			}
		}
		records = append(records, models.NewRawRecord(i+FirstDataRow, fields))
	}
	return records, nil
}

// cellString renders a spreadsheet cell value. Numbers keep their shortest form
// so 4 stays "4" rather than "4.000000".
func cellString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}

// New builds the source selected by ETL_SOURCE.
func New(ctx context.Context, cfg *config.Config) (Source, error) {
	switch cfg.ETL.Source {
	case config.SourceCSV:
		if cfg.ETL.CSVPath == "" {
			return nil, &appErrors.ExtractionError{Source: config.SourceCSV, Err: errors.New("ETL_CSV_PATH is not set")}
		}
		return NewCSVSource(cfg.ETL.CSVPath), nil
	case config.SourceSheets, "":
		return NewSheetsSource(ctx, cfg.Sheets)
	default:
		return nil, fmt.Errorf("unknown ETL source %q", cfg.ETL.Source)
	}
}
