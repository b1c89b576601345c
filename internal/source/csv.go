package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/noah-isme/registration-etl/internal/models"
	appErrors "github.com/noah-isme/registration-etl/pkg/errors"
)

const csvSourceName = "csv"

// CSVSource reads a sheet export from disk. UTF-8 and UTF-16 files with a byte
// order mark are both accepted.
type CSVSource struct {
	path string
}

// NewCSVSource returns a source for path.
func NewCSVSource(path string) *CSVSource {
	return &CSVSource{path: path}
}

// Name implements Source.
func (s *CSVSource) Name() string { return csvSourceName }

// Fetch implements Source.
func (s *CSVSource) Fetch(ctx context.Context) ([]models.RawRecord, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, &appErrors.ExtractionError{Source: csvSourceName, Err: fmt.Errorf("open %s: %w", s.path, err)}
	}
	defer f.Close()

	records, err := ReadCSV(ctx, f)
	if err != nil {
		return nil, &appErrors.ExtractionError{Source: csvSourceName, Err: err}
	}
	return records, nil
}

// ReadCSV parses a header row followed by data rows.
func ReadCSV(ctx context.Context, r io.Reader) ([]models.RawRecord, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	reader := csv.NewReader(decoded)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var rows [][]string
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		rows = append(rows, row)
	}
	return RowsToRecords(rows)
}
