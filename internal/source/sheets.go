package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/noah-isme/registration-etl/internal/models"
	"github.com/noah-isme/registration-etl/pkg/config"
	appErrors "github.com/noah-isme/registration-etl/pkg/errors"
)

const sheetsSourceName = "sheets"

// valuesReader abstracts the Sheets values endpoint.
type valuesReader interface {
	Values(ctx context.Context, spreadsheetID, readRange string) ([][]interface{}, error)
}

type sheetsValues struct {
	svc *sheets.Service
}

func (s sheetsValues) Values(ctx context.Context, spreadsheetID, readRange string) ([][]interface{}, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(spreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

// SheetsSource reads a range of a Google spreadsheet with a service account.
type SheetsSource struct {
	reader        valuesReader
	spreadsheetID string
	readRange     string
}

// NewSheetsSource authenticates with the configured credentials file using the
// read-only spreadsheets scope.
func NewSheetsSource(ctx context.Context, cfg config.SheetsConfig) (*SheetsSource, error) {
	if cfg.SpreadsheetID == "" {
		return nil, &appErrors.ExtractionError{Source: sheetsSourceName, Err: errors.New("SHEETS_SPREADSHEET_ID is not set")}
	}

	opts := []option.ClientOption{option.WithScopes(sheets.SpreadsheetsReadonlyScope)}
	if cfg.CredentialsFile != "" {
		if _, err := os.Stat(cfg.CredentialsFile); err != nil {
			return nil, &appErrors.ExtractionError{
				Source: sheetsSourceName,
				Err:    fmt.Errorf("key file not found: %s: %w", cfg.CredentialsFile, err),
			}
		}
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, &appErrors.ExtractionError{Source: sheetsSourceName, Err: fmt.Errorf("create sheets client: %w", err)}
	}

	return newSheetsSource(sheetsValues{svc: svc}, cfg), nil
}

func newSheetsSource(reader valuesReader, cfg config.SheetsConfig) *SheetsSource {
	return &SheetsSource{reader: reader, spreadsheetID: cfg.SpreadsheetID, readRange: cfg.Range}
}

// Name implements Source.
func (s *SheetsSource) Name() string { return sheetsSourceName }

// Fetch reads the configured range. The first row is the header.
func (s *SheetsSource) Fetch(ctx context.Context) ([]models.RawRecord, error) {
	values, err := s.reader.Values(ctx, s.spreadsheetID, s.readRange)
	if err != nil {
		return nil, &appErrors.ExtractionError{Source: sheetsSourceName, Err: describeSheetsError(err)}
	}

	rows := make([][]string, len(values))
	for i, row := range values {
		cells := make([]string, len(row))
		for j, cell := range row {
			cells[j] = cellString(cell)
		}
		rows[i] = cells
	}

	records, err := RowsToRecords(rows)
	if err != nil {
		return nil, &appErrors.ExtractionError{Source: sheetsSourceName, Err: err}
	}
	return records, nil
}

func describeSheetsError(err error) error {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	switch apiErr.Code {
	case http.StatusForbidden:
		return fmt.Errorf("permission denied, share the sheet with the service account: %w", err)
	case http.StatusNotFound:
		return fmt.Errorf("sheet not found, check SHEETS_SPREADSHEET_ID: %w", err)
	default:
		return err
	}
}
