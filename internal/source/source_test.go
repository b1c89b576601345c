package source

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"

	"github.com/noah-isme/registration-etl/internal/models"
	"github.com/noah-isme/registration-etl/pkg/config"
	appErrors "github.com/noah-isme/registration-etl/pkg/errors"
)

type fakeValues struct {
	values [][]interface{}
	err    error
}

func (f fakeValues) Values(ctx context.Context, spreadsheetID, readRange string) ([][]interface{}, error) {
	return f.values, f.err
}

func TestRowsToRecords(t *testing.T) {
	records, err := RowsToRecords([][]string{
		{"FirstName", "Email", "Credits", ""},
		{"Ada", "ada@example.com", "4", "ignored"},
		{"Alan"},
	})
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, 2, records[0].Row)
	assert.Equal(t, "ada@example.com", records[0].Get(models.ColumnEmail))
	assert.Equal(t, 3, records[1].Row)
	assert.Equal(t, "Alan", records[1].Get(models.ColumnFirstName))
	assert.Equal(t, "", records[1].Get(models.ColumnEmail))
}

func TestRowsToRecordsEmpty(t *testing.T) {
	_, err := RowsToRecords(nil)
	assert.ErrorIs(t, err, ErrNoData)

	_, err = RowsToRecords([][]string{{"FirstName", "Email"}})
	assert.ErrorIs(t, err, ErrHeaderOnly)
}

func TestSheetsSourceFetch(t *testing.T) {
	src := newSheetsSource(fakeValues{values: [][]interface{}{
		{"FirstName", "Year", "Credits", "PhoneNumber"},
		{"Ada", "Junior", float64(4), float64(9876543210)},
		{"Alan", nil},
	}}, config.SheetsConfig{SpreadsheetID: "sheet", Range: "Sheet1!A:L"})

	records, err := src.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "4", records[0].Get(models.ColumnCredits))
	assert.Equal(t, "9876543210", records[0].Get(models.ColumnPhoneNumber))
	assert.Equal(t, "", records[1].Get(models.ColumnYear))
	assert.Equal(t, "sheets", src.Name())
}

func TestSheetsSourceMapsAPIErrors(t *testing.T) {
	cases := map[int]string{
		http.StatusForbidden: "permission denied",
		http.StatusNotFound:  "sheet not found",
	}
	for code, want := range cases {
		src := newSheetsSource(fakeValues{err: &googleapi.Error{Code: code, Message: "nope"}}, config.SheetsConfig{SpreadsheetID: "sheet"})

		_, err := src.Fetch(context.Background())
		require.Error(t, err)
		assert.True(t, appErrors.IsRunScoped(err))
		assert.Contains(t, err.Error(), want)

		var apiErr *googleapi.Error
		assert.True(t, errors.As(err, &apiErr))
	}
}

func TestSheetsSourceEmptySheet(t *testing.T) {
	src := newSheetsSource(fakeValues{values: [][]interface{}{{"FirstName"}}}, config.SheetsConfig{SpreadsheetID: "sheet"})

	_, err := src.Fetch(context.Background())
	var extractErr *appErrors.ExtractionError
	require.ErrorAs(t, err, &extractErr)
	assert.ErrorIs(t, err, ErrHeaderOnly)
}

func TestNewSheetsSourceMissingKeyFile(t *testing.T) {
	_, err := NewSheetsSource(context.Background(), config.SheetsConfig{
		SpreadsheetID:   "sheet",
		CredentialsFile: filepath.Join(t.TempDir(), "missing.json"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "key file not found")
}

func TestReadCSVWithBOM(t *testing.T) {
	input := "\ufeffFirst Name,Email,Department\nAda,ada@example.com,\"Computer Science\"\nAlan,alan@example.com\n"

	records, err := ReadCSV(context.Background(), strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Ada", records[0].Get(models.ColumnFirstName))
	assert.Equal(t, "Computer Science", records[0].Get(models.ColumnDepartment))
	assert.Equal(t, "", records[1].Get(models.ColumnDepartment))
}

func TestCSVSourceFetch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registrations.csv")
	require.NoError(t, os.WriteFile(path, []byte("Email,Year\na@x.com,senior\n"), 0o600))

	records, err := NewCSVSource(path).Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "senior", records[0].Get(models.ColumnYear))

	_, err = NewCSVSource(filepath.Join(t.TempDir(), "missing.csv")).Fetch(context.Background())
	assert.True(t, appErrors.IsRunScoped(err))

	empty := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, os.WriteFile(empty, nil, 0o600))
	_, err = NewCSVSource(empty).Fetch(context.Background())
	assert.ErrorIs(t, err, ErrNoData)
}

func TestNewSourceSelection(t *testing.T) {
	cfg := &config.Config{ETL: config.ETLConfig{Source: config.SourceCSV, CSVPath: "data.csv"}}
	src, err := New(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "csv", src.Name())

	cfg.ETL.CSVPath = ""
	_, err = New(context.Background(), cfg)
	assert.Error(t, err)

	cfg.ETL.Source = "ftp"
	_, err = New(context.Background(), cfg)
	assert.Error(t, err)
}
