package roster

import (
	"context"
	"fmt"
	"strconv"

	"github.com/pkg/errors"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetsSource - roster read from a Google Sheets range
type SheetsSource struct {
	values        *sheets.SpreadsheetsValuesService
	spreadsheetID string
	readRange     string
}

// NewSheetsSource - read-only Sheets client authenticated with a service account key file
func NewSheetsSource(ctx context.Context, credentialsFile, spreadsheetID, readRange string) (*SheetsSource, error) {
	return newSheetsSource(ctx, spreadsheetID, readRange,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(sheets.SpreadsheetsReadonlyScope),
	)
}

func newSheetsSource(ctx context.Context, spreadsheetID, readRange string, opts ...option.ClientOption) (*SheetsSource, error) {
	srv, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "create sheets service")
	}
	return &SheetsSource{
		values:        srv.Spreadsheets.Values,
		spreadsheetID: spreadsheetID,
		readRange:     readRange,
	}, nil
}

// Rows - fetch the range, fresh on every call
func (s *SheetsSource) Rows(ctx context.Context) ([]Row, error) {
	resp, err := s.values.Get(s.spreadsheetID, s.readRange).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", s.readRange)
	}
	return rowsFromValues(resp.Values), nil
}

// Sheets returns cells as JSON values; absent trailing cells are simply missing.
func rowsFromValues(values [][]interface{}) []Row {
	if len(values) == 0 {
		return nil
	}
	rows := make([]Row, 0, len(values))
	for _, v := range values {
		row := make(Row, len(v))
		for i, cell := range v {
			row[i] = cellString(cell)
		}
		rows = append(rows, row)
	}
	return rows
}

// cellString - cell text; numbers print in plain decimal so IDs stay comparable
func cellString(cell interface{}) string {
	switch v := cell.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}
