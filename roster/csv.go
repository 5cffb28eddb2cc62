package roster

import (
	"context"
	"os"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"
)

// Student - a CSV roster record, columns A..D of the spreadsheet layout
type Student struct {
	ID      string `csv:"student_id"`
	Program string `csv:"program"`
	Name    string `csv:"full_name"`
	Email   string `csv:"email"`
}

// CSVSource - roster read from a local CSV file with a header line
type CSVSource struct {
	path string
}

// NewCSVSource - source reading path on every call
func NewCSVSource(path string) *CSVSource {
	return &CSVSource{path: path}
}

// Rows - parse the file
func (c *CSVSource) Rows(ctx context.Context) ([]Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(c.path)
	if err != nil {
		return nil, errors.Wrap(err, "open roster csv")
	}
	defer f.Close()

	var students []Student
	if err := gocsv.UnmarshalFile(f, &students); err != nil {
		if errors.Is(err, gocsv.ErrEmptyCSVFile) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "parse %s", c.path)
	}
	if len(students) == 0 {
		return nil, nil
	}

	rows := make([]Row, 0, len(students))
	for _, s := range students {
		rows = append(rows, Row{s.ID, s.Program, s.Name, s.Email})
	}
	return rows, nil
}
