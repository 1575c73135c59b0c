package input

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ColumnName is the header of the identifier column.
const ColumnName = "ISBN13"

// ErrColumnNotFound is returned when the header has no ISBN13 column.
var ErrColumnNotFound = errors.New("column " + ColumnName + " not found")

const utf8BOM = "\ufeff"

// ReadISBNs reads identifiers from the CSV file at path.
func ReadISBNs(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	isbns, err := ParseISBNs(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return isbns, nil
}

// ParseISBNs returns the ISBN13 value of every data row in order.
// Duplicates are kept and rows too short to reach the column yield "".
func ParseISBNs(r io.Reader) ([]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty file", ErrColumnNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}

	col := -1
	for i, name := range header {
		if name == ColumnName {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, ErrColumnNotFound
	}

	var isbns []string
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(isbns)+2, err)
		}

		var isbn string
		if col < len(row) {
			isbn = row[col]
		}
		isbns = append(isbns, isbn)
	}

	return isbns, nil
}
