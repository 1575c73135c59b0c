// Package output writes book records as CSV.
package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Sternrassler/booktopia-scraper/pkg/book"
)

var recordsWritten = promauto.NewCounter(prometheus.CounterOpts{
	Name: "booktopia_records_written_total",
	Help: "Total records written to the output CSV",
})

// Write writes the header and one row per record, in slice order.
func Write(w io.Writer, records []book.Record) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(book.Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, rec := range records {
		if err := cw.Write(rec.Row()); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}

	recordsWritten.Add(float64(len(records)))
	return nil
}

// WriteFile creates or truncates path and writes records to it. The write
// is not atomic.
func WriteFile(path string, records []book.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}

	if err := Write(f, records); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}
	return nil
}
