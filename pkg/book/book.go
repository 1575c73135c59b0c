// Package book defines the book record produced for every looked-up ISBN
// and the placeholder records that stand in for failed lookups.
package book

import (
	"fmt"
	"strconv"
	"strings"
)

// DateNotAvailable is written to the Published Date column when the product
// carries no publication date.
const DateNotAvailable = "Publication date not available"

// DateLayout is the canonical publication date layout (YYYY-MM-DD).
const DateLayout = "2006-01-02"

// Failure classifies why a lookup did not produce a full record.
type Failure int

const (
	// FailureNone marks a fully extracted record.
	FailureNone Failure = iota

	// FailureHTTP marks a transport error or a non-2xx response.
	FailureHTTP

	// FailureNoData marks a successful response without the embedded data block.
	FailureNoData

	// FailureExtract marks a data block that could not be turned into a record.
	FailureExtract
)

// String returns the label used in logs and metrics.
func (f Failure) String() string {
	switch f {
	case FailureNone:
		return "ok"
	case FailureHTTP:
		return "http_failure"
	case FailureNoData:
		return "no_data"
	case FailureExtract:
		return "extract_error"
	default:
		return "unknown"
	}
}

// Message returns the placeholder title for the failure.
// HTTP failures and missing data blocks share the same wording.
func (f Failure) Message(isbn string) string {
	switch f {
	case FailureHTTP, FailureNoData:
		return fmt.Sprintf("Book not found for ISBN %s", isbn)
	case FailureExtract:
		return fmt.Sprintf("Error fetching details for ISBN %s", isbn)
	default:
		return ""
	}
}

// Record is the metadata extracted for one ISBN.
// Empty strings and a nil Pages mean the field was absent.
type Record struct {
	// ISBN is the identifier the record was looked up with.
	ISBN string

	// Failure is FailureNone for full records.
	Failure Failure

	Title         string
	Authors       []string
	BookType      string
	RetailPrice   string // exact decimal literal from the product data
	SalePrice     string // exact decimal literal from the product data
	ISBN10        string
	PublishedDate string
	Publisher     string
	Pages         *int

	// PagesText holds numberOfPages verbatim when it is not an integer.
	PagesText string
}

// Placeholder returns a record holding only the failure title.
func Placeholder(isbn string, failure Failure) Record {
	return Record{
		ISBN:    isbn,
		Failure: failure,
		Title:   failure.Message(isbn),
	}
}

// IsPlaceholder reports whether r stands in for a failed lookup.
func (r Record) IsPlaceholder() bool {
	return r.Failure != FailureNone
}

// Columns is the fixed output header.
var Columns = []string{
	"Title of the Book",
	"Author/s",
	"Book type",
	"Original Price (RRP)",
	"Discounted price",
	"ISBN-10",
	"Published Date",
	"Publisher",
	"No. of Pages",
}

// Row renders the record as cells matching Columns.
func (r Record) Row() []string {
	pages := r.PagesText
	if r.Pages != nil {
		pages = strconv.Itoa(*r.Pages)
	}
	return []string{
		r.Title,
		strings.Join(r.Authors, ", "),
		r.BookType,
		r.RetailPrice,
		r.SalePrice,
		r.ISBN10,
		r.PublishedDate,
		r.Publisher,
		pages,
	}
}

// ValidISBN13 reports whether s has the shape of an ISBN-13: 13 ASCII digits.
// The check digit is not verified.
func ValidISBN13(s string) bool {
	if len(s) != 13 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
