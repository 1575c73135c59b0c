package book

import (
	"testing"
)

func TestFailure_Message(t *testing.T) {
	tests := []struct {
		name    string
		failure Failure
		want    string
	}{
		{"http failure", FailureHTTP, "Book not found for ISBN 9780143127550"},
		{"missing data block", FailureNoData, "Book not found for ISBN 9780143127550"},
		{"extraction error", FailureExtract, "Error fetching details for ISBN 9780143127550"},
		{"full record", FailureNone, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.failure.Message("9780143127550"); got != tt.want {
				t.Errorf("Message() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFailure_String(t *testing.T) {
	tests := []struct {
		failure Failure
		want    string
	}{
		{FailureNone, "ok"},
		{FailureHTTP, "http_failure"},
		{FailureNoData, "no_data"},
		{FailureExtract, "extract_error"},
		{Failure(42), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.failure.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPlaceholder_Row(t *testing.T) {
	r := Placeholder("9780000000001", FailureHTTP)

	if !r.IsPlaceholder() {
		t.Error("Placeholder should report IsPlaceholder")
	}

	row := r.Row()
	if len(row) != len(Columns) {
		t.Fatalf("Row has %d cells, want %d", len(row), len(Columns))
	}
	if row[0] != "Book not found for ISBN 9780000000001" {
		t.Errorf("Title cell = %q", row[0])
	}
	for i, cell := range row[1:] {
		if cell != "" {
			t.Errorf("cell %d (%s) = %q, want empty", i+1, Columns[i+1], cell)
		}
	}
}

func TestRecord_Row(t *testing.T) {
	pages := 352
	r := Record{
		ISBN:          "9780143127550",
		Title:         "Foo",
		Authors:       []string{"Ann Author", "Bob Writer"},
		BookType:      "Paperback",
		RetailPrice:   "24.99",
		SalePrice:     "19.75",
		ISBN10:        "0143127551",
		PublishedDate: "2020-05-01",
		Publisher:     "Penguin",
		Pages:         &pages,
	}

	want := []string{
		"Foo", "Ann Author, Bob Writer", "Paperback", "24.99", "19.75",
		"0143127551", "2020-05-01", "Penguin", "352",
	}

	got := r.Row()
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Row()[%d] (%s) = %q, want %q", i, Columns[i], got[i], want[i])
		}
	}
	if r.IsPlaceholder() {
		t.Error("full record should not be a placeholder")
	}
}

func TestRecord_RowPagesText(t *testing.T) {
	r := Record{ISBN: "9780143127550", Title: "Foo", PagesText: "320 pages"}
	if got := r.Row()[8]; got != "320 pages" {
		t.Errorf("Row()[8] = %q, want %q", got, "320 pages")
	}

	n := 12
	r.Pages = &n
	if got := r.Row()[8]; got != "12" {
		t.Errorf("Row()[8] with Pages set = %q, want %q", got, "12")
	}
}

func TestValidISBN13(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"9780143127550", true},
		{"978014312755", false},
		{"97801431275500", false},
		{"978014312755X", false},
		{"", false},
		{" 978014312755", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ValidISBN13(tt.in); got != tt.want {
				t.Errorf("ValidISBN13(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
