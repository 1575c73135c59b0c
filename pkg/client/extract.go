package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/Sternrassler/booktopia-scraper/pkg/book"
)

// NextDataID is the element id of the Next.js page data script.
const NextDataID = "__NEXT_DATA__"

// FindNextData returns the text of the first <script id="__NEXT_DATA__">
// element in page, or ErrNoNextData.
func FindNextData(page []byte) ([]byte, error) {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	script := findScript(doc)
	if script == nil {
		return nil, ErrNoNextData
	}

	var buf bytes.Buffer
	for c := script.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			buf.WriteString(c.Data)
		}
	}
	return buf.Bytes(), nil
}

// findScript walks the tree depth first in document order.
func findScript(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == atom.Script {
		for _, a := range n.Attr {
			if a.Namespace == "" && a.Key == "id" && a.Val == NextDataID {
				return n
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findScript(c); found != nil {
			return found
		}
	}
	return nil
}

type object map[string]json.RawMessage

// ExtractRecord maps the product object of a __NEXT_DATA__ document to a
// full Record for isbn.
func ExtractRecord(isbn string, data []byte) (book.Record, error) {
	var root object
	if err := json.Unmarshal(data, &root); err != nil {
		return book.Record{}, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}

	product := root
	for _, key := range []string{"props", "pageProps", "product"} {
		next, err := child(product, key)
		if err != nil {
			return book.Record{}, err
		}
		product = next
	}

	rec := book.Record{ISBN: isbn, Failure: book.FailureNone}
	var err error

	rawTitle, ok := product["displayName"]
	if !ok {
		return book.Record{}, fmt.Errorf("%w: displayName", ErrMissingField)
	}
	if rec.Title, err = scalar(rawTitle); err != nil {
		return book.Record{}, fmt.Errorf("displayName: %w", err)
	}

	if rec.Authors, err = contributors(product); err != nil {
		return book.Record{}, err
	}

	optional := []struct {
		key string
		dst *string
	}{
		{"retailPrice", &rec.RetailPrice},
		{"salePrice", &rec.SalePrice},
		{"bindingFormat", &rec.BookType},
		{"isbn10", &rec.ISBN10},
		{"publisher", &rec.Publisher},
	}
	for _, f := range optional {
		var ok bool
		if *f.dst, ok = text(product[f.key]); !ok {
			warnOddType(isbn, f.key, *f.dst)
		}
	}

	if rec.PublishedDate, err = publicationDate(product["publicationDate"]); err != nil {
		return book.Record{}, err
	}

	if rec.Pages, rec.PagesText, ok = pages(product["numberOfPages"]); !ok {
		warnOddType(isbn, "numberOfPages", rec.PagesText)
	}

	return rec, nil
}

func child(obj object, key string) (object, error) {
	raw, ok := obj[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingField, key)
	}
	var next object
	if err := json.Unmarshal(raw, &next); err != nil || next == nil {
		return nil, fmt.Errorf("%w: %s is not an object", ErrUnexpectedType, key)
	}
	return next, nil
}

func contributors(product object) ([]string, error) {
	raw, ok := product["contributors"]
	if !ok {
		return nil, fmt.Errorf("%w: contributors", ErrMissingField)
	}

	var list []object
	if err := json.Unmarshal(raw, &list); err != nil || list == nil {
		return nil, fmt.Errorf("%w: contributors is not a list of objects", ErrUnexpectedType)
	}

	authors := make([]string, 0, len(list))
	for i, c := range list {
		rawName, ok := c["name"]
		if !ok {
			return nil, fmt.Errorf("%w: contributors[%d].name", ErrMissingField, i)
		}
		var name string
		if err := json.Unmarshal(rawName, &name); err != nil || isNull(rawName) {
			return nil, fmt.Errorf("%w: contributors[%d].name is not a string", ErrUnexpectedType, i)
		}
		authors = append(authors, name)
	}
	return authors, nil
}

// scalar renders a JSON string, number or boolean. Numbers keep their exact
// literal. Absent and null values are empty.
func scalar(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || isNull(raw) {
		return "", nil
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", fmt.Errorf("%w: %v", ErrUnexpectedType, err)
		}
		return s, nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return "", fmt.Errorf("%w: %v", ErrUnexpectedType, err)
		}
		return strconv.FormatBool(b), nil
	case '{', '[':
		return "", fmt.Errorf("%w: got %c...%c", ErrUnexpectedType, raw[0], raw[len(raw)-1])
	default:
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return "", fmt.Errorf("%w: %v", ErrUnexpectedType, err)
		}
		return n.String(), nil
	}
}

// text renders an optional value. Objects and arrays come back as compact
// JSON with ok set to false.
func text(raw json.RawMessage) (s string, ok bool) {
	if s, err := scalar(raw); err == nil {
		return s, true
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(bytes.TrimSpace(raw)), false
	}
	return buf.String(), false
}

func warnOddType(isbn, key, value string) {
	log.Warn().
		Str("component", "booktopia-client").
		Str("isbn", isbn).
		Str("field", key).
		Str("value", value).
		Msg("Unexpected value type for optional field, kept as text")
}

func publicationDate(raw json.RawMessage) (string, error) {
	s, err := scalar(raw)
	if err != nil {
		return "", fmt.Errorf("publicationDate: %w", err)
	}
	if s == "" {
		return book.DateNotAvailable, nil
	}

	// One- or two-digit month and day are accepted on input.
	t, err := time.Parse("2006-1-2", s)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrBadDate, s)
	}
	return t.Format(book.DateLayout), nil
}

// pages returns the page count, or the verbatim value with ok set to false
// when it is not an integer.
func pages(raw json.RawMessage) (n *int, literal string, ok bool) {
	s, ok := text(raw)
	if !ok {
		return nil, s, false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, "", true
	}

	if v, err := strconv.Atoi(s); err == nil {
		return &v, "", true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return nil, s, false
	}
	v := int(f)
	return &v, "", true
}

func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}
