package client

import (
	"errors"
	"fmt"
)

// Extraction errors. They surface as Result.Err and are turned into the
// "Error fetching details" placeholder by the dispatcher.
var (
	// ErrNoNextData is returned when the page has no __NEXT_DATA__ script.
	ErrNoNextData = errors.New("no __NEXT_DATA__ script tag")

	// ErrMalformedJSON is returned when the data block is not valid JSON.
	ErrMalformedJSON = errors.New("malformed page data")

	// ErrMissingField is returned when a required key is absent.
	ErrMissingField = errors.New("missing field")

	// ErrUnexpectedType is returned when a value has the wrong JSON type.
	ErrUnexpectedType = errors.New("unexpected value type")

	// ErrBadDate is returned when publicationDate is not YYYY-MM-DD.
	ErrBadDate = errors.New("unparseable publication date")

	// ErrUnsupportedEncoding is returned for an unknown Content-Encoding.
	ErrUnsupportedEncoding = errors.New("unsupported content encoding")
)

// ErrorClass represents a classification of request failures.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx responses other than 429.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx responses.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassRateLimit represents 429 responses.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassNetwork represents transport, timeout and body decoding errors.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassUnexpected represents other non-2xx statuses (1xx, 3xx).
	ErrorClassUnexpected ErrorClass = "unexpected"
)

// HTTPError describes a request that did not produce a usable page.
type HTTPError struct {
	StatusCode int // 0 for transport errors
	Class      ErrorClass
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("booktopia %s error (status %d): %s: %v",
			e.Class, e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("booktopia %s error (status %d): %s",
		e.Class, e.StatusCode, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *HTTPError) Unwrap() error {
	return e.Err
}

// classifyStatus maps a non-2xx status code to an ErrorClass.
func classifyStatus(statusCode int) ErrorClass {
	switch {
	case statusCode == 429:
		return ErrorClassRateLimit
	case statusCode >= 400 && statusCode < 500:
		return ErrorClassClient
	case statusCode >= 500:
		return ErrorClassServer
	default:
		return ErrorClassUnexpected
	}
}
