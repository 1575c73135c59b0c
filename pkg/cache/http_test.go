package cache

import (
	"net/http"
	"testing"
	"time"
)

func TestNewEntry(t *testing.T) {
	lastMod := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	resp := &http.Response{
		StatusCode: http.StatusOK,
		Header: http.Header{
			"Etag":          []string{`"abc123"`},
			"Last-Modified": []string{lastMod.Format(http.TimeFormat)},
			"Content-Type":  []string{"text/html; charset=utf-8"},
		},
	}

	entry, err := NewEntry(resp, []byte("<html></html>"), time.Hour)
	if err != nil {
		t.Fatalf("NewEntry() error = %v", err)
	}

	if string(entry.Data) != "<html></html>" {
		t.Errorf("Data = %q", entry.Data)
	}
	if entry.ETag != `"abc123"` {
		t.Errorf("ETag = %q", entry.ETag)
	}
	if !entry.LastModified.Equal(lastMod) {
		t.Errorf("LastModified = %v, want %v", entry.LastModified, lastMod)
	}
	if entry.ContentType != "text/html; charset=utf-8" {
		t.Errorf("ContentType = %q", entry.ContentType)
	}
	if ttl := entry.TTL(); ttl < 59*time.Minute || ttl > time.Hour {
		t.Errorf("TTL() = %v, want about 1h", ttl)
	}
}

func TestNewEntry_DefaultTTL(t *testing.T) {
	entry, err := NewEntry(&http.Response{StatusCode: 200, Header: http.Header{}}, nil, 0)
	if err != nil {
		t.Fatalf("NewEntry() error = %v", err)
	}
	if ttl := entry.TTL(); ttl < DefaultTTL-time.Minute {
		t.Errorf("TTL() = %v, want about %v", ttl, DefaultTTL)
	}
}

func TestNewEntry_NilResponse(t *testing.T) {
	if _, err := NewEntry(nil, nil, time.Hour); err == nil {
		t.Error("expected error for nil response")
	}
}

func TestShouldRevalidate(t *testing.T) {
	tests := []struct {
		name  string
		entry *Entry
		want  bool
	}{
		{"nil entry", nil, false},
		{"entry with ETag", &Entry{ETag: `"abc"`}, true},
		{"entry with Last-Modified", &Entry{LastModified: time.Now()}, true},
		{"entry without validators", &Entry{Data: []byte("x")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldRevalidate(tt.entry); got != tt.want {
				t.Errorf("ShouldRevalidate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAddConditionalHeaders(t *testing.T) {
	tests := []struct {
		name       string
		entry      *Entry
		wantHeader string
		wantValue  string
	}{
		{
			name:       "If-None-Match with ETag",
			entry:      &Entry{ETag: `"abc123"`},
			wantHeader: "If-None-Match",
			wantValue:  `"abc123"`,
		},
		{
			name:       "If-Modified-Since with Last-Modified",
			entry:      &Entry{LastModified: time.Date(2023, 1, 1, 12, 0, 0, 0, time.UTC)},
			wantHeader: "If-Modified-Since",
			wantValue:  "Sun, 01 Jan 2023 12:00:00 GMT",
		},
		{
			name: "prefer ETag over Last-Modified",
			entry: &Entry{
				ETag:         `"abc123"`,
				LastModified: time.Date(2023, 1, 1, 12, 0, 0, 0, time.UTC),
			},
			wantHeader: "If-None-Match",
			wantValue:  `"abc123"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest("GET", "https://www.booktopia.com.au/book/1.html", nil)
			AddConditionalHeaders(req, tt.entry)

			if got := req.Header.Get(tt.wantHeader); got != tt.wantValue {
				t.Errorf("Header %s = %q, want %q", tt.wantHeader, got, tt.wantValue)
			}
		})
	}
}

func TestAddConditionalHeaders_NilInputs(t *testing.T) {
	AddConditionalHeaders(nil, &Entry{ETag: "test"})
	AddConditionalHeaders(&http.Request{Header: http.Header{}}, nil)
}
