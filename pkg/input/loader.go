package input

import (
	"context"
	"fmt"

	"github.com/Sternrassler/booktopia-scraper/pkg/book"
	"github.com/Sternrassler/booktopia-scraper/pkg/logging"
)

// Loader downloads the input list and reads its identifiers.
type Loader struct {
	Downloader *Downloader
	URL        string
	Path       string

	// SkipDownload reads an existing file at Path.
	SkipDownload bool
}

// Load returns the identifiers in file order. Any error is fatal to a run.
func (l *Loader) Load(ctx context.Context) ([]string, error) {
	logger := logging.NewLogger("input")

	if !l.SkipDownload {
		if l.Downloader == nil {
			return nil, fmt.Errorf("downloader is required")
		}
		if err := l.Downloader.Download(ctx, l.URL, l.Path); err != nil {
			return nil, fmt.Errorf("download input: %w", err)
		}
	}

	isbns, err := ReadISBNs(l.Path)
	if err != nil {
		return nil, err
	}

	invalid := 0
	for i, isbn := range isbns {
		if !book.ValidISBN13(isbn) {
			invalid++
			logger.Warn().Int("row", i+2).Str("isbn", isbn).Msg("Identifier is not a 13-digit ISBN")
		}
	}

	logger.Info().
		Int("count", len(isbns)).
		Int("invalid", invalid).
		Str("path", l.Path).
		Msg("Loaded identifiers")

	return isbns, nil
}
