package input

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/net/html"

	"github.com/Sternrassler/booktopia-scraper/pkg/logging"
)

// DefaultURL is the shared input list on Google Drive.
const DefaultURL = "https://drive.google.com/uc?id=1u4f-SSnZsgleZCK0533EC5VJauoFHjuM"

// maxConfirmPage bounds how much of an HTML response is buffered while
// looking for a confirmation form.
const maxConfirmPage = 1 << 20

// Downloader fetches a remote file to a local path.
type Downloader struct {
	httpClient *http.Client
	userAgent  string
	logger     zerolog.Logger
}

// NewDownloader creates a downloader. A zero timeout disables the timeout.
func NewDownloader(timeout time.Duration, userAgent string) *Downloader {
	return &Downloader{
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  userAgent,
		logger:     logging.NewLogger("downloader"),
	}
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (d *Downloader) SetHTTPClient(client *http.Client) {
	d.httpClient = client
}

// Download GETs rawURL and writes the body to path, replacing any existing
// file. A Drive confirmation page is followed once.
func (d *Downloader) Download(ctx context.Context, rawURL, path string) error {
	d.logger.Info().Str("url", rawURL).Str("path", path).Msg("Downloading input list")

	resp, err := d.get(ctx, rawURL)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body := io.Reader(resp.Body)
	if isHTML(resp) {
		page, err := io.ReadAll(io.LimitReader(resp.Body, maxConfirmPage))
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}

		next, ok, err := confirmURL(resp.Request.URL, page)
		if err != nil {
			return err
		}
		if ok {
			d.logger.Debug().Str("url", next.String()).Msg("Following download confirmation")
			confirmed, err := d.get(ctx, next.String())
			if err != nil {
				return err
			}
			defer confirmed.Body.Close()
			body = confirmed.Body
		} else {
			body = io.MultiReader(bytes.NewReader(page), resp.Body)
		}
	}

	return writeFile(path, body)
}

func (d *Downloader) get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if d.userAgent != "" {
		req.Header.Set("User-Agent", d.userAgent)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", rawURL, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("download %s: unexpected status %s", rawURL, resp.Status)
	}
	return resp, nil
}

func writeFile(path string, r io.Reader) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

func isHTML(resp *http.Response) bool {
	mediaType, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	return err == nil && mediaType == "text/html"
}

// confirmURL finds the Drive confirmation target in page: the form with
// id="download-form" and its hidden inputs, or the older
// id="uc-download-link" anchor. ok is false when page is neither.
func confirmURL(base *url.URL, page []byte) (*url.URL, bool, error) {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return nil, false, fmt.Errorf("parse confirmation page: %w", err)
	}

	if form := findByID(doc, "form", "download-form"); form != nil {
		action, err := base.Parse(attr(form, "action"))
		if err != nil {
			return nil, false, fmt.Errorf("form action: %w", err)
		}
		query := action.Query()
		for _, in := range hiddenInputs(form) {
			query.Set(attr(in, "name"), attr(in, "value"))
		}
		action.RawQuery = query.Encode()
		return action, true, nil
	}

	if link := findByID(doc, "a", "uc-download-link"); link != nil {
		href, err := base.Parse(attr(link, "href"))
		if err != nil {
			return nil, false, fmt.Errorf("download link: %w", err)
		}
		return href, true, nil
	}

	return nil, false, nil
}

func findByID(n *html.Node, tag, id string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag && attr(n, "id") == id {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByID(c, tag, id); found != nil {
			return found
		}
	}
	return nil
}

func hiddenInputs(n *html.Node) []*html.Node {
	var inputs []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "input" &&
			attr(n, "type") == "hidden" && attr(n, "name") != "" {
			inputs = append(inputs, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return inputs
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
