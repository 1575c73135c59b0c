package client

import (
	"bufio"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/transform"
)

// readBody returns the response body with every Content-Encoding removed
// and transcoded to UTF-8.
func readBody(resp *http.Response) ([]byte, error) {
	var r io.Reader = resp.Body
	var closers []io.Closer
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i].Close()
		}
	}()

	// Encodings are listed in the order they were applied.
	encodings := strings.Split(resp.Header.Get("Content-Encoding"), ",")
	for i := len(encodings) - 1; i >= 0; i-- {
		rc, err := decoder(strings.TrimSpace(encodings[i]), r)
		if err != nil {
			return nil, err
		}
		if rc != nil {
			closers = append(closers, rc)
			r = rc
		}
	}

	body, err := io.ReadAll(toUTF8(r, resp.Header.Get("Content-Type")))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

// toUTF8 transcodes r using the Content-Type charset, a BOM or a <meta>
// declaration. Undeclared pages are read as UTF-8 rather than windows-1252.
func toUTF8(r io.Reader, contentType string) io.Reader {
	br := bufio.NewReaderSize(r, 1024)
	peek, _ := br.Peek(1024)

	enc, name, certain := charset.DetermineEncoding(peek, contentType)
	if name == "utf-8" || (!certain && name == "windows-1252") {
		return br
	}
	return transform.NewReader(br, enc.NewDecoder())
}

// decoder wraps r for one content coding. A nil ReadCloser means identity.
func decoder(encoding string, r io.Reader) (io.ReadCloser, error) {
	switch strings.ToLower(encoding) {
	case "", "identity":
		return nil, nil
	case "gzip", "x-gzip":
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		return zr, nil
	case "deflate":
		return deflateReader(r)
	case "br":
		return io.NopCloser(brotli.NewReader(r)), nil
	case "zstd":
		zr, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		return zr.IOReadCloser(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedEncoding, encoding)
	}
}

// deflateReader accepts both zlib-wrapped and raw deflate streams; servers
// disagree on what "deflate" means.
func deflateReader(r io.Reader) (io.ReadCloser, error) {
	br := bufio.NewReader(r)
	header, err := br.Peek(2)
	if err == nil && isZlibHeader(header) {
		zr, err := zlib.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("zlib: %w", err)
		}
		return zr, nil
	}
	return flate.NewReader(br), nil
}

func isZlibHeader(b []byte) bool {
	return b[0]&0x0f == 8 && (uint16(b[0])<<8|uint16(b[1]))%31 == 0
}
