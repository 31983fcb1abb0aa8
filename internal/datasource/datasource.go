// Package datasource fetches the bank listing page and the exchange-rate
// source, and extracts typed rows from them. It is the extract stage of the
// bankcap pipeline.
package datasource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DocumentSource yields the raw HTML document to extract from. Callers close
// the returned reader.
type DocumentSource interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// --- Sentinel errors ---

// ErrNoTable is returned when the document contains no table element.
var ErrNoTable = errors.New("no table element found")

// ErrHTTP wraps an HTTP error with status code.
type ErrHTTP struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *ErrHTTP) Error() string {
	return fmt.Sprintf("HTTP %d %s: %s", e.StatusCode, e.Status, e.Body)
}

// FetchError reports a failure to retrieve a remote document.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError reports a document or rate file that does not have the expected shape.
// Row is the 1-based data row index, or 0 when the error is not tied to a row.
type ParseError struct {
	Source string
	Row    int
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString("parse ")
	b.WriteString(e.Source)
	if e.Row > 0 {
		fmt.Fprintf(&b, " row %d", e.Row)
	}
	b.WriteString(": ")
	b.WriteString(e.Reason)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *ParseError) Unwrap() error { return e.Err }

// --- Shared HTTP client helpers ---

// DefaultUserAgent is the user agent string used for HTTP requests.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// DefaultTimeout bounds a single fetch when no client is supplied.
const DefaultTimeout = 30 * time.Second

// NewHTTPClient returns a client with the given timeout, or DefaultTimeout if zero.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// doGet performs a GET request with the given URL and headers, returning the response body.
// The caller is responsible for closing the returned ReadCloser.
func doGet(ctx context.Context, client *http.Client, url string, headers map[string]string) (io.ReadCloser, int, error) {
	if client == nil {
		client = NewHTTPClient(0)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}

	// Set default headers.
	req.Header.Set("User-Agent", DefaultUserAgent)
	req.Header.Set("Accept", "text/html, text/csv, */*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("HTTP GET %s: %w", url, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, resp.StatusCode, &ErrHTTP{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(body),
		}
	}

	return resp.Body, resp.StatusCode, nil
}

// FetchDocument downloads url. Any transport failure or non-2xx status is a *FetchError.
func FetchDocument(ctx context.Context, client *http.Client, url string) (io.ReadCloser, error) {
	body, _, err := doGet(ctx, client, url, map[string]string{
		"Accept": "text/html",
	})
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	return body, nil
}

// --- Document sources ---

// URLSource fetches the document over HTTP.
type URLSource struct {
	URL    string
	Client *http.Client
}

// Open implements DocumentSource.
func (s URLSource) Open(ctx context.Context) (io.ReadCloser, error) {
	return FetchDocument(ctx, s.Client, s.URL)
}

// StringSource serves already-fetched document text.
type StringSource string

// Open implements DocumentSource.
func (s StringSource) Open(_ context.Context) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(string(s))), nil
}
