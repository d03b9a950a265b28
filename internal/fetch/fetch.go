// Package fetch retrieves landing pages over HTTP or a headless browser and
// extracts their text and metadata.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second
	// DefaultMaxBytes caps how much of a response body is read.
	DefaultMaxBytes int64 = 5 << 20
	// DefaultUserAgent is the user agent string for HTTP requests.
	DefaultUserAgent = "Mozilla/5.0 (compatible; DemandSynthesisAgent/1.0)"
)

// noiseSelectors match page chrome that never counts as landing-page content.
var noiseSelectors = []string{
	"nav", "footer", "header", "script", "style", "noscript", "iframe", "form",
	".ad", ".ads", ".advertisement", ".sidebar", ".cookie-banner", "#cookie-banner", ".popup", ".modal",
}

// Result is a fetched page.
type Result struct {
	URL string
	// FinalURL is where the request ended up after redirects.
	FinalURL    string
	HTML        string
	ContentType string
	StatusCode  int
}

// Redirected reports whether the page was served from another URL.
func (r *Result) Redirected() bool {
	return r.FinalURL != "" && r.FinalURL != r.URL
}

// Error represents an error during URL fetching.
type Error struct {
	URL     string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("fetch error for %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Options configures a fetch. Zero values fall back to the defaults.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	MaxBytes  int64
	// Client overrides the HTTP client built from Timeout.
	Client *http.Client
}

func (o *Options) withDefaults() Options {
	opts := Options{}
	if o != nil {
		opts = *o
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxBytes
	}
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: opts.Timeout}
	}
	return opts
}

// URL fetches an http(s) page. Non-200 responses return the Result together
// with an *Error; bodies that are not HTML or exceed MaxBytes are rejected.
func URL(ctx context.Context, pageURL string, o *Options) (*Result, error) {
	u, err := url.Parse(pageURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, &Error{URL: pageURL, Message: "invalid URL", Cause: err}
	}
	opts := o.withDefaults()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, &Error{URL: pageURL, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("User-Agent", opts.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := opts.Client.Do(req)
	if err != nil {
		return nil, &Error{URL: pageURL, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	result := &Result{
		URL:         pageURL,
		FinalURL:    resp.Request.URL.String(),
		ContentType: resp.Header.Get("Content-Type"),
		StatusCode:  resp.StatusCode,
	}

	// One extra byte tells a body of exactly MaxBytes from a longer one
	body, err := io.ReadAll(io.LimitReader(resp.Body, opts.MaxBytes+1))
	if err != nil {
		return nil, &Error{URL: pageURL, Message: "failed to read response body", Cause: err}
	}
	if int64(len(body)) > opts.MaxBytes {
		return nil, &Error{URL: pageURL, Message: fmt.Sprintf("response exceeds %d bytes", opts.MaxBytes)}
	}
	result.HTML = string(body)

	if resp.StatusCode != http.StatusOK {
		return result, &Error{URL: pageURL, Message: fmt.Sprintf("HTTP status %d", resp.StatusCode)}
	}
	if ct := strings.ToLower(result.ContentType); ct != "" && !strings.Contains(ct, "html") {
		return result, &Error{URL: pageURL, Message: "unsupported content type " + result.ContentType}
	}
	return result, nil
}

// ExtractMainText returns the visible text of the first element matching one
// of contentSelectors, or of the body when none match. Page chrome and any
// extraNoise selectors are removed first. Lines are trimmed and blank lines dropped.
func ExtractMainText(html string, contentSelectors []string, extraNoise ...string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find(strings.Join(append(append([]string{}, noiseSelectors...), extraNoise...), ", ")).Remove()

	content := doc.Find("body")
	for _, selector := range contentSelectors {
		if match := doc.Find(selector); match.Length() > 0 {
			content = match.First()
			break
		}
	}
	return cleanWhitespace(content.Text()), nil
}

// DefaultTextSelectors lists the containers landing pages usually keep their copy in.
func DefaultTextSelectors() []string {
	return []string{"main", "article", "[role=main]", ".content", "#content", ".main-content", "#main-content"}
}

func cleanWhitespace(text string) string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if fields := strings.Fields(line); len(fields) > 0 {
			lines = append(lines, strings.Join(fields, " "))
		}
	}
	return strings.Join(lines, "\n")
}
