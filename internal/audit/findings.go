package audit

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/fetch"
)

// Severity ranks a finding.
type Severity string

// Finding severities
const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Finding codes
const (
	CodeMissingTitle       = "missing_title"
	CodeLongTitle          = "long_title"
	CodeMissingDescription = "missing_description"
	CodeLongDescription    = "long_description"
	CodeMissingH1          = "missing_h1"
	CodeMultipleH1         = "multiple_h1"
	CodeNoIndex            = "noindex"
	CodeCanonicalMismatch  = "canonical_mismatch"
	CodeThinContent        = "thin_content"
)

// Limits applied by Check.
const (
	MaxTitleLength       = 60
	MaxDescriptionLength = 160
	MinWordCount         = 300
)

// Finding is one problem detected on a page.
type Finding struct {
	Code     string   `json:"code"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// Check inspects page metadata and returns its findings in a fixed order.
func Check(meta *fetch.PageMetadata) []Finding {
	findings := []Finding{}
	add := func(code string, sev Severity, format string, args ...any) {
		findings = append(findings, Finding{Code: code, Severity: sev, Message: fmt.Sprintf(format, args...)})
	}

	switch n := len([]rune(meta.Title)); {
	case n == 0:
		add(CodeMissingTitle, SeverityError, "page has no <title>")
	case n > MaxTitleLength:
		add(CodeLongTitle, SeverityWarning, "title is %d characters, search results truncate after %d", n, MaxTitleLength)
	}

	switch n := len([]rune(meta.Description)); {
	case n == 0:
		add(CodeMissingDescription, SeverityWarning, "page has no meta description")
	case n > MaxDescriptionLength:
		add(CodeLongDescription, SeverityWarning, "meta description is %d characters, limit is %d", n, MaxDescriptionLength)
	}

	switch len(meta.Headings) {
	case 0:
		add(CodeMissingH1, SeverityWarning, "page has no <h1>")
	case 1:
	default:
		add(CodeMultipleH1, SeverityWarning, "page has %d <h1> elements", len(meta.Headings))
	}

	if meta.NoIndex {
		add(CodeNoIndex, SeverityError, "robots meta tag blocks indexing")
	}

	if meta.Canonical != "" && !sameURL(meta.Canonical, meta.URL) {
		add(CodeCanonicalMismatch, SeverityWarning, "canonical points to %s", meta.Canonical)
	}

	if meta.WordCount < MinWordCount {
		add(CodeThinContent, SeverityWarning, "main content has %d words", meta.WordCount)
	}

	return findings
}

// sameURL compares two URLs ignoring query, fragment, trailing slash and host case.
func sameURL(a, b string) bool {
	return normalizeURL(a) == normalizeURL(b)
}

func normalizeURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return raw
	}
	u.RawQuery = ""
	u.Fragment = ""
	u.Host = strings.ToLower(u.Host)
	u.Path = strings.TrimSuffix(u.Path, "/")
	return u.String()
}
