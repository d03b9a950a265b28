package audit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/fetch"
	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/logger"
	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/types"
)

const (
	// MaxPagesLimit is the hard maximum number of pages fetched per audit
	MaxPagesLimit = 25
	// DefaultMaxPages applies when MaxPages is unset
	DefaultMaxPages = 10
	// DefaultRateLimitDelay is the delay between page requests
	DefaultRateLimitDelay = 1 * time.Second
)

// PageFetcher returns the HTML served at a URL.
type PageFetcher func(ctx context.Context, pageURL string) (string, error)

// Auditor fetches the landing pages of page insights and checks their markup.
type Auditor struct {
	// SiteURL resolves page insights whose name is a path rather than an absolute URL.
	SiteURL  string
	MaxPages int
	Delay    time.Duration
	// UseBrowser re-renders pages whose static HTML looks like an empty SPA shell.
	UseBrowser bool

	Fetch  PageFetcher
	Render PageFetcher
	Logger *zap.Logger
}

// PageReport is the audit result for one landing page.
type PageReport struct {
	InsightID   string              `json:"insight_id"`
	InsightName string              `json:"insight_name"`
	Score       float64             `json:"score"`
	URL         string              `json:"url"`
	Rendered    bool                `json:"rendered"`
	Hash        string              `json:"hash,omitempty"`
	Metadata    *fetch.PageMetadata `json:"metadata,omitempty"`
	Findings    []Finding           `json:"findings"`
	Error       string              `json:"error,omitempty"`
}

// Report collects the page reports of one audit in insight order.
type Report struct {
	AuditedAt time.Time    `json:"audited_at"`
	Pages     []PageReport `json:"pages"`
}

// Issues counts findings across all pages.
func (r *Report) Issues() int {
	n := 0
	for _, p := range r.Pages {
		n += len(p.Findings)
	}
	return n
}

// Run audits the page insights among insights. Non-page insights are ignored and
// duplicate URLs are fetched once. A page that cannot be fetched gets an Error on
// its report; only cancellation aborts the audit.
func (a *Auditor) Run(ctx context.Context, insights []types.QualifiedInsight) (*Report, error) {
	log := logger.OrNop(a.Logger)

	maxPages := a.MaxPages
	if maxPages > MaxPagesLimit {
		maxPages = MaxPagesLimit
	}
	if maxPages < 1 {
		maxPages = DefaultMaxPages
	}

	report := &Report{AuditedAt: time.Now().UTC(), Pages: []PageReport{}}
	visited := make(map[string]bool)

	for _, in := range insights {
		if in.Type != types.InsightPage {
			continue
		}
		if len(report.Pages) >= maxPages {
			break
		}

		page := PageReport{
			InsightID:   in.ID,
			InsightName: in.Name,
			Score:       in.Score,
			Findings:    []Finding{},
		}

		pageURL, err := resolvePage(a.SiteURL, in.Name)
		if err != nil {
			page.Error = err.Error()
			report.Pages = append(report.Pages, page)
			continue
		}
		if visited[pageURL] {
			continue
		}
		visited[pageURL] = true
		page.URL = pageURL

		if len(report.Pages) > 0 {
			if err := a.wait(ctx); err != nil {
				return nil, &AuditError{Message: "audit cancelled", Cause: err}
			}
		}

		a.auditPage(ctx, &page, log)
		if ctx.Err() != nil {
			return nil, &AuditError{Message: "audit cancelled", Cause: ctx.Err()}
		}
		report.Pages = append(report.Pages, page)
	}

	log.Info("landing page audit complete",
		zap.Int("pages", len(report.Pages)),
		zap.Int("issues", report.Issues()))
	return report, nil
}

func (a *Auditor) auditPage(ctx context.Context, page *PageReport, log *zap.Logger) {
	html, err := a.fetcher()(ctx, page.URL)
	if err != nil {
		log.Warn("failed to fetch landing page", zap.String("url", page.URL), zap.Error(err))
		page.Error = err.Error()
		return
	}

	if a.UseBrowser {
		text, _ := fetch.ExtractMainText(html, fetch.DefaultTextSelectors())
		if fetch.ShouldUseBrowser(text) {
			log.Debug("static HTML is sparse, rendering in browser", zap.String("url", page.URL))
			rendered, err := a.renderer(log)(ctx, page.URL)
			if err != nil {
				log.Warn("browser rendering failed, using static HTML", zap.String("url", page.URL), zap.Error(err))
			} else {
				html = rendered
				page.Rendered = true
			}
		}
	}

	meta, err := fetch.ExtractMetadata(html, page.URL)
	if err != nil {
		page.Error = err.Error()
		return
	}
	page.Metadata = meta
	page.Hash = computeHash(html)
	page.Findings = Check(meta)
}

func (a *Auditor) fetcher() PageFetcher {
	if a.Fetch != nil {
		return a.Fetch
	}
	return func(ctx context.Context, pageURL string) (string, error) {
		result, err := fetch.URL(ctx, pageURL, nil)
		if err != nil {
			return "", err
		}
		return result.HTML, nil
	}
}

func (a *Auditor) renderer(log *zap.Logger) PageFetcher {
	if a.Render != nil {
		return a.Render
	}
	return func(ctx context.Context, pageURL string) (string, error) {
		return fetch.WithBrowser(ctx, pageURL, fetch.DefaultBrowserTimeout, log)
	}
}

func (a *Auditor) wait(ctx context.Context) error {
	delay := a.Delay
	if delay < 0 {
		return ctx.Err()
	}
	if delay == 0 {
		delay = DefaultRateLimitDelay
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// resolvePage turns a page insight name into an absolute URL.
func resolvePage(siteURL, page string) (string, error) {
	page = strings.TrimSpace(page)
	u, err := url.Parse(page)
	if err == nil && u.Scheme != "" && u.Host != "" {
		return u.String(), nil
	}

	base, err := url.Parse(strings.TrimPrefix(siteURL, "sc-domain:"))
	if err != nil || siteURL == "" {
		return "", &AuditError{Message: "cannot resolve page " + page + " without a site URL"}
	}
	if base.Scheme == "" {
		// sc-domain properties carry only the host
		base = &url.URL{Scheme: "https", Host: base.Path}
	}
	ref, err := url.Parse(page)
	if err != nil {
		return "", &AuditError{Message: "invalid page " + page, Cause: err}
	}
	return base.ResolveReference(ref).String(), nil
}

func computeHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
