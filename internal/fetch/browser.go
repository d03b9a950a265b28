package fetch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/logger"
)

// MinContentLength is the minimum extracted text length to consider an HTTP fetch complete.
// Shorter pages are likely rendered client side.
const MinContentLength = 500

// DefaultBrowserTimeout bounds a single headless render.
const DefaultBrowserTimeout = 30 * time.Second

// ShouldUseBrowser reports whether the extracted text is too short,
// indicating the page is likely a JavaScript-rendered SPA.
func ShouldUseBrowser(extractedText string) bool {
	return len(strings.TrimSpace(extractedText)) < MinContentLength
}

// WithBrowser renders a page in headless Chrome and returns the rendered HTML.
// Requires Chrome or Chromium on the host.
func WithBrowser(ctx context.Context, url string, timeout time.Duration, log *zap.Logger) (string, error) {
	log = logger.OrNop(log)
	if timeout <= 0 {
		timeout = DefaultBrowserTimeout
	}
	log.Debug("starting headless browser", zap.String("url", url))

	allocCtx, cancel := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
		)...,
	)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, timeout)
	defer cancel()

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		// give client-side rendering time to populate the head tags
		chromedp.Sleep(2*time.Second),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", fmt.Errorf("browser rendering failed: %w", err)
	}

	log.Debug("rendered page", zap.String("url", url), zap.Int("bytes", len(html)))
	return html, nil
}
