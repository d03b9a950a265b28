package fetch

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// PageMetadata is the marketing-relevant markup of a landing page.
type PageMetadata struct {
	URL         string            `json:"url"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Canonical   string            `json:"canonical,omitempty"`
	Headings    []string          `json:"headings,omitempty"`
	OpenGraph   map[string]string `json:"open_graph,omitempty"`
	NoIndex     bool              `json:"noindex"`
	WordCount   int               `json:"word_count"`
}

// ExtractMetadata parses html served from pageURL. Relative canonical links
// are resolved against pageURL.
func ExtractMetadata(html, pageURL string) (*PageMetadata, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	meta := &PageMetadata{
		URL:   pageURL,
		Title: strings.TrimSpace(doc.Find("head title").First().Text()),
	}

	doc.Find("meta").Each(func(_ int, s *goquery.Selection) {
		content, _ := s.Attr("content")
		content = strings.TrimSpace(content)
		if name, ok := s.Attr("name"); ok {
			switch strings.ToLower(name) {
			case "description":
				meta.Description = content
			case "robots":
				meta.NoIndex = strings.Contains(strings.ToLower(content), "noindex")
			}
		}
		if prop, ok := s.Attr("property"); ok && strings.HasPrefix(prop, "og:") {
			if meta.OpenGraph == nil {
				meta.OpenGraph = make(map[string]string)
			}
			meta.OpenGraph[strings.TrimPrefix(prop, "og:")] = content
		}
	})

	if href, ok := doc.Find(`link[rel="canonical"]`).First().Attr("href"); ok {
		meta.Canonical = resolveURL(pageURL, strings.TrimSpace(href))
	}

	doc.Find("h1").Each(func(_ int, s *goquery.Selection) {
		if text := strings.Join(strings.Fields(s.Text()), " "); text != "" {
			meta.Headings = append(meta.Headings, text)
		}
	})

	text, err := ExtractMainText(html, DefaultTextSelectors())
	if err != nil {
		return nil, err
	}
	meta.WordCount = len(strings.Fields(text))

	return meta, nil
}

func resolveURL(base, ref string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}
