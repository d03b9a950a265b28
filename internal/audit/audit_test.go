package audit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/fetch"
	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/types"
)

const goodPage = `<html><head>
<title>CRM Pricing</title>
<meta name="description" content="Plans for growing teams.">
</head><body><main><h1>Pricing</h1><p>%s</p></main></body></html>`

func fullPage() string {
	return strings.Replace(goodPage, "%s", strings.Repeat("word ", MinWordCount), 1)
}

func pageInsight(id, name string) types.QualifiedInsight {
	return types.QualifiedInsight{ID: id, Type: types.InsightPage, Name: name, Score: 0.8}
}

func TestRun_AuditsPageInsightsOnly(t *testing.T) {
	var fetched []string
	a := &Auditor{
		Delay: -1,
		Fetch: func(_ context.Context, u string) (string, error) {
			fetched = append(fetched, u)
			return fullPage(), nil
		},
	}

	report, err := a.Run(context.Background(), []types.QualifiedInsight{
		{ID: "q1", Type: types.InsightQuery, Name: "crm pricing"},
		pageInsight("p1", "https://example.com/pricing"),
		pageInsight("p2", "https://example.com/pricing"),
		pageInsight("p3", "https://example.com/demo"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"https://example.com/pricing", "https://example.com/demo"}, fetched)
	require.Len(t, report.Pages, 2)
	assert.Equal(t, "p1", report.Pages[0].InsightID)
	assert.Equal(t, "p3", report.Pages[1].InsightID)
	assert.Empty(t, report.Pages[0].Findings)
	assert.Len(t, report.Pages[0].Hash, 64)
	assert.Equal(t, 0, report.Issues())
}

func TestRun_RecordsFetchFailures(t *testing.T) {
	a := &Auditor{
		Delay: -1,
		Fetch: func(_ context.Context, _ string) (string, error) {
			return "", errors.New("connection refused")
		},
	}

	report, err := a.Run(context.Background(), []types.QualifiedInsight{pageInsight("p1", "https://example.com/a")})
	require.NoError(t, err)
	require.Len(t, report.Pages, 1)
	assert.Contains(t, report.Pages[0].Error, "connection refused")
	assert.Nil(t, report.Pages[0].Metadata)
}

func TestRun_ResolvesRelativePages(t *testing.T) {
	var fetched string
	a := &Auditor{
		SiteURL: "sc-domain:example.com",
		Delay:   -1,
		Fetch: func(_ context.Context, u string) (string, error) {
			fetched = u
			return fullPage(), nil
		},
	}

	_, err := a.Run(context.Background(), []types.QualifiedInsight{pageInsight("p1", "/pricing")})
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/pricing", fetched)
}

func TestRun_UnresolvablePage(t *testing.T) {
	a := &Auditor{Delay: -1, Fetch: func(context.Context, string) (string, error) {
		t.Fatal("fetch should not be called")
		return "", nil
	}}

	report, err := a.Run(context.Background(), []types.QualifiedInsight{pageInsight("p1", "/pricing")})
	require.NoError(t, err)
	require.Len(t, report.Pages, 1)
	assert.Contains(t, report.Pages[0].Error, "without a site URL")
}

func TestRun_BrowserFallbackForSparsePages(t *testing.T) {
	a := &Auditor{
		Delay:      -1,
		UseBrowser: true,
		Fetch: func(context.Context, string) (string, error) {
			return `<html><body><div id="root"></div></body></html>`, nil
		},
		Render: func(context.Context, string) (string, error) {
			return fullPage(), nil
		},
	}

	report, err := a.Run(context.Background(), []types.QualifiedInsight{pageInsight("p1", "https://example.com/app")})
	require.NoError(t, err)
	require.Len(t, report.Pages, 1)
	assert.True(t, report.Pages[0].Rendered)
	assert.Equal(t, "CRM Pricing", report.Pages[0].Metadata.Title)
}

func TestRun_BrowserFailureKeepsStaticHTML(t *testing.T) {
	a := &Auditor{
		Delay:      -1,
		UseBrowser: true,
		Fetch: func(context.Context, string) (string, error) {
			return `<html><head><title>Shell</title></head><body></body></html>`, nil
		},
		Render: func(context.Context, string) (string, error) {
			return "", errors.New("chrome not found")
		},
	}

	report, err := a.Run(context.Background(), []types.QualifiedInsight{pageInsight("p1", "https://example.com/app")})
	require.NoError(t, err)
	assert.False(t, report.Pages[0].Rendered)
	assert.Equal(t, "Shell", report.Pages[0].Metadata.Title)
}

func TestRun_CapsPages(t *testing.T) {
	calls := 0
	a := &Auditor{MaxPages: 2, Delay: -1, Fetch: func(context.Context, string) (string, error) {
		calls++
		return fullPage(), nil
	}}

	_, err := a.Run(context.Background(), []types.QualifiedInsight{
		pageInsight("1", "https://example.com/1"),
		pageInsight("2", "https://example.com/2"),
		pageInsight("3", "https://example.com/3"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	a := &Auditor{Fetch: func(context.Context, string) (string, error) {
		cancel()
		return fullPage(), nil
	}}

	_, err := a.Run(ctx, []types.QualifiedInsight{
		pageInsight("1", "https://example.com/1"),
		pageInsight("2", "https://example.com/2"),
	})
	require.Error(t, err)
	var auditErr *AuditError
	require.ErrorAs(t, err, &auditErr)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_DefaultFetcherUsesHTTP(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(fullPage()))
	}))
	defer server.Close()

	a := &Auditor{Delay: -1}
	report, err := a.Run(context.Background(), []types.QualifiedInsight{pageInsight("p1", server.URL+"/pricing")})
	require.NoError(t, err)
	require.Len(t, report.Pages, 1)
	assert.Empty(t, report.Pages[0].Error)
	assert.Equal(t, "CRM Pricing", report.Pages[0].Metadata.Title)
}

func TestCheck(t *testing.T) {
	meta := &fetch.PageMetadata{
		URL:         "https://example.com/pricing",
		Title:       strings.Repeat("t", MaxTitleLength+1),
		Description: "",
		Canonical:   "https://example.com/plans",
		Headings:    []string{"One", "Two"},
		NoIndex:     true,
		WordCount:   10,
	}

	codes := []string{}
	for _, f := range Check(meta) {
		codes = append(codes, f.Code)
	}
	assert.Equal(t, []string{
		CodeLongTitle, CodeMissingDescription, CodeMultipleH1,
		CodeNoIndex, CodeCanonicalMismatch, CodeThinContent,
	}, codes)
}

func TestCheck_CanonicalIgnoresQueryAndSlash(t *testing.T) {
	meta := &fetch.PageMetadata{
		URL:         "https://Example.com/pricing/?utm_source=ads",
		Title:       "Pricing",
		Description: "Plans",
		Canonical:   "https://example.com/pricing",
		Headings:    []string{"Pricing"},
		WordCount:   MinWordCount,
	}
	assert.Empty(t, Check(meta))
}

func TestCheck_MissingTitleIsError(t *testing.T) {
	findings := Check(&fetch.PageMetadata{WordCount: MinWordCount, Description: "d", Headings: []string{"h"}})
	require.Len(t, findings, 1)
	assert.Equal(t, CodeMissingTitle, findings[0].Code)
	assert.Equal(t, SeverityError, findings[0].Severity)
}
