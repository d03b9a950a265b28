package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/config"
	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/ingestion"
	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/pipeline"
	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/server"
	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/synthesis"
	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/types"
)

const testBundle = "testdata/signals.json"
const testInsights = "testdata/insights.json"

func TestRunCommand_MissingHubSpotKey(t *testing.T) {
	clearEnv(t)

	_, err := executeCommand(t, "run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HUBSPOT_API_KEY is required")
}

func TestRunCommand_MissingPortalID(t *testing.T) {
	clearEnv(t)
	t.Setenv(config.EnvHubSpotAPIKey, "pat-na1-test")

	_, err := executeCommand(t, "run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HUBSPOT_PORTAL_ID is required")
}

func TestRunCommand_InvalidStore(t *testing.T) {
	clearEnv(t)

	_, err := executeCommand(t, "run", "--store", "s3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store_backend")
}

func TestEventsAndSeed_RequireCredentials(t *testing.T) {
	for _, name := range []string{"events", "seed"} {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			_, err := executeCommand(t, name)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "HUBSPOT_API_KEY is required")
		})
	}
}

func TestSynthesizeCommand_ReplaysBundle(t *testing.T) {
	clearEnv(t)

	out, err := executeCommand(t, "synthesize", "--bundle", testBundle)
	require.NoError(t, err)
	assert.Contains(t, out, "INGESTED SIGNALS")
	assert.Contains(t, out, "TOP INSIGHTS")
	assert.Contains(t, out, "Spring Promo")
	assert.NotContains(t, out, "Brand Awareness")
}

func TestSynthesizeCommand_WritesInsightsAndSnapshot(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	outDir := filepath.Join(dir, "out")
	snapDir := filepath.Join(dir, "snapshot")

	out, err := executeCommand(t, "synthesize", "--bundle", testBundle, "--out", outDir, "--snapshot", snapDir, "--stable-ids")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote 1 insights")

	insights, err := readInsights(filepath.Join(outDir, InsightsFile))
	require.NoError(t, err)
	require.Len(t, insights, 1)
	assert.Equal(t, types.InsightMessage, insights[0].Type)
	assert.Equal(t, "Spring Promo", insights[0].Name)
	assert.Equal(t, synthesis.StableIDs(synthesis.DefaultNamespace)(types.InsightMessage, "Spring Promo"), insights[0].ID)

	bundle, err := ingestion.LoadBundle(filepath.Join(snapDir, ingestion.SnapshotFile))
	require.NoError(t, err)
	assert.Len(t, bundle.Ads, 3)

	metaBytes, err := os.ReadFile(filepath.Join(snapDir, ingestion.SnapshotMetaFile))
	require.NoError(t, err)
	var meta ingestion.Metadata
	require.NoError(t, json.Unmarshal(metaBytes, &meta))
	assert.Equal(t, 3, meta.Counts.Ads)
	assert.Contains(t, meta.Sources, ingestion.SourceAds)
	assert.Contains(t, meta.Sources, ingestion.SourceAnalyticsEvents)
	assert.NotContains(t, meta.Sources, ingestion.SourceSearch)
}

func TestSynthesizeCommand_MissingBundle(t *testing.T) {
	clearEnv(t)

	_, err := executeCommand(t, "synthesize", "--bundle", filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file not found")
}

// failingCloser buffers writes and fails on Close, like a file whose final flush is lost.
type failingCloser struct {
	bytes.Buffer
}

func (f *failingCloser) Close() error {
	return errors.New("disk quota exceeded")
}

func TestWriteJSONFile_ReportsCloseError(t *testing.T) {
	original := createFile
	t.Cleanup(func() { createFile = original })
	w := &failingCloser{}
	createFile = func(string) (io.WriteCloser, error) { return w, nil }

	err := writeJSONFile(filepath.Join(t.TempDir(), InsightsFile), []string{"a"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk quota exceeded")
	assert.NotEmpty(t, w.String())
}

func TestWriteJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", InsightsFile)
	require.NoError(t, writeJSONFile(path, map[string]int{"total": 2}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"total": 2}`, string(data))
}

func TestAnalyzeCommand_Bundle(t *testing.T) {
	clearEnv(t)

	out, err := executeCommand(t, "analyze", "--bundle", testBundle)
	require.NoError(t, err)
	assert.Contains(t, out, "LIFECYCLE TRANSITIONS")
	assert.Contains(t, out, "lead → marketingqualifiedlead")
	assert.Contains(t, out, "TOP KEYWORDS")
	assert.Contains(t, out, "crm software")
	assert.Contains(t, out, "Ads ROI at 100.00 per conversion")
	assert.Contains(t, out, "Event patterns: 2")
	assert.NotContains(t, out, "High-performing search rows")
}

func TestValidateConfigCommand(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		clearEnv(t)
		path := writeConfigFile(t, `{"days_back": 14, "weights": {"ga4": 0.1, "lifecycle": 0.5, "search": 0.2, "ads": 0.2}}`)

		out, err := executeCommand(t, "validate-config", path)
		require.NoError(t, err)
		assert.Contains(t, out, "is valid")
		assert.Contains(t, out, "lifecycle 0.50")
		assert.Contains(t, out, "Store:      hubspot")
	})

	t.Run("schema violation", func(t *testing.T) {
		clearEnv(t)
		path := writeConfigFile(t, `{"store_backend": "s3"}`)

		_, err := executeCommand(t, "validate-config", path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "does not match schema")
	})

	t.Run("integration requires credentials", func(t *testing.T) {
		clearEnv(t)
		path := writeConfigFile(t, `{"hubspot_portal_id": "123"}`)

		_, err := executeCommand(t, "validate-config", "--integration", path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "HUBSPOT_API_KEY is required")

		t.Setenv(config.EnvHubSpotAPIKey, "pat-na1-test")
		_, err = executeCommand(t, "validate-config", "--integration", path)
		require.NoError(t, err)
	})

	t.Run("requires path", func(t *testing.T) {
		clearEnv(t)
		_, err := executeCommand(t, "validate-config")
		require.Error(t, err)
	})
}

func TestTokenCommand(t *testing.T) {
	clearEnv(t)
	t.Setenv(config.EnvJWTSecret, "test-secret-for-cli-tokens")

	out, err := executeCommand(t, "token", "--operator", "ops@example.com", "--scope", server.ScopeRun)
	require.NoError(t, err)

	svc := server.NewJWTService(&config.JWTConfig{
		Secret:          "test-secret-for-cli-tokens",
		ExpirationHours: 24,
		Issuer:          config.DefaultJWTIssuer,
	})
	claims, err := svc.ValidateToken(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "ops@example.com", claims.Subject)
	assert.True(t, claims.HasScope(server.ScopeRun))
}

func TestTokenCommand_Errors(t *testing.T) {
	t.Run("missing secret", func(t *testing.T) {
		clearEnv(t)
		_, err := executeCommand(t, "token", "--operator", "ops")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "JWT_SECRET is required")
	})

	t.Run("missing operator", func(t *testing.T) {
		clearEnv(t)
		t.Setenv(config.EnvJWTSecret, "secret")
		_, err := executeCommand(t, "token")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "operator")
	})
}

func TestServeCommand_RequiresJWTSecret(t *testing.T) {
	clearEnv(t)
	t.Setenv(config.EnvHubSpotAPIKey, "pat-na1-test")
	t.Setenv(config.EnvHubSpotPortalID, "123")

	_, err := executeCommand(t, "serve", "--port", "0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET is required")
}

func TestBriefCommand_RequiresAPIKey(t *testing.T) {
	clearEnv(t)

	_, err := executeCommand(t, "brief", "--insights", testInsights)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY is required")
}

func TestAuditCommand_Insights(t *testing.T) {
	clearEnv(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/pricing", r.URL.Path)
		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, `<html><head><title>Pricing</title></head>
			<body><main><h1>Plans and pricing</h1><p>Compare plans.</p></main></body></html>`)
	}))
	defer srv.Close()

	out, err := executeCommand(t, "audit", "--insights", testInsights, "--site-url", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "Audited 1 pages")
	assert.Contains(t, out, srv.URL+"/pricing")
	assert.Contains(t, out, "missing_description")
	assert.Contains(t, out, "thin_content")
	assert.NotContains(t, out, "Spring Promo")
}

func TestAuditCommand_WritesReport(t *testing.T) {
	clearEnv(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `<html><head><title>Pricing</title></head><body><h1>Pricing</h1></body></html>`)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "audit.json")
	_, err := executeCommand(t, "audit", "--insights", testInsights, "--site-url", srv.URL, "--out", path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var report struct {
		Pages []struct {
			InsightName string `json:"insight_name"`
			URL         string `json:"url"`
		} `json:"pages"`
	}
	require.NoError(t, json.Unmarshal(data, &report))
	require.Len(t, report.Pages, 1)
	assert.Equal(t, "/pricing", report.Pages[0].InsightName)
	assert.Equal(t, srv.URL+"/pricing", report.Pages[0].URL)
}

func TestObtainInsights_MutuallyExclusive(t *testing.T) {
	_, err := obtainInsights(t.Context(), &config.Config{}, insightInput{InsightsPath: testInsights, BundlePath: testBundle}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mutually exclusive")
}

func TestObtainInsights_FromBundle(t *testing.T) {
	insights, err := obtainInsights(t.Context(), &config.Config{}, insightInput{BundlePath: testBundle}, nil)
	require.NoError(t, err)
	require.Len(t, insights, 1)
	assert.Equal(t, "Spring Promo", insights[0].Name)
}

func TestReadInsights_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "insights.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0644))

	_, err := readInsights(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse insights file")
}

func TestPrintRunResult(t *testing.T) {
	result := &pipeline.RunResult{
		RunID: "run-1",
		Insights: []types.QualifiedInsight{
			{ID: "a", Type: types.InsightJourney, Name: "lead → customer", Score: 0.9},
		},
		EventsSynced: &types.SyncResult{Created: []string{"1"}, Updated: []string{}, Deleted: []string{"2", "3"}},
	}

	var quiet bytes.Buffer
	printRunResult(&quiet, result, 5, false)
	assert.Contains(t, quiet.String(), "Run ID: run-1")
	assert.Contains(t, quiet.String(), "Total insights: 1")
	assert.Contains(t, quiet.String(), "Events created: 1, updated: 0, deleted: 2")
	assert.Contains(t, quiet.String(), "lead → customer")
	assert.NotContains(t, quiet.String(), "EVENTS SYNCED")

	var verbose bytes.Buffer
	printRunResult(&verbose, result, 5, true)
	assert.Contains(t, verbose.String(), "EVENTS SYNCED")
}
