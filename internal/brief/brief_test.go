package brief

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/llm"
	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/types"
)

type MockClient struct {
	mock.Mock
}

func (m *MockClient) GenerateContent(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	args := m.Called(ctx, prompt, tier)
	return args.String(0), args.Error(1)
}

func (m *MockClient) GenerateJSON(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	args := m.Called(ctx, prompt, tier)
	return args.String(0), args.Error(1)
}

func (m *MockClient) GetModel(_ llm.ModelTier) string {
	return "gemini-test"
}

func (m *MockClient) Close() error {
	return nil
}

func sampleInsights() []types.QualifiedInsight {
	return []types.QualifiedInsight{
		{
			ID: "q-1", Type: types.InsightQuery, Name: "crm pricing", Score: 0.9,
			Metrics:         types.InsightMetrics{TotalImpressions: 5000, TotalClicks: 250, AvgPosition: types.Float(3.2)},
			Recommendations: []string{"Create webinar on this topic"},
		},
		{
			ID: "j-1", Type: types.InsightJourney, Name: "lead → mql", Score: 0.7,
			Metrics: types.InsightMetrics{TotalConversions: 12},
		},
		{
			ID: "p-1", Type: types.InsightPage, Name: "https://example.com/pricing", Score: 0.4,
		},
	}
}

func TestGenerate(t *testing.T) {
	client := new(MockClient)
	reply := "```json\n" + `{
		"headline": "Pricing searches lead demand",
		"summary": "Search interest in CRM pricing is strong.",
		"actions": [
			{"insight_id": "q-1", "action": "Run a pricing webinar"},
			{"insight_id": "unknown", "action": "Ignored"},
			{"insight_id": "p-1", "action": "Outside the top two"}
		]
	}` + "\n```"
	client.On("GenerateJSON", mock.Anything, mock.MatchedBy(func(p string) bool {
		return containsAll(p, "id=q-1", "id=j-1", "avg_position=3.2", "2024-01-01 to 2024-01-31") &&
			!strings.Contains(p, "id=p-1")
	}), llm.TierStandard).Return(reply, nil)

	b, err := Generate(context.Background(), client, sampleInsights(), Options{
		TopN: 2,
		DateRange: types.DateRange{
			Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Pricing searches lead demand", b.Headline)
	assert.Equal(t, []Action{{InsightID: "q-1", Action: "Run a pricing webinar"}}, b.Actions)
	assert.Equal(t, []string{"q-1", "j-1"}, b.InsightIDs)
	assert.Equal(t, "gemini-test", b.Model)
	assert.False(t, b.GeneratedAt.IsZero())
	client.AssertExpectations(t)
}

func TestGenerate_NoInsights(t *testing.T) {
	_, err := Generate(context.Background(), new(MockClient), nil, Options{})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "insights", vErr.Field)
}

func TestGenerate_ClientError(t *testing.T) {
	client := new(MockClient)
	client.On("GenerateJSON", mock.Anything, mock.Anything, llm.TierAdvanced).Return("", errors.New("quota exceeded"))

	_, err := Generate(context.Background(), client, sampleInsights(), Options{Tier: llm.TierAdvanced})
	var apiErr *APICallError
	require.ErrorAs(t, err, &apiErr)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestGenerate_InvalidJSON(t *testing.T) {
	client := new(MockClient)
	client.On("GenerateJSON", mock.Anything, mock.Anything, mock.Anything).Return("I cannot help with that", nil)

	_, err := Generate(context.Background(), client, sampleInsights(), Options{})
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestGenerate_MissingSummary(t *testing.T) {
	client := new(MockClient)
	client.On("GenerateJSON", mock.Anything, mock.Anything, mock.Anything).Return(`{"headline": "x", "summary": " "}`, nil)

	_, err := Generate(context.Background(), client, sampleInsights(), Options{})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "summary", vErr.Field)
}

func TestBuildPrompt_DefaultPeriod(t *testing.T) {
	p := buildPrompt(sampleInsights()[:1], types.DateRange{})
	assert.Contains(t, p, "the recent period")
	assert.Contains(t, p, `name="crm pricing"`)
	assert.Contains(t, p, "recommendations: Create webinar on this topic")
	assert.NotContains(t, p, "{{.")
}

func TestMarkdown(t *testing.T) {
	b := &Brief{
		Headline: "Pricing demand",
		Summary:  "Strong interest.",
		Actions:  []Action{{InsightID: "q-1", Action: "Run a webinar"}},
	}
	assert.Equal(t, "# Pricing demand\n\nStrong interest.\n\n## Next steps\n\n- Run a webinar (q-1)\n", b.Markdown())
	assert.Equal(t, "# H\n\nS\n", (&Brief{Headline: "H", Summary: "S"}).Markdown())
}

func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}
