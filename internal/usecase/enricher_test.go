package usecase

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"GTMMonitor/internal/domain"
)

func TestSummarizeIdentityUnderLimit(t *testing.T) {
	t.Parallel()

	oracle := staticOracle("should never be called")
	e := NewEnricher(oracle, nil)
	post := samplePost("short text")

	got := e.Summarize(context.Background(), post, len(post.FullText))

	assert.Equal(t, post.FullText, got)
	assert.Zero(t, oracle.calls)
}

func TestSummarizeUsesOracleForLongText(t *testing.T) {
	t.Parallel()

	e := NewEnricher(staticOracle("  a tight summary  "), nil)
	post := samplePost(strings.Repeat("words about churn ", 30))

	got := e.Summarize(context.Background(), post, 50)

	assert.Equal(t, "a tight summary", got)
}

func TestSummarizeFallbackTruncates(t *testing.T) {
	t.Parallel()

	e := NewEnricher(failingOracle(), nil)
	post := samplePost(strings.Repeat("x", 300))

	got := e.Summarize(context.Background(), post, 100)

	assert.Len(t, got, 103)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Equal(t, post.FullText[:100], got[:100])
}

func TestSentimentParsesEmbeddedObject(t *testing.T) {
	t.Parallel()

	e := NewEnricher(staticOracle("Sure: {\"sentiment\": \"frustrated\", \"sentiment_level\": 7}"), nil)

	got := e.Sentiment(context.Background(), samplePost("everything is broken"))

	assert.Equal(t, "frustrated", got.Label)
	assert.Equal(t, 7.0, got.Level)
}

func TestSentimentFailureReturnsEmpty(t *testing.T) {
	t.Parallel()

	e := NewEnricher(failingOracle(), nil)

	got := e.Sentiment(context.Background(), samplePost("whatever"))

	assert.Equal(t, domain.Sentiment{}, got)
}

func TestSuggestEngagementPriorityIsRecomputedLocally(t *testing.T) {
	t.Parallel()

	// The oracle claims low priority; the 0.95 score must win.
	response := `{"comment_draft": "happy to help", "dm_draft": "", "strategy": "be useful", "priority": "low"}`
	e := NewEnricher(staticOracle(response), nil)

	got := e.SuggestEngagement(context.Background(), samplePost("question"), domain.Classification{
		RelevanceScore: 0.95,
		Intent:         domain.IntentQuestion,
	})

	assert.Equal(t, domain.PriorityHigh, got.Priority)
	assert.Equal(t, "happy to help", got.CommentDraft)
	assert.Equal(t, "be useful", got.Strategy)
}

func TestEngagementPriorityTiers(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name           string
		classification domain.Classification
		want           domain.Priority
	}{
		{"score at 0.9", domain.Classification{RelevanceScore: 0.9}, domain.PriorityHigh},
		{"vendor search at low score", domain.Classification{RelevanceScore: 0.3, Intent: domain.IntentVendorSearch}, domain.PriorityHigh},
		{"advice seeking at low score", domain.Classification{RelevanceScore: 0.1, Intent: domain.IntentAdviceSeeking}, domain.PriorityHigh},
		{"score at 0.75", domain.Classification{RelevanceScore: 0.75, Intent: domain.IntentQuestion}, domain.PriorityMedium},
		{"low score general chatter", domain.Classification{RelevanceScore: 0.3, Intent: domain.IntentGeneralChatter}, domain.PriorityLow},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, EngagementPriority(tc.classification))
		})
	}
}

func TestSuggestEngagementFallbackOnOracleFailure(t *testing.T) {
	t.Parallel()

	e := NewEnricher(failingOracle(), nil)
	post := samplePost("body")
	post.Title = "Struggling with onboarding churn"

	got := e.SuggestEngagement(context.Background(), post, domain.Classification{RelevanceScore: 0.99})

	assert.Equal(t, domain.PriorityMedium, got.Priority)
	assert.Contains(t, got.CommentDraft, "Struggling")
	assert.Contains(t, got.DMDraft, post.Title)
	assert.NotEmpty(t, got.Strategy)
}

func TestEngagementStyleTable(t *testing.T) {
	t.Parallel()

	style, tone := engagementStyle(domain.IntentQuestion)
	assert.Equal(t, "helpful_comment", style)
	assert.Equal(t, "helpful and educational", tone)

	style, tone = engagementStyle(domain.IntentComplaint)
	assert.Equal(t, "empathetic_response", style)
	assert.Equal(t, "empathetic and solution-focused", tone)

	style, _ = engagementStyle(domain.IntentCaseStudy)
	assert.Equal(t, "value_add_comment", style)
}
