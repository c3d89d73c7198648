package usecase

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"GTMMonitor/internal/domain"
)

func scriptedOracle(relevantTitle string) *fakeOracle {
	return &fakeOracle{fn: func(prompt string) (string, error) {
		switch {
		case strings.Contains(prompt, "Analyze the following Reddit post"):
			if strings.Contains(prompt, relevantTitle) {
				return `{"relevance_score": 0.95, "is_relevant": true, "intent": "question", "intent_score": 0.9, "reasoning": "on topic"}`, nil
			}
			return `{"relevance_score": 0.05, "is_relevant": false, "intent": "general_chatter", "intent_score": 0.6, "reasoning": "off topic"}`, nil
		case strings.Contains(prompt, "growth marketing expert"):
			return `{"comment_draft": "try cohort analysis", "dm_draft": "", "strategy": "lead with value", "priority": "low"}`, nil
		case strings.Contains(prompt, "sentiment"):
			return `{"sentiment": "curious", "sentiment_level": 5}`, nil
		default:
			return "", fmt.Errorf("unexpected prompt: %s", prompt)
		}
	}}
}

func monitoredPost(id, title string) domain.Post {
	return domain.Post{
		ID:        id,
		Title:     title,
		Body:      "gtm talk",
		FullText:  title + "\n\ngtm talk",
		Subreddit: "startups",
	}
}

func newTestPipeline(source *fakeSource, oracle *fakeOracle, store *fakeStore, alert *fakeAlertSink, sheet *fakeSheetSink) *Pipeline {
	deps := PipelineDeps{
		Source:     source,
		Classifier: NewClassifier(oracle, []string{"gtm"}, 0.2, nil),
		Enricher:   NewEnricher(oracle, nil),
	}
	if store != nil {
		deps.Store = store
	}
	if alert != nil {
		deps.AlertSink = alert
	}
	if sheet != nil {
		deps.SheetSink = sheet
	}
	return NewPipeline(deps)
}

func TestRunEndToEnd(t *testing.T) {
	t.Parallel()

	source := &fakeSource{posts: []domain.Post{
		monitoredPost("p1", "Already seen post"),
		monitoredPost("p2", "How to fix our gtm motion"),
		monitoredPost("p3", "Unrelated musings"),
	}}
	store := newFakeStore()
	store.ids["p1"] = struct{}{}
	alert := &fakeAlertSink{}
	sheet := &fakeSheetSink{}

	p := newTestPipeline(source, scriptedOracle("How to fix our gtm motion"), store, alert, sheet)
	require.NoError(t, p.Seed(context.Background()))

	summary, err := p.Run(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, domain.RunSummary{
		TotalPosts:    3,
		NewPosts:      2,
		Processed:     1,
		RelevantPosts: 1,
		HighPriority:  1,
	}, summary)

	require.Len(t, store.records, 1)
	record := store.records[0]
	assert.Equal(t, "p2", record.Post.ID)
	assert.Equal(t, domain.PriorityHigh, record.Engagement.Priority)
	assert.Equal(t, "curious", record.Sentiment.Label)
	assert.Equal(t, record.Post.FullText, record.Summary)

	assert.Len(t, alert.notified, 1)
	assert.Equal(t, "p2", alert.notified[0].Post.ID)
	assert.Len(t, sheet.appended, 1)
}

func TestRunIsIdempotentAcrossPasses(t *testing.T) {
	t.Parallel()

	source := &fakeSource{posts: []domain.Post{
		monitoredPost("p1", "A gtm question"),
		monitoredPost("p2", "Another gtm question"),
	}}
	oracle := scriptedOracle("A gtm question")
	store := newFakeStore()

	p := newTestPipeline(source, oracle, store, nil, nil)

	first, err := p.Run(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 2, first.NewPosts)

	callsAfterFirst := oracle.calls

	second, err := p.Run(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 2, second.TotalPosts)
	assert.Equal(t, 0, second.NewPosts)
	assert.Equal(t, 0, second.Processed)
	assert.Equal(t, callsAfterFirst, oracle.calls, "short-circuit must not contact the oracle")
}

func TestRunMarksIrrelevantPostsSeen(t *testing.T) {
	t.Parallel()

	source := &fakeSource{posts: []domain.Post{monitoredPost("p1", "Nothing relevant")}}
	p := newTestPipeline(source, scriptedOracle("no match"), newFakeStore(), nil, nil)

	first, err := p.Run(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, first.NewPosts)
	assert.Equal(t, 0, first.Processed)

	second, err := p.Run(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 0, second.NewPosts)
}

func TestRunDrySkipsDurableWrites(t *testing.T) {
	t.Parallel()

	source := &fakeSource{posts: []domain.Post{monitoredPost("p1", "Urgent gtm vendor needed")}}
	store := newFakeStore()
	alert := &fakeAlertSink{}

	p := newTestPipeline(source, scriptedOracle("Urgent gtm vendor needed"), store, alert, nil)

	summary, err := p.Run(context.Background(), true)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.RelevantPosts)
	assert.Equal(t, 1, summary.HighPriority)
	assert.Zero(t, store.upserts)
	assert.Empty(t, alert.notified)
}

func TestRunFallbackClassificationFlowsDownstream(t *testing.T) {
	t.Parallel()

	// Oracle down entirely: the keyword fallback marks the post relevant and
	// enrichment falls back too, but the record is still produced.
	source := &fakeSource{posts: []domain.Post{monitoredPost("p1", "our gtm plan")}}
	store := newFakeStore()

	p := newTestPipeline(source, failingOracle(), store, nil, nil)

	summary, err := p.Run(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.RelevantPosts)
	require.Len(t, store.records, 1)
	assert.Equal(t, fallbackReasoning, store.records[0].Classification.Reasoning)
	assert.Equal(t, domain.PriorityMedium, store.records[0].Engagement.Priority)
}

func TestRunSurvivesDispatchFailures(t *testing.T) {
	t.Parallel()

	// Store, sheet and alert sink all fail; the summary is still returned and
	// every high-priority record is still offered to the alert sink.
	source := &fakeSource{posts: []domain.Post{
		monitoredPost("p1", "Need a gtm vendor now"),
		monitoredPost("p2", "Best gtm vendor shortlist"),
	}}
	store := newFakeStore()
	store.upsertErr = fmt.Errorf("db down")
	alert := &fakeAlertSink{notifyErr: fmt.Errorf("webhook down")}
	sheet := &fakeSheetSink{appendErr: fmt.Errorf("sheet down")}

	p := newTestPipeline(source, scriptedOracle("gtm vendor"), store, alert, sheet)

	summary, err := p.Run(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, domain.RunSummary{
		TotalPosts:    2,
		NewPosts:      2,
		Processed:     2,
		RelevantPosts: 2,
		HighPriority:  2,
	}, summary)

	assert.Equal(t, 1, store.upserts)
	assert.Len(t, sheet.appended, 1)
	assert.Len(t, alert.notified, 2, "a failed notify must not abort the remaining alerts")
}

func TestRunPacesEveryNewItem(t *testing.T) {
	t.Parallel()

	source := &fakeSource{posts: []domain.Post{
		monitoredPost("p1", "A gtm question"),
		monitoredPost("p2", "Unrelated musings"),
		monitoredPost("p3", "More chatter"),
	}}

	var sleeps []time.Duration
	p := NewPipeline(PipelineDeps{
		Source:      source,
		Classifier:  NewClassifier(scriptedOracle("A gtm question"), []string{"gtm"}, 0.2, nil),
		Enricher:    NewEnricher(nil, nil),
		Store:       newFakeStore(),
		PacingDelay: time.Second,
		Sleep:       func(d time.Duration) { sleeps = append(sleeps, d) },
	})

	summary, err := p.Run(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.NewPosts)
	assert.Equal(t, 1, summary.RelevantPosts)
	// The delay elapses once per new item whether or not it was relevant.
	require.Len(t, sleeps, 3)
	assert.Equal(t, time.Second, sleeps[0])
}

func TestRunSourceErrorPropagates(t *testing.T) {
	t.Parallel()

	source := &fakeSource{err: fmt.Errorf("feed down")}
	p := newTestPipeline(source, failingOracle(), nil, nil, nil)

	_, err := p.Run(context.Background(), false)
	assert.ErrorContains(t, err, "feed down")
}
