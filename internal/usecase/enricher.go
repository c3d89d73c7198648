package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"GTMMonitor/internal/domain"
	"GTMMonitor/internal/llmjson"
	"GTMMonitor/internal/ports"
)

const (
	summarizeBodyLimit = 1500
	engageBodyLimit    = 1000

	// DefaultSummaryLength bounds generated summaries when the pipeline does
	// not override it.
	DefaultSummaryLength = 200
)

// Enricher produces the summary, sentiment and engagement suggestion for a
// relevant post. Each operation has its own deterministic fallback; none of
// them propagates an oracle failure to the caller.
type Enricher struct {
	oracle ports.Oracle
	logger *slog.Logger
}

// NewEnricher wires the oracle.
func NewEnricher(oracle ports.Oracle, logger *slog.Logger) *Enricher {
	return &Enricher{oracle: oracle, logger: logger}
}

// Summarize returns a summary of at most maxLength characters. Text that
// already fits is returned unchanged without contacting the oracle.
func (e *Enricher) Summarize(ctx context.Context, post domain.Post, maxLength int) string {
	text := post.FullText
	if len([]rune(text)) <= maxLength {
		return text
	}

	if e.oracle != nil {
		prompt := fmt.Sprintf("Summarize the following Reddit post in %d characters or less. Focus on the main question or topic: %s Summary:",
			maxLength, truncate(text, summarizeBodyLimit))

		raw, err := e.oracle.Generate(ctx, prompt)
		if err == nil {
			if summary := strings.TrimSpace(raw); summary != "" {
				return summary
			}
		} else {
			e.warn("summary generation failed", "post_id", post.ID, "error", err)
		}
	}

	return truncate(text, maxLength) + "..."
}

type sentimentPayload struct {
	Sentiment      string  `json:"sentiment"`
	SentimentLevel float64 `json:"sentiment_level"`
}

// Sentiment asks the oracle for a sentiment label and 0-10 level. Failures
// yield an empty result rather than an error.
func (e *Enricher) Sentiment(ctx context.Context, post domain.Post) domain.Sentiment {
	if e.oracle == nil {
		return domain.Sentiment{}
	}

	prompt := fmt.Sprintf("Find the sentiment and sentiment level [0-10] of this %s give it as json struct with keys \"sentiment\" and \"sentiment_level\"",
		truncate(post.FullText, summarizeBodyLimit))

	raw, err := e.oracle.Generate(ctx, prompt)
	if err != nil {
		e.warn("sentiment generation failed", "post_id", post.ID, "error", err)
		return domain.Sentiment{}
	}

	var payload sentimentPayload
	if err := llmjson.Unmarshal(strings.TrimSpace(raw), &payload); err != nil {
		e.warn("unparsable sentiment response", "post_id", post.ID, "error", err)
		return domain.Sentiment{}
	}

	return domain.Sentiment{Label: payload.Sentiment, Level: payload.SentimentLevel}
}

type engagementPayload struct {
	CommentDraft string `json:"comment_draft"`
	DMDraft      string `json:"dm_draft"`
	Strategy     string `json:"strategy"`
	Priority     string `json:"priority"`
}

// SuggestEngagement builds an outreach proposal whose style and tone follow
// the classified intent. The oracle may propose a priority but it is always
// recomputed locally from the classification.
func (e *Enricher) SuggestEngagement(ctx context.Context, post domain.Post, classification domain.Classification) domain.EngagementSuggestion {
	if e.oracle == nil {
		return e.fallbackSuggestion(post)
	}

	raw, err := e.oracle.Generate(ctx, e.buildEngagementPrompt(post, classification))
	if err != nil {
		e.warn("engagement generation failed", "post_id", post.ID, "error", err)
		return e.fallbackSuggestion(post)
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return e.fallbackSuggestion(post)
	}

	var payload engagementPayload
	if err := llmjson.Unmarshal(raw, &payload); err != nil {
		e.warn("unparsable engagement response", "post_id", post.ID, "error", err)
		return e.fallbackSuggestion(post)
	}

	return domain.EngagementSuggestion{
		CommentDraft: payload.CommentDraft,
		DMDraft:      payload.DMDraft,
		Strategy:     payload.Strategy,
		Priority:     EngagementPriority(classification),
	}
}

// EngagementPriority derives the tier from the classification alone: high for
// score >= 0.9 or buying-signal intents, medium for score >= 0.75, else low.
func EngagementPriority(classification domain.Classification) domain.Priority {
	switch {
	case classification.RelevanceScore >= 0.9,
		classification.Intent == domain.IntentVendorSearch,
		classification.Intent == domain.IntentAdviceSeeking:
		return domain.PriorityHigh
	case classification.RelevanceScore >= 0.75:
		return domain.PriorityMedium
	default:
		return domain.PriorityLow
	}
}

func (e *Enricher) buildEngagementPrompt(post domain.Post, classification domain.Classification) string {
	suggestionType, tone := engagementStyle(classification.Intent)

	return fmt.Sprintf(`You are a growth marketing expert. Respond ONLY with JSON matching the schema. Generate a personalized Reddit comment or engagement suggestion for this post.

Post Title: %s
Post Content: %s
Post Intent: %s
Relevance Score: %.2f

Guidelines:
- Type: %s
- Tone: %s
- Length: 2-4 sentences (concise and valuable)
- Do NOT be overly salesy or pushy
- Add genuine value to the conversation
- If relevant, subtly mention how we help with similar challenges
- Be authentic and Reddit-native (use casual, helpful language)

Generate:
1. A comment draft (2-4 sentences)
2. A brief DM draft (if appropriate for this intent)
3. Engagement strategy (one sentence on approach)

Respond in JSON format:
{
    "comment_draft": "<draft comment text>",
    "dm_draft": "<draft DM text or null>",
    "strategy": "<brief engagement strategy>",
    "priority": "high|medium|low"
}`, post.Title, truncate(post.Body, engageBodyLimit), classification.Intent, classification.RelevanceScore, suggestionType, tone)
}

// engagementStyle maps intent to suggestion type and tone.
func engagementStyle(intent domain.Intent) (suggestionType, tone string) {
	switch intent {
	case domain.IntentQuestion:
		return "helpful_comment", "helpful and educational"
	case domain.IntentVendorSearch:
		return "solution_pitch", "professional and solution-oriented"
	case domain.IntentAdviceSeeking:
		return "consultative_comment", "friendly and consultative"
	case domain.IntentComplaint:
		return "empathetic_response", "empathetic and solution-focused"
	default:
		return "value_add_comment", "engaging and value-adding"
	}
}

func (e *Enricher) fallbackSuggestion(post domain.Post) domain.EngagementSuggestion {
	greeting := "there"
	if fields := strings.Fields(post.Title); len(fields) > 0 {
		greeting = fields[0]
	}

	return domain.EngagementSuggestion{
		CommentDraft: fmt.Sprintf("Thanks for sharing this, %s. This is an interesting topic. Would love to learn more about your specific situation and see if we can help.", greeting),
		DMDraft:      fmt.Sprintf("Hi! Saw your post about %s. We work with companies facing similar challenges. Would you be open to a quick chat?", truncate(post.Title, 50)),
		Strategy:     "Engage with helpful context first, then offer value-based follow-up",
		Priority:     domain.PriorityMedium,
	}
}

func (e *Enricher) warn(msg string, args ...any) {
	if e.logger != nil {
		e.logger.Warn(msg, args...)
	}
}
