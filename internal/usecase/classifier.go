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

const classifyBodyLimit = 1000

const fallbackReasoning = "Fallback classification based on keyword matching"

// Classifier scores post relevance and intent through the oracle, falling back
// to deterministic keyword matching when the oracle is unavailable or returns
// garbage. It never returns an error: every failure path yields a usable
// classification.
type Classifier struct {
	oracle    ports.Oracle
	keywords  []string
	threshold float64
	logger    *slog.Logger
}

// NewClassifier wires the oracle with the configured keywords and relevance
// threshold.
func NewClassifier(oracle ports.Oracle, keywords []string, threshold float64, logger *slog.Logger) *Classifier {
	return &Classifier{
		oracle:    oracle,
		keywords:  keywords,
		threshold: threshold,
		logger:    logger,
	}
}

type classificationPayload struct {
	RelevanceScore float64 `json:"relevance_score"`
	IsRelevant     bool    `json:"is_relevant"`
	Intent         string  `json:"intent"`
	IntentScore    float64 `json:"intent_score"`
	Reasoning      string  `json:"reasoning"`
}

// Classify returns the relevance decision for one post. Posts with empty
// content short-circuit without an oracle call.
func (c *Classifier) Classify(ctx context.Context, post domain.Post) domain.Classification {
	if strings.TrimSpace(post.FullText) == "" {
		return domain.Classification{
			IsRelevant:     false,
			RelevanceScore: 0.0,
			Intent:         domain.IntentUnknown,
			IntentScore:    0.0,
			Reasoning:      "Empty post content",
		}
	}

	if c.oracle == nil {
		return c.fallback(post)
	}

	raw, err := c.oracle.Generate(ctx, c.buildPrompt(post))
	if err != nil {
		c.warn("oracle classification failed", "post_id", post.ID, "error", err)
		return c.fallback(post)
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		c.warn("oracle returned empty classification", "post_id", post.ID)
		return c.fallback(post)
	}

	var payload classificationPayload
	if err := llmjson.Unmarshal(raw, &payload); err != nil {
		c.warn("unparsable classification response", "post_id", post.ID, "error", err)
		return c.fallback(post)
	}

	intent := domain.Intent(payload.Intent)
	if intent == "" {
		intent = domain.IntentUnknown
	}

	reasoning := payload.Reasoning
	if reasoning == "" {
		reasoning = "No reasoning provided"
	}

	// The oracle's boolean is ORed with the threshold check so a stale
	// boolean paired with a high score still counts as relevant.
	return domain.Classification{
		IsRelevant:     payload.IsRelevant || payload.RelevanceScore >= c.threshold,
		RelevanceScore: payload.RelevanceScore,
		Intent:         intent,
		IntentScore:    payload.IntentScore,
		Reasoning:      reasoning,
	}
}

// fallback derives relevance from the fraction of configured keywords present
// in the post text. Pure and deterministic for a given post and keyword list.
func (c *Classifier) fallback(post domain.Post) domain.Classification {
	text := strings.ToLower(post.FullText)

	matches := 0
	for _, keyword := range c.keywords {
		if strings.Contains(text, strings.ToLower(keyword)) {
			matches++
		}
	}

	relevance := 0.0
	if len(c.keywords) > 0 {
		relevance = float64(matches) / float64(len(c.keywords))
		if relevance > 1.0 {
			relevance = 1.0
		}
	}

	return domain.Classification{
		IsRelevant:     relevance >= c.threshold,
		RelevanceScore: relevance,
		Intent:         domain.IntentGeneralChatter,
		IntentScore:    0.5,
		Reasoning:      fallbackReasoning,
	}
}

func (c *Classifier) buildPrompt(post domain.Post) string {
	return fmt.Sprintf(`You are an expert GTM analyst. Respond ONLY with a JSON object matching the required schema. Analyze the following Reddit post and provide:
1. Relevance score (0.0-1.0): How relevant is this post to GTM (Go-To-Market), growth marketing, customer retention, or business growth topics?
2. Intent classification: One of ["question", "complaint", "vendor_search", "general_chatter", "case_study", "advice_seeking"]
3. Intent score (0.0-1.0): Confidence in the intent classification
4. Brief reasoning: 1-2 sentences explaining your assessment

Post Title: %s
Post Content: %s

Respond in this exact JSON format:
{
    "relevance_score": <float 0.0-1.0>,
    "is_relevant": <boolean>,
    "intent": "<one of: question, complaint, vendor_search, general_chatter, case_study, advice_seeking>",
    "intent_score": <float 0.0-1.0>,
    "reasoning": "<brief explanation>"
}`, post.Title, truncate(post.FullText, classifyBodyLimit))
}

func (c *Classifier) warn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}

// truncate bounds text to at most limit runes.
func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
