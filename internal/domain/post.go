package domain

import "time"

// Post is a core entity describing one candidate unit fetched from the source.
// The ID is assigned by the source and immutable; FullText is derived from
// title and body at fetch time and never mutated afterwards.
type Post struct {
	ID          string
	Title       string
	Body        string
	FullText    string
	Author      string
	Subreddit   string
	Link        string
	URL         string
	CreatedAt   time.Time
	Score       int
	NumComments int
	UpvoteRatio float64
}

// Intent labels the poster's apparent goal. Unknown is reserved for posts the
// classifier never scored (empty content).
type Intent string

const (
	IntentQuestion       Intent = "question"
	IntentComplaint      Intent = "complaint"
	IntentVendorSearch   Intent = "vendor_search"
	IntentGeneralChatter Intent = "general_chatter"
	IntentCaseStudy      Intent = "case_study"
	IntentAdviceSeeking  Intent = "advice_seeking"
	IntentUnknown        Intent = "unknown"
)

// Classification captures the relevance decision for one post. IsRelevant is
// the OR of the oracle's own boolean and the score-threshold check.
type Classification struct {
	IsRelevant     bool
	RelevanceScore float64
	Intent         Intent
	IntentScore    float64
	Reasoning      string
}

// Priority tiers for engagement suggestions.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// EngagementSuggestion is the enricher's outreach proposal for a relevant post.
// Priority is always recomputed locally from the classification, never taken
// from the oracle.
type EngagementSuggestion struct {
	CommentDraft string
	DMDraft      string
	Strategy     string
	Priority     Priority
}

// Sentiment is the oracle's sentiment judgment; Level ranges 0-10. A zero
// value means sentiment generation failed and was skipped.
type Sentiment struct {
	Label string
	Level float64
}

// ProcessingRecord is the unit persisted per relevant post. Immutable once
// written.
type ProcessingRecord struct {
	Post           Post
	Classification Classification
	Engagement     EngagementSuggestion
	Summary        string
	Sentiment      Sentiment
}

// RunSummary reports the counts of one pipeline pass back to the trigger. Not
// persisted.
type RunSummary struct {
	TotalPosts    int `json:"total_posts"`
	NewPosts      int `json:"new_posts"`
	Processed     int `json:"processed"`
	RelevantPosts int `json:"relevant_posts"`
	HighPriority  int `json:"high_priority"`
}

// Trend direction over the analysis window.
type Trend string

const (
	TrendIncreasing       Trend = "increasing"
	TrendDecreasing       Trend = "decreasing"
	TrendStable           Trend = "stable"
	TrendInsufficientData Trend = "insufficient_data"
)

// TrendSnapshot aggregates stored records over a historical window. Appended
// to storage, never updated in place.
type TrendSnapshot struct {
	Timestamp        time.Time      `json:"timestamp"`
	TotalPosts       int            `json:"total_posts"`
	AverageRelevance float64        `json:"average_relevance"`
	Trend            Trend          `json:"trend"`
	HighPriority     int            `json:"high_priority_count"`
	WeeklyCounts     map[string]int `json:"weekly_counts"`
	ByIntent         map[string]int `json:"by_intent"`
	BySubreddit      map[string]int `json:"by_subreddit"`
	Error            string         `json:"error,omitempty"`
}
