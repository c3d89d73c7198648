package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"GTMMonitor/internal/domain"
	"GTMMonitor/internal/ports"
)

// Notifier sends high-priority records to a Slack incoming webhook. Without a
// webhook URL every call is a silent no-op.
type Notifier struct {
	webhookURL string
	threshold  float64
	client     *http.Client
	logger     *slog.Logger
}

var _ ports.AlertSink = (*Notifier)(nil)

// NewNotifier registers the webhook URL and the alert relevance threshold.
func NewNotifier(webhookURL string, threshold float64, logger *slog.Logger) *Notifier {
	return &Notifier{
		webhookURL: webhookURL,
		threshold:  threshold,
		client:     &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

type message struct {
	Text   string  `json:"text"`
	Blocks []block `json:"blocks"`
}

type block struct {
	Type     string `json:"type"`
	Text     *text  `json:"text,omitempty"`
	Fields   []text `json:"fields,omitempty"`
	Elements []any  `json:"elements,omitempty"`
}

type text struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type button struct {
	Type  string `json:"type"`
	Text  text   `json:"text"`
	URL   string `json:"url"`
	Style string `json:"style"`
}

// Notify posts the record as a block message. Records below the alert
// threshold without a high engagement priority are skipped.
func (n *Notifier) Notify(ctx context.Context, record domain.ProcessingRecord) error {
	if n.webhookURL == "" {
		return nil
	}

	score := record.Classification.RelevanceScore
	if score < n.threshold && record.Engagement.Priority != domain.PriorityHigh {
		return nil
	}

	payload, err := json.Marshal(buildMessage(record))
	if err != nil {
		return fmt.Errorf("marshal slack message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack error: %s", resp.Status)
	}

	if n.logger != nil {
		n.logger.Info("slack notification sent", "post_id", record.Post.ID)
	}
	return nil
}

func buildMessage(record domain.ProcessingRecord) message {
	post := record.Post
	classification := record.Classification
	engagement := record.Engagement

	return message{
		Text: fmt.Sprintf("🔥 High-Priority Post Found in r/%s", post.Subreddit),
		Blocks: []block{
			{
				Type: "header",
				Text: &text{Type: "plain_text", Text: fmt.Sprintf("🔥 High-Priority Post: %s", truncate(post.Title, 100))},
			},
			{
				Type: "section",
				Fields: []text{
					{Type: "mrkdwn", Text: fmt.Sprintf("*Relevance Score:* %.2f", classification.RelevanceScore)},
					{Type: "mrkdwn", Text: fmt.Sprintf("*Intent:* %s", classification.Intent)},
					{Type: "mrkdwn", Text: fmt.Sprintf("*Subreddit:* r/%s", post.Subreddit)},
					{Type: "mrkdwn", Text: fmt.Sprintf("*Priority:* %s", engagement.Priority)},
				},
			},
			{
				Type: "section",
				Text: &text{Type: "mrkdwn", Text: fmt.Sprintf("*Summary:*\n%s", truncate(record.Summary, 300))},
			},
			{
				Type: "section",
				Text: &text{Type: "mrkdwn", Text: fmt.Sprintf("*Suggested Comment:*\n%s", truncate(engagement.CommentDraft, 200))},
			},
			{
				Type: "actions",
				Elements: []any{
					button{
						Type:  "button",
						Text:  text{Type: "plain_text", Text: "View Post"},
						URL:   post.Link,
						Style: "primary",
					},
				},
			},
		},
	}
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
