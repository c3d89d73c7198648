package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"GTMMonitor/internal/domain"
	"GTMMonitor/internal/ports"
)

// Mirror appends processing records to a spreadsheet via the values-append
// REST endpoint. This is the legacy reporting surface; an empty sheet ID
// disables it entirely.
type Mirror struct {
	endpoint string
	sheetID  string
	token    string
	client   *http.Client
	now      func() time.Time
}

var _ ports.SheetSink = (*Mirror)(nil)

// NewMirror wires the spreadsheet endpoint, ID and access token.
func NewMirror(endpoint, sheetID, token string) *Mirror {
	return &Mirror{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		sheetID:  sheetID,
		token:    token,
		client:   &http.Client{Timeout: 15 * time.Second},
		now:      time.Now,
	}
}

type appendRequest struct {
	Values [][]any `json:"values"`
}

// Append adds one row per record in the legacy column order.
func (m *Mirror) Append(ctx context.Context, records []domain.ProcessingRecord) error {
	if m.sheetID == "" || len(records) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(records))
	for _, record := range records {
		rows = append(rows, []any{
			m.now().Format(time.RFC3339),
			record.Post.Link,
			record.Post.Title,
			record.Summary,
			record.Post.Author,
			record.Post.Subreddit,
			record.Classification.RelevanceScore,
			record.Classification.IsRelevant,
			string(record.Classification.Intent),
			record.Classification.IntentScore,
			record.Engagement.CommentDraft,
			record.Engagement.DMDraft,
			record.Engagement.Strategy,
			string(record.Engagement.Priority),
			record.Classification.Reasoning,
		})
	}

	body, err := json.Marshal(appendRequest{Values: rows})
	if err != nil {
		return fmt.Errorf("marshal sheet rows: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v4/spreadsheets/%s/values/Sheet1!A1:append?valueInputOption=RAW", m.endpoint, m.sheetID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if m.token != "" {
		req.Header.Set("Authorization", "Bearer "+m.token)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("append rows: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("sheet api error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	return nil
}
