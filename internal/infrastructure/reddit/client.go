package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"GTMMonitor/internal/config"
	"GTMMonitor/internal/domain"
	"GTMMonitor/internal/ports"
)

const defaultBaseURL = "https://www.reddit.com"

// Client fetches keyword-matching posts from subreddit listings via the
// public JSON endpoints. One subreddit failing is logged and skipped; the
// remaining subreddits are still searched.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	keywords   []string
	subreddits []string
	perSubMax  int
	maxAge     time.Duration
	logger     *slog.Logger
}

var _ ports.Source = (*Client)(nil)

// NewClient wires an HTTP client with the monitoring configuration.
func NewClient(cfg config.MonitoringConfig, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 20 * time.Second}
	}

	perSubMax := cfg.MaxPostsPerSubreddit
	if perSubMax <= 0 {
		perSubMax = 50
	}

	maxAgeHours := cfg.MaxPostAgeHours
	if maxAgeHours <= 0 {
		maxAgeHours = 72
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    defaultBaseURL,
		userAgent:  cfg.UserAgent,
		keywords:   cfg.Keywords,
		subreddits: cfg.Subreddits,
		perSubMax:  perSubMax,
		maxAge:     time.Duration(maxAgeHours) * time.Hour,
		logger:     logger,
	}
}

// Search walks the configured subreddits' new and hot listings and returns
// recent posts matching any configured keyword, deduplicated by ID within the
// fetch.
func (c *Client) Search(ctx context.Context) ([]domain.Post, error) {
	if len(c.subreddits) == 0 {
		return nil, fmt.Errorf("no subreddits configured")
	}

	results := make([]domain.Post, 0)
	seen := map[string]struct{}{}

	for _, subreddit := range c.subreddits {
		listings := []struct {
			sort  string
			limit int
		}{
			{"new", c.perSubMax},
			{"hot", max(1, c.perSubMax/2)},
		}

		for _, listing := range listings {
			posts, err := c.fetchListing(ctx, subreddit, listing.sort, listing.limit)
			if err != nil {
				c.warn("subreddit listing failed", "subreddit", subreddit, "sort", listing.sort, "error", err)
				continue
			}

			for _, post := range posts {
				if !c.isRecent(post) || !c.matchesKeywords(post) {
					continue
				}
				if _, ok := seen[post.ID]; ok {
					continue
				}
				seen[post.ID] = struct{}{}
				results = append(results, post)
			}
		}
	}

	return results, nil
}

type listingEnvelope struct {
	Data struct {
		Children []struct {
			Data listingPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type listingPost struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Selftext     string  `json:"selftext"`
	SelftextHTML string  `json:"selftext_html"`
	Author       string  `json:"author"`
	Permalink    string  `json:"permalink"`
	URL          string  `json:"url"`
	Subreddit    string  `json:"subreddit"`
	CreatedUTC   float64 `json:"created_utc"`
	Score        int     `json:"score"`
	NumComments  int     `json:"num_comments"`
	UpvoteRatio  float64 `json:"upvote_ratio"`
}

func (c *Client) fetchListing(ctx context.Context, subreddit, sort string, limit int) ([]domain.Post, error) {
	endpoint, err := buildListingURL(c.baseURL, subreddit, sort, limit)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request listing: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("reddit returned %s", resp.Status)
	}

	var envelope listingEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode listing: %w", err)
	}

	posts := make([]domain.Post, 0, len(envelope.Data.Children))
	for _, child := range envelope.Data.Children {
		posts = append(posts, toDomainPost(child.Data))
	}

	return posts, nil
}

func toDomainPost(raw listingPost) domain.Post {
	body := raw.Selftext
	if body == "" && raw.SelftextHTML != "" {
		body = htmlToText(raw.SelftextHTML)
	}

	author := raw.Author
	if author == "" {
		author = "[deleted]"
	}

	return domain.Post{
		ID:          raw.ID,
		Title:       raw.Title,
		Body:        body,
		FullText:    strings.TrimSpace(raw.Title + "\n\n" + body),
		Author:      author,
		Subreddit:   raw.Subreddit,
		Link:        defaultBaseURL + raw.Permalink,
		URL:         raw.URL,
		CreatedAt:   time.Unix(int64(raw.CreatedUTC), 0).UTC(),
		Score:       raw.Score,
		NumComments: raw.NumComments,
		UpvoteRatio: raw.UpvoteRatio,
	}
}

// htmlToText flattens a rendered post body into plain text. Listings carry
// selftext_html for posts whose markdown source is absent.
func htmlToText(rawHTML string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return rawHTML
	}
	return strings.TrimSpace(doc.Text())
}

func (c *Client) isRecent(post domain.Post) bool {
	return time.Since(post.CreatedAt) <= c.maxAge
}

func (c *Client) matchesKeywords(post domain.Post) bool {
	text := strings.ToLower(post.FullText)
	for _, keyword := range c.keywords {
		if strings.Contains(text, strings.ToLower(keyword)) {
			return true
		}
	}
	return false
}

func buildListingURL(base, subreddit, sort string, limit int) (string, error) {
	parsed, err := url.Parse(fmt.Sprintf("%s/r/%s/%s.json", base, subreddit, sort))
	if err != nil {
		return "", fmt.Errorf("invalid listing url for r/%s: %w", subreddit, err)
	}

	query := parsed.Query()
	query.Set("limit", strconv.Itoa(limit))
	query.Set("raw_json", "1")
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

func (c *Client) warn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}
