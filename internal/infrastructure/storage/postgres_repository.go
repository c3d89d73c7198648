package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"

	"GTMMonitor/internal/domain"
	"GTMMonitor/internal/ports"
)

const (
	postsTable  = "gtm_posts"
	trendsTable = "gtm_weekly_trends"
)

// PostgresRepository persists processing records and trend snapshots.
type PostgresRepository struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ ports.Store = (*PostgresRepository)(nil)

// NewPostgresRepository wires a sql.DB implementation.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Open connects to Postgres and verifies the connection.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// EnsureSchema creates the tables if they do not exist.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if r.db == nil {
		return nil
	}

	schema := `
	CREATE TABLE IF NOT EXISTS gtm_posts (
		post_id             TEXT PRIMARY KEY,
		post_link           TEXT NOT NULL DEFAULT '',
		post_title          TEXT NOT NULL DEFAULT '',
		post_summary        TEXT NOT NULL DEFAULT '',
		author              TEXT NOT NULL DEFAULT '',
		subreddit           TEXT NOT NULL DEFAULT '',
		post_timestamp      TIMESTAMPTZ,
		relevance_score     DOUBLE PRECISION NOT NULL DEFAULT 0,
		is_relevant         BOOLEAN NOT NULL DEFAULT FALSE,
		intent              TEXT NOT NULL DEFAULT '',
		intent_score        DOUBLE PRECISION NOT NULL DEFAULT 0,
		sentiment           TEXT NOT NULL DEFAULT '',
		sentiment_score     DOUBLE PRECISION NOT NULL DEFAULT 0,
		ai_reasoning        TEXT NOT NULL DEFAULT '',
		engagement_comment  TEXT NOT NULL DEFAULT '',
		engagement_dm       TEXT NOT NULL DEFAULT '',
		engagement_strategy TEXT NOT NULL DEFAULT '',
		priority            TEXT NOT NULL DEFAULT '',
		created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at          TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS gtm_weekly_trends (
		id                  BIGSERIAL PRIMARY KEY,
		computed_at         TIMESTAMPTZ NOT NULL,
		total_posts         INTEGER NOT NULL DEFAULT 0,
		average_relevance   DOUBLE PRECISION NOT NULL DEFAULT 0,
		trend               TEXT NOT NULL DEFAULT '',
		high_priority_count INTEGER NOT NULL DEFAULT 0,
		weekly_counts       JSONB,
		by_intent           JSONB,
		by_subreddit        JSONB,
		error               TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_gtm_posts_timestamp ON gtm_posts(post_timestamp);
	`

	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// UpsertBatch inserts all records in one statement, keyed by post identifier.
// Re-upserting the same record is harmless, which lets concurrent runs share
// the store without coordination.
func (r *PostgresRepository) UpsertBatch(ctx context.Context, records []domain.ProcessingRecord) error {
	if r.db == nil || len(records) == 0 {
		return nil
	}

	builder := r.builder.Insert(postsTable).Columns(
		"post_id", "post_link", "post_title", "post_summary",
		"author", "subreddit", "post_timestamp",
		"relevance_score", "is_relevant", "intent", "intent_score",
		"sentiment", "sentiment_score", "ai_reasoning",
		"engagement_comment", "engagement_dm", "engagement_strategy", "priority",
	)

	for _, record := range records {
		builder = builder.Values(
			record.Post.ID,
			record.Post.Link,
			record.Post.Title,
			record.Summary,
			record.Post.Author,
			record.Post.Subreddit,
			record.Post.CreatedAt,
			record.Classification.RelevanceScore,
			record.Classification.IsRelevant,
			string(record.Classification.Intent),
			record.Classification.IntentScore,
			record.Sentiment.Label,
			record.Sentiment.Level,
			record.Classification.Reasoning,
			record.Engagement.CommentDraft,
			record.Engagement.DMDraft,
			record.Engagement.Strategy,
			string(record.Engagement.Priority),
		)
	}

	builder = builder.Suffix(`ON CONFLICT (post_id) DO UPDATE SET
		post_summary = EXCLUDED.post_summary,
		relevance_score = EXCLUDED.relevance_score,
		is_relevant = EXCLUDED.is_relevant,
		intent = EXCLUDED.intent,
		intent_score = EXCLUDED.intent_score,
		sentiment = EXCLUDED.sentiment,
		sentiment_score = EXCLUDED.sentiment_score,
		ai_reasoning = EXCLUDED.ai_reasoning,
		engagement_comment = EXCLUDED.engagement_comment,
		engagement_dm = EXCLUDED.engagement_dm,
		engagement_strategy = EXCLUDED.engagement_strategy,
		priority = EXCLUDED.priority,
		updated_at = NOW()`)

	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert records: %w", err)
	}
	return nil
}

// ListRecent returns the most recently created records, newest first.
func (r *PostgresRepository) ListRecent(ctx context.Context, limit int) ([]domain.ProcessingRecord, error) {
	if r.db == nil {
		return nil, nil
	}

	query, args, err := r.builder.Select(
		"post_id", "post_link", "post_title", "post_summary",
		"author", "subreddit", "post_timestamp",
		"relevance_score", "is_relevant", "intent", "intent_score",
		"sentiment", "sentiment_score", "ai_reasoning",
		"engagement_comment", "engagement_dm", "engagement_strategy", "priority",
	).
		From(postsTable).
		OrderBy("post_timestamp DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list recent: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query recent: %w", err)
	}
	defer rows.Close()

	var records []domain.ProcessingRecord
	for rows.Next() {
		var (
			record   domain.ProcessingRecord
			ts       sql.NullTime
			intent   string
			priority string
		)
		if err := rows.Scan(
			&record.Post.ID,
			&record.Post.Link,
			&record.Post.Title,
			&record.Summary,
			&record.Post.Author,
			&record.Post.Subreddit,
			&ts,
			&record.Classification.RelevanceScore,
			&record.Classification.IsRelevant,
			&intent,
			&record.Classification.IntentScore,
			&record.Sentiment.Label,
			&record.Sentiment.Level,
			&record.Classification.Reasoning,
			&record.Engagement.CommentDraft,
			&record.Engagement.DMDraft,
			&record.Engagement.Strategy,
			&priority,
		); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}

		if ts.Valid {
			record.Post.CreatedAt = ts.Time
		}
		record.Classification.Intent = domain.Intent(intent)
		record.Engagement.Priority = domain.Priority(priority)
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return records, nil
}

// ListIdentifiers returns the set of known post identifiers for seeding the
// deduplicator. Newest rows win when the table exceeds the limit.
func (r *PostgresRepository) ListIdentifiers(ctx context.Context, limit int) (map[string]struct{}, error) {
	if r.db == nil {
		return map[string]struct{}{}, nil
	}

	query, args, err := r.builder.Select("post_id").
		From(postsTable).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list identifiers: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query identifiers: %w", err)
	}
	defer rows.Close()

	ids := map[string]struct{}{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		if id != "" {
			ids[id] = struct{}{}
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return ids, nil
}

// AppendSnapshot stores a trend snapshot. Snapshots are append-only; prior
// rows are never updated.
func (r *PostgresRepository) AppendSnapshot(ctx context.Context, snapshot domain.TrendSnapshot) error {
	if r.db == nil {
		return nil
	}

	weekly, err := json.Marshal(snapshot.WeeklyCounts)
	if err != nil {
		return fmt.Errorf("marshal weekly counts: %w", err)
	}
	intents, err := json.Marshal(snapshot.ByIntent)
	if err != nil {
		return fmt.Errorf("marshal intent counts: %w", err)
	}
	subs, err := json.Marshal(snapshot.BySubreddit)
	if err != nil {
		return fmt.Errorf("marshal subreddit counts: %w", err)
	}

	query, args, err := r.builder.Insert(trendsTable).
		Columns(
			"computed_at", "total_posts", "average_relevance", "trend",
			"high_priority_count", "weekly_counts", "by_intent", "by_subreddit", "error",
		).
		Values(
			snapshot.Timestamp,
			snapshot.TotalPosts,
			snapshot.AverageRelevance,
			string(snapshot.Trend),
			snapshot.HighPriority,
			weekly,
			intents,
			subs,
			snapshot.Error,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build snapshot insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("append snapshot: %w", err)
	}
	return nil
}
