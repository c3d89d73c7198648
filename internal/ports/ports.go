package ports

import (
	"context"

	"GTMMonitor/internal/domain"
)

// Source pulls candidate posts from the external feed. Implementations must
// tolerate repeated calls and absorb per-subreddit failures (log and continue),
// so a partial outage never aborts a run.
type Source interface {
	Search(ctx context.Context) ([]domain.Post, error)
}

// Oracle is the language-model capability: one prompt in, one text completion
// out. Vendors are selected at construction time; callers never branch on the
// provider.
type Oracle interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Store persists processing records and trend snapshots.
type Store interface {
	UpsertBatch(ctx context.Context, records []domain.ProcessingRecord) error
	ListRecent(ctx context.Context, limit int) ([]domain.ProcessingRecord, error)
	ListIdentifiers(ctx context.Context, limit int) (map[string]struct{}, error)
	AppendSnapshot(ctx context.Context, snapshot domain.TrendSnapshot) error
}

// AlertSink delivers one high-priority record to the notification channel.
// Implementations silently skip when unconfigured.
type AlertSink interface {
	Notify(ctx context.Context, record domain.ProcessingRecord) error
}

// SheetSink is the optional legacy spreadsheet mirror.
type SheetSink interface {
	Append(ctx context.Context, records []domain.ProcessingRecord) error
}

// Scheduler controls when jobs execute.
type Scheduler interface {
	AddJob(name, spec string, job func(context.Context) error) error
	Start()
	Stop(ctx context.Context) error
}
