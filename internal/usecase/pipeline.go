package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"GTMMonitor/internal/domain"
	"GTMMonitor/internal/ports"
)

// highPriorityScore is the alerting cutoff on the relevance score. Stricter
// than the relevance threshold: an item is high priority when its score meets
// this bar or its engagement priority is "high".
const highPriorityScore = 0.85

// PipelineDeps wires all collaborators into the orchestration pipeline.
type PipelineDeps struct {
	Source     ports.Source
	Classifier *Classifier
	Enricher   *Enricher
	Dedup      *Deduplicator
	Store      ports.Store
	AlertSink  ports.AlertSink
	SheetSink  ports.SheetSink
	Logger     *slog.Logger

	// PacingDelay elapses after each processed item to respect oracle rate
	// limits. Zero disables pacing.
	PacingDelay time.Duration

	// Sleep overrides how the pacing delay elapses. Nil means time.Sleep.
	Sleep func(time.Duration)

	// SeedLimit bounds how many identifiers are loaded from storage at
	// startup.
	SeedLimit int
}

// Pipeline implements one end-to-end monitoring pass: fetch, dedupe,
// classify, enrich, aggregate, dispatch. Strictly sequential; a failed run is
// never retried here.
type Pipeline struct {
	source      ports.Source
	classifier  *Classifier
	enricher    *Enricher
	dedup       *Deduplicator
	store       ports.Store
	alertSink   ports.AlertSink
	sheetSink   ports.SheetSink
	logger      *slog.Logger
	pacingDelay time.Duration
	sleep       func(time.Duration)
	seedLimit   int
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	dedup := deps.Dedup
	if dedup == nil {
		dedup = NewDeduplicator()
	}

	seedLimit := deps.SeedLimit
	if seedLimit <= 0 {
		seedLimit = 5000
	}

	sleep := deps.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	return &Pipeline{
		source:      deps.Source,
		classifier:  deps.Classifier,
		enricher:    deps.Enricher,
		dedup:       dedup,
		store:       deps.Store,
		alertSink:   deps.AlertSink,
		sheetSink:   deps.SheetSink,
		logger:      deps.Logger,
		pacingDelay: deps.PacingDelay,
		sleep:       sleep,
		seedLimit:   seedLimit,
	}
}

// Seed loads known post identifiers from storage so earlier runs' posts are
// not reprocessed. Safe to call with no store configured.
func (p *Pipeline) Seed(ctx context.Context) error {
	if p.store == nil {
		return nil
	}

	ids, err := p.store.ListIdentifiers(ctx, p.seedLimit)
	if err != nil {
		return fmt.Errorf("seed deduplicator: %w", err)
	}

	p.dedup.Seed(ids)
	p.info("deduplicator seeded", "known_ids", p.dedup.Len())
	return nil
}

// Run executes one pass. In dry-run mode classification and enrichment still
// happen but nothing is persisted or notified.
func (p *Pipeline) Run(ctx context.Context, dryRun bool) (domain.RunSummary, error) {
	if p.source == nil {
		return domain.RunSummary{}, fmt.Errorf("source is not configured")
	}

	posts, err := p.source.Search(ctx)
	if err != nil {
		return domain.RunSummary{}, fmt.Errorf("search posts: %w", err)
	}
	p.info("posts fetched", "total", len(posts))

	newPosts := make([]domain.Post, 0, len(posts))
	for _, post := range posts {
		if p.dedup.IsNew(post.ID) {
			newPosts = append(newPosts, post)
		}
	}
	p.info("posts after deduplication", "new", len(newPosts))

	if len(newPosts) == 0 {
		return domain.RunSummary{TotalPosts: len(posts)}, nil
	}

	var (
		records      []domain.ProcessingRecord
		relevant     int
		highPriority int
	)

	for i, post := range newPosts {
		p.debug("processing post", "index", i+1, "of", len(newPosts), "post_id", post.ID)

		classification := p.classifier.Classify(ctx, post)

		if classification.IsRelevant {
			relevant++

			summary := p.enricher.Summarize(ctx, post, DefaultSummaryLength)
			engagement := p.enricher.SuggestEngagement(ctx, post, classification)
			sentiment := p.enricher.Sentiment(ctx, post)

			record := domain.ProcessingRecord{
				Post:           post,
				Classification: classification,
				Engagement:     engagement,
				Summary:        summary,
				Sentiment:      sentiment,
			}
			records = append(records, record)

			if isHighPriority(record) {
				highPriority++
				p.info("high-priority post detected", "post_id", post.ID, "score", classification.RelevanceScore)
			}
		}

		if p.pacingDelay > 0 {
			p.sleep(p.pacingDelay)
		}
	}

	if !dryRun {
		p.dispatch(ctx, records)
	}

	for _, post := range newPosts {
		p.dedup.MarkSeen(post.ID)
	}

	return domain.RunSummary{
		TotalPosts:    len(posts),
		NewPosts:      len(newPosts),
		Processed:     len(records),
		RelevantPosts: relevant,
		HighPriority:  highPriority,
	}, nil
}

// dispatch hands records to the durable sinks. Failures are logged, never
// fatal: the in-memory summary is still returned to the trigger.
func (p *Pipeline) dispatch(ctx context.Context, records []domain.ProcessingRecord) {
	if len(records) == 0 {
		return
	}

	if p.store != nil {
		if err := p.store.UpsertBatch(ctx, records); err != nil {
			p.warn("store batch upsert failed", "records", len(records), "error", err)
		} else {
			p.info("records stored", "count", len(records))
		}
	}

	if p.sheetSink != nil {
		if err := p.sheetSink.Append(ctx, records); err != nil {
			p.warn("sheet mirror append failed", "error", err)
		}
	}

	if p.alertSink == nil {
		return
	}

	for _, record := range records {
		if !isHighPriority(record) {
			continue
		}
		if err := p.alertSink.Notify(ctx, record); err != nil {
			p.warn("alert notification failed", "post_id", record.Post.ID, "error", err)
		}
	}
}

func isHighPriority(record domain.ProcessingRecord) bool {
	return record.Classification.RelevanceScore >= highPriorityScore ||
		record.Engagement.Priority == domain.PriorityHigh
}

func (p *Pipeline) debug(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Debug(msg, args...)
	}
}

func (p *Pipeline) info(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}

func (p *Pipeline) warn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}
