package usecase

// Deduplicator tracks which post identifiers have already been processed. It
// is seeded from storage at startup and owned by a single pipeline instance,
// so no locking is required. Every fetched post is marked seen after the run
// finalizes, regardless of classification outcome, so the same post is never
// re-classified on later runs.
type Deduplicator struct {
	seen map[string]struct{}
}

// NewDeduplicator builds an empty deduplicator.
func NewDeduplicator() *Deduplicator {
	return &Deduplicator{seen: map[string]struct{}{}}
}

// Seed initializes the known-identifier set.
func (d *Deduplicator) Seed(ids map[string]struct{}) {
	if d.seen == nil {
		d.seen = map[string]struct{}{}
	}
	for id := range ids {
		d.seen[id] = struct{}{}
	}
}

// IsNew reports whether the identifier has not been processed before.
func (d *Deduplicator) IsNew(id string) bool {
	_, ok := d.seen[id]
	return !ok
}

// MarkSeen records the identifier as processed.
func (d *Deduplicator) MarkSeen(id string) {
	if d.seen == nil {
		d.seen = map[string]struct{}{}
	}
	d.seen[id] = struct{}{}
}

// Len returns the number of known identifiers.
func (d *Deduplicator) Len() int {
	return len(d.seen)
}
