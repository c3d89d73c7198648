package usecase

import (
	"context"
	"fmt"

	"GTMMonitor/internal/domain"
)

type fakeOracle struct {
	fn    func(prompt string) (string, error)
	calls int
}

func (f *fakeOracle) Generate(_ context.Context, prompt string) (string, error) {
	f.calls++
	if f.fn == nil {
		return "", fmt.Errorf("oracle unavailable")
	}
	return f.fn(prompt)
}

func staticOracle(response string) *fakeOracle {
	return &fakeOracle{fn: func(string) (string, error) { return response, nil }}
}

func failingOracle() *fakeOracle {
	return &fakeOracle{}
}

type fakeSource struct {
	posts []domain.Post
	err   error
	calls int
}

func (f *fakeSource) Search(context.Context) ([]domain.Post, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.posts, nil
}

type fakeStore struct {
	ids       map[string]struct{}
	records   []domain.ProcessingRecord
	snapshots []domain.TrendSnapshot
	upserts   int
	upsertErr error
	listErr   error
	appendErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{ids: map[string]struct{}{}}
}

func (f *fakeStore) UpsertBatch(_ context.Context, records []domain.ProcessingRecord) error {
	f.upserts++
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.records = append(f.records, records...)
	for _, record := range records {
		f.ids[record.Post.ID] = struct{}{}
	}
	return nil
}

func (f *fakeStore) ListRecent(context.Context, int) ([]domain.ProcessingRecord, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.records, nil
}

func (f *fakeStore) ListIdentifiers(context.Context, int) (map[string]struct{}, error) {
	out := make(map[string]struct{}, len(f.ids))
	for id := range f.ids {
		out[id] = struct{}{}
	}
	return out, nil
}

func (f *fakeStore) AppendSnapshot(_ context.Context, snapshot domain.TrendSnapshot) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.snapshots = append(f.snapshots, snapshot)
	return nil
}

type fakeAlertSink struct {
	notified  []domain.ProcessingRecord
	notifyErr error
}

func (f *fakeAlertSink) Notify(_ context.Context, record domain.ProcessingRecord) error {
	f.notified = append(f.notified, record)
	return f.notifyErr
}

type fakeSheetSink struct {
	appended  [][]domain.ProcessingRecord
	appendErr error
}

func (f *fakeSheetSink) Append(_ context.Context, records []domain.ProcessingRecord) error {
	f.appended = append(f.appended, records)
	return f.appendErr
}
