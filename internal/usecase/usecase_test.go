package usecase

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"AgenticDigest/internal/domain"
	"AgenticDigest/internal/infrastructure/storage"
	"AgenticDigest/internal/provider"
)

type staticSources domain.Sources

func (s staticSources) LoadSources() (domain.Sources, error) { return domain.Sources(s), nil }

type failingSources struct{ err error }

func (f failingSources) LoadSources() (domain.Sources, error) { return nil, f.err }

// fakeFeeds returns the configured entries per category, ignoring URLs.
type fakeFeeds struct {
	entries map[string][]domain.FeedEntry
}

func (f *fakeFeeds) Fetch(_ context.Context, sources domain.Sources, limit int) ([]domain.CategoryFeed, error) {
	out := make([]domain.CategoryFeed, 0, len(sources))
	for _, s := range sources {
		entries := f.entries[s.Name]
		if len(entries) > limit {
			entries = entries[:limit]
		}
		out = append(out, domain.CategoryFeed{Category: s.Name, Entries: entries})
	}
	return out, nil
}

// fakeExtractor maps links to extraction results; unknown links are empty.
type fakeExtractor struct {
	mu    sync.Mutex
	pages map[string]domain.Extracted
	calls int
}

func (f *fakeExtractor) Extract(_ context.Context, link string) domain.Extracted {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.pages[link]
}

type failingProvider struct {
	name    string
	failFor map[string]bool
	calls   int
}

func (f *failingProvider) Name() string { return f.name }

func (f *failingProvider) Complete(ctx context.Context, prompt string, mode provider.Mode, category string) (string, error) {
	f.calls++
	for needle := range f.failFor {
		if strings.Contains(prompt, needle) {
			return "", errors.New("remote unavailable")
		}
	}
	return provider.NewMock().Complete(ctx, prompt, mode, category)
}

type fakePDF struct{ html string }

func (f *fakePDF) Convert(_ context.Context, html string) ([]byte, error) {
	f.html = html
	return []byte("%PDF-1.7 fake"), nil
}

type fakeMarkdown struct{}

func (fakeMarkdown) Convert(html string) (string, error) { return "# md\n", nil }

type fakePublisher struct {
	name, contentType, body string
	err                     error
}

func (f *fakePublisher) Publish(_ context.Context, name, contentType string, body io.Reader) (string, error) {
	raw, _ := io.ReadAll(body)
	f.name, f.contentType, f.body = name, contentType, string(raw)
	return "s3://bucket/" + name, f.err
}

func newRepo(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	repo, err := storage.Open(context.Background(), storage.MemoryPath)
	if err != nil {
		t.Fatalf("open repo: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func strPtr(s string) *string { return &s }
