package usecase

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"AgenticDigest/internal/config"
	"AgenticDigest/internal/domain"
	"AgenticDigest/internal/provider"
)

// immediateDriver runs the job synchronously on Start.
type immediateDriver struct {
	started, stopped bool
}

func (d *immediateDriver) Start(ctx context.Context, job func(context.Context)) error {
	d.started = true
	job(ctx)
	return nil
}

func (d *immediateDriver) Stop(context.Context) error {
	d.stopped = true
	return nil
}

func newTestPipeline(t *testing.T, output string) (*Pipeline, *fakeExtractor) {
	t.Helper()
	repo := newRepo(t)
	feeds := &fakeFeeds{entries: map[string][]domain.FeedEntry{
		"AI_ML": {
			{Title: "One", Link: "https://a.example/1", Published: "2024-01-01T00:00:00Z"},
			{Title: "Two", Link: "https://a.example/2", Published: "2024-01-02T00:00:00Z"},
		},
	}}
	ex := &fakeExtractor{pages: map[string]domain.Extracted{
		"https://a.example/1": {Title: "One", Content: "First body. More."},
		"https://a.example/2": {Title: "Two", Content: "Second body. More."},
	}}

	summarizer, err := NewSummarizer(SummarizeDeps{
		Repository: repo,
		Router:     provider.NewRouter(provider.NewMock()),
		Provider:   provider.MockName,
		Prompts:    testPrompts,
	})
	if err != nil {
		t.Fatalf("NewSummarizer: %v", err)
	}
	renderer, err := NewRenderer(RenderDeps{Repository: repo, Now: fixedNow})
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}

	return NewPipeline(PipelineDeps{
		Ingestor: NewIngestor(IngestDeps{
			Sources:    staticSources(domain.Sources{{Name: "AI_ML", Feeds: []string{"f"}}}),
			Feeds:      feeds,
			Extractor:  ex,
			Repository: repo,
		}),
		Summarizer:     summarizer,
		Renderer:       renderer,
		IngestLimit:    2,
		SummarizeLimit: 5,
		RenderLimit:    10,
		RenderFormat:   config.FormatHTML,
		RenderOutput:   output,
	}), ex
}

func TestPipelineRunOnce(t *testing.T) {
	t.Parallel()

	output := filepath.Join(t.TempDir(), "digest.html")
	p, _ := newTestPipeline(t, output)

	result, err := p.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if result.Ingest.Inserted != 2 || result.Summarize.Summarized != 2 || result.Output != output {
		t.Fatalf("unexpected result %+v", result)
	}

	raw, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if strings.Count(string(raw), `<article class="entry">`) != 2 {
		t.Fatalf("digest should list both articles")
	}

	again, err := p.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("second RunOnce: %v", err)
	}
	if again.Ingest.Duplicates != 2 || again.Summarize.Summarized != 0 {
		t.Fatalf("second run should be a no-op: %+v", again)
	}
}

func TestSchedulerRunsPipeline(t *testing.T) {
	t.Parallel()

	output := filepath.Join(t.TempDir(), "digest.html")
	p, ex := newTestPipeline(t, output)
	driver := &immediateDriver{}
	s := NewScheduler(driver, p, nil)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !driver.started || ex.calls != 2 {
		t.Fatalf("pipeline did not run: started=%v calls=%d", driver.started, ex.calls)
	}
	if _, err := os.Stat(output); err != nil {
		t.Fatalf("digest not written: %v", err)
	}
	if err := s.Stop(context.Background()); err != nil || !driver.stopped {
		t.Fatalf("Stop: %v", err)
	}
}
