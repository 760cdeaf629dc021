package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"AgenticDigest/internal/config"
	"AgenticDigest/internal/digest"
	"AgenticDigest/internal/domain"
	"AgenticDigest/internal/infrastructure/extractor"
	"AgenticDigest/internal/infrastructure/feed"
	"AgenticDigest/internal/infrastructure/llm"
	"AgenticDigest/internal/infrastructure/markdown"
	"AgenticDigest/internal/infrastructure/pdf"
	"AgenticDigest/internal/infrastructure/publish"
	"AgenticDigest/internal/infrastructure/scheduler"
	"AgenticDigest/internal/infrastructure/storage"
	"AgenticDigest/internal/infrastructure/web"
	"AgenticDigest/internal/logging"
	"AgenticDigest/internal/ports"
	"AgenticDigest/internal/provider"
	"AgenticDigest/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg    config.Config
	logger *slog.Logger

	repo     *storage.SQLiteRepository
	ingestor *usecase.Ingestor
	renderer *usecase.Renderer

	summarizerOnce sync.Once
	summarizer     *usecase.Summarizer
	summarizerErr  error
}

// New opens the record store and builds the ingestion and rendering use
// cases. The summarizer is built on first use so that commands which never
// summarize do not need provider credentials.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	repo, err := storage.Open(ctx, cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", cfg.Database.Path, err)
	}

	ingestor := usecase.NewIngestor(usecase.IngestDeps{
		Sources: config.SourceFile(cfg.Sources),
		Feeds: feed.NewGofeedSource(feed.Options{
			Timeout:   cfg.Ingest.FeedTimeout,
			UserAgent: cfg.Ingest.UserAgent,
		}, baseLogger.With("component", "feed")),
		Extractor: extractor.NewReadabilityExtractor(extractor.Options{
			Timeout:   cfg.Ingest.PageTimeout,
			UserAgent: cfg.Ingest.UserAgent,
			MaxBytes:  cfg.Ingest.MaxPageBytes,
		}, baseLogger.With("component", "extractor")),
		Repository: repo,
		Logger:     baseLogger.With("component", "ingest"),
	})

	tmpl, err := digest.Load(cfg.Render.Template)
	if err != nil {
		_ = repo.Close()
		return nil, err
	}

	var publisher ports.Publisher
	if cfg.Publish.S3.Enabled() {
		s3pub, err := publish.NewS3Publisher(ctx, cfg.Publish.S3, baseLogger.With("component", "publish.s3"))
		if err != nil {
			_ = repo.Close()
			return nil, err
		}
		publisher = s3pub
	}

	renderer, err := usecase.NewRenderer(usecase.RenderDeps{
		Repository: repo,
		Template:   tmpl,
		PDF: pdf.NewValidatingConverter(
			pdf.NewRodConverter(cfg.Render.BrowserURL, 0, baseLogger.With("component", "pdf")),
		),
		Markdown:  markdown.NewConverter(),
		Publisher: publisher,
		Logger:    baseLogger.With("component", "render"),
	})
	if err != nil {
		_ = repo.Close()
		return nil, err
	}

	return &Application{
		cfg:      cfg,
		logger:   baseLogger,
		repo:     repo,
		ingestor: ingestor,
		renderer: renderer,
	}, nil
}

// Close releases the record store.
func (a *Application) Close() error {
	return a.repo.Close()
}

// Ingest fetches feeds and stores new articles.
func (a *Application) Ingest(ctx context.Context, limit int) (domain.IngestReport, error) {
	return a.ingestor.Run(ctx, limit)
}

// Summarize fills in summaries for up to limit pending articles.
func (a *Application) Summarize(ctx context.Context, limit int, category string) (domain.SummarizeReport, error) {
	s, err := a.Summarizer()
	if err != nil {
		return domain.SummarizeReport{}, err
	}
	return s.Run(ctx, limit, category)
}

// Resummarize resets and re-summarizes the n most recent articles.
func (a *Application) Resummarize(ctx context.Context, n int) (domain.SummarizeReport, error) {
	s, err := a.Summarizer()
	if err != nil {
		return domain.SummarizeReport{}, err
	}
	return s.Resummarize(ctx, n)
}

// Render writes the digest file and returns its path.
func (a *Application) Render(ctx context.Context, limit int, format, output string) (string, error) {
	return a.renderer.Render(ctx, limit, format, output)
}

// Stats reports record store counts.
func (a *Application) Stats(ctx context.Context) (domain.Stats, error) {
	return a.repo.Stats(ctx)
}

// Summarizer builds the provider router and summarizer once.
func (a *Application) Summarizer() (*usecase.Summarizer, error) {
	a.summarizerOnce.Do(func() {
		router, err := a.buildRouter()
		if err != nil {
			a.summarizerErr = err
			return
		}
		prompts, err := usecase.LoadPrompts(a.cfg.Prompts.Dir)
		if err != nil {
			a.summarizerErr = err
			return
		}
		a.summarizer, a.summarizerErr = usecase.NewSummarizer(usecase.SummarizeDeps{
			Repository:      a.repo,
			Router:          router,
			Provider:        a.cfg.Summarize.Provider,
			Prompts:         prompts,
			ContinueOnError: a.cfg.Summarize.ContinueOnError,
			Logger:          a.logger.With("component", "summarize"),
		})
	})
	return a.summarizer, a.summarizerErr
}

// buildRouter always registers the mock provider. The live provider is
// registered when it is selected or a key is configured; selecting it
// without a key fails.
func (a *Application) buildRouter() (*provider.Router, error) {
	router := provider.NewRouter(provider.NewMock())

	live, err := llm.NewOpenAIProvider(a.cfg.OpenAI, a.logger.With("component", "llm.openai"))
	switch {
	case err == nil:
		router.Register(live)
	case errors.Is(err, provider.ErrMissingCredential) && a.cfg.Summarize.Provider != provider.OpenAIName:
	default:
		return nil, err
	}
	return router, nil
}

// Pipeline assembles the scheduled ingest → summarize → render chain.
func (a *Application) Pipeline() (*usecase.Pipeline, error) {
	s, err := a.Summarizer()
	if err != nil {
		return nil, err
	}
	return usecase.NewPipeline(usecase.PipelineDeps{
		Ingestor:       a.ingestor,
		Summarizer:     s,
		Renderer:       a.renderer,
		IngestLimit:    a.cfg.Ingest.Limit,
		SummarizeLimit: a.cfg.Summarize.Limit,
		RenderLimit:    a.cfg.Render.Limit,
		RenderFormat:   a.cfg.Render.Format,
		RenderOutput:   a.cfg.Render.Output,
		Logger:         a.logger.With("component", "pipeline"),
	}), nil
}

// Schedule runs the pipeline on the configured cron expression until ctx
// is cancelled. With once set it runs a single time and returns.
func (a *Application) Schedule(ctx context.Context, once bool) error {
	pipeline, err := a.Pipeline()
	if err != nil {
		return err
	}
	if once {
		_, err := pipeline.RunOnce(ctx)
		return err
	}

	driver := scheduler.NewCronScheduler(a.cfg.Scheduler.CronExpression, a.cfg.Scheduler.Location(),
		a.logger.With("component", "scheduler"))
	sched := usecase.NewScheduler(driver, pipeline, a.logger.With("component", "scheduler"))
	if err := sched.Start(ctx); err != nil {
		return err
	}
	a.logger.Info("waiting for scheduled runs", "next", driver.Next())

	<-ctx.Done()
	return sched.Stop(context.Background())
}

// Serve exposes the digest over HTTP until ctx is cancelled.
func (a *Application) Serve(ctx context.Context, addr string) error {
	if addr == "" {
		addr = a.cfg.Server.Addr
	}
	srv := web.NewServer(web.Options{
		Addr:         addr,
		DefaultLimit: a.cfg.Render.Limit,
		ContentType:  usecase.ContentType,
	}, a.renderer, a.repo, a.logger.With("component", "http"))
	return srv.ListenAndServe(ctx)
}
