package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"AgenticDigest/internal/dedup"
	"AgenticDigest/internal/domain"
	"AgenticDigest/internal/logging"
	"AgenticDigest/internal/ports"
)

// IngestDeps wires the driven adapters used by ingestion.
type IngestDeps struct {
	Sources    ports.SourceLoader
	Feeds      ports.FeedSource
	Extractor  ports.ContentExtractor
	Repository ports.ArticleRepository
	Logger     *slog.Logger
}

// Ingestor fetches feeds, extracts article text and stores new records.
type Ingestor struct {
	sources    ports.SourceLoader
	feeds      ports.FeedSource
	extractor  ports.ContentExtractor
	repository ports.ArticleRepository
	logger     *slog.Logger
}

// NewIngestor constructs the ingestion use case.
func NewIngestor(deps IngestDeps) *Ingestor {
	if deps.Logger == nil {
		deps.Logger = logging.Discard()
	}
	return &Ingestor{
		sources:    deps.Sources,
		feeds:      deps.Feeds,
		extractor:  deps.Extractor,
		repository: deps.Repository,
		logger:     deps.Logger,
	}
}

// Run ingests up to limit entries per feed. Entries whose page yields no
// text are skipped; repeated content is counted as a duplicate, whether it
// repeats within this run or matches a stored record.
func (i *Ingestor) Run(ctx context.Context, limit int) (domain.IngestReport, error) {
	report := domain.IngestReport{RunID: uuid.NewString()}
	log := i.logger.With("run_id", report.RunID)

	sources, err := i.sources.LoadSources()
	if err != nil {
		return report, fmt.Errorf("load sources: %w", err)
	}

	feeds, err := i.feeds.Fetch(ctx, sources, limit)
	if err != nil {
		return report, fmt.Errorf("fetch feeds: %w", err)
	}

	seen := dedup.New()
	for _, feed := range feeds {
		for _, entry := range feed.Entries {
			if err := ctx.Err(); err != nil {
				return report, err
			}
			report.Entries++

			outcome, err := i.ingestEntry(ctx, seen, feed.Category, entry)
			if err != nil {
				return report, err
			}
			switch outcome {
			case outcomeInserted:
				report.Inserted++
				log.Info("article stored", "category", feed.Category, "title", entry.Title)
			case outcomeDuplicate:
				report.Duplicates++
				log.Info("duplicate skipped", "category", feed.Category, "url", entry.Link)
			case outcomeSkipped:
				report.Skipped++
				log.Debug("no content extracted", "category", feed.Category, "url", entry.Link)
			}
		}
	}

	log.Info("ingestion finished",
		"entries", report.Entries,
		"inserted", report.Inserted,
		"duplicates", report.Duplicates,
		"skipped", report.Skipped)
	return report, nil
}

type ingestOutcome int

const (
	outcomeSkipped ingestOutcome = iota
	outcomeDuplicate
	outcomeInserted
)

func (i *Ingestor) ingestEntry(ctx context.Context, seen *dedup.Deduplicator, category string, entry domain.FeedEntry) (ingestOutcome, error) {
	if strings.TrimSpace(entry.Link) == "" {
		return outcomeSkipped, nil
	}

	extracted := i.extractor.Extract(ctx, entry.Link)
	if extracted.Empty() {
		return outcomeSkipped, nil
	}

	fingerprint := dedup.Fingerprint(extracted.Content)
	if seen.Check(fingerprint) {
		return outcomeDuplicate, nil
	}

	title := extracted.Title
	if strings.TrimSpace(title) == "" {
		title = entry.Title
	}
	published := entry.Published
	if published == "" {
		published = domain.UnknownPublished
	}

	inserted, err := i.repository.InsertArticle(ctx, domain.Article{
		URL:         entry.Link,
		Title:       title,
		PublishedAt: published,
		Content:     extracted.Content,
		Fingerprint: fingerprint,
		Category:    category,
	})
	if err != nil {
		return outcomeSkipped, fmt.Errorf("store article %s: %w", entry.Link, err)
	}
	if !inserted {
		return outcomeDuplicate, nil
	}
	return outcomeInserted, nil
}
