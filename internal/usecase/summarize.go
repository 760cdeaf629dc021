package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"AgenticDigest/internal/domain"
	"AgenticDigest/internal/logging"
	"AgenticDigest/internal/ports"
	"AgenticDigest/internal/provider"
	"AgenticDigest/internal/textutil"
)

const excerptWidth = 800

// Prompts holds the two editable prompt templates.
type Prompts struct {
	Brief    string
	Extended string
}

// LoadPrompts reads brief.md and extended.md from dir.
func LoadPrompts(dir string) (Prompts, error) {
	brief, err := os.ReadFile(filepath.Join(dir, "brief.md"))
	if err != nil {
		return Prompts{}, fmt.Errorf("load brief prompt: %w", err)
	}
	extended, err := os.ReadFile(filepath.Join(dir, "extended.md"))
	if err != nil {
		return Prompts{}, fmt.Errorf("load extended prompt: %w", err)
	}
	return Prompts{Brief: string(brief), Extended: string(extended)}, nil
}

// BuildPrompt combines a template with the title and a bounded excerpt of
// the article content.
func BuildPrompt(template, title, content string) string {
	excerpt := textutil.Shorten(content, excerptWidth, textutil.Ellipsis)
	return fmt.Sprintf("%s\n\nTitle: %s\n\nArticle excerpt:\n%s", template, title, excerpt)
}

// SummarizeDeps wires the summarizer.
type SummarizeDeps struct {
	Repository ports.ArticleRepository
	Router     *provider.Router
	Provider   string
	Prompts    Prompts
	// ContinueOnError keeps going after a provider failure instead of
	// aborting the batch.
	ContinueOnError bool
	Logger          *slog.Logger
}

// Summarizer fills in summaries for pending records.
type Summarizer struct {
	repository      ports.ArticleRepository
	router          *provider.Router
	provider        string
	prompts         Prompts
	continueOnError bool
	logger          *slog.Logger
}

// NewSummarizer validates that the selected provider is registered.
func NewSummarizer(deps SummarizeDeps) (*Summarizer, error) {
	if deps.Router == nil {
		return nil, fmt.Errorf("summarizer: router is required")
	}
	if _, err := deps.Router.Resolve(deps.Provider); err != nil {
		return nil, fmt.Errorf("summarizer: %w", err)
	}
	if deps.Logger == nil {
		deps.Logger = logging.Discard()
	}
	return &Summarizer{
		repository:      deps.Repository,
		router:          deps.Router,
		provider:        deps.Provider,
		prompts:         deps.Prompts,
		continueOnError: deps.ContinueOnError,
		logger:          deps.Logger,
	}, nil
}

// Run summarizes up to limit pending records, newest first, optionally
// restricted to one category.
func (s *Summarizer) Run(ctx context.Context, limit int, category string) (domain.SummarizeReport, error) {
	report := domain.SummarizeReport{RunID: uuid.NewString()}
	log := s.logger.With("run_id", report.RunID, "provider", s.provider)

	pending, err := s.repository.GetPending(ctx, limit, category)
	if err != nil {
		return report, fmt.Errorf("load pending: %w", err)
	}
	report.Pending = len(pending)
	log.Info("articles to summarize", "count", report.Pending, "category", category)

	for _, article := range pending {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		brief, extended, err := s.summarizeOne(ctx, article)
		if err != nil {
			report.Failed++
			if !s.continueOnError {
				return report, err
			}
			log.Warn("summarization failed, continuing", "id", article.ID, "error", err)
			continue
		}

		if err := s.repository.UpdateSummary(ctx, article.ID, brief, extended); err != nil {
			return report, fmt.Errorf("persist summary for article %d: %w", article.ID, err)
		}
		report.Summarized++
		log.Info("article summarized", "id", article.ID, "title", article.Title)
	}

	log.Info("summarization finished", "summarized", report.Summarized, "failed", report.Failed)
	return report, nil
}

// summarizeOne asks the provider for both summaries; storage is left to the
// caller so that only provider failures are subject to ContinueOnError.
func (s *Summarizer) summarizeOne(ctx context.Context, article domain.Article) (string, string, error) {
	category := article.CategoryOrDefault()

	brief, err := s.router.Complete(ctx, BuildPrompt(s.prompts.Brief, article.Title, article.Content), s.provider, provider.ModeBrief, category)
	if err != nil {
		return "", "", fmt.Errorf("brief summary for article %d: %w", article.ID, err)
	}
	extended, err := s.router.Complete(ctx, BuildPrompt(s.prompts.Extended, article.Title, article.Content), s.provider, provider.ModeExtended, category)
	if err != nil {
		return "", "", fmt.Errorf("extended summary for article %d: %w", article.ID, err)
	}
	return brief, extended, nil
}

// Resummarize clears the summaries of the n most recent records and
// summarizes them again.
func (s *Summarizer) Resummarize(ctx context.Context, n int) (domain.SummarizeReport, error) {
	ids, err := s.repository.ResetRecent(ctx, n)
	if err != nil {
		return domain.SummarizeReport{}, fmt.Errorf("reset recent: %w", err)
	}
	if len(ids) == 0 {
		s.logger.Info("no articles to reset")
		return domain.SummarizeReport{}, nil
	}
	s.logger.Info("summaries reset", "ids", ids)
	return s.Run(ctx, n, "")
}
