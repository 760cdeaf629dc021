package ports

import (
	"context"
	"io"

	"AgenticDigest/internal/domain"
)

// FeedSource pulls bounded entry lists for every configured category.
type FeedSource interface {
	Fetch(ctx context.Context, sources domain.Sources, limit int) ([]domain.CategoryFeed, error)
}

// ContentExtractor turns an article URL into readable plain text.
// Failures are reported as an empty result, never as an error.
type ContentExtractor interface {
	Extract(ctx context.Context, url string) domain.Extracted
}

// ArticleRepository persists article records and their summaries.
type ArticleRepository interface {
	InsertArticle(ctx context.Context, article domain.Article) (bool, error)
	GetPending(ctx context.Context, limit int, category string) ([]domain.Article, error)
	GetSummarized(ctx context.Context, limit int) ([]domain.Article, error)
	UpdateSummary(ctx context.Context, id int64, brief, extended string) error
	ResetRecent(ctx context.Context, n int) ([]int64, error)
	Stats(ctx context.Context) (domain.Stats, error)
}

// PDFConverter prints a rendered HTML document to PDF bytes.
type PDFConverter interface {
	Convert(ctx context.Context, html string) ([]byte, error)
}

// Publisher ships a rendered digest to remote storage.
type Publisher interface {
	Publish(ctx context.Context, name, contentType string, body io.Reader) (string, error)
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(context.Context)) error
	Stop(ctx context.Context) error
}

// MarkdownConverter renders an HTML document as Markdown.
type MarkdownConverter interface {
	Convert(html string) (string, error)
}

// SourceLoader provides the category → feed mapping for a run.
type SourceLoader interface {
	LoadSources() (domain.Sources, error)
}
