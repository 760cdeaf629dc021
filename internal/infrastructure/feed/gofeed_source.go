package feed

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"

	"AgenticDigest/internal/domain"
	"AgenticDigest/internal/logging"
	"AgenticDigest/internal/ports"
	"AgenticDigest/internal/textutil"
)

const summaryPreviewRunes = 200

// Options tunes the HTTP side of feed fetching.
type Options struct {
	Client    *http.Client
	Timeout   time.Duration
	UserAgent string
}

// GofeedSource implements FeedSource on top of gofeed, which understands
// RSS, Atom and JSON feeds.
type GofeedSource struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
	policy    *bluemonday.Policy
	logger    *slog.Logger
}

var _ ports.FeedSource = (*GofeedSource)(nil)

// NewGofeedSource wires an HTTP client; the timeout defaults to 30s.
func NewGofeedSource(opts Options, log *slog.Logger) *GofeedSource {
	if opts.Client == nil {
		opts.Client = &http.Client{}
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if log == nil {
		log = logging.Discard()
	}
	return &GofeedSource{
		client:    opts.Client,
		timeout:   opts.Timeout,
		userAgent: opts.UserAgent,
		policy:    bluemonday.StrictPolicy(),
		logger:    log,
	}
}

// Fetch walks the categories in configuration order and collects up to
// limit entries per feed. A feed that fails is logged and skipped.
func (s *GofeedSource) Fetch(ctx context.Context, sources domain.Sources, limit int) ([]domain.CategoryFeed, error) {
	if limit < 0 {
		limit = 0
	}

	s.logger.Debug("fetch feeds", "categories", len(sources), "feeds", sources.FeedCount(), "limit", limit)

	result := make([]domain.CategoryFeed, 0, len(sources))
	for _, category := range sources {
		entries := make([]domain.FeedEntry, 0)
		for _, url := range category.Feeds {
			if err := ctx.Err(); err != nil {
				return result, err
			}

			items, err := s.fetchOne(ctx, url, limit)
			if err != nil {
				s.logger.Warn("feed fetch failed", "category", category.Name, "url", url, "error", err)
				continue
			}
			s.logger.Debug("feed fetched", "category", category.Name, "url", url, "entries", len(items))
			entries = append(entries, items...)
		}
		result = append(result, domain.CategoryFeed{Category: category.Name, Entries: entries})
	}
	return result, nil
}

func (s *GofeedSource) fetchOne(ctx context.Context, url string, limit int) ([]domain.FeedEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	parser := gofeed.NewParser()
	parser.Client = s.client
	if s.userAgent != "" {
		parser.UserAgent = s.userAgent
	}

	parsed, err := parser.ParseURLWithContext(url, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	count := min(len(parsed.Items), limit)
	entries := make([]domain.FeedEntry, 0, count)
	for _, item := range parsed.Items[:count] {
		entries = append(entries, s.normalize(item))
	}
	return entries, nil
}

func (s *GofeedSource) normalize(item *gofeed.Item) domain.FeedEntry {
	entry := domain.FeedEntry{
		Title:     strings.TrimSpace(item.Title),
		Link:      strings.TrimSpace(item.Link),
		Published: publishedOf(item),
		Summary:   s.preview(item.Description),
	}
	if entry.Title == "" {
		entry.Title = domain.UntitledEntry
	}
	return entry
}

// publishedOf prefers a parsed date in RFC3339 UTC so that records sort
// chronologically as strings.
func publishedOf(item *gofeed.Item) string {
	switch {
	case item.PublishedParsed != nil:
		return item.PublishedParsed.UTC().Format(time.RFC3339)
	case strings.TrimSpace(item.Published) != "":
		return strings.TrimSpace(item.Published)
	case item.UpdatedParsed != nil:
		return item.UpdatedParsed.UTC().Format(time.RFC3339)
	default:
		return domain.UnknownPublished
	}
}

func (s *GofeedSource) preview(description string) string {
	text := textutil.Collapse(html.UnescapeString(s.policy.Sanitize(description)))
	runes := []rune(text)
	if len(runes) > summaryPreviewRunes {
		return string(runes[:summaryPreviewRunes])
	}
	return text
}
