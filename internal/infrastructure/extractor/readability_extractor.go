package extractor

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html/charset"

	"AgenticDigest/internal/domain"
	"AgenticDigest/internal/logging"
	"AgenticDigest/internal/ports"
)

const (
	defaultTimeout  = 10 * time.Second
	defaultMaxBytes = 5 << 20
)

// Options tunes page retrieval.
type Options struct {
	Client    *http.Client
	Timeout   time.Duration
	UserAgent string
	MaxBytes  int64
}

// ReadabilityExtractor downloads article pages and keeps only their main
// readable block as plain text.
type ReadabilityExtractor struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
	maxBytes  int64
	logger    *slog.Logger
}

var _ ports.ContentExtractor = (*ReadabilityExtractor)(nil)

// NewReadabilityExtractor wires an HTTP client; timeout defaults to 10s.
func NewReadabilityExtractor(opts Options, log *slog.Logger) *ReadabilityExtractor {
	if opts.Client == nil {
		opts.Client = &http.Client{}
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = defaultMaxBytes
	}
	if log == nil {
		log = logging.Discard()
	}
	return &ReadabilityExtractor{
		client:    opts.Client,
		timeout:   opts.Timeout,
		userAgent: opts.UserAgent,
		maxBytes:  opts.MaxBytes,
		logger:    log,
	}
}

// Extract returns the page title and cleaned text. Any failure yields an
// empty result and a warning.
func (e *ReadabilityExtractor) Extract(ctx context.Context, pageURL string) domain.Extracted {
	out, err := e.extract(ctx, pageURL)
	if err != nil {
		e.logger.Warn("extraction failed", "url", pageURL, "error", err)
		return domain.Extracted{}
	}
	return out
}

func (e *ReadabilityExtractor) extract(ctx context.Context, pageURL string) (domain.Extracted, error) {
	parsedURL, err := url.Parse(pageURL)
	if err != nil || parsedURL.Host == "" {
		return domain.Extracted{}, fmt.Errorf("invalid url %q", pageURL)
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return domain.Extracted{}, fmt.Errorf("build request: %w", err)
	}
	if e.userAgent != "" {
		req.Header.Set("User-Agent", e.userAgent)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return domain.Extracted{}, fmt.Errorf("request page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return domain.Extracted{}, fmt.Errorf("page returned %s", resp.Status)
	}

	body, err := charset.NewReader(io.LimitReader(resp.Body, e.maxBytes), resp.Header.Get("Content-Type"))
	if err != nil {
		return domain.Extracted{}, fmt.Errorf("decode charset: %w", err)
	}

	article, err := readability.FromReader(body, parsedURL)
	if err != nil {
		return domain.Extracted{}, fmt.Errorf("readability: %w", err)
	}

	text := article.TextContent
	if strings.TrimSpace(article.Content) != "" {
		if converted, convErr := HTMLToText(article.Content); convErr == nil {
			text = converted
		}
	}

	return domain.Extracted{
		Title:   Normalize(strings.TrimSpace(article.Title)),
		Content: Normalize(text),
	}, nil
}

var blockSelectors = "p, div, section, article, li, h1, h2, h3, h4, h5, h6, blockquote, pre, tr, table, ul, ol, figcaption"

// HTMLToText strips markup from an HTML fragment, turning block elements
// into line breaks.
func HTMLToText(fragment string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return "", fmt.Errorf("parse fragment: %w", err)
	}

	doc.Find("script, style, noscript, template").Remove()
	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find(blockSelectors).Each(func(_ int, s *goquery.Selection) {
		s.BeforeHtml("\n")
		s.AppendHtml("\n")
	})

	return doc.Text(), nil
}
