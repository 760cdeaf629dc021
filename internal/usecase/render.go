package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"AgenticDigest/internal/config"
	"AgenticDigest/internal/digest"
	"AgenticDigest/internal/logging"
	"AgenticDigest/internal/ports"
)

// ErrUnsupportedFormat is returned for render formats other than html, pdf
// and markdown, or for formats whose converter is not configured.
var ErrUnsupportedFormat = errors.New("unsupported render format")

// RenderDeps wires the renderer.
type RenderDeps struct {
	Repository ports.ArticleRepository
	Template   *digest.Template
	PDF        ports.PDFConverter
	Markdown   ports.MarkdownConverter
	Publisher  ports.Publisher
	Now        func() time.Time
	Logger     *slog.Logger
}

// Renderer turns summarized records into a digest document.
type Renderer struct {
	repository ports.ArticleRepository
	template   *digest.Template
	pdf        ports.PDFConverter
	markdown   ports.MarkdownConverter
	publisher  ports.Publisher
	now        func() time.Time
	logger     *slog.Logger
}

// NewRenderer constructs the renderer; the embedded template is used when
// none is given.
func NewRenderer(deps RenderDeps) (*Renderer, error) {
	if deps.Template == nil {
		tmpl, err := digest.Default()
		if err != nil {
			return nil, err
		}
		deps.Template = tmpl
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = logging.Discard()
	}
	return &Renderer{
		repository: deps.Repository,
		template:   deps.Template,
		pdf:        deps.PDF,
		markdown:   deps.Markdown,
		publisher:  deps.Publisher,
		now:        deps.Now,
		logger:     deps.Logger,
	}, nil
}

// DefaultOutput returns the file name used when no output path is given.
func DefaultOutput(format string) string {
	switch format {
	case config.FormatMarkdown:
		return "output.md"
	default:
		return "output." + format
	}
}

// ContentType returns the MIME type for format.
func ContentType(format string) string {
	switch format {
	case config.FormatPDF:
		return "application/pdf"
	case config.FormatMarkdown:
		return "text/markdown; charset=utf-8"
	default:
		return "text/html; charset=utf-8"
	}
}

// RenderTo writes the digest of up to limit summarized records to w.
func (r *Renderer) RenderTo(ctx context.Context, w io.Writer, limit int, format string) error {
	data, count, err := r.build(ctx, limit, format)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write digest: %w", err)
	}
	r.logger.Debug("digest rendered", "format", format, "articles", count, "bytes", len(data))
	return nil
}

// Render writes the digest to output (or the format's default file name)
// and publishes it when a publisher is configured. It returns the path
// written.
func (r *Renderer) Render(ctx context.Context, limit int, format, output string) (string, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if output == "" {
		output = DefaultOutput(format)
	}

	data, count, err := r.build(ctx, limit, format)
	if err != nil {
		return "", err
	}

	if dir := filepath.Dir(output); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", output, err)
	}
	r.logger.Info("digest saved", "path", output, "format", format, "articles", count)

	if r.publisher != nil {
		if _, err := r.publisher.Publish(ctx, output, ContentType(format), bytes.NewReader(data)); err != nil {
			return output, fmt.Errorf("publish digest: %w", err)
		}
	}
	return output, nil
}

func (r *Renderer) build(ctx context.Context, limit int, format string) ([]byte, int, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	switch format {
	case config.FormatHTML, config.FormatPDF, config.FormatMarkdown:
	default:
		return nil, 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	articles, err := r.repository.GetSummarized(ctx, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("load summarized: %w", err)
	}

	html, err := r.template.Render(articles, r.now())
	if err != nil {
		return nil, 0, fmt.Errorf("render template: %w", err)
	}

	switch format {
	case config.FormatPDF:
		if r.pdf == nil {
			return nil, 0, fmt.Errorf("%w: pdf converter not configured", ErrUnsupportedFormat)
		}
		data, err := r.pdf.Convert(ctx, html)
		if err != nil {
			return nil, 0, fmt.Errorf("convert to pdf: %w", err)
		}
		return data, len(articles), nil
	case config.FormatMarkdown:
		if r.markdown == nil {
			return nil, 0, fmt.Errorf("%w: markdown converter not configured", ErrUnsupportedFormat)
		}
		md, err := r.markdown.Convert(html)
		if err != nil {
			return nil, 0, fmt.Errorf("convert to markdown: %w", err)
		}
		return []byte(md), len(articles), nil
	default:
		return []byte(html), len(articles), nil
	}
}
