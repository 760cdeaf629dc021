package pdf

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"AgenticDigest/internal/logging"
	"AgenticDigest/internal/ports"
)

const defaultPrintTimeout = 60 * time.Second

// RodConverter prints HTML to PDF with headless Chrome. With an empty
// control URL a local browser is launched per conversion.
type RodConverter struct {
	controlURL string
	timeout    time.Duration
	logger     *slog.Logger
}

var _ ports.PDFConverter = (*RodConverter)(nil)

// NewRodConverter builds a converter; controlURL may point at a running
// DevTools endpoint.
func NewRodConverter(controlURL string, timeout time.Duration, log *slog.Logger) *RodConverter {
	if timeout <= 0 {
		timeout = defaultPrintTimeout
	}
	if log == nil {
		log = logging.Discard()
	}
	return &RodConverter{controlURL: controlURL, timeout: timeout, logger: log}
}

// Convert loads html into a blank tab and prints it with backgrounds.
func (c *RodConverter) Convert(ctx context.Context, html string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	controlURL := c.controlURL
	remote := controlURL != ""
	if !remote {
		l := launcher.New().Headless(true)
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("pdf: launch browser: %w", err)
		}
		defer l.Kill()
		controlURL = u
		c.logger.Debug("launched local chrome", "url", controlURL)
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("pdf: connect browser: %w", err)
	}
	if !remote {
		defer func() { _ = browser.Close() }()
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("pdf: open page: %w", err)
	}
	defer func() { _ = page.Close() }()

	if err := page.SetDocumentContent(html); err != nil {
		return nil, fmt.Errorf("pdf: set content: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("pdf: wait load: %w", err)
	}

	stream, err := page.PDF(&proto.PagePrintToPDF{PrintBackground: true})
	if err != nil {
		return nil, fmt.Errorf("pdf: print: %w", err)
	}
	data, err := io.ReadAll(stream)
	if err != nil {
		return nil, fmt.Errorf("pdf: read stream: %w", err)
	}
	return data, nil
}
