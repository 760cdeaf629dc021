package pdf

import (
	"bytes"
	"context"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"AgenticDigest/internal/ports"
)

// Validate parses data with pdfcpu and returns its page count.
func Validate(data []byte) (int, error) {
	if len(data) == 0 {
		return 0, fmt.Errorf("pdf: empty document")
	}
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), model.NewDefaultConfiguration())
	if err != nil {
		return 0, fmt.Errorf("pdf: validate: %w", err)
	}
	if ctx.PageCount == 0 {
		return 0, fmt.Errorf("pdf: document has no pages")
	}
	return ctx.PageCount, nil
}

// ValidatingConverter rejects converter output that is not a readable PDF.
type ValidatingConverter struct {
	next ports.PDFConverter
}

var _ ports.PDFConverter = (*ValidatingConverter)(nil)

// NewValidatingConverter wraps next.
func NewValidatingConverter(next ports.PDFConverter) *ValidatingConverter {
	return &ValidatingConverter{next: next}
}

// Convert delegates and validates the result.
func (v *ValidatingConverter) Convert(ctx context.Context, html string) ([]byte, error) {
	data, err := v.next.Convert(ctx, html)
	if err != nil {
		return nil, err
	}
	if _, err := Validate(data); err != nil {
		return nil, err
	}
	return data, nil
}
