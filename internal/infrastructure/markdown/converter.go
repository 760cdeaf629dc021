package markdown

import (
	"fmt"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"

	"AgenticDigest/internal/ports"
)

// Converter turns rendered digest HTML into CommonMark.
type Converter struct {
	conv *converter.Converter
}

var _ ports.MarkdownConverter = (*Converter)(nil)

// NewConverter builds a converter with the commonmark and table plugins.
func NewConverter() *Converter {
	return &Converter{
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
	}
}

// Convert returns the markdown rendition of html.
func (c *Converter) Convert(html string) (string, error) {
	out, err := c.conv.ConvertString(html)
	if err != nil {
		return "", fmt.Errorf("markdown: convert: %w", err)
	}
	return strings.TrimSpace(out) + "\n", nil
}
