package provider

import (
	"context"
	"fmt"
	"strings"

	"AgenticDigest/internal/textutil"
)

const mockSeedWidth = 120

// Mock derives summaries from the prompt text alone. It never touches the
// network and always returns the same output for the same input.
type Mock struct{}

var _ Provider = Mock{}

// NewMock returns the offline provider.
func NewMock() Mock { return Mock{} }

// Name identifies the provider inside the router.
func (Mock) Name() string { return MockName }

// Complete returns two bullet lines for ModeBrief and a short
// "why it matters" block with two recommendations for ModeExtended.
func (Mock) Complete(_ context.Context, prompt string, mode Mode, category string) (string, error) {
	label := strings.ReplaceAll(category, "_", " ")

	switch mode {
	case ModeBrief:
		seed := textutil.Shorten(prompt, mockSeedWidth, textutil.Ellipsis)
		first, _, _ := strings.Cut(seed, ".")
		return fmt.Sprintf("• %s\n• Monitor developments in %s.", strings.TrimSpace(first), label), nil
	case ModeExtended:
		return fmt.Sprintf("Why it matters: This may impact %s workflows.\n\nRecommendations:\n- Run a POC.\n- Track adoption impacts.", label), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
}
