package provider

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type recordingProvider struct {
	name  string
	calls []string
}

func (r *recordingProvider) Name() string { return r.name }

func (r *recordingProvider) Complete(_ context.Context, prompt string, mode Mode, category string) (string, error) {
	r.calls = append(r.calls, string(mode)+"|"+category+"|"+prompt)
	return "ok:" + prompt, nil
}

func TestRouterUnknownProvider(t *testing.T) {
	t.Parallel()

	router := NewRouter(NewMock())
	_, err := router.Complete(context.Background(), "text", "nonexistent", ModeBrief, "General")
	if !errors.Is(err, ErrUnknownProvider) {
		t.Fatalf("expected ErrUnknownProvider, got %v", err)
	}
	if !strings.Contains(err.Error(), "nonexistent") {
		t.Fatalf("error should name the provider: %v", err)
	}
}

func TestRouterDelegates(t *testing.T) {
	t.Parallel()

	rec := &recordingProvider{name: "rec"}
	router := NewRouter(NewMock(), rec)

	got, err := router.Complete(context.Background(), "hello", "rec", ModeExtended, "AI_ML")
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if got != "ok:hello" {
		t.Fatalf("unexpected output %q", got)
	}
	if len(rec.calls) != 1 || rec.calls[0] != "extended|AI_ML|hello" {
		t.Fatalf("unexpected calls %v", rec.calls)
	}
	if names := strings.Join(router.Names(), ","); names != "mock,rec" {
		t.Fatalf("unexpected names %s", names)
	}
}

func TestRouterRejectsUnknownMode(t *testing.T) {
	t.Parallel()

	rec := &recordingProvider{name: "rec"}
	router := NewRouter(rec)
	if _, err := router.Complete(context.Background(), "x", "rec", Mode("haiku"), "General"); !errors.Is(err, ErrUnknownMode) {
		t.Fatalf("expected ErrUnknownMode, got %v", err)
	}
	if len(rec.calls) != 0 {
		t.Fatalf("provider must not be called for an invalid mode")
	}
}

func TestMockBrief(t *testing.T) {
	t.Parallel()

	prompt := "AI is reshaping the analytics industry. Automation brings efficiency gains."
	got, err := NewMock().Complete(context.Background(), prompt, ModeBrief, "AI_ML_Analytics")
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}

	want := "• AI is reshaping the analytics industry\n• Monitor developments in AI ML Analytics."
	if got != want {
		t.Fatalf("unexpected brief:\n%s\nwant:\n%s", got, want)
	}
}

func TestMockBriefAlwaysTwoBulletLines(t *testing.T) {
	t.Parallel()

	prompts := []string{
		"",
		"no period at all",
		"Line one.\nLine two.\n\nTitle: Something\n\nArticle excerpt:\n" + strings.Repeat("word ", 200),
		"...leading dots",
	}
	for _, prompt := range prompts {
		got, err := NewMock().Complete(context.Background(), prompt, ModeBrief, "General")
		if err != nil {
			t.Fatalf("Complete returned error: %v", err)
		}
		lines := strings.Split(got, "\n")
		if len(lines) != 2 {
			t.Fatalf("expected 2 lines for %q, got %d: %q", prompt, len(lines), got)
		}
		for _, line := range lines {
			if !strings.HasPrefix(line, "• ") {
				t.Fatalf("line %q does not start with a bullet", line)
			}
		}
	}
}

func TestMockExtended(t *testing.T) {
	t.Parallel()

	got, err := NewMock().Complete(context.Background(), "anything", ModeExtended, "Data_Engineering")
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	want := "Why it matters: This may impact Data Engineering workflows.\n\nRecommendations:\n- Run a POC.\n- Track adoption impacts."
	if got != want {
		t.Fatalf("unexpected extended:\n%s", got)
	}
}

func TestMockIsPure(t *testing.T) {
	t.Parallel()

	m := NewMock()
	for _, mode := range []Mode{ModeBrief, ModeExtended} {
		a, _ := m.Complete(context.Background(), "Same input. Twice.", mode, "General")
		b, _ := m.Complete(context.Background(), "Same input. Twice.", mode, "General")
		if a != b {
			t.Fatalf("mode %s: outputs differ %q vs %q", mode, a, b)
		}
	}
}
