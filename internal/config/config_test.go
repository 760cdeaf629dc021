package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadAppliesFileOverDefaults(t *testing.T) {
	t.Setenv(openAIKeyEnv, "")
	t.Setenv(databasePathEnv, "")

	path := writeFile(t, "config.yaml", `
database:
  path: /tmp/test.db
ingest:
  limit: 4
  feedTimeout: 5s
summarize:
  provider: openai
  continueOnError: true
render:
  format: PDF
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Database.Path != "/tmp/test.db" {
		t.Fatalf("unexpected db path %q", cfg.Database.Path)
	}
	if cfg.Ingest.Limit != 4 || cfg.Ingest.FeedTimeout != 5*time.Second {
		t.Fatalf("unexpected ingest config %+v", cfg.Ingest)
	}
	if cfg.Ingest.PageTimeout != 10*time.Second {
		t.Fatalf("page timeout default lost: %v", cfg.Ingest.PageTimeout)
	}
	if cfg.Summarize.Provider != "openai" || !cfg.Summarize.ContinueOnError {
		t.Fatalf("unexpected summarize config %+v", cfg.Summarize)
	}
	if cfg.Summarize.Limit != 5 {
		t.Fatalf("summarize limit default lost: %d", cfg.Summarize.Limit)
	}
	if cfg.Render.Format != FormatPDF {
		t.Fatalf("format should be lower-cased, got %q", cfg.Render.Format)
	}
	if cfg.OpenAI.Model != "gpt-4o-mini" || cfg.OpenAI.MaxTokens != 300 {
		t.Fatalf("unexpected openai defaults %+v", cfg.OpenAI)
	}
}

func TestLoadEnvOverridesAndExpansion(t *testing.T) {
	t.Setenv("DIGEST_TEST_BUCKET", "digests")
	t.Setenv(openAIKeyEnv, "sk-env")
	t.Setenv(logLevelEnv, "debug")

	path := writeFile(t, "config.yaml", `
openai:
  apiKey: sk-file
publish:
  s3:
    bucket: ${DIGEST_TEST_BUCKET}
    prefix: ${DIGEST_TEST_UNSET}
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.OpenAI.APIKey != "sk-env" {
		t.Fatalf("env must win over file, got %q", cfg.OpenAI.APIKey)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected log level %q", cfg.Logging.Level)
	}
	if !cfg.Publish.S3.Enabled() || cfg.Publish.S3.Bucket != "digests" {
		t.Fatalf("bucket not expanded: %+v", cfg.Publish.S3)
	}
	if cfg.Publish.S3.Prefix != "${DIGEST_TEST_UNSET}" {
		t.Fatalf("unset variables should be kept verbatim, got %q", cfg.Publish.S3.Prefix)
	}
}

func TestLoadMissingFiles(t *testing.T) {
	t.Setenv(configPathEnv, "")

	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected error for explicit missing file")
	}

	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("default path should fall back to defaults: %v", err)
	}
	if cfg.Render.Limit != 10 || cfg.Ingest.Limit != 2 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestLoadValidation(t *testing.T) {
	cases := map[string]string{
		"format":   "render:\n  format: docx\n",
		"limit":    "ingest:\n  limit: -1\n",
		"timezone": "scheduler:\n  timezone: Mars/Olympus\n",
		"provider": "summarize:\n  provider: cohere\n",
	}
	for name, body := range cases {
		path := writeFile(t, name+".yaml", body)
		if _, err := Load(path); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestParseSourcesKeepsOrder(t *testing.T) {
	t.Parallel()

	sources, err := ParseSources([]byte(`
zeta:
  - https://z.example/feed
alpha:
  - https://a.example/one
  - "  "
  - https://a.example/two
empty:
`))
	if err != nil {
		t.Fatalf("ParseSources returned error: %v", err)
	}

	var names []string
	for _, c := range sources {
		names = append(names, c.Name)
	}
	if got := strings.Join(names, ","); got != "zeta,alpha,empty" {
		t.Fatalf("category order not preserved: %s", got)
	}
	if len(sources[1].Feeds) != 2 {
		t.Fatalf("blank feed should be dropped: %v", sources[1].Feeds)
	}
	if len(sources[2].Feeds) != 0 {
		t.Fatalf("null category should be empty: %v", sources[2].Feeds)
	}
	if sources.FeedCount() != 3 {
		t.Fatalf("unexpected feed count %d", sources.FeedCount())
	}
}

func TestParseSourcesRejectsList(t *testing.T) {
	t.Parallel()

	if _, err := ParseSources([]byte("- https://a.example/feed\n")); err == nil {
		t.Fatalf("expected error for top-level sequence")
	}
}
