package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"AgenticDigest/internal/domain"
)

type stubRenderer struct {
	limit  int
	format string
	err    error
}

func (s *stubRenderer) RenderTo(_ context.Context, w io.Writer, limit int, format string) error {
	s.limit, s.format = limit, format
	if s.err != nil {
		return s.err
	}
	_, err := io.WriteString(w, "<html>digest</html>")
	return err
}

type stubArticles struct {
	category string
	limit    int
}

func (s *stubArticles) GetPending(_ context.Context, limit int, category string) ([]domain.Article, error) {
	s.limit, s.category = limit, category
	return []domain.Article{{ID: 7, Title: "Pending", URL: "https://x.example", Category: category, PublishedAt: "N/A"}}, nil
}

func (s *stubArticles) Stats(context.Context) (domain.Stats, error) {
	return domain.Stats{Total: 5, Pending: 2, Summarized: 3}, nil
}

func newTestServer(r *stubRenderer, a *stubArticles) *httptest.Server {
	return httptest.NewServer(NewServer(Options{DefaultLimit: 10}, r, a, nil).Handler())
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp, string(body)
}

func TestDigestEndpoint(t *testing.T) {
	t.Parallel()

	renderer := &stubRenderer{}
	srv := newTestServer(renderer, &stubArticles{})
	defer srv.Close()

	resp, body := get(t, srv.URL+"/digest")
	if resp.StatusCode != http.StatusOK || body != "<html>digest</html>" {
		t.Fatalf("unexpected response %d %q", resp.StatusCode, body)
	}
	if renderer.limit != 10 || renderer.format != "html" {
		t.Fatalf("defaults not applied: %+v", renderer)
	}

	get(t, srv.URL+"/digest?limit=500&format=markdown")
	if renderer.limit != maxLimit || renderer.format != "markdown" {
		t.Fatalf("query not honoured: %+v", renderer)
	}

	resp, _ = get(t, srv.URL+"/digest?limit=abc")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad limit, got %d", resp.StatusCode)
	}
}

func TestDigestEndpointNormalizesFormat(t *testing.T) {
	t.Parallel()

	renderer := &stubRenderer{}
	contentType := func(format string) string {
		if format == "pdf" {
			return "application/pdf"
		}
		return "text/html; charset=utf-8"
	}
	srv := httptest.NewServer(NewServer(Options{ContentType: contentType}, renderer, &stubArticles{}, nil).Handler())
	defer srv.Close()

	resp, _ := get(t, srv.URL+"/digest?format=%20PDF")
	if renderer.format != "pdf" {
		t.Fatalf("renderer got format %q, want pdf", renderer.format)
	}
	if got := resp.Header.Get("Content-Type"); got != "application/pdf" {
		t.Fatalf("unexpected content type %q", got)
	}
}

func TestDigestEndpointRenderError(t *testing.T) {
	t.Parallel()

	srv := newTestServer(&stubRenderer{err: errors.New("unsupported render format")}, &stubArticles{})
	defer srv.Close()

	resp, body := get(t, srv.URL+"/digest?format=docx")
	if resp.StatusCode != http.StatusInternalServerError || !strings.Contains(body, "unsupported") {
		t.Fatalf("unexpected response %d %q", resp.StatusCode, body)
	}
}

func TestAPIEndpoints(t *testing.T) {
	t.Parallel()

	articles := &stubArticles{}
	srv := newTestServer(&stubRenderer{}, articles)
	defer srv.Close()

	resp, body := get(t, srv.URL+"/healthz")
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "ok") {
		t.Fatalf("unexpected health response %d %q", resp.StatusCode, body)
	}

	_, body = get(t, srv.URL+"/api/stats")
	var stats domain.Stats
	if err := json.Unmarshal([]byte(body), &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.Total != 5 || stats.Pending != 2 || stats.Summarized != 3 {
		t.Fatalf("unexpected stats %+v", stats)
	}

	_, body = get(t, srv.URL+"/api/pending?limit=3&category=ai")
	var items []pendingItem
	if err := json.Unmarshal([]byte(body), &items); err != nil {
		t.Fatalf("decode pending: %v", err)
	}
	if len(items) != 1 || items[0].ID != 7 || items[0].Category != "ai" {
		t.Fatalf("unexpected pending %+v", items)
	}
	if articles.limit != 3 || articles.category != "ai" {
		t.Fatalf("query not forwarded: %+v", articles)
	}
}
