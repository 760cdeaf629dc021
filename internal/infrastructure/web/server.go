package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"AgenticDigest/internal/domain"
	"AgenticDigest/internal/logging"
)

const maxLimit = 100

// DigestRenderer writes a rendered digest to a writer.
type DigestRenderer interface {
	RenderTo(ctx context.Context, w io.Writer, limit int, format string) error
}

// ArticleReader is the read side of the record store used by the API.
type ArticleReader interface {
	GetPending(ctx context.Context, limit int, category string) ([]domain.Article, error)
	Stats(ctx context.Context) (domain.Stats, error)
}

// Options configures the HTTP surface.
type Options struct {
	Addr         string
	DefaultLimit int
	// ContentType maps a render format to its MIME type.
	ContentType func(format string) string
}

// Server exposes the rendered digest and store state over HTTP.
type Server struct {
	opts     Options
	renderer DigestRenderer
	articles ArticleReader
	logger   *slog.Logger
	router   *chi.Mux
}

// NewServer builds the router; call ListenAndServe to start it.
func NewServer(opts Options, renderer DigestRenderer, articles ArticleReader, log *slog.Logger) *Server {
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = 10
	}
	if opts.ContentType == nil {
		opts.ContentType = func(string) string { return "text/html; charset=utf-8" }
	}
	if log == nil {
		log = logging.Discard()
	}

	s := &Server{opts: opts, renderer: renderer, articles: articles, logger: log}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(2 * time.Minute))

	r.Get("/healthz", s.handleHealth)
	r.Get("/digest", s.handleDigest)
	r.Route("/api", func(r chi.Router) {
		r.Get("/stats", s.handleStats)
		r.Get("/pending", s.handlePending)
	})
	s.router = r
	return s
}

// Handler returns the configured router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.opts.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	s.logger.Info("http server stopped")
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleDigest(w http.ResponseWriter, r *http.Request) {
	limit, err := s.limitParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	if format == "" {
		format = "html"
	}

	var buf bytes.Buffer
	if err := s.renderer.RenderTo(r.Context(), &buf, limit, format); err != nil {
		s.logger.Error("render digest failed", "format", format, "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", s.opts.ContentType(format))
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.articles.Stats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

type pendingItem struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Category    string `json:"category"`
	PublishedAt string `json:"published_at"`
}

func (s *Server) handlePending(w http.ResponseWriter, r *http.Request) {
	limit, err := s.limitParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	articles, err := s.articles.GetPending(r.Context(), limit, r.URL.Query().Get("category"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	items := make([]pendingItem, 0, len(articles))
	for _, a := range articles {
		items = append(items, pendingItem{
			ID:          a.ID,
			Title:       a.Title,
			URL:         a.URL,
			Category:    a.Category,
			PublishedAt: a.PublishedAt,
		})
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) limitParam(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return s.opts.DefaultLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0, fmt.Errorf("invalid limit %q", raw)
	}
	return min(limit, maxLimit), nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
