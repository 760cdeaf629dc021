package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"AgenticDigest/internal/domain"
	"AgenticDigest/internal/ports"
)

// ErrNotFound is returned when an update targets an id that does not exist.
var ErrNotFound = errors.New("article not found")

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

const schema = `
CREATE TABLE IF NOT EXISTS articles (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	url              TEXT NOT NULL,
	title            TEXT NOT NULL DEFAULT '',
	published_at     TEXT NOT NULL DEFAULT '',
	content          TEXT NOT NULL,
	hash             TEXT NOT NULL,
	category         TEXT NOT NULL DEFAULT '',
	summary_brief    TEXT,
	summary_extended TEXT,
	created_at       TEXT NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_articles_hash ON articles(hash);
CREATE INDEX IF NOT EXISTS idx_articles_published ON articles(published_at DESC);
`

var articleColumns = []string{
	"id", "url", "title", "published_at", "content", "hash",
	"category", "summary_brief", "summary_extended", "created_at",
}

// SQLiteRepository persists article records in a single SQLite file.
type SQLiteRepository struct {
	db  *sql.DB
	sb  sq.StatementBuilderType
	now func() time.Time
}

var _ ports.ArticleRepository = (*SQLiteRepository)(nil)

// Open creates the parent directory if needed, opens the database at path
// and applies the schema.
func Open(ctx context.Context, path string) (*SQLiteRepository, error) {
	if path != MemoryPath {
		if dir := filepath.Dir(path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create db dir: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection: the store has a single writer and :memory: databases
	// are per connection.
	db.SetMaxOpenConns(1)

	pragmas := []string{"PRAGMA busy_timeout=5000"}
	if path != MemoryPath {
		pragmas = append(pragmas, "PRAGMA journal_mode=WAL", "PRAGMA synchronous=NORMAL")
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}

	repo := NewSQLiteRepository(db)
	if err := repo.ApplySchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// NewSQLiteRepository wires an already opened sql.DB. Call ApplySchema
// before use unless the database came from Open.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{
		db:  db,
		sb:  sq.StatementBuilder.PlaceholderFormat(sq.Question),
		now: time.Now,
	}
}

// ApplySchema creates the articles table and its indexes if absent.
func (r *SQLiteRepository) ApplySchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Close releases the underlying database.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// InsertArticle stores the record unless its fingerprint already exists.
// It reports whether a row was written.
func (r *SQLiteRepository) InsertArticle(ctx context.Context, article domain.Article) (bool, error) {
	created := article.CreatedAt
	if created.IsZero() {
		created = r.now()
	}

	query, args, err := r.sb.Insert("articles").
		Columns("url", "title", "published_at", "content", "hash", "category",
			"summary_brief", "summary_extended", "created_at").
		Values(article.URL, article.Title, article.PublishedAt, article.Content,
			article.Fingerprint, article.Category,
			nullable(article.SummaryBrief), nullable(article.SummaryExtended),
			created.UTC().Format(time.RFC3339)).
		Suffix("ON CONFLICT(hash) DO NOTHING").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build insert: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("insert article: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert article rows: %w", err)
	}
	return n > 0, nil
}

// GetPending returns up to limit records without a brief summary, newest
// first. An empty category matches every record.
func (r *SQLiteRepository) GetPending(ctx context.Context, limit int, category string) ([]domain.Article, error) {
	if limit <= 0 {
		return nil, nil
	}

	qb := r.sb.Select(articleColumns...).From("articles").
		Where(sq.Eq{"summary_brief": nil}).
		OrderBy("published_at DESC", "id DESC").
		Limit(uint64(limit))
	if category != "" {
		qb = qb.Where(sq.Eq{"category": category})
	}
	return r.queryArticles(ctx, qb, "pending")
}

// GetSummarized returns up to limit records that have a brief summary,
// newest first.
func (r *SQLiteRepository) GetSummarized(ctx context.Context, limit int) ([]domain.Article, error) {
	if limit <= 0 {
		return nil, nil
	}

	qb := r.sb.Select(articleColumns...).From("articles").
		Where(sq.NotEq{"summary_brief": nil}).
		OrderBy("published_at DESC", "id DESC").
		Limit(uint64(limit))
	return r.queryArticles(ctx, qb, "summarized")
}

// UpdateSummary sets both summary fields of the record with id.
func (r *SQLiteRepository) UpdateSummary(ctx context.Context, id int64, brief, extended string) error {
	query, args, err := r.sb.Update("articles").
		Set("summary_brief", brief).
		Set("summary_extended", extended).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update summary %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update summary %d rows: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("update summary %d: %w", id, ErrNotFound)
	}
	return nil
}

// ResetRecent clears the summaries of the n most recent records so they are
// picked up again by the summarizer. It returns the affected ids.
func (r *SQLiteRepository) ResetRecent(ctx context.Context, n int) ([]int64, error) {
	if n <= 0 {
		return nil, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin reset: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query, args, err := r.sb.Select("id").From("articles").
		OrderBy("published_at DESC", "id DESC").
		Limit(uint64(n)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build recent ids: %w", err)
	}

	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query recent ids: %w", err)
	}
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	if err := rows.Close(); err != nil {
		return nil, fmt.Errorf("close rows: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	query, args, err = r.sb.Update("articles").
		Set("summary_brief", nil).
		Set("summary_extended", nil).
		Where(sq.Eq{"id": ids}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build reset: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("reset summaries: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit reset: %w", err)
	}
	return ids, nil
}

// Stats counts stored, pending and summarized records.
func (r *SQLiteRepository) Stats(ctx context.Context) (domain.Stats, error) {
	query, args, err := r.sb.Select(
		"COUNT(*)",
		"COALESCE(SUM(CASE WHEN summary_brief IS NULL THEN 1 ELSE 0 END), 0)",
	).From("articles").ToSql()
	if err != nil {
		return domain.Stats{}, fmt.Errorf("build stats: %w", err)
	}

	var stats domain.Stats
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&stats.Total, &stats.Pending); err != nil {
		return domain.Stats{}, fmt.Errorf("query stats: %w", err)
	}
	stats.Summarized = stats.Total - stats.Pending
	return stats, nil
}

func (r *SQLiteRepository) queryArticles(ctx context.Context, qb sq.SelectBuilder, label string) ([]domain.Article, error) {
	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build %s query: %w", label, err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", label, err)
	}

	var result []domain.Article
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan %s: %w", label, err)
		}
		result = append(result, article)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}
	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}
	return result, nil
}

func scanArticle(rows *sql.Rows) (domain.Article, error) {
	var a domain.Article
	var brief, extended sql.NullString
	var created string
	if err := rows.Scan(&a.ID, &a.URL, &a.Title, &a.PublishedAt, &a.Content,
		&a.Fingerprint, &a.Category, &brief, &extended, &created); err != nil {
		return domain.Article{}, err
	}
	if brief.Valid {
		a.SummaryBrief = &brief.String
	}
	if extended.Valid {
		a.SummaryExtended = &extended.String
	}
	if ts, err := time.Parse(time.RFC3339, created); err == nil {
		a.CreatedAt = ts
	}
	return a, nil
}

func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
