package domain

import (
	"strings"
	"time"
)

const (
	// DefaultCategory is used when a record carries no category.
	DefaultCategory = "General"
	// UnknownPublished marks entries whose feed gave no publication date.
	UnknownPublished = "N/A"
	// UntitledEntry is the fallback title for feed entries without one.
	UntitledEntry = "No title"
)

// SourceCategory lists the feed endpoints configured under one category.
type SourceCategory struct {
	Name  string
	Feeds []string
}

// Sources is the ordered category list read from the sources file.
type Sources []SourceCategory

// FeedCount returns the number of endpoints across all categories.
func (s Sources) FeedCount() int {
	total := 0
	for _, c := range s {
		total += len(c.Feeds)
	}
	return total
}

// FeedEntry is a normalized item pulled from a syndication feed.
type FeedEntry struct {
	Title     string
	Link      string
	Published string
	Summary   string
}

// CategoryFeed groups the entries fetched for one configured category.
type CategoryFeed struct {
	Category string
	Entries  []FeedEntry
}

// Extracted is the readable text recovered from an article page.
// An empty Content means extraction failed and the entry must be skipped.
type Extracted struct {
	Title   string
	Content string
}

// Empty reports whether nothing usable was extracted.
func (e Extracted) Empty() bool {
	return strings.TrimSpace(e.Content) == ""
}

// Article is a persisted record. A nil SummaryBrief means the record is
// still pending summarization.
type Article struct {
	ID              int64
	URL             string
	Title           string
	PublishedAt     string
	Content         string
	Fingerprint     string
	Category        string
	SummaryBrief    *string
	SummaryExtended *string
	CreatedAt       time.Time
}

// Pending reports whether the record still awaits a brief summary.
func (a Article) Pending() bool {
	return a.SummaryBrief == nil
}

// CategoryOrDefault returns the record category or DefaultCategory.
func (a Article) CategoryOrDefault() string {
	if strings.TrimSpace(a.Category) == "" {
		return DefaultCategory
	}
	return a.Category
}

// Brief returns the brief summary or an empty string.
func (a Article) Brief() string {
	if a.SummaryBrief == nil {
		return ""
	}
	return *a.SummaryBrief
}

// Extended returns the extended summary or an empty string.
func (a Article) Extended() string {
	if a.SummaryExtended == nil {
		return ""
	}
	return *a.SummaryExtended
}

// Stats summarizes the record store contents.
type Stats struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	Summarized int `json:"summarized"`
}

// IngestReport describes one ingestion run.
type IngestReport struct {
	RunID      string
	Entries    int
	Inserted   int
	Duplicates int
	Skipped    int
}

// SummarizeReport describes one summarization run.
type SummarizeReport struct {
	RunID      string
	Pending    int
	Summarized int
	Failed     int
}
