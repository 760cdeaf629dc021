// Package digest renders summarized articles into an HTML document.
package digest

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"os"
	"strings"
	"time"

	"AgenticDigest/internal/domain"
)

// DefaultTitle heads the rendered document.
const DefaultTitle = "Agentic AI Digest"

//go:embed templates/digest.html
var templates embed.FS

// Entry is one article as exposed to the template.
type Entry struct {
	Title     string
	URL       string
	Published string
	Category  string
	Brief     string
	Extended  string
}

// Page is the template root.
type Page struct {
	Title       string
	GeneratedAt time.Time
	Entries     []Entry
}

// Template wraps the parsed digest template.
type Template struct {
	tmpl *template.Template
}

var funcs = template.FuncMap{
	"lines": splitLines,
}

// Default parses the embedded template.
func Default() (*Template, error) {
	raw, err := templates.ReadFile("templates/digest.html")
	if err != nil {
		return nil, fmt.Errorf("read embedded template: %w", err)
	}
	return Parse(string(raw))
}

// Load parses the template file at path, or the embedded one when path is
// empty.
func Load(path string) (*Template, error) {
	if path == "" {
		return Default()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read template %s: %w", path, err)
	}
	return Parse(string(raw))
}

// Parse builds a Template from source text.
func Parse(src string) (*Template, error) {
	tmpl, err := template.New("digest").Funcs(funcs).Parse(src)
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}
	return &Template{tmpl: tmpl}, nil
}

// Render executes the template over articles in the order given.
func (t *Template) Render(articles []domain.Article, generatedAt time.Time) (string, error) {
	page := Page{
		Title:       DefaultTitle,
		GeneratedAt: generatedAt,
		Entries:     make([]Entry, 0, len(articles)),
	}
	for _, a := range articles {
		page.Entries = append(page.Entries, Entry{
			Title:     a.Title,
			URL:       a.URL,
			Published: a.PublishedAt,
			Category:  strings.ReplaceAll(a.CategoryOrDefault(), "_", " "),
			Brief:     a.Brief(),
			Extended:  a.Extended(),
		})
	}

	var buf bytes.Buffer
	if err := t.tmpl.Execute(&buf, page); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}
	return buf.String(), nil
}

func splitLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}
