package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"AgenticDigest/internal/domain"
)

// LoadSources reads the category → feed list mapping from path, keeping the
// category order of the file.
func LoadSources(path string) (domain.Sources, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("sources: read %s: %w", path, err)
	}
	sources, err := ParseSources(raw)
	if err != nil {
		return nil, fmt.Errorf("sources: %s: %w", path, err)
	}
	return sources, nil
}

// ParseSources decodes a YAML mapping of category names to feed URL lists.
// An empty document yields no categories.
func ParseSources(raw []byte) (domain.Sources, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	if len(doc.Content) == 0 {
		return domain.Sources{}, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("expected a mapping of category to feed list, got %s", kindName(root.Kind))
	}

	sources := make(domain.Sources, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]

		var feeds []string
		if value.Tag != "!!null" {
			if err := value.Decode(&feeds); err != nil {
				return nil, fmt.Errorf("category %s (line %d): %w", key.Value, value.Line, err)
			}
		}

		cleaned := feeds[:0]
		for _, feed := range feeds {
			if feed = strings.TrimSpace(feed); feed != "" {
				cleaned = append(cleaned, feed)
			}
		}
		sources = append(sources, domain.SourceCategory{Name: key.Value, Feeds: cleaned})
	}
	return sources, nil
}

func kindName(kind yaml.Kind) string {
	switch kind {
	case yaml.SequenceNode:
		return "sequence"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return "document"
	}
}

// SourceFile loads sources from a YAML file on every call, so edits take
// effect on the next run.
type SourceFile string

// LoadSources implements ports.SourceLoader.
func (f SourceFile) LoadSources() (domain.Sources, error) {
	return LoadSources(string(f))
}
