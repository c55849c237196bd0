package categorization

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Keyword is one phrase of the fuzzy keyword dictionary.
type Keyword struct {
	Phrase   string
	Category string
}

// Keywords is the fuzzy-mode dictionary in document order. Order decides
// ties between equally good phrases.
type Keywords []Keyword

// LoadKeywords reads a flat phrase -> category YAML map.
func LoadKeywords(path string) (Keywords, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read keyword file: %w", err)
	}
	kw, err := ParseKeywords(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse keyword file %s: %w", path, err)
	}
	return kw, nil
}

// ParseKeywords decodes the dictionary, keeping mapping order.
func ParseKeywords(data []byte) (Keywords, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if len(doc.Content) == 0 {
		return nil, errors.New("keyword file is empty")
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, errors.New("keyword file must contain a mapping of phrase to category")
	}

	out := make(Keywords, 0, len(root.Content)/2)
	seen := make(map[string]bool, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		k, v := root.Content[i], root.Content[i+1]
		if k.Kind != yaml.ScalarNode || v.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("line %d: phrase and category must be scalars", k.Line)
		}
		phrase := strings.TrimSpace(k.Value)
		if phrase == "" || strings.TrimSpace(v.Value) == "" {
			return nil, fmt.Errorf("line %d: empty phrase or category", k.Line)
		}
		if seen[phrase] {
			return nil, fmt.Errorf("line %d: duplicate phrase %q", k.Line, phrase)
		}
		seen[phrase] = true
		out = append(out, Keyword{Phrase: phrase, Category: strings.TrimSpace(v.Value)})
	}
	return out, nil
}

// ByCategory groups phrases per category, preserving order.
func (k Keywords) ByCategory() map[string][]string {
	out := make(map[string][]string)
	for _, kw := range k {
		out[kw.Category] = append(out[kw.Category], kw.Phrase)
	}
	return out
}
