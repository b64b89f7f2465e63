package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/privlens/pkg/privlens/internalerr"
	"github.com/cognicore/privlens/pkg/privlens/vocab"
)

// CategoryTerms is one category entry of a term table.
type CategoryTerms struct {
	Category string
	Terms    []string
}

// TermTable is a category → terms mapping that keeps file order.
type TermTable []CategoryTerms

// UnmarshalYAML decodes a mapping while preserving key order.
func (t *TermTable) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: expected a mapping of category to terms", value.Line)
	}

	out := make(TermTable, 0, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		var cat string
		if err := value.Content[i].Decode(&cat); err != nil {
			return err
		}
		var terms []string
		if err := value.Content[i+1].Decode(&terms); err != nil {
			return fmt.Errorf("category %q: %w", cat, err)
		}
		out = append(out, CategoryTerms{Category: cat, Terms: terms})
	}
	*t = out
	return nil
}

// MarshalYAML encodes the table as an ordered mapping.
func (t TermTable) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, ct := range t {
		var terms yaml.Node
		if err := terms.Encode(ct.Terms); err != nil {
			return nil, err
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: ct.Category},
			&terms,
		)
	}
	return node, nil
}

// Table converts the entries into a vocabulary table.
func (t TermTable) Table() vocab.Table {
	cats := make([]string, 0, len(t))
	m := make(map[string][]string, len(t))
	for _, ct := range t {
		if _, seen := m[ct.Category]; !seen {
			cats = append(cats, ct.Category)
		}
		m[ct.Category] = append(m[ct.Category], ct.Terms...)
	}
	return vocab.NewTable(cats, m)
}

// VocabularyFile is a standalone vocabulary document.
type VocabularyFile struct {
	Categories TermTable `yaml:"categories"`
}

// LoadVocabulary loads a vocabulary file.
func LoadVocabulary(path string) (*VocabularyFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("vocabulary %s: %w", path, internalerr.ErrNotFound)
		}
		return nil, err
	}

	var vf VocabularyFile
	if err := yaml.Unmarshal(data, &vf); err != nil {
		return nil, fmt.Errorf("parse vocabulary %s: %w: %v", path, internalerr.ErrInvalidConfig, err)
	}
	return &vf, nil
}
