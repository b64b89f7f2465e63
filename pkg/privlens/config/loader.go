package config

import (
	"fmt"

	"github.com/cognicore/privlens/pkg/privlens/scan"
	"github.com/cognicore/privlens/pkg/privlens/vocab"
)

// Loader builds runtime components from a configuration.
type Loader struct {
	Config *Config
	// VocabularyPath overrides Config.Vocabulary.File when set.
	VocabularyPath string
}

// Components holds the components a configuration describes.
type Components struct {
	Vocabulary  *vocab.Vocabulary
	ScanOptions scan.Options
}

// Load constructs the vocabulary and scan options.
func (l *Loader) Load() (*Components, error) {
	cfg := l.Config
	if cfg == nil {
		cfg = Default()
	}

	var v *vocab.Vocabulary
	if cfg.Vocabulary.Builtin {
		v = vocab.NewDefault()
	} else {
		v = vocab.New(vocab.Table{})
	}

	for _, ct := range cfg.Vocabulary.Terms {
		v.AddUserTerms(ct.Category, ct.Terms...)
	}

	path := l.VocabularyPath
	if path == "" {
		path = cfg.Vocabulary.File
	}
	if path != "" {
		vf, err := LoadVocabulary(path)
		if err != nil {
			return nil, fmt.Errorf("load vocabulary: %w", err)
		}
		for _, ct := range vf.Categories {
			v.AddUserTerms(ct.Category, ct.Terms...)
		}
	}

	return &Components{
		Vocabulary: v,
		ScanOptions: scan.Options{
			MaxTextLength: cfg.Scan.MaxTextLength,
			SnippetRadius: cfg.Scan.SnippetRadius,
		},
	}, nil
}
