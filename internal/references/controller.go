package references

import (
	"strings"

	"github.com/wagnerlima/mozichem-hub/internal/errs"
	"github.com/wagnerlima/mozichem-hub/internal/models"
)

// Transform normalizes user-supplied reference content and config into
// References. Content may be nil, a string, or a list of strings. Config may be
// nil, text, or a mapping. Missing parts fall back to the bundled defaults.
func Transform(content, config any) (models.References, error) {
	contents, err := ContentsFromValue(content)
	if err != nil {
		return models.References{}, err
	}
	if len(contents) == 0 {
		contents = []string{defaultContent}
	} else if _, err := Parse(contents...); err != nil {
		return models.References{}, err
	}

	var cfg models.ReferenceConfig
	if ConfigProvided(config) {
		cfg, err = ConfigFromValue(config)
	} else {
		cfg, err = DefaultConfig()
	}
	if err != nil {
		return models.References{}, err
	}

	link, err := DeriveLink(cfg)
	if err != nil {
		return models.References{}, errs.Wrap(errs.KindInvalidReference, err, "derive reference link")
	}
	return models.References{Contents: contents, Config: cfg, Link: link}, nil
}

// ContentsFromValue returns the non-empty contents held by v.
func ContentsFromValue(v any) ([]string, error) {
	switch c := v.(type) {
	case nil:
		return nil, nil
	case string:
		if isNone(c) {
			return nil, nil
		}
		return []string{c}, nil
	case []string:
		return filterContents(c), nil
	case []any:
		list := make([]string, 0, len(c))
		for i, item := range c {
			s, ok := item.(string)
			if !ok {
				return nil, errs.New(errs.KindInvalidReference, "reference content item %d must be text, got %T", i, item)
			}
			list = append(list, s)
		}
		return filterContents(list), nil
	default:
		return nil, errs.New(errs.KindInvalidReference, "reference content must be text or a list of text, got %T", v)
	}
}

// ContentProvided reports whether v carries reference content.
func ContentProvided(v any) bool {
	contents, err := ContentsFromValue(v)
	return err != nil || len(contents) > 0
}

// ConfigProvided reports whether v carries a reference config. Nil, empty text
// and the "None" sentinel do not.
func ConfigProvided(v any) bool {
	switch c := v.(type) {
	case nil:
		return false
	case string:
		return !isNone(c)
	case models.ReferenceConfig:
		return len(c) > 0
	case map[string]any:
		return len(c) > 0
	default:
		return true
	}
}

func filterContents(in []string) []string {
	var out []string
	for _, s := range in {
		if !isNone(s) {
			out = append(out, strings.TrimRight(s, " \t"))
		}
	}
	return out
}
