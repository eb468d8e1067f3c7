package references

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wagnerlima/mozichem-hub/internal/errs"
	"github.com/wagnerlima/mozichem-hub/internal/models"
)

// ParseConfig reads a reference config from text. Both indented YAML blocks and
// inline mappings (including JSON) are accepted.
func ParseConfig(text string) (models.ReferenceConfig, error) {
	if isNone(text) {
		return nil, errs.New(errs.KindInvalidReference, "reference config is empty")
	}
	var raw any
	if err := yaml.Unmarshal([]byte(text), &raw); err != nil {
		return nil, errs.Wrap(errs.KindInvalidReference, err, "reference config is not a valid mapping")
	}
	if _, ok := asMap(raw); !ok {
		return nil, errs.New(errs.KindInvalidReference, "reference config must be a mapping, got %q", strings.TrimSpace(text))
	}
	return ConfigFromValue(raw)
}

// ConfigFromValue normalizes a native value into a ReferenceConfig. Property
// sources may be records or plain mappings.
func ConfigFromValue(v any) (models.ReferenceConfig, error) {
	var (
		cfg models.ReferenceConfig
		err error
	)
	switch c := v.(type) {
	case models.ReferenceConfig:
		cfg = CloneConfig(c)
	case map[string]models.ComponentConfig:
		cfg = CloneConfig(models.ReferenceConfig(c))
	case map[string]map[string]models.ComponentPropertySource:
		cfg = models.ReferenceConfig{}
		for k, props := range c {
			cfg[k] = models.ComponentConfig(props)
		}
		cfg = CloneConfig(cfg)
	case string:
		return ParseConfig(c)
	default:
		top, ok := asMap(v)
		if !ok {
			return nil, errs.New(errs.KindInvalidReference, "reference config must be a mapping, got %T", v)
		}
		cfg, err = configFromMap(top)
		if err != nil {
			return nil, err
		}
	}
	if len(cfg) == 0 {
		return nil, errs.New(errs.KindInvalidReference, "reference config has no component key")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func configFromMap(top map[string]any) (models.ReferenceConfig, error) {
	cfg := make(models.ReferenceConfig, len(top))
	for key, v := range top {
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, errs.New(errs.KindInvalidReference, "reference config has an empty component key")
		}
		props, ok := asMap(v)
		if !ok {
			return nil, errs.New(errs.KindInvalidReference, "component %q: expected a mapping of properties, got %T", key, v)
		}
		cc := make(models.ComponentConfig, len(props))
		for prop, pv := range props {
			src, err := sourceFromValue(pv)
			if err != nil {
				return nil, errs.Wrap(errs.KindInvalidReference, err, "component %q property %q", key, prop)
			}
			cc[strings.TrimSpace(prop)] = src
		}
		cfg[key] = cc
	}
	return cfg, nil
}

func sourceFromValue(v any) (models.ComponentPropertySource, error) {
	switch s := v.(type) {
	case models.ComponentPropertySource:
		return s, nil
	case *models.ComponentPropertySource:
		if s == nil {
			return models.ComponentPropertySource{}, fmt.Errorf("nil property source")
		}
		return *s, nil
	}
	m, ok := asMap(v)
	if !ok {
		return models.ComponentPropertySource{}, fmt.Errorf("expected a property source mapping, got %T", v)
	}
	var src models.ComponentPropertySource
	for k, val := range m {
		switch strings.ToLower(strings.TrimSpace(k)) {
		case "databook":
			src.Databook = strings.TrimSpace(toString(val))
		case "table":
			src.Table = strings.TrimSpace(toString(val))
		case "mode":
			src.Mode = models.Mode(strings.ToUpper(strings.TrimSpace(toString(val))))
		case "label":
			if l := strings.TrimSpace(toString(val)); l != none {
				src.Label = l
			}
		case "labels":
			if val == nil {
				continue
			}
			if s, ok := val.(string); ok && isNone(s) {
				continue
			}
			lm, ok := asMap(val)
			if !ok {
				return src, fmt.Errorf("labels must be a mapping, got %T", val)
			}
			src.Labels = make(map[string]string, len(lm))
			for name, sym := range lm {
				src.Labels[strings.TrimSpace(name)] = strings.TrimSpace(toString(sym))
			}
		default:
			return src, fmt.Errorf("unknown field %q", k)
		}
	}
	return src, nil
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	case map[string]string:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[k] = val
		}
		return out, true
	default:
		return nil, false
	}
}

// SerializeConfig renders cfg as YAML with sorted keys.
func SerializeConfig(cfg models.ReferenceConfig) (string, error) {
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("marshal reference config: %w", err)
	}
	return string(out), nil
}

// CloneConfig returns a deep copy of cfg.
func CloneConfig(cfg models.ReferenceConfig) models.ReferenceConfig {
	if cfg == nil {
		return nil
	}
	out := make(models.ReferenceConfig, len(cfg))
	for key, cc := range cfg {
		out[key] = CloneComponentConfig(cc)
	}
	return out
}

// CloneComponentConfig returns a deep copy of cc.
func CloneComponentConfig(cc models.ComponentConfig) models.ComponentConfig {
	out := make(models.ComponentConfig, len(cc))
	for prop, src := range cc {
		if src.Labels != nil {
			labels := make(map[string]string, len(src.Labels))
			for k, v := range src.Labels {
				labels[k] = v
			}
			src.Labels = labels
		}
		out[prop] = src
	}
	return out
}

// MergeConfig returns base overlaid by override. An override entry replaces the
// base entry for the same component key.
func MergeConfig(base, override models.ReferenceConfig) models.ReferenceConfig {
	out := CloneConfig(base)
	if out == nil {
		out = models.ReferenceConfig{}
	}
	for key, cc := range override {
		out[key] = CloneComponentConfig(cc)
	}
	return out
}
