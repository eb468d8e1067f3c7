package references

import (
	"encoding/json"
	"fmt"

	"github.com/wagnerlima/mozichem-hub/internal/models"
)

type linkSection struct {
	Data      map[string]string `json:"DATA"`
	Equations map[string]string `json:"EQUATIONS"`
}

// ComponentRule derives the binding rule of one component config. Labels feed
// the DATA section; a label feeds the EQUATIONS section under the property name.
func ComponentRule(cc models.ComponentConfig) models.Rule {
	rule := models.Rule{}
	for _, prop := range cc.Properties() {
		src := cc[prop]
		switch {
		case src.Label != "":
			if rule[models.ModeEquations] == nil {
				rule[models.ModeEquations] = map[string]string{}
			}
			rule[models.ModeEquations][prop] = src.Label
		case len(src.Labels) > 0:
			if rule[models.ModeData] == nil {
				rule[models.ModeData] = map[string]string{}
			}
			for name, sym := range src.Labels {
				rule[models.ModeData][name] = sym
			}
		}
	}
	return rule
}

// Rules derives the rule of every component key of cfg.
func Rules(cfg models.ReferenceConfig) map[string]models.Rule {
	out := make(map[string]models.Rule, len(cfg))
	for key, cc := range cfg {
		out[key] = ComponentRule(cc)
	}
	return out
}

// DeriveLink serializes the rules of cfg as a JSON object. Empty sections are
// written as null.
func DeriveLink(cfg models.ReferenceConfig) (string, error) {
	link := make(map[string]linkSection, len(cfg))
	for key, rule := range Rules(cfg) {
		link[key] = linkSection{
			Data:      nonEmpty(rule[models.ModeData]),
			Equations: nonEmpty(rule[models.ModeEquations]),
		}
	}
	out, err := json.Marshal(link)
	if err != nil {
		return "", fmt.Errorf("marshal reference link: %w", err)
	}
	return string(out), nil
}

// ParseLink reads a link produced by DeriveLink.
func ParseLink(link string) (map[string]models.Rule, error) {
	var raw map[string]linkSection
	if err := json.Unmarshal([]byte(link), &raw); err != nil {
		return nil, fmt.Errorf("parse reference link: %w", err)
	}
	out := make(map[string]models.Rule, len(raw))
	for key, sec := range raw {
		rule := models.Rule{}
		if sec.Data != nil {
			rule[models.ModeData] = sec.Data
		}
		if sec.Equations != nil {
			rule[models.ModeEquations] = sec.Equations
		}
		out[key] = rule
	}
	return out, nil
}

func nonEmpty(m map[string]string) map[string]string {
	if len(m) == 0 {
		return nil
	}
	return m
}
