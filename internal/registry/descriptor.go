package registry

import (
	"fmt"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Argument types understood by InputSchema.
const (
	TypeComponent       = "component"
	TypeComponents      = "components"
	TypeTemperature     = "temperature"
	TypePressure        = "pressure"
	TypeReferenceConfig = "reference-config"
	TypeString          = "string"
	TypeNumber          = "number"
	TypeInteger         = "integer"
	TypeBoolean         = "boolean"
)

// Arg is one declared tool argument.
type Arg struct {
	Name        string   `yaml:"-" json:"name"`
	Type        string   `yaml:"TYPE" json:"type"`
	Description string   `yaml:"DESCRIPTION" json:"description,omitempty"`
	Required    bool     `yaml:"REQUIRED" json:"required"`
	Default     any      `yaml:"DEFAULT" json:"default,omitempty"`
	Enum        []string `yaml:"ENUM" json:"enum,omitempty"`
}

// ToolDescriptor declares one tool of a catalog.
type ToolDescriptor struct {
	Name             string         `json:"name"`
	Description      string         `json:"description"`
	Tags             []string       `json:"tags"`
	Args             []Arg          `json:"args"`
	Config           map[string]any `json:"config,omitempty"`
	ReferenceInputs  map[string]any `json:"reference_inputs,omitempty"`
	IgnoreStateProps []string       `json:"ignore_state_props,omitempty"`
}

type rawDescriptor struct {
	Name             string         `yaml:"NAME"`
	Description      string         `yaml:"DESCRIPTION"`
	Tags             []string       `yaml:"TAGS"`
	Args             yaml.Node      `yaml:"ARGS"`
	Config           map[string]any `yaml:"CONFIG"`
	ReferenceInputs  map[string]any `yaml:"REFERENCE_INPUTS"`
	IgnoreStateProps []string       `yaml:"IGNORE_STATE_PROPS"`
}

// ParseDescriptors reads a descriptor file. Top-level entries that are not
// mappings are skipped; a scalar INSTRUCTIONS entry is returned as the catalog
// instructions.
func ParseDescriptors(raw []byte) ([]ToolDescriptor, string, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, "", fmt.Errorf("parse yaml: %w", err)
	}
	if len(doc.Content) == 0 {
		return nil, "", nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, "", fmt.Errorf("descriptor root must be a mapping")
	}

	var (
		tools        []ToolDescriptor
		instructions string
	)
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i], root.Content[i+1]
		if val.Kind != yaml.MappingNode {
			if key.Value == "INSTRUCTIONS" && val.Kind == yaml.ScalarNode {
				instructions = strings.TrimSpace(val.Value)
			}
			continue
		}
		d, err := decodeDescriptor(val)
		if err != nil {
			return nil, "", fmt.Errorf("tool %s: %w", key.Value, err)
		}
		if d.Name == "" {
			d.Name = key.Value
		}
		tools = append(tools, d)
	}
	return tools, instructions, nil
}

func decodeDescriptor(n *yaml.Node) (ToolDescriptor, error) {
	var raw rawDescriptor
	if err := n.Decode(&raw); err != nil {
		return ToolDescriptor{}, err
	}
	d := ToolDescriptor{
		Name:             strings.TrimSpace(raw.Name),
		Description:      strings.TrimSpace(raw.Description),
		Tags:             raw.Tags,
		Config:           raw.Config,
		ReferenceInputs:  raw.ReferenceInputs,
		IgnoreStateProps: raw.IgnoreStateProps,
	}
	if raw.Args.Kind == 0 {
		return d, nil
	}
	if raw.Args.Kind != yaml.MappingNode {
		return ToolDescriptor{}, fmt.Errorf("ARGS must be a mapping")
	}
	for i := 0; i+1 < len(raw.Args.Content); i += 2 {
		var a Arg
		if err := raw.Args.Content[i+1].Decode(&a); err != nil {
			return ToolDescriptor{}, fmt.Errorf("arg %s: %w", raw.Args.Content[i].Value, err)
		}
		a.Name = raw.Args.Content[i].Value
		if a.Type == "" {
			a.Type = TypeString
		}
		d.Args = append(d.Args, a)
	}
	return d, nil
}

// Arg returns the declared argument called name.
func (d ToolDescriptor) Arg(name string) (Arg, bool) {
	i := slices.IndexFunc(d.Args, func(a Arg) bool { return a.Name == name })
	if i < 0 {
		return Arg{}, false
	}
	return d.Args[i], true
}

// HasTag reports whether the descriptor carries tag.
func (d ToolDescriptor) HasTag(tag string) bool {
	return slices.Contains(d.Tags, tag)
}

var stateEnum = []string{"g", "l", "s", "aq", "gas", "liquid", "solid", "aqueous"}

func componentSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name":          map[string]any{"type": "string", "minLength": 1},
			"formula":       map[string]any{"type": "string", "minLength": 1},
			"state":         map[string]any{"type": "string", "enum": stateEnum},
			"mole_fraction": map[string]any{"type": "number", "minimum": 0, "maximum": 1},
		},
		"required": []string{"name", "formula", "state"},
	}
}

func quantitySchema(what string) map[string]any {
	return map[string]any{
		"type":        "object",
		"description": what + " value and unit",
		"properties": map[string]any{
			"value": map[string]any{"type": "number"},
			"unit":  map[string]any{"type": "string", "minLength": 1},
		},
		"required": []string{"value", "unit"},
	}
}

// Schema renders the JSON Schema of one argument.
func (a Arg) Schema() map[string]any {
	var s map[string]any
	switch a.Type {
	case TypeComponent:
		s = componentSchema()
	case TypeComponents:
		s = map[string]any{"type": "array", "items": componentSchema(), "minItems": 1}
	case TypeTemperature, TypePressure:
		s = quantitySchema(a.Type)
	case TypeReferenceConfig:
		// text (YAML or JSON) or an already decoded mapping
		s = map[string]any{"type": []string{"string", "object"}}
	default:
		s = map[string]any{"type": a.Type}
	}
	if a.Description != "" {
		s["description"] = a.Description
	}
	if len(a.Enum) > 0 {
		s["enum"] = a.Enum
	}
	if a.Default != nil {
		s["default"] = a.Default
	}
	return s
}

// InputSchema renders ARGS as a JSON Schema object.
func (d ToolDescriptor) InputSchema() map[string]any {
	props := make(map[string]any, len(d.Args))
	required := []string{}
	for _, a := range d.Args {
		props[a.Name] = a.Schema()
		if a.Required {
			required = append(required, a.Name)
		}
	}
	s := map[string]any{
		"type":                 "object",
		"properties":           props,
		"additionalProperties": false,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}
