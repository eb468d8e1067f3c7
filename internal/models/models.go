package models

import (
	"strings"
)

// ALL is the component key that applies to every component without its own entry.
const ALL = "ALL"

// Component key tags describe which identifier a thermodb is keyed by.
const (
	ComponentKeyNameState    = "Name-State"
	ComponentKeyFormulaState = "Formula-State"
)

// KeyMode selects which identifier is handed to a databook resolver.
type KeyMode string

const (
	KeyByName    KeyMode = "name"
	KeyByFormula KeyMode = "formula"
)

// Component identifies a chemical species in a given phase state.
type Component struct {
	Name         string   `json:"name" yaml:"name"`
	Formula      string   `json:"formula" yaml:"formula"`
	State        string   `json:"state" yaml:"state"`
	MoleFraction *float64 `json:"mole_fraction,omitempty" yaml:"mole_fraction,omitempty"`
}

// NameStateKey returns "{name}-{state}".
func (c Component) NameStateKey() string {
	return strings.TrimSpace(c.Name) + "-" + NormalizeState(c.State)
}

// FormulaStateKey returns "{formula}-{state}".
func (c Component) FormulaStateKey() string {
	return strings.TrimSpace(c.Formula) + "-" + NormalizeState(c.State)
}

// Key returns the component key for the given mode.
func (c Component) Key(mode KeyMode) string {
	if mode == KeyByFormula {
		return c.FormulaStateKey()
	}
	return c.NameStateKey()
}

// Keys returns both keys, name-state first.
func (c Component) Keys() []string {
	return []string{c.NameStateKey(), c.FormulaStateKey()}
}

// Fraction returns the mole fraction, or 0 when it is not set.
func (c Component) Fraction() float64 {
	if c.MoleFraction == nil {
		return 0
	}
	return *c.MoleFraction
}

// Quantity is a value with a free-form unit token.
type Quantity struct {
	Value float64 `json:"value" yaml:"value"`
	Unit  string  `json:"unit" yaml:"unit"`
}

// Temperature is a temperature value with its unit (K, C, F, R).
type Temperature Quantity

// Pressure is a pressure value with its unit (Pa, kPa, MPa, bar, atm, psi, mmHg).
type Pressure Quantity

// Mode tells whether a property source is tabulated data or an equation.
type Mode string

const (
	ModeData      Mode = "DATA"
	ModeEquations Mode = "EQUATIONS"
)

// ComponentPropertySource binds one property to a table of a databook.
// Exactly one of Label (equations) or Labels (data) is set.
type ComponentPropertySource struct {
	Databook string            `json:"databook" yaml:"databook"`
	Table    string            `json:"table" yaml:"table"`
	Mode     Mode              `json:"mode" yaml:"mode"`
	Label    string            `json:"label,omitempty" yaml:"label,omitempty"`
	Labels   map[string]string `json:"labels,omitempty" yaml:"labels,omitempty"`
}

// ComponentConfig maps a property name to its source.
type ComponentConfig map[string]ComponentPropertySource

// ReferenceConfig maps a component key (or ALL) to its properties.
type ReferenceConfig map[string]ComponentConfig

// Rule maps a section (DATA or EQUATIONS) to logical-name -> symbol bindings.
type Rule map[Mode]map[string]string

// References is the user-facing reference bundle.
type References struct {
	Contents []string        `json:"contents"`
	Config   ReferenceConfig `json:"config"`
	Link     string          `json:"link"`
}

// ReferencesThermoDB is the fully-resolved bundle a Hub consumes.
type ReferencesThermoDB struct {
	Reference    map[string]string          `json:"reference"`
	Contents     []string                   `json:"contents"`
	Configs      map[string]ComponentConfig `json:"configs"`
	Rules        map[string]Rule            `json:"rules"`
	Labels       map[string][]string        `json:"labels"`
	IgnoreLabels map[string][]string        `json:"ignore_labels"`
	IgnoreProps  map[string][]string        `json:"ignore_props"`
}

// NewReferencesThermoDB returns an empty bundle with all maps allocated.
func NewReferencesThermoDB() *ReferencesThermoDB {
	return &ReferencesThermoDB{
		Reference:    map[string]string{},
		Configs:      map[string]ComponentConfig{},
		Rules:        map[string]Rule{},
		Labels:       map[string][]string{},
		IgnoreLabels: map[string][]string{},
		IgnoreProps:  map[string][]string{},
	}
}
