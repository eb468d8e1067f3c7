package thermodb

import (
	"fmt"
	"slices"
	"strings"

	"github.com/wagnerlima/mozichem-hub/internal/models"
	"github.com/wagnerlima/mozichem-hub/internal/references"
)

// DataValue is a tabulated property value.
type DataValue struct {
	Symbol   string  `json:"symbol"`
	Value    float64 `json:"value"`
	Unit     string  `json:"unit"`
	Databook string  `json:"databook"`
	Table    string  `json:"table"`
}

// ComponentThermoDB is the compiled database of one component.
type ComponentThermoDB struct {
	Component    models.Component     `json:"component"`
	ComponentKey string               `json:"component_key"`
	Data         map[string]DataValue `json:"data"`
	Equations    map[string]*Equation `json:"equations"`
}

// Hints relax the lookup for selected properties and labels.
type Hints struct {
	// IgnoreStateProps lists properties (config property name, table name or
	// symbol) matched regardless of the component state.
	IgnoreStateProps []string
	// IgnoreLabels lists symbols whose values may be missing.
	IgnoreLabels []string
}

func (h Hints) ignoresState(names ...string) bool {
	for _, n := range names {
		for _, p := range h.IgnoreStateProps {
			if strings.EqualFold(p, n) {
				return true
			}
		}
	}
	return false
}

func (h Hints) ignoresLabel(symbol string) bool {
	return slices.Contains(h.IgnoreLabels, symbol)
}

// Build compiles the thermodb of c from the properties of cfg. The rule, when
// it binds a logical name, takes precedence over the labels of cfg. by selects
// which identifier is matched against table rows.
func Build(corpus *references.Corpus, c models.Component, by models.KeyMode, cfg models.ComponentConfig, rule models.Rule, hints Hints) (*ComponentThermoDB, error) {
	c = c.Normalize()
	ctdb := &ComponentThermoDB{
		Component:    c,
		ComponentKey: models.ComponentKeyNameState,
		Data:         map[string]DataValue{},
		Equations:    map[string]*Equation{},
	}
	id := c.Name
	if by == models.KeyByFormula {
		ctdb.ComponentKey = models.ComponentKeyFormulaState
		id = c.Formula
	}

	for _, prop := range cfg.Properties() {
		src := cfg[prop]
		table, ok := corpus.Table(src.Databook, src.Table)
		if !ok {
			return nil, fmt.Errorf("property %s: table %s/%s not found", prop, src.Databook, src.Table)
		}

		symbols := boundSymbols(src)
		ignoreState := hints.ignoresState(append([]string{prop, table.Name}, symbols...)...)
		row, ok := table.FindRowBy(id, by, c.State, ignoreState)
		if !ok {
			if allIgnored(hints, symbols) {
				continue
			}
			return nil, fmt.Errorf("property %s: %s (state %s) not found in %s/%s", prop, id, c.State, src.Databook, src.Table)
		}

		switch src.Mode {
		case models.ModeData:
			for _, name := range sortedNames(src.Labels) {
				symbol := src.Labels[name]
				if bound, ok := rule[models.ModeData][name]; ok && bound != "" {
					symbol = bound
				}
				v, ok := table.Value(row, symbol)
				if !ok {
					if hints.ignoresLabel(symbol) {
						continue
					}
					return nil, fmt.Errorf("property %s: no value for %s in %s/%s", prop, symbol, src.Databook, src.Table)
				}
				ctdb.Data[name] = DataValue{Symbol: symbol, Value: v, Unit: table.Unit(symbol), Databook: src.Databook, Table: table.Name}
			}
		case models.ModeEquations:
			symbol := src.Label
			if bound, ok := rule[models.ModeEquations][prop]; ok && bound != "" {
				symbol = bound
			}
			spec, ok := table.Equation(symbol)
			if !ok {
				if hints.ignoresLabel(symbol) {
					continue
				}
				return nil, fmt.Errorf("property %s: no equation returns %s in %s/%s", prop, symbol, src.Databook, src.Table)
			}
			eq, err := CompileEquation(spec, table.Parameters(row))
			if err != nil {
				return nil, fmt.Errorf("property %s: %w", prop, err)
			}
			ctdb.Equations[prop] = eq
		default:
			return nil, fmt.Errorf("property %s: invalid mode %q", prop, src.Mode)
		}
	}
	return ctdb, nil
}

// Properties lists the data names and equation names held by the thermodb.
func (t *ComponentThermoDB) Properties() []string {
	out := make([]string, 0, len(t.Data)+len(t.Equations))
	for name := range t.Data {
		out = append(out, name)
	}
	for name := range t.Equations {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

func boundSymbols(src models.ComponentPropertySource) []string {
	if src.Label != "" {
		return []string{src.Label}
	}
	out := make([]string, 0, len(src.Labels))
	for _, name := range sortedNames(src.Labels) {
		out = append(out, src.Labels[name])
	}
	return out
}

func allIgnored(h Hints, symbols []string) bool {
	if len(symbols) == 0 {
		return false
	}
	for _, s := range symbols {
		if !h.ignoresLabel(s) {
			return false
		}
	}
	return true
}

func sortedNames(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
