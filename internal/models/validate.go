package models

import (
	"math"
	"sort"
	"strings"

	"github.com/wagnerlima/mozichem-hub/internal/errs"
)

// MoleFractionTolerance bounds |Σx - 1| for mixtures.
const MoleFractionTolerance = 1e-6

var stateAliases = map[string]string{
	"g":       "g",
	"gas":     "g",
	"v":       "g",
	"vapor":   "g",
	"l":       "l",
	"liquid":  "l",
	"s":       "s",
	"solid":   "s",
	"aq":      "aq",
	"aqueous": "aq",
}

// NormalizeState maps long state names to their short tags. Unknown values
// are returned trimmed and lower-cased.
func NormalizeState(state string) string {
	s := strings.ToLower(strings.TrimSpace(state))
	if short, ok := stateAliases[s]; ok {
		return short
	}
	return s
}

// ValidState reports whether state is one of g, l, s, aq (or a long alias).
func ValidState(state string) bool {
	_, ok := stateAliases[strings.ToLower(strings.TrimSpace(state))]
	return ok
}

// Normalize returns a copy with trimmed identifiers and a short state tag.
func (c Component) Normalize() Component {
	c.Name = strings.TrimSpace(c.Name)
	c.Formula = strings.TrimSpace(c.Formula)
	c.State = NormalizeState(c.State)
	return c
}

// Validate checks identity fields and the mole fraction range.
func (c Component) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return errs.New(errs.KindInvalidArgument, "component name is required")
	}
	if strings.TrimSpace(c.Formula) == "" {
		return errs.New(errs.KindInvalidArgument, "component %q: formula is required", c.Name)
	}
	if !ValidState(c.State) {
		return errs.New(errs.KindInvalidArgument, "component %q: invalid state %q (allowed: g, l, s, aq)", c.Name, c.State)
	}
	if c.MoleFraction != nil {
		x := *c.MoleFraction
		if math.IsNaN(x) || x < 0 || x > 1 {
			return errs.New(errs.KindInvalidArgument, "component %q: mole fraction %v outside [0, 1]", c.Name, x)
		}
	}
	return nil
}

// ValidateMixture checks a component list for a mixture call: non-empty,
// every component valid, and present mole fractions summing to 1.
func ValidateMixture(components []Component, requireFractions bool) error {
	if len(components) == 0 {
		return errs.New(errs.KindInvalidArgument, "components must not be empty")
	}
	var (
		sum     float64
		present int
		seen    = make(map[string]bool, len(components))
	)
	for _, c := range components {
		if err := c.Validate(); err != nil {
			return err
		}
		key := c.NameStateKey()
		if seen[key] {
			return errs.New(errs.KindInvalidArgument, "component %q listed more than once", key)
		}
		seen[key] = true
		if c.MoleFraction != nil {
			sum += *c.MoleFraction
			present++
		}
	}
	if requireFractions && present != len(components) {
		return errs.New(errs.KindInvalidArgument, "every component needs a mole fraction (%d of %d given)", present, len(components))
	}
	if present > 0 && math.Abs(sum-1) > MoleFractionTolerance {
		return errs.New(errs.KindInvalidArgument, "mole fractions sum to %.9g, expected 1 ± %g", sum, MoleFractionTolerance)
	}
	return nil
}

// Validate checks a temperature.
func (t Temperature) Validate() error {
	return Quantity(t).validate("temperature")
}

// Validate checks a pressure.
func (p Pressure) Validate() error {
	return Quantity(p).validate("pressure")
}

func (q Quantity) validate(what string) error {
	if math.IsNaN(q.Value) || math.IsInf(q.Value, 0) {
		return errs.New(errs.KindInvalidArgument, "%s value must be finite", what)
	}
	if strings.TrimSpace(q.Unit) == "" {
		return errs.New(errs.KindInvalidArgument, "%s unit is required", what)
	}
	return nil
}

// Validate enforces label/labels exclusivity and the required location fields.
func (s ComponentPropertySource) Validate() error {
	if strings.TrimSpace(s.Databook) == "" {
		return errs.New(errs.KindReferenceConfigInvalid, "databook is required")
	}
	if strings.TrimSpace(s.Table) == "" {
		return errs.New(errs.KindReferenceConfigInvalid, "table is required")
	}
	hasLabel := strings.TrimSpace(s.Label) != ""
	hasLabels := len(s.Labels) > 0
	if hasLabel == hasLabels {
		return errs.New(errs.KindReferenceConfigInvalid, "exactly one of label or labels must be set (databook %q, table %q)", s.Databook, s.Table)
	}
	switch s.Mode {
	case ModeData, ModeEquations:
	default:
		return errs.New(errs.KindReferenceConfigInvalid, "invalid mode %q (allowed: DATA, EQUATIONS)", s.Mode)
	}
	return nil
}

// Validate checks every property source of every component key.
func (rc ReferenceConfig) Validate() error {
	for _, key := range rc.Keys() {
		cfg := rc[key]
		for _, prop := range cfg.Properties() {
			if err := cfg[prop].Validate(); err != nil {
				return errs.Wrap(errs.KindReferenceConfigInvalid, err, "component %q property %q", key, prop)
			}
		}
	}
	return nil
}

// Keys returns the component keys in sorted order.
func (rc ReferenceConfig) Keys() []string {
	keys := make([]string, 0, len(rc))
	for k := range rc {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Properties returns the property names in sorted order.
func (cc ComponentConfig) Properties() []string {
	props := make([]string, 0, len(cc))
	for p := range cc {
		props = append(props, p)
	}
	sort.Strings(props)
	return props
}
