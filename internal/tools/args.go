package tools

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/wagnerlima/mozichem-hub/internal/engine/units"
	"github.com/wagnerlima/mozichem-hub/internal/errs"
	"github.com/wagnerlima/mozichem-hub/internal/models"
)

// Argument names shared by several tools.
const (
	ArgComponent        = "component"
	ArgComponents       = "components"
	ArgTemperature      = "temperature"
	ArgPressure         = "pressure"
	ArgEOSModel         = "eos_model"
	ArgSolverMethod     = "solver_method"
	ArgReferenceContent = "custom_reference_content"
	ArgReferenceConfig  = "custom_reference_config"
)

// Args are the decoded JSON arguments of a tool call.
type Args map[string]any

// decode re-reads the argument name into out through its JSON form, so both
// wire maps and native Go values are accepted.
func (a Args) decode(name string, out any) error {
	v, ok := a[name]
	if !ok || v == nil {
		return errs.New(errs.KindInvalidArgument, "argument %s is required", name)
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return errs.Wrap(errs.KindInvalidArgument, err, "argument %s", name)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errs.Wrap(errs.KindInvalidArgument, err, "argument %s", name)
	}
	return nil
}

// String returns a text argument, or def when it is absent.
func (a Args) String(name, def string) (string, error) {
	v, ok := a[name]
	if !ok || v == nil {
		return def, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", errs.New(errs.KindInvalidArgument, "argument %s must be text, got %T", name, v)
	}
	return strings.TrimSpace(s), nil
}

// Component returns a validated, normalized component argument.
func (a Args) Component(name string) (models.Component, error) {
	var c models.Component
	if err := a.decode(name, &c); err != nil {
		return c, err
	}
	if err := c.Validate(); err != nil {
		return c, err
	}
	return c.Normalize(), nil
}

// Components returns a validated component list. When fractions is true
// every component must carry a mole fraction.
func (a Args) Components(name string, fractions bool) ([]models.Component, error) {
	var cs []models.Component
	if err := a.decode(name, &cs); err != nil {
		return nil, err
	}
	if err := models.ValidateMixture(cs, fractions); err != nil {
		return nil, err
	}
	for i := range cs {
		cs[i] = cs[i].Normalize()
	}
	return cs, nil
}

// Kelvin returns a temperature argument in K.
func (a Args) Kelvin(name string) (float64, error) {
	var t models.Temperature
	if err := a.decode(name, &t); err != nil {
		return 0, err
	}
	if err := t.Validate(); err != nil {
		return 0, err
	}
	k, err := units.ToKelvin(t.Value, t.Unit)
	if err != nil {
		return 0, errs.Wrap(errs.KindInvalidArgument, err, "argument %s", name)
	}
	if k <= 0 {
		return 0, errs.New(errs.KindInvalidArgument, "argument %s is below absolute zero", name)
	}
	return k, nil
}

// Pascal returns a pressure argument in Pa.
func (a Args) Pascal(name string) (float64, error) {
	var p models.Pressure
	if err := a.decode(name, &p); err != nil {
		return 0, err
	}
	if err := p.Validate(); err != nil {
		return 0, err
	}
	pa, err := units.ToPascal(p.Value, p.Unit)
	if err != nil {
		return 0, errs.Wrap(errs.KindInvalidArgument, err, "argument %s", name)
	}
	if pa <= 0 {
		return 0, errs.New(errs.KindInvalidArgument, "argument %s must be positive", name)
	}
	return pa, nil
}

func fractions(cs []models.Component) []float64 {
	out := make([]float64, len(cs))
	for i, c := range cs {
		out[i] = c.Fraction()
	}
	return out
}

func invalid(err error, format string, args ...any) error {
	return errs.Wrap(errs.KindInvalidArgument, err, format, args...)
}

func execution(err error, format string, args ...any) error {
	return errs.Wrap(errs.KindToolExecutionError, err, format, args...)
}

func quantity(value float64, unit string) models.Quantity {
	return models.Quantity{Value: value, Unit: unit}
}

func describe(c models.Component) string {
	return fmt.Sprintf("%s (%s, %s)", c.Name, c.Formula, c.State)
}
