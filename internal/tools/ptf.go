package tools

import (
	"context"

	"github.com/wagnerlima/mozichem-hub/internal/engine/vle"
	"github.com/wagnerlima/mozichem-hub/internal/models"
)

// PTFCore implements the flash calculation catalog.
type PTFCore struct {
	base
}

// NewPTFCore returns the flash implementation.
func NewPTFCore(d Deps) *PTFCore {
	return &PTFCore{base: newBase(d, "ptf")}
}

// Methods implements Implementation.
func (p *PTFCore) Methods() map[string]Method {
	return map[string]Method{
		"calc_bubble_pressure_ideal_vapor_ideal_liquid":    p.BubblePressure,
		"calc_dew_pressure_ideal_vapor_ideal_liquid":       p.DewPressure,
		"calc_bubble_temperature_ideal_vapor_ideal_liquid": p.BubbleTemperature,
		"calc_dew_temperature_ideal_vapor_ideal_liquid":    p.DewTemperature,
		"calc_flash_isothermal_ideal_vapor_ideal_liquid":   p.FlashIsothermal,
		"get_method_reference_inputs":                      p.MethodReferenceInputs,
	}
}

// EquilibriumPoint is a bubble or dew point result.
type EquilibriumPoint struct {
	*vle.Point
	TemperatureQuantity models.Quantity `json:"temperature_quantity"`
	PressureQuantity    models.Quantity `json:"pressure_quantity"`
}

func point(pt *vle.Point) EquilibriumPoint {
	return EquilibriumPoint{
		Point:               pt,
		TemperatureQuantity: quantity(pt.Temperature, "K"),
		PressureQuantity:    quantity(pt.Pressure, "Pa"),
	}
}

func (p *PTFCore) setup(method string, args Args) ([]models.Component, []vle.Species, error) {
	cs, err := args.Components(ArgComponents, true)
	if err != nil {
		return nil, nil, err
	}
	ms, err := p.modelSource(method, args, cs)
	if err != nil {
		return nil, nil, err
	}
	sp, err := species(ms, cs)
	if err != nil {
		return nil, nil, err
	}
	return cs, sp, nil
}

// BubblePressure computes the bubble pressure of a liquid at a temperature.
func (p *PTFCore) BubblePressure(_ context.Context, args Args) (any, error) {
	t, err := args.Kelvin(ArgTemperature)
	if err != nil {
		return nil, err
	}
	cs, sp, err := p.setup("calc_bubble_pressure_ideal_vapor_ideal_liquid", args)
	if err != nil {
		return nil, err
	}
	pt, err := vle.BubblePressure(sp, fractions(cs), t)
	if err != nil {
		return nil, execution(err, "bubble pressure")
	}
	return point(pt), nil
}

// DewPressure computes the dew pressure of a vapor at a temperature.
func (p *PTFCore) DewPressure(_ context.Context, args Args) (any, error) {
	t, err := args.Kelvin(ArgTemperature)
	if err != nil {
		return nil, err
	}
	cs, sp, err := p.setup("calc_dew_pressure_ideal_vapor_ideal_liquid", args)
	if err != nil {
		return nil, err
	}
	pt, err := vle.DewPressure(sp, fractions(cs), t)
	if err != nil {
		return nil, execution(err, "dew pressure")
	}
	return point(pt), nil
}

func (p *PTFCore) solverMethod(args Args) (vle.Method, error) {
	s, err := args.String(ArgSolverMethod, string(vle.MethodRoot))
	if err != nil {
		return "", err
	}
	m, err := vle.ParseMethod(s)
	if err != nil {
		return "", invalid(err, "argument %s", ArgSolverMethod)
	}
	return m, nil
}

// BubbleTemperature computes the bubble temperature of a liquid at a pressure.
func (p *PTFCore) BubbleTemperature(_ context.Context, args Args) (any, error) {
	pa, err := args.Pascal(ArgPressure)
	if err != nil {
		return nil, err
	}
	m, err := p.solverMethod(args)
	if err != nil {
		return nil, err
	}
	cs, sp, err := p.setup("calc_bubble_temperature_ideal_vapor_ideal_liquid", args)
	if err != nil {
		return nil, err
	}
	pt, err := vle.BubbleTemperature(sp, fractions(cs), pa, m)
	if err != nil {
		return nil, execution(err, "bubble temperature")
	}
	return point(pt), nil
}

// DewTemperature computes the dew temperature of a vapor at a pressure.
func (p *PTFCore) DewTemperature(_ context.Context, args Args) (any, error) {
	pa, err := args.Pascal(ArgPressure)
	if err != nil {
		return nil, err
	}
	m, err := p.solverMethod(args)
	if err != nil {
		return nil, err
	}
	cs, sp, err := p.setup("calc_dew_temperature_ideal_vapor_ideal_liquid", args)
	if err != nil {
		return nil, err
	}
	pt, err := vle.DewTemperature(sp, fractions(cs), pa, m)
	if err != nil {
		return nil, execution(err, "dew temperature")
	}
	return point(pt), nil
}

// FlashIsothermal splits a feed into vapor and liquid.
func (p *PTFCore) FlashIsothermal(_ context.Context, args Args) (any, error) {
	t, err := args.Kelvin(ArgTemperature)
	if err != nil {
		return nil, err
	}
	pa, err := args.Pascal(ArgPressure)
	if err != nil {
		return nil, err
	}
	cs, sp, err := p.setup("calc_flash_isothermal_ideal_vapor_ideal_liquid", args)
	if err != nil {
		return nil, err
	}
	res, err := vle.Flash(sp, fractions(cs), t, pa)
	if err != nil {
		return nil, execution(err, "isothermal flash")
	}
	return res, nil
}

// MethodReferenceInputs describes what a method reads from the reference.
func (p *PTFCore) MethodReferenceInputs(_ context.Context, args Args) (any, error) {
	return referenceInputs(p.catalog, args)
}
