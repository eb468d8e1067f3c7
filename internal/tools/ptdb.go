package tools

import (
	"context"

	"github.com/wagnerlima/mozichem-hub/internal/engine/units"
	"github.com/wagnerlima/mozichem-hub/internal/errs"
	"github.com/wagnerlima/mozichem-hub/internal/hub"
	"github.com/wagnerlima/mozichem-hub/internal/models"
)

// PTDBCore implements the thermodynamic properties catalog.
type PTDBCore struct {
	base
}

// NewPTDBCore returns the properties implementation.
func NewPTDBCore(d Deps) *PTDBCore {
	return &PTDBCore{base: newBase(d, "ptdb")}
}

// Methods implements Implementation.
func (p *PTDBCore) Methods() map[string]Method {
	return map[string]Method{
		"verify_component_thermodynamic_properties_availability": p.VerifyAvailability,
		"get_component_thermodynamic_properties":                 p.ComponentProperties,
		"calc_component_vapor_pressure":                          p.VaporPressure,
		"search_reference_components":                            p.SearchComponents,
		"list_reference_databooks":                               p.ListDatabooks,
	}
}

// Availability is the availability report of one component.
type Availability struct {
	Component  models.Component     `json:"component"`
	ConfigKey  string               `json:"config_key"`
	Available  bool                 `json:"available"`
	Properties []hub.PropertyStatus `json:"properties"`
}

// VerifyAvailability reports which configured properties resolve for a
// component.
func (p *PTDBCore) VerifyAvailability(_ context.Context, args Args) (any, error) {
	c, err := args.Component(ArgComponent)
	if err != nil {
		return nil, err
	}
	h, release, err := p.hubFor("verify_component_thermodynamic_properties_availability", args, []models.Component{c})
	if err != nil {
		return nil, err
	}
	defer release()

	key, statuses, err := h.CheckComponent(c, models.KeyByName)
	if err != nil {
		return nil, err
	}
	out := Availability{Component: c, ConfigKey: key, Available: len(statuses) > 0, Properties: statuses}
	for _, st := range statuses {
		if !st.Available {
			out.Available = false
		}
	}
	return out, nil
}

// ComponentProperties returns the compiled thermodb of a component.
func (p *PTDBCore) ComponentProperties(_ context.Context, args Args) (any, error) {
	c, err := args.Component(ArgComponent)
	if err != nil {
		return nil, err
	}
	h, release, err := p.hubFor("get_component_thermodynamic_properties", args, []models.Component{c})
	if err != nil {
		return nil, err
	}
	defer release()
	return h.BuildComponentThermoDB(c, models.KeyByName)
}

// VaporPressureResult is the vapor pressure of a component.
type VaporPressureResult struct {
	Component     models.Component `json:"component"`
	Temperature   models.Quantity  `json:"temperature"`
	VaporPressure models.Quantity  `json:"vapor_pressure"`
	// Slope is dPsat/dT in Pa/K.
	Slope     float64 `json:"vapor_pressure_slope"`
	Equation  string  `json:"equation"`
	InRange   bool    `json:"in_range"`
	RangeTmin float64 `json:"Tmin,omitempty"`
	RangeTmax float64 `json:"Tmax,omitempty"`
}

// VaporPressure evaluates the vapor pressure equation of a component.
func (p *PTDBCore) VaporPressure(_ context.Context, args Args) (any, error) {
	c, err := args.Component(ArgComponent)
	if err != nil {
		return nil, err
	}
	t, err := args.Kelvin(ArgTemperature)
	if err != nil {
		return nil, err
	}
	unit, err := args.String("pressure_unit", "Pa")
	if err != nil {
		return nil, err
	}
	if !units.IsPressureUnit(unit) {
		return nil, errs.New(errs.KindInvalidArgument, "unknown pressure unit %q", unit)
	}

	ms, err := p.modelSource("calc_component_vapor_pressure", args, []models.Component{c})
	if err != nil {
		return nil, err
	}
	eq, err := ms.Equation(c, VaporPressureProperty)
	if err != nil {
		return nil, errs.Wrap(errs.KindModelSourceBuildError, err, "component %s", c.NameStateKey())
	}
	psat, err := vaporPressure(eq)
	if err != nil {
		return nil, err
	}
	pa, err := psat(t)
	if err != nil {
		return nil, execution(err, "vapor pressure of %s", describe(c))
	}
	value, err := units.FromPascal(pa, unit)
	if err != nil {
		return nil, invalid(err, "argument pressure_unit")
	}

	arg := eq.ArgNames()[0]
	argUnit := defaultUnit(eq.Args[arg], "K")
	x, err := units.FromKelvin(t, argUnit)
	if err != nil {
		return nil, execution(err, "vapor pressure of %s", describe(c))
	}
	d, err := eq.FirstDerivative(arg, map[string]float64{arg: x})
	if err != nil {
		return nil, execution(err, "vapor pressure slope of %s", describe(c))
	}
	// the temperature conversions are affine, so one kelvin maps to a fixed step
	x1, _ := units.FromKelvin(t+1, argUnit)
	slope, err := units.ToPascal(d*(x1-x), defaultUnit(eq.Unit, "Pa"))
	if err != nil {
		return nil, execution(err, "vapor pressure slope of %s", describe(c))
	}

	tmin, tmax := eq.Params["Tmin"], eq.Params["Tmax"]
	return VaporPressureResult{
		Component:     c,
		Temperature:   quantity(t, "K"),
		VaporPressure: quantity(value, unit),
		Slope:         slope,
		Equation:      eq.ID,
		InRange:       (tmin == 0 || t >= tmin) && (tmax == 0 || t <= tmax),
		RangeTmin:     tmin,
		RangeTmax:     tmax,
	}, nil
}

// SearchComponents runs a full-text search over the catalog reference.
func (p *PTDBCore) SearchComponents(_ context.Context, args Args) (any, error) {
	q, err := args.String("query", "")
	if err != nil {
		return nil, err
	}
	if q == "" {
		return nil, errs.New(errs.KindInvalidArgument, "argument query is required")
	}
	idx, err := p.hub.Index()
	if err != nil {
		return nil, execution(err, "open reference index")
	}
	hits, err := idx.Search(q)
	if err != nil {
		return nil, execution(err, "search %q", q)
	}
	return map[string]any{"query": q, "count": len(hits), "components": hits}, nil
}

// ListDatabooks lists the databooks of the catalog reference.
func (p *PTDBCore) ListDatabooks(_ context.Context, _ Args) (any, error) {
	idx, err := p.hub.Index()
	if err != nil {
		return nil, execution(err, "open reference index")
	}
	books, err := idx.Databooks()
	if err != nil {
		return nil, execution(err, "list databooks")
	}
	return map[string]any{"databooks": books}, nil
}
