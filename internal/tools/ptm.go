package tools

import (
	"context"

	"github.com/wagnerlima/mozichem-hub/internal/engine/eos"
	"github.com/wagnerlima/mozichem-hub/internal/models"
	"github.com/wagnerlima/mozichem-hub/internal/thermodb"
)

// PTMCore implements the equation of state catalog.
type PTMCore struct {
	base
}

// NewPTMCore returns the equation of state implementation.
func NewPTMCore(d Deps) *PTMCore {
	return &PTMCore{base: newBase(d, "ptm")}
}

// Methods implements Implementation.
func (p *PTMCore) Methods() map[string]Method {
	return map[string]Method{
		"calc_gas_component_fugacity":        p.GasComponentFugacity,
		"calc_liquid_component_fugacity":     p.LiquidComponentFugacity,
		"calc_fugacity_gas_mixture":          p.GasMixtureFugacity,
		"calc_fugacity_liquid_mixture":       p.LiquidMixtureFugacity,
		"component_eos_roots_analysis":       p.ComponentRootsAnalysis,
		"multi_component_eos_roots_analysis": p.MultiComponentRootsAnalysis,
		"get_method_reference_inputs":        p.MethodReferenceInputs,
	}
}

type eosOptions struct {
	model  eos.Model
	solver eos.Solver
	t, p   float64
}

func (p *PTMCore) options(args Args, defaultSolver eos.Solver) (eosOptions, error) {
	var o eosOptions
	name, err := args.String(ArgEOSModel, string(eos.SRK))
	if err != nil {
		return o, err
	}
	if o.model, err = eos.ParseModel(name); err != nil {
		return o, invalid(err, "argument %s", ArgEOSModel)
	}
	solver, err := args.String(ArgSolverMethod, string(defaultSolver))
	if err != nil {
		return o, err
	}
	if o.solver, err = eos.ParseSolver(solver); err != nil {
		return o, invalid(err, "argument %s", ArgSolverMethod)
	}
	if o.t, err = args.Kelvin(ArgTemperature); err != nil {
		return o, err
	}
	if o.p, err = args.Pascal(ArgPressure); err != nil {
		return o, err
	}
	return o, nil
}

// ComponentFugacity is the result of a pure component fugacity call.
type ComponentFugacity struct {
	Component models.Component `json:"component"`
	*eos.PureResult
	FugacityQuantity models.Quantity `json:"fugacity_quantity"`
}

func (p *PTMCore) componentFugacity(method string, phase eos.Phase, args Args) (any, error) {
	c, err := args.Component(ArgComponent)
	if err != nil {
		return nil, err
	}
	o, err := p.options(args, eos.SolverLS)
	if err != nil {
		return nil, err
	}
	ms, err := p.modelSource(method, args, []models.Component{c})
	if err != nil {
		return nil, err
	}
	crit, err := critical(ms, c)
	if err != nil {
		return nil, err
	}
	res, err := o.model.PureFugacity(crit, o.t, o.p, phase, o.solver)
	if err != nil {
		return nil, execution(err, "%s fugacity of %s", o.model, describe(c))
	}
	return ComponentFugacity{
		Component:        c,
		PureResult:       res,
		FugacityQuantity: quantity(res.Fugacity, "Pa"),
	}, nil
}

// GasComponentFugacity computes the gas-phase fugacity of a pure component.
func (p *PTMCore) GasComponentFugacity(_ context.Context, args Args) (any, error) {
	return p.componentFugacity("calc_gas_component_fugacity", eos.Gas, args)
}

// LiquidComponentFugacity computes the liquid-phase fugacity of a pure
// component.
func (p *PTMCore) LiquidComponentFugacity(_ context.Context, args Args) (any, error) {
	return p.componentFugacity("calc_liquid_component_fugacity", eos.Liquid, args)
}

// MixtureFugacity is the result of a mixture fugacity call.
type MixtureFugacity struct {
	Model       eos.Model                     `json:"eos_model"`
	Solver      eos.Solver                    `json:"solver_method"`
	Phase       eos.Phase                     `json:"phase"`
	Z           float64                       `json:"compressibility_factor"`
	Roots       []float64                     `json:"roots"`
	Temperature float64                       `json:"temperature"` // K
	Pressure    float64                       `json:"pressure"`    // Pa
	Components  map[string]ComponentInMixture `json:"components"`
}

// ComponentInMixture holds the partial properties of one mixture component.
type ComponentInMixture struct {
	MoleFraction float64 `json:"mole_fraction"`
	Phi          float64 `json:"fugacity_coefficient"`
	Fugacity     float64 `json:"fugacity"` // Pa
}

func (p *PTMCore) mixtureFugacity(method string, phase eos.Phase, args Args) (any, error) {
	cs, err := args.Components(ArgComponents, true)
	if err != nil {
		return nil, err
	}
	o, err := p.options(args, eos.SolverLS)
	if err != nil {
		return nil, err
	}
	ms, err := p.modelSource(method, args, cs)
	if err != nil {
		return nil, err
	}
	crits := make([]eos.Critical, len(cs))
	for i, c := range cs {
		if crits[i], err = critical(ms, c); err != nil {
			return nil, err
		}
	}
	x := fractions(cs)
	res, err := o.model.MixtureFugacity(crits, x, o.t, o.p, phase, o.solver, nil)
	if err != nil {
		return nil, execution(err, "%s mixture fugacity", o.model)
	}
	out := MixtureFugacity{
		Model: res.Model, Solver: res.Solver, Phase: res.Phase,
		Z: res.Z, Roots: res.Roots,
		Temperature: res.Temperature, Pressure: res.Pressure,
		Components: make(map[string]ComponentInMixture, len(cs)),
	}
	for i, c := range cs {
		out.Components[c.NameStateKey()] = ComponentInMixture{
			MoleFraction: x[i],
			Phi:          res.Phi[i],
			Fugacity:     res.Fugacity[i],
		}
	}
	return out, nil
}

// GasMixtureFugacity computes partial fugacities in a gas mixture.
func (p *PTMCore) GasMixtureFugacity(_ context.Context, args Args) (any, error) {
	return p.mixtureFugacity("calc_fugacity_gas_mixture", eos.Gas, args)
}

// LiquidMixtureFugacity computes partial fugacities in a liquid mixture.
func (p *PTMCore) LiquidMixtureFugacity(_ context.Context, args Args) (any, error) {
	return p.mixtureFugacity("calc_fugacity_liquid_mixture", eos.Liquid, args)
}

// RootsAnalysis is the roots analysis of one component.
type RootsAnalysis struct {
	Component models.Component `json:"component"`
	*eos.Analysis
}

func (p *PTMCore) rootsAnalysis(ms *thermodb.ModelSource, c models.Component, o eosOptions) (RootsAnalysis, error) {
	crit, err := critical(ms, c)
	if err != nil {
		return RootsAnalysis{}, err
	}
	var psat *float64
	if eq, err := ms.Equation(c, VaporPressureProperty); err == nil {
		f, err := vaporPressure(eq)
		if err != nil {
			return RootsAnalysis{}, err
		}
		if o.t < crit.Tc {
			v, err := f(o.t)
			if err != nil {
				return RootsAnalysis{}, execution(err, "vapor pressure of %s", describe(c))
			}
			psat = &v
		}
	}
	res, err := o.model.RootsAnalysis(crit, o.t, o.p, psat, o.solver)
	if err != nil {
		return RootsAnalysis{}, execution(err, "%s roots analysis of %s", o.model, describe(c))
	}
	return RootsAnalysis{Component: c, Analysis: res}, nil
}

// ComponentRootsAnalysis classifies the phase of a pure component.
func (p *PTMCore) ComponentRootsAnalysis(_ context.Context, args Args) (any, error) {
	c, err := args.Component(ArgComponent)
	if err != nil {
		return nil, err
	}
	o, err := p.options(args, eos.SolverRoot)
	if err != nil {
		return nil, err
	}
	ms, err := p.modelSource("component_eos_roots_analysis", args, []models.Component{c})
	if err != nil {
		return nil, err
	}
	return p.rootsAnalysis(ms, c, o)
}

// MultiComponentRootsAnalysis runs the roots analysis of every component.
func (p *PTMCore) MultiComponentRootsAnalysis(_ context.Context, args Args) (any, error) {
	cs, err := args.Components(ArgComponents, false)
	if err != nil {
		return nil, err
	}
	o, err := p.options(args, eos.SolverRoot)
	if err != nil {
		return nil, err
	}
	ms, err := p.modelSource("multi_component_eos_roots_analysis", args, cs)
	if err != nil {
		return nil, err
	}
	out := make(map[string]RootsAnalysis, len(cs))
	for _, c := range cs {
		res, err := p.rootsAnalysis(ms, c, o)
		if err != nil {
			return nil, err
		}
		out[c.NameStateKey()] = res
	}
	return out, nil
}

// MethodReferenceInputs describes what a method reads from the reference.
func (p *PTMCore) MethodReferenceInputs(_ context.Context, args Args) (any, error) {
	return referenceInputs(p.catalog, args)
}
