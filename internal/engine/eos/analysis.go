package eos

import "fmt"

// State is the phase classification of a pure component at given T and P.
type State string

const (
	Supercritical State = "supercritical"
	Vapor         State = "vapor"
	LiquidState   State = "liquid"
	VLE           State = "vapor-liquid equilibrium"
	// SuperheatedGas is a vapor above its critical temperature but below Pc.
	SuperheatedGas State = "gas"
	// CompressedLiquid is above Pc but below Tc.
	CompressedLiquid State = "compressed liquid"
)

// Analysis is the outcome of a roots analysis.
type Analysis struct {
	Model             Model     `json:"eos_model"`
	State             State     `json:"phase"`
	Roots             []float64 `json:"roots"`
	RootCount         int       `json:"root_count"`
	ReducedT          float64   `json:"reduced_temperature"`
	ReducedP          float64   `json:"reduced_pressure"`
	VaporPressure     *float64  `json:"vapor_pressure,omitempty"` // Pa
	Temperature       float64   `json:"temperature"`              // K
	Pressure          float64   `json:"pressure"`                 // Pa
	CriticalConstants Critical  `json:"critical_constants"`
}

// vleTolerance is the relative pressure band around Psat classified as VLE.
const vleTolerance = 1e-3

// RootsAnalysis classifies the phase of a pure component. When psat is not
// nil the subcritical case compares p against it; otherwise the number of
// physical roots decides.
func (m Model) RootsAnalysis(c Critical, t, p float64, psat *float64, solver Solver) (*Analysis, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := checkState(t, p); err != nil {
		return nil, err
	}
	a, b := m.Parameters(c, t)
	A := a * p / (R * R * t * t)
	B := b * p / (R * t)
	roots, err := Roots(m.Coefficients(A, B), B, solver)
	if err != nil {
		return nil, err
	}

	res := &Analysis{
		Model: m, Roots: roots, RootCount: len(roots),
		ReducedT: t / c.Tc, ReducedP: p / c.Pc,
		VaporPressure: psat, Temperature: t, Pressure: p,
		CriticalConstants: c,
	}
	switch {
	case t >= c.Tc && p >= c.Pc:
		res.State = Supercritical
	case t >= c.Tc:
		res.State = SuperheatedGas
	case psat != nil:
		if *psat <= 0 {
			return nil, fmt.Errorf("vapor pressure must be positive, got %g Pa", *psat)
		}
		switch rel := (p - *psat) / *psat; {
		case rel > vleTolerance:
			res.State = LiquidState
		case rel < -vleTolerance:
			res.State = Vapor
		default:
			res.State = VLE
		}
	case p >= c.Pc:
		res.State = CompressedLiquid
	case len(roots) >= 2:
		res.State = VLE
	case roots[0] > 0.3:
		res.State = Vapor
	default:
		res.State = LiquidState
	}
	return res, nil
}
