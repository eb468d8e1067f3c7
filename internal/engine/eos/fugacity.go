package eos

import (
	"fmt"
	"math"
)

// Phase selects which compressibility root is used.
type Phase string

const (
	Gas    Phase = "g"
	Liquid Phase = "l"
)

// PureResult is the fugacity of a pure component.
type PureResult struct {
	Model       Model     `json:"eos_model"`
	Solver      Solver    `json:"solver_method"`
	Phase       Phase     `json:"phase"`
	Z           float64   `json:"compressibility_factor"`
	Roots       []float64 `json:"roots"`
	Phi         float64   `json:"fugacity_coefficient"`
	Fugacity    float64   `json:"fugacity"` // Pa
	A           float64   `json:"A"`
	B           float64   `json:"B"`
	Temperature float64   `json:"temperature"` // K
	Pressure    float64   `json:"pressure"`    // Pa
}

// selectRoot returns the largest root for gas and the smallest for liquid.
func selectRoot(roots []float64, phase Phase) (float64, error) {
	switch phase {
	case Gas:
		return roots[len(roots)-1], nil
	case Liquid:
		return roots[0], nil
	default:
		return 0, fmt.Errorf("unknown phase %q", phase)
	}
}

func checkState(t, p float64) error {
	if !(t > 0) || math.IsInf(t, 0) {
		return fmt.Errorf("temperature must be positive, got %g K", t)
	}
	if !(p > 0) || math.IsInf(p, 0) {
		return fmt.Errorf("pressure must be positive, got %g Pa", p)
	}
	return nil
}

// PureFugacity computes the fugacity of a pure component at t (K) and p (Pa).
func (m Model) PureFugacity(c Critical, t, p float64, phase Phase, solver Solver) (*PureResult, error) {
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
	z, err := selectRoot(roots, phase)
	if err != nil {
		return nil, err
	}
	phi := math.Exp(m.lnPhi(z, A, B))
	if math.IsNaN(phi) || math.IsInf(phi, 0) {
		return nil, fmt.Errorf("fugacity coefficient is not finite (Z=%g)", z)
	}
	return &PureResult{
		Model: m, Solver: solver, Phase: phase,
		Z: z, Roots: roots, Phi: phi, Fugacity: phi * p,
		A: A, B: B, Temperature: t, Pressure: p,
	}, nil
}

// MixtureResult holds partial fugacity coefficients of a mixture.
type MixtureResult struct {
	Model       Model     `json:"eos_model"`
	Solver      Solver    `json:"solver_method"`
	Phase       Phase     `json:"phase"`
	Z           float64   `json:"compressibility_factor"`
	Roots       []float64 `json:"roots"`
	Phi         []float64 `json:"fugacity_coefficients"`
	Fugacity    []float64 `json:"fugacities"` // Pa
	A           float64   `json:"A"`
	B           float64   `json:"B"`
	Temperature float64   `json:"temperature"` // K
	Pressure    float64   `json:"pressure"`    // Pa
}

// MixtureFugacity computes partial fugacity coefficients with the van der
// Waals one-fluid mixing rules. k holds binary interaction parameters and may
// be nil.
func (m Model) MixtureFugacity(cs []Critical, x []float64, t, p float64, phase Phase, solver Solver, k [][]float64) (*MixtureResult, error) {
	n := len(cs)
	if n == 0 || len(x) != n {
		return nil, fmt.Errorf("mixture needs one mole fraction per component (%d components, %d fractions)", n, len(x))
	}
	if err := checkState(t, p); err != nil {
		return nil, err
	}
	ai := make([]float64, n)
	bi := make([]float64, n)
	for i, c := range cs {
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("component %d: %w", i, err)
		}
		ai[i], bi[i] = m.Parameters(c, t)
	}

	aij := func(i, j int) float64 {
		kij := 0.0
		if k != nil && i < len(k) && j < len(k[i]) {
			kij = k[i][j]
		}
		return math.Sqrt(ai[i]*ai[j]) * (1 - kij)
	}
	var amix, bmix float64
	sumA := make([]float64, n)
	for i := 0; i < n; i++ {
		bmix += x[i] * bi[i]
		for j := 0; j < n; j++ {
			sumA[i] += x[j] * aij(i, j)
		}
		amix += x[i] * sumA[i]
	}

	A := amix * p / (R * R * t * t)
	B := bmix * p / (R * t)
	roots, err := Roots(m.Coefficients(A, B), B, solver)
	if err != nil {
		return nil, err
	}
	z, err := selectRoot(roots, phase)
	if err != nil {
		return nil, err
	}

	integral := m.integral(z, B)
	q := A / B
	res := &MixtureResult{
		Model: m, Solver: solver, Phase: phase,
		Z: z, Roots: roots, A: A, B: B, Temperature: t, Pressure: p,
		Phi: make([]float64, n), Fugacity: make([]float64, n),
	}
	for i := 0; i < n; i++ {
		bRatio := bi[i] / bmix
		qi := q * (2*sumA[i]/amix - bRatio)
		lnPhi := bRatio*(z-1) - math.Log(z-B) - qi*integral
		res.Phi[i] = math.Exp(lnPhi)
		res.Fugacity[i] = res.Phi[i] * x[i] * p
		if math.IsNaN(res.Phi[i]) || math.IsInf(res.Phi[i], 0) {
			return nil, fmt.Errorf("fugacity coefficient of component %d is not finite", i)
		}
	}
	return res, nil
}
