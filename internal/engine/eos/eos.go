// Package eos implements the generic two-parameter cubic equations of state
// (van der Waals, Redlich-Kwong, Soave-Redlich-Kwong, Peng-Robinson) for
// compressibility roots and fugacity coefficients of pure components and
// mixtures.
package eos

import (
	"fmt"
	"math"
	"strings"
)

// R is the gas constant in J/(mol K).
const R = 8.314462618

// Model is a cubic equation of state.
type Model string

const (
	PR  Model = "PR"
	SRK Model = "SRK"
	RK  Model = "RK"
	VdW Model = "vdW"
)

// Models lists the supported models.
var Models = []Model{PR, SRK, RK, VdW}

// ParseModel matches s case-insensitively against the supported models.
func ParseModel(s string) (Model, error) {
	for _, m := range Models {
		if strings.EqualFold(strings.TrimSpace(s), string(m)) {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown eos model %q (use PR, SRK, RK or vdW)", s)
}

type constants struct {
	sigma, epsilon, omega, psi float64
}

func (m Model) constants() constants {
	switch m {
	case PR:
		return constants{sigma: 1 + math.Sqrt2, epsilon: 1 - math.Sqrt2, omega: 0.07780, psi: 0.45724}
	case SRK, RK:
		return constants{sigma: 1, epsilon: 0, omega: 0.08664, psi: 0.42748}
	default:
		return constants{sigma: 0, epsilon: 0, omega: 1.0 / 8, psi: 27.0 / 64}
	}
}

func (m Model) alpha(tr, w float64) float64 {
	switch m {
	case PR:
		k := 0.37464 + 1.54226*w - 0.26992*w*w
		s := 1 + k*(1-math.Sqrt(tr))
		return s * s
	case SRK:
		k := 0.480 + 1.574*w - 0.176*w*w
		s := 1 + k*(1-math.Sqrt(tr))
		return s * s
	case RK:
		return 1 / math.Sqrt(tr)
	default:
		return 1
	}
}

// Critical holds the critical constants of a component in SI units.
type Critical struct {
	Tc    float64 `json:"Tc"`   // K
	Pc    float64 `json:"Pc"`   // Pa
	Omega float64 `json:"AcFa"` // acentric factor
}

// Validate checks the constants are physical.
func (c Critical) Validate() error {
	if !(c.Tc > 0) || !(c.Pc > 0) || math.IsNaN(c.Omega) {
		return fmt.Errorf("invalid critical constants Tc=%g K Pc=%g Pa", c.Tc, c.Pc)
	}
	return nil
}

// Parameters returns the attraction and co-volume parameters a (Pa m6/mol2)
// and b (m3/mol) at temperature t.
func (m Model) Parameters(c Critical, t float64) (a, b float64) {
	k := m.constants()
	a = k.psi * m.alpha(t/c.Tc, c.Omega) * R * R * c.Tc * c.Tc / c.Pc
	b = k.omega * R * c.Tc / c.Pc
	return a, b
}

// Coefficients returns the coefficients [c2, c1, c0] of the monic cubic
// Z^3 + c2 Z^2 + c1 Z + c0 = 0 for dimensionless A and B.
func (m Model) Coefficients(A, B float64) [3]float64 {
	k := m.constants()
	s, e := k.sigma, k.epsilon
	return [3]float64{
		(s+e)*B - (1 + B),
		A + s*e*B*B - (s+e)*B*(1+B),
		-(A*B + s*e*B*B*(1+B)),
	}
}

// integral returns I = ln((Z+sB)/(Z+eB))/(s-e), or B/Z for van der Waals.
func (m Model) integral(Z, B float64) float64 {
	k := m.constants()
	if k.sigma == k.epsilon {
		return B / Z
	}
	return math.Log((Z+k.sigma*B)/(Z+k.epsilon*B)) / (k.sigma - k.epsilon)
}

// lnPhi returns the pure component log fugacity coefficient.
func (m Model) lnPhi(Z, A, B float64) float64 {
	return Z - 1 - math.Log(Z-B) - A/B*m.integral(Z, B)
}
