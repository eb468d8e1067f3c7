package vle

import (
	"fmt"
	"math"
)

// FlashState is the phase condition found by a flash.
type FlashState string

const (
	TwoPhase         FlashState = "two-phase"
	SubcooledLiquid  FlashState = "subcooled liquid"
	SuperheatedVapor FlashState = "superheated vapor"
)

// FlashResult is the outcome of an isothermal flash.
type FlashResult struct {
	Temperature    float64            `json:"temperature"` // K
	Pressure       float64            `json:"pressure"`    // Pa
	State          FlashState         `json:"phase"`
	VaporFraction  float64            `json:"V_F_ratio"`
	LiquidFraction float64            `json:"L_F_ratio"`
	Feed           map[string]float64 `json:"feed_mole_fraction"`
	Liquid         map[string]float64 `json:"liquid_mole_fraction"`
	Vapor          map[string]float64 `json:"vapor_mole_fraction"`
	K              map[string]float64 `json:"K_ratio"`
	BubblePressure float64            `json:"bubble_pressure"` // Pa
	DewPressure    float64            `json:"dew_pressure"`    // Pa
}

// Flash splits feed z at t and p into liquid and vapor by solving the
// Rachford-Rice equation. A feed below its dew pressure is all vapor; one above
// its bubble pressure is all liquid.
func Flash(species []Species, z []float64, t, p float64) (*FlashResult, error) {
	if err := checkFractions(species, z); err != nil {
		return nil, err
	}
	if !(p > 0) {
		return nil, fmt.Errorf("pressure must be positive, got %g Pa", p)
	}
	psat, err := vaporPressures(species, t)
	if err != nil {
		return nil, err
	}
	n := len(z)
	k := make([]float64, n)
	var pb, invPd float64
	for i := range z {
		k[i] = psat[i] / p
		pb += z[i] * psat[i]
		invPd += z[i] / psat[i]
	}
	pd := 1 / invPd

	res := &FlashResult{
		Temperature: t, Pressure: p,
		BubblePressure: pb, DewPressure: pd,
		Feed:   make(map[string]float64, n),
		Liquid: make(map[string]float64, n),
		Vapor:  make(map[string]float64, n),
		K:      make(map[string]float64, n),
	}
	x := make([]float64, n)
	y := make([]float64, n)

	switch {
	case p >= pb:
		res.State = SubcooledLiquid
		res.VaporFraction = 0
		copy(x, z)
	case p <= pd:
		res.State = SuperheatedVapor
		res.VaporFraction = 1
		copy(y, z)
	default:
		res.State = TwoPhase
		v, err := rachfordRice(z, k)
		if err != nil {
			return nil, err
		}
		res.VaporFraction = v
		for i := range z {
			x[i] = z[i] / (1 + v*(k[i]-1))
			y[i] = k[i] * x[i]
		}
	}
	res.LiquidFraction = 1 - res.VaporFraction

	for i, s := range species {
		res.Feed[s.Name] = z[i]
		res.Liquid[s.Name] = x[i]
		res.Vapor[s.Name] = y[i]
		res.K[s.Name] = k[i]
	}
	return res, nil
}

// rachfordRice returns V/F in (0, 1). The function is monotone decreasing so
// Newton steps are safeguarded by bisection.
func rachfordRice(z, k []float64) (float64, error) {
	g := func(v float64) (f, df float64) {
		for i := range z {
			d := 1 + v*(k[i]-1)
			f += z[i] * (k[i] - 1) / d
			df -= z[i] * (k[i] - 1) * (k[i] - 1) / (d * d)
		}
		return f, df
	}
	lo, hi := 0.0, 1.0
	v := 0.5
	for i := 0; i < maxSteps; i++ {
		f, df := g(v)
		if math.Abs(f) < 1e-14 {
			return v, nil
		}
		if f > 0 {
			lo = v
		} else {
			hi = v
		}
		next := v - f/df
		if df == 0 || next <= lo || next >= hi {
			next = (lo + hi) / 2
		}
		if math.Abs(next-v) < 1e-15 {
			return next, nil
		}
		v = next
	}
	return 0, fmt.Errorf("rachford-rice did not converge")
}
