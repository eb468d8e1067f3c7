// Package vle computes vapor-liquid equilibrium for ideal vapor and ideal
// liquid mixtures (Raoult's law): bubble and dew points and isothermal flash.
package vle

import (
	"fmt"
	"math"
)

// PsatFunc returns the vapor pressure in Pa at temperature t in K.
type PsatFunc func(t float64) (float64, error)

// Species is one mixture component with its vapor-pressure correlation.
// Tmin and Tmax bound the correlation; zero means unbounded.
type Species struct {
	Name string
	Psat PsatFunc
	Tmin float64
	Tmax float64
}

// Point is a bubble or dew point.
type Point struct {
	Temperature float64            `json:"temperature"` // K
	Pressure    float64            `json:"pressure"`    // Pa
	Liquid      map[string]float64 `json:"liquid_mole_fraction"`
	Vapor       map[string]float64 `json:"vapor_mole_fraction"`
	K           map[string]float64 `json:"K_ratio"`
	Psat        map[string]float64 `json:"vapor_pressure"` // Pa
	Iterations  int                `json:"iterations,omitempty"`
	Method      Method             `json:"solver_method,omitempty"`
}

func checkFractions(species []Species, frac []float64) error {
	if len(species) == 0 {
		return fmt.Errorf("at least one component is required")
	}
	if len(frac) != len(species) {
		return fmt.Errorf("got %d mole fractions for %d components", len(frac), len(species))
	}
	sum := 0.0
	for i, f := range frac {
		if f < 0 || math.IsNaN(f) {
			return fmt.Errorf("mole fraction of %s must be non-negative", species[i].Name)
		}
		if species[i].Psat == nil {
			return fmt.Errorf("component %s has no vapor pressure correlation", species[i].Name)
		}
		sum += f
	}
	if math.Abs(sum-1) > 1e-6 {
		return fmt.Errorf("mole fractions sum to %g, expected 1", sum)
	}
	return nil
}

func vaporPressures(species []Species, t float64) ([]float64, error) {
	out := make([]float64, len(species))
	for i, s := range species {
		p, err := s.Psat(t)
		if err != nil {
			return nil, fmt.Errorf("vapor pressure of %s at %g K: %w", s.Name, t, err)
		}
		if !(p > 0) || math.IsInf(p, 0) {
			return nil, fmt.Errorf("vapor pressure of %s at %g K is not positive", s.Name, t)
		}
		out[i] = p
	}
	return out, nil
}

func newPoint(species []Species, t, p float64, x, y, psat []float64) *Point {
	pt := &Point{
		Temperature: t,
		Pressure:    p,
		Liquid:      make(map[string]float64, len(species)),
		Vapor:       make(map[string]float64, len(species)),
		K:           make(map[string]float64, len(species)),
		Psat:        make(map[string]float64, len(species)),
	}
	for i, s := range species {
		pt.Liquid[s.Name] = x[i]
		pt.Vapor[s.Name] = y[i]
		pt.K[s.Name] = psat[i] / p
		pt.Psat[s.Name] = psat[i]
	}
	return pt
}

// BubblePressure returns P = sum(x_i Psat_i) and the incipient vapor.
func BubblePressure(species []Species, x []float64, t float64) (*Point, error) {
	if err := checkFractions(species, x); err != nil {
		return nil, err
	}
	psat, err := vaporPressures(species, t)
	if err != nil {
		return nil, err
	}
	p := 0.0
	for i := range x {
		p += x[i] * psat[i]
	}
	y := make([]float64, len(x))
	for i := range x {
		y[i] = x[i] * psat[i] / p
	}
	return newPoint(species, t, p, x, y, psat), nil
}

// DewPressure returns P = 1/sum(y_i/Psat_i) and the incipient liquid.
func DewPressure(species []Species, y []float64, t float64) (*Point, error) {
	if err := checkFractions(species, y); err != nil {
		return nil, err
	}
	psat, err := vaporPressures(species, t)
	if err != nil {
		return nil, err
	}
	inv := 0.0
	for i := range y {
		inv += y[i] / psat[i]
	}
	p := 1 / inv
	x := make([]float64, len(y))
	for i := range y {
		x[i] = y[i] * p / psat[i]
	}
	return newPoint(species, t, p, x, y, psat), nil
}

// BubbleTemperature solves sum(x_i Psat_i(T)) = p for T.
func BubbleTemperature(species []Species, x []float64, p float64, method Method) (*Point, error) {
	if err := checkFractions(species, x); err != nil {
		return nil, err
	}
	if !(p > 0) {
		return nil, fmt.Errorf("pressure must be positive, got %g Pa", p)
	}
	residual := func(t float64) (float64, error) {
		psat, err := vaporPressures(species, t)
		if err != nil {
			return 0, err
		}
		s := 0.0
		for i := range x {
			s += x[i] * psat[i]
		}
		return math.Log(s / p), nil
	}
	lo, hi := bracket(species)
	t, iter, err := solve(residual, lo, hi, method)
	if err != nil {
		return nil, fmt.Errorf("bubble temperature: %w", err)
	}
	pt, err := BubblePressure(species, x, t)
	if err != nil {
		return nil, err
	}
	pt.Pressure = p
	pt.Iterations, pt.Method = iter, method
	return pt, nil
}

// DewTemperature solves p sum(y_i/Psat_i(T)) = 1 for T.
func DewTemperature(species []Species, y []float64, p float64, method Method) (*Point, error) {
	if err := checkFractions(species, y); err != nil {
		return nil, err
	}
	if !(p > 0) {
		return nil, fmt.Errorf("pressure must be positive, got %g Pa", p)
	}
	residual := func(t float64) (float64, error) {
		psat, err := vaporPressures(species, t)
		if err != nil {
			return 0, err
		}
		s := 0.0
		for i := range y {
			s += y[i] / psat[i]
		}
		return -math.Log(p * s), nil
	}
	lo, hi := bracket(species)
	t, iter, err := solve(residual, lo, hi, method)
	if err != nil {
		return nil, fmt.Errorf("dew temperature: %w", err)
	}
	pt, err := DewPressure(species, y, t)
	if err != nil {
		return nil, err
	}
	pt.Pressure = p
	pt.Iterations, pt.Method = iter, method
	return pt, nil
}

// Default temperature bracket in K when no correlation bound is declared.
const (
	defaultTmin = 100.0
	defaultTmax = 1000.0
)

// bracket spans the union of the correlation ranges.
func bracket(species []Species) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, s := range species {
		tmin, tmax := s.Tmin, s.Tmax
		if tmin <= 0 {
			tmin = defaultTmin
		}
		if tmax <= 0 || tmax <= tmin {
			tmax = defaultTmax
		}
		lo = math.Min(lo, tmin)
		hi = math.Max(hi, tmax)
	}
	return lo, hi
}
