package eos

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Solver selects how the cubic is solved.
type Solver string

const (
	// SolverRoot solves the cubic analytically.
	SolverRoot Solver = "root"
	// SolverLS runs damped Newton with a backtracking line search.
	SolverLS Solver = "ls"
	// SolverFsolve runs plain Newton iterations.
	SolverFsolve Solver = "fsolve"
)

// ParseSolver validates a solver name.
func ParseSolver(s string) (Solver, error) {
	switch Solver(strings.ToLower(strings.TrimSpace(s))) {
	case SolverRoot:
		return SolverRoot, nil
	case SolverLS:
		return SolverLS, nil
	case SolverFsolve:
		return SolverFsolve, nil
	default:
		return "", fmt.Errorf("unknown solver method %q (use ls, fsolve or root)", s)
	}
}

const (
	maxIter = 200
	tol     = 1e-12
)

// Roots returns the real roots Z > B of the cubic, ascending.
func Roots(coeffs [3]float64, B float64, solver Solver) ([]float64, error) {
	var all []float64
	switch solver {
	case SolverRoot, "":
		all = cardano(coeffs)
	case SolverLS, SolverFsolve:
		r, err := newton(coeffs, 1, solver == SolverLS)
		if err != nil {
			return nil, err
		}
		all = append(deflate(coeffs, r), r)
	default:
		return nil, fmt.Errorf("unknown solver method %q", solver)
	}

	var roots []float64
	for _, z := range all {
		if math.IsNaN(z) || z <= B || z <= 0 {
			continue
		}
		z = polish(coeffs, z)
		dup := false
		for _, r := range roots {
			if math.Abs(r-z) < 1e-9 {
				dup = true
				break
			}
		}
		if !dup {
			roots = append(roots, z)
		}
	}
	if len(roots) == 0 {
		return nil, fmt.Errorf("no physical compressibility root (B=%g)", B)
	}
	sort.Float64s(roots)
	return roots, nil
}

func cubic(c [3]float64, z float64) (f, df float64) {
	f = ((z+c[0])*z+c[1])*z + c[2]
	df = (3*z+2*c[0])*z + c[1]
	return f, df
}

// cardano solves z^3 + c2 z^2 + c1 z + c0 = 0.
func cardano(c [3]float64) []float64 {
	a, b, d := c[0], c[1], c[2]
	p := b - a*a/3
	q := 2*a*a*a/27 - a*b/3 + d
	shift := -a / 3
	disc := q*q/4 + p*p*p/27

	if disc > 0 {
		s := math.Sqrt(disc)
		return []float64{math.Cbrt(-q/2+s) + math.Cbrt(-q/2-s) + shift}
	}
	if p == 0 {
		return []float64{shift}
	}
	r := 2 * math.Sqrt(-p/3)
	arg := 3 * q / (p * r)
	arg = math.Max(-1, math.Min(1, arg))
	theta := math.Acos(arg) / 3
	return []float64{
		r*math.Cos(theta) + shift,
		r*math.Cos(theta-2*math.Pi/3) + shift,
		r*math.Cos(theta-4*math.Pi/3) + shift,
	}
}

func newton(c [3]float64, z0 float64, lineSearch bool) (float64, error) {
	z := z0
	for i := 0; i < maxIter; i++ {
		f, df := cubic(c, z)
		if math.Abs(f) < tol {
			return z, nil
		}
		if df == 0 {
			z += 1e-3
			continue
		}
		step := f / df
		if lineSearch {
			t := 1.0
			for j := 0; j < 30; j++ {
				fn, _ := cubic(c, z-t*step)
				if math.Abs(fn) < math.Abs(f) {
					break
				}
				t /= 2
			}
			step *= t
		}
		z -= step
		if math.Abs(step) < tol*math.Max(1, math.Abs(z)) {
			return z, nil
		}
	}
	return 0, fmt.Errorf("newton iteration did not converge from Z=%g", z0)
}

// deflate divides the cubic by (z - r) and returns the real roots of the
// remaining quadratic.
func deflate(c [3]float64, r float64) []float64 {
	b1 := c[0] + r
	b0 := c[1] + r*b1
	disc := b1*b1 - 4*b0
	if disc < 0 {
		return nil
	}
	s := math.Sqrt(disc)
	return []float64{(-b1 - s) / 2, (-b1 + s) / 2}
}

func polish(c [3]float64, z float64) float64 {
	for i := 0; i < 5; i++ {
		f, df := cubic(c, z)
		if df == 0 || math.Abs(f) < tol {
			break
		}
		z -= f / df
	}
	return z
}
