package vle

import (
	"fmt"
	"math"
	"strings"
)

// Method selects the one-dimensional solver for bubble and dew temperatures.
type Method string

const (
	// MethodRoot is bisection on the bracket.
	MethodRoot Method = "root"
	// MethodFsolve is a secant iteration that falls back to bisection when it
	// leaves the bracket.
	MethodFsolve Method = "fsolve"
	// MethodLeastSquares minimizes the squared residual by golden section.
	MethodLeastSquares Method = "least-squares"
)

// ParseMethod validates a solver method name.
func ParseMethod(s string) (Method, error) {
	switch m := Method(strings.ToLower(strings.TrimSpace(s))); m {
	case MethodRoot, MethodFsolve, MethodLeastSquares:
		return m, nil
	case "least_squares":
		return MethodLeastSquares, nil
	default:
		return "", fmt.Errorf("unknown solver method %q (use root, fsolve or least-squares)", s)
	}
}

const (
	xtol     = 1e-9
	ftol     = 1e-10
	maxSteps = 500
)

type residualFunc func(t float64) (float64, error)

func solve(f residualFunc, lo, hi float64, m Method) (float64, int, error) {
	switch m {
	case MethodRoot, "":
		return bisect(f, lo, hi)
	case MethodFsolve:
		return secant(f, lo, hi)
	case MethodLeastSquares:
		return golden(f, lo, hi)
	default:
		return 0, 0, fmt.Errorf("unknown solver method %q", m)
	}
}

func bisect(f residualFunc, lo, hi float64) (float64, int, error) {
	flo, err := f(lo)
	if err != nil {
		return 0, 0, err
	}
	fhi, err := f(hi)
	if err != nil {
		return 0, 0, err
	}
	if flo*fhi > 0 {
		return 0, 0, fmt.Errorf("no solution between %g K and %g K", lo, hi)
	}
	for i := 1; i <= maxSteps; i++ {
		mid := (lo + hi) / 2
		fm, err := f(mid)
		if err != nil {
			return 0, i, err
		}
		if math.Abs(fm) < ftol || hi-lo < xtol {
			return mid, i, nil
		}
		if (fm < 0) == (flo < 0) {
			lo, flo = mid, fm
		} else {
			hi = mid
		}
	}
	return 0, maxSteps, fmt.Errorf("bisection did not converge")
}

func secant(f residualFunc, lo, hi float64) (float64, int, error) {
	x0 := lo + 0.5*(hi-lo)
	x1 := x0 + 1
	f0, err := f(x0)
	if err != nil {
		return 0, 0, err
	}
	for i := 1; i <= 100; i++ {
		f1, err := f(x1)
		if err != nil {
			break
		}
		if math.Abs(f1) < ftol {
			return x1, i, nil
		}
		if f1 == f0 {
			break
		}
		x2 := x1 - f1*(x1-x0)/(f1-f0)
		if x2 <= lo || x2 >= hi || math.IsNaN(x2) {
			break
		}
		if math.Abs(x2-x1) < xtol {
			return x2, i, nil
		}
		x0, f0, x1 = x1, f1, x2
	}
	t, n, err := bisect(f, lo, hi)
	return t, n + 100, err
}

// golden minimizes f^2 over the bracket and accepts the minimum only when it
// is a root.
func golden(f residualFunc, lo, hi float64) (float64, int, error) {
	sq := func(t float64) (float64, error) {
		v, err := f(t)
		return v * v, err
	}
	const g = 0.6180339887498949
	a, b := lo, hi
	c := b - g*(b-a)
	d := a + g*(b-a)
	fc, err := sq(c)
	if err != nil {
		return 0, 0, err
	}
	fd, err := sq(d)
	if err != nil {
		return 0, 0, err
	}
	i := 0
	for ; i < maxSteps && b-a > xtol; i++ {
		if fc < fd {
			b, d, fd = d, c, fc
			c = b - g*(b-a)
			if fc, err = sq(c); err != nil {
				return 0, i, err
			}
		} else {
			a, c, fc = c, d, fd
			d = a + g*(b-a)
			if fd, err = sq(d); err != nil {
				return 0, i, err
			}
		}
	}
	t := (a + b) / 2
	r, err := f(t)
	if err != nil {
		return 0, i, err
	}
	if math.Abs(r) > 1e-6 {
		return 0, i, fmt.Errorf("no solution between %g K and %g K (residual %g)", lo, hi, r)
	}
	return t, i, nil
}
