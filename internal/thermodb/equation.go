// Package thermodb compiles per-component thermodynamic databases from a
// reference corpus and deposits them in a store that engines read through a
// model source.
package thermodb

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/wagnerlima/mozichem-hub/internal/references"
)

// Equation is a compiled equation bound to one component's parameters.
type Equation struct {
	ID     string             `json:"id"`
	Symbol string             `json:"symbol"`
	Unit   string             `json:"unit"`
	Args   map[string]string  `json:"args"`
	Body   []string           `json:"body"`
	Params map[string]float64 `json:"parameters"`

	body       []assignment
	derivative []assignment
}

type assignment struct {
	symbol  string
	program *vm.Program
}

var functions = map[string]any{
	"exp":   math.Exp,
	"ln":    math.Log,
	"log":   math.Log,
	"log10": math.Log10,
	"sqrt":  math.Sqrt,
	"pow":   math.Pow,
	"sinh":  math.Sinh,
	"cosh":  math.Cosh,
	"tanh":  math.Tanh,
}

// CompileEquation compiles the BODY (and BODY-FIRST-DERIVATIVE, when present)
// of spec with params as constants.
func CompileEquation(spec references.EquationSpec, params map[string]float64) (*Equation, error) {
	eq := &Equation{
		ID:     spec.ID,
		Symbol: spec.ReturnSymbol(),
		Args:   spec.Args,
		Body:   spec.Body,
		Params: params,
	}
	eq.Unit = spec.Returns[eq.Symbol]

	var err error
	if eq.body, err = compileBody(spec.Body, params, spec.Args); err != nil {
		return nil, fmt.Errorf("equation %s: %w", spec.ID, err)
	}
	if len(spec.FirstDerivative) > 0 {
		if eq.derivative, err = compileBody(spec.FirstDerivative, params, spec.Args); err != nil {
			return nil, fmt.Errorf("equation %s first derivative: %w", spec.ID, err)
		}
	}
	return eq, nil
}

func compileBody(lines []string, params map[string]float64, args map[string]string) ([]assignment, error) {
	env := baseEnv(params)
	for name := range args {
		env[name] = 0.0
	}

	out := make([]assignment, 0, len(lines))
	for _, line := range lines {
		lhs, rhs, ok := strings.Cut(line, "=")
		lhs = strings.TrimSpace(lhs)
		if !ok || lhs == "" || strings.TrimSpace(rhs) == "" {
			return nil, fmt.Errorf("line %q is not an assignment", line)
		}
		program, err := expr.Compile(strings.TrimSpace(rhs), expr.Env(env), expr.AsFloat64())
		if err != nil {
			return nil, fmt.Errorf("compile %q: %w", line, err)
		}
		out = append(out, assignment{symbol: lhs, program: program})
		env[lhs] = 0.0
	}
	return out, nil
}

func baseEnv(params map[string]float64) map[string]any {
	env := make(map[string]any, len(functions)+len(params)+4)
	for k, fn := range functions {
		env[k] = fn
	}
	for k, v := range params {
		env[k] = v
	}
	return env
}

// ArgNames returns the argument symbols in sorted order.
func (e *Equation) ArgNames() []string {
	names := make([]string, 0, len(e.Args))
	for k := range e.Args {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Eval evaluates the equation. Every declared argument must be supplied.
func (e *Equation) Eval(args map[string]float64) (float64, error) {
	return e.run(e.body, args, e.Symbol)
}

// FirstDerivative returns d(result)/d(arg). The declared derivative body is
// used for single-argument equations; otherwise a central difference is taken.
func (e *Equation) FirstDerivative(arg string, args map[string]float64) (float64, error) {
	if len(e.derivative) > 0 && len(e.Args) == 1 {
		if _, ok := e.Args[arg]; ok {
			return e.run(e.derivative, args, "")
		}
	}
	x, ok := args[arg]
	if !ok {
		return 0, fmt.Errorf("equation %s: missing argument %q", e.ID, arg)
	}
	h := 1e-6 * math.Max(math.Abs(x), 1)
	shifted := make(map[string]float64, len(args))
	for k, v := range args {
		shifted[k] = v
	}
	shifted[arg] = x + h
	hi, err := e.Eval(shifted)
	if err != nil {
		return 0, err
	}
	shifted[arg] = x - h
	lo, err := e.Eval(shifted)
	if err != nil {
		return 0, err
	}
	return (hi - lo) / (2 * h), nil
}

// run evaluates body and returns the value of symbol, or of the last
// assignment when symbol is empty.
func (e *Equation) run(body []assignment, args map[string]float64, symbol string) (float64, error) {
	env := baseEnv(e.Params)
	for name := range e.Args {
		v, ok := args[name]
		if !ok {
			return 0, fmt.Errorf("equation %s: missing argument %q", e.ID, name)
		}
		env[name] = v
	}

	var last float64
	for _, a := range body {
		out, err := expr.Run(a.program, env)
		if err != nil {
			return 0, fmt.Errorf("equation %s: evaluate %s: %w", e.ID, a.symbol, err)
		}
		v, ok := out.(float64)
		if !ok {
			return 0, fmt.Errorf("equation %s: %s evaluated to %T", e.ID, a.symbol, out)
		}
		env[a.symbol] = v
		last = v
	}
	if symbol != "" {
		if v, ok := env[symbol].(float64); ok {
			last = v
		}
	}
	if math.IsNaN(last) || math.IsInf(last, 0) {
		return 0, fmt.Errorf("equation %s: result is not finite", e.ID)
	}
	return last, nil
}
