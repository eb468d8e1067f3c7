package thermodb

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wagnerlima/mozichem-hub/internal/models"
	"github.com/wagnerlima/mozichem-hub/internal/references"
)

func defaultSetup(t *testing.T) (*references.Corpus, models.ComponentConfig, models.Rule) {
	t.Helper()
	corpus, err := references.DefaultCorpus()
	require.NoError(t, err)
	cfg, err := references.DefaultConfig()
	require.NoError(t, err)
	return corpus, cfg[models.ALL], references.ComponentRule(cfg[models.ALL])
}

func TestCompileEquation(t *testing.T) {
	spec := references.EquationSpec{
		ID:      "EQ-1",
		Body:    []string{"a = C1 * T", "Y = a + C2 * T**2 + ln(exp(1.0))"},
		Args:    map[string]string{"T": "K"},
		Returns: map[string]string{"Y": "J"},
	}
	eq, err := CompileEquation(spec, map[string]float64{"C1": 2, "C2": 0.5})
	require.NoError(t, err)
	require.Equal(t, "Y", eq.Symbol)
	require.Equal(t, "J", eq.Unit)

	y, err := eq.Eval(map[string]float64{"T": 10})
	require.NoError(t, err)
	require.InDelta(t, 2*10+0.5*100+1, y, 1e-12)

	// numeric derivative: 2 + T
	d, err := eq.FirstDerivative("T", map[string]float64{"T": 10})
	require.NoError(t, err)
	require.InDelta(t, 12, d, 1e-5)

	_, err = eq.Eval(map[string]float64{})
	require.ErrorContains(t, err, `missing argument "T"`)
}

func TestCompileEquationErrors(t *testing.T) {
	_, err := CompileEquation(references.EquationSpec{
		ID: "EQ-1", Body: []string{"Y = C9 * T"}, Args: map[string]string{"T": "K"}, Returns: map[string]string{"Y": "J"},
	}, map[string]float64{"C1": 1})
	require.Error(t, err)

	_, err = CompileEquation(references.EquationSpec{
		ID: "EQ-1", Body: []string{"no assignment here"}, Returns: map[string]string{"Y": "J"},
	}, nil)
	require.ErrorContains(t, err, "not an assignment")

	eq, err := CompileEquation(references.EquationSpec{
		ID: "EQ-1", Body: []string{"Y = ln(T)"}, Args: map[string]string{"T": "K"}, Returns: map[string]string{"Y": "J"},
	}, nil)
	require.NoError(t, err)
	_, err = eq.Eval(map[string]float64{"T": -1})
	require.ErrorContains(t, err, "not finite")
}

func TestBuildWaterVaporPressure(t *testing.T) {
	corpus, cfg, rule := defaultSetup(t)
	water := models.Component{Name: "water", Formula: "H2O", State: "liquid"}

	ctdb, err := Build(corpus, water, models.KeyByName, cfg, rule, Hints{})
	require.NoError(t, err)
	require.Equal(t, models.ComponentKeyNameState, ctdb.ComponentKey)
	require.InDelta(t, 647.096, ctdb.Data["Tc"].Value, 1e-9)
	require.Equal(t, "MPa", ctdb.Data["Pc"].Unit)

	vp := ctdb.Equations["VaPr"]
	require.NotNil(t, vp)
	p, err := vp.Eval(map[string]float64{"T": 373.15})
	require.NoError(t, err)
	require.InDelta(t, 101325, p, 1500)

	// declared derivative matches the numeric one
	declared, err := vp.FirstDerivative("T", map[string]float64{"T": 350})
	require.NoError(t, err)
	h := 1e-3
	hi, _ := vp.Eval(map[string]float64{"T": 350 + h})
	lo, _ := vp.Eval(map[string]float64{"T": 350 - h})
	require.InEpsilon(t, (hi-lo)/(2*h), declared, 1e-4)
}

func TestBuildModeGivesSameResult(t *testing.T) {
	corpus, cfg, rule := defaultSetup(t)
	co2 := models.Component{Name: "carbon dioxide", Formula: "CO2", State: "g"}

	byName, err := Build(corpus, co2, models.KeyByName, cfg, rule, Hints{})
	require.NoError(t, err)
	byFormula, err := Build(corpus, co2, models.KeyByFormula, cfg, rule, Hints{})
	require.NoError(t, err)

	require.Equal(t, models.ComponentKeyFormulaState, byFormula.ComponentKey)
	require.Equal(t, byName.Data, byFormula.Data)
	require.Equal(t, byName.Equations["VaPr"].Params, byFormula.Equations["VaPr"].Params)
}

func TestBuildStateMatching(t *testing.T) {
	corpus, cfg, rule := defaultSetup(t)
	co2Liquid := models.Component{Name: "carbon dioxide", Formula: "CO2", State: "l"}

	_, err := Build(corpus, co2Liquid, models.KeyByName, cfg, rule, Hints{})
	require.ErrorContains(t, err, "not found")

	ctdb, err := Build(corpus, co2Liquid, models.KeyByName, cfg, rule, Hints{IgnoreStateProps: []string{"general", "VaPr"}})
	require.NoError(t, err)
	require.InDelta(t, 304.21, ctdb.Data["Tc"].Value, 1e-9)

	// symbol names work as well as property names
	_, err = Build(corpus, co2Liquid, models.KeyByName, cfg, rule, Hints{IgnoreStateProps: []string{"Tc", "VAPOR-PRESSURE"}})
	require.NoError(t, err)
}

func TestBuildIgnoreLabels(t *testing.T) {
	corpus, cfg, rule := defaultSetup(t)
	cfg = references.CloneComponentConfig(cfg)
	general := cfg["general"]
	general.Labels["Hf"] = "Hf_IG"
	cfg["general"] = general

	co2 := models.Component{Name: "carbon dioxide", Formula: "CO2", State: "g"}
	_, err := Build(corpus, co2, models.KeyByName, cfg, rule, Hints{})
	require.ErrorContains(t, err, "no value for Hf_IG")

	ctdb, err := Build(corpus, co2, models.KeyByName, cfg, rule, Hints{IgnoreLabels: []string{"Hf_IG"}})
	require.NoError(t, err)
	require.NotContains(t, ctdb.Data, "Hf")
	require.Contains(t, ctdb.Properties(), "Tc")
}

func TestBuildMissingTable(t *testing.T) {
	corpus, _, _ := defaultSetup(t)
	cfg := models.ComponentConfig{"VaPr": {Databook: "MOZICHEM-DEFAULT", Table: "NOPE", Mode: models.ModeEquations, Label: "VaPr"}}
	_, err := Build(corpus, models.Component{Name: "water", Formula: "H2O", State: "l"}, models.KeyByName, cfg, nil, Hints{})
	require.ErrorContains(t, err, "not found")
}

func TestStoreRegistersBothKeys(t *testing.T) {
	corpus, cfg, rule := defaultSetup(t)
	co2 := models.Component{Name: "carbon dioxide", Formula: "CO2", State: "g"}
	ctdb, err := Build(corpus, co2, models.KeyByName, cfg, rule, Hints{})
	require.NoError(t, err)

	store := NewStore()
	store.Register(ctdb)
	require.Equal(t, 2, store.Len())

	byName, ok := store.Lookup("carbon dioxide-g")
	require.True(t, ok)
	byFormula, ok := store.Lookup("CO2-g")
	require.True(t, ok)
	require.Same(t, byName, byFormula)

	ms := store.ModelSource()
	tc, err := ms.Value(co2, "Tc")
	require.NoError(t, err)
	require.InDelta(t, 304.21, tc.Value, 1e-9)
	require.True(t, ms.HasEquation(co2, "VaPr"))

	_, err = ms.Value(models.Component{Name: "water", Formula: "H2O", State: "l"}, "Tc")
	require.Error(t, err)

	eq, err := ms.Equation(co2, "VaPr")
	require.NoError(t, err)
	p, err := eq.Eval(map[string]float64{"T": 300})
	require.NoError(t, err)
	require.False(t, math.IsNaN(p))
	require.InDelta(t, 6.7e6, p, 0.2e6)
}
