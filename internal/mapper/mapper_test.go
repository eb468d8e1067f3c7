package mapper

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/wagnerlima/mozichem-hub/internal/errs"
	"github.com/wagnerlima/mozichem-hub/internal/models"
	"github.com/wagnerlima/mozichem-hub/internal/references"
)

const customCO2 = `# REFERENCES
## CUSTOM-REF-1
### general-data
TABLE-ID: 1
DESCRIPTION: CO2 critical data
STRUCTURE:
  COLUMNS: [No., Name, Formula, State, Critical-Temperature, Critical-Pressure, Acentric-Factor]
  SYMBOL: [None, None, None, None, Tc, Pc, AcFa]
  UNIT: [None, None, None, None, K, MPa, None]
  CONVERSION: [None, None, None, None, 1, 1, 1]
VALUES:
  - [1, 'carbon dioxide', 'CO2', 'g', 304.2, 7.376, 0.225]
`

var co2 = models.Component{Name: "carbon dioxide", Formula: "CO2", State: "g"}

func TestGenerateReferencesDefaults(t *testing.T) {
	refs, err := references.Transform(nil, nil)
	require.NoError(t, err)

	rtdb, err := New(zerolog.Nop()).GenerateReferences(refs, []string{"VaPr"})
	require.NoError(t, err)
	require.Equal(t, []string{references.DefaultContent()}, rtdb.Contents)
	require.Contains(t, rtdb.Reference, "MOZICHEM-DEFAULT")
	require.Contains(t, rtdb.Configs, models.ALL)
	require.Equal(t, "VaPr", rtdb.Rules[models.ALL][models.ModeEquations]["VaPr"])
	require.Equal(t, []string{"VaPr"}, rtdb.IgnoreProps[models.ALL])
	require.Contains(t, rtdb.Labels[models.ALL], "Tc")
}

func TestGenerateReferencesUserWins(t *testing.T) {
	config := `
ALL:
  general:
    databook: CUSTOM-REF-1
    table: general-data
    mode: DATA
    labels: {Tc: Tc, Pc: Pc, AcFa: AcFa}
CO2-g:
  general:
    databook: CUSTOM-REF-1
    table: general-data
    mode: DATA
    labels: {Tc: Tc}
`
	refs, err := references.Transform(customCO2, config)
	require.NoError(t, err)

	rtdb, err := New(zerolog.Nop()).GenerateReferences(refs, nil)
	require.NoError(t, err)

	// bundled content kept, user content parsed after it
	require.Len(t, rtdb.Contents, 2)
	require.Equal(t, references.DefaultContent(), rtdb.Contents[0])
	require.Equal(t, customCO2, rtdb.Contents[1])

	// ALL replaced wholesale: VaPr from the bundled config is gone
	require.Len(t, rtdb.Configs[models.ALL], 1)
	require.Equal(t, "CUSTOM-REF-1", rtdb.Configs[models.ALL]["general"].Databook)
	require.Contains(t, rtdb.Configs, "CO2-g")
	require.Empty(t, rtdb.IgnoreProps)
}

// overrideGeneral redefines the bundled databook with a single CO2 row.
const overrideGeneral = `## MOZICHEM-DEFAULT
### GENERAL
STRUCTURE:
  COLUMNS: [Name, Formula, State, Critical-Temperature, Critical-Pressure, Acentric-Factor]
  SYMBOL: [None, None, None, Tc, Pc, AcFa]
VALUES:
  - ['carbon dioxide', 'CO2', 'g', 999.0, 7.383, 0.2236]
`

func TestGenerateReferencesUserDatabookOverridesBundled(t *testing.T) {
	config := `ALL: {general: {databook: MOZICHEM-DEFAULT, table: GENERAL, mode: DATA, labels: {Tc: Tc, Pc: Pc, AcFa: AcFa}}}`
	refs, err := references.Transform(overrideGeneral, config)
	require.NoError(t, err)

	rtdb, err := New(zerolog.Nop()).GenerateReferences(refs, nil)
	require.NoError(t, err)
	require.Equal(t, overrideGeneral, rtdb.Reference["MOZICHEM-DEFAULT"])

	corpus, err := references.Parse(rtdb.Contents...)
	require.NoError(t, err)
	table, ok := corpus.Table("MOZICHEM-DEFAULT", "GENERAL")
	require.True(t, ok)
	row, ok := table.FindRow(co2, false)
	require.True(t, ok)
	tc, ok := table.Value(row, "Tc")
	require.True(t, ok)
	require.InDelta(t, 999.0, tc, 1e-9)

	// the replaced databook no longer has the bundled vapor pressure table
	_, ok = corpus.Table("MOZICHEM-DEFAULT", "VAPOR-PRESSURE")
	require.False(t, ok)
}

func TestGenerateReferencesOverrideMissingBundledTable(t *testing.T) {
	// the bundled config still points at VAPOR-PRESSURE, which the user databook dropped
	refs, err := references.Transform(overrideGeneral, nil)
	require.NoError(t, err)
	_, err = New(zerolog.Nop()).GenerateReferences(refs, nil)
	require.ErrorIs(t, err, errs.ErrReferenceConfigInvalid)
}

func TestComponentReferenceThermoDBPrefersUserDatabook(t *testing.T) {
	rtdb, err := New(zerolog.Nop()).ComponentReferenceThermoDB(co2, []string{overrideGeneral}, models.KeyByFormula, nil)
	require.NoError(t, err)
	cc := rtdb.Configs["CO2-g"]
	require.Equal(t, map[string]string{"Tc": "Tc", "Pc": "Pc", "AcFa": "AcFa"}, cc["GENERAL"].Labels)
	require.Equal(t, overrideGeneral, rtdb.Reference["MOZICHEM-DEFAULT"])
	require.NotContains(t, cc, "VaPr")
}

func TestGenerateReferencesUnknownTable(t *testing.T) {
	refs, err := references.Transform(nil, `ALL: {VaPr: {databook: NOPE, table: T, mode: EQUATIONS, label: VaPr}}`)
	require.NoError(t, err)
	_, err = New(zerolog.Nop()).GenerateReferences(refs, nil)
	require.ErrorIs(t, err, errs.ErrReferenceConfigInvalid)

	refs, err = references.Transform(nil, `ALL: {VaPr: {databook: MOZICHEM-DEFAULT, table: GENERAL, mode: EQUATIONS, label: VaPr}}`)
	require.NoError(t, err)
	_, err = New(zerolog.Nop()).GenerateReferences(refs, nil)
	require.ErrorIs(t, err, errs.ErrReferenceConfigInvalid)
}

func TestComponentReferenceThermoDBInfersBothKeys(t *testing.T) {
	rtdb, err := New(zerolog.Nop()).ComponentReferenceThermoDB(co2, []string{customCO2}, models.KeyByName, nil)
	require.NoError(t, err)

	byName := rtdb.Configs["carbon dioxide-g"]
	byFormula := rtdb.Configs["CO2-g"]
	require.NotEmpty(t, byName)
	require.Equal(t, byName, byFormula)
	require.Equal(t, rtdb.Rules["carbon dioxide-g"], rtdb.Rules["CO2-g"])

	// custom data wins over the bundled GENERAL table for shared symbols
	general := byName["general-data"]
	require.Equal(t, "CUSTOM-REF-1", general.Databook)
	require.Equal(t, map[string]string{"Tc": "Tc", "Pc": "Pc", "AcFa": "AcFa"}, general.Labels)

	// symbols missing from custom content come from the bundled corpus
	require.Equal(t, map[string]string{"MW": "MW", "Zc": "Zc"}, byName["GENERAL"].Labels)
	require.Equal(t, models.ModeEquations, byName["VaPr"].Mode)
}

func TestComponentsReferenceThermoDBStatePolicy(t *testing.T) {
	m := New(zerolog.Nop())
	co2Liquid := models.Component{Name: "carbon dioxide", Formula: "CO2", State: "l"}

	_, err := m.ComponentReferenceThermoDB(co2Liquid, []string{customCO2}, models.KeyByFormula, nil)
	require.ErrorIs(t, err, errs.ErrReferenceConfigMissing)

	all, err := m.ComponentsReferenceThermoDB([]models.Component{co2Liquid}, []string{customCO2}, models.KeyByFormula, []string{"general-data", "VaPr"})
	require.NoError(t, err)
	rtdb := all["CO2-l"]
	require.NotNil(t, rtdb)
	require.Contains(t, rtdb.Configs["CO2-l"], "general-data")
	require.Contains(t, rtdb.Configs["CO2-l"], "VaPr")
	// GENERAL is not ignored, so its different-state row is skipped
	require.NotContains(t, rtdb.Configs["CO2-l"], "GENERAL")
	require.Equal(t, []string{"general-data", "VaPr"}, rtdb.IgnoreProps["carbon dioxide-l"])
}

func TestComponentsReferenceThermoDBNoDatabook(t *testing.T) {
	m := New(zerolog.Nop())
	_, err := m.ComponentsReferenceThermoDB([]models.Component{co2}, []string{"# REFERENCES\n"}, models.KeyByName, nil)
	require.ErrorIs(t, err, errs.ErrNoDatabookFound)

	// an empty databook still counts; the bundled corpus supplies the data
	all, err := m.ComponentsReferenceThermoDB([]models.Component{co2}, []string{"# REFERENCES\n## B\n"}, models.KeyByName, nil)
	require.NoError(t, err)
	require.Contains(t, all["carbon dioxide-g"].Configs["CO2-g"], "GENERAL")
}

func TestCombine(t *testing.T) {
	m := New(zerolog.Nop())
	water := models.Component{Name: "water", Formula: "H2O", State: "l"}
	all, err := m.ComponentsReferenceThermoDB([]models.Component{co2, water}, []string{customCO2}, models.KeyByName, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)

	combined := Combine(all)
	for _, key := range []string{"carbon dioxide-g", "CO2-g", "water-l", "H2O-l"} {
		require.Contains(t, combined.Configs, key)
		require.Contains(t, combined.Rules, key)
	}
	require.Len(t, combined.Contents, 2)
}

func TestReferenceThermoDBFromConfig(t *testing.T) {
	refs, err := references.Transform(customCO2, `CO2-g: {general: {databook: CUSTOM-REF-1, table: general-data, mode: DATA, labels: {Tc: Tc}}}`)
	require.NoError(t, err)
	rtdb, err := ReferenceThermoDBFromConfig(refs, []string{"general"})
	require.NoError(t, err)
	require.NotContains(t, rtdb.Configs, models.ALL)
	require.Equal(t, []string{"general"}, rtdb.IgnoreProps["CO2-g"])
}
