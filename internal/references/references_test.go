package references

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wagnerlima/mozichem-hub/internal/errs"
	"github.com/wagnerlima/mozichem-hub/internal/models"
)

const co2Content = `# REFERENCES
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
EXTERNAL-REFERENCES: None
`

func TestParseDefaultCorpus(t *testing.T) {
	corpus, err := DefaultCorpus()
	require.NoError(t, err)
	require.Len(t, corpus.Databooks, 1)

	general, ok := corpus.Table("MOZICHEM-DEFAULT", "general")
	require.True(t, ok)
	require.Equal(t, models.ModeData, general.Mode())
	require.Equal(t, []string{"MW", "Tc", "Pc", "Zc", "AcFa"}, general.DataSymbols())

	row, ok := general.FindRow(models.Component{Name: "Carbon Dioxide", Formula: "CO2", State: "gas"}, false)
	require.True(t, ok)
	tc, ok := general.Value(row, "Tc")
	require.True(t, ok)
	require.InDelta(t, 304.21, tc, 1e-9)
	require.Equal(t, "MPa", general.Unit("Pc"))

	vp, ok := corpus.Table("MOZICHEM-DEFAULT", "VAPOR-PRESSURE")
	require.True(t, ok)
	require.Equal(t, models.ModeEquations, vp.Mode())
	eq, ok := vp.Equation("VaPr")
	require.True(t, ok)
	require.Equal(t, "EQ-1", eq.ID)
	require.Equal(t, map[string]string{"T": "K"}, eq.Args)
	require.Len(t, eq.FirstDerivative, 1)
	require.Empty(t, eq.Integral)
}

func TestFindRowState(t *testing.T) {
	corpus, err := DefaultCorpus()
	require.NoError(t, err)
	general, _ := corpus.Table("MOZICHEM-DEFAULT", "GENERAL")

	co2Liquid := models.Component{Name: "carbon dioxide", Formula: "CO2", State: "l"}
	_, ok := general.FindRow(co2Liquid, false)
	require.False(t, ok)

	_, ok = general.FindRow(co2Liquid, true)
	require.True(t, ok)

	// formula match alone is enough
	_, ok = general.FindRow(models.Component{Name: "R-744", Formula: "CO2", State: "g"}, false)
	require.True(t, ok)
}

func TestParseErrors(t *testing.T) {
	_, err := Parse("# REFERENCES\n")
	require.ErrorIs(t, err, errs.ErrNoDatabookFound)

	_, err = Parse("None")
	require.ErrorIs(t, err, errs.ErrNoDatabookFound)

	_, err = Parse("# REFERENCES\n## B\n### t\nSTRUCTURE: [unclosed\n")
	require.ErrorIs(t, err, errs.ErrInvalidReference)

	_, err = Parse("# REFERENCES\n### orphan\nTABLE-ID: 1\n")
	require.ErrorIs(t, err, errs.ErrInvalidReference)

	bad := `## B
### t
STRUCTURE:
  COLUMNS: [Name, Formula, State, Tc]
  SYMBOL: [None, None, None, Tc]
VALUES:
  - ['water', 'H2O', 'l']
`
	_, err = Parse(bad)
	require.ErrorIs(t, err, errs.ErrInvalidReference)
	require.Contains(t, err.Error(), "row 1")
}

func TestParseOverridesDatabookByID(t *testing.T) {
	override := `## MOZICHEM-DEFAULT
### GENERAL
STRUCTURE:
  COLUMNS: [Name, Formula, State, Critical-Temperature]
  SYMBOL: [None, None, None, Tc]
VALUES:
  - ['water', 'H2O', 'l', 650]
`
	corpus, err := Parse(DefaultContent(), override)
	require.NoError(t, err)
	require.Len(t, corpus.Databooks, 1)

	_, ok := corpus.Table("MOZICHEM-DEFAULT", "VAPOR-PRESSURE")
	require.False(t, ok)

	general, ok := corpus.Table("MOZICHEM-DEFAULT", "GENERAL")
	require.True(t, ok)
	require.Len(t, general.Rows, 1)
}

func TestCorpusMergeKeepsOwnDatabooks(t *testing.T) {
	base, err := DefaultCorpus()
	require.NoError(t, err)
	own, err := Parse(`## CUSTOM-REF-1
### general-data
STRUCTURE:
  COLUMNS: [Name, Formula, State, Critical-Temperature]
  SYMBOL: [None, None, None, Tc]
VALUES:
  - ['water', 'H2O', 'l', 650]
## MOZICHEM-DEFAULT
### GENERAL
STRUCTURE:
  COLUMNS: [Name, Formula, State, Critical-Temperature]
  SYMBOL: [None, None, None, Tc]
VALUES:
  - ['water', 'H2O', 'l', 651]
`)
	require.NoError(t, err)

	merged := own.Merge(base)
	require.Len(t, merged.Databooks, 2)
	require.Equal(t, "CUSTOM-REF-1", merged.Databooks[0].ID)
	book, ok := merged.Databook("MOZICHEM-DEFAULT")
	require.True(t, ok)
	require.Same(t, own.Databooks[1], book)

	copied := base.Merge(nil)
	require.Len(t, copied.Databooks, len(base.Databooks))
}

func TestTransformDefaults(t *testing.T) {
	for _, in := range []struct{ content, config any }{
		{nil, nil},
		{"None", "None"},
		{"", "  "},
		{[]any{"None"}, nil},
	} {
		refs, err := Transform(in.content, in.config)
		require.NoError(t, err)
		require.Equal(t, []string{DefaultContent()}, refs.Contents)
		require.Contains(t, refs.Config, models.ALL)
		require.NotEmpty(t, refs.Link)
	}
}

func TestTransformCustom(t *testing.T) {
	config := `
CO2-g:
  general:
    databook: CUSTOM-REF-1
    table: general-data
    mode: DATA
    labels:
      Pc: Pc
      Tc: Tc
      AcFa: AcFa
`
	refs, err := Transform(co2Content, config)
	require.NoError(t, err)
	require.Equal(t, []string{co2Content}, refs.Contents)
	require.Equal(t, "CUSTOM-REF-1", refs.Config["CO2-g"]["general"].Databook)

	var link map[string]map[string]map[string]string
	require.NoError(t, json.Unmarshal([]byte(refs.Link), &link))
	require.Equal(t, map[string]string{"Pc": "Pc", "Tc": "Tc", "AcFa": "AcFa"}, link["CO2-g"]["DATA"])
	require.Nil(t, link["CO2-g"]["EQUATIONS"])
	require.Contains(t, refs.Link, `"EQUATIONS":null`)
}

func TestTransformNativeMapping(t *testing.T) {
	config := map[string]any{
		"ALL": map[string]any{
			"VaPr": map[string]any{"databook": "MOZICHEM-DEFAULT", "table": "VAPOR-PRESSURE", "mode": "equations", "label": "VaPr"},
			"general": models.ComponentPropertySource{
				Databook: "MOZICHEM-DEFAULT", Table: "GENERAL", Mode: models.ModeData,
				Labels: map[string]string{"Tc": "Tc"},
			},
		},
	}
	refs, err := Transform(nil, config)
	require.NoError(t, err)
	require.Equal(t, models.ModeEquations, refs.Config[models.ALL]["VaPr"].Mode)

	rules, err := ParseLink(refs.Link)
	require.NoError(t, err)
	require.Equal(t, "VaPr", rules[models.ALL][models.ModeEquations]["VaPr"])
	require.Equal(t, "Tc", rules[models.ALL][models.ModeData]["Tc"])
}

func TestTransformErrors(t *testing.T) {
	_, err := Transform(42, nil)
	require.ErrorIs(t, err, errs.ErrInvalidReference)

	_, err = Transform([]any{"ok", 3}, nil)
	require.ErrorIs(t, err, errs.ErrInvalidReference)

	_, err = Transform(nil, []int{1})
	require.ErrorIs(t, err, errs.ErrInvalidReference)

	_, err = Transform(nil, "ALL: [1, 2]")
	require.ErrorIs(t, err, errs.ErrInvalidReference)

	// scalar documents are not configs
	for _, text := range []string{"foo", "42", "[a, b]", "# only a comment"} {
		_, err = Transform(nil, text)
		require.ErrorIs(t, err, errs.ErrInvalidReference, text)
		_, err = ParseConfig(text)
		require.ErrorIs(t, err, errs.ErrInvalidReference, text)
	}

	both := `ALL: {VaPr: {databook: B, table: T, mode: EQUATIONS, label: VaPr, labels: {a: b}}}`
	_, err = Transform(nil, both)
	require.ErrorIs(t, err, errs.ErrReferenceConfigInvalid)

	neither := `ALL: {VaPr: {databook: B, table: T, mode: EQUATIONS}}`
	_, err = Transform(nil, neither)
	require.ErrorIs(t, err, errs.ErrReferenceConfigInvalid)

	noTable := `ALL: {VaPr: {databook: B, mode: EQUATIONS, label: VaPr}}`
	_, err = Transform(nil, noTable)
	require.ErrorIs(t, err, errs.ErrReferenceConfigInvalid)
}

func TestConfigRoundTripIsIdempotent(t *testing.T) {
	cfg, err := DefaultConfig()
	require.NoError(t, err)

	first, err := SerializeConfig(cfg)
	require.NoError(t, err)
	parsed, err := ParseConfig(first)
	require.NoError(t, err)
	second, err := SerializeConfig(parsed)
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.Equal(t, cfg, parsed)
}

func TestLinkSections(t *testing.T) {
	cfg, err := DefaultConfig()
	require.NoError(t, err)
	rules := Rules(cfg)
	all := rules[models.ALL]

	for prop, src := range cfg[models.ALL] {
		if src.Label != "" {
			require.Equal(t, src.Label, all[models.ModeEquations][prop])
			continue
		}
		for name := range src.Labels {
			require.Contains(t, all[models.ModeData], name)
		}
		require.NotContains(t, all[models.ModeEquations], prop)
	}
}

func TestMergeConfigReplacesPerKey(t *testing.T) {
	base, err := DefaultConfig()
	require.NoError(t, err)
	override := models.ReferenceConfig{
		models.ALL: {"VaPr": {Databook: "X", Table: "Y", Mode: models.ModeEquations, Label: "VaPr"}},
		"CO2-g":    {"general": {Databook: "X", Table: "Z", Mode: models.ModeData, Labels: map[string]string{"Tc": "Tc"}}},
	}
	merged := MergeConfig(base, override)
	require.Len(t, merged[models.ALL], 1)
	require.Equal(t, "X", merged[models.ALL]["VaPr"].Databook)
	require.Contains(t, merged, "CO2-g")

	// base untouched
	require.Len(t, base[models.ALL], 2)
}
