// Package references loads reference content (databooks of property tables and
// equations), normalizes user-supplied reference configuration, and derives the
// symbol-binding link between logical property names and table symbols.
package references

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/wagnerlima/mozichem-hub/internal/models"
)

// none is the placeholder token used by the text format for empty cells.
const none = "None"

// Corpus is a parsed set of databooks.
type Corpus struct {
	Databooks []*Databook
	byID      map[string]*Databook
}

// Databook is a named collection of tables.
type Databook struct {
	ID     string
	Tables []*Table
	byName map[string]*Table
}

// Table is either a data table or an equation table.
type Table struct {
	Databook           string
	Name               string
	TableID            string
	Description        string
	Columns            []string
	Symbols            []string
	Units              []string
	Conversions        []string
	Rows               []Row
	Equations          []EquationSpec
	ExternalReferences []string

	nameCol, formulaCol, stateCol int
}

// Row is one line of VALUES.
type Row []any

// EquationSpec is an equation declared in an EQUATIONS section.
type EquationSpec struct {
	ID               string
	Body             []string
	Args             map[string]string
	Returns          map[string]string
	Integral         []string
	FirstDerivative  []string
	SecondDerivative []string
}

// ReturnSymbol returns the first declared return symbol.
func (e EquationSpec) ReturnSymbol() string {
	keys := sortedKeys(e.Returns)
	if len(keys) == 0 {
		return ""
	}
	return keys[0]
}

func newCorpus() *Corpus {
	return &Corpus{byID: map[string]*Databook{}}
}

func (c *Corpus) add(book *Databook) {
	if existing, ok := c.byID[book.ID]; ok {
		for i, b := range c.Databooks {
			if b == existing {
				c.Databooks[i] = book
			}
		}
	} else {
		c.Databooks = append(c.Databooks, book)
	}
	c.byID[book.ID] = book
}

// Databook returns a databook by id.
func (c *Corpus) Databook(id string) (*Databook, bool) {
	if c == nil {
		return nil, false
	}
	b, ok := c.byID[strings.TrimSpace(id)]
	return b, ok
}

// Table returns a table by databook id and table name.
func (c *Corpus) Table(databook, table string) (*Table, bool) {
	b, ok := c.Databook(databook)
	if !ok {
		return nil, false
	}
	return b.Table(table)
}

// Empty reports whether the corpus has no databook.
func (c *Corpus) Empty() bool {
	return c == nil || len(c.Databooks) == 0
}

// Merge returns a corpus with the databooks of c followed by the databooks of
// base that c does not define.
func (c *Corpus) Merge(base *Corpus) *Corpus {
	out := newCorpus()
	for _, src := range []*Corpus{c, base} {
		if src == nil {
			continue
		}
		for _, b := range src.Databooks {
			if _, ok := out.byID[b.ID]; !ok {
				out.add(b)
			}
		}
	}
	return out
}

// Table returns a table by name (case-insensitive).
func (b *Databook) Table(name string) (*Table, bool) {
	t, ok := b.byName[strings.ToUpper(strings.TrimSpace(name))]
	return t, ok
}

// Mode returns EQUATIONS for equation tables and DATA otherwise.
func (t *Table) Mode() models.Mode {
	if len(t.Equations) > 0 {
		return models.ModeEquations
	}
	return models.ModeData
}

// Identity returns the name, formula and state of a row.
func (t *Table) Identity(r Row) (name, formula, state string) {
	return cell(r, t.nameCol), cell(r, t.formulaCol), models.NormalizeState(cell(r, t.stateCol))
}

// FindRow returns the row of a component. Rows match by name (case-insensitive)
// or formula, and by state unless ignoreState is set.
func (t *Table) FindRow(c models.Component, ignoreState bool) (Row, bool) {
	c = c.Normalize()
	var fallback Row
	for _, r := range t.Rows {
		name, formula, state := t.Identity(r)
		if !strings.EqualFold(name, c.Name) && formula != c.Formula {
			continue
		}
		if state == c.State {
			return r, true
		}
		if ignoreState && fallback == nil {
			fallback = r
		}
	}
	return fallback, fallback != nil
}

// FindRowBy returns the row whose name (KeyByName, case-insensitive) or formula
// (KeyByFormula) equals id, with the same state unless ignoreState is set.
func (t *Table) FindRowBy(id string, by models.KeyMode, state string, ignoreState bool) (Row, bool) {
	id = strings.TrimSpace(id)
	state = models.NormalizeState(state)
	var fallback Row
	for _, r := range t.Rows {
		name, formula, rowState := t.Identity(r)
		if by == models.KeyByFormula {
			if formula != id {
				continue
			}
		} else if !strings.EqualFold(name, id) {
			continue
		}
		if rowState == state {
			return r, true
		}
		if ignoreState && fallback == nil {
			fallback = r
		}
	}
	return fallback, fallback != nil
}

// ColumnOf returns the index of a symbol.
func (t *Table) ColumnOf(symbol string) int {
	for i, s := range t.Symbols {
		if s != "" && s == symbol {
			return i
		}
	}
	return -1
}

// Value returns the numeric value of symbol in row r.
func (t *Table) Value(r Row, symbol string) (float64, bool) {
	i := t.ColumnOf(symbol)
	if i < 0 || i >= len(r) {
		return 0, false
	}
	return toFloat(r[i])
}

// Unit returns the unit declared for symbol.
func (t *Table) Unit(symbol string) string {
	i := t.ColumnOf(symbol)
	if i < 0 || i >= len(t.Units) {
		return ""
	}
	return t.Units[i]
}

// Parameters returns every numeric symbol value of a row.
func (t *Table) Parameters(r Row) map[string]float64 {
	params := make(map[string]float64, len(t.Symbols))
	for i, s := range t.Symbols {
		if s == "" || i >= len(r) {
			continue
		}
		if v, ok := toFloat(r[i]); ok {
			params[s] = v
		}
	}
	return params
}

// DataSymbols returns the declared symbols, skipping the identity columns.
func (t *Table) DataSymbols() []string {
	var out []string
	for i, s := range t.Symbols {
		if s == "" || i == t.nameCol || i == t.formulaCol || i == t.stateCol {
			continue
		}
		out = append(out, s)
	}
	return out
}

// Equation returns the equation whose returns include symbol, or the first
// equation when symbol is empty.
func (t *Table) Equation(symbol string) (EquationSpec, bool) {
	for _, eq := range t.Equations {
		if symbol == "" {
			return eq, true
		}
		if _, ok := eq.Returns[symbol]; ok {
			return eq, true
		}
	}
	return EquationSpec{}, false
}

// ReturnSymbols lists the return symbols of every equation in declaration order.
func (t *Table) ReturnSymbols() []string {
	var out []string
	for _, eq := range t.Equations {
		out = append(out, sortedKeys(eq.Returns)...)
	}
	return out
}

func cell(r Row, i int) string {
	if i < 0 || i >= len(r) || r[i] == nil {
		return ""
	}
	return strings.TrimSpace(toString(r[i]))
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n)
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case string:
		s := strings.TrimSpace(n)
		if s == "" || s == none {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func toString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'g', -1, 64)
	case int:
		return strconv.Itoa(s)
	case bool:
		return strconv.FormatBool(s)
	default:
		return ""
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
