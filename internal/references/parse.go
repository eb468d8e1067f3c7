package references

import (
	"bufio"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wagnerlima/mozichem-hub/internal/errs"
)

type tableBody struct {
	TableID            any                     `yaml:"TABLE-ID"`
	Description        any                     `yaml:"DESCRIPTION"`
	Equations          map[string]equationBody `yaml:"EQUATIONS"`
	Structure          structureBody           `yaml:"STRUCTURE"`
	Values             [][]any                 `yaml:"VALUES"`
	ExternalReferences any                     `yaml:"EXTERNAL-REFERENCES"`
}

type structureBody struct {
	Columns    []any `yaml:"COLUMNS"`
	Symbol     []any `yaml:"SYMBOL"`
	Unit       []any `yaml:"UNIT"`
	Conversion []any `yaml:"CONVERSION"`
}

type equationBody struct {
	Body             any            `yaml:"BODY"`
	Args             map[string]any `yaml:"ARGS"`
	Returns          map[string]any `yaml:"RETURNS"`
	Integral         any            `yaml:"BODY-INTEGRAL"`
	FirstDerivative  any            `yaml:"BODY-FIRST-DERIVATIVE"`
	SecondDerivative any            `yaml:"BODY-SECOND-DERIVATIVE"`
}

// Parse reads one or more reference contents. Databooks declared in later
// contents replace earlier databooks with the same id.
func Parse(contents ...string) (*Corpus, error) {
	corpus := newCorpus()
	for i, content := range contents {
		if isNone(content) {
			continue
		}
		books, err := parseContent(content)
		if err != nil {
			return nil, errs.Wrap(errs.KindInvalidReference, err, "reference content #%d", i+1)
		}
		for _, b := range books {
			corpus.add(b)
		}
	}
	if corpus.Empty() {
		return nil, errs.New(errs.KindNoDatabookFound, "reference content does not define any databook")
	}
	return corpus, nil
}

type section struct {
	book, table string
	line        int
	body        []string
}

func parseContent(content string) ([]*Databook, error) {
	var (
		books   []*Databook
		current *Databook
		sec     *section
	)

	flush := func() error {
		if sec == nil {
			return nil
		}
		t, err := parseTable(sec)
		if err != nil {
			return err
		}
		key := strings.ToUpper(t.Name)
		if _, dup := current.byName[key]; dup {
			return errs.New(errs.KindInvalidReference, "databook %q: duplicate table %q", current.ID, t.Name)
		}
		current.Tables = append(current.Tables, t)
		current.byName[key] = t
		sec = nil
		return nil
	}

	sc := bufio.NewScanner(strings.NewReader(content))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		trimmed := strings.TrimSpace(line)

		switch {
		case strings.HasPrefix(trimmed, "### "):
			if current == nil {
				return nil, errs.New(errs.KindInvalidReference, "line %d: table declared outside a databook", lineNo)
			}
			if err := flush(); err != nil {
				return nil, err
			}
			name := strings.TrimSpace(strings.TrimPrefix(trimmed, "### "))
			if name == "" {
				return nil, errs.New(errs.KindInvalidReference, "line %d: empty table name", lineNo)
			}
			sec = &section{book: current.ID, table: name, line: lineNo}
		case strings.HasPrefix(trimmed, "## "):
			if current != nil {
				if err := flush(); err != nil {
					return nil, err
				}
			}
			id := strings.TrimSpace(strings.TrimPrefix(trimmed, "## "))
			if id == "" {
				return nil, errs.New(errs.KindInvalidReference, "line %d: empty databook id", lineNo)
			}
			current = &Databook{ID: id, byName: map[string]*Table{}}
			books = append(books, current)
		case strings.HasPrefix(trimmed, "# "), trimmed == "#":
			// top-level heading
		default:
			if sec != nil {
				sec.body = append(sec.body, line)
			} else if trimmed != "" && current == nil {
				return nil, errs.New(errs.KindInvalidReference, "line %d: content outside a databook", lineNo)
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if current != nil {
		if err := flush(); err != nil {
			return nil, err
		}
	}
	return books, nil
}

func parseTable(sec *section) (*Table, error) {
	var body tableBody
	if err := yaml.Unmarshal([]byte(dedent(sec.body)), &body); err != nil {
		return nil, errs.Wrap(errs.KindInvalidReference, err, "databook %q table %q (line %d)", sec.book, sec.table, sec.line)
	}

	t := &Table{
		Databook:           sec.book,
		Name:               sec.table,
		TableID:            toString(body.TableID),
		Description:        strings.TrimSpace(toString(body.Description)),
		Columns:            cells(body.Structure.Columns),
		Symbols:            cells(body.Structure.Symbol),
		Units:              cells(body.Structure.Unit),
		Conversions:        cells(body.Structure.Conversion),
		ExternalReferences: stringList(body.ExternalReferences),
		nameCol:            -1,
		formulaCol:         -1,
		stateCol:           -1,
	}
	if len(t.Columns) == 0 {
		return nil, errs.New(errs.KindInvalidReference, "databook %q table %q: STRUCTURE.COLUMNS is required", sec.book, sec.table)
	}
	if len(t.Symbols) != len(t.Columns) {
		return nil, errs.New(errs.KindInvalidReference, "databook %q table %q: SYMBOL has %d entries for %d columns", sec.book, sec.table, len(t.Symbols), len(t.Columns))
	}
	for i, col := range t.Columns {
		switch strings.ToLower(col) {
		case "name":
			t.nameCol = i
		case "formula":
			t.formulaCol = i
		case "state":
			t.stateCol = i
		}
	}
	if t.nameCol < 0 || t.formulaCol < 0 || t.stateCol < 0 {
		return nil, errs.New(errs.KindInvalidReference, "databook %q table %q: Name, Formula and State columns are required", sec.book, sec.table)
	}
	for i, v := range body.Values {
		if len(v) != len(t.Columns) {
			return nil, errs.New(errs.KindInvalidReference, "databook %q table %q: row %d has %d values for %d columns", sec.book, sec.table, i+1, len(v), len(t.Columns))
		}
		t.Rows = append(t.Rows, Row(v))
	}

	ids := sortedKeys(body.Equations)
	sort.SliceStable(ids, func(i, j int) bool { return equationOrder(ids[i]) < equationOrder(ids[j]) })
	for _, id := range ids {
		eb := body.Equations[id]
		eq := EquationSpec{
			ID:               id,
			Body:             stringList(eb.Body),
			Args:             stringMap(eb.Args),
			Returns:          stringMap(eb.Returns),
			Integral:         stringList(eb.Integral),
			FirstDerivative:  stringList(eb.FirstDerivative),
			SecondDerivative: stringList(eb.SecondDerivative),
		}
		if len(eq.Body) == 0 || len(eq.Returns) == 0 {
			return nil, errs.New(errs.KindInvalidReference, "databook %q table %q equation %s: BODY and RETURNS are required", sec.book, sec.table, id)
		}
		t.Equations = append(t.Equations, eq)
	}
	return t, nil
}

// equationOrder sorts EQ-2 before EQ-10.
func equationOrder(id string) int {
	n := 0
	for _, r := range id {
		if r >= '0' && r <= '9' {
			n = n*10 + int(r-'0')
		}
	}
	return n
}

func dedent(lines []string) string {
	indent := -1
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		n := len(l) - len(strings.TrimLeft(l, " \t"))
		if indent < 0 || n < indent {
			indent = n
		}
	}
	if indent <= 0 {
		return strings.Join(lines, "\n")
	}
	out := make([]string, len(lines))
	for i, l := range lines {
		if len(l) >= indent {
			out[i] = l[indent:]
		} else {
			out[i] = strings.TrimSpace(l)
		}
	}
	return strings.Join(out, "\n")
}

func cells(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		s := strings.TrimSpace(toString(v))
		if s == none {
			s = ""
		}
		out[i] = s
	}
	return out
}

func stringList(v any) []string {
	switch l := v.(type) {
	case nil:
		return nil
	case string:
		if isNone(l) {
			return nil
		}
		return []string{strings.TrimSpace(l)}
	case []any:
		var out []string
		for _, item := range l {
			if s := strings.TrimSpace(toString(item)); s != "" && s != none {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func stringMap(m map[string]any) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		s := toString(v)
		if s == none {
			s = ""
		}
		out[k] = s
	}
	return out
}

// isNone reports whether s is empty or the literal sentinel "None".
func isNone(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || s == none
}
