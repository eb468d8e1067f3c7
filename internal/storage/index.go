// Package storage keeps a queryable SQLite index of the loaded reference
// corpus. The index backs component inference for custom references and the
// search and listing tools.
package storage

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/wagnerlima/mozichem-hub/internal/models"
	"github.com/wagnerlima/mozichem-hub/internal/references"
)

// Index is an in-memory SQLite index of a reference corpus.
type Index struct {
	db *sql.DB
}

// TableMatch is a table holding a row for a component.
type TableMatch struct {
	Databook string      `json:"databook"`
	Table    string      `json:"table"`
	Mode     models.Mode `json:"mode"`
	Name     string      `json:"name"`
	Formula  string      `json:"formula"`
	State    string      `json:"state"`
	// Symbols lists the data symbols with a value in the row (DATA tables) or
	// the return symbols (EQUATIONS tables).
	Symbols []string `json:"symbols"`
}

// Open creates an empty in-memory index.
func Open() (*Index, error) {
	db, err := sql.Open("sqlite3", "file::memory:?_pragma=foreign_keys(ON)")
	if err != nil {
		return nil, fmt.Errorf("open corpus index: %w", err)
	}
	// Every connection of an in-memory database is a separate database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(IndexSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate corpus index: %w", err)
	}
	if _, err := db.Exec(IndexTriggers); err != nil {
		db.Close()
		return nil, fmt.Errorf("create corpus index triggers: %w", err)
	}
	return &Index{db: db}, nil
}

// Build opens an index and loads corpus into it.
func Build(corpus *references.Corpus) (*Index, error) {
	idx, err := Open()
	if err != nil {
		return nil, err
	}
	if err := idx.Load(corpus); err != nil {
		idx.Close()
		return nil, err
	}
	return idx, nil
}

// Close closes the database connection.
func (x *Index) Close() error {
	return x.db.Close()
}

// Load replaces the indexed content with corpus.
func (x *Index) Load(corpus *references.Corpus) error {
	tx, err := x.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	// records_ad keeps records_fts in sync.
	for _, table := range []string{"records", "symbols", "tables", "databooks"} {
		if _, err := tx.Exec(`DELETE FROM ` + table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for bi, book := range corpus.Databooks {
		if _, err := tx.Exec(`INSERT INTO databooks (id, position) VALUES (?, ?)`, book.ID, bi); err != nil {
			return fmt.Errorf("insert databook %q: %w", book.ID, err)
		}
		for ti, table := range book.Tables {
			if err := insertTable(tx, book.ID, ti, table); err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func insertTable(tx *sql.Tx, databook string, position int, t *references.Table) error {
	tableID := uuid.New().String()
	_, err := tx.Exec(
		`INSERT INTO tables (id, databook_id, name, table_no, description, mode, position) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		tableID, databook, t.Name, t.TableID, t.Description, string(t.Mode()), position,
	)
	if err != nil {
		return fmt.Errorf("insert table %s/%s: %w", databook, t.Name, err)
	}

	dataKind := "data"
	if t.Mode() == models.ModeEquations {
		dataKind = "parameter"
	}
	for i, sym := range t.Symbols {
		if sym == "" {
			continue
		}
		unit := ""
		if i < len(t.Units) {
			unit = t.Units[i]
		}
		if _, err := tx.Exec(
			`INSERT INTO symbols (table_id, position, column_name, symbol, unit, kind) VALUES (?, ?, ?, ?, ?, ?)`,
			tableID, i, t.Columns[i], sym, unit, dataKind,
		); err != nil {
			return fmt.Errorf("insert symbol %q: %w", sym, err)
		}
	}
	for i, sym := range t.ReturnSymbols() {
		eq, _ := t.Equation(sym)
		if _, err := tx.Exec(
			`INSERT INTO symbols (table_id, position, column_name, symbol, unit, kind) VALUES (?, ?, ?, ?, ?, 'return')`,
			tableID, i, eq.ID, sym, eq.Returns[sym],
		); err != nil {
			return fmt.Errorf("insert return symbol %q: %w", sym, err)
		}
	}

	for rowNo, row := range t.Rows {
		name, formula, state := t.Identity(row)
		var available []string
		for _, sym := range t.DataSymbols() {
			if _, ok := t.Value(row, sym); ok {
				available = append(available, sym)
			}
		}
		if _, err := tx.Exec(
			`INSERT INTO records (table_id, row_no, name, formula, state, available) VALUES (?, ?, ?, ?, ?, ?)`,
			tableID, rowNo, name, formula, state, strings.Join(available, ","),
		); err != nil {
			return fmt.Errorf("insert record %q in %s/%s: %w", name, databook, t.Name, err)
		}
	}
	return nil
}

// FindComponentTables returns every table row matching the component by name
// (case-insensitive) or formula, in corpus order.
func (x *Index) FindComponentTables(name, formula string) ([]TableMatch, error) {
	rows, err := x.db.Query(
		`SELECT t.id, t.databook_id, t.name, t.mode, r.name, r.formula, r.state, r.available
		 FROM records r
		 JOIN tables t ON t.id = r.table_id
		 JOIN databooks d ON d.id = t.databook_id
		 WHERE r.name = ? COLLATE NOCASE OR r.formula = ?
		 ORDER BY d.position, t.position, r.row_no`,
		strings.TrimSpace(name), strings.TrimSpace(formula),
	)
	if err != nil {
		return nil, fmt.Errorf("find component tables: %w", err)
	}
	defer rows.Close()

	type pending struct {
		tableID string
		match   TableMatch
	}
	var found []pending
	for rows.Next() {
		var (
			p         pending
			mode      string
			available string
		)
		if err := rows.Scan(&p.tableID, &p.match.Databook, &p.match.Table, &mode, &p.match.Name, &p.match.Formula, &p.match.State, &available); err != nil {
			return nil, fmt.Errorf("scan component table: %w", err)
		}
		p.match.Mode = models.Mode(mode)
		if p.match.Mode == models.ModeData && available != "" {
			p.match.Symbols = strings.Split(available, ",")
		}
		found = append(found, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	matches := make([]TableMatch, 0, len(found))
	for _, p := range found {
		if p.match.Mode == models.ModeEquations {
			syms, err := x.tableSymbols(p.tableID, "return")
			if err != nil {
				return nil, err
			}
			p.match.Symbols = syms
		}
		matches = append(matches, p.match)
	}
	return matches, nil
}

func (x *Index) tableSymbols(tableID, kind string) ([]string, error) {
	rows, err := x.db.Query(
		`SELECT symbol FROM symbols WHERE table_id = ? AND kind = ? ORDER BY position`,
		tableID, kind,
	)
	if err != nil {
		return nil, fmt.Errorf("list table symbols: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scan symbol: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
