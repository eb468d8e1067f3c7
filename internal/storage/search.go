package storage

import (
	"fmt"
	"strings"

	"github.com/wagnerlima/mozichem-hub/internal/models"
)

// SearchHit is a component found by Search.
type SearchHit struct {
	Name    string   `json:"name"`
	Formula string   `json:"formula"`
	State   string   `json:"state"`
	Tables  []string `json:"tables"`
}

// TableInfo describes an indexed table.
type TableInfo struct {
	Name        string      `json:"name"`
	TableID     string      `json:"table_id,omitempty"`
	Description string      `json:"description,omitempty"`
	Mode        models.Mode `json:"mode"`
	Symbols     []string    `json:"symbols"`
	Components  int         `json:"components"`
}

// DatabookInfo describes an indexed databook.
type DatabookInfo struct {
	ID     string      `json:"id"`
	Tables []TableInfo `json:"tables"`
}

// Search performs FTS5 full-text search over component names and formulas.
// Every query term must match as a prefix. Hits are grouped by component.
func (x *Index) Search(query string) ([]SearchHit, error) {
	match := ftsQuery(query)
	if match == "" {
		return nil, nil
	}

	rows, err := x.db.Query(
		`SELECT r.name, r.formula, r.state, t.databook_id || '/' || t.name
		 FROM records_fts
		 JOIN records r ON r.id = records_fts.rowid
		 JOIN tables t ON t.id = r.table_id
		 JOIN databooks d ON d.id = t.databook_id
		 WHERE records_fts MATCH ?
		 ORDER BY rank, d.position, t.position`,
		match,
	)
	if err != nil {
		return nil, fmt.Errorf("search records fts: %w", err)
	}
	defer rows.Close()

	var (
		hits  []SearchHit
		index = map[string]int{}
	)
	for rows.Next() {
		var h SearchHit
		var table string
		if err := rows.Scan(&h.Name, &h.Formula, &h.State, &table); err != nil {
			return nil, fmt.Errorf("scan search hit: %w", err)
		}
		key := strings.ToLower(h.Name) + "|" + h.Formula + "|" + h.State
		if i, ok := index[key]; ok {
			hits[i].Tables = append(hits[i].Tables, table)
			continue
		}
		h.Tables = []string{table}
		index[key] = len(hits)
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// ftsQuery quotes every term so user input cannot inject FTS5 syntax.
func ftsQuery(query string) string {
	var terms []string
	for _, term := range strings.Fields(query) {
		term = strings.ReplaceAll(term, `"`, `""`)
		terms = append(terms, `"`+term+`"*`)
	}
	return strings.Join(terms, " ")
}

// Databooks lists the indexed databooks and their tables in corpus order.
func (x *Index) Databooks() ([]DatabookInfo, error) {
	rows, err := x.db.Query(
		`SELECT t.id, t.databook_id, t.name, t.table_no, t.description, t.mode,
		        (SELECT COUNT(*) FROM records r WHERE r.table_id = t.id)
		 FROM tables t
		 JOIN databooks d ON d.id = t.databook_id
		 ORDER BY d.position, t.position`,
	)
	if err != nil {
		return nil, fmt.Errorf("list databooks: %w", err)
	}

	type pending struct {
		tableID, databook string
		info              TableInfo
	}
	var found []pending
	for rows.Next() {
		var p pending
		var mode string
		if err := rows.Scan(&p.tableID, &p.databook, &p.info.Name, &p.info.TableID, &p.info.Description, &mode, &p.info.Components); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan table: %w", err)
		}
		p.info.Mode = models.Mode(mode)
		found = append(found, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var books []DatabookInfo
	for _, p := range found {
		kind := "data"
		if p.info.Mode == models.ModeEquations {
			kind = "return"
		}
		syms, err := x.tableSymbols(p.tableID, kind)
		if err != nil {
			return nil, err
		}
		p.info.Symbols = syms
		if len(books) == 0 || books[len(books)-1].ID != p.databook {
			books = append(books, DatabookInfo{ID: p.databook})
		}
		last := &books[len(books)-1]
		last.Tables = append(last.Tables, p.info)
	}
	return books, nil
}
