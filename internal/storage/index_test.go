package storage

import (
	"testing"

	"github.com/wagnerlima/mozichem-hub/internal/models"
	"github.com/wagnerlima/mozichem-hub/internal/references"
)

// setupIndex builds an index over the bundled corpus.
func setupIndex(t *testing.T) *Index {
	t.Helper()
	corpus, err := references.DefaultCorpus()
	if err != nil {
		t.Fatalf("DefaultCorpus: %v", err)
	}
	idx, err := Build(corpus)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(func() { idx.Close() })
	return idx
}

func TestFindComponentTables(t *testing.T) {
	idx := setupIndex(t)

	matches, err := idx.FindComponentTables("Carbon Dioxide", "")
	if err != nil {
		t.Fatalf("FindComponentTables: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("Expected 2 tables for CO2, got %d", len(matches))
	}

	general := matches[0]
	if general.Table != "GENERAL" || general.Mode != models.ModeData {
		t.Errorf("First match = %s (%s), want GENERAL (DATA)", general.Table, general.Mode)
	}
	if general.State != "g" {
		t.Errorf("State = %q, want %q", general.State, "g")
	}
	want := []string{"MW", "Tc", "Pc", "Zc", "AcFa"}
	if len(general.Symbols) != len(want) {
		t.Fatalf("Symbols = %v, want %v", general.Symbols, want)
	}
	for i := range want {
		if general.Symbols[i] != want[i] {
			t.Errorf("Symbols[%d] = %q, want %q", i, general.Symbols[i], want[i])
		}
	}

	vp := matches[1]
	if vp.Mode != models.ModeEquations {
		t.Errorf("Mode = %s, want EQUATIONS", vp.Mode)
	}
	if len(vp.Symbols) != 1 || vp.Symbols[0] != "VaPr" {
		t.Errorf("Return symbols = %v, want [VaPr]", vp.Symbols)
	}
}

func TestFindComponentTablesByFormula(t *testing.T) {
	idx := setupIndex(t)

	matches, err := idx.FindComponentTables("", "H2O")
	if err != nil {
		t.Fatalf("FindComponentTables: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("Expected 2 tables for H2O, got %d", len(matches))
	}
	if matches[0].Name != "water" {
		t.Errorf("Name = %q, want %q", matches[0].Name, "water")
	}

	none, err := idx.FindComponentTables("unobtainium", "Uo")
	if err != nil {
		t.Fatalf("FindComponentTables: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("Expected no match, got %d", len(none))
	}
}

func TestSearch(t *testing.T) {
	idx := setupIndex(t)

	hits, err := idx.Search("benz")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("Expected 1 hit, got %d", len(hits))
	}
	if hits[0].Formula != "C6H6" {
		t.Errorf("Formula = %q, want %q", hits[0].Formula, "C6H6")
	}
	if len(hits[0].Tables) != 2 {
		t.Errorf("Expected 2 tables, got %v", hits[0].Tables)
	}

	hits, err = idx.Search(`carbon "dioxide`)
	if err != nil {
		t.Fatalf("Search with quote: %v", err)
	}
	if len(hits) != 1 || hits[0].Formula != "CO2" {
		t.Errorf("Expected the quote to be escaped, got %+v", hits)
	}

	hits, err = idx.Search("   ")
	if err != nil || hits != nil {
		t.Errorf("Blank query = %v, %v; want nil, nil", hits, err)
	}
}

func TestDatabooks(t *testing.T) {
	idx := setupIndex(t)

	books, err := idx.Databooks()
	if err != nil {
		t.Fatalf("Databooks: %v", err)
	}
	if len(books) != 1 || books[0].ID != "MOZICHEM-DEFAULT" {
		t.Fatalf("Databooks = %+v", books)
	}
	tables := books[0].Tables
	if len(tables) != 2 {
		t.Fatalf("Expected 2 tables, got %d", len(tables))
	}
	if tables[0].Components != 9 {
		t.Errorf("GENERAL components = %d, want 9", tables[0].Components)
	}
	if tables[1].Mode != models.ModeEquations || len(tables[1].Symbols) != 1 {
		t.Errorf("VAPOR-PRESSURE = %+v", tables[1])
	}
}

func TestLoadReplacesContent(t *testing.T) {
	idx := setupIndex(t)

	custom, err := references.Parse(`## CUSTOM-REF-1
### general-data
STRUCTURE:
  COLUMNS: [Name, Formula, State, Critical-Temperature]
  SYMBOL: [None, None, None, Tc]
VALUES:
  - ['carbon dioxide', 'CO2', 'g', 304.2]
`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if err := idx.Load(custom); err != nil {
		t.Fatalf("Load: %v", err)
	}

	hits, err := idx.Search("water")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("Expected stale records to be gone, got %d hits", len(hits))
	}

	matches, err := idx.FindComponentTables("carbon dioxide", "CO2")
	if err != nil {
		t.Fatalf("FindComponentTables: %v", err)
	}
	if len(matches) != 1 || matches[0].Databook != "CUSTOM-REF-1" {
		t.Errorf("Matches = %+v", matches)
	}
}
