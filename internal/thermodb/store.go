package thermodb

import (
	"fmt"
	"sync"

	"github.com/wagnerlima/mozichem-hub/internal/models"
)

// Store holds registered component thermodbs. Every registration is keyed by
// both name-state and formula-state; the two keys share one record.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*ComponentThermoDB
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{entries: map[string]*ComponentThermoDB{}}
}

// Register deposits ctdb under both component keys.
func (s *Store) Register(ctdb *ComponentThermoDB) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range ctdb.Component.Keys() {
		s.entries[key] = ctdb
	}
}

// Lookup returns the thermodb registered under key.
func (s *Store) Lookup(key string) (*ComponentThermoDB, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ctdb, ok := s.entries[key]
	return ctdb, ok
}

// Len returns the number of registered keys.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// ModelSource snapshots the store into a model source.
func (s *Store) ModelSource() *ModelSource {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ms := &ModelSource{
		DataSource:     make(map[string]map[string]DataValue, len(s.entries)),
		EquationSource: make(map[string]map[string]*Equation, len(s.entries)),
	}
	for key, ctdb := range s.entries {
		ms.DataSource[key] = ctdb.Data
		ms.EquationSource[key] = ctdb.Equations
	}
	return ms
}

// ModelSource is the pair of data and equation sources engines read, keyed by
// component key then property name.
type ModelSource struct {
	DataSource     map[string]map[string]DataValue `json:"datasource"`
	EquationSource map[string]map[string]*Equation `json:"equationsource"`
}

// Value returns a data value of c, addressed by either component key.
func (m *ModelSource) Value(c models.Component, name string) (DataValue, error) {
	for _, key := range c.Keys() {
		if v, ok := m.DataSource[key][name]; ok {
			return v, nil
		}
	}
	return DataValue{}, fmt.Errorf("%s: property %s is not available", c.NameStateKey(), name)
}

// Equation returns an equation of c, addressed by either component key.
func (m *ModelSource) Equation(c models.Component, name string) (*Equation, error) {
	for _, key := range c.Keys() {
		if eq, ok := m.EquationSource[key][name]; ok {
			return eq, nil
		}
	}
	return nil, fmt.Errorf("%s: equation %s is not available", c.NameStateKey(), name)
}

// HasEquation reports whether c has the named equation.
func (m *ModelSource) HasEquation(c models.Component, name string) bool {
	_, err := m.Equation(c, name)
	return err == nil
}
