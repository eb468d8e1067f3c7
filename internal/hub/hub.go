// Package hub materializes model sources (data and equation sources) for
// components from a resolved ReferencesThermoDB.
package hub

import (
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"github.com/wagnerlima/mozichem-hub/internal/errs"
	"github.com/wagnerlima/mozichem-hub/internal/logging"
	"github.com/wagnerlima/mozichem-hub/internal/models"
	"github.com/wagnerlima/mozichem-hub/internal/references"
	"github.com/wagnerlima/mozichem-hub/internal/storage"
	"github.com/wagnerlima/mozichem-hub/internal/thermodb"
)

// Hub owns one ReferencesThermoDB and builds model sources from it. The bundle
// is read-only after New.
type Hub struct {
	refs   *models.ReferencesThermoDB
	corpus *references.Corpus
	logger zerolog.Logger

	mu    sync.Mutex
	index *storage.Index
}

// binding is the resolved configuration of one component.
type binding struct {
	key    string
	config models.ComponentConfig
	rule   models.Rule
	hints  thermodb.Hints
}

// New parses the contents of refs and returns a Hub.
func New(refs *models.ReferencesThermoDB, logger zerolog.Logger) (*Hub, error) {
	if refs == nil {
		return nil, errs.New(errs.KindNoDatabookFound, "no reference bundle")
	}
	corpus, err := references.Parse(refs.Contents...)
	if err != nil {
		return nil, err
	}
	return &Hub{
		refs:   refs,
		corpus: corpus,
		logger: logging.Component(logger, "hub"),
	}, nil
}

// References returns the bundle the hub was built from.
func (h *Hub) References() *models.ReferencesThermoDB {
	return h.refs
}

// Corpus returns the parsed reference content.
func (h *Hub) Corpus() *references.Corpus {
	return h.corpus
}

// resolve finds the configuration of c. The key selected by mode is tried
// first, then the other component key, then ALL.
func (h *Hub) resolve(c models.Component, mode models.KeyMode) (binding, error) {
	keys := []string{c.Key(mode)}
	if mode == models.KeyByFormula {
		keys = append(keys, c.NameStateKey())
	} else {
		keys = append(keys, c.FormulaStateKey())
	}
	for _, key := range keys {
		if cfg, ok := h.refs.Configs[key]; ok {
			return h.binding(key, cfg), nil
		}
	}
	if cfg, ok := h.refs.Configs[models.ALL]; ok {
		h.logger.Debug().
			Str("key", keys[0]).
			Msg("no component config, falling back to ALL")
		return h.binding(models.ALL, cfg), nil
	}
	return binding{}, errs.New(errs.KindReferenceConfigMissing, "no reference config for %s and no ALL entry", keys[0])
}

func (h *Hub) binding(key string, cfg models.ComponentConfig) binding {
	rule, ok := h.refs.Rules[key]
	if !ok {
		rule = references.ComponentRule(cfg)
	}
	ignore := slices.Clone(h.refs.IgnoreProps[key])
	if key != models.ALL {
		ignore = append(ignore, h.refs.IgnoreProps[models.ALL]...)
	}
	return binding{
		key:    key,
		config: cfg,
		rule:   rule,
		hints: thermodb.Hints{
			IgnoreStateProps: ignore,
			IgnoreLabels:     h.refs.IgnoreLabels[key],
		},
	}
}

// BuildComponentThermoDB compiles the thermodb of c. mode selects which
// identifier is matched against the reference tables.
func (h *Hub) BuildComponentThermoDB(c models.Component, mode models.KeyMode) (*thermodb.ComponentThermoDB, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	c = c.Normalize()
	b, err := h.resolve(c, mode)
	if err != nil {
		return nil, err
	}
	ctdb, err := thermodb.Build(h.corpus, c, mode, b.config, b.rule, b.hints)
	if err != nil {
		return nil, errs.Wrap(errs.KindModelSourceBuildError, err, "component %s", c.NameStateKey())
	}
	h.logger.Debug().
		Str("component", c.NameStateKey()).
		Str("config_key", b.key).
		Strs("properties", ctdb.Properties()).
		Msg("component thermodb built")
	return ctdb, nil
}

// BuildComponentsThermoDB compiles the thermodb of every component.
func (h *Hub) BuildComponentsThermoDB(cs []models.Component, mode models.KeyMode) ([]*thermodb.ComponentThermoDB, error) {
	out := make([]*thermodb.ComponentThermoDB, 0, len(cs))
	for _, c := range cs {
		ctdb, err := h.BuildComponentThermoDB(c, mode)
		if err != nil {
			return nil, err
		}
		out = append(out, ctdb)
	}
	return out, nil
}

// RegisterComponentThermoDB deposits ctdb in store under both component keys.
func (h *Hub) RegisterComponentThermoDB(store *thermodb.Store, ctdb *thermodb.ComponentThermoDB) {
	store.Register(ctdb)
}

// RegisterComponentsThermoDB deposits every thermodb in store.
func (h *Hub) RegisterComponentsThermoDB(store *thermodb.Store, list []*thermodb.ComponentThermoDB) {
	for _, ctdb := range list {
		h.RegisterComponentThermoDB(store, ctdb)
	}
}

// BuildComponentModelSource builds, registers and snapshots the model source
// of one component.
func (h *Hub) BuildComponentModelSource(c models.Component, mode models.KeyMode) (*thermodb.ModelSource, error) {
	return h.BuildComponentsModelSource([]models.Component{c}, mode)
}

// BuildComponentsModelSource builds the model source of several components.
// The result belongs to the caller and is never shared.
func (h *Hub) BuildComponentsModelSource(cs []models.Component, mode models.KeyMode) (*thermodb.ModelSource, error) {
	list, err := h.BuildComponentsThermoDB(cs, mode)
	if err != nil {
		return nil, err
	}
	store := thermodb.NewStore()
	h.RegisterComponentsThermoDB(store, list)
	return store.ModelSource(), nil
}

// PropertyStatus reports whether one configured property resolves for a
// component.
type PropertyStatus struct {
	Property  string      `json:"property"`
	Databook  string      `json:"databook"`
	Table     string      `json:"table"`
	Mode      models.Mode `json:"mode"`
	Available bool        `json:"available"`
	Symbols   []string    `json:"symbols,omitempty"`
	Reason    string      `json:"reason,omitempty"`
}

// CheckComponent resolves every configured property of c on its own, so one
// missing property does not hide the others. It returns the config key used.
func (h *Hub) CheckComponent(c models.Component, mode models.KeyMode) (string, []PropertyStatus, error) {
	if err := c.Validate(); err != nil {
		return "", nil, err
	}
	c = c.Normalize()
	b, err := h.resolve(c, mode)
	if err != nil {
		return "", nil, err
	}
	out := make([]PropertyStatus, 0, len(b.config))
	for _, prop := range b.config.Properties() {
		src := b.config[prop]
		st := PropertyStatus{Property: prop, Databook: src.Databook, Table: src.Table, Mode: src.Mode}
		ctdb, err := thermodb.Build(h.corpus, c, mode, models.ComponentConfig{prop: src}, b.rule, b.hints)
		switch {
		case err != nil:
			st.Reason = err.Error()
		case src.Mode == models.ModeEquations:
			if eq, ok := ctdb.Equations[prop]; ok {
				st.Available = true
				st.Symbols = []string{eq.Symbol}
			} else {
				st.Reason = "equation skipped by ignore labels"
			}
		default:
			for name := range ctdb.Data {
				st.Symbols = append(st.Symbols, name)
			}
			slices.Sort(st.Symbols)
			st.Available = len(st.Symbols) > 0
			if !st.Available {
				st.Reason = "no value for any label"
			}
		}
		out = append(out, st)
	}
	return b.key, out, nil
}

// Index returns the corpus index, building it on first use.
func (h *Hub) Index() (*storage.Index, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.index != nil {
		return h.index, nil
	}
	idx, err := storage.Build(h.corpus)
	if err != nil {
		return nil, err
	}
	h.index = idx
	return idx, nil
}

// Close releases the corpus index.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.index == nil {
		return nil
	}
	err := h.index.Close()
	h.index = nil
	return err
}
