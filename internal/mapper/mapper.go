// Package mapper turns References into the ReferencesThermoDB bundles a Hub
// consumes, either for the generic ALL key or per component inferred from the
// reference content.
package mapper

import (
	"slices"
	"strings"

	"github.com/rs/zerolog"

	"github.com/wagnerlima/mozichem-hub/internal/errs"
	"github.com/wagnerlima/mozichem-hub/internal/logging"
	"github.com/wagnerlima/mozichem-hub/internal/models"
	"github.com/wagnerlima/mozichem-hub/internal/references"
	"github.com/wagnerlima/mozichem-hub/internal/storage"
)

// Mapper resolves reference bundles.
type Mapper struct {
	logger zerolog.Logger
}

// New returns a Mapper.
func New(logger zerolog.Logger) *Mapper {
	return &Mapper{logger: logging.Component(logger, "mapper")}
}

// GenerateReferences builds the catalog-wide bundle. User databooks override
// bundled databooks with the same id. The config is the bundled
// config overlaid by the user config, key by key. ignoreStateProps apply to ALL.
func (m *Mapper) GenerateReferences(refs models.References, ignoreStateProps []string) (*models.ReferencesThermoDB, error) {
	contents, corpus, err := overlay(refs.Contents)
	if err != nil {
		return nil, err
	}

	defaults, err := references.DefaultConfig()
	if err != nil {
		return nil, err
	}
	cfg := references.MergeConfig(defaults, refs.Config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := checkSources(corpus, cfg); err != nil {
		return nil, err
	}

	out := models.NewReferencesThermoDB()
	out.Contents = contents
	out.Reference = referenceIndex(corpus, contents)
	for key, cc := range cfg {
		out.Configs[key] = cc
		out.Rules[key] = references.ComponentRule(cc)
		out.Labels[key] = labelsOf(cc)
		out.IgnoreLabels[key] = []string{}
	}
	if len(ignoreStateProps) > 0 {
		out.IgnoreProps[models.ALL] = slices.Clone(ignoreStateProps)
	}

	m.logger.Debug().
		Int("contents", len(contents)).
		Strs("keys", cfg.Keys()).
		Msg("references generated")
	return out, nil
}

// ComponentsReferenceThermoDB infers a bundle for every component from the
// given content (plus the bundled corpus). The result is keyed by the key that
// by selects; every bundle binds its config under both component keys.
func (m *Mapper) ComponentsReferenceThermoDB(components []models.Component, contents []string, by models.KeyMode, ignoreStateProps []string) (map[string]*models.ReferencesThermoDB, error) {
	contents, corpus, err := overlay(contents)
	if err != nil {
		return nil, err
	}
	idx, err := storage.Build(corpus)
	if err != nil {
		return nil, errs.Wrap(errs.KindInvalidReference, err, "index reference content")
	}
	defer idx.Close()

	out := make(map[string]*models.ReferencesThermoDB, len(components))
	for _, c := range components {
		rtdb, err := m.infer(idx, corpus, contents, c.Normalize(), ignoreStateProps)
		if err != nil {
			return nil, err
		}
		out[c.Key(by)] = rtdb
	}
	return out, nil
}

// ComponentReferenceThermoDB is the single-component form of
// ComponentsReferenceThermoDB.
func (m *Mapper) ComponentReferenceThermoDB(c models.Component, contents []string, by models.KeyMode, ignoreStateProps []string) (*models.ReferencesThermoDB, error) {
	all, err := m.ComponentsReferenceThermoDB([]models.Component{c}, contents, by, ignoreStateProps)
	if err != nil {
		return nil, err
	}
	return all[c.Key(by)], nil
}

func (m *Mapper) infer(idx *storage.Index, corpus *references.Corpus, contents []string, c models.Component, ignoreStateProps []string) (*models.ReferencesThermoDB, error) {
	matches, err := idx.FindComponentTables(c.Name, c.Formula)
	if err != nil {
		return nil, errs.Wrap(errs.KindInvalidReference, err, "scan reference content for %s", c.NameStateKey())
	}

	cc := models.ComponentConfig{}
	bound := map[string]bool{}
	for _, match := range preferExactState(matches, c.State) {
		if match.State != c.State && !ignoresState(ignoreStateProps, match) {
			m.logger.Debug().
				Str("component", c.NameStateKey()).
				Str("table", match.Databook+"/"+match.Table).
				Str("state", match.State).
				Msg("skipping table with a different state")
			continue
		}
		switch match.Mode {
		case models.ModeData:
			labels := map[string]string{}
			for _, s := range match.Symbols {
				if !bound[s] {
					labels[s] = s
				}
			}
			if _, taken := cc[match.Table]; taken || len(labels) == 0 {
				continue
			}
			for s := range labels {
				bound[s] = true
			}
			cc[match.Table] = models.ComponentPropertySource{Databook: match.Databook, Table: match.Table, Mode: models.ModeData, Labels: labels}
		case models.ModeEquations:
			for _, sym := range match.Symbols {
				if bound[sym] {
					continue
				}
				bound[sym] = true
				cc[sym] = models.ComponentPropertySource{Databook: match.Databook, Table: match.Table, Mode: models.ModeEquations, Label: sym}
			}
		}
	}
	if len(cc) == 0 {
		return nil, errs.New(errs.KindReferenceConfigMissing, "no reference data for %s in the supplied content", c.NameStateKey())
	}

	rule := references.ComponentRule(cc)
	labels := labelsOf(cc)
	out := models.NewReferencesThermoDB()
	out.Contents = contents
	out.Reference = referenceIndex(corpus, contents)
	for _, key := range c.Keys() {
		out.Configs[key] = cc
		out.Rules[key] = rule
		out.Labels[key] = labels
		out.IgnoreLabels[key] = []string{}
		out.IgnoreProps[key] = slices.Clone(ignoreStateProps)
	}

	m.logger.Debug().
		Str("component", c.NameStateKey()).
		Strs("properties", cc.Properties()).
		Msg("component references inferred")
	return out, nil
}

// Combine folds per-component bundles into one bundle for a Hub.
func Combine(bundles map[string]*models.ReferencesThermoDB) *models.ReferencesThermoDB {
	out := models.NewReferencesThermoDB()
	keys := make([]string, 0, len(bundles))
	for k := range bundles {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, k := range keys {
		b := bundles[k]
		if b == nil {
			continue
		}
		for _, content := range b.Contents {
			if !slices.Contains(out.Contents, content) {
				out.Contents = append(out.Contents, content)
			}
		}
		for id, content := range b.Reference {
			out.Reference[id] = content
		}
		for key, cc := range b.Configs {
			out.Configs[key] = cc
		}
		for key, r := range b.Rules {
			out.Rules[key] = r
		}
		for key, l := range b.Labels {
			out.Labels[key] = l
		}
		for key, l := range b.IgnoreLabels {
			out.IgnoreLabels[key] = l
		}
		for key, p := range b.IgnoreProps {
			out.IgnoreProps[key] = p
		}
	}
	return out
}

// ReferenceThermoDBFromConfig builds a bundle from explicit References
// without merging the bundled config.
func ReferenceThermoDBFromConfig(refs models.References, ignoreStateProps []string) (*models.ReferencesThermoDB, error) {
	contents, corpus, err := overlay(refs.Contents)
	if err != nil {
		return nil, err
	}
	if err := refs.Config.Validate(); err != nil {
		return nil, err
	}
	if err := checkSources(corpus, refs.Config); err != nil {
		return nil, err
	}
	out := models.NewReferencesThermoDB()
	out.Contents = contents
	out.Reference = referenceIndex(corpus, contents)
	for key, cc := range refs.Config {
		out.Configs[key] = cc
		out.Rules[key] = references.ComponentRule(cc)
		out.Labels[key] = labelsOf(cc)
		out.IgnoreLabels[key] = []string{}
		if len(ignoreStateProps) > 0 {
			out.IgnoreProps[key] = slices.Clone(ignoreStateProps)
		}
	}
	return out, nil
}

// overlay puts the user contents over the bundled content. The returned
// contents list the bundled content first, so a later parse lets user
// databooks win. The returned corpus lists user databooks first, so inference
// prefers user tables.
func overlay(user []string) ([]string, *references.Corpus, error) {
	def := references.DefaultContent()
	base, err := references.DefaultCorpus()
	if err != nil {
		return nil, nil, err
	}
	own := make([]string, 0, len(user))
	for _, c := range user {
		if c != def {
			own = append(own, c)
		}
	}
	if len(own) == 0 {
		return []string{def}, base.Merge(nil), nil
	}
	corpus, err := references.Parse(own...)
	if err != nil {
		return nil, nil, err
	}
	return append([]string{def}, own...), corpus.Merge(base), nil
}

// checkSources verifies every configured table exists in the corpus.
func checkSources(corpus *references.Corpus, cfg models.ReferenceConfig) error {
	for _, key := range cfg.Keys() {
		cc := cfg[key]
		for _, prop := range cc.Properties() {
			src := cc[prop]
			table, ok := corpus.Table(src.Databook, src.Table)
			if !ok {
				return errs.New(errs.KindReferenceConfigInvalid, "component %q property %q: table %s/%s is not defined", key, prop, src.Databook, src.Table)
			}
			if table.Mode() != src.Mode {
				return errs.New(errs.KindReferenceConfigInvalid, "component %q property %q: table %s/%s is a %s table, config says %s", key, prop, src.Databook, src.Table, table.Mode(), src.Mode)
			}
		}
	}
	return nil
}

// referenceIndex maps every databook id to the content that defines it.
func referenceIndex(corpus *references.Corpus, contents []string) map[string]string {
	out := make(map[string]string, len(corpus.Databooks))
	for _, book := range corpus.Databooks {
		for i := len(contents) - 1; i >= 0; i-- {
			if strings.Contains(contents[i], "## "+book.ID) {
				out[book.ID] = contents[i]
				break
			}
		}
	}
	return out
}

func labelsOf(cc models.ComponentConfig) []string {
	var out []string
	for _, prop := range cc.Properties() {
		src := cc[prop]
		if src.Label != "" {
			out = append(out, src.Label)
			continue
		}
		for _, sym := range src.Labels {
			if !slices.Contains(out, sym) {
				out = append(out, sym)
			}
		}
	}
	slices.Sort(out)
	return out
}

func ignoresState(ignoreStateProps []string, match storage.TableMatch) bool {
	for _, p := range ignoreStateProps {
		if strings.EqualFold(p, match.Table) || slices.Contains(match.Symbols, p) {
			return true
		}
	}
	return false
}

// preferExactState moves rows with the requested state ahead of the others,
// keeping corpus order otherwise.
func preferExactState(matches []storage.TableMatch, state string) []storage.TableMatch {
	out := make([]storage.TableMatch, 0, len(matches))
	for _, m := range matches {
		if m.State == state {
			out = append(out, m)
		}
	}
	for _, m := range matches {
		if m.State != state {
			out = append(out, m)
		}
	}
	return out
}
