// Package registry declares the catalogs the hub can serve and loads their
// tool descriptors from the embedded YAML files.
package registry

import (
	"embed"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/wagnerlima/mozichem-hub/internal/errs"
	"github.com/wagnerlima/mozichem-hub/internal/models"
	"github.com/wagnerlima/mozichem-hub/internal/references"
)

//go:embed descriptors/*.yml
var descriptorFS embed.FS

// Implementation ids.
const (
	PTMCore  = "PTMCore"
	PTFCore  = "PTFCore"
	PTDBCore = "PTDBCore"
)

// Catalog is one entry of the catalog table.
type Catalog struct {
	Name           string `json:"name"`
	Implementation string `json:"implementation"`
	Description    string `json:"description"`
	file           string
}

var catalogs = []Catalog{
	{
		Name:           "eos-models-mcp",
		Implementation: PTMCore,
		Description:    "Cubic equation of state fugacity and phase root analysis.",
		file:           "descriptors/eos-models-mcp.yml",
	},
	{
		Name:           "flash-calculations-mcp",
		Implementation: PTFCore,
		Description:    "Ideal vapor / ideal liquid bubble, dew and flash calculations.",
		file:           "descriptors/flash-calculations-mcp.yml",
	},
	{
		Name:           "thermodynamic-properties-mcp",
		Implementation: PTDBCore,
		Description:    "Reference property lookup, vapor pressure and corpus search.",
		file:           "descriptors/thermodynamic-properties-mcp.yml",
	},
}

// Catalogs returns the catalog table in declaration order.
func Catalogs() []Catalog {
	return slices.Clone(catalogs)
}

// Names returns the catalog names in declaration order.
func Names() []string {
	names := make([]string, len(catalogs))
	for i, c := range catalogs {
		names[i] = c.Name
	}
	return names
}

// Lookup finds a catalog by name, case-insensitively and ignoring
// surrounding whitespace.
func Lookup(name string) (Catalog, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for _, c := range catalogs {
		if c.Name == key {
			return c, nil
		}
	}
	return Catalog{}, errs.New(errs.KindInvalidCatalogName,
		"unknown catalog %q, available: %s", name, strings.Join(Names(), ", "))
}

// lookupAny accepts a catalog name or an implementation id.
func lookupAny(ref string) (Catalog, error) {
	for _, c := range catalogs {
		if strings.EqualFold(c.Implementation, strings.TrimSpace(ref)) {
			return c, nil
		}
	}
	return Lookup(ref)
}

type loaded struct {
	tools        []ToolDescriptor
	instructions string
}

var (
	loadOnce sync.Once
	store    map[string]loaded
	errLoad  error
)

func load() (map[string]loaded, error) {
	loadOnce.Do(func() {
		store = make(map[string]loaded, len(catalogs))
		for _, c := range catalogs {
			raw, err := descriptorFS.ReadFile(c.file)
			if err != nil {
				errLoad = fmt.Errorf("read descriptor %s: %w", c.file, err)
				return
			}
			tools, instructions, err := ParseDescriptors(raw)
			if err != nil {
				errLoad = fmt.Errorf("descriptor %s: %w", c.file, err)
				return
			}
			store[c.Name] = loaded{tools: tools, instructions: instructions}
		}
	})
	return store, errLoad
}

// DescriptorsAll returns the descriptors of every catalog keyed by catalog
// name. Each list is in file order.
func DescriptorsAll() (map[string][]ToolDescriptor, error) {
	all, err := load()
	if err != nil {
		return nil, err
	}
	out := make(map[string][]ToolDescriptor, len(all))
	for name, l := range all {
		out[name] = slices.Clone(l.tools)
	}
	return out, nil
}

// Descriptor returns the tool descriptors of one catalog in file order.
func Descriptor(catalog string) ([]ToolDescriptor, error) {
	c, err := Lookup(catalog)
	if err != nil {
		return nil, err
	}
	all, err := load()
	if err != nil {
		return nil, err
	}
	return slices.Clone(all[c.Name].tools), nil
}

// Instructions returns the INSTRUCTIONS text of a catalog.
func Instructions(catalog string) (string, error) {
	c, err := Lookup(catalog)
	if err != nil {
		return "", err
	}
	all, err := load()
	if err != nil {
		return "", err
	}
	return all[c.Name].instructions, nil
}

func method(catalog, name string) (ToolDescriptor, error) {
	c, err := lookupAny(catalog)
	if err != nil {
		return ToolDescriptor{}, err
	}
	all, err := load()
	if err != nil {
		return ToolDescriptor{}, err
	}
	key := strings.TrimSpace(name)
	for _, d := range all[c.Name].tools {
		if d.Name == key {
			return d, nil
		}
	}
	return ToolDescriptor{}, errs.New(errs.KindInvalidArgument, "catalog %s has no method %q", c.Name, name)
}

// MethodReferenceInputs returns the reference inputs a method needs. catalog
// is a catalog name or implementation id.
func MethodReferenceInputs(catalog, name string) (map[string]any, error) {
	d, err := method(catalog, name)
	if err != nil {
		return nil, err
	}
	return d.ReferenceInputs, nil
}

// MethodReferenceConfig returns the reference config template of a method,
// wrapped under ALL.
func MethodReferenceConfig(catalog, name string) (models.ReferenceConfig, error) {
	d, err := method(catalog, name)
	if err != nil {
		return nil, err
	}
	if len(d.Config) == 0 {
		return models.ReferenceConfig{}, nil
	}
	return references.ConfigFromValue(map[string]any{models.ALL: d.Config})
}

// IgnoreStateProps returns the properties a method matches regardless of
// component state.
func IgnoreStateProps(catalog, name string) ([]string, error) {
	d, err := method(catalog, name)
	if err != nil {
		return nil, err
	}
	return slices.Clone(d.IgnoreStateProps), nil
}

// CatalogIgnoreStateProps returns the union of the ignore-state properties of
// every method of a catalog.
func CatalogIgnoreStateProps(catalog string) ([]string, error) {
	tools, err := Descriptor(catalog)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, d := range tools {
		for _, p := range d.IgnoreStateProps {
			if !slices.Contains(out, p) {
				out = append(out, p)
			}
		}
	}
	return out, nil
}
