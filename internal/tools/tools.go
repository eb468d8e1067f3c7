// Package tools implements the methods behind each catalog. Every
// implementation exposes its methods by tool name; the catalog binds them to
// descriptors.
package tools

import (
	"context"
	"sort"

	"github.com/rs/zerolog"

	"github.com/wagnerlima/mozichem-hub/internal/engine/eos"
	"github.com/wagnerlima/mozichem-hub/internal/engine/units"
	"github.com/wagnerlima/mozichem-hub/internal/engine/vle"
	"github.com/wagnerlima/mozichem-hub/internal/errs"
	"github.com/wagnerlima/mozichem-hub/internal/hub"
	"github.com/wagnerlima/mozichem-hub/internal/logging"
	"github.com/wagnerlima/mozichem-hub/internal/mapper"
	"github.com/wagnerlima/mozichem-hub/internal/models"
	"github.com/wagnerlima/mozichem-hub/internal/references"
	"github.com/wagnerlima/mozichem-hub/internal/registry"
	"github.com/wagnerlima/mozichem-hub/internal/thermodb"
)

// Method is a tool implementation. It returns a JSON-serializable result.
type Method func(ctx context.Context, args Args) (any, error)

// Implementation exposes methods by tool name.
type Implementation interface {
	Methods() map[string]Method
}

// Deps are what an implementation needs from its catalog.
type Deps struct {
	Catalog registry.Catalog
	Hub     *hub.Hub
	Logger  zerolog.Logger
}

// Factory builds an implementation.
type Factory func(Deps) Implementation

var factories = map[string]Factory{
	registry.PTMCore:  func(d Deps) Implementation { return NewPTMCore(d) },
	registry.PTFCore:  func(d Deps) Implementation { return NewPTFCore(d) },
	registry.PTDBCore: func(d Deps) Implementation { return NewPTDBCore(d) },
}

// New builds the implementation declared for deps.Catalog.
func New(deps Deps) (Implementation, error) {
	f, ok := factories[deps.Catalog.Implementation]
	if !ok {
		return nil, errs.New(errs.KindToolBindingError, "catalog %s: no implementation %q", deps.Catalog.Name, deps.Catalog.Implementation)
	}
	return f(deps), nil
}

// MethodNames returns the sorted method names of impl.
func MethodNames(impl Implementation) []string {
	methods := impl.Methods()
	names := make([]string, 0, len(methods))
	for name := range methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// base carries the custom-reference handling shared by every implementation.
type base struct {
	catalog registry.Catalog
	hub     *hub.Hub
	mapper  *mapper.Mapper
	logger  zerolog.Logger
}

func newBase(d Deps, name string) base {
	logger := logging.Component(d.Logger, name)
	return base{
		catalog: d.Catalog,
		hub:     d.Hub,
		mapper:  mapper.New(logger),
		logger:  logger,
	}
}

// hubFor returns the hub a call should use. Without custom references it is
// the catalog hub. Otherwise a scoped hub is built for this call only and
// release closes it.
func (b *base) hubFor(method string, args Args, cs []models.Component) (h *hub.Hub, release func(), err error) {
	content, config := args[ArgReferenceContent], args[ArgReferenceConfig]
	hasContent := references.ContentProvided(content)
	hasConfig := references.ConfigProvided(config)
	if !hasContent && !hasConfig {
		if b.hub == nil {
			return nil, nil, errs.New(errs.KindModelSourceBuildError, "catalog %s has no hub", b.catalog.Name)
		}
		return b.hub, func() {}, nil
	}

	ignore, err := registry.IgnoreStateProps(b.catalog.Name, method)
	if err != nil {
		return nil, nil, err
	}

	var rtdb *models.ReferencesThermoDB
	if hasContent && !hasConfig {
		contents, err := references.ContentsFromValue(content)
		if err != nil {
			return nil, nil, err
		}
		bundles, err := b.mapper.ComponentsReferenceThermoDB(cs, contents, models.KeyByName, ignore)
		if err != nil {
			return nil, nil, err
		}
		rtdb = mapper.Combine(bundles)
	} else {
		refs, err := references.Transform(content, config)
		if err != nil {
			return nil, nil, err
		}
		rtdb, err = b.mapper.GenerateReferences(refs, ignore)
		if err != nil {
			return nil, nil, err
		}
	}

	scoped, err := hub.New(rtdb, b.logger)
	if err != nil {
		return nil, nil, err
	}
	b.logger.Debug().
		Str("method", method).
		Bool("inferred", !hasConfig).
		Msg("scoped hub for custom references")
	return scoped, func() { _ = scoped.Close() }, nil
}

// modelSource builds the model source of cs for one call.
func (b *base) modelSource(method string, args Args, cs []models.Component) (*thermodb.ModelSource, error) {
	h, release, err := b.hubFor(method, args, cs)
	if err != nil {
		return nil, err
	}
	defer release()
	return h.BuildComponentsModelSource(cs, models.KeyByName)
}

// critical reads Tc, Pc and the acentric factor of c in SI units.
func critical(ms *thermodb.ModelSource, c models.Component) (eos.Critical, error) {
	tc, err := ms.Value(c, "Tc")
	if err != nil {
		return eos.Critical{}, errs.Wrap(errs.KindModelSourceBuildError, err, "critical temperature")
	}
	pc, err := ms.Value(c, "Pc")
	if err != nil {
		return eos.Critical{}, errs.Wrap(errs.KindModelSourceBuildError, err, "critical pressure")
	}
	w, err := ms.Value(c, "AcFa")
	if err != nil {
		return eos.Critical{}, errs.Wrap(errs.KindModelSourceBuildError, err, "acentric factor")
	}
	out := eos.Critical{Omega: w.Value}
	if out.Tc, err = units.ToKelvin(tc.Value, defaultUnit(tc.Unit, "K")); err != nil {
		return eos.Critical{}, errs.Wrap(errs.KindModelSourceBuildError, err, "critical temperature of %s", c.NameStateKey())
	}
	if out.Pc, err = units.ToPascal(pc.Value, defaultUnit(pc.Unit, "Pa")); err != nil {
		return eos.Critical{}, errs.Wrap(errs.KindModelSourceBuildError, err, "critical pressure of %s", c.NameStateKey())
	}
	return out, nil
}

func defaultUnit(unit, def string) string {
	if unit == "" || unit == "None" {
		return def
	}
	return unit
}

// VaporPressureProperty is the logical name of the vapor pressure equation.
const VaporPressureProperty = "VaPr"

// vaporPressure wraps a vapor pressure equation as a function of T in K
// returning Pa.
func vaporPressure(eq *thermodb.Equation) (vle.PsatFunc, error) {
	argNames := eq.ArgNames()
	if len(argNames) != 1 {
		return nil, errs.New(errs.KindModelSourceBuildError, "vapor pressure equation %s takes %d arguments, expected 1", eq.ID, len(argNames))
	}
	arg := argNames[0]
	argUnit := defaultUnit(eq.Args[arg], "K")
	outUnit := defaultUnit(eq.Unit, "Pa")
	return func(t float64) (float64, error) {
		x, err := units.FromKelvin(t, argUnit)
		if err != nil {
			return 0, err
		}
		v, err := eq.Eval(map[string]float64{arg: x})
		if err != nil {
			return 0, err
		}
		return units.ToPascal(v, outUnit)
	}, nil
}

func species(ms *thermodb.ModelSource, cs []models.Component) ([]vle.Species, error) {
	out := make([]vle.Species, len(cs))
	for i, c := range cs {
		eq, err := ms.Equation(c, VaporPressureProperty)
		if err != nil {
			return nil, errs.Wrap(errs.KindModelSourceBuildError, err, "component %s", c.NameStateKey())
		}
		psat, err := vaporPressure(eq)
		if err != nil {
			return nil, err
		}
		out[i] = vle.Species{Name: c.Name, Psat: psat, Tmin: eq.Params["Tmin"], Tmax: eq.Params["Tmax"]}
	}
	return out, nil
}

// referenceInputs answers get_method_reference_inputs for a catalog.
func referenceInputs(catalog registry.Catalog, args Args) (any, error) {
	name, err := args.String("method_name", "")
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, errs.New(errs.KindInvalidArgument, "argument method_name is required")
	}
	inputs, err := registry.MethodReferenceInputs(catalog.Implementation, name)
	if err != nil {
		return nil, err
	}
	cfg, err := registry.MethodReferenceConfig(catalog.Implementation, name)
	if err != nil {
		return nil, err
	}
	text, err := references.SerializeConfig(cfg)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"method":                  name,
		"reference_inputs":        inputs,
		"reference_config":        cfg,
		"reference_config_text":   text,
		"ignore_state_properties": ignoreProps(catalog, name),
	}, nil
}

func ignoreProps(catalog registry.Catalog, name string) []string {
	props, _ := registry.IgnoreStateProps(catalog.Name, name)
	if props == nil {
		return []string{}
	}
	return props
}
