package catalog

import (
	"slices"

	"github.com/wagnerlima/mozichem-hub/internal/errs"
	"github.com/wagnerlima/mozichem-hub/internal/registry"
	"github.com/wagnerlima/mozichem-hub/internal/tools"
)

// MoziTool joins a descriptor to the method that implements it.
type MoziTool struct {
	Name        string
	Fn          tools.Method
	Description string
	Tags        map[string]struct{}
	Args        []registry.Arg
	Descriptor  registry.ToolDescriptor
}

// TagList returns the tags in sorted order.
func (t MoziTool) TagList() []string {
	out := make([]string, 0, len(t.Tags))
	for tag := range t.Tags {
		out = append(out, tag)
	}
	slices.Sort(out)
	return out
}

// BuildTools binds every descriptor to its method on impl, in descriptor
// order. A descriptor naming a method impl does not have is a ToolBindingError.
func BuildTools(descriptors []registry.ToolDescriptor, impl tools.Implementation) ([]MoziTool, error) {
	methods := impl.Methods()
	out := make([]MoziTool, 0, len(descriptors))
	for _, d := range descriptors {
		fn, ok := methods[d.Name]
		if !ok {
			return nil, errs.New(errs.KindToolBindingError,
				"descriptor %s has no implementation method (available: %v)", d.Name, tools.MethodNames(impl))
		}
		tags := make(map[string]struct{}, len(d.Tags))
		for _, tag := range d.Tags {
			tags[tag] = struct{}{}
		}
		out = append(out, MoziTool{
			Name:        d.Name,
			Fn:          fn,
			Description: d.Description,
			Tags:        tags,
			Args:        d.Args,
			Descriptor:  d,
		})
	}
	return out, nil
}
