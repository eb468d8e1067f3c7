package catalog

import "context"

// Func is a tool bound to its catalog. Calling it runs the same validation,
// defaults and serialization as a call over the transport.
type Func func(ctx context.Context, args map[string]any) (any, error)

// GetTools returns every tool of the catalog by name.
func (c *Catalog) GetTools() map[string]Func {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]Func, len(c.tools))
	for _, t := range c.tools {
		name := t.Name
		out[name] = func(ctx context.Context, args map[string]any) (any, error) {
			return c.invoke(ctx, name, args)
		}
	}
	return out
}

// ExecuteTool invokes a tool in process, without a transport.
func (c *Catalog) ExecuteTool(ctx context.Context, name string, args map[string]any) (any, error) {
	return c.invoke(ctx, name, args)
}
