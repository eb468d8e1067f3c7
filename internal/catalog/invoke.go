package catalog

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/xeipuuv/gojsonschema"

	"github.com/wagnerlima/mozichem-hub/internal/errs"
	"github.com/wagnerlima/mozichem-hub/internal/registry"
	"github.com/wagnerlima/mozichem-hub/internal/tools"
)

// handler adapts a tool to the MCP SDK. Failures are returned as the result
// payload with IsError set, never as protocol errors.
func (c *Catalog) handler(name string) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := map[string]any{}
		if len(req.Params.Arguments) > 0 {
			if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
				return toolError(errs.Wrap(errs.KindInvalidArgument, err, "decode arguments")), nil
			}
		}
		out, err := c.invoke(ctx, name, args)
		if err != nil {
			return toolError(err), nil
		}
		return toolJSON(out), nil
	}
}

// invoke runs one tool call. Calls hold the catalog mutex, so they run in
// arrival order and never overlap a reference update. Client cancellation does
// not reach the computation.
func (c *Catalog) invoke(ctx context.Context, name string, args map[string]any) (out any, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := uuid.New().String()
	start := time.Now()
	defer func() {
		ev := c.logger.Info()
		result := "ok"
		if err != nil {
			ev = c.logger.Warn().Str("error_kind", string(errs.KindOf(err)))
			result = "error"
		}
		ev.Str("tool", name).
			Str("invocation_id", id).
			Dur("duration", time.Since(start)).
			Str("result", result).
			Msg("tool call")
	}()

	if c.state == StateStopped {
		return nil, errs.New(errs.KindToolExecutionError, "catalog %s is stopped", c.info.Name)
	}
	tool, ok := c.byName[name]
	if !ok {
		return nil, errs.New(errs.KindInvalidArgument, "unknown tool %q in catalog %s", name, c.info.Name)
	}
	args = withDefaults(tool.Descriptor, args)
	if err := validate(tool.Descriptor, args); err != nil {
		return nil, err
	}
	return tool.Fn(context.WithoutCancel(ctx), tools.Args(args))
}

// withDefaults returns a copy of args with descriptor defaults filled in.
func withDefaults(d registry.ToolDescriptor, args map[string]any) map[string]any {
	out := make(map[string]any, len(d.Args))
	for k, v := range args {
		out[k] = v
	}
	for _, a := range d.Args {
		if _, ok := out[a.Name]; !ok && a.Default != nil {
			out[a.Name] = a.Default
		}
	}
	return out
}

// validate checks args against the descriptor input schema.
func validate(d registry.ToolDescriptor, args map[string]any) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(d.InputSchema()),
		gojsonschema.NewGoLoader(args),
	)
	if err != nil {
		return errs.Wrap(errs.KindInvalidArgument, err, "validate arguments of %s", d.Name)
	}
	if !result.Valid() {
		problems := make([]string, len(result.Errors()))
		for i, e := range result.Errors() {
			problems[i] = e.String()
		}
		return errs.New(errs.KindInvalidArgument, "invalid arguments for %s: %s", d.Name, strings.Join(problems, "; "))
	}
	return nil
}

func toolError(err error) *mcp.CallToolResult {
	data, _ := json.MarshalIndent(errs.Envelope(err), "", "  ")
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
		IsError: true,
	}
}

func toolJSON(v any) *mcp.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return toolError(errs.Wrap(errs.KindToolExecutionError, err, "marshal result"))
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}
}
