// Package catalog owns a named set of MoziTools, the hub they read from, and
// the MCP server the tools are published on.
//
// A catalog moves through created, configured, published, running and
// stopped. Tool invocations and reference updates are serialized on one
// mutex, so every call sees either the old hub and tools or the new ones.
package catalog

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"

	"github.com/wagnerlima/mozichem-hub/internal/hub"
	"github.com/wagnerlima/mozichem-hub/internal/logging"
	"github.com/wagnerlima/mozichem-hub/internal/mapper"
	"github.com/wagnerlima/mozichem-hub/internal/models"
	"github.com/wagnerlima/mozichem-hub/internal/references"
	"github.com/wagnerlima/mozichem-hub/internal/registry"
	"github.com/wagnerlima/mozichem-hub/internal/tools"
)

// Version is reported to MCP clients.
var Version = "0.1.0"

// State is the lifecycle state of a catalog.
type State string

const (
	StateCreated    State = "created"
	StateConfigured State = "configured"
	StatePublished  State = "published"
	StateRunning    State = "running"
	StateStopped    State = "stopped"
)

// Option configures New.
type Option func(*options)

type options struct {
	content     any
	config      any
	descriptors []registry.ToolDescriptor
}

// WithReferences sets the reference content and config the catalog starts
// with. Nil, empty or "None" values fall back to the bundled references.
func WithReferences(content, config any) Option {
	return func(o *options) {
		o.content = content
		o.config = config
	}
}

// WithDescriptors replaces the registry descriptors of the catalog.
func WithDescriptors(ds []registry.ToolDescriptor) Option {
	return func(o *options) {
		o.descriptors = ds
	}
}

// Catalog is one MoziChem MCP catalog.
type Catalog struct {
	id           string
	info         registry.Catalog
	descriptors  []registry.ToolDescriptor
	instructions string
	ignore       []string
	logger       zerolog.Logger

	mu     sync.Mutex
	state  State
	refs   models.References
	hub    *hub.Hub
	tools  []MoziTool
	byName map[string]MoziTool
	server *mcp.Server
}

// New validates name, resolves the references, builds the hub and binds the
// tools. The catalog is returned configured but not published.
func New(name string, logger zerolog.Logger, opts ...Option) (*Catalog, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	info, err := registry.Lookup(name)
	if err != nil {
		return nil, err
	}
	descriptors := o.descriptors
	if descriptors == nil {
		if descriptors, err = registry.Descriptor(info.Name); err != nil {
			return nil, err
		}
	}
	instructions, err := registry.Instructions(info.Name)
	if err != nil {
		return nil, err
	}

	id := uuid.New().String()
	logger = logging.Component(logger, "catalog").With().
		Str("catalog", info.Name).
		Str("catalog_id", id).
		Logger()
	c := &Catalog{
		id:           id,
		info:         info,
		descriptors:  descriptors,
		instructions: instructions,
		ignore:       ignoreUnion(descriptors),
		logger:       logger,
		state:        StateCreated,
	}

	b, err := c.build(o.content, o.config)
	if err != nil {
		return nil, err
	}
	c.swap(b)
	c.state = StateConfigured
	c.logger.Info().
		Str("implementation", info.Implementation).
		Int("tools", len(b.tools)).
		Msg("catalog configured")
	return c, nil
}

func ignoreUnion(ds []registry.ToolDescriptor) []string {
	var out []string
	for _, d := range ds {
		for _, p := range d.IgnoreStateProps {
			if !slices.Contains(out, p) {
				out = append(out, p)
			}
		}
	}
	return out
}

// built is everything UpdateReferences replaces.
type built struct {
	refs  models.References
	hub   *hub.Hub
	tools []MoziTool
}

func (c *Catalog) build(content, config any) (built, error) {
	refs, err := references.Transform(content, config)
	if err != nil {
		return built{}, err
	}
	rtdb, err := mapper.New(c.logger).GenerateReferences(refs, c.ignore)
	if err != nil {
		return built{}, err
	}
	h, err := hub.New(rtdb, c.logger)
	if err != nil {
		return built{}, err
	}
	impl, err := tools.New(tools.Deps{Catalog: c.info, Hub: h, Logger: c.logger})
	if err != nil {
		h.Close()
		return built{}, err
	}
	list, err := BuildTools(c.descriptors, impl)
	if err != nil {
		h.Close()
		return built{}, err
	}
	return built{refs: refs, hub: h, tools: list}, nil
}

// swap installs b. Callers hold mu, except New.
func (c *Catalog) swap(b built) {
	c.refs = b.refs
	c.hub = b.hub
	c.tools = b.tools
	c.byName = make(map[string]MoziTool, len(b.tools))
	for _, t := range b.tools {
		c.byName[t.Name] = t
	}
}

// Name returns the catalog name.
func (c *Catalog) Name() string {
	return c.info.Name
}

// ID returns the instance id of the catalog.
func (c *Catalog) ID() string {
	return c.id
}

// Info returns the registry entry of the catalog.
func (c *Catalog) Info() registry.Catalog {
	return c.info
}

// State returns the lifecycle state.
func (c *Catalog) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// References returns the references the hub was built from.
func (c *Catalog) References() models.References {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refs
}

// Tools returns the bound tools in descriptor order.
func (c *Catalog) Tools() []MoziTool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.tools)
}

// Publish registers every tool on a new MCP server. Publishing twice returns
// the same server.
func (c *Catalog) Publish() (*mcp.Server, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.publish()
}

func (c *Catalog) publish() (*mcp.Server, error) {
	switch c.state {
	case StateStopped:
		return nil, fmt.Errorf("catalog %s is stopped", c.info.Name)
	case StatePublished, StateRunning:
		return c.server, nil
	}
	c.server = mcp.NewServer(&mcp.Implementation{
		Name:    c.info.Name,
		Version: Version,
	}, &mcp.ServerOptions{Instructions: c.instructions})
	c.register()
	c.state = StatePublished
	c.logger.Info().Int("tools", len(c.tools)).Msg("catalog published")
	return c.server, nil
}

// register adds every tool to the server. Adding a tool under an existing
// name replaces it in place.
func (c *Catalog) register() {
	for _, t := range c.tools {
		c.server.AddTool(&mcp.Tool{
			Meta:        mcp.Meta{"tags": t.TagList()},
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.Descriptor.InputSchema(),
			Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
		}, c.handler(t.Name))
	}
}

// Start publishes the catalog if needed and marks it running. Transports that
// serve the published server themselves, like streamable HTTP, call it.
func (c *Catalog) Start(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.publish(); err != nil {
		return err
	}
	c.state = StateRunning
	c.logger.Info().Msg("catalog running")
	return nil
}

// Run serves the catalog on transport until ctx is done or the peer closes,
// then stops it.
func (c *Catalog) Run(ctx context.Context, transport mcp.Transport) error {
	if err := c.Start(ctx); err != nil {
		return err
	}
	c.mu.Lock()
	srv := c.server
	c.mu.Unlock()

	err := srv.Run(ctx, transport)
	if stopErr := c.Stop(); err == nil {
		err = stopErr
	}
	return err
}

// Stop closes the hub. Calls after Stop fail.
func (c *Catalog) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateStopped {
		return nil
	}
	c.state = StateStopped
	c.logger.Info().Msg("catalog stopped")
	return c.hub.Close()
}

// UpdateReferences rebuilds the hub and the tools from new references and
// swaps them in. In-flight calls finish on the old hub first; on error the
// catalog keeps serving the old references.
func (c *Catalog) UpdateReferences(content, config any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateStopped {
		return fmt.Errorf("catalog %s is stopped", c.info.Name)
	}

	prev := c.state
	b, err := c.build(content, config)
	if err != nil {
		return err
	}
	old := c.hub
	c.state = StateConfigured
	c.swap(b)
	if c.server != nil {
		c.register()
		c.state = prev
	}
	if err := old.Close(); err != nil {
		c.logger.Warn().Err(err).Msg("close previous hub")
	}
	c.logger.Info().
		Int("contents", len(b.refs.Contents)).
		Strs("keys", b.refs.Config.Keys()).
		Str("state", string(c.state)).
		Msg("references updated")
	return nil
}
