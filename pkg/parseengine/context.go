package parseengine

import (
	"context"
	"fmt"

	"github.com/gitrdm/sqlgrammar/pkg/grammar"
	"github.com/gitrdm/sqlgrammar/pkg/token"
)

// Context bundles the two pieces of state callers otherwise have to pass
// into every parse: a dialect's Registry and the Config tuning the engine
// that runs against it. It carries no per-parse state itself — a single
// Context is reused across many independent parses of different token
// streams, the way one SLGEngine instance serves many goal evaluations in
// the tabled-resolution engine it borrows its shape from.
type Context struct {
	registry *grammar.Registry
	cfg      grammar.Config
}

// NewContext builds a Context over registry with cfg. A zero Config (or
// one with a non-positive MaxIterations) falls back to
// grammar.DefaultConfig(), same as Parse.
func NewContext(registry *grammar.Registry, cfg grammar.Config) *Context {
	if cfg.MaxIterations <= 0 {
		cfg = grammar.DefaultConfig()
	}
	return &Context{registry: registry, cfg: cfg}
}

// Registry returns the dialect registry this Context parses against.
func (c *Context) Registry() *grammar.Registry { return c.registry }

// Config returns the engine configuration this Context runs under.
func (c *Context) Config() grammar.Config { return c.cfg }

// Parse runs entry over view, honoring ctx cancellation.
func (c *Context) Parse(ctx context.Context, view *token.View, entry grammar.Grammar) (grammar.Node, error) {
	return ParseContext(ctx, view, c.registry, entry, c.cfg)
}

// ParseSegment resolves segmentName in the registry and parses view
// against it, the entry point a CLI or a dialect's top-level "file"
// segment uses instead of threading a grammar.Grammar value around by
// hand.
func (c *Context) ParseSegment(ctx context.Context, view *token.View, segmentName string) (grammar.Node, error) {
	g, ok := c.registry.Resolve(segmentName)
	if !ok {
		return nil, fmt.Errorf("parseengine: segment %q is not registered", segmentName)
	}
	return c.Parse(ctx, view, g)
}
