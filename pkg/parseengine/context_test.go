package parseengine

import (
	"context"
	"testing"

	"github.com/gitrdm/sqlgrammar/pkg/grammar"
	"github.com/gitrdm/sqlgrammar/pkg/token"
)

func TestContextParseSegmentResolvesFromRegistry(t *testing.T) {
	reg := grammar.NewRegistry("test")
	reg.Register("FromKeyword", grammar.NewStringParser("FROM", "keyword"), "keyword")
	c := NewContext(reg, grammar.DefaultConfig())

	v := token.NewView([]token.Token{kw("FROM")}, bracketPairs)
	n, err := c.ParseSegment(context.Background(), v, "FromKeyword")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if leafText(t, n) != "FROM" {
		t.Errorf("expected FROM, got %q", leafText(t, n))
	}
}

func TestContextParseSegmentUnknownNameErrors(t *testing.T) {
	reg := grammar.NewRegistry("test")
	c := NewContext(reg, grammar.DefaultConfig())
	v := token.NewView([]token.Token{kw("FROM")}, bracketPairs)
	if _, err := c.ParseSegment(context.Background(), v, "Nope"); err == nil {
		t.Error("expected an error resolving an unregistered segment name")
	}
}

func TestContextParseHonorsCancellation(t *testing.T) {
	reg := grammar.NewRegistry("test")
	ref := grammar.NewRef("Self", false, true, nil, false)
	reg.Register("Self", ref, "")
	c := NewContext(reg, grammar.DefaultConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	v := token.NewView([]token.Token{kw("X")}, bracketPairs)
	if _, err := c.Parse(ctx, v, ref); err == nil {
		t.Error("expected a cancelled context to abort the parse")
	}
}

func TestNewContextFallsBackToDefaultConfig(t *testing.T) {
	c := NewContext(grammar.NewRegistry("test"), grammar.Config{})
	if c.Config().MaxIterations != grammar.DefaultConfig().MaxIterations {
		t.Error("expected a zero-value Config to fall back to DefaultConfig")
	}
}
