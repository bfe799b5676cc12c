package grammar

import (
	"testing"

	"github.com/gitrdm/sqlgrammar/pkg/token"
)

type hintToken struct {
	raw     string
	typ     string
	classes []string
}

func (h hintToken) Raw() string          { return h.raw }
func (h hintToken) Type() string         { return h.typ }
func (h hintToken) IsCode() bool         { return true }
func (h hintToken) ClassTypes() []string { return h.classes }
func (h hintToken) Pos() token.Position  { return token.Position{} }

func TestStringParserHintMatchesRawCaseInsensitive(t *testing.T) {
	g := NewStringParser("select", "keyword")
	h := ComputeHint(g, nil, nil)
	if h.Empty() {
		t.Fatal("expected a non-empty hint")
	}
	if !h.Matches(hintToken{raw: "SELECT", typ: "word"}) {
		t.Error("expected uppercase match")
	}
	if h.Matches(hintToken{raw: "FROM", typ: "word"}) {
		t.Error("unexpected match for unrelated raw text")
	}
}

func TestRegexParserYieldsNoHint(t *testing.T) {
	g := NewRegexParser("^[0-9]+$", "number", "")
	h := ComputeHint(g, nil, nil)
	if h != nil {
		t.Error("expected RegexParser to yield a nil (no) hint")
	}
}

func TestSequenceHintStopsAtFirstNonOptional(t *testing.T) {
	opt := NewAnyNumberOf([]Grammar{NewStringParser("distinct", "keyword")}, 0, -1, 0, nil, true, nil, false, true, Strict)
	required := NewStringParser("select", "keyword")
	trailing := NewStringParser("never-reached", "keyword")
	seq := NewSequence([]Grammar{opt, required, trailing}, false, nil, false, true, Strict)

	h := ComputeHint(seq, nil, nil)
	if h.Empty() {
		t.Fatal("expected a non-empty hint")
	}
	if _, ok := h.RawValues["NEVER-REACHED"]; ok {
		t.Error("hint should stop unioning after the first required element")
	}
	if _, ok := h.RawValues["SELECT"]; !ok {
		t.Error("hint should include the required element")
	}
}

func TestOneOfHintIsNilIfAnyAlternativeIsComplex(t *testing.T) {
	oneOf := NewOneOf([]Grammar{
		NewStringParser("select", "keyword"),
		NewRegexParser(".*", "anything", ""),
	}, nil, false, nil, false, true, Strict)
	if h := ComputeHint(oneOf, nil, nil); h != nil {
		t.Error("expected nil hint when any alternative is unsummarizable")
	}
}

func TestRefHintResolvesThroughRegistryAndGuardsCycles(t *testing.T) {
	reg := NewRegistry("test")
	reg.Register("Lit", NewStringParser("x", "keyword"), "")
	lit := NewRef("Lit", false, true, nil, false)
	ref := NewRef("Self", false, true, nil, false)
	self := NewOneOf([]Grammar{lit, ref}, nil, false, nil, false, true, Strict)
	reg.Register("Self", self, "")

	h := ComputeHint(lit, reg, nil)
	if h.Empty() {
		t.Fatal("expected a Ref to take its hint from the registered grammar")
	}
	if _, ok := h.RawValues["X"]; !ok {
		t.Error("expected hint to include the registered literal")
	}
	// The Ref back to Self is cut with a nil (no) hint, and a OneOf with an
	// unhinted alternative is itself unhinted, so pruning never drops it.
	if h := ComputeHint(ref, reg, nil); h != nil {
		t.Error("expected a self-referential OneOf to yield a nil hint")
	}
}

func TestPruneOptionsDropsUnhintedMismatch(t *testing.T) {
	candidates := []Grammar{
		NewStringParser("select", "keyword"),
		NewStringParser("insert", "keyword"),
	}
	kept := PruneOptions(candidates, nil, hintToken{raw: "SELECT", typ: "word"})
	if len(kept) != 1 {
		t.Fatalf("expected 1 surviving candidate, got %d", len(kept))
	}
	if kept[0].(*StringParserGrammar).Template != "select" {
		t.Errorf("expected select to survive pruning, got %v", kept[0])
	}
}
