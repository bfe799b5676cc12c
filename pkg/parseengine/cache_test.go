package parseengine

import (
	"testing"

	"github.com/gitrdm/sqlgrammar/pkg/grammar"
)

func TestCacheMissesOnDifferentPosition(t *testing.T) {
	c := newCache()
	g := grammar.NewSequence(nil, false, nil, false, true, grammar.Strict)
	entry := cacheEntry{node: &grammar.LeafToken{Type: "x", Idx: 0}, endPos: 1}
	c.put(g, grammar.Strict, 0, 5, nil, entry)

	if _, ok := c.get(g, grammar.Strict, 1, 5, nil); ok {
		t.Error("expected a miss at a different start position")
	}
	if _, ok := c.get(g, grammar.Strict, 0, 5, nil); !ok {
		t.Error("expected a hit at the position it was stored under")
	}
}

func TestCacheKeyFoldsInParseMode(t *testing.T) {
	c := newCache()
	g := grammar.NewSequence(nil, false, nil, false, true, grammar.Strict)
	entry := cacheEntry{node: &grammar.LeafToken{Type: "x", Idx: 0}, endPos: 1}
	c.put(g, grammar.Strict, 0, 5, nil, entry)

	if _, ok := c.get(g, grammar.Greedy, 0, 5, nil); ok {
		t.Error("a Strict-mode entry must not serve a Greedy-mode lookup for the same grammar/position")
	}
}

func TestCacheNeverStoresTerminals(t *testing.T) {
	c := newCache()
	g := grammar.NewToken("star")
	entry := cacheEntry{node: &grammar.LeafToken{Type: "star", Idx: 0}, endPos: 1}
	c.put(g, grammar.Strict, 0, 5, nil, entry)

	if _, ok := c.get(g, grammar.Strict, 0, 5, nil); ok {
		t.Error("terminals are cheap enough to re-match and should never be memoized")
	}
}

func TestCacheDoesNotStoreEmptyUnderANonEmptyTerminatorSet(t *testing.T) {
	c := newCache()
	g := grammar.NewSequence(nil, false, nil, false, true, grammar.Strict)
	terms := []grammar.Grammar{grammar.NewToken("semicolon")}
	entry := cacheEntry{node: grammar.TheEmpty, endPos: 0}
	c.put(g, grammar.Strict, 0, 5, terms, entry)

	if _, ok := c.get(g, grammar.Strict, 0, 5, terms); ok {
		t.Error("an Empty result under a non-empty terminator set must not be cached: a different enclosing terminator context could turn it non-empty")
	}
}

func TestCacheStoresEmptyUnderAnEmptyTerminatorSet(t *testing.T) {
	c := newCache()
	g := grammar.NewSequence(nil, false, nil, false, true, grammar.Strict)
	entry := cacheEntry{node: grammar.TheEmpty, endPos: 0}
	c.put(g, grammar.Strict, 0, 5, nil, entry)

	if _, ok := c.get(g, grammar.Strict, 0, 5, nil); !ok {
		t.Error("an Empty result under no terminators at all should still be cacheable")
	}
}

func TestTerminatorSetHashIsOrderIndependent(t *testing.T) {
	a := grammar.NewToken("a")
	b := grammar.NewToken("b")
	h1 := terminatorSetHash([]grammar.Grammar{a, b})
	h2 := terminatorSetHash([]grammar.Grammar{b, a})
	if h1 != h2 {
		t.Errorf("expected order-independent hash, got %q vs %q", h1, h2)
	}
}
