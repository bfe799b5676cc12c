package grammar

import "testing"

func TestGrammarIdentityIsStableAndUnique(t *testing.T) {
	a := NewToken("keyword")
	b := NewToken("keyword")
	if a.ID() == b.ID() {
		t.Error("expected distinct identities for distinct constructions")
	}
	if a.ID() != a.ID() {
		t.Error("expected identity to be stable across calls")
	}
}

func TestCacheIDFoldsParseModeButIDDoesNot(t *testing.T) {
	seq := NewSequence(nil, false, nil, false, true, Strict)
	strictKey := CacheID(seq, Strict)
	greedyKey := CacheID(seq, Greedy)
	if strictKey == greedyKey {
		t.Error("expected distinct cache keys per parse mode")
	}
}

func TestOptionalReflectsVariant(t *testing.T) {
	if !Optional(NewNothing()) {
		t.Error("Nothing should be optional")
	}
	if !Optional(NewAnyNumberOf(nil, 0, -1, 0, nil, false, nil, false, true, Strict)) {
		t.Error("AnyNumberOf with min=0 should be optional")
	}
	if Optional(NewAnyNumberOf(nil, 1, -1, 0, nil, false, nil, false, true, Strict)) {
		t.Error("AnyNumberOf with min=1 and optional=false should not be optional")
	}
	if Optional(NewToken("keyword")) {
		t.Error("Token is never optional on its own")
	}
}

func TestAnySetOfForcesMaxPerElementOne(t *testing.T) {
	g := NewAnySetOf([]Grammar{NewToken("a"), NewToken("b")}, 0, -1, nil, false, nil, false, true, Strict)
	if g.MaxPerElement != 1 {
		t.Errorf("expected MaxPerElement=1, got %d", g.MaxPerElement)
	}
	if g.Kind() != KindAnySetOf {
		t.Errorf("expected KindAnySetOf, got %v", g.Kind())
	}
}

func TestBracketPersists(t *testing.T) {
	if !BracketPersists("(") {
		t.Error("round brackets should persist")
	}
	if BracketPersists("[") {
		t.Error("square brackets should not persist")
	}
}
