// Package token defines the external collaborator contract the grammar
// interpreter consumes: a flat, already-positioned sequence of lexer
// tokens, plus the derived index the parse engine needs to run quickly
// over it (the bracket-pair map).
//
// Lexing itself is out of scope here; View only wraps a token slice a
// caller already produced.
package token

import "fmt"

// Position marks where a token sits in the source being parsed.
type Position struct {
	Index int // token-sequence ordinal, not byte offset
	Line  int
	Col   int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// Token is the contract the engine expects of every lexer-produced token.
// It mirrors raw()/get_type()/is_code()/class_types/pos_marker from the
// external-interface contract: a token knows its own text, its primary
// type, whether it counts as "code" (non-whitespace, non-comment), the
// full set of type names it matches under (for TypedParser), and its
// position.
type Token interface {
	Raw() string
	Type() string
	IsCode() bool
	ClassTypes() []string
	Pos() Position
}

// Is reports whether t matches typeName, either as its primary Type() or
// as one of its ClassTypes() (segments commonly answer to more than one
// type name, e.g. a keyword token answering to both "keyword" and its
// specific keyword name).
func Is(t Token, typeName string) bool {
	if t.Type() == typeName {
		return true
	}
	for _, c := range t.ClassTypes() {
		if c == typeName {
			return true
		}
	}
	return false
}

// BracketPair is an opener/closer pair known to the dialect's lexer.
type BracketPair struct {
	Opener string // token type of the opening bracket, e.g. "start_bracket"
	Closer string // token type of the matching closer, e.g. "end_bracket"
}

// View wraps a token slice with the derived index the Frame Stack Engine
// and the Bracketed handler need repeatedly: an opener-index to
// closer-index bracket map, computed once up front the same way a
// bracket-pair map is produced during lexing rather than rediscovered on
// every Bracketed match. Code-token lookups (NextCodeIndex) scan the slice
// on each call; no skip list is precomputed.
type View struct {
	tokens  []Token
	pairs   []BracketPair
	matches map[int]int // opener token index -> matching closer token index
}

// NewView builds a View over tokens. pairs declares which (opener, closer)
// type names bracket each other; View computes the full match map eagerly.
func NewView(tokens []Token, pairs []BracketPair) *View {
	v := &View{tokens: tokens, pairs: pairs}
	v.matches = v.buildBracketMap()
	return v
}

// Len returns the number of tokens in the view.
func (v *View) Len() int { return len(v.tokens) }

// At returns the token at idx. Callers must keep idx within [0, Len()).
func (v *View) At(idx int) Token { return v.tokens[idx] }

// IsCode reports whether the token at idx is a code token.
func (v *View) IsCode(idx int) bool {
	if idx < 0 || idx >= len(v.tokens) {
		return false
	}
	return v.tokens[idx].IsCode()
}

// NextCodeIndex returns the index of the next code token at or after from,
// or Len() if there is none. Transparent (non-code) tokens between code
// tokens are what the engine tentatively collects and attributes during
// matching (see parseengine's checkpoint/rollback ledger).
func (v *View) NextCodeIndex(from int) int {
	for i := from; i < len(v.tokens); i++ {
		if v.tokens[i].IsCode() {
			return i
		}
	}
	return len(v.tokens)
}

func (v *View) opener(typeName string) (string, bool) {
	for _, p := range v.pairs {
		if p.Opener == typeName {
			return p.Closer, true
		}
	}
	return "", false
}

// buildBracketMap scans the whole token stream once with an explicit stack
// of pending openers, a one-pass approach chosen over rescanning for every
// Bracketed attempt.
func (v *View) buildBracketMap() map[int]int {
	matches := make(map[int]int)
	type pending struct {
		idx    int
		closer string
	}
	var stack []pending
	for i, t := range v.tokens {
		if closer, ok := v.opener(t.Type()); ok {
			stack = append(stack, pending{idx: i, closer: closer})
			continue
		}
		if len(stack) > 0 && t.Type() == stack[len(stack)-1].closer {
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			matches[top.idx] = i
		}
	}
	return matches
}

// MatchingClose returns the index of the token closing the bracket opened
// at openerIdx, and whether a match was found.
func (v *View) MatchingClose(openerIdx int) (int, bool) {
	idx, ok := v.matches[openerIdx]
	return idx, ok
}

// IsOpener reports whether the token at idx opens a known bracket pair.
func (v *View) IsOpener(idx int) bool {
	if idx < 0 || idx >= len(v.tokens) {
		return false
	}
	_, ok := v.opener(v.tokens[idx].Type())
	return ok
}
