package parseengine

import (
	"github.com/gitrdm/sqlgrammar/pkg/grammar"
	"github.com/gitrdm/sqlgrammar/pkg/token"
)

// dispatchTerminal handles every grammar kind that never spawns a child
// frame: it always completes in the same iteration it is popped.
func (e *Engine) dispatchTerminal(f *frame) error {
	switch f.g.Kind() {
	case grammar.KindToken, grammar.KindStringParser, grammar.KindMultiStringParser,
		grammar.KindTypedParser, grammar.KindRegexParser:
		return e.matchTerminalAt(f)
	case grammar.KindMeta:
		return e.matchMeta(f)
	case grammar.KindAnything:
		return e.matchAnything(f)
	case grammar.KindNothing, grammar.KindEmpty, grammar.KindMissing:
		e.complete(f, grammar.TheEmpty, f.start)
		return nil
	}
	return nil
}

func (e *Engine) matchTerminalAt(f *frame) error {
	ceiling := f.parentMaxIdx
	if v := e.view.Len(); v < ceiling {
		ceiling = v
	}
	pos := f.start
	tok := e.currentToken(pos)
	if tok == nil || pos >= ceiling {
		e.complete(f, grammar.TheEmpty, f.start)
		return nil
	}
	switch v := f.g.(type) {
	case *grammar.TokenGrammar:
		if tok.Type() == v.TypeTag {
			e.complete(f, &grammar.LeafToken{Type: tok.Type(), RawText: tok.Raw(), Idx: pos}, pos+1)
			return nil
		}
	case *grammar.StringParserGrammar:
		if equalFold(tok.Raw(), v.Template) {
			e.complete(f, &grammar.LeafToken{Type: v.EmitType, RawText: tok.Raw(), Idx: pos}, pos+1)
			return nil
		}
	case *grammar.MultiStringParserGrammar:
		for _, t := range v.Templates {
			if equalFold(tok.Raw(), t) {
				e.complete(f, &grammar.LeafToken{Type: v.EmitType, RawText: tok.Raw(), Idx: pos}, pos+1)
				return nil
			}
		}
	case *grammar.TypedParserGrammar:
		if token.Is(tok, v.MatchType) {
			e.complete(f, &grammar.LeafToken{Type: v.EmitType, RawText: tok.Raw(), Idx: pos}, pos+1)
			return nil
		}
	case *grammar.RegexParserGrammar:
		if regexMatches(v.Pattern, v.AntiPattern, tok.Raw()) {
			e.complete(f, &grammar.LeafToken{Type: v.EmitType, RawText: tok.Raw(), Idx: pos}, pos+1)
			return nil
		}
	}
	e.complete(f, grammar.TheEmpty, f.start)
	return nil
}

func (e *Engine) matchMeta(f *frame) error {
	v := f.g.(*grammar.MetaGrammar)
	e.complete(f, &grammar.LeafMeta{Label: v.Label}, f.start)
	return nil
}

// matchAnything consumes every token from f.start up to the nearest
// active terminator (or the end of the active window), whichever comes
// first. Anything always behaves this way regardless of parse mode: it
// has no elements of its own to be strict about.
func (e *Engine) matchAnything(f *frame) error {
	ceiling := f.parentMaxIdx
	if v := e.view.Len(); v < ceiling {
		ceiling = v
	}
	end := e.trimToTerminator(f.start, ceiling, f.terminators, nil)
	for i := f.start; i < end; i++ {
		if !e.view.IsCode(i) {
			e.ledger.attribute(i)
		}
	}
	node := grammar.BuildSequence(e.rawSpanChildren(f.start, end))
	e.complete(f, node, end)
	return nil
}
