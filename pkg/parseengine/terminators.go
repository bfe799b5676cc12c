package parseengine

import "github.com/gitrdm/sqlgrammar/pkg/grammar"

// combineTerminators implements the terminator-combination rule for a
// child: reset discards the parent's inherited terminators in favor of
// only the child's own locals; otherwise the two lists concatenate.
func combineTerminators(parent []grammar.Grammar, child []grammar.Grammar, reset bool) []grammar.Grammar {
	if reset || len(parent) == 0 {
		return child
	}
	if len(child) == 0 {
		return parent
	}
	combined := make([]grammar.Grammar, 0, len(parent)+len(child))
	combined = append(combined, parent...)
	combined = append(combined, child...)
	return combined
}

// calculateMaxIdx computes the exclusive upper bound on tokens a frame
// may consume: the parent's own ceiling, further trimmed to the nearest
// active terminator when the frame's mode is greedy. GreedyOnceStarted
// behaves like Strict (full window, no trim) until greedyStarted is
// true, at which point it trims exactly like Greedy.
func (e *Engine) calculateMaxIdx(start, parentMaxIdx int, mode grammar.ParseMode, greedyStarted bool, terms []grammar.Grammar, remainingElements []grammar.Grammar) int {
	maxIdx := e.view.Len()
	if parentMaxIdx >= 0 && parentMaxIdx < maxIdx {
		maxIdx = parentMaxIdx
	}
	if mode == grammar.Greedy || (mode == grammar.GreedyOnceStarted && greedyStarted) {
		trimmed := e.trimToTerminator(start, maxIdx, terms, remainingElements)
		if trimmed < maxIdx {
			maxIdx = trimmed
		}
	}
	return maxIdx
}

// trimToTerminator scans forward from start for the earliest position at
// which a terminator matches and none of the remaining elements also
// matches there — so a terminator that also starts a later element (e.g.
// FROM inside a SELECT clause that also terminates it) does not
// prematurely cut the scan. A terminator keyword inside a bracketed
// subquery (e.g. FROM inside a parenthesized SELECT) must not end the
// outer scan early, so bracketed spans are skipped over wholesale.
func (e *Engine) trimToTerminator(start, ceiling int, terms []grammar.Grammar, remainingElements []grammar.Grammar) int {
	if len(terms) == 0 {
		return ceiling
	}
	pos := start
	for pos < ceiling {
		codeIdx := e.view.NextCodeIndex(pos)
		if codeIdx >= ceiling {
			return ceiling
		}
		if e.view.IsOpener(codeIdx) {
			if closeIdx, ok := e.view.MatchingClose(codeIdx); ok && closeIdx < ceiling {
				pos = closeIdx + 1
				continue
			}
		}
		if e.matchesShallow(terms, codeIdx) && !e.matchesShallow(remainingElements, codeIdx) {
			return codeIdx
		}
		pos = codeIdx + 1
	}
	return ceiling
}

func (e *Engine) matchesShallow(candidates []grammar.Grammar, pos int) bool {
	for _, g := range candidates {
		if e.shallowMatch(g, pos, 0) {
			return true
		}
	}
	return false
}

// shallowMatch answers "could g plausibly start matching at pos" by
// looking only at the token(s) immediately at pos, without running the
// full frame-stack engine. Terminator and lookahead grammars are, in
// every real dialect, shallow marker grammars (a keyword, a punctuation
// token, or a small OneOf/Ref over such) — so a bounded native-recursive
// peek here is sufficient and keeps terminator scanning out of the
// engine's own frame stack entirely. depth guards against pathological
// terminator grammars that are not actually shallow.
func (e *Engine) shallowMatch(g grammar.Grammar, pos int, depth int) bool {
	if depth > 32 || pos >= e.view.Len() {
		return false
	}
	tok := e.view.At(pos)
	switch v := g.(type) {
	case *grammar.TokenGrammar:
		return tok.Type() == v.TypeTag
	case *grammar.StringParserGrammar:
		return equalFold(tok.Raw(), v.Template)
	case *grammar.MultiStringParserGrammar:
		for _, t := range v.Templates {
			if equalFold(tok.Raw(), t) {
				return true
			}
		}
		return false
	case *grammar.TypedParserGrammar:
		return tok.Type() == v.MatchType
	case *grammar.RegexParserGrammar:
		return regexMatches(v.Pattern, v.AntiPattern, tok.Raw())
	case *grammar.RefGrammar:
		target, ok := e.registry.Resolve(v.Name)
		if !ok {
			return false
		}
		return e.shallowMatch(target, pos, depth+1)
	case *grammar.OneOfGrammar:
		for _, alt := range v.Alternatives {
			if e.shallowMatch(alt, pos, depth+1) {
				return true
			}
		}
		return false
	case *grammar.AnyNumberOfGrammar:
		for _, el := range v.Elements {
			if e.shallowMatch(el, pos, depth+1) {
				return true
			}
		}
		return false
	case *grammar.DelimitedGrammar:
		for _, el := range v.Elements {
			if e.shallowMatch(el, pos, depth+1) {
				return true
			}
		}
		return false
	case *grammar.SequenceGrammar:
		if len(v.Elements) == 0 {
			return false
		}
		return e.shallowMatch(v.Elements[0], pos, depth+1)
	case *grammar.BracketedGrammar:
		return tok.Type() == v.Pair.Open
	default:
		return false
	}
}
