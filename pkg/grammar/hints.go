package grammar

import (
	"strings"

	"github.com/gitrdm/sqlgrammar/pkg/token"
)

// SimpleHint is a per-grammar pre-computed set of first-token signals used
// to prune alternatives before actually attempting a match. Both sets
// empty means "complex — must try": the grammar cannot be summarized
// (e.g. any RegexParser in its leading position).
type SimpleHint struct {
	RawValues  map[string]struct{} // uppercased literals
	TokenTypes map[string]struct{}
}

func newHint() *SimpleHint {
	return &SimpleHint{RawValues: map[string]struct{}{}, TokenTypes: map[string]struct{}{}}
}

// Empty reports whether the hint carries no signal at all, meaning the
// grammar must actually be tried rather than pruned.
func (h *SimpleHint) Empty() bool {
	return h == nil || (len(h.RawValues) == 0 && len(h.TokenTypes) == 0)
}

func (h *SimpleHint) addRaw(v string)   { h.RawValues[strings.ToUpper(v)] = struct{}{} }
func (h *SimpleHint) addType(t string)  { h.TokenTypes[t] = struct{}{} }
func (h *SimpleHint) unionFrom(o *SimpleHint) {
	if o == nil {
		return
	}
	for v := range o.RawValues {
		h.RawValues[v] = struct{}{}
	}
	for t := range o.TokenTypes {
		h.TokenTypes[t] = struct{}{}
	}
}

// noHint is the sentinel meaning "complex, union must also become no
// hint" — distinct from an empty-but-real hint, so it is represented as a
// nil *SimpleHint throughout ComputeHint.

// ComputeHint derives g's Simple Hint, resolving Ref indirections through
// reg and guarding cyclic references with breadcrumbs (a Ref that leads
// back to a grammar already on the current resolution path contributes no
// hint rather than recursing forever).
func ComputeHint(g Grammar, reg *Registry, breadcrumb map[int64]bool) *SimpleHint {
	if reg != nil {
		if h, ok := reg.cachedHint(g.ID()); ok {
			return h
		}
	}
	h := computeHintUncached(g, reg, breadcrumb)
	if reg != nil {
		reg.cacheHint(g.ID(), h)
	}
	return h
}

func computeHintUncached(g Grammar, reg *Registry, breadcrumb map[int64]bool) *SimpleHint {
	switch v := g.(type) {
	case *TokenGrammar:
		h := newHint()
		h.addType(v.TypeTag)
		return h
	case *StringParserGrammar:
		h := newHint()
		h.addRaw(v.Template)
		return h
	case *MultiStringParserGrammar:
		h := newHint()
		for _, t := range v.Templates {
			h.addRaw(t)
		}
		return h
	case *TypedParserGrammar:
		h := newHint()
		h.addType(v.MatchType)
		return h
	case *RegexParserGrammar:
		return nil // can't be summarized
	case *MetaGrammar, *NothingGrammar, *EmptyGrammar, *MissingGrammar:
		return newHint() // empty hint, participates without constraining
	case *AnythingGrammar:
		return nil // matches anything, no useful signal, and must always be tried
	case *RefGrammar:
		if breadcrumb[g.ID()] {
			return nil
		}
		if reg == nil {
			return nil
		}
		target, ok := reg.Resolve(v.Name)
		if !ok {
			return nil
		}
		next := make(map[int64]bool, len(breadcrumb)+1)
		for k := range breadcrumb {
			next[k] = true
		}
		next[g.ID()] = true
		return ComputeHint(target, reg, next)
	case *SequenceGrammar:
		h := newHint()
		for _, el := range v.Elements {
			eh := ComputeHint(el, reg, breadcrumb)
			if eh == nil {
				return nil
			}
			h.unionFrom(eh)
			if !Optional(el) {
				break
			}
		}
		return h
	case *OneOfGrammar:
		return unionAll(v.Alternatives, reg, breadcrumb)
	case *AnyNumberOfGrammar:
		return unionAll(v.Elements, reg, breadcrumb)
	case *DelimitedGrammar:
		return unionAll(v.Elements, reg, breadcrumb)
	case *BracketedGrammar:
		h := newHint()
		h.addType(v.Pair.Open)
		return h
	default:
		return nil
	}
}

func unionAll(elements []Grammar, reg *Registry, breadcrumb map[int64]bool) *SimpleHint {
	h := newHint()
	for _, el := range elements {
		eh := ComputeHint(el, reg, breadcrumb)
		if eh == nil {
			return nil
		}
		h.unionFrom(eh)
	}
	return h
}

// Matches reports whether hint permits t to possibly start a match: either
// its uppercased raw text is a known literal, or it answers to one of the
// hinted type tags (checked against both Type() and ClassTypes()).
func (h *SimpleHint) Matches(t token.Token) bool {
	if h.Empty() {
		return true
	}
	if _, ok := h.RawValues[strings.ToUpper(t.Raw())]; ok {
		return true
	}
	if _, ok := h.TokenTypes[t.Type()]; ok {
		return true
	}
	for _, c := range t.ClassTypes() {
		if _, ok := h.TokenTypes[c]; ok {
			return true
		}
	}
	return false
}

// PruneOptions filters candidates down to those whose hint does not rule
// out matching at the given token (or which have no hint at all, and so
// cannot be pruned).
func PruneOptions(candidates []Grammar, reg *Registry, t token.Token) []Grammar {
	if t == nil {
		return candidates
	}
	kept := make([]Grammar, 0, len(candidates))
	for _, c := range candidates {
		h := ComputeHint(c, reg, nil)
		if h == nil || h.Matches(t) {
			kept = append(kept, c)
		}
	}
	return kept
}
