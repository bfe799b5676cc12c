// Package parseengine is the Frame Stack Engine: the iterative,
// stack-driven match engine that takes a composed grammar and a token
// stream and produces a concrete syntax tree, plus the Parse Cache that
// memoizes its compound-grammar results.
//
// The engine never recurses through Go's call stack to match nested
// grammars — it replaces recursion with an explicit stack of frames and a
// results map keyed by frame id, the same shape an explicit-stack
// backtracking search uses (the transparent-token ledger reuses the same
// trail/checkpoint idea). Grammars are arbitrarily recursive and mutually
// referential; naive recursion would overflow on real SQL.
package parseengine

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/gitrdm/sqlgrammar/pkg/grammar"
	"github.com/gitrdm/sqlgrammar/pkg/token"
)

// Engine owns everything a single parse mutates: the frame stack, the
// results map, the parse cache, and the globally collected transparent
// positions ledger. An Engine is never shared across goroutines —
// independent parses each construct their own (see internal/parallel for
// running many at once).
type Engine struct {
	view     *token.View
	registry *grammar.Registry
	cfg      grammar.Config

	cache   *Cache
	ledger  *transparentLedger
	results map[uuid.UUID]cacheEntry
	stack   []*frame

	iterations int
}

// Parse runs grammar entry over view under registry, returning the
// resulting tree. The returned tree always has transparent-token
// uniqueness enforced via a final grammar.Dedupe pass.
//
// Parse never observes cancellation; it is a thin wrapper over
// ParseContext with a background context, kept for call sites (and
// existing tests) that have no context of their own to thread through.
func Parse(view *token.View, registry *grammar.Registry, entry grammar.Grammar, cfg grammar.Config) (grammar.Node, error) {
	return ParseContext(context.Background(), view, registry, entry, cfg)
}

// ParseContext is Parse with cancellation: ctx is checked once per frame
// dispatch, so a long parse over a pathological grammar can be abandoned
// without waiting for MaxIterations.
func ParseContext(ctx context.Context, view *token.View, registry *grammar.Registry, entry grammar.Grammar, cfg grammar.Config) (grammar.Node, error) {
	if cfg.MaxIterations <= 0 {
		cfg = grammar.DefaultConfig()
	}
	e := &Engine{
		view:     view,
		registry: registry,
		cfg:      cfg,
		cache:    newCache(),
		ledger:   newTransparentLedger(),
		results:  make(map[uuid.UUID]cacheEntry),
	}

	start := view.NextCodeIndex(0)
	for i := 0; i < start; i++ {
		e.ledger.attribute(i)
	}
	root := newFrame(entry, start, view.Len(), nil)
	e.push(root)

	for len(e.stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("parseengine: %w", err)
		}
		e.iterations++
		if e.iterations > cfg.MaxIterations {
			return nil, &InfiniteLoopError{MaxIterations: cfg.MaxIterations, FrameDump: e.dumpTopFrames(8)}
		}
		f := e.pop()
		if f.state == stComplete {
			continue
		}
		if err := e.dispatch(f); err != nil {
			return nil, err
		}
	}

	res, ok := e.results[root.id]
	if !ok {
		return nil, fmt.Errorf("parseengine: root frame produced no result")
	}
	return grammar.Dedupe(res.node), nil
}

func (e *Engine) push(f *frame) { e.stack = append(e.stack, f) }

func (e *Engine) pop() *frame {
	n := len(e.stack)
	f := e.stack[n-1]
	e.stack = e.stack[:n-1]
	return f
}

// spawnChild pushes parent back (now WaitingForChild) and its new child
// on top, so the child is popped and runs to completion before the
// parent is ever reconsidered — the explicit-stack equivalent of a call
// that will "return" by writing into e.results instead of via the Go
// call stack.
func (e *Engine) spawnChild(parent *frame, child *frame) {
	parent.pendingChildID = child.id
	parent.state = stWaitingForChild
	e.push(parent)
	e.push(child)
}

// spawnChildFrame builds and spawns a child frame for g starting at start,
// bounded by parent's own ceiling and inheriting parent's terminator
// environment (combined per g's own reset_terminators/terminators).
func (e *Engine) spawnChildFrame(parent *frame, g grammar.Grammar, start int) *frame {
	return e.spawnChildFrameCeil(parent, g, start, parent.maxIdx)
}

// spawnChildFrameCeil is spawnChildFrame with an explicit ceiling,
// overriding parent.maxIdx — used by Bracketed, whose content must never
// cross the closing bracket even though the Bracketed frame's own window
// may extend further.
func (e *Engine) spawnChildFrameCeil(parent *frame, g grammar.Grammar, start, ceiling int) *frame {
	terms := combineTerminators(parent.terminators, grammar.Terminators(g), grammar.ResetTerminators(g))
	child := newFrame(g, start, ceiling, terms)
	e.spawnChild(parent, child)
	return child
}

func (e *Engine) dumpTopFrames(n int) string {
	out := ""
	for i := len(e.stack) - 1; i >= 0 && n > 0; i-- {
		f := e.stack[i]
		out += fmt.Sprintf("  #%d id=%s grammar=%s start=%d state=%d\n", n, f.id, f.g, f.start, f.state)
		n--
	}
	return out
}

func (e *Engine) dispatch(f *frame) error {
	switch f.g.Kind() {
	case grammar.KindToken, grammar.KindStringParser, grammar.KindMultiStringParser,
		grammar.KindTypedParser, grammar.KindRegexParser, grammar.KindMeta,
		grammar.KindAnything, grammar.KindNothing, grammar.KindEmpty, grammar.KindMissing:
		return e.dispatchTerminal(f)
	case grammar.KindRef:
		return e.stepRef(f)
	case grammar.KindSequence:
		return e.stepSequence(f)
	case grammar.KindOneOf:
		return e.stepOneOf(f)
	case grammar.KindAnyNumberOf, grammar.KindAnySetOf:
		return e.stepAnyNumberOf(f)
	case grammar.KindDelimited:
		return e.stepDelimited(f)
	case grammar.KindBracketed:
		return e.stepBracketed(f)
	default:
		return fmt.Errorf("parseengine: unhandled grammar kind %v", f.g.Kind())
	}
}

// complete stores f's outcome into the results map (for the parent to
// pick up) and, if cacheable, into the Parse Cache.
func (e *Engine) complete(f *frame, node grammar.Node, endPos int) {
	f.state = stComplete
	entry := cacheEntry{node: node, endPos: endPos, transparentPositions: collectTransparentPositions(node)}
	e.results[f.id] = entry
	if !e.cfg.DisableCache {
		e.cache.put(f.g, f.mode, f.start, f.parentMaxIdx, f.terminators, entry)
	}
}

func (e *Engine) cacheLookup(f *frame) (cacheEntry, bool) {
	if e.cfg.DisableCache {
		return cacheEntry{}, false
	}
	return e.cache.get(f.g, f.mode, f.start, f.parentMaxIdx, f.terminators)
}

// tryCacheHit serves f directly from the Parse Cache if a prior frame
// already matched the same grammar at the same position under the same
// window and terminator environment. The cached node's transparent leaves
// are re-committed unconditionally: the speculative attempt that first
// produced this cache entry may since have been rolled back (e.g. a
// losing OneOf candidate), but the cache entry itself survives that
// rollback, so a later consumer must re-establish its attribution.
func (e *Engine) tryCacheHit(f *frame) bool {
	entry, ok := e.cacheLookup(f)
	if !ok {
		return false
	}
	e.commitTransparentLeaves(entry.node)
	e.complete(f, entry.node, entry.endPos)
	return true
}

func collectTransparentPositions(n grammar.Node) []int {
	var out []int
	for _, lf := range grammar.Leaves(n) {
		switch lf.Kind() {
		case grammar.NodeWhitespace, grammar.NodeNewline:
			out = append(out, lf.TokenIdx())
		}
	}
	return out
}

// pruneOptions applies the Simple Hint Index unless DisableHints is set,
// the escape hatch used to isolate whether a bug lives in the engine
// proper or in hint pruning layered on top of it.
func (e *Engine) pruneOptions(candidates []grammar.Grammar, tok token.Token) []grammar.Grammar {
	if e.cfg.DisableHints {
		return candidates
	}
	return grammar.PruneOptions(candidates, e.registry, tok)
}

// currentToken returns the token at pos, or nil if pos is out of range —
// used for Simple Hint pruning, which must tolerate being asked about the
// end of the stream.
func (e *Engine) currentToken(pos int) token.Token {
	if pos < 0 || pos >= e.view.Len() {
		return nil
	}
	return e.view.At(pos)
}

// transparentLeaf classifies a non-code token at pos into its Node leaf
// variant.
func (e *Engine) transparentLeaf(pos int) grammar.Node {
	tok := e.view.At(pos)
	switch tok.Type() {
	case "newline":
		return &grammar.LeafNewline{RawText: tok.Raw(), Idx: pos}
	case "end_of_file", "eof":
		return &grammar.LeafEndOfFile{RawText: tok.Raw(), Idx: pos}
	default:
		return &grammar.LeafWhitespace{RawText: tok.Raw(), Idx: pos}
	}
}

// tokenNode renders the raw token at pos as a leaf regardless of
// code/transparent status — used when building Unparsable/Anything spans
// where every token in the range must appear somewhere in the tree.
func (e *Engine) tokenNode(pos int) grammar.Node {
	tok := e.view.At(pos)
	if !tok.IsCode() {
		return e.transparentLeaf(pos)
	}
	return &grammar.LeafToken{Type: tok.Type(), RawText: tok.Raw(), Idx: pos}
}

// rawSpanChildren renders every token in [from, to) as a leaf, in order.
func (e *Engine) rawSpanChildren(from, to int) []grammar.Node {
	if to <= from {
		return nil
	}
	out := make([]grammar.Node, 0, to-from)
	for i := from; i < to; i++ {
		out = append(out, e.tokenNode(i))
	}
	return out
}

// commitTransparentLeaves walks n's leaves and marks every transparent
// one as attributed. Called once a speculative winner (a OneOf candidate,
// an AnyNumberOf iteration's chosen alternative, a Delimited slot) has
// been selected — every other candidate's attribution was already
// discarded via ledger.rollback, so this re-establishes the winner's.
func (e *Engine) commitTransparentLeaves(n grammar.Node) {
	for _, lf := range grammar.Leaves(n) {
		switch lf.Kind() {
		case grammar.NodeWhitespace, grammar.NodeNewline:
			e.ledger.attribute(lf.TokenIdx())
		}
	}
}

// gapChildren returns the transparent-token leaves between from and to
// (exclusive), attributing each as it goes. Used by Sequence, Bracketed,
// AnyNumberOf and Delimited to attach the gap before an element they have
// already settled on; the caller's own ledger checkpoint undoes it if the
// caller later fails or drops that element.
func (e *Engine) gapChildren(from, to int) []grammar.Node {
	var out []grammar.Node
	for i := from; i < to; i++ {
		if e.view.IsCode(i) {
			continue
		}
		if e.ledger.isAttributed(i) {
			continue
		}
		e.ledger.attribute(i)
		out = append(out, e.transparentLeaf(i))
	}
	return out
}
