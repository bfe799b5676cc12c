package parseengine

import (
	"github.com/google/uuid"

	"github.com/gitrdm/sqlgrammar/pkg/grammar"
)

type frameState int

const (
	stInitial frameState = iota
	stWaitingForChild
	stCombining
	stComplete
)

// frame is the engine's internal ParseFrame: one entry on the explicit
// stack representing the in-progress match of a single grammar at a
// single position. Every variant shares this one struct (rather than one
// struct per variant) the same way an explicit-stack backtracking
// search's frame struct carries fields used differently by different
// choice points — it keeps the dispatch loop free of type assertions on
// the frame itself (only on frame.g).
type frame struct {
	id           uuid.UUID
	g            grammar.Grammar
	mode         grammar.ParseMode
	start        int
	parentMaxIdx int
	terminators  []grammar.Grammar
	state        frameState

	maxIdx     int
	maxIdxSet  bool
	matchedIdx int
	ledgerMark int
	children   []grammar.Node

	pendingChildID uuid.UUID

	// Sequence
	elemIdx       int
	greedyStarted bool

	// OneOf (also used as the transient per-iteration chooser inside
	// AnyNumberOf/Delimited)
	candidates []grammar.Grammar
	altIdx     int
	bestNode   grammar.Node
	bestEnd    int
	bestClean  bool
	anyMatched bool
	bestCandID int64

	// AnyNumberOf / AnySetOf
	count           int
	perElementCount map[int64]int

	// Delimited
	delimCount              int
	expectingDelimiter      bool
	trailingDelimRevertIdx  int
	trailingDelimChildCount int
	trailingDelimCheckpoint int

	// Bracketed
	openerIdx int
	closerIdx int

	// Generic scratch shared across variants that try one sub-match at a
	// time and must isolate its speculative transparent-token
	// attribution: phase distinguishes sub-stages (OneOf's and
	// AnyNumberOf's exclude-check vs candidate trial, Delimited's element
	// vs delimiter slot), altCheckpoint
	// is the ledger mark taken immediately before the pending trial, gapTo
	// stashes a position across a spawned sub-frame's turnaround.
	phase         int
	altCheckpoint int
	gapTo         int
}

func newFrame(g grammar.Grammar, start, parentMaxIdx int, terminators []grammar.Grammar) *frame {
	return &frame{
		id:           uuid.New(),
		g:            g,
		mode:         grammar.Mode(g),
		start:        start,
		parentMaxIdx: parentMaxIdx,
		terminators:  terminators,
		state:        stInitial,
		matchedIdx:   start,
	}
}

// isClean reports whether node contains no nested Unparsable — the
// "clean match" property OneOf and AnyNumberOf prefer among candidates of
// equal length.
func isClean(n grammar.Node) bool {
	return !containsUnparsable(n)
}

func containsUnparsable(n grammar.Node) bool {
	if n == nil {
		return false
	}
	if n.Kind() == grammar.NodeUnparsable {
		return true
	}
	switch v := n.(type) {
	case *grammar.SequenceNode:
		for _, c := range v.Children {
			if containsUnparsable(c) {
				return true
			}
		}
	case *grammar.DelimitedListNode:
		for _, c := range v.Children {
			if containsUnparsable(c) {
				return true
			}
		}
	case *grammar.BracketedNode:
		for _, c := range v.Children {
			if containsUnparsable(c) {
				return true
			}
		}
	case *grammar.RefNode:
		return containsUnparsable(v.Child)
	}
	return false
}
