package parseengine

import "github.com/gitrdm/sqlgrammar/pkg/grammar"

// stepOneOf tries each pruned alternative at the same starting position
// and keeps the longest clean match, preferring a clean match over an
// unclean one of equal length. Every alternative's speculative
// transparent-token attribution is rolled back once it has been scored;
// only the eventual winner's is re-committed, in stepOneOf's final phase.
func (e *Engine) stepOneOf(f *frame) error {
	oo := f.g.(*grammar.OneOfGrammar)
	switch f.state {
	case stInitial:
		if !f.maxIdxSet {
			f.maxIdx = e.calculateMaxIdx(f.start, f.parentMaxIdx, f.mode, true, f.terminators, nil)
			f.maxIdxSet = true
		}
		if e.tryCacheHit(f) {
			return nil
		}
		f.ledgerMark = e.ledger.checkpoint()
		if oo.Exclude != nil {
			f.phase = 0
			f.altCheckpoint = e.ledger.checkpoint()
			e.spawnChildFrame(f, oo.Exclude, f.start)
			return nil
		}
		return e.oneOfBeginCandidates(f)
	case stWaitingForChild:
		res, ok := e.results[f.pendingChildID]
		if !ok {
			return &InvariantViolationError{Detail: "OneOf child frame missing from results"}
		}
		delete(e.results, f.pendingChildID)
		if f.phase == 0 {
			e.ledger.rollback(f.altCheckpoint)
			if !grammar.IsEmpty(res.node) {
				e.ledger.rollback(f.ledgerMark)
				e.complete(f, grammar.TheEmpty, f.start)
				return nil
			}
			return e.oneOfBeginCandidates(f)
		}
		return e.oneOfHandleCandidateResult(f, res)
	case stCombining:
		return e.oneOfTryNext(f)
	}
	return nil
}

func (e *Engine) oneOfBeginCandidates(f *frame) error {
	oo := f.g.(*grammar.OneOfGrammar)
	tok := e.currentToken(f.start)
	f.candidates = e.pruneOptions(oo.Alternatives, tok)
	f.altIdx = 0
	f.bestNode = nil
	f.bestEnd = f.start
	f.bestClean = false
	f.anyMatched = false
	f.phase = 1
	f.state = stCombining
	return e.oneOfTryNext(f)
}

func (e *Engine) oneOfTryNext(f *frame) error {
	if f.altIdx >= len(f.candidates) {
		return e.oneOfFinish(f)
	}
	if f.anyMatched && f.bestEnd >= f.maxIdx {
		return e.oneOfFinish(f)
	}
	cand := f.candidates[f.altIdx]
	f.altIdx++
	f.altCheckpoint = e.ledger.checkpoint()
	e.spawnChildFrame(f, cand, f.start)
	return nil
}

func (e *Engine) oneOfHandleCandidateResult(f *frame, res cacheEntry) error {
	if !grammar.IsEmpty(res.node) {
		f.anyMatched = true
		cleanNow := isClean(res.node)
		better := res.endPos > f.bestEnd
		tie := res.endPos == f.bestEnd
		if f.bestNode == nil || better || (tie && cleanNow && !f.bestClean) {
			f.bestNode = res.node
			f.bestEnd = res.endPos
			f.bestClean = cleanNow
		}
	}
	e.ledger.rollback(f.altCheckpoint)
	return e.oneOfTryNext(f)
}

func (e *Engine) oneOfFinish(f *frame) error {
	if f.bestNode == nil {
		e.ledger.rollback(f.ledgerMark)
		e.complete(f, grammar.TheEmpty, f.start)
		return nil
	}
	e.commitTransparentLeaves(f.bestNode)
	e.complete(f, f.bestNode, f.bestEnd)
	return nil
}
