package parseengine

import "github.com/gitrdm/sqlgrammar/pkg/grammar"

// stepAnyNumberOf repeats a OneOf-style choice among Elements between Min
// and Max times, stopping when Exclude matches, when no element matches
// at the current position, when Max is reached, or when the window is
// exhausted. AnySetOf shares this same handler: its only difference from
// AnyNumberOf is MaxPerElement pinned to 1 on the grammar value itself.
func (e *Engine) stepAnyNumberOf(f *frame) error {
	an := f.g.(*grammar.AnyNumberOfGrammar)
	switch f.state {
	case stInitial:
		if !f.maxIdxSet {
			f.maxIdx = e.calculateMaxIdx(f.start, f.parentMaxIdx, f.mode, true, f.terminators, an.Elements)
			f.maxIdxSet = true
		}
		if e.tryCacheHit(f) {
			return nil
		}
		f.ledgerMark = e.ledger.checkpoint()
		f.matchedIdx = f.start
		f.count = 0
		f.perElementCount = make(map[int64]int)
		f.state = stCombining
		return e.anyNumberOfNextIteration(f)
	case stWaitingForChild:
		res, ok := e.results[f.pendingChildID]
		if !ok {
			return &InvariantViolationError{Detail: "AnyNumberOf child frame missing from results"}
		}
		delete(e.results, f.pendingChildID)
		if f.phase == 0 {
			if !grammar.IsEmpty(res.node) {
				return e.anyNumberOfFinish(f)
			}
			return e.anyNumberOfBeginCandidates(f)
		}
		return e.anyNumberOfHandleCandidateResult(f, res)
	case stCombining:
		return e.anyNumberOfNextIteration(f)
	}
	return nil
}

func (e *Engine) anyNumberOfNextIteration(f *frame) error {
	an := f.g.(*grammar.AnyNumberOfGrammar)
	if an.Max >= 0 && f.count >= an.Max {
		return e.anyNumberOfFinish(f)
	}
	gapFrom := f.matchedIdx
	codePos := gapFrom
	if an.AllowGapsFlag {
		codePos = e.view.NextCodeIndex(gapFrom)
	}
	if codePos >= f.maxIdx {
		return e.anyNumberOfFinish(f)
	}
	f.gapTo = codePos
	if an.Exclude != nil {
		f.phase = 0
		f.altCheckpoint = e.ledger.checkpoint()
		e.spawnChildFrame(f, an.Exclude, codePos)
		return nil
	}
	return e.anyNumberOfBeginCandidates(f)
}

func (e *Engine) anyNumberOfBeginCandidates(f *frame) error {
	an := f.g.(*grammar.AnyNumberOfGrammar)
	codePos := f.gapTo
	tok := e.currentToken(codePos)
	candidates := e.pruneOptions(an.Elements, tok)
	if an.MaxPerElement > 0 {
		filtered := candidates[:0]
		for _, c := range candidates {
			if f.perElementCount[c.ID()] < an.MaxPerElement {
				filtered = append(filtered, c)
			}
		}
		candidates = filtered
	}
	f.candidates = candidates
	f.altIdx = 0
	f.bestNode = nil
	f.bestEnd = codePos
	f.bestClean = false
	f.anyMatched = false
	f.phase = 1
	f.state = stCombining
	return e.anyNumberOfTryNextCandidate(f)
}

func (e *Engine) anyNumberOfTryNextCandidate(f *frame) error {
	codePos := f.gapTo
	if f.altIdx >= len(f.candidates) {
		return e.anyNumberOfIterationDone(f)
	}
	cand := f.candidates[f.altIdx]
	f.altIdx++
	f.altCheckpoint = e.ledger.checkpoint()
	e.spawnChildFrame(f, cand, codePos)
	return nil
}

func (e *Engine) anyNumberOfHandleCandidateResult(f *frame, res cacheEntry) error {
	cand := f.candidates[f.altIdx-1]
	if !grammar.IsEmpty(res.node) {
		f.anyMatched = true
		cleanNow := isClean(res.node)
		better := res.endPos > f.bestEnd
		tie := res.endPos == f.bestEnd
		if f.bestNode == nil || better || (tie && cleanNow && !f.bestClean) {
			f.bestNode = res.node
			f.bestEnd = res.endPos
			f.bestClean = cleanNow
			f.bestCandID = cand.ID()
		}
	}
	e.ledger.rollback(f.altCheckpoint)
	return e.anyNumberOfTryNextCandidate(f)
}

func (e *Engine) anyNumberOfIterationDone(f *frame) error {
	an := f.g.(*grammar.AnyNumberOfGrammar)
	codePos := f.gapTo
	if f.bestNode == nil {
		return e.anyNumberOfFinish(f)
	}
	if an.AllowGapsFlag {
		f.children = append(f.children, e.gapChildren(f.matchedIdx, codePos)...)
	}
	e.commitTransparentLeaves(f.bestNode)
	f.children = append(f.children, f.bestNode)
	f.matchedIdx = f.bestEnd
	f.perElementCount[f.bestCandID]++
	f.count++
	f.state = stCombining
	return e.anyNumberOfNextIteration(f)
}

func (e *Engine) anyNumberOfFinish(f *frame) error {
	an := f.g.(*grammar.AnyNumberOfGrammar)
	if f.count < an.Min {
		e.ledger.rollback(f.ledgerMark)
		e.complete(f, grammar.TheEmpty, f.start)
		return nil
	}
	if len(f.children) == 0 {
		e.complete(f, grammar.TheEmpty, f.start)
		return nil
	}
	e.complete(f, grammar.BuildSequence(f.children), f.matchedIdx)
	return nil
}
