package parseengine

import "github.com/gitrdm/sqlgrammar/pkg/grammar"

// stepDelimited alternates matching one of Elements (the same OneOf-style
// per-slot chooser AnyNumberOf uses) with matching Delimiter, stopping
// the first time either side fails to find anything at the current
// position. A trailing delimiter with no following element is kept only
// when AllowTrailing is set; otherwise it and any gap before it are
// un-consumed so the enclosing grammar sees them untouched.
func (e *Engine) stepDelimited(f *frame) error {
	switch f.state {
	case stInitial:
		dg := f.g.(*grammar.DelimitedGrammar)
		if !f.maxIdxSet {
			f.maxIdx = e.calculateMaxIdx(f.start, f.parentMaxIdx, f.mode, true, f.terminators, dg.Elements)
			f.maxIdxSet = true
		}
		if e.tryCacheHit(f) {
			return nil
		}
		f.ledgerMark = e.ledger.checkpoint()
		f.matchedIdx = f.start
		f.delimCount = 0
		f.expectingDelimiter = false
		f.state = stCombining
		return e.delimitedNextSlot(f)
	case stWaitingForChild:
		res, ok := e.results[f.pendingChildID]
		if !ok {
			return &InvariantViolationError{Detail: "Delimited child frame missing from results"}
		}
		delete(e.results, f.pendingChildID)
		if f.phase == 2 {
			return e.delimitedHandleDelimiterResult(f, res)
		}
		return e.delimitedHandleElementResult(f, res)
	case stCombining:
		return e.delimitedNextSlot(f)
	}
	return nil
}

func (e *Engine) delimitedNextSlot(f *frame) error {
	dg := f.g.(*grammar.DelimitedGrammar)
	gapFrom := f.matchedIdx
	codePos := gapFrom
	if dg.AllowGapsFlag {
		codePos = e.view.NextCodeIndex(gapFrom)
	}
	if codePos >= f.maxIdx {
		return e.delimitedFinish(f)
	}
	f.gapTo = codePos
	tok := e.currentToken(codePos)
	f.candidates = e.pruneOptions(dg.Elements, tok)
	f.altIdx = 0
	f.bestNode = nil
	f.bestEnd = codePos
	f.bestClean = false
	f.anyMatched = false
	f.phase = 0
	return e.delimitedTryNextElement(f)
}

func (e *Engine) delimitedTryNextElement(f *frame) error {
	codePos := f.gapTo
	if f.altIdx >= len(f.candidates) {
		return e.delimitedElementDone(f)
	}
	cand := f.candidates[f.altIdx]
	f.altIdx++
	f.altCheckpoint = e.ledger.checkpoint()
	e.spawnChildFrame(f, cand, codePos)
	return nil
}

func (e *Engine) delimitedHandleElementResult(f *frame, res cacheEntry) error {
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
	return e.delimitedTryNextElement(f)
}

func (e *Engine) delimitedElementDone(f *frame) error {
	dg := f.g.(*grammar.DelimitedGrammar)
	codePos := f.gapTo
	if f.bestNode == nil {
		return e.delimitedFinish(f)
	}
	f.expectingDelimiter = false
	if dg.AllowGapsFlag {
		f.children = append(f.children, e.gapChildren(f.matchedIdx, codePos)...)
	}
	e.commitTransparentLeaves(f.bestNode)
	f.children = append(f.children, f.bestNode)
	f.matchedIdx = f.bestEnd

	gapFrom := f.matchedIdx
	delimPos := gapFrom
	if dg.AllowGapsFlag {
		delimPos = e.view.NextCodeIndex(gapFrom)
	}
	if delimPos >= f.maxIdx {
		return e.delimitedFinish(f)
	}
	f.gapTo = delimPos
	f.phase = 2
	f.state = stCombining
	e.spawnChildFrame(f, dg.Delimiter, delimPos)
	return nil
}

func (e *Engine) delimitedHandleDelimiterResult(f *frame, res cacheEntry) error {
	dg := f.g.(*grammar.DelimitedGrammar)
	delimPos := f.gapTo
	if grammar.IsEmpty(res.node) {
		return e.delimitedFinish(f)
	}
	f.trailingDelimCheckpoint = e.ledger.checkpoint()
	priorMatchedIdx := f.matchedIdx
	childCount := 0
	if dg.AllowGapsFlag {
		gaps := e.gapChildren(f.matchedIdx, delimPos)
		f.children = append(f.children, gaps...)
		childCount += len(gaps)
	}
	f.children = append(f.children, res.node)
	childCount++
	f.matchedIdx = res.endPos
	f.trailingDelimRevertIdx = priorMatchedIdx
	f.trailingDelimChildCount = childCount
	f.delimCount++
	f.expectingDelimiter = true
	f.state = stCombining
	return e.delimitedNextSlot(f)
}

func (e *Engine) delimitedFinish(f *frame) error {
	dg := f.g.(*grammar.DelimitedGrammar)
	if f.expectingDelimiter && !dg.AllowTrailing {
		e.ledger.rollback(f.trailingDelimCheckpoint)
		n := len(f.children)
		f.children = f.children[:n-f.trailingDelimChildCount]
		f.matchedIdx = f.trailingDelimRevertIdx
		f.delimCount--
		f.expectingDelimiter = false
	}
	if f.delimCount < dg.MinDelimiters {
		e.ledger.rollback(f.ledgerMark)
		e.complete(f, grammar.TheEmpty, f.start)
		return nil
	}
	if len(f.children) == 0 {
		e.complete(f, grammar.TheEmpty, f.start)
		return nil
	}
	e.complete(f, grammar.BuildDelimitedList(f.children), f.matchedIdx)
	return nil
}
