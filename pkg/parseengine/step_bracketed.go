package parseengine

import "github.com/gitrdm/sqlgrammar/pkg/grammar"

// stepBracketed runs a three-phase match: confirm the opener and look up
// its pre-computed matching closer, match Elements inside that span one
// at a time, then assemble the final node spanning opener through closer.
// Content never sees tokens past the closer: its window ceiling is the
// closer's index, not the frame's own maxIdx. In Strict mode, content that
// fails a required element or stops short of the closer makes the whole
// match Empty; the other modes wrap that span as Unparsable instead.
func (e *Engine) stepBracketed(f *frame) error {
	br := f.g.(*grammar.BracketedGrammar)
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
		tok := e.currentToken(f.start)
		if tok == nil || f.start >= f.maxIdx || tok.Type() != br.Pair.Open {
			e.ledger.rollback(f.ledgerMark)
			e.complete(f, grammar.TheEmpty, f.start)
			return nil
		}
		closerIdx, ok := e.view.MatchingClose(f.start)
		if !ok {
			e.ledger.rollback(f.ledgerMark)
			e.complete(f, grammar.TheEmpty, f.start)
			return nil
		}
		f.openerIdx = f.start
		f.closerIdx = closerIdx
		f.matchedIdx = f.start + 1
		f.elemIdx = 0
		f.state = stCombining
		return e.bracketedMatchContent(f)
	case stWaitingForChild:
		res, ok := e.results[f.pendingChildID]
		if !ok {
			return &InvariantViolationError{Detail: "Bracketed child frame missing from results"}
		}
		delete(e.results, f.pendingChildID)
		return e.bracketedHandleContentResult(f, res)
	case stCombining:
		return e.bracketedMatchContent(f)
	}
	return nil
}

func (e *Engine) bracketedMatchContent(f *frame) error {
	br := f.g.(*grammar.BracketedGrammar)
	if f.elemIdx >= len(br.Elements) {
		return e.bracketedFinish(f)
	}
	el := br.Elements[f.elemIdx]
	gapFrom := f.matchedIdx
	codePos := gapFrom
	if br.AllowGapsFlag {
		codePos = e.view.NextCodeIndex(gapFrom)
	}
	if codePos > f.closerIdx {
		codePos = f.closerIdx
	}
	if isZeroWidth(el) {
		e.spawnChildFrameCeil(f, el, gapFrom, f.closerIdx)
		return nil
	}
	if codePos >= f.closerIdx {
		if grammar.Optional(el) {
			f.elemIdx++
			return e.bracketedMatchContent(f)
		}
		return e.bracketedWrapUnparsable(f, el)
	}
	if br.AllowGapsFlag {
		f.children = append(f.children, e.gapChildren(gapFrom, codePos)...)
	}
	f.matchedIdx = codePos
	e.spawnChildFrameCeil(f, el, codePos, f.closerIdx)
	return nil
}

func (e *Engine) bracketedHandleContentResult(f *frame, res cacheEntry) error {
	br := f.g.(*grammar.BracketedGrammar)
	el := br.Elements[f.elemIdx]
	if grammar.IsEmpty(res.node) {
		if !grammar.Optional(el) {
			return e.bracketedWrapUnparsable(f, el)
		}
		f.elemIdx++
		f.state = stCombining
		return e.bracketedMatchContent(f)
	}
	f.children = append(f.children, res.node)
	f.matchedIdx = res.endPos
	f.elemIdx++
	f.state = stCombining
	return e.bracketedMatchContent(f)
}

func (e *Engine) bracketedWrapUnparsable(f *frame, el grammar.Grammar) error {
	if f.mode == grammar.Strict {
		e.ledger.rollback(f.ledgerMark)
		e.complete(f, grammar.TheEmpty, f.start)
		return nil
	}
	expected := grammar.DescribeExpected(el)
	span := e.rawSpanChildren(f.matchedIdx, f.closerIdx)
	for i := f.matchedIdx; i < f.closerIdx; i++ {
		if !e.view.IsCode(i) {
			e.ledger.attribute(i)
		}
	}
	if len(span) > 0 {
		f.children = append(f.children, grammar.BuildUnparsable(expected, span))
	}
	f.matchedIdx = f.closerIdx
	return e.bracketedFinish(f)
}

func (e *Engine) bracketedFinish(f *frame) error {
	if f.matchedIdx < f.closerIdx {
		if f.mode == grammar.Strict {
			e.ledger.rollback(f.ledgerMark)
			e.complete(f, grammar.TheEmpty, f.start)
			return nil
		}
		span := e.rawSpanChildren(f.matchedIdx, f.closerIdx)
		for i := f.matchedIdx; i < f.closerIdx; i++ {
			if !e.view.IsCode(i) {
				e.ledger.attribute(i)
			}
		}
		if len(span) > 0 {
			f.children = append(f.children, grammar.BuildUnparsable("closing bracket", span))
		}
	}
	full := make([]grammar.Node, 0, len(f.children)+2)
	full = append(full, e.tokenNode(f.openerIdx))
	full = append(full, f.children...)
	full = append(full, e.tokenNode(f.closerIdx))
	node := grammar.BuildBracketed(e.view.At(f.openerIdx).Raw(), full)
	e.complete(f, node, f.closerIdx+1)
	return nil
}
