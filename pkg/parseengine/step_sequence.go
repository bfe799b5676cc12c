package parseengine

import "github.com/gitrdm/sqlgrammar/pkg/grammar"

// stepSequence matches a Sequence's elements in order, skipping allowed
// gaps between them and handling Strict/Greedy/GreedyOnceStarted failure
// differently: Strict collapses the whole attempt to Empty, while the two
// greedy modes (once started) wrap whatever could not be matched as a
// trailing Unparsable instead of failing outright.
func (e *Engine) stepSequence(f *frame) error {
	switch f.state {
	case stInitial:
		seq := f.g.(*grammar.SequenceGrammar)
		if !f.maxIdxSet {
			f.maxIdx = e.calculateMaxIdx(f.start, f.parentMaxIdx, f.mode, false, f.terminators, seq.Elements)
			f.maxIdxSet = true
		}
		if e.tryCacheHit(f) {
			return nil
		}
		f.ledgerMark = e.ledger.checkpoint()
		f.matchedIdx = f.start
		f.elemIdx = 0
		f.state = stCombining
		return e.sequenceAdvance(f)
	case stWaitingForChild:
		res, ok := e.results[f.pendingChildID]
		if !ok {
			return &InvariantViolationError{Detail: "Sequence child frame missing from results"}
		}
		delete(e.results, f.pendingChildID)
		return e.sequenceHandleChildResult(f, res)
	case stCombining:
		return e.sequenceAdvance(f)
	}
	return nil
}

func isZeroWidth(g grammar.Grammar) bool {
	switch g.Kind() {
	case grammar.KindMeta, grammar.KindNothing, grammar.KindEmpty, grammar.KindMissing:
		return true
	default:
		return false
	}
}

func (e *Engine) sequenceAdvance(f *frame) error {
	seq := f.g.(*grammar.SequenceGrammar)
	if f.elemIdx >= len(seq.Elements) {
		return e.sequenceFinish(f)
	}
	el := seq.Elements[f.elemIdx]
	gapFrom := f.matchedIdx
	codePos := gapFrom
	if seq.AllowGapsFlag {
		codePos = e.view.NextCodeIndex(gapFrom)
	}
	if codePos > f.maxIdx {
		codePos = f.maxIdx
	}
	if !seq.AllowGapsFlag && gapFrom < f.maxIdx && !e.view.IsCode(gapFrom) {
		if grammar.Optional(el) {
			f.elemIdx++
			return e.sequenceAdvance(f)
		}
		return e.sequenceFail(f, el)
	}
	if isZeroWidth(el) {
		if mg, ok := el.(*grammar.MetaGrammar); ok && mg.IsDedent() {
			// A dedent must land after any whitespace/newlines already
			// pending between the previous element and here, not before
			// them. Claim that gap now instead of leaving it for the
			// next element (or the end-of-sequence sweep) to attach
			// after the marker.
			gapEnd := gapFrom
			if seq.AllowGapsFlag {
				gapEnd = e.view.NextCodeIndex(gapFrom)
			}
			if gapEnd > f.maxIdx {
				gapEnd = f.maxIdx
			}
			if gapEnd > gapFrom {
				f.children = append(f.children, e.gapChildren(gapFrom, gapEnd)...)
				f.matchedIdx = gapEnd
				gapFrom = gapEnd
			}
		}
		e.spawnChildFrame(f, el, gapFrom)
		return nil
	}
	if seq.AllowGapsFlag {
		f.children = append(f.children, e.gapChildren(gapFrom, codePos)...)
	}
	f.matchedIdx = codePos
	if codePos >= f.maxIdx {
		if grammar.Optional(el) {
			f.elemIdx++
			return e.sequenceAdvance(f)
		}
		return e.sequenceFail(f, el)
	}
	e.spawnChildFrame(f, el, codePos)
	return nil
}

func (e *Engine) sequenceHandleChildResult(f *frame, res cacheEntry) error {
	seq := f.g.(*grammar.SequenceGrammar)
	el := seq.Elements[f.elemIdx]
	if grammar.IsEmpty(res.node) {
		if !grammar.Optional(el) {
			return e.sequenceFail(f, el)
		}
		f.elemIdx++
		f.state = stCombining
		return e.sequenceAdvance(f)
	}
	justStarted := f.mode == grammar.GreedyOnceStarted && !f.greedyStarted
	f.greedyStarted = true
	f.children = append(f.children, res.node)
	f.matchedIdx = res.endPos
	f.elemIdx++
	if justStarted {
		f.maxIdx = e.calculateMaxIdx(f.matchedIdx, f.parentMaxIdx, f.mode, true, f.terminators, seq.Elements[f.elemIdx:])
	}
	f.state = stCombining
	return e.sequenceAdvance(f)
}

func (e *Engine) sequenceFail(f *frame, failingEl grammar.Grammar) error {
	switch f.mode {
	case grammar.GreedyOnceStarted:
		if !f.greedyStarted {
			e.ledger.rollback(f.ledgerMark)
			e.complete(f, grammar.TheEmpty, f.start)
			return nil
		}
		return e.sequenceWrapUnparsable(f, failingEl)
	case grammar.Greedy:
		return e.sequenceWrapUnparsable(f, failingEl)
	default: // Strict
		e.ledger.rollback(f.ledgerMark)
		e.complete(f, grammar.TheEmpty, f.start)
		return nil
	}
}

func (e *Engine) sequenceWrapUnparsable(f *frame, failingEl grammar.Grammar) error {
	expected := grammar.DescribeExpected(failingEl)
	span := e.rawSpanChildren(f.matchedIdx, f.maxIdx)
	for i := f.matchedIdx; i < f.maxIdx; i++ {
		if !e.view.IsCode(i) {
			e.ledger.attribute(i)
		}
	}
	if len(span) > 0 {
		f.children = append(f.children, grammar.BuildUnparsable(expected, span))
	}
	f.matchedIdx = f.maxIdx
	return e.sequenceFinish(f)
}

// sequenceFinish completes the frame. In a greedy mode, once started, any
// span left over between the last matched element and the window's
// terminator-trimmed ceiling is swept up as trailing Unparsable rather
// than silently dropped.
func (e *Engine) sequenceFinish(f *frame) error {
	if (f.mode == grammar.Greedy || (f.mode == grammar.GreedyOnceStarted && f.greedyStarted)) && f.matchedIdx < f.maxIdx {
		trimmed := e.trimToTerminator(f.matchedIdx, f.maxIdx, f.terminators, nil)
		span := e.rawSpanChildren(f.matchedIdx, trimmed)
		for i := f.matchedIdx; i < trimmed; i++ {
			if !e.view.IsCode(i) {
				e.ledger.attribute(i)
			}
		}
		if len(span) > 0 {
			f.children = append(f.children, grammar.BuildUnparsable("end of sequence", span))
			f.matchedIdx = trimmed
		}
	}
	if len(f.children) == 0 {
		e.complete(f, grammar.TheEmpty, f.start)
		return nil
	}
	e.complete(f, grammar.BuildSequence(f.children), f.matchedIdx)
	return nil
}
