package parseengine

import "github.com/gitrdm/sqlgrammar/pkg/grammar"

// stepRef resolves a named grammar through the dialect registry and
// wraps its match result, annotated with the declared segment type.
// Resolution happens here, at match time, not when the Ref was
// constructed, so a dialect's grammar map may contain forward
// references.
func (e *Engine) stepRef(f *frame) error {
	r := f.g.(*grammar.RefGrammar)
	switch f.state {
	case stInitial:
		if !f.maxIdxSet {
			f.maxIdx = e.calculateMaxIdx(f.start, f.parentMaxIdx, f.mode, true, f.terminators, nil)
			f.maxIdxSet = true
		}
		if e.tryCacheHit(f) {
			return nil
		}
		target, ok := e.registry.Resolve(r.Name)
		if !ok {
			return &UnknownSegmentError{Name: r.Name, Position: f.start}
		}
		e.spawnChildFrame(f, target, f.start)
		return nil
	case stWaitingForChild:
		res, ok := e.results[f.pendingChildID]
		if !ok {
			return &InvariantViolationError{Detail: "Ref child frame missing from results"}
		}
		delete(e.results, f.pendingChildID)
		segType, _ := e.registry.SegmentType(r.Name)
		wrapped := grammar.BuildRef(r.Name, segType, res.node)
		e.complete(f, wrapped, res.endPos)
		return nil
	}
	return nil
}
