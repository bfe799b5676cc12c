package parseengine

import "testing"

func TestLedgerRollbackUndoesAttributionsSinceMark(t *testing.T) {
	l := newTransparentLedger()
	l.attribute(1)
	mark := l.checkpoint()
	l.attribute(2)
	l.attribute(3)
	l.rollback(mark)

	if !l.isAttributed(1) {
		t.Error("attribution before the checkpoint should survive rollback")
	}
	if l.isAttributed(2) || l.isAttributed(3) {
		t.Error("attributions after the checkpoint should be undone")
	}
}

func TestLedgerAttributeIsIdempotent(t *testing.T) {
	l := newTransparentLedger()
	l.attribute(5)
	mark := l.checkpoint()
	l.attribute(5)
	if mark != l.checkpoint() {
		t.Error("re-attributing an already-committed index should not grow the trail")
	}
}

func TestLedgerNestedCheckpointsRollbackIndependently(t *testing.T) {
	l := newTransparentLedger()
	outer := l.checkpoint()
	l.attribute(1)
	inner := l.checkpoint()
	l.attribute(2)
	l.rollback(inner)
	if !l.isAttributed(1) {
		t.Error("outer attribution should survive an inner rollback")
	}
	if l.isAttributed(2) {
		t.Error("inner attribution should be undone")
	}
	l.rollback(outer)
	if l.isAttributed(1) {
		t.Error("outer rollback should undo everything since the outer mark")
	}
}
