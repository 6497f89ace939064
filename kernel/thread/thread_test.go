package thread

import "testing"

func TestTableAssignsMonotonicPIDs(t *testing.T) {
	tb := NewTable()
	a := tb.New(0, "first", 100)
	b := tb.New(a.PID, "second", 100)

	if a.PID != 1 {
		t.Errorf("first thread PID = %d; want 1", a.PID)
	}
	if b.PID <= a.PID {
		t.Errorf("second thread PID = %d; want > %d", b.PID, a.PID)
	}
	if b.PPID != a.PID {
		t.Errorf("second thread PPID = %d; want %d", b.PPID, a.PID)
	}
}

func TestTableLookupAndRemove(t *testing.T) {
	tb := NewTable()
	th := tb.New(0, "only", 100)

	if _, ok := tb.Lookup(th.PID); !ok {
		t.Fatalf("expected to find thread %d", th.PID)
	}
	tb.Remove(th.PID)
	if _, ok := tb.Lookup(th.PID); ok {
		t.Errorf("thread %d should have been removed", th.PID)
	}
}

func TestOrphanChildrenClearsBackLinkOnAllLiveChildren(t *testing.T) {
	tb := NewTable()
	parent := tb.New(0, "parent", 100)
	c1 := tb.New(parent.PID, "child1", 100)
	c2 := tb.New(parent.PID, "child2", 100)
	c3 := tb.New(parent.PID, "child3", 100)

	parent.AddChild(c1.PID)
	parent.AddChild(c2.PID)
	link3 := parent.AddChild(c3.PID)
	link3.Alive = false
	link3.ExitStatus = 7

	parent.OrphanChildren(tb)

	if c1.PPID != 0 || c2.PPID != 0 {
		t.Errorf("live children should be orphaned: c1.PPID=%d c2.PPID=%d", c1.PPID, c2.PPID)
	}
	if c3.PPID != parent.PID {
		t.Errorf("already-dead child link should not touch the (already exited) child's PPID")
	}
}

func TestEachVisitsEveryThread(t *testing.T) {
	tb := NewTable()
	tb.New(0, "a", 100)
	tb.New(0, "b", 100)
	tb.New(0, "c", 100)

	seen := 0
	tb.Each(func(*Thread) { seen++ })
	if seen != 3 {
		t.Errorf("Each visited %d threads; want 3", seen)
	}
}
