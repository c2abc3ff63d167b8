package telemetry

import "testing"

func TestLifetimeTracker(t *testing.T) {
	tr := NewLifetimeTracker()

	tr.Born(1, 0, 3, 0, 10.0)
	tr.Born(2, 0, 3, 1, 12.0)
	tr.ChildOf(1)
	tr.ChildOf(1)
	tr.ChildOf(99) // unknown parent, ignored

	if tr.Living() != 2 {
		t.Fatalf("living = %d, want 2", tr.Living())
	}

	lt, ok := tr.Died(1, 40.0, 3, 50.0)
	if !ok {
		t.Fatal("creature 1 was registered")
	}
	if lt.Children != 2 {
		t.Errorf("children = %d, want 2", lt.Children)
	}
	if lt.Kills != 3 {
		t.Errorf("kills = %d, want 3", lt.Kills)
	}
	if lt.BornSec != 10.0 || lt.DiedSec != 50.0 {
		t.Errorf("lifespan = [%v, %v], want [10, 50]", lt.BornSec, lt.DiedSec)
	}

	if _, ok := tr.Died(1, 40.0, 3, 50.0); ok {
		t.Error("double death should return false")
	}
	if tr.Living() != 1 {
		t.Errorf("living = %d, want 1", tr.Living())
	}

	done := tr.Drain()
	if len(done) != 1 {
		t.Fatalf("drained %d records, want 1", len(done))
	}
	if len(tr.Drain()) != 0 {
		t.Error("drain should empty the buffer")
	}
}
