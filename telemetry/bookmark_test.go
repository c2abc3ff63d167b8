package telemetry

import "testing"

func TestFirstPackHuntBookmark(t *testing.T) {
	d := NewBookmarkDetector()

	out := d.Observe(WindowStats{WindowEndSec: 10})
	if len(out) != 0 {
		t.Fatalf("no hunts yet, got %d bookmarks", len(out))
	}

	out = d.Observe(WindowStats{WindowEndSec: 20, HuntsCompleted: 1})
	if !hasBookmark(out, BookmarkFirstPackHunt) {
		t.Fatal("expected first pack hunt bookmark")
	}

	out = d.Observe(WindowStats{WindowEndSec: 30, HuntsCompleted: 2})
	if hasBookmark(out, BookmarkFirstPackHunt) {
		t.Fatal("first pack hunt should fire only once")
	}
}

func TestPredatorRecoveryBookmark(t *testing.T) {
	d := NewBookmarkDetector()

	d.Observe(WindowStats{WindowEndSec: 10, Predators: 5})
	d.Observe(WindowStats{WindowEndSec: 20, Predators: 0})
	out := d.Observe(WindowStats{WindowEndSec: 30, Predators: 1})
	if hasBookmark(out, BookmarkPredatorRecovery) {
		t.Fatal("one predator is not a recovery")
	}
	out = d.Observe(WindowStats{WindowEndSec: 40, Predators: 4})
	if !hasBookmark(out, BookmarkPredatorRecovery) {
		t.Fatal("expected predator recovery bookmark")
	}
}

func TestHerbivoreCrashBookmark(t *testing.T) {
	d := NewBookmarkDetector()

	d.Observe(WindowStats{WindowEndSec: 10, Herbivores: 40})
	out := d.Observe(WindowStats{WindowEndSec: 20, Herbivores: 5})
	if !hasBookmark(out, BookmarkHerbivoreCrash) {
		t.Fatal("expected herbivore crash bookmark")
	}
}

func TestStableEcosystemBookmark(t *testing.T) {
	d := NewBookmarkDetector()

	calm := WindowStats{Population: 50, Births: 4, Deaths: 5}
	var fired bool
	for i := 0; i < stableWindowRun; i++ {
		calm.WindowEndSec = float64(10 * (i + 1))
		if hasBookmark(d.Observe(calm), BookmarkStableEcosystem) {
			fired = true
		}
	}
	if !fired {
		t.Fatalf("expected stability after %d calm windows", stableWindowRun)
	}

	calm.WindowEndSec += 10
	if hasBookmark(d.Observe(calm), BookmarkStableEcosystem) {
		t.Fatal("stability should not refire while the run continues")
	}
}

func hasBookmark(bs []Bookmark, bt BookmarkType) bool {
	for _, b := range bs {
		if b.Type == bt {
			return true
		}
	}
	return false
}
