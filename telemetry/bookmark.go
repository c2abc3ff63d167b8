package telemetry

import (
	"fmt"
	"log/slog"
)

// BookmarkType identifies an automatically detected ecosystem milestone.
type BookmarkType string

const (
	BookmarkFirstPackHunt    BookmarkType = "first_pack_hunt"
	BookmarkPredatorRecovery BookmarkType = "predator_recovery"
	BookmarkHerbivoreCrash   BookmarkType = "herbivore_crash"
	BookmarkMassMigration    BookmarkType = "mass_migration"
	BookmarkStableEcosystem  BookmarkType = "stable_ecosystem"
)

// Bookmark marks a moment in the run worth revisiting.
type Bookmark struct {
	Type        BookmarkType `csv:"type"`
	SimTimeSec  float64      `csv:"sim_time"`
	Description string       `csv:"description"`
}

// Log writes the bookmark to the structured log.
func (b Bookmark) Log() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"sim_time", b.SimTimeSec,
		"description", b.Description)
}

// BookmarkDetector watches window stats for milestone transitions. Each
// milestone fires at most once per qualifying episode.
type BookmarkDetector struct {
	sawPackHunt   bool
	predatorsLow  bool
	herbivorePeak int
	stableWindows int
	flaggedStable bool
	migrating     bool
}

// NewBookmarkDetector creates a detector with no history.
func NewBookmarkDetector() *BookmarkDetector {
	return &BookmarkDetector{}
}

// stableWindowRun is how many consecutive calm windows count as stability.
const stableWindowRun = 6

// Observe inspects one window and returns any bookmarks it triggered.
func (d *BookmarkDetector) Observe(ws WindowStats) []Bookmark {
	var out []Bookmark

	if !d.sawPackHunt && ws.HuntsCompleted > 0 {
		d.sawPackHunt = true
		out = append(out, Bookmark{
			Type:        BookmarkFirstPackHunt,
			SimTimeSec:  ws.WindowEndSec,
			Description: "first coordinated pack kill",
		})
	}

	if ws.Predators == 0 {
		d.predatorsLow = true
	} else if d.predatorsLow && ws.Predators >= 3 {
		d.predatorsLow = false
		out = append(out, Bookmark{
			Type:        BookmarkPredatorRecovery,
			SimTimeSec:  ws.WindowEndSec,
			Description: fmt.Sprintf("predators back to %d after local extinction", ws.Predators),
		})
	}

	if ws.Herbivores > d.herbivorePeak {
		d.herbivorePeak = ws.Herbivores
	}
	if d.herbivorePeak >= 20 && ws.Herbivores*4 < d.herbivorePeak {
		out = append(out, Bookmark{
			Type:        BookmarkHerbivoreCrash,
			SimTimeSec:  ws.WindowEndSec,
			Description: fmt.Sprintf("herbivores down to %d from peak %d", ws.Herbivores, d.herbivorePeak),
		})
		d.herbivorePeak = ws.Herbivores
	}

	if ws.ActiveMigrations >= 3 && !d.migrating {
		d.migrating = true
		out = append(out, Bookmark{
			Type:        BookmarkMassMigration,
			SimTimeSec:  ws.WindowEndSec,
			Description: fmt.Sprintf("%d herds migrating at once", ws.ActiveMigrations),
		})
	} else if ws.ActiveMigrations == 0 {
		d.migrating = false
	}

	calm := ws.Births > 0 && ws.Deaths > 0 && ws.Population >= 20 &&
		ws.Births < ws.Deaths*3 && ws.Deaths < ws.Births*3
	if calm {
		d.stableWindows++
	} else {
		d.stableWindows = 0
		d.flaggedStable = false
	}
	if d.stableWindows >= stableWindowRun && !d.flaggedStable {
		d.flaggedStable = true
		out = append(out, Bookmark{
			Type:        BookmarkStableEcosystem,
			SimTimeSec:  ws.WindowEndSec,
			Description: fmt.Sprintf("birth/death balance held for %d windows", stableWindowRun),
		})
	}

	return out
}
