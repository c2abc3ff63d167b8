package telemetry

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Archive stores window stats and events in a sqlite database so long runs
// can be queried after the fact without re-parsing CSV output.
type Archive struct {
	db *sql.DB
}

// OpenArchive opens (or creates) the archive database at path.
func OpenArchive(path string) (*Archive, error) {
	if path == "" {
		return nil, fmt.Errorf("empty archive path")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Archive{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	// WAL is much faster for append-style workloads.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS windows (
			tick INTEGER PRIMARY KEY,
			sim_time REAL NOT NULL,
			population INTEGER NOT NULL,
			herbivores INTEGER NOT NULL,
			predators INTEGER NOT NULL,
			scavengers INTEGER NOT NULL,
			species INTEGER NOT NULL,
			births INTEGER NOT NULL,
			deaths INTEGER NOT NULL,
			territories INTEGER NOT NULL,
			social_groups INTEGER NOT NULL,
			active_hunts INTEGER NOT NULL,
			hunts_completed INTEGER NOT NULL,
			active_migrations INTEGER NOT NULL,
			care_bonds INTEGER NOT NULL,
			energy_mean REAL NOT NULL,
			energy_p50 REAL NOT NULL,
			age_mean REAL NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			type TEXT NOT NULL,
			sim_time REAL NOT NULL,
			creature_id INTEGER NOT NULL,
			species_id INTEGER NOT NULL,
			kind TEXT NOT NULL,
			detail TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_events_type ON events(type, sim_time);`,
		`CREATE TABLE IF NOT EXISTS bookmarks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			type TEXT NOT NULL,
			sim_time REAL NOT NULL,
			description TEXT NOT NULL
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// PutWindow stores one window stats row keyed by tick.
func (a *Archive) PutWindow(ws WindowStats) error {
	_, err := a.db.Exec(`INSERT OR REPLACE INTO windows
		(tick, sim_time, population, herbivores, predators, scavengers, species,
		 births, deaths, territories, social_groups, active_hunts, hunts_completed,
		 active_migrations, care_bonds, energy_mean, energy_p50, age_mean)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ws.Tick, ws.WindowEndSec, ws.Population, ws.Herbivores, ws.Predators,
		ws.Scavengers, ws.Species, ws.Births, ws.Deaths, ws.Territories,
		ws.Groups, ws.ActiveHunts, ws.HuntsCompleted, ws.ActiveMigrations,
		ws.CareBonds, ws.EnergyMean, ws.EnergyP50, ws.AgeMean)
	if err != nil {
		return fmt.Errorf("archiving window: %w", err)
	}
	return nil
}

// PutEvents stores a batch of events in one transaction.
func (a *Archive) PutEvents(events []Event) error {
	if len(events) == 0 {
		return nil
	}
	tx, err := a.db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT INTO events
		(type, sim_time, creature_id, species_id, kind, detail)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()
	for _, e := range events {
		if _, err := stmt.Exec(string(e.Type), e.SimTimeSec, e.CreatureID, e.SpeciesID, e.Kind, e.Detail); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("archiving event: %w", err)
		}
	}
	return tx.Commit()
}

// PutBookmark stores one bookmark.
func (a *Archive) PutBookmark(b Bookmark) error {
	_, err := a.db.Exec(`INSERT INTO bookmarks (type, sim_time, description) VALUES (?, ?, ?)`,
		string(b.Type), b.SimTimeSec, b.Description)
	if err != nil {
		return fmt.Errorf("archiving bookmark: %w", err)
	}
	return nil
}

// PopulationSeries returns (sim_time, population) pairs ordered by time.
func (a *Archive) PopulationSeries() ([]float64, []int, error) {
	rows, err := a.db.Query(`SELECT sim_time, population FROM windows ORDER BY tick`)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var times []float64
	var pops []int
	for rows.Next() {
		var t float64
		var p int
		if err := rows.Scan(&t, &p); err != nil {
			return nil, nil, err
		}
		times = append(times, t)
		pops = append(pops, p)
	}
	return times, pops, rows.Err()
}

// Close closes the underlying database.
func (a *Archive) Close() error {
	if a == nil || a.db == nil {
		return nil
	}
	return a.db.Close()
}
