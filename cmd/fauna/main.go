// Command fauna runs the ecosystem simulation headless and writes windowed
// telemetry, lifecycle events and snapshots.
package main

import (
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/pthm-cable/fauna/config"
	"github.com/pthm-cable/fauna/persist"
	"github.com/pthm-cable/fauna/sim"
	"github.com/pthm-cable/fauna/telemetry"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	ticks := flag.Int("ticks", 0, "Stop after N ticks (0 = unlimited)")
	dt := flag.Float64("dt", 0, "Seconds per tick (0 = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	archivePath := flag.String("archive", "", "Path to sqlite archive (empty = disabled)")
	loadPath := flag.String("load", "", "Resume from a snapshot file")
	savePath := flag.String("save", "", "Write a snapshot file on exit")
	saveEvery := flag.Int("save-every", 0, "Also snapshot every N ticks (0 = only on exit)")
	logStats := flag.Bool("log-stats", false, "Log window stats via slog")
	logPerf := flag.Bool("log-perf", false, "Log tick timing via slog")

	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	stepDT := *dt
	if stepDT <= 0 {
		stepDT = cfg.Physics.DT
	}

	var s *sim.Sim
	if *loadPath != "" {
		s, err = persist.Load(cfg, *loadPath, logger)
		if err != nil {
			slog.Error("failed to load snapshot", "path", *loadPath, "error", err)
			os.Exit(1)
		}
		slog.Info("resumed from snapshot", "path", *loadPath, "tick", s.TickCount(), "population", s.Population())
	} else {
		s = sim.New(cfg, rngSeed, logger)
	}

	output, err := telemetry.NewOutputManager(*outputDir)
	if err != nil {
		slog.Error("failed to create output", "error", err)
		os.Exit(1)
	}
	defer output.Close()
	if err := output.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config", "error", err)
	}

	var archive *telemetry.Archive
	if *archivePath != "" {
		archive, err = telemetry.OpenArchive(*archivePath)
		if err != nil {
			slog.Error("failed to open archive", "path", *archivePath, "error", err)
			os.Exit(1)
		}
		defer archive.Close()
	}

	recorder := telemetry.NewRecorder(cfg.Telemetry.HallSize)
	s.SetObserver(recorder)

	collector := telemetry.NewCollector(cfg.Telemetry.WindowSec)
	detector := telemetry.NewBookmarkDetector()
	perf := telemetry.NewPerfCollector(256)

	slog.Info("starting simulation",
		"seed", rngSeed,
		"dt", stepDT,
		"ticks", *ticks,
		"population", s.Population())

	for tickIndex := 0; *ticks == 0 || tickIndex < *ticks; tickIndex++ {
		perf.StartTick()
		perf.StartPhase(telemetry.PhaseCreatures)
		if err := s.Tick(stepDT); err != nil {
			slog.Error("tick failed", "tick", s.TickCount(), "error", err)
			break
		}

		perf.StartPhase(telemetry.PhaseTelemetry)
		if collector.ShouldFlush(s.Now()) {
			flushWindow(s, collector, detector, recorder, output, archive, *logStats, *logPerf, perf)
		}
		perf.EndTick()

		if *saveEvery > 0 && *savePath != "" && (tickIndex+1)%*saveEvery == 0 {
			if err := persist.Save(s, *savePath); err != nil {
				slog.Error("periodic snapshot failed", "error", err)
			}
		}

		if s.Population() == 0 {
			slog.Info("ecosystem extinct", "tick", s.TickCount(), "sim_time", s.Now())
			break
		}
	}

	// Final window, even if incomplete.
	flushWindow(s, collector, detector, recorder, output, archive, *logStats, *logPerf, perf)

	if err := output.WriteHallOfFame(recorder.Hall); err != nil {
		slog.Error("failed to write hall of fame", "error", err)
	}

	if *savePath != "" {
		if err := persist.Save(s, *savePath); err != nil {
			slog.Error("failed to save snapshot", "path", *savePath, "error", err)
			os.Exit(1)
		}
		slog.Info("snapshot saved", "path", *savePath, "tick", s.TickCount())
	}

	c := s.Counters()
	slog.Info("simulation finished",
		"tick", c.Tick,
		"sim_time", c.Now,
		"population", c.Population,
		"species", c.Species,
		"births", c.Births,
		"deaths", c.Deaths)
}

func flushWindow(s *sim.Sim, collector *telemetry.Collector, detector *telemetry.BookmarkDetector,
	recorder *telemetry.Recorder, output *telemetry.OutputManager, archive *telemetry.Archive,
	logStats, logPerf bool, perf *telemetry.PerfCollector) {

	ws := collector.Flush(s)
	events := recorder.DrainEvents()
	perfStats := perf.Stats()

	if err := output.WriteTelemetry(ws); err != nil {
		slog.Error("telemetry write failed", "error", err)
	}
	if err := output.WriteEvents(events); err != nil {
		slog.Error("event write failed", "error", err)
	}
	if err := output.WritePerf(perfStats, ws.WindowEndSec); err != nil {
		slog.Error("perf write failed", "error", err)
	}

	if archive != nil {
		if err := archive.PutWindow(ws); err != nil {
			slog.Error("archive write failed", "error", err)
		}
		if err := archive.PutEvents(events); err != nil {
			slog.Error("archive events failed", "error", err)
		}
	}

	for _, b := range detector.Observe(ws) {
		b.Log()
		if err := output.WriteBookmark(b); err != nil {
			slog.Error("bookmark write failed", "error", err)
		}
		if archive != nil {
			if err := archive.PutBookmark(b); err != nil {
				slog.Error("archive bookmark failed", "error", err)
			}
		}
	}

	if logStats {
		slog.Info("window",
			"sim_time", ws.WindowEndSec,
			"population", ws.Population,
			"species", ws.Species,
			"births", ws.Births,
			"deaths", ws.Deaths,
			"hunts_completed", ws.HuntsCompleted,
			"energy_mean", ws.EnergyMean)
	}
	if logPerf {
		perfStats.LogStats()
	}
}
