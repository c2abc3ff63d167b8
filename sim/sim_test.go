package sim

import (
	"errors"
	"testing"

	"github.com/pthm-cable/fauna/components"
	"github.com/pthm-cable/fauna/config"
	"github.com/pthm-cable/fauna/genome"
	"github.com/pthm-cable/fauna/traits"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	cfg.Sim.InitialPerType = 2
	cfg.Sim.MaxPopulation = 200
	return cfg
}

func TestNewSeedsPopulation(t *testing.T) {
	s := New(testConfig(t), 42, nil)

	want := 2 * int(traits.NumTypes)
	if s.Population() != want {
		t.Fatalf("population = %d, want %d", s.Population(), want)
	}
	if s.Counters().Tick != 0 {
		t.Fatalf("fresh sim has tick %d", s.Counters().Tick)
	}
}

func TestTickRejectsNonPositiveDelta(t *testing.T) {
	s := New(testConfig(t), 42, nil)

	for _, dt := range []float64{0, -1} {
		if err := s.Tick(dt); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("Tick(%v) = %v, want ErrInvalidInput", dt, err)
		}
	}
	if got := s.Counters().InvalidInput; got != 2 {
		t.Fatalf("InvalidInput = %d, want 2", got)
	}
	if s.TickCount() != 0 {
		t.Fatalf("rejected ticks advanced the clock to %d", s.TickCount())
	}
}

func TestTickAdvancesClock(t *testing.T) {
	s := New(testConfig(t), 42, nil)

	for i := 0; i < 10; i++ {
		if err := s.Tick(0.1); err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
	}
	if s.TickCount() != 10 {
		t.Fatalf("tick count = %d, want 10", s.TickCount())
	}
	if s.Now() < 0.99 || s.Now() > 1.01 {
		t.Fatalf("clock = %v, want ~1.0", s.Now())
	}
	c := s.Counters()
	if c.Population != s.Population() {
		t.Fatalf("counter population %d != live population %d", c.Population, s.Population())
	}
}

func TestDeterministicReplay(t *testing.T) {
	run := func() []byte {
		s := New(testConfig(t), 1234, nil)
		for i := 0; i < 20; i++ {
			if err := s.Tick(0.25); err != nil {
				t.Fatalf("tick %d: %v", i, err)
			}
		}
		w := &memWriter{}
		if err := s.WriteSnapshot(w); err != nil {
			t.Fatalf("snapshot: %v", err)
		}
		return w.buf
	}

	a := run()
	b := run()
	if len(a) != len(b) {
		t.Fatalf("replay snapshots differ in length: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("replay snapshots diverge at byte %d", i)
		}
	}
}

func TestSpawnTool(t *testing.T) {
	s := New(testConfig(t), 42, nil)
	before := s.Population()

	id, err := s.Spawn(traits.Grazer, components.Vec3{X: 10, Z: 10}, nil)
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	if id == 0 {
		t.Fatal("spawn returned id 0")
	}
	if err := s.Tick(0.1); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if s.Population() != before+1 {
		t.Fatalf("population = %d, want %d", s.Population(), before+1)
	}

	if _, err := s.Spawn(traits.NumTypes, components.Vec3{}, nil); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("bad type: err = %v, want ErrInvalidInput", err)
	}
	if _, err := s.Spawn(traits.Grazer, components.Vec3{X: 1e9}, nil); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("out of bounds: err = %v, want ErrInvalidInput", err)
	}
}

func TestSpawnRespectsPopulationCap(t *testing.T) {
	cfg := testConfig(t)
	cfg.Sim.MaxPopulation = 2 * int(traits.NumTypes)
	s := New(cfg, 42, nil)

	if _, err := s.Spawn(traits.Grazer, components.Vec3{}, nil); !errors.Is(err, ErrPopulationFull) {
		t.Fatalf("err = %v, want ErrPopulationFull", err)
	}
}

func TestKillTool(t *testing.T) {
	s := New(testConfig(t), 42, nil)
	id, err := s.Spawn(traits.Grazer, components.Vec3{X: 5, Z: 5}, nil)
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	if err := s.Tick(0.1); err != nil {
		t.Fatalf("tick: %v", err)
	}
	before := s.Population()

	if err := s.Kill(id); err != nil {
		t.Fatalf("kill: %v", err)
	}
	if err := s.Tick(0.1); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if s.Population() != before-1 {
		t.Fatalf("population = %d, want %d", s.Population(), before-1)
	}
	if err := s.Kill(id); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("kill of removed creature: err = %v, want ErrInvalidInput", err)
	}
}

func TestMutateTool(t *testing.T) {
	s := New(testConfig(t), 42, nil)
	id, err := s.Spawn(traits.Browser, components.Vec3{X: 1, Z: 1}, nil)
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	if err := s.Mutate(id); err != nil {
		t.Fatalf("mutate: %v", err)
	}
	if err := s.Mutate(9999999); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("mutate unknown id: err = %v, want ErrInvalidInput", err)
	}
}

func TestLifespanTurnsOver(t *testing.T) {
	s := New(testConfig(t), 7, nil)

	// 1500 simulated seconds exceeds every type's lifespan, so every
	// founder must die along the way.
	for i := 0; i < 300; i++ {
		if err := s.Tick(5); err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
	}
	if s.Counters().Deaths == 0 {
		t.Fatal("no deaths after exceeding all lifespans")
	}
}

func TestPopulationFloorRespawns(t *testing.T) {
	cfg := testConfig(t)
	cfg.Sim.InitialPerType = 1
	cfg.Sim.MinPerType = 1
	s := New(cfg, 7, nil)

	// Run far past every lifespan; the floor must keep every type present.
	for i := 0; i < 300; i++ {
		if err := s.Tick(5); err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
		if s.Population() < int(traits.NumTypes) {
			t.Fatalf("tick %d: population %d below floor %d", i, s.Population(), traits.NumTypes)
		}
	}
	if s.Counters().Deaths == 0 {
		t.Fatal("floor test expects turnover, got no deaths")
	}
}

func TestAquaticVerticalSwimBeat(t *testing.T) {
	cfg := testConfig(t)
	s := New(cfg, 11, nil)
	sea := float32(cfg.World.SeaLevel)

	// Find open water deep enough for a swimmer to hold depth.
	half := cfg.Derived.HalfWorld
	var wx, wz float32
	found := false
	for x := -half; x <= half && !found; x += 16 {
		for z := -half; z <= half; z += 16 {
			if s.planet.HeightAt(x, z) < sea-4 {
				wx, wz = x, z
				found = true
				break
			}
		}
	}
	if !found {
		t.Fatal("no open water on this seed")
	}
	h := s.planet.HeightAt(wx, wz)
	row := traits.Get(traits.Aquatic)

	var slow genome.Phenotype
	slow.Locomotion.Buoyancy = 0.5
	slow.Locomotion.SwimFrequency = 0.5
	fast := slow
	fast.Locomotion.SwimFrequency = 3.5

	s.now = 0.1
	slowPos := components.Position{V: components.Vec3{X: wx, Y: sea, Z: wz}}
	fastPos := slowPos
	s.resolveVertical(&slowPos, row, &slow, 0.1)
	s.resolveVertical(&fastPos, row, &fast, 0.1)

	// Same buoyancy, different tail-beat frequency: different depth.
	if slowPos.V.Y == fastPos.V.Y {
		t.Fatalf("depth = %v for both frequencies, want modulation", slowPos.V.Y)
	}
	for _, y := range []float32{slowPos.V.Y, fastPos.V.Y} {
		if y < h || y > sea {
			t.Fatalf("depth %v outside water column [%v, %v]", y, h, sea)
		}
	}
}
