package systems

import (
	"math"
	"math/rand"
	"testing"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/fauna/components"
	"github.com/pthm-cable/fauna/config"
	"github.com/pthm-cable/fauna/genome"
	"github.com/pthm-cable/fauna/neural"
	"github.com/pthm-cable/fauna/traits"
)

func testSensoryConfig() *config.SensoryConfig {
	return &config.SensoryConfig{
		TopKPerSense:     3,
		MaxPercepts:      32,
		HearingRange:     60,
		SmellRange:       40,
		TouchRange:       2,
		MotionBonus:      0.3,
		CamouflagePower:  0.8,
		HearingReference: 10,
	}
}

func testPhenotype() *genome.Phenotype {
	return &genome.Phenotype{
		Size:        1,
		Speed:       10,
		VisionRange: 40,
		Sensory: genome.SensoryTraits{
			VisionFOV:          float32(1.5 * math.Pi),
			HearingSensitivity: 0.8,
			HearingDirection:   0.8,
			SmellSensitivity:   0.8,
			TouchSensitivity:   0.5,
		},
	}
}

func testSelf(id uint32, ctype traits.Type, pos components.Vec3) *SelfState {
	return &SelfState{
		ID:        id,
		Type:      ctype,
		SpeciesID: 1,
		Position:  pos,
		Facing:    0, // looking along +x
		Energy:    80,
		MaxEnergy: 100,
		Age:       10,
		Lifespan:  100,
		Phenotype: testPhenotype(),
		Memory:    &components.MemoryBuffer{},
	}
}

func clearClimate() Climate {
	return Climate{Visibility: 1, AmbientLight: 1, WindDir: components.Vec3{X: 1}}
}

// TestVisionDetectsPredatorAhead verifies a predator in front of a grazer
// produces a predator percept and a danger memory.
func TestVisionDetectsPredatorAhead(t *testing.T) {
	idx := NewSpatialIndex(1000, 64)
	self := testSelf(1, traits.Grazer, vec(0, 0))
	predPos := vec(10, 0)
	idx.Insert(ecs.Entity{}, 2, traits.ApexPredator, predPos)

	lookup := func(id uint32) (TargetInfo, bool) {
		return TargetInfo{Position: predPos, Velocity: components.Vec3{X: 3}, SpeciesID: 9, Size: 2}, true
	}

	sensor := NewSensor(testSensoryConfig())
	percepts := sensor.Sense(self, idx, lookup, nil, nil, clearClimate(), nil, 0, rand.New(rand.NewSource(1)))

	found := false
	for _, p := range percepts {
		if p.Kind == PerceptPredator && p.SourceID == 2 {
			found = true
			if math.Abs(float64(p.RelativeAngle)) > 0.01 {
				t.Errorf("predator dead ahead has relative angle %f", p.RelativeAngle)
			}
		}
	}
	if !found {
		t.Fatal("predator ahead was not perceived")
	}
	if self.Memory.Strongest(components.MemoryDanger) == nil {
		t.Error("predator percept did not write a danger memory")
	}
}

// TestVisionRespectsFOV verifies creatures behind the observer are invisible.
func TestVisionRespectsFOV(t *testing.T) {
	idx := NewSpatialIndex(1000, 64)
	self := testSelf(1, traits.Grazer, vec(0, 0))
	self.Phenotype.Sensory.VisionFOV = float32(math.Pi / 2) // narrow cone ahead
	behind := vec(-10, 0)
	idx.Insert(ecs.Entity{}, 2, traits.ApexPredator, behind)

	lookup := func(id uint32) (TargetInfo, bool) {
		return TargetInfo{Position: behind, SpeciesID: 9, Size: 2}, true
	}

	sensor := NewSensor(testSensoryConfig())
	percepts := sensor.Sense(self, idx, lookup, nil, nil, clearClimate(), nil, 0, rand.New(rand.NewSource(1)))

	for _, p := range percepts {
		if p.Sense == SenseVision && p.SourceID == 2 {
			t.Error("creature behind the observer was seen")
		}
	}
}

// TestVisionDarknessSuppressesDetection verifies zero ambient light and
// visibility block vision entirely.
func TestVisionDarknessSuppressesDetection(t *testing.T) {
	idx := NewSpatialIndex(1000, 64)
	self := testSelf(1, traits.Grazer, vec(0, 0))
	pos := vec(10, 0)
	idx.Insert(ecs.Entity{}, 2, traits.ApexPredator, pos)

	lookup := func(id uint32) (TargetInfo, bool) {
		return TargetInfo{Position: pos, SpeciesID: 9, Size: 2}, true
	}

	dark := Climate{Visibility: 0, AmbientLight: 0}
	sensor := NewSensor(testSensoryConfig())
	percepts := sensor.Sense(self, idx, lookup, nil, nil, dark, nil, 0, rand.New(rand.NewSource(1)))

	for _, p := range percepts {
		if p.Sense == SenseVision {
			t.Errorf("saw %v in total darkness", p.Kind)
		}
	}
}

// TestHearingAttenuatesWithDistance verifies far sounds are quieter and out
// of range sounds are dropped.
func TestHearingAttenuatesWithDistance(t *testing.T) {
	bus := NewSoundBus(5)
	bus.Emit(vec(10, 0), SoundAlarm, 1, 0.5, 99)
	bus.Emit(vec(50, 0), SoundAlarm, 1, 0.5, 98)
	bus.Emit(vec(500, 0), SoundAlarm, 1, 0.5, 97)

	idx := NewSpatialIndex(1000, 64)
	self := testSelf(1, traits.Grazer, vec(0, 0))
	sensor := NewSensor(testSensoryConfig())
	percepts := sensor.Sense(self, idx, func(uint32) (TargetInfo, bool) { return TargetInfo{}, false },
		bus, nil, clearClimate(), nil, 0, rand.New(rand.NewSource(1)))

	var near, far *Percept
	for i := range percepts {
		p := &percepts[i]
		if p.Sense != SenseHearing {
			continue
		}
		switch p.SourceID {
		case 99:
			near = p
		case 98:
			far = p
		case 97:
			t.Error("heard a sound far outside hearing range")
		}
	}
	if near == nil || far == nil {
		t.Fatal("expected both in-range sounds to be heard")
	}
	if near.SignalStrength <= far.SignalStrength {
		t.Errorf("near loudness %f <= far loudness %f", near.SignalStrength, far.SignalStrength)
	}
	if near.Kind != PerceptDanger {
		t.Errorf("alarm sound classified as %v, want danger", near.Kind)
	}
}

// TestHearingWithoutBusIsEmpty verifies the nil-bus failure semantics.
func TestHearingWithoutBusIsEmpty(t *testing.T) {
	idx := NewSpatialIndex(1000, 64)
	self := testSelf(1, traits.Grazer, vec(0, 0))
	sensor := NewSensor(testSensoryConfig())
	percepts := sensor.Sense(self, idx, func(uint32) (TargetInfo, bool) { return TargetInfo{}, false },
		nil, nil, clearClimate(), nil, 0, rand.New(rand.NewSource(1)))

	for _, p := range percepts {
		if p.Sense == SenseHearing {
			t.Error("hearing percept produced without a sound bus")
		}
	}
}

// TestSmellDisplacedByWind verifies the perceived scent source drifts
// downwind of the deposited cell.
func TestSmellDisplacedByWind(t *testing.T) {
	field := NewPheromoneField(1000, 31.25, 0.1, 0.05)
	field.Deposit(vec(10, 0), PheromoneFood, 1)

	idx := NewSpatialIndex(1000, 64)
	self := testSelf(1, traits.Grazer, vec(0, 0))
	wind := Climate{Visibility: 1, AmbientLight: 1, WindDir: components.Vec3{Z: 1}, WindSpeed: 5}

	sensor := NewSensor(testSensoryConfig())
	percepts := sensor.Sense(self, idx, func(uint32) (TargetInfo, bool) { return TargetInfo{}, false },
		nil, field, wind, nil, 0, rand.New(rand.NewSource(1)))

	found := false
	for _, p := range percepts {
		if p.Sense == SenseSmell && p.Kind == PerceptFood {
			found = true
			if p.Position.Z <= 0 {
				t.Errorf("scent position Z = %f, want displaced downwind (> 0)", p.Position.Z)
			}
		}
	}
	if !found {
		t.Fatal("deposited food pheromone was not smelled")
	}
}

// TestNeuralInputLayout verifies the self prefix and slot projection of the
// input vector.
func TestNeuralInputLayout(t *testing.T) {
	idx := NewSpatialIndex(1000, 64)
	self := testSelf(1, traits.Grazer, vec(0, 0))
	self.Fear = 0.4
	pos := vec(10, 0)
	idx.Insert(ecs.Entity{}, 2, traits.ApexPredator, pos)

	lookup := func(id uint32) (TargetInfo, bool) {
		return TargetInfo{Position: pos, SpeciesID: 9, Size: 2}, true
	}

	sensor := NewSensor(testSensoryConfig())
	sensor.Sense(self, idx, lookup, nil, nil, clearClimate(), nil, 0, rand.New(rand.NewSource(1)))
	in := sensor.NeuralInputs()

	if len(in) != neural.BrainInputs {
		t.Fatalf("input width = %d, want %d", len(in), neural.BrainInputs)
	}
	if math.Abs(float64(in[neural.InEnergy]-0.8)) > 1e-4 {
		t.Errorf("energy input = %f, want 0.8", in[neural.InEnergy])
	}
	if math.Abs(float64(in[neural.InFear]-0.4)) > 1e-4 {
		t.Errorf("fear input = %f, want 0.4", in[neural.InFear])
	}

	// The predator percept should land in the first vision slot with a
	// negative kind signal.
	base := neural.SenseSlot(int(SenseVision), 0)
	if in[base] <= 0 {
		t.Errorf("vision slot proximity = %f, want > 0", in[base])
	}
	if in[base+2] >= 0 {
		t.Errorf("vision slot kind signal = %f, want < 0 for predator", in[base+2])
	}
}

// TestPerceptCapDropsAndCounts verifies the hard percept cap increments the
// drop counter instead of growing the list.
func TestPerceptCapDropsAndCounts(t *testing.T) {
	cfg := testSensoryConfig()
	cfg.MaxPercepts = 4

	idx := NewSpatialIndex(1000, 64)
	positions := make(map[uint32]components.Vec3)
	for i := uint32(2); i <= 20; i++ {
		p := vec(float32(i), 0)
		positions[i] = p
		idx.Insert(ecs.Entity{}, i, traits.Grazer, p)
	}
	lookup := func(id uint32) (TargetInfo, bool) {
		return TargetInfo{Position: positions[id], SpeciesID: 1, Size: 1}, true
	}

	self := testSelf(1, traits.Grazer, vec(0, 0))
	sensor := NewSensor(cfg)
	percepts := sensor.Sense(self, idx, lookup, nil, nil, clearClimate(), nil, 0, rand.New(rand.NewSource(3)))

	if len(percepts) > 4 {
		t.Errorf("percept list length %d exceeds cap 4", len(percepts))
	}
	if sensor.DroppedCount() == 0 {
		t.Error("dropped counter not incremented")
	}
}

// TestSoundBusTTL verifies events expire after their TTL.
func TestSoundBusTTL(t *testing.T) {
	bus := NewSoundBus(2)
	bus.Emit(vec(0, 0), SoundCall, 1, 0.5, 1)
	bus.Update(1)
	if len(bus.Events()) != 1 {
		t.Fatalf("events after 1s = %d, want 1", len(bus.Events()))
	}
	bus.Update(1.5)
	if len(bus.Events()) != 0 {
		t.Errorf("events after 2.5s = %d, want 0", len(bus.Events()))
	}
}

// TestPheromoneEvaporationAndDiffusion verifies concentration decays in
// place and spreads to neighbor cells.
func TestPheromoneEvaporationAndDiffusion(t *testing.T) {
	field := NewPheromoneField(1000, 40, 0.2, 0.1)
	origin := vec(0, 0)
	field.Deposit(origin, PheromoneDanger, 1)

	before := field.Concentration(origin, PheromoneDanger)
	field.Update(1)
	after := field.Concentration(origin, PheromoneDanger)

	if after >= before {
		t.Errorf("concentration %f did not decay from %f", after, before)
	}
	neighbor := vec(40, 0)
	if field.Concentration(neighbor, PheromoneDanger) <= 0 {
		t.Error("no diffusion into neighbor cell")
	}
}

// TestPheromoneStaysBounded verifies deposits saturate at 1.
func TestPheromoneStaysBounded(t *testing.T) {
	field := NewPheromoneField(1000, 40, 0.1, 0.05)
	for i := 0; i < 10; i++ {
		field.Deposit(vec(0, 0), PheromoneTrail, 0.5)
	}
	if c := field.Concentration(vec(0, 0), PheromoneTrail); c > 1 {
		t.Errorf("concentration %f exceeds 1", c)
	}
}
