package systems

import (
	"math"
	"math/rand"
	"sort"

	"github.com/pthm-cable/fauna/components"
	"github.com/pthm-cable/fauna/config"
	"github.com/pthm-cable/fauna/genome"
	"github.com/pthm-cable/fauna/neural"
	"github.com/pthm-cable/fauna/traits"
)

// Sense identifies the modality that produced a percept. The order fixes both
// percept sorting and the neural input slot layout.
type Sense uint8

const (
	SenseVision Sense = iota
	SenseHearing
	SenseSmell
	SenseTouch
)

// PerceptKind classifies what a percept refers to.
type PerceptKind uint8

const (
	PerceptFood PerceptKind = iota
	PerceptPredator
	PerceptPrey
	PerceptConspecific
	PerceptMate
	PerceptDanger
	PerceptShelter
	PerceptPheromone
	PerceptSound
	PerceptMovement
)

// Percept is one structured detection produced by one sense about one
// observed entity.
type Percept struct {
	Kind           PerceptKind
	Position       components.Vec3
	Velocity       components.Vec3
	Distance       float32
	RelativeAngle  float32 // Bearing relative to facing, [-pi, pi]
	Confidence     float32 // [0,1]
	SignalStrength float32 // [0,1] proximity / loudness / concentration
	Sense          Sense
	SourceID       uint32 // 0 = environmental
	Timestamp      float64
}

// Climate is the sampled local climate consumed by sensing.
type Climate struct {
	Temperature   float32 // [0,1]
	Precipitation float32
	WindDir       components.Vec3 // Unit horizontal vector
	WindSpeed     float32
	Visibility    float32 // [0,1]
	AmbientLight  float32 // [0,1]
	IsUnderwater  bool
}

// FoodPoint is a visible food source handed to the sensor by the caller.
type FoodPoint struct {
	Position components.Vec3
	Yield    float32
}

// SelfState is the sensing creature's state snapshot.
type SelfState struct {
	ID        uint32
	Type      traits.Type
	SpeciesID int
	Position  components.Vec3
	Velocity  components.Vec3
	Facing    float32
	Energy    float32
	MaxEnergy float32
	Age       float32
	Lifespan  float32
	Fear      float32
	Phenotype *genome.Phenotype
	Memory    *components.MemoryBuffer
}

// TargetInfo is what vision and touch need to know about an observed
// creature.
type TargetInfo struct {
	Position   components.Vec3
	Velocity   components.Vec3
	SpeciesID  int
	Size       float32
	Camouflage float32
	EnergyFrac float32
}

// TargetLookup resolves an indexed creature id to its observable state.
type TargetLookup func(id uint32) (TargetInfo, bool)

// Sensor produces a creature's percept list and fixed-width neural input
// vector. One sensor is shared by all creatures within a tick: the percept
// list and input vector are owned by the sensor and overwritten by the next
// Sense call.
type Sensor struct {
	cfg *config.SensoryConfig

	percepts []Percept
	inputs   [neural.BrainInputs]float32
	dropped  uint64
}

// NewSensor creates a sensor with the given perception parameters.
func NewSensor(cfg *config.SensoryConfig) *Sensor {
	return &Sensor{
		cfg:      cfg,
		percepts: make([]Percept, 0, 64),
	}
}

// Sense runs all four modalities for one creature and projects the result
// into the neural input vector. sounds and pheromones may be nil: hearing
// then yields nothing and smell falls back to direct sources only. The
// returned slice is valid until the next Sense call.
func (s *Sensor) Sense(
	self *SelfState,
	index *SpatialIndex,
	lookup TargetLookup,
	sounds *SoundBus,
	pheromones *PheromoneField,
	climate Climate,
	foods []FoodPoint,
	now float64,
	rng *rand.Rand,
) []Percept {
	s.percepts = s.percepts[:0]

	s.senseVision(self, index, lookup, climate, foods, now, rng)
	s.senseHearing(self, sounds, now)
	s.senseSmell(self, pheromones, climate, now)
	s.senseTouch(self, index, lookup, now)

	sort.SliceStable(s.percepts, func(i, j int) bool {
		if s.percepts[i].Sense != s.percepts[j].Sense {
			return s.percepts[i].Sense < s.percepts[j].Sense
		}
		return s.percepts[i].Distance < s.percepts[j].Distance
	})

	if len(s.percepts) > s.cfg.MaxPercepts {
		s.dropped += uint64(len(s.percepts) - s.cfg.MaxPercepts)
		s.percepts = s.percepts[:s.cfg.MaxPercepts]
	}

	s.writeMemory(self, now)
	s.buildInputs(self)

	return s.percepts
}

// NeuralInputs returns the fixed-width input vector built by the last Sense
// call. The slice aliases sensor-owned storage.
func (s *Sensor) NeuralInputs() []float32 {
	return s.inputs[:]
}

// DroppedCount returns the cumulative number of percepts discarded by the
// per-tick cap.
func (s *Sensor) DroppedCount() uint64 { return s.dropped }

func (s *Sensor) senseVision(
	self *SelfState,
	index *SpatialIndex,
	lookup TargetLookup,
	climate Climate,
	foods []FoodPoint,
	now float64,
	rng *rand.Rand,
) {
	visionRange := self.Phenotype.VisionRange
	halfFOV := self.Phenotype.Sensory.VisionFOV / 2
	ambient := 0.2 + 0.8*climate.AmbientLight

	for _, en := range index.QueryRadius(self.Position, visionRange) {
		if en.ID == self.ID {
			continue
		}
		target, ok := lookup(en.ID)
		if !ok {
			continue
		}

		offset := target.Position.Sub(self.Position)
		dist := offset.Len2D()
		if dist < 1e-3 {
			dist = 1e-3
		}
		relAngle := components.NormalizeAngle(offset.Heading2D() - self.Facing)
		if relAngle < -halfFOV || relAngle > halfFOV {
			continue
		}

		proximity := 1 - dist/visionRange
		detect := proximity
		detect *= clamp01f(1 - target.Camouflage*float32(s.cfg.CamouflagePower))
		if target.Velocity.Len2D() > 0.5 {
			detect *= 1 + float32(s.cfg.MotionBonus)
		}
		detect *= climate.Visibility * ambient
		detect = clamp01f(detect)

		if rng.Float32() >= detect {
			continue
		}

		s.percepts = append(s.percepts, Percept{
			Kind:           s.classify(self, en.Type, &target),
			Position:       target.Position,
			Velocity:       target.Velocity,
			Distance:       dist,
			RelativeAngle:  relAngle,
			Confidence:     detect,
			SignalStrength: proximity,
			Sense:          SenseVision,
			SourceID:       en.ID,
			Timestamp:      now,
		})
	}

	// Food sources do not hide; detection is proximity gated by the FOV.
	for _, food := range foods {
		offset := food.Position.Sub(self.Position)
		dist := offset.Len2D()
		if dist > visionRange {
			continue
		}
		relAngle := components.NormalizeAngle(offset.Heading2D() - self.Facing)
		if relAngle < -halfFOV || relAngle > halfFOV {
			continue
		}
		proximity := 1 - dist/visionRange
		s.percepts = append(s.percepts, Percept{
			Kind:           PerceptFood,
			Position:       food.Position,
			Distance:       dist,
			RelativeAngle:  relAngle,
			Confidence:     clamp01f(proximity * climate.Visibility),
			SignalStrength: clamp01f(food.Yield / 100),
			Sense:          SenseVision,
			Timestamp:      now,
		})
	}
}

func (s *Sensor) senseHearing(self *SelfState, sounds *SoundBus, now float64) {
	if sounds == nil {
		return
	}
	sensitivity := self.Phenotype.Sensory.HearingSensitivity
	hearingRange := float32(s.cfg.HearingRange) * (0.5 + sensitivity)
	reference := float32(s.cfg.HearingReference)

	for i := range sounds.Events() {
		ev := &sounds.Events()[i]
		if ev.SourceID == self.ID {
			continue
		}
		offset := ev.Position.Sub(self.Position)
		dist := offset.Len2D()
		if dist > hearingRange {
			continue
		}

		// Log-law attenuation; high frequencies fall off faster.
		atten := 1 + float32(math.Log1p(float64(dist/reference)))*(1+ev.Frequency)
		loudness := ev.Intensity / atten
		if loudness*sensitivity < 0.05 {
			continue
		}

		relAngle := components.NormalizeAngle(offset.Heading2D() - self.Facing)
		s.percepts = append(s.percepts, Percept{
			Kind:           soundKindToPercept(ev.Kind),
			Position:       ev.Position,
			Distance:       dist,
			RelativeAngle:  relAngle,
			Confidence:     clamp01f(loudness * self.Phenotype.Sensory.HearingDirection),
			SignalStrength: clamp01f(loudness),
			Sense:          SenseHearing,
			SourceID:       ev.SourceID,
			Timestamp:      now,
		})
	}
}

// smellDriftSeconds controls how far the wind displaces a perceived scent
// source from its true cell.
const smellDriftSeconds = 2.0

func (s *Sensor) senseSmell(self *SelfState, pheromones *PheromoneField, climate Climate, now float64) {
	if pheromones == nil {
		return
	}
	sensitivity := self.Phenotype.Sensory.SmellSensitivity
	if sensitivity < 0.05 {
		return
	}
	smellRange := float32(s.cfg.SmellRange) * (0.5 + sensitivity)
	drift := climate.WindDir.Scale(climate.WindSpeed * smellDriftSeconds)

	for kind := PheromoneKind(0); kind < NumPheromoneKinds; kind++ {
		src, concentration, ok := pheromones.StrongestNear(self.Position, smellRange, kind)
		if !ok || concentration*sensitivity < 0.02 {
			continue
		}
		// Scents arrive downwind of their true origin.
		perceived := src.Add(drift)
		offset := perceived.Sub(self.Position)
		dist := offset.Len2D()

		s.percepts = append(s.percepts, Percept{
			Kind:           pheromoneKindToPercept(kind),
			Position:       perceived,
			Distance:       dist,
			RelativeAngle:  components.NormalizeAngle(offset.Heading2D() - self.Facing),
			Confidence:     clamp01f(concentration * sensitivity),
			SignalStrength: concentration,
			Sense:          SenseSmell,
			Timestamp:      now,
		})
	}
}

func (s *Sensor) senseTouch(self *SelfState, index *SpatialIndex, lookup TargetLookup, now float64) {
	touchRange := float32(s.cfg.TouchRange) * (0.5 + self.Phenotype.Sensory.TouchSensitivity)

	for _, en := range index.QueryRadius(self.Position, touchRange) {
		if en.ID == self.ID {
			continue
		}
		target, ok := lookup(en.ID)
		if !ok {
			continue
		}
		offset := target.Position.Sub(self.Position)
		dist := offset.Len2D()

		s.percepts = append(s.percepts, Percept{
			Kind:           s.classify(self, en.Type, &target),
			Position:       target.Position,
			Velocity:       target.Velocity,
			Distance:       dist,
			RelativeAngle:  components.NormalizeAngle(offset.Heading2D() - self.Facing),
			Confidence:     1,
			SignalStrength: 1,
			Sense:          SenseTouch,
			SourceID:       en.ID,
			Timestamp:      now,
		})
	}
}

// classify maps an observed creature to a percept kind from the observer's
// point of view.
func (s *Sensor) classify(self *SelfState, targetType traits.Type, target *TargetInfo) PerceptKind {
	if traits.CanBeHuntedBy(self.Type, targetType, self.Phenotype.Size) {
		return PerceptPredator
	}
	if traits.CanBeHuntedBy(targetType, self.Type, target.Size) {
		return PerceptPrey
	}
	if targetType == self.Type && target.SpeciesID == self.SpeciesID {
		if target.EnergyFrac >= 0.7 && self.Energy >= 0.7*self.MaxEnergy {
			return PerceptMate
		}
		return PerceptConspecific
	}
	return PerceptMovement
}

// writeMemory records salient percepts into the creature's spatial memory.
func (s *Sensor) writeMemory(self *SelfState, now float64) {
	if self.Memory == nil {
		return
	}
	for i := range s.percepts {
		p := &s.percepts[i]
		var kind components.MemoryKind
		var importance float32
		switch p.Kind {
		case PerceptFood:
			kind, importance = components.MemoryFood, 0.7
		case PerceptPredator, PerceptDanger:
			kind, importance = components.MemoryDanger, 1.0
		case PerceptShelter:
			kind, importance = components.MemoryShelter, 0.5
		default:
			continue
		}
		self.Memory.Remember(components.MemoryEntry{
			Location:   p.Position,
			Kind:       kind,
			Strength:   p.Confidence,
			Importance: importance,
			Timestamp:  float32(now),
		})
	}
}

// buildInputs projects the percept list into the fixed-width neural vector:
// four self values, then per sense the top-K percepts as
// (proximity, bearing, signed kind signal) triples. Empty slots stay zero.
func (s *Sensor) buildInputs(self *SelfState) {
	for i := range s.inputs {
		s.inputs[i] = 0
	}

	if self.MaxEnergy > 0 {
		s.inputs[neural.InEnergy] = clamp01f(self.Energy / self.MaxEnergy)
	}
	if self.Phenotype.Speed > 0 {
		s.inputs[neural.InSpeed] = clamp01f(self.Velocity.Len2D() / self.Phenotype.Speed)
	}
	s.inputs[neural.InFear] = self.Fear
	if self.Lifespan > 0 {
		s.inputs[neural.InAge] = clamp01f(self.Age / self.Lifespan)
	}

	var filled [4]int
	for i := range s.percepts {
		p := &s.percepts[i]
		sense := int(p.Sense)
		if filled[sense] >= s.cfg.TopKPerSense || filled[sense] >= neural.TopK {
			continue
		}
		base := neural.SenseSlot(sense, filled[sense])
		filled[sense]++

		s.inputs[base] = p.SignalStrength
		s.inputs[base+1] = p.RelativeAngle / math.Pi
		s.inputs[base+2] = kindSignal(p.Kind) * p.Confidence
	}
}

// kindSignal maps a percept kind to a signed salience: threats negative,
// resources and mates positive, neutral movement weakly positive.
func kindSignal(kind PerceptKind) float32 {
	switch kind {
	case PerceptPredator, PerceptDanger:
		return -1
	case PerceptFood, PerceptPrey, PerceptMate:
		return 1
	case PerceptConspecific, PerceptShelter:
		return 0.5
	default:
		return 0.25
	}
}

func soundKindToPercept(k SoundKind) PerceptKind {
	switch k {
	case SoundAlarm, SoundCombat:
		return PerceptDanger
	case SoundMating:
		return PerceptMate
	default:
		return PerceptSound
	}
}

func pheromoneKindToPercept(k PheromoneKind) PerceptKind {
	switch k {
	case PheromoneFood:
		return PerceptFood
	case PheromoneDanger:
		return PerceptDanger
	case PheromoneMating:
		return PerceptMate
	default:
		return PerceptPheromone
	}
}

func clamp01f(x float32) float32 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
