// Package traits defines creature types and their trait tables.
//
// All type-dependent numeric behavior is a table lookup; the tables are data,
// not behavior. The only polymorphism in the core lives in the neural
// controllers.
package traits

// Type is the closed creature type enum.
type Type uint8

const (
	Grazer Type = iota
	Browser
	Frugivore
	SmallPredator
	Omnivore
	ApexPredator
	Scavenger
	Parasite
	Cleaner
	Flying
	FlyingBird
	FlyingInsect
	AerialPredator
	Aquatic
	AquaticHerbivore
	AquaticPredator
	AquaticApex
	Amphibian
	NumTypes
)

// Legacy aliases accepted on input.
const (
	Herbivore = Grazer
	Carnivore = ApexPredator
)

// Diet classifies what a type eats.
type Diet uint8

const (
	DietHerbivore Diet = iota
	DietCarnivore
	DietOmnivore
	DietScavenger
	DietFilterFeeder
)

// Locomotion classifies how a type moves.
type Locomotion uint8

const (
	Terrestrial Locomotion = iota
	Aerial
	AquaticLoc
	Amphibious
	Arboreal
	Burrowing
)

// GroupKind classifies social grouping behavior.
type GroupKind uint8

const (
	Solitary GroupKind = iota
	Herd
	Pack
	Flock
	School
)

// Row holds the per-type constants.
type Row struct {
	Name              string
	Diet              Diet
	Locomotion        Locomotion
	TrophicLevel      int
	AttackRange       float32
	AttackDamage      float32
	FleeDistance      float32
	HuntingEfficiency float32
	MinPreySize       float32
	MaxPreySize       float32
	IsPackHunter      bool
	IsHerdAnimal      bool
	IsTerritorial     bool
	CanClimb          bool
	DigestsGrass      bool
	DigestsLeaves     bool
	DigestsFruit      bool
	ParasiteResist    float32
	GroupKind         GroupKind
	ProvidesCare      bool

	// Energy economy
	MaxEnergy      float32
	ReproThreshold float32
	ReproCost      float32
	Lifespan       float32 // Seconds
}

// Table holds one row per creature type, indexed by Type.
var Table = [NumTypes]Row{
	Grazer: {
		Name: "grazer", Diet: DietHerbivore, Locomotion: Terrestrial, TrophicLevel: 1,
		AttackRange: 0, AttackDamage: 0, FleeDistance: 40, HuntingEfficiency: 0,
		IsHerdAnimal: true, DigestsGrass: true, ParasiteResist: 0.3,
		GroupKind: Herd, ProvidesCare: true,
		MaxEnergy: 100, ReproThreshold: 70, ReproCost: 25, Lifespan: 600,
	},
	Browser: {
		Name: "browser", Diet: DietHerbivore, Locomotion: Terrestrial, TrophicLevel: 1,
		FleeDistance: 35, IsHerdAnimal: true, CanClimb: true,
		DigestsLeaves: true, DigestsFruit: true, ParasiteResist: 0.3,
		GroupKind: Herd, ProvidesCare: true,
		MaxEnergy: 110, ReproThreshold: 75, ReproCost: 28, Lifespan: 650,
	},
	Frugivore: {
		Name: "frugivore", Diet: DietHerbivore, Locomotion: Arboreal, TrophicLevel: 1,
		FleeDistance: 30, CanClimb: true, DigestsFruit: true, ParasiteResist: 0.4,
		GroupKind: Flock, ProvidesCare: true,
		MaxEnergy: 80, ReproThreshold: 55, ReproCost: 20, Lifespan: 500,
	},
	SmallPredator: {
		Name: "small predator", Diet: DietCarnivore, Locomotion: Terrestrial, TrophicLevel: 2,
		AttackRange: 3, AttackDamage: 12, FleeDistance: 25, HuntingEfficiency: 0.5,
		MinPreySize: 0.2, MaxPreySize: 1.0, IsTerritorial: true, ParasiteResist: 0.4,
		GroupKind: Solitary, ProvidesCare: true,
		MaxEnergy: 120, ReproThreshold: 80, ReproCost: 30, Lifespan: 550,
	},
	Omnivore: {
		Name: "omnivore", Diet: DietOmnivore, Locomotion: Terrestrial, TrophicLevel: 2,
		AttackRange: 3, AttackDamage: 10, FleeDistance: 30, HuntingEfficiency: 0.4,
		MinPreySize: 0.2, MaxPreySize: 0.9, DigestsGrass: true, DigestsFruit: true,
		ParasiteResist: 0.5, GroupKind: Herd, ProvidesCare: true,
		MaxEnergy: 130, ReproThreshold: 85, ReproCost: 30, Lifespan: 700,
	},
	ApexPredator: {
		Name: "apex predator", Diet: DietCarnivore, Locomotion: Terrestrial, TrophicLevel: 4,
		AttackRange: 5, AttackDamage: 25, FleeDistance: 0, HuntingEfficiency: 0.7,
		MinPreySize: 0.4, MaxPreySize: 3.0, IsPackHunter: true, IsTerritorial: true,
		ParasiteResist: 0.6, GroupKind: Pack, ProvidesCare: true,
		MaxEnergy: 200, ReproThreshold: 140, ReproCost: 50, Lifespan: 800,
	},
	Scavenger: {
		Name: "scavenger", Diet: DietScavenger, Locomotion: Terrestrial, TrophicLevel: 2,
		AttackRange: 2, AttackDamage: 5, FleeDistance: 35, HuntingEfficiency: 0.2,
		MaxPreySize: 0.4, ParasiteResist: 0.8, GroupKind: Flock,
		MaxEnergy: 90, ReproThreshold: 60, ReproCost: 22, Lifespan: 600,
	},
	Parasite: {
		Name: "parasite", Diet: DietCarnivore, Locomotion: Terrestrial, TrophicLevel: 2,
		AttackRange: 0.5, AttackDamage: 1, FleeDistance: 15, HuntingEfficiency: 0.9,
		MaxPreySize: 3.0, ParasiteResist: 1.0, GroupKind: Solitary,
		MaxEnergy: 40, ReproThreshold: 28, ReproCost: 10, Lifespan: 300,
	},
	Cleaner: {
		Name: "cleaner", Diet: DietOmnivore, Locomotion: Terrestrial, TrophicLevel: 1,
		FleeDistance: 20, ParasiteResist: 0.9, GroupKind: Solitary,
		MaxEnergy: 50, ReproThreshold: 35, ReproCost: 12, Lifespan: 400,
	},
	Flying: {
		Name: "flier", Diet: DietOmnivore, Locomotion: Aerial, TrophicLevel: 2,
		AttackRange: 2, AttackDamage: 6, FleeDistance: 45, HuntingEfficiency: 0.3,
		MaxPreySize: 0.5, DigestsFruit: true, ParasiteResist: 0.4,
		GroupKind: Flock, ProvidesCare: true,
		MaxEnergy: 85, ReproThreshold: 60, ReproCost: 22, Lifespan: 450,
	},
	FlyingBird: {
		Name: "bird", Diet: DietOmnivore, Locomotion: Aerial, TrophicLevel: 2,
		AttackRange: 2, AttackDamage: 8, FleeDistance: 50, HuntingEfficiency: 0.4,
		MaxPreySize: 0.5, DigestsFruit: true, ParasiteResist: 0.4,
		GroupKind: Flock, ProvidesCare: true,
		MaxEnergy: 90, ReproThreshold: 62, ReproCost: 24, Lifespan: 500,
	},
	FlyingInsect: {
		Name: "insect", Diet: DietHerbivore, Locomotion: Aerial, TrophicLevel: 1,
		FleeDistance: 25, DigestsFruit: true, DigestsLeaves: true, ParasiteResist: 0.2,
		GroupKind: Flock,
		MaxEnergy: 30, ReproThreshold: 20, ReproCost: 8, Lifespan: 120,
	},
	AerialPredator: {
		Name: "aerial predator", Diet: DietCarnivore, Locomotion: Aerial, TrophicLevel: 3,
		AttackRange: 4, AttackDamage: 18, FleeDistance: 0, HuntingEfficiency: 0.6,
		MinPreySize: 0.1, MaxPreySize: 1.2, IsTerritorial: true, ParasiteResist: 0.5,
		GroupKind: Solitary, ProvidesCare: true,
		MaxEnergy: 140, ReproThreshold: 95, ReproCost: 35, Lifespan: 650,
	},
	Aquatic: {
		Name: "aquatic", Diet: DietFilterFeeder, Locomotion: AquaticLoc, TrophicLevel: 1,
		FleeDistance: 30, ParasiteResist: 0.3, GroupKind: School,
		MaxEnergy: 70, ReproThreshold: 48, ReproCost: 16, Lifespan: 400,
	},
	AquaticHerbivore: {
		Name: "aquatic herbivore", Diet: DietHerbivore, Locomotion: AquaticLoc, TrophicLevel: 1,
		FleeDistance: 35, DigestsLeaves: true, ParasiteResist: 0.3,
		GroupKind: School, ProvidesCare: false,
		MaxEnergy: 90, ReproThreshold: 60, ReproCost: 20, Lifespan: 500,
	},
	AquaticPredator: {
		Name: "aquatic predator", Diet: DietCarnivore, Locomotion: AquaticLoc, TrophicLevel: 3,
		AttackRange: 4, AttackDamage: 16, FleeDistance: 20, HuntingEfficiency: 0.6,
		MinPreySize: 0.2, MaxPreySize: 1.5, ParasiteResist: 0.5, GroupKind: School,
		MaxEnergy: 130, ReproThreshold: 90, ReproCost: 32, Lifespan: 600,
	},
	AquaticApex: {
		Name: "aquatic apex", Diet: DietCarnivore, Locomotion: AquaticLoc, TrophicLevel: 4,
		AttackRange: 6, AttackDamage: 30, FleeDistance: 0, HuntingEfficiency: 0.75,
		MinPreySize: 0.5, MaxPreySize: 3.0, IsTerritorial: true, ParasiteResist: 0.7,
		GroupKind: Solitary, ProvidesCare: true,
		MaxEnergy: 220, ReproThreshold: 155, ReproCost: 55, Lifespan: 900,
	},
	Amphibian: {
		Name: "amphibian", Diet: DietOmnivore, Locomotion: Amphibious, TrophicLevel: 2,
		AttackRange: 2, AttackDamage: 7, FleeDistance: 30, HuntingEfficiency: 0.35,
		MaxPreySize: 0.6, DigestsLeaves: true, ParasiteResist: 0.4, GroupKind: Solitary,
		MaxEnergy: 95, ReproThreshold: 65, ReproCost: 24, Lifespan: 450,
	},
}

// Get returns the trait row for a type.
func Get(t Type) *Row {
	if t >= NumTypes {
		return &Table[Grazer]
	}
	return &Table[t]
}

// IsPredator reports whether a type hunts live prey.
func IsPredator(t Type) bool {
	r := Get(t)
	return r.AttackDamage > 0 && (r.Diet == DietCarnivore || r.Diet == DietOmnivore)
}

// IsFlyer reports whether a type moves through the air column.
func IsFlyer(t Type) bool {
	return Get(t).Locomotion == Aerial
}

// IsAquatic reports whether a type lives in the water column.
func IsAquatic(t Type) bool {
	l := Get(t).Locomotion
	return l == AquaticLoc || l == Amphibious
}

// CanBeHuntedBy encodes the predator-prey eligibility table. preySize is the
// prey's phenotypic size trait.
func CanBeHuntedBy(prey, predator Type, preySize float32) bool {
	if prey == predator {
		return false
	}
	pr := Get(predator)
	if pr.AttackDamage <= 0 || pr.Diet == DietHerbivore || pr.Diet == DietFilterFeeder {
		return false
	}
	if preySize < pr.MinPreySize || preySize > pr.MaxPreySize {
		return false
	}
	// Trophic ordering: predators only take lower or equal trophic levels.
	py := Get(prey)
	if py.TrophicLevel > pr.TrophicLevel {
		return false
	}
	// Habitat overlap: terrestrial predators cannot reach pure aquatics
	// (fliers forage near the ground and stay catchable); aquatic
	// predators only hunt in the water column.
	switch pr.Locomotion {
	case Terrestrial, Arboreal, Burrowing:
		if py.Locomotion == AquaticLoc {
			return false
		}
	case AquaticLoc:
		if py.Locomotion != AquaticLoc && py.Locomotion != Amphibious {
			return false
		}
	}
	return true
}

// ParseType maps an input name to a type, honoring legacy aliases.
// ok is false for unknown names.
func ParseType(name string) (Type, bool) {
	switch name {
	case "HERBIVORE":
		return Grazer, true
	case "CARNIVORE":
		return ApexPredator, true
	}
	for t := Type(0); t < NumTypes; t++ {
		if Table[t].Name == name {
			return t, true
		}
	}
	return Grazer, false
}
