// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	World     WorldConfig     `yaml:"world"`
	Physics   PhysicsConfig   `yaml:"physics"`
	Spatial   SpatialConfig   `yaml:"spatial"`
	Energy    EnergyConfig    `yaml:"energy"`
	Sensory   SensoryConfig   `yaml:"sensory"`
	Memory    MemoryConfig    `yaml:"memory"`
	Pheromone PheromoneConfig `yaml:"pheromone"`
	Sound     SoundConfig     `yaml:"sound"`
	Mutation  MutationConfig  `yaml:"mutation"`
	Neural    NeuralConfig    `yaml:"neural"`
	Territory TerritoryConfig `yaml:"territory"`
	Social    SocialConfig    `yaml:"social"`
	Hunt      HuntConfig      `yaml:"hunt"`
	Migration MigrationConfig `yaml:"migration"`
	Care      CareConfig      `yaml:"care"`
	Behavior  BehaviorConfig  `yaml:"behavior"`
	Sim       SimConfig       `yaml:"sim"`
	Naming    NamingConfig    `yaml:"naming"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// WorldConfig holds world footprint parameters. The footprint is the square
// [-width/2, width/2] on both horizontal axes.
type WorldConfig struct {
	Width        float64 `yaml:"width"`         // World side length in world units
	SeaLevel     float64 `yaml:"sea_level"`     // Height below which terrain is water
	SeasonLength float64 `yaml:"season_length"` // Seconds per season
}

// PhysicsConfig holds integration parameters.
type PhysicsConfig struct {
	DT             float64 `yaml:"dt"`              // Default seconds per tick
	MaxForce       float64 `yaml:"max_force"`       // Combined steering force cap
	BoundaryMargin float64 `yaml:"boundary_margin"` // Distance from edge where avoidance ramps up
}

// SpatialConfig holds spatial index parameters.
type SpatialConfig struct {
	GridSize int `yaml:"grid_size"` // Cells per side
}

// EnergyConfig holds metabolism parameters. Base costs are per second and
// scaled by each creature's efficiency trait.
type EnergyConfig struct {
	BaseCost       float64 `yaml:"base_cost"`        // Existence drain per second
	SensoryCost    float64 `yaml:"sensory_cost"`     // Perception drain per second
	MoveCost       float64 `yaml:"move_cost"`        // Drain per unit speed per second
	KillEnergyGain float64 `yaml:"kill_energy_gain"` // Fraction of victim energy awarded on kill
}

// SensoryConfig holds perception parameters.
type SensoryConfig struct {
	TopKPerSense     int     `yaml:"top_k_per_sense"`   // Percept slots per sense in the neural vector
	MaxPercepts      int     `yaml:"max_percepts"`      // Hard cap on percepts per tick
	HearingRange     float64 `yaml:"hearing_range"`     // Base hearing radius
	SmellRange       float64 `yaml:"smell_range"`       // Base smell radius
	TouchRange       float64 `yaml:"touch_range"`       // Contact radius
	MotionBonus      float64 `yaml:"motion_bonus"`      // Detection bonus for moving targets
	CamouflagePower  float64 `yaml:"camouflage_power"`  // How strongly camouflage hides targets
	HearingReference float64 `yaml:"hearing_reference"` // Distance at which sounds attenuate to half
}

// MemoryConfig holds spatial memory parameters.
type MemoryConfig struct {
	DecayPerSecond float64 `yaml:"decay_per_second"` // Linear strength decay
}

// PheromoneConfig holds pheromone field parameters.
type PheromoneConfig struct {
	CellSize    float64 `yaml:"cell_size"`   // Must be >= 2x spatial cell side
	Evaporation float64 `yaml:"evaporation"` // Fraction lost per second
	Diffusion   float64 `yaml:"diffusion"`   // Fraction spread to neighbors per second
}

// SoundConfig holds sound bus parameters.
type SoundConfig struct {
	TTL float64 `yaml:"ttl"` // Seconds an event stays audible
}

// MutationConfig holds genetic mutation parameters.
type MutationConfig struct {
	PointRate   float64 `yaml:"point_rate"`  // Per-locus point mutation probability
	PointSigma  float64 `yaml:"point_sigma"` // Bounded Gaussian magnitude
	LargeRate   float64 `yaml:"large_rate"`  // Per-locus replacement probability
	AddNodeProb float64 `yaml:"add_node_prob"`
	AddLinkProb float64 `yaml:"add_link_prob"`
	ToggleProb  float64 `yaml:"toggle_prob"`
	WeightProb  float64 `yaml:"weight_prob"`  // Weight perturbation probability
	WeightPower float64 `yaml:"weight_power"` // Weight perturbation magnitude
}

// NeuralConfig holds controller and speciation parameters.
type NeuralConfig struct {
	CompatThreshold float64 `yaml:"compat_threshold"` // Speciation distance threshold
	ExcessCoeff     float64 `yaml:"excess_coeff"`
	DisjointCoeff   float64 `yaml:"disjoint_coeff"`
	WeightCoeff     float64 `yaml:"weight_coeff"`
	ConnectionProb  float64 `yaml:"connection_prob"` // Initial NEAT connectivity
	DropOffAge      int     `yaml:"drop_off_age"`    // Species staleness limit
}

// TerritoryConfig holds territorial behavior parameters.
type TerritoryConfig struct {
	MinEnergy        float64 `yaml:"min_energy"`         // Energy required to establish
	Radius           float64 `yaml:"radius"`             // Default territory radius
	StrengthGainRate float64 `yaml:"strength_gain_rate"` // Per second inside core
	StrengthDecay    float64 `yaml:"strength_decay"`     // Per second outside
	AbandonDistance  float64 `yaml:"abandon_distance"`   // Multiples of radius
	MaxIntrusions    int     `yaml:"max_intrusions"`
	MaxAge           float64 `yaml:"max_age"` // Seconds before weak territories expire
	DefenseForce     float64 `yaml:"defense_force"`
	RepulsionForce   float64 `yaml:"repulsion_force"`
}

// SocialConfig holds social group parameters.
type SocialConfig struct {
	FormDistance     float64 `yaml:"form_distance"`
	MinGroupSize     int     `yaml:"min_group_size"`
	MaxGroupSize     int     `yaml:"max_group_size"`
	FormationRadius  float64 `yaml:"formation_radius"`
	BreakDistance    float64 `yaml:"break_distance"`
	LoyaltyGain      float64 `yaml:"loyalty_gain"`    // Per second inside formation
	LoyaltyDecay     float64 `yaml:"loyalty_decay"`   // Per second outside break distance
	LeaderInterval   float64 `yaml:"leader_interval"` // Seconds between elections
	CohesionWeight   float64 `yaml:"cohesion_weight"`
	SeparationWeight float64 `yaml:"separation_weight"`
	AlignmentWeight  float64 `yaml:"alignment_weight"`
	FormationWeight  float64 `yaml:"formation_weight"`
}

// HuntConfig holds pack hunt parameters.
type HuntConfig struct {
	MinPackSize       int     `yaml:"min_pack_size"`
	HuntRange         float64 `yaml:"hunt_range"`
	MinScore          float64 `yaml:"min_score"` // Candidate score needed to begin
	StalkDuration     float64 `yaml:"stalk_duration"`
	FlankDuration     float64 `yaml:"flank_duration"`
	ChaseDuration     float64 `yaml:"chase_duration"`
	EncircleTarget    float64 `yaml:"encircle_target"` // Encirclement needed to begin the chase
	MaxFatigue        float64 `yaml:"max_fatigue"`
	FatigueRate       float64 `yaml:"fatigue_rate"` // Per second while chasing
	SuccessBonus      float64 `yaml:"success_bonus"`
	CooldownAfter     float64 `yaml:"cooldown_after"`
	MaxFailedAttempts int     `yaml:"max_failed_attempts"`
}

// MigrationConfig holds migration parameters.
type MigrationConfig struct {
	SeasonalThreshold float64 `yaml:"seasonal_threshold"` // Season progress needed to trigger
	ScarcityThreshold float64 `yaml:"scarcity_threshold"` // Food density below which migration triggers
	WaypointReach     float64 `yaml:"waypoint_reach"`
	SpeedMultiplier   float64 `yaml:"speed_multiplier"`
	Cooldown          float64 `yaml:"cooldown"`
	Distance          float64 `yaml:"distance"` // Typical route length
	RestDuration      float64 `yaml:"rest_duration"`
}

// CareConfig holds parental care parameters.
type CareConfig struct {
	Duration        float64 `yaml:"duration"`        // Base care duration in seconds
	ShareThreshold  float64 `yaml:"share_threshold"` // Parent energy fraction needed to share
	ChildThreshold  float64 `yaml:"child_threshold"` // Child energy fraction below which to feed
	ShareRate       float64 `yaml:"share_rate"`      // Energy per second at full bond
	ProtectionRange float64 `yaml:"protection_range"`
	ProtectionForce float64 `yaml:"protection_force"`
	FollowForce     float64 `yaml:"follow_force"`
	IndependenceAge float64 `yaml:"independence_age"`
	BondDecay       float64 `yaml:"bond_decay"` // Per second after weaning begins

	// Per-type care pace, keyed by type name. Unlisted types run at 1.
	StageMultipliers map[string]float64 `yaml:"stage_multipliers"`
}

// StageMultiplier returns the care pace for a type name. Types without an
// entry (or with a non-positive one) progress at the base rate.
func (c *CareConfig) StageMultiplier(name string) float64 {
	if m, ok := c.StageMultipliers[name]; ok && m > 0 {
		return m
	}
	return 1
}

// BehaviorConfig holds coordinator arbitration parameters.
type BehaviorConfig struct {
	FleeForce     float64 `yaml:"flee_force"`
	FleeDistance  float64 `yaml:"flee_distance"`  // Multiplier over the type's flee distance
	VarietyWeight float64 `yaml:"variety_weight"` // Additive weight when idle
	MotorWeight   float64 `yaml:"motor_weight"`   // Neural motor bias weight (capped at 0.5)
}

// SimConfig holds population and lifecycle parameters.
type SimConfig struct {
	InitialPerType  int     `yaml:"initial_per_type"` // Initial creatures spawned per type
	MinPerType      int     `yaml:"min_per_type"`     // Respawn floor per type (0 = disabled)
	MaxPopulation   int     `yaml:"max_population"`   // Hard population cap
	MateRange       float64 `yaml:"mate_range"`       // Radius searched for a compatible mate
	ReproCooldown   float64 `yaml:"repro_cooldown"`   // Seconds between reproductions
	MaturityAge     float64 `yaml:"maturity_age"`     // Minimum age to reproduce
	AttackCooldown  float64 `yaml:"attack_cooldown"`  // Seconds between solo attacks
	CarrionFraction float64 `yaml:"carrion_fraction"` // Victim energy left as carrion
}

// NamingConfig holds species naming parameters.
type NamingConfig struct {
	MinSyllables int `yaml:"min_syllables"`
	MaxSyllables int `yaml:"max_syllables"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	WindowSec float64 `yaml:"window_sec"`
	HallSize  int     `yaml:"hall_size"` // Proven genomes kept per type
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	WorldW32   float32 // World width as float32
	HalfWorld  float32 // Width/2 (footprint extent on each axis)
	CellSide   float32 // Spatial cell side length
	DT32       float32
	MaxForce32 float32
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.computeDerived()

	return cfg, nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.WorldW32 = float32(c.World.Width)
	c.Derived.HalfWorld = float32(c.World.Width / 2)
	if c.Spatial.GridSize > 0 {
		c.Derived.CellSide = float32(c.World.Width / float64(c.Spatial.GridSize))
	}
	c.Derived.DT32 = float32(c.Physics.DT)
	c.Derived.MaxForce32 = float32(c.Physics.MaxForce)
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
