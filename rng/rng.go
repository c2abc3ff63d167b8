// Package rng provides deterministic random number streams for the simulation.
//
// Every subsystem draws from its own named stream so that reordering draws
// within one subsystem never perturbs another. Given the same planet seed and
// the same draw sequence per stream, every run reproduces bit-for-bit.
package rng

import "math/rand"

// StreamID identifies a subsystem's dedicated random stream.
type StreamID uint32

const (
	StreamSpawn StreamID = iota
	StreamGenome
	StreamNeural
	StreamBehavior
	StreamSense
	StreamNaming
	StreamWorld
	StreamVariety
	numStreams
)

// HashMix folds a sequence of small ints into a 32-bit hash using a fixed
// splitmix-like sequence. Used for name seeds and noise layer keys.
func HashMix(values ...uint32) uint32 {
	x := uint32(0x9e3779b9)
	for _, v := range values {
		x ^= v + 0x9e3779b9 + (x << 6) + (x >> 2)
		x = mix(x)
	}
	return x
}

// mix is the core avalanche step: x = ((x >> 16) ^ x) * 0x45d9f3b, twice,
// then a final fold.
func mix(x uint32) uint32 {
	x = ((x >> 16) ^ x) * 0x45d9f3b
	x = ((x >> 16) ^ x) * 0x45d9f3b
	x = (x >> 16) ^ x
	return x
}

// Streams holds one seeded PRNG per subsystem.
type Streams struct {
	planetSeed int64
	streams    [numStreams]*rand.Rand
}

// NewStreams creates the per-subsystem streams, each seeded deterministically
// from (planetSeed, streamID).
func NewStreams(planetSeed int64) *Streams {
	s := &Streams{planetSeed: planetSeed}
	for i := StreamID(0); i < numStreams; i++ {
		s.streams[i] = rand.New(rand.NewSource(SeedFor(planetSeed, uint32(i))))
	}
	return s
}

// SeedFor derives the 64-bit seed for a stream from the planet seed.
func SeedFor(planetSeed int64, streamID uint32) int64 {
	lo := HashMix(uint32(planetSeed), uint32(planetSeed>>32), streamID)
	hi := HashMix(streamID, uint32(planetSeed>>32), uint32(planetSeed))
	return int64(uint64(hi)<<32 | uint64(lo))
}

// PlanetSeed returns the seed the streams were built from.
func (s *Streams) PlanetSeed() int64 {
	return s.planetSeed
}

// Get returns the PRNG for a stream.
func (s *Streams) Get(id StreamID) *rand.Rand {
	return s.streams[id]
}

// Spawn returns the spawn/lifecycle stream.
func (s *Streams) Spawn() *rand.Rand { return s.streams[StreamSpawn] }

// Genome returns the mutation/crossover stream.
func (s *Streams) Genome() *rand.Rand { return s.streams[StreamGenome] }

// Neural returns the controller construction stream.
func (s *Streams) Neural() *rand.Rand { return s.streams[StreamNeural] }

// Behavior returns the behavior module stream.
func (s *Streams) Behavior() *rand.Rand { return s.streams[StreamBehavior] }

// Sense returns the perception stream (detection probability rolls).
func (s *Streams) Sense() *rand.Rand { return s.streams[StreamSense] }

// Naming returns the naming stream.
func (s *Streams) Naming() *rand.Rand { return s.streams[StreamNaming] }

// World returns the terrain/climate stream.
func (s *Streams) World() *rand.Rand { return s.streams[StreamWorld] }

// Variety returns the idle-wander stream.
func (s *Streams) Variety() *rand.Rand { return s.streams[StreamVariety] }
