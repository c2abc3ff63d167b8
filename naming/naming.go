// Package naming generates deterministic species names.
//
// A name derives entirely from (planetSeed, speciesID, phoneme class); given
// the same inputs and the same set of live names, the output is identical
// across runs. Collisions against the live set are resolved by a fixed
// transform pipeline so resolved names are unique.
package naming

import (
	"math/rand"
	"strings"

	"github.com/pthm-cable/fauna/config"
	"github.com/pthm-cable/fauna/rng"
	"github.com/pthm-cable/fauna/traits"
	"github.com/pthm-cable/fauna/world"
)

// Name is the resolved naming record for one species.
type Name struct {
	Common     string
	Scientific string
	Family     string
	Order      string
	Descriptor string
}

// Transform identifies which collision-resolution step produced the final
// common name.
type Transform uint8

const (
	TransformNone     Transform = iota // no collision
	TransformResuffix                  // last syllable resampled
	TransformConnect                   // connector injected
	TransformRare                      // rare suffix appended
	TransformNumeral                   // Roman numeral appended
	numTransforms
)

func (t Transform) String() string {
	switch t {
	case TransformResuffix:
		return "resuffix"
	case TransformConnect:
		return "connect"
	case TransformRare:
		return "rare"
	case TransformNumeral:
		return "numeral"
	}
	return "none"
}

// Service names species for one planet. Not safe for concurrent use.
type Service struct {
	cfg        *config.NamingConfig
	planetSeed int64

	names map[uint32]Name   // species id -> resolved name
	used  map[string]uint32 // lowercased common name -> species id
	stats [numTransforms]uint64
}

// NewService creates the naming service for a planet seed.
func NewService(cfg *config.NamingConfig, planetSeed int64) *Service {
	return &Service{
		cfg:        cfg,
		planetSeed: planetSeed,
		names:      make(map[uint32]Name),
		used:       make(map[string]uint32),
	}
}

// SpeciesName returns the species' resolved name, generating and registering
// it on first use. class selects the phoneme flavor of the species' home
// biome; ctype drives the descriptor and order.
func (s *Service) SpeciesName(speciesID uint32, class world.PhonemeClass, ctype traits.Type) Name {
	if n, ok := s.names[speciesID]; ok {
		return n
	}

	seed := rng.HashMix(uint32(s.planetSeed), uint32(s.planetSeed>>32), speciesID, uint32(class))
	r := rand.New(rand.NewSource(int64(seed)))
	table := &tables[class]

	syllables := s.sampleSyllables(r, table)
	common, transform := s.resolve(r, table, syllables)
	s.stats[transform]++

	row := traits.Get(ctype)
	n := Name{
		Common:     common,
		Scientific: scientific(r, table, row.Diet),
		Family:     family(r, table, class),
		Order:      orderFor(row.Locomotion),
		Descriptor: descriptor(row),
	}
	s.names[speciesID] = n
	s.used[strings.ToLower(common)] = speciesID
	return n
}

// Release frees a species' name when the species goes extinct, making it
// available for future species.
func (s *Service) Release(speciesID uint32) {
	n, ok := s.names[speciesID]
	if !ok {
		return
	}
	delete(s.names, speciesID)
	delete(s.used, strings.ToLower(n.Common))
}

// TransformCounts reports how often each collision transform resolved a
// name, indexed by Transform.
func (s *Service) TransformCounts() [5]uint64 {
	var out [5]uint64
	copy(out[:], s.stats[:])
	return out
}

// Count returns the number of registered names.
func (s *Service) Count() int { return len(s.names) }

// sampleSyllables draws prefix, middles and suffix by weight.
func (s *Service) sampleSyllables(r *rand.Rand, table *phonemeTable) []string {
	count := s.cfg.MinSyllables
	if span := s.cfg.MaxSyllables - s.cfg.MinSyllables; span > 0 {
		count += r.Intn(span + 1)
	}
	if count < 2 {
		count = 2
	}

	syl := make([]string, 0, count)
	syl = append(syl, sampleWeighted(r, table.prefixes))
	for i := 0; i < count-2; i++ {
		syl = append(syl, sampleWeighted(r, table.middles))
	}
	return append(syl, sampleWeighted(r, table.suffixes))
}

// resolve applies the collision pipeline until the name is unique against
// the live set.
func (s *Service) resolve(r *rand.Rand, table *phonemeTable, syllables []string) (string, Transform) {
	name := title(strings.Join(syllables, ""))
	if s.unique(name) {
		return name, TransformNone
	}

	// 1. Resample the last syllable.
	resampled := append(append([]string(nil), syllables[:len(syllables)-1]...), sampleWeighted(r, table.suffixes))
	name = title(strings.Join(resampled, ""))
	if s.unique(name) {
		return name, TransformResuffix
	}
	syllables = resampled

	// 2. Inject a connector between the first two syllables.
	conn := table.connectors[r.Intn(len(table.connectors))]
	name = title(syllables[0] + conn + strings.Join(syllables[1:], ""))
	if s.unique(name) {
		return name, TransformConnect
	}

	// 3. Append a rare suffix.
	base := name
	name = base + table.rare[r.Intn(len(table.rare))]
	if s.unique(name) {
		return name, TransformRare
	}

	// 4. Roman numeral, incremented until unique. Always terminates.
	for i := 2; ; i++ {
		name = base + " " + roman(i)
		if s.unique(name) {
			return name, TransformNumeral
		}
	}
}

func (s *Service) unique(name string) bool {
	_, taken := s.used[strings.ToLower(name)]
	return !taken
}

// scientific builds a binomial: a fresh genus sample plus a diet epithet.
func scientific(r *rand.Rand, table *phonemeTable, diet traits.Diet) string {
	genus := title(sampleWeighted(r, table.prefixes) + sampleWeighted(r, table.suffixes))
	var epithet string
	switch diet {
	case traits.DietCarnivore:
		epithet = "vorax"
	case traits.DietHerbivore:
		epithet = "herbae"
	case traits.DietOmnivore:
		epithet = "omnis"
	case traits.DietScavenger:
		epithet = "carrionis"
	case traits.DietFilterFeeder:
		epithet = "planctae"
	}
	return genus + " " + epithet
}

// family builds the flavor-suffixed taxonomic family.
func family(r *rand.Rand, table *phonemeTable, class world.PhonemeClass) string {
	return title(sampleWeighted(r, table.prefixes)) + familySuffixes[class]
}

// orderFor maps locomotion to a fixed latinate order.
func orderFor(loco traits.Locomotion) string {
	switch loco {
	case traits.Aerial:
		return "Volantia"
	case traits.AquaticLoc:
		return "Aquatilia"
	case traits.Amphibious:
		return "Amphibia"
	case traits.Arboreal:
		return "Arborea"
	case traits.Burrowing:
		return "Fossoria"
	}
	return "Terrestria"
}

// descriptor is trait-derived only: locomotion plus diet, no subjective
// labels.
func descriptor(row *traits.Row) string {
	var diet string
	switch row.Diet {
	case traits.DietCarnivore:
		diet = "carnivore"
	case traits.DietHerbivore:
		diet = "herbivore"
	case traits.DietOmnivore:
		diet = "omnivore"
	case traits.DietScavenger:
		diet = "scavenger"
	case traits.DietFilterFeeder:
		diet = "filter-feeder"
	}

	var loco string
	switch row.Locomotion {
	case traits.Aerial:
		loco = "aerial"
	case traits.AquaticLoc:
		loco = "aquatic"
	case traits.Amphibious:
		loco = "amphibious"
	case traits.Arboreal:
		loco = "arboreal"
	case traits.Burrowing:
		loco = "burrowing"
	default:
		loco = "terrestrial"
	}
	return loco + " " + diet
}

// sampleWeighted draws one syllable proportionally to its weight.
func sampleWeighted(r *rand.Rand, pool []weighted) string {
	total := 0
	for _, w := range pool {
		total += w.w
	}
	pick := r.Intn(total)
	for _, w := range pool {
		pick -= w.w
		if pick < 0 {
			return w.s
		}
	}
	return pool[len(pool)-1].s
}

// title uppercases the first rune of an ASCII name.
func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

var romanValues = []struct {
	v int
	s string
}{
	{1000, "M"}, {900, "CM"}, {500, "D"}, {400, "CD"},
	{100, "C"}, {90, "XC"}, {50, "L"}, {40, "XL"},
	{10, "X"}, {9, "IX"}, {5, "V"}, {4, "IV"}, {1, "I"},
}

// roman renders n >= 1 as a Roman numeral.
func roman(n int) string {
	var b strings.Builder
	for _, rv := range romanValues {
		for n >= rv.v {
			b.WriteString(rv.s)
			n -= rv.v
		}
	}
	return b.String()
}
