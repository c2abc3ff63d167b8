package world

import (
	"github.com/pthm-cable/fauna/components"
	"github.com/pthm-cable/fauna/rng"
)

// FoodKind classifies a food source.
type FoodKind uint8

const (
	FoodGrass FoodKind = iota
	FoodBushBerry
	FoodTreeFruit
	FoodTreeLeaf
	FoodCarrion
	FoodPlankton
	FoodAlgae
	FoodSeaweed
	FoodKelp
	NumFoodKinds
)

var foodKindNames = [NumFoodKinds]string{
	"grass", "bush_berry", "tree_fruit", "tree_leaf", "carrion",
	"plankton", "algae", "seaweed", "kelp",
}

func (k FoodKind) String() string {
	if k < NumFoodKinds {
		return foodKindNames[k]
	}
	return "unknown"
}

// FoodSource is one standing food supply. EnergyYield is the currently
// available energy; it regrows toward its maximum at RegrowthRate per second.
type FoodSource struct {
	ID           uint32
	Kind         FoodKind
	Position     components.Vec3
	EnergyYield  float32
	MaxYield     float32
	RegrowthRate float32
}

// foodCellSize is the placement grid pitch in world units.
const foodCellSize = 25.0

// foodGrid holds the deterministic standing food sources plus transient
// carrion. Sources are bucketed on the placement grid for range queries.
type foodGrid struct {
	gridSize  int
	halfWorld float32

	sources []FoodSource
	cells   [][]int // source indices per placement cell

	carrion []FoodSource
	nextID  uint32

	queryBuf []FoodSource
}

// newFoodGrid seeds standing food from the world's biome map. Placement is a
// pure function of the planet seed.
func newFoodGrid(w *World) *foodGrid {
	width := float32(w.cfg.World.Width)
	gridSize := int(width / foodCellSize)
	if gridSize < 1 {
		gridSize = 1
	}

	g := &foodGrid{
		gridSize:  gridSize,
		halfWorld: width / 2,
		cells:     make([][]int, gridSize*gridSize),
		queryBuf:  make([]FoodSource, 0, 32),
	}

	seedLo := uint32(w.seed)
	seedHi := uint32(w.seed >> 32)
	for row := 0; row < gridSize; row++ {
		for col := 0; col < gridSize; col++ {
			h := rng.HashMix(seedLo, seedHi, uint32(col), uint32(row))
			x := float32(col)*foodCellSize + foodCellSize/2 - g.halfWorld
			z := float32(row)*foodCellSize + foodCellSize/2 - g.halfWorld
			// Jitter inside the cell so sources do not sit on a lattice.
			x += (float32(h&0xff)/255 - 0.5) * foodCellSize * 0.8
			z += (float32(h>>8&0xff)/255 - 0.5) * foodCellSize * 0.8

			kind, yield, regrow, ok := foodFor(w.BiomeAt(x, z), h)
			if !ok {
				continue
			}
			g.nextID++
			idx := len(g.sources)
			g.sources = append(g.sources, FoodSource{
				ID:           g.nextID,
				Kind:         kind,
				Position:     components.Vec3{X: x, Y: w.HeightAt(x, z), Z: z},
				EnergyYield:  yield,
				MaxYield:     yield,
				RegrowthRate: regrow,
			})
			g.cells[row*gridSize+col] = append(g.cells[row*gridSize+col], idx)
		}
	}
	return g
}

// foodFor decides what grows in a biome. The hash gates density: richer
// biomes spawn in more cells.
func foodFor(biome BiomeTag, h uint32) (FoodKind, float32, float32, bool) {
	roll := h >> 16 & 0xff

	switch biome {
	case BiomeGrassland, BiomeFloodplain, BiomeSavanna, BiomeAlpineMeadow:
		if roll < 200 {
			return FoodGrass, 40, 2.0, true
		}
	case BiomeShrubland, BiomeFoothills:
		if roll < 120 {
			return FoodBushBerry, 30, 1.0, true
		}
	case BiomeTemperateForest, BiomeSeasonalForest, BiomeMontaneForest:
		if roll < 160 {
			if roll&1 == 0 {
				return FoodTreeLeaf, 50, 1.5, true
			}
			return FoodTreeFruit, 35, 0.8, true
		}
	case BiomeRainforest, BiomeMangrove, BiomeOasis:
		if roll < 220 {
			return FoodTreeFruit, 45, 1.2, true
		}
	case BiomeSwamp, BiomeSaltMarsh, BiomeEstuary:
		if roll < 140 {
			return FoodAlgae, 25, 1.8, true
		}
	case BiomeShallows, BiomeReef, BiomeLake, BiomeRiver:
		if roll < 180 {
			if roll&1 == 0 {
				return FoodSeaweed, 30, 1.5, true
			}
			return FoodPlankton, 20, 2.5, true
		}
	case BiomeOcean:
		if roll < 100 {
			return FoodKelp, 45, 1.0, true
		}
	case BiomeDeepOcean:
		if roll < 60 {
			return FoodPlankton, 15, 2.0, true
		}
	}
	return 0, 0, 0, false
}

// sourcesNear collects live sources within r of center into the reusable
// query buffer.
func (g *foodGrid) sourcesNear(center components.Vec3, r float32) []FoodSource {
	g.queryBuf = g.queryBuf[:0]
	rSq := r * r

	minCol, minRow := g.cellCoords(center.X-r, center.Z-r)
	maxCol, maxRow := g.cellCoords(center.X+r, center.Z+r)
	for row := minRow; row <= maxRow; row++ {
		for col := minCol; col <= maxCol; col++ {
			for _, idx := range g.cells[row*g.gridSize+col] {
				src := &g.sources[idx]
				if src.EnergyYield <= 0 {
					continue
				}
				dx := src.Position.X - center.X
				dz := src.Position.Z - center.Z
				if dx*dx+dz*dz <= rSq {
					g.queryBuf = append(g.queryBuf, *src)
				}
			}
		}
	}

	for i := range g.carrion {
		src := &g.carrion[i]
		dx := src.Position.X - center.X
		dz := src.Position.Z - center.Z
		if dx*dx+dz*dz <= rSq {
			g.queryBuf = append(g.queryBuf, *src)
		}
	}
	return g.queryBuf
}

// consume depletes a source and returns the energy actually taken.
func (g *foodGrid) consume(id uint32, amount float32) float32 {
	for i := range g.sources {
		if g.sources[i].ID != id {
			continue
		}
		taken := amount
		if taken > g.sources[i].EnergyYield {
			taken = g.sources[i].EnergyYield
		}
		g.sources[i].EnergyYield -= taken
		return taken
	}
	for i := range g.carrion {
		if g.carrion[i].ID != id {
			continue
		}
		taken := amount
		if taken > g.carrion[i].EnergyYield {
			taken = g.carrion[i].EnergyYield
		}
		g.carrion[i].EnergyYield -= taken
		return taken
	}
	return 0
}

// addCarrion drops a decaying carcass at a position.
func (g *foodGrid) addCarrion(pos components.Vec3, energy float32) uint32 {
	g.nextID++
	g.carrion = append(g.carrion, FoodSource{
		ID:          g.nextID,
		Kind:        FoodCarrion,
		Position:    pos,
		EnergyYield: energy,
		MaxYield:    energy,
	})
	return g.nextID
}

// carrionDecayRate is energy lost per second by a carcass.
const carrionDecayRate = 0.5

// update regrows standing sources and decays carrion.
func (g *foodGrid) update(dt float64) {
	step := float32(dt)
	for i := range g.sources {
		s := &g.sources[i]
		if s.EnergyYield < s.MaxYield {
			s.EnergyYield += s.RegrowthRate * step
			if s.EnergyYield > s.MaxYield {
				s.EnergyYield = s.MaxYield
			}
		}
	}

	kept := g.carrion[:0]
	for _, c := range g.carrion {
		c.EnergyYield -= carrionDecayRate * step
		if c.EnergyYield > 0 {
			kept = append(kept, c)
		}
	}
	g.carrion = kept
}

func (g *foodGrid) cellCoords(x, z float32) (col, row int) {
	col = int((x + g.halfWorld) / foodCellSize)
	row = int((z + g.halfWorld) / foodCellSize)
	if col < 0 {
		col = 0
	} else if col >= g.gridSize {
		col = g.gridSize - 1
	}
	if row < 0 {
		row = 0
	} else if row >= g.gridSize {
		row = g.gridSize - 1
	}
	return col, row
}

// AddCarrion exposes carcass drops to the lifecycle layer.
func (w *World) AddCarrion(pos components.Vec3, energy float32) uint32 {
	return w.food.addCarrion(pos, energy)
}
