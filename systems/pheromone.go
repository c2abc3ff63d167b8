package systems

import (
	"github.com/pthm-cable/fauna/components"
)

// PheromoneKind identifies a scent channel.
type PheromoneKind uint8

const (
	PheromoneTrail PheromoneKind = iota
	PheromoneFood
	PheromoneDanger
	PheromoneMating
	PheromoneTerritory
	NumPheromoneKinds
)

func (k PheromoneKind) String() string {
	switch k {
	case PheromoneTrail:
		return "trail"
	case PheromoneFood:
		return "food"
	case PheromoneDanger:
		return "danger"
	case PheromoneMating:
		return "mating"
	case PheromoneTerritory:
		return "territory"
	}
	return "unknown"
}

type pheromoneCell [NumPheromoneKinds]float32

// PheromoneField is a coarse grid of per-kind scent concentrations. Cells are
// at least twice the spatial index cell side. Each tick concentrations
// evaporate and diffuse to the four neighbors; values stay in [0, 1].
type PheromoneField struct {
	gridSize  int
	cellSide  float32
	halfWorld float32

	cells []pheromoneCell
	next  []pheromoneCell

	evaporation float32
	diffusion   float32
}

// NewPheromoneField creates a field over a square world of the given width.
func NewPheromoneField(worldWidth, cellSize float32, evaporation, diffusion float64) *PheromoneField {
	gridSize := int(worldWidth / cellSize)
	if gridSize < 1 {
		gridSize = 1
	}
	return &PheromoneField{
		gridSize:    gridSize,
		cellSide:    worldWidth / float32(gridSize),
		halfWorld:   worldWidth / 2,
		cells:       make([]pheromoneCell, gridSize*gridSize),
		next:        make([]pheromoneCell, gridSize*gridSize),
		evaporation: float32(evaporation),
		diffusion:   float32(diffusion),
	}
}

// Deposit adds concentration at a world position, saturating at 1.
func (f *PheromoneField) Deposit(pos components.Vec3, kind PheromoneKind, amount float32) {
	c := &f.cells[f.cellIndex(pos.X, pos.Z)][kind]
	*c += amount
	if *c > 1 {
		*c = 1
	}
}

// Concentration samples the concentration of a kind at a world position.
func (f *PheromoneField) Concentration(pos components.Vec3, kind PheromoneKind) float32 {
	return f.cells[f.cellIndex(pos.X, pos.Z)][kind]
}

// Update evaporates and diffuses the whole field by one step of dt seconds.
func (f *PheromoneField) Update(dt float64) {
	keep := 1 - f.evaporation*float32(dt)
	if keep < 0 {
		keep = 0
	}
	spread := f.diffusion * float32(dt)
	if spread > 0.25 {
		spread = 0.25 // each of four neighbors receives spread, keep the donor non-negative
	}

	n := f.gridSize
	for row := 0; row < n; row++ {
		for col := 0; col < n; col++ {
			idx := row*n + col
			for k := PheromoneKind(0); k < NumPheromoneKinds; k++ {
				c := f.cells[idx][k]
				if c == 0 {
					continue
				}
				out := c * spread
				f.next[idx][k] += c - 4*out
				if col > 0 {
					f.next[idx-1][k] += out
				}
				if col < n-1 {
					f.next[idx+1][k] += out
				}
				if row > 0 {
					f.next[idx-n][k] += out
				}
				if row < n-1 {
					f.next[idx+n][k] += out
				}
			}
		}
	}

	for i := range f.next {
		for k := range f.next[i] {
			v := f.next[i][k] * keep
			if v < 1e-4 {
				v = 0
			} else if v > 1 {
				v = 1
			}
			f.cells[i][k] = v
			f.next[i][k] = 0
		}
	}
}

// StrongestNear scans the cell block covering radius r around pos and returns
// the position and concentration of the strongest cell for the kind. Returns
// false when every cell in range is empty.
func (f *PheromoneField) StrongestNear(pos components.Vec3, r float32, kind PheromoneKind) (components.Vec3, float32, bool) {
	minCol, minRow := f.cellCoords(pos.X-r, pos.Z-r)
	maxCol, maxRow := f.cellCoords(pos.X+r, pos.Z+r)

	var best float32
	var bestPos components.Vec3
	found := false
	for row := minRow; row <= maxRow; row++ {
		for col := minCol; col <= maxCol; col++ {
			c := f.cells[row*f.gridSize+col][kind]
			if c > best {
				best = c
				bestPos = f.cellCenter(col, row)
				found = true
			}
		}
	}
	return bestPos, best, found
}

func (f *PheromoneField) cellCenter(col, row int) components.Vec3 {
	return components.Vec3{
		X: float32(col)*f.cellSide + f.cellSide/2 - f.halfWorld,
		Z: float32(row)*f.cellSide + f.cellSide/2 - f.halfWorld,
	}
}

func (f *PheromoneField) cellCoords(x, z float32) (col, row int) {
	col = int((x + f.halfWorld) / f.cellSide)
	row = int((z + f.halfWorld) / f.cellSide)
	if col < 0 {
		col = 0
	} else if col >= f.gridSize {
		col = f.gridSize - 1
	}
	if row < 0 {
		row = 0
	} else if row >= f.gridSize {
		row = f.gridSize - 1
	}
	return col, row
}

func (f *PheromoneField) cellIndex(x, z float32) int {
	col, row := f.cellCoords(x, z)
	return row*f.gridSize + col
}
