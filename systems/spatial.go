// Package systems provides the world-scoped simulation systems: the spatial
// index, the sound bus, the pheromone field, and multi-modal sensing.
package systems

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/fauna/components"
	"github.com/pthm-cable/fauna/traits"
)

// CellCapacity is the fixed number of slots per grid cell. Insertions into a
// full cell are dropped and counted, never reallocated.
const CellCapacity = 64

// SpatialEntry is one indexed creature. Position and type are captured at
// insert time so queries never chase component storage.
type SpatialEntry struct {
	Entity ecs.Entity
	ID     uint32
	Type   traits.Type
	X, Z   float32
}

type spatialCell struct {
	entries [CellCapacity]SpatialEntry
	count   int
}

// SpatialIndex is a uniform grid over the world footprint, rebuilt once per
// tick. Radius queries accumulate into a single reusable buffer: the returned
// view is valid only until the next query, callers that retain results must
// copy them.
type SpatialIndex struct {
	gridSize  int
	cellSide  float32
	halfWorld float32
	cells     []spatialCell

	queryBuf []SpatialEntry
	overflow uint64
	total    int
}

// NewSpatialIndex creates a gridSize x gridSize index covering a square world
// of the given width centered on the origin.
func NewSpatialIndex(worldWidth float32, gridSize int) *SpatialIndex {
	return &SpatialIndex{
		gridSize:  gridSize,
		cellSide:  worldWidth / float32(gridSize),
		halfWorld: worldWidth / 2,
		cells:     make([]spatialCell, gridSize*gridSize),
		queryBuf:  make([]SpatialEntry, 0, 256),
	}
}

// Clear empties every cell. Overflow statistics persist across clears.
func (s *SpatialIndex) Clear() {
	for i := range s.cells {
		s.cells[i].count = 0
	}
	s.total = 0
}

// Insert adds a creature at its current position. Returns false when the
// target cell is full; the drop is recorded in OverflowCount.
func (s *SpatialIndex) Insert(e ecs.Entity, id uint32, ctype traits.Type, pos components.Vec3) bool {
	cell := &s.cells[s.cellIndex(pos.X, pos.Z)]
	if cell.count >= CellCapacity {
		s.overflow++
		return false
	}
	cell.entries[cell.count] = SpatialEntry{Entity: e, ID: id, Type: ctype, X: pos.X, Z: pos.Z}
	cell.count++
	s.total++
	return true
}

// QueryRadius returns all indexed creatures within r of center in the
// horizontal plane. The view is invalidated by the next query on this index.
func (s *SpatialIndex) QueryRadius(center components.Vec3, r float32) []SpatialEntry {
	return s.query(center, r, traits.NumTypes)
}

// QueryRadiusByType is QueryRadius restricted to one creature type.
func (s *SpatialIndex) QueryRadiusByType(center components.Vec3, r float32, ctype traits.Type) []SpatialEntry {
	return s.query(center, r, ctype)
}

func (s *SpatialIndex) query(center components.Vec3, r float32, ctype traits.Type) []SpatialEntry {
	s.queryBuf = s.queryBuf[:0]
	if r < 0 {
		return s.queryBuf
	}
	rSq := r * r

	minCol, minRow := s.cellCoords(center.X-r, center.Z-r)
	maxCol, maxRow := s.cellCoords(center.X+r, center.Z+r)

	for row := minRow; row <= maxRow; row++ {
		for col := minCol; col <= maxCol; col++ {
			cell := &s.cells[row*s.gridSize+col]
			for i := 0; i < cell.count; i++ {
				en := &cell.entries[i]
				if ctype != traits.NumTypes && en.Type != ctype {
					continue
				}
				dx := en.X - center.X
				dz := en.Z - center.Z
				if dx*dx+dz*dz <= rSq {
					s.queryBuf = append(s.queryBuf, *en)
				}
			}
		}
	}
	return s.queryBuf
}

// FindNearest returns the closest indexed creature within r of center, or
// false when none qualifies. Pass traits.NumTypes as filter to accept any
// type; the filter is checked before any distance math.
func (s *SpatialIndex) FindNearest(center components.Vec3, r float32, filter traits.Type) (SpatialEntry, bool) {
	var best SpatialEntry
	bestSq := r * r
	found := false
	if r < 0 {
		return best, false
	}

	minCol, minRow := s.cellCoords(center.X-r, center.Z-r)
	maxCol, maxRow := s.cellCoords(center.X+r, center.Z+r)

	for row := minRow; row <= maxRow; row++ {
		for col := minCol; col <= maxCol; col++ {
			cell := &s.cells[row*s.gridSize+col]
			for i := 0; i < cell.count; i++ {
				en := &cell.entries[i]
				if filter != traits.NumTypes && en.Type != filter {
					continue
				}
				dx := en.X - center.X
				dz := en.Z - center.Z
				distSq := dx*dx + dz*dz
				if distSq <= bestSq && (!found || distSq < bestSq) {
					best = *en
					bestSq = distSq
					found = true
				}
			}
		}
	}
	return best, found
}

// CountInRadius counts indexed creatures within r of center without touching
// the query buffer.
func (s *SpatialIndex) CountInRadius(center components.Vec3, r float32) int {
	if r < 0 {
		return 0
	}
	rSq := r * r
	count := 0

	minCol, minRow := s.cellCoords(center.X-r, center.Z-r)
	maxCol, maxRow := s.cellCoords(center.X+r, center.Z+r)

	for row := minRow; row <= maxRow; row++ {
		for col := minCol; col <= maxCol; col++ {
			cell := &s.cells[row*s.gridSize+col]
			for i := 0; i < cell.count; i++ {
				en := &cell.entries[i]
				dx := en.X - center.X
				dz := en.Z - center.Z
				if dx*dx+dz*dz <= rSq {
					count++
				}
			}
		}
	}
	return count
}

// TotalCount returns the number of creatures currently indexed.
func (s *SpatialIndex) TotalCount() int { return s.total }

// OverflowCount returns the cumulative number of dropped insertions.
func (s *SpatialIndex) OverflowCount() uint64 { return s.overflow }

// cellCoords maps a world coordinate pair to clamped grid coordinates.
func (s *SpatialIndex) cellCoords(x, z float32) (col, row int) {
	col = int((x + s.halfWorld) / s.cellSide)
	row = int((z + s.halfWorld) / s.cellSide)
	if col < 0 {
		col = 0
	} else if col >= s.gridSize {
		col = s.gridSize - 1
	}
	if row < 0 {
		row = 0
	} else if row >= s.gridSize {
		row = s.gridSize - 1
	}
	return col, row
}

func (s *SpatialIndex) cellIndex(x, z float32) int {
	col, row := s.cellCoords(x, z)
	return row*s.gridSize + col
}
