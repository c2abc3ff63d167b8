package systems

import (
	"testing"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/fauna/components"
	"github.com/pthm-cable/fauna/traits"
)

func vec(x, z float32) components.Vec3 {
	return components.Vec3{X: x, Z: z}
}

// TestSpatialQueryRadius verifies radius queries return exactly the creatures
// inside the circle.
func TestSpatialQueryRadius(t *testing.T) {
	idx := NewSpatialIndex(1000, 64)

	positions := []struct {
		id   uint32
		pos  components.Vec3
		want bool // within r=10 of the origin
	}{
		{1, vec(0, 0), true},
		{2, vec(5, 5), true},
		{3, vec(10, 0), true}, // exactly on the boundary
		{4, vec(11, 0), false},
		{5, vec(-300, 400), false},
		{6, vec(7, -7), true},
	}
	for _, p := range positions {
		idx.Insert(ecs.Entity{}, p.id, traits.Grazer, p.pos)
	}

	got := map[uint32]bool{}
	for _, en := range idx.QueryRadius(vec(0, 0), 10) {
		got[en.ID] = true
	}

	for _, p := range positions {
		if got[p.id] != p.want {
			t.Errorf("id %d in query = %v, want %v", p.id, got[p.id], p.want)
		}
	}
}

// TestSpatialQueryZeroRadius verifies r=0 returns only exact matches.
func TestSpatialQueryZeroRadius(t *testing.T) {
	idx := NewSpatialIndex(1000, 64)
	idx.Insert(ecs.Entity{}, 1, traits.Grazer, vec(3, 3))
	idx.Insert(ecs.Entity{}, 2, traits.Grazer, vec(3.01, 3))

	res := idx.QueryRadius(vec(3, 3), 0)
	if len(res) != 1 || res[0].ID != 1 {
		t.Errorf("zero-radius query = %v, want only id 1", res)
	}
}

// TestSpatialQueryByType verifies the type filter.
func TestSpatialQueryByType(t *testing.T) {
	idx := NewSpatialIndex(1000, 64)
	idx.Insert(ecs.Entity{}, 1, traits.Grazer, vec(0, 0))
	idx.Insert(ecs.Entity{}, 2, traits.ApexPredator, vec(1, 0))
	idx.Insert(ecs.Entity{}, 3, traits.Grazer, vec(2, 0))

	res := idx.QueryRadiusByType(vec(0, 0), 10, traits.Grazer)
	if len(res) != 2 {
		t.Fatalf("type query returned %d entries, want 2", len(res))
	}
	for _, en := range res {
		if en.Type != traits.Grazer {
			t.Errorf("type query returned %v", en.Type)
		}
	}
}

// TestSpatialFindNearest verifies nearest selection and the type filter
// short-circuit.
func TestSpatialFindNearest(t *testing.T) {
	idx := NewSpatialIndex(1000, 64)
	idx.Insert(ecs.Entity{}, 1, traits.Grazer, vec(8, 0))
	idx.Insert(ecs.Entity{}, 2, traits.ApexPredator, vec(3, 0))
	idx.Insert(ecs.Entity{}, 3, traits.Grazer, vec(5, 0))

	if en, ok := idx.FindNearest(vec(0, 0), 20, traits.NumTypes); !ok || en.ID != 2 {
		t.Errorf("nearest any = %v %v, want id 2", en, ok)
	}
	if en, ok := idx.FindNearest(vec(0, 0), 20, traits.Grazer); !ok || en.ID != 3 {
		t.Errorf("nearest grazer = %v %v, want id 3", en, ok)
	}
	if _, ok := idx.FindNearest(vec(400, 400), 5, traits.NumTypes); ok {
		t.Error("nearest in empty region reported a result")
	}
}

// TestSpatialClearInsertIdentity verifies clear-then-reinsert restores the
// total count.
func TestSpatialClearInsertIdentity(t *testing.T) {
	idx := NewSpatialIndex(1000, 64)
	for i := uint32(1); i <= 100; i++ {
		idx.Insert(ecs.Entity{}, i, traits.Grazer, vec(float32(i), float32(i)))
	}
	if idx.TotalCount() != 100 {
		t.Fatalf("total = %d, want 100", idx.TotalCount())
	}

	idx.Clear()
	if idx.TotalCount() != 0 {
		t.Fatalf("total after clear = %d, want 0", idx.TotalCount())
	}
	for i := uint32(1); i <= 100; i++ {
		idx.Insert(ecs.Entity{}, i, traits.Grazer, vec(float32(i), float32(i)))
	}
	if idx.TotalCount() != 100 {
		t.Errorf("total after reinsert = %d, want 100", idx.TotalCount())
	}
}

// TestSpatialCellOverflow verifies inserts beyond cell capacity are dropped
// and counted, not fatal.
func TestSpatialCellOverflow(t *testing.T) {
	idx := NewSpatialIndex(1000, 64)
	for i := uint32(1); i <= CellCapacity+10; i++ {
		idx.Insert(ecs.Entity{}, i, traits.Grazer, vec(1, 1)) // all in one cell
	}
	if idx.TotalCount() != CellCapacity {
		t.Errorf("total = %d, want %d", idx.TotalCount(), CellCapacity)
	}
	if idx.OverflowCount() != 10 {
		t.Errorf("overflow = %d, want 10", idx.OverflowCount())
	}
}

// TestSpatialOutOfBoundsClamped verifies positions past the world edge land
// in edge cells and remain queryable.
func TestSpatialOutOfBoundsClamped(t *testing.T) {
	idx := NewSpatialIndex(1000, 64)
	idx.Insert(ecs.Entity{}, 1, traits.Grazer, vec(5000, 5000))

	res := idx.QueryRadius(vec(5000, 5000), 1)
	if len(res) != 1 {
		t.Errorf("out-of-bounds creature not found, got %d entries", len(res))
	}
}

// TestSpatialCountInRadius verifies counting matches the query result size.
func TestSpatialCountInRadius(t *testing.T) {
	idx := NewSpatialIndex(1000, 64)
	for i := uint32(1); i <= 20; i++ {
		idx.Insert(ecs.Entity{}, i, traits.Grazer, vec(float32(i)*2, 0))
	}
	center := vec(0, 0)
	r := float32(15)
	if got, want := idx.CountInRadius(center, r), len(idx.QueryRadius(center, r)); got != want {
		t.Errorf("count = %d, query size = %d", got, want)
	}
}
