package sim

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/yaricom/goNEAT/v4/neat/genetics"
	neatmath "github.com/yaricom/goNEAT/v4/neat/math"
	"github.com/yaricom/goNEAT/v4/neat/network"

	"github.com/pthm-cable/fauna/behavior"
	"github.com/pthm-cable/fauna/components"
	"github.com/pthm-cable/fauna/config"
	"github.com/pthm-cable/fauna/genome"
	"github.com/pthm-cable/fauna/rng"
	"github.com/pthm-cable/fauna/traits"
)

// snapshotMagic marks a fauna snapshot stream.
const snapshotMagic uint32 = 0xFA0A0001

// snapshotVersion is bumped on any layout change.
const snapshotVersion uint32 = 1

// SnapshotWriter is the primitive sink a snapshot is written through. Put
// calls after a failure are no-ops; the first error is reported by Err.
type SnapshotWriter interface {
	PutU8(v uint8)
	PutU32(v uint32)
	PutU64(v uint64)
	PutI64(v int64)
	PutF32(v float32)
	PutF64(v float64)
	PutBool(v bool)
	Err() error
}

// SnapshotReader is the primitive source a snapshot is read from. Get calls
// after a failure return zero values; the first error is reported by Err.
type SnapshotReader interface {
	U8() uint8
	U32() uint32
	U64() uint64
	I64() int64
	F32() float32
	F64() float64
	Bool() bool
	Err() error
}

// WriteSnapshot serializes the full creature population plus the clock and
// generator positions. Planet terrain and food regrow deterministically
// from the seed; behavior records are transient and rebuild within a few
// ticks of a restore.
func (s *Sim) WriteSnapshot(w SnapshotWriter) error {
	w.PutU32(snapshotMagic)
	w.PutU32(snapshotVersion)
	w.PutI64(s.streams.PlanetSeed())
	w.PutF64(s.now)
	w.PutU64(s.tick)
	w.PutU32(s.nextID)

	nextGenomeID, nextInnov := s.idGen.State()
	w.PutU64(uint64(nextGenomeID))
	w.PutI64(nextInnov)

	w.PutU64(s.counters.Births)
	w.PutU64(s.counters.Deaths)
	w.PutU64(s.counters.BirthsDropped)
	w.PutU64(s.counters.NonViable)
	w.PutU64(s.counters.InvalidInput)

	ids := make([]uint32, 0, len(s.entities))
	for id := range s.entities {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	w.PutU32(uint32(len(ids)))
	for _, id := range ids {
		s.writeCreature(w, id)
	}
	return w.Err()
}

func (s *Sim) writeCreature(w SnapshotWriter, id uint32) {
	entity := s.entities[id]
	pos := s.posMap.Get(entity)
	vel := s.velMap.Get(entity)
	cr := s.crMap.Get(entity)
	mem := s.memMap.Get(entity)

	w.PutU32(cr.ID)
	w.PutU8(uint8(cr.Type))
	w.PutU32(uint32(cr.Generation))
	w.PutU32(cr.ParentID)
	w.PutBool(cr.Sterile)
	w.PutBool(cr.Alive)

	putVec3(w, pos.V)
	putVec3(w, vel.V)
	putVec3(w, cr.WanderTarget)
	w.PutF32(cr.Facing)
	w.PutF32(cr.Energy)
	w.PutF32(cr.MaxEnergy)
	w.PutF32(cr.Age)
	w.PutF32(cr.Fear)
	w.PutF32(cr.FitnessModifier)
	w.PutU32(uint32(cr.KillCount))
	w.PutF32(cr.HuntingCooldown)
	w.PutF32(cr.MigrationCooldown)
	w.PutF32(cr.ReproCooldown)

	w.PutU8(mem.Count)
	for i := 0; i < int(mem.Count); i++ {
		e := &mem.Entries[i]
		putVec3(w, e.Location)
		w.PutU8(uint8(e.Kind))
		w.PutF32(e.Strength)
		w.PutF32(e.Importance)
		w.PutF32(e.Timestamp)
	}

	writeGenome(w, s.genomes[id])
}

func writeGenome(w SnapshotWriter, d *genome.Diploid) {
	for i := 0; i < genome.NumLoci; i++ {
		w.PutF32(d.A[i])
	}
	for i := 0; i < genome.NumLoci; i++ {
		w.PutF32(d.B[i])
	}
	w.PutBool(d.NonViable)

	w.PutBool(d.Brain != nil)
	if d.Brain == nil {
		return
	}
	b := d.Brain
	w.PutU32(uint32(b.Id))
	w.PutU32(uint32(len(b.Nodes)))
	for _, n := range b.Nodes {
		w.PutU32(uint32(n.Id))
		w.PutU8(uint8(n.NeuronType))
		w.PutU8(uint8(n.ActivationType))
	}
	w.PutU32(uint32(len(b.Genes)))
	for _, g := range b.Genes {
		w.PutI64(g.InnovationNum)
		w.PutU32(uint32(g.Link.InNode.Id))
		w.PutU32(uint32(g.Link.OutNode.Id))
		w.PutF64(g.Link.ConnectionWeight)
		w.PutBool(g.IsEnabled)
	}
}

func putVec3(w SnapshotWriter, v components.Vec3) {
	w.PutF32(v.X)
	w.PutF32(v.Y)
	w.PutF32(v.Z)
}

func getVec3(r SnapshotReader) components.Vec3 {
	return components.Vec3{X: r.F32(), Y: r.F32(), Z: r.F32()}
}

// Restore rebuilds a simulation from a snapshot stream. Species identity is
// re-derived by re-speciating the restored genomes in id order, which is
// deterministic for a given snapshot.
func Restore(cfg *config.Config, r SnapshotReader, log *slog.Logger) (*Sim, error) {
	if magic := r.U32(); magic != snapshotMagic {
		return nil, fmt.Errorf("snapshot: bad magic %#x", magic)
	}
	if v := r.U32(); v != snapshotVersion {
		return nil, fmt.Errorf("snapshot: unsupported version %d", v)
	}

	seed := r.I64()
	now := r.F64()
	tick := r.U64()
	nextID := r.U32()
	nextGenomeID := int(r.U64())
	nextInnov := r.I64()

	s := newSim(cfg, seed, log)
	// Stream positions are not recoverable; derive fresh streams from the
	// seed and the restore point so the restored run stays self-consistent.
	s.streams = rng.NewStreams(seed ^ int64(tick+1))
	s.coord = behavior.NewCoordinator(cfg, s.planet, s.streams.Variety())
	s.now = now
	s.tick = tick
	s.idGen = genome.RestoreIDGen(nextGenomeID, nextInnov)

	s.counters.Births = r.U64()
	s.counters.Deaths = r.U64()
	s.counters.BirthsDropped = r.U64()
	s.counters.NonViable = r.U64()
	s.counters.InvalidInput = r.U64()

	count := int(r.U32())
	for i := 0; i < count; i++ {
		if err := s.readCreature(r); err != nil {
			return nil, err
		}
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	s.nextID = nextID
	s.view.refresh()
	return s, nil
}

func (s *Sim) readCreature(r SnapshotReader) error {
	id := r.U32()
	ctype := traits.Type(r.U8())
	if ctype >= traits.NumTypes {
		return fmt.Errorf("snapshot: creature %d has unknown type %d", id, ctype)
	}
	generation := int(r.U32())
	parentID := r.U32()
	sterile := r.Bool()
	alive := r.Bool()

	pos := getVec3(r)
	vel := getVec3(r)
	wander := getVec3(r)
	facing := r.F32()
	energy := r.F32()
	maxEnergy := r.F32()
	age := r.F32()
	fear := r.F32()
	fitness := r.F32()
	kills := int32(r.U32())
	huntCD := r.F32()
	migCD := r.F32()
	reproCD := r.F32()

	var mem components.MemoryBuffer
	mem.Count = r.U8()
	if mem.Count > components.MemoryCapacity {
		return fmt.Errorf("snapshot: creature %d memory overflow", id)
	}
	for i := 0; i < int(mem.Count); i++ {
		mem.Entries[i] = components.MemoryEntry{
			Location:   getVec3(r),
			Kind:       components.MemoryKind(r.U8()),
			Strength:   r.F32(),
			Importance: r.F32(),
			Timestamp:  r.F32(),
		}
	}

	d, err := readGenome(r)
	if err != nil {
		return fmt.Errorf("snapshot: creature %d: %w", id, err)
	}

	// Re-register through the normal spawn path under the saved id, then
	// overwrite the physiological state with the saved values.
	s.spawnWithID(id, d, ctype, pos, generation, parentID, sterile)
	entity := s.entities[id]

	cr := s.crMap.Get(entity)
	cr.Alive = alive
	cr.Energy = energy
	cr.MaxEnergy = maxEnergy
	cr.Age = age
	cr.Fear = fear
	cr.Facing = facing
	cr.FitnessModifier = fitness
	cr.KillCount = kills
	cr.HuntingCooldown = huntCD
	cr.MigrationCooldown = migCD
	cr.ReproCooldown = reproCD
	cr.WanderTarget = wander

	s.posMap.Get(entity).V = pos
	s.velMap.Get(entity).V = vel
	*s.memMap.Get(entity) = mem
	return nil
}

func readGenome(r SnapshotReader) (*genome.Diploid, error) {
	d := &genome.Diploid{}
	for i := 0; i < genome.NumLoci; i++ {
		d.A[i] = r.F32()
	}
	for i := 0; i < genome.NumLoci; i++ {
		d.B[i] = r.F32()
	}
	d.NonViable = r.Bool()

	if !r.Bool() {
		return d, r.Err()
	}

	gid := int(r.U32())
	nodeCount := int(r.U32())
	nodes := make([]*network.NNode, 0, nodeCount)
	byID := make(map[int]*network.NNode, nodeCount)
	for i := 0; i < nodeCount; i++ {
		nid := int(r.U32())
		node := network.NewNNode(nid, network.NodeNeuronType(r.U8()))
		node.ActivationType = neatmath.NodeActivationType(r.U8())
		nodes = append(nodes, node)
		byID[nid] = node
	}

	geneCount := int(r.U32())
	genes := make([]*genetics.Gene, 0, geneCount)
	for i := 0; i < geneCount; i++ {
		innov := r.I64()
		in := byID[int(r.U32())]
		out := byID[int(r.U32())]
		weight := r.F64()
		enabled := r.Bool()
		if in == nil || out == nil {
			return nil, fmt.Errorf("gene references unknown node")
		}
		g := genetics.NewGeneWithTrait(nil, weight, in, out, false, innov, 0)
		g.IsEnabled = enabled
		genes = append(genes, g)
	}

	d.Brain = genetics.NewGenome(gid, nil, nodes, genes)
	return d, r.Err()
}
