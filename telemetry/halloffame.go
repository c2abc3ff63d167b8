package telemetry

import (
	"encoding/json"
	"sort"

	"github.com/pthm-cable/fauna/genome"
	"github.com/pthm-cable/fauna/traits"
)

// FameEntry is one proven genome with the life record that earned it a slot.
type FameEntry struct {
	Genome   *genome.Diploid
	Score    float64
	AgeSec   float32
	Kills    int32
	Children int
	DiedSec  float64
}

// HallOfFame keeps the best genomes seen so far, one hall per creature
// type. Entries are ranked by a lifetime score and evicted from the bottom.
type HallOfFame struct {
	capacity int
	halls    [traits.NumTypes][]FameEntry
}

// NewHallOfFame creates halls with the given per-type capacity.
func NewHallOfFame(capacity int) *HallOfFame {
	if capacity <= 0 {
		capacity = 16
	}
	return &HallOfFame{capacity: capacity}
}

// score weights survival against reproductive and hunting success. Offspring
// count dominates; kills and survival break ties.
func score(lt Lifetime) float64 {
	return float64(lt.Children)*10 + float64(lt.Kills)*3 + float64(lt.AgeSec)*0.01
}

// Consider offers a dead creature's genome to its type's hall. The genome is
// cloned so later mutation of the caller's copy cannot touch the hall.
func (h *HallOfFame) Consider(ctype traits.Type, d *genome.Diploid, lt Lifetime) bool {
	if ctype >= traits.NumTypes || d == nil {
		return false
	}
	s := score(lt)
	hall := h.halls[ctype]
	if len(hall) >= h.capacity && s <= hall[len(hall)-1].Score {
		return false
	}

	entry := FameEntry{
		Genome:   d.Clone(),
		Score:    s,
		AgeSec:   lt.AgeSec,
		Kills:    lt.Kills,
		Children: lt.Children,
		DiedSec:  lt.DiedSec,
	}
	hall = append(hall, entry)
	sort.SliceStable(hall, func(i, j int) bool { return hall[i].Score > hall[j].Score })
	if len(hall) > h.capacity {
		hall = hall[:h.capacity]
	}
	h.halls[ctype] = hall
	return true
}

// Best returns the top entry for a type, or false when the hall is empty.
func (h *HallOfFame) Best(ctype traits.Type) (FameEntry, bool) {
	if ctype >= traits.NumTypes || len(h.halls[ctype]) == 0 {
		return FameEntry{}, false
	}
	return h.halls[ctype][0], true
}

// Entries returns the hall for a type, best first. The slice is shared;
// callers must not modify it.
func (h *HallOfFame) Entries(ctype traits.Type) []FameEntry {
	if ctype >= traits.NumTypes {
		return nil
	}
	return h.halls[ctype]
}

// Size reports the number of entries held for a type.
func (h *HallOfFame) Size(ctype traits.Type) int {
	if ctype >= traits.NumTypes {
		return 0
	}
	return len(h.halls[ctype])
}

type fameEntryJSON struct {
	Score    float64           `json:"score"`
	AgeSec   float32           `json:"age_sec"`
	Kills    int32             `json:"kills"`
	Children int               `json:"children"`
	DiedSec  float64           `json:"died_sec"`
	ChromA   genome.Chromosome `json:"chrom_a"`
	ChromB   genome.Chromosome `json:"chrom_b"`
	HasBrain bool              `json:"has_brain"`
}

// MarshalJSON exports all halls keyed by type name. Brain genomes are
// flagged but not serialized; the snapshot codec owns that format.
func (h *HallOfFame) MarshalJSON() ([]byte, error) {
	out := make(map[string][]fameEntryJSON, traits.NumTypes)
	for t := traits.Type(0); t < traits.NumTypes; t++ {
		if len(h.halls[t]) == 0 {
			continue
		}
		entries := make([]fameEntryJSON, 0, len(h.halls[t]))
		for _, e := range h.halls[t] {
			entries = append(entries, fameEntryJSON{
				Score:    e.Score,
				AgeSec:   e.AgeSec,
				Kills:    e.Kills,
				Children: e.Children,
				DiedSec:  e.DiedSec,
				ChromA:   e.Genome.A,
				ChromB:   e.Genome.B,
				HasBrain: e.Genome.Brain != nil,
			})
		}
		out[traits.Get(t).Name] = entries
	}
	return json.MarshalIndent(out, "", "  ")
}
