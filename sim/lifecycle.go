package sim

import (
	"github.com/pthm-cable/fauna/behavior"
	"github.com/pthm-cable/fauna/genome"
	"github.com/pthm-cable/fauna/traits"
)

// applyCommands drains the behavior command queue onto creature state.
// Commands targeting creatures that died earlier in the tick are dropped.
func (s *Sim) applyCommands() {
	for _, c := range s.cmds.Drain() {
		entity, ok := s.entities[c.ID]
		if !ok {
			continue
		}
		cr := s.crMap.Get(entity)
		switch c.Kind {
		case behavior.CmdAdjustEnergy:
			cr.Energy += c.Amount
			if cr.Energy > cr.MaxEnergy {
				cr.Energy = cr.MaxEnergy
			}
		case behavior.CmdKill:
			cr.Alive = false
		case behavior.CmdSetHuntCooldown:
			cr.HuntingCooldown = c.Amount
		case behavior.CmdSetMigrationCooldown:
			cr.MigrationCooldown = c.Amount
		case behavior.CmdAddFear:
			cr.Fear = clamp01(cr.Fear + c.Amount)
		case behavior.CmdCreditKill:
			cr.KillCount++
			cr.FitnessModifier += c.Amount
		}
	}
}

// processBirths resolves the mating pairs queued during the pipeline.
// Births past the population cap are dropped and counted.
func (s *Sim) processBirths() {
	for _, b := range s.births {
		if len(s.entities) >= s.cfg.Sim.MaxPopulation {
			s.counters.BirthsDropped++
			continue
		}
		mEnt, mOK := s.entities[b.MotherID]
		fEnt, fOK := s.entities[b.FatherID]
		if !mOK || !fOK {
			continue
		}
		mother := s.crMap.Get(mEnt)
		father := s.crMap.Get(fEnt)
		if !mother.Alive || !father.Alive {
			continue
		}

		res, err := genome.Breed(
			s.genomes[b.MotherID], s.genomes[b.FatherID],
			mother.SpeciesID, father.SpeciesID,
			float64(mother.FitnessModifier)+float64(mother.KillCount),
			float64(father.FitnessModifier)+float64(father.KillCount),
			s.idGen, s.streams.Genome(), &s.cfg.Mutation,
		)
		if err != nil {
			s.counters.NonViable++
			continue
		}

		spawnRNG := s.streams.Spawn()
		pos := s.posMap.Get(mEnt).V
		pos.X += (spawnRNG.Float32()*2 - 1) * 2
		pos.Z += (spawnRNG.Float32()*2 - 1) * 2
		s.clampToWorld(&pos)

		gen := mother.Generation
		if father.Generation > gen {
			gen = father.Generation
		}
		id := s.spawnFromGenome(res.Child, mother.Type, pos, gen+1, b.MotherID, res.Sterile)
		s.coord.OnBirth(b.MotherID, id, mother.Type, s.now)
		s.species.RecordOffspring(mother.SpeciesID)
		s.counters.Births++
		if s.observer != nil {
			child := s.crMap.Get(s.entities[id])
			s.observer.CreatureBorn(id, b.MotherID, child.Type, child.SpeciesID, child.Generation, s.now)
		}
	}
	s.births = s.births[:0]
}

// cleanupDead flags exhausted and expired creatures, then removes every
// corpse. Collection and removal are separate passes so the query never
// observes its own mutations.
func (s *Sim) cleanupDead() {
	s.deaths = s.deaths[:0]

	query := s.filter.Query()
	for query.Next() {
		entity := query.Entity()
		_, _, cr, _, _ := query.Get()
		if cr.Alive && cr.Energy <= 0 {
			cr.Alive = false
		}
		if cr.Alive && cr.Age > traits.Get(cr.Type).Lifespan {
			cr.Alive = false
		}
		if !cr.Alive {
			s.deaths = append(s.deaths, deadCreature{entity: entity, id: cr.ID})
		}
	}

	for _, dead := range s.deaths {
		cr := s.crMap.Get(dead.entity)
		pos := s.posMap.Get(dead.entity).V
		s.planet.AddCarrion(pos, cr.MaxEnergy*float32(s.cfg.Sim.CarrionFraction))

		if s.observer != nil {
			s.observer.CreatureDied(dead.id, cr.Type, cr.SpeciesID,
				cr.Age, cr.KillCount, s.genomes[dead.id], s.now)
		}
		s.coord.OnDeath(dead.id)
		s.releaseSpecies(cr.SpeciesID)
		s.species.RemoveMember(cr.SpeciesID, dead.id)

		s.mapper.Remove(dead.entity)
		delete(s.entities, dead.id)
		delete(s.genomes, dead.id)
		delete(s.phens, dead.id)
		delete(s.brains, dead.id)
		s.counters.Deaths++
	}
}

// releaseSpecies drops one member from the species census and frees the
// species name once the last member is gone.
func (s *Sim) releaseSpecies(speciesID int) {
	s.speciesCount[speciesID]--
	if s.speciesCount[speciesID] > 0 {
		return
	}
	delete(s.speciesCount, speciesID)
	delete(s.speciesClass, speciesID)
	s.names.Release(uint32(speciesID))
}
