package genome

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/yaricom/goNEAT/v4/neat/genetics"
	neatmath "github.com/yaricom/goNEAT/v4/neat/math"
	"github.com/yaricom/goNEAT/v4/neat/network"

	"github.com/pthm-cable/fauna/config"
)

// Mutation constants
const (
	maxConnectionWeight = 8.0  // Maximum absolute connection weight
	maxLinkAttempts     = 20   // Maximum attempts to find a new connection
	initialInnovNum     = 1000 // Starting innovation number to avoid conflicts
)

// IDGen hands out unique genome IDs and innovation numbers. One generator is
// shared by the whole simulation so innovation numbers stay globally aligned.
type IDGen struct {
	nextID       int
	nextInnovNum int64
}

// NewIDGen creates a new generator.
func NewIDGen() *IDGen {
	return &IDGen{nextID: 1, nextInnovNum: initialInnovNum}
}

// NextID returns the next unique genome ID.
func (g *IDGen) NextID() int {
	id := g.nextID
	g.nextID++
	return id
}

// NextInnovation returns the next innovation number.
func (g *IDGen) NextInnovation() int64 {
	num := g.nextInnovNum
	g.nextInnovNum++
	return num
}

// State exposes the generator position for persistence.
func (g *IDGen) State() (nextID int, nextInnov int64) {
	return g.nextID, g.nextInnovNum
}

// RestoreIDGen rebuilds a generator at a saved position.
func RestoreIDGen(nextID int, nextInnov int64) *IDGen {
	return &IDGen{nextID: nextID, nextInnovNum: nextInnov}
}

// CreateBrainGenome creates a NEAT brain genome with sparse random
// input-output connectivity drawn from the given stream.
func CreateBrainGenome(id, numIn, numOut int, connectionProb float64, rng *rand.Rand) *genetics.Genome {
	nodes := make([]*network.NNode, 0, numIn+numOut)

	for i := 1; i <= numIn; i++ {
		node := network.NewNNode(i, network.InputNeuron)
		node.ActivationType = neatmath.LinearActivation
		nodes = append(nodes, node)
	}
	for i := 1; i <= numOut; i++ {
		node := network.NewNNode(numIn+i, network.OutputNeuron)
		node.ActivationType = neatmath.TanhActivation
		nodes = append(nodes, node)
	}

	genes := make([]*genetics.Gene, 0)
	innovNum := int64(1)

	for i := 0; i < numIn; i++ {
		for j := 0; j < numOut; j++ {
			// Always advance innovation so identical (in, out) pairs share
			// numbers across the population.
			currentInnov := innovNum
			innovNum++

			if rng.Float64() < connectionProb {
				weight := rng.Float64()*4 - 2
				gene := genetics.NewGeneWithTrait(nil, weight, nodes[i], nodes[numIn+j], false, currentInnov, 0)
				genes = append(genes, gene)
			}
		}
	}

	// At least one connection so the network is never empty.
	if len(genes) == 0 {
		gene := genetics.NewGeneWithTrait(nil, rng.Float64()*2-1, nodes[0], nodes[numIn], false, 1, 0)
		genes = append(genes, gene)
	}

	return genetics.NewGenome(id, nil, nodes, genes)
}

// MutateBrain applies topology and weight mutations: add-node,
// add-connection, toggle-enable and weight perturbation, with probabilities
// from the mutation config. Returns true if anything changed.
func MutateBrain(g *genetics.Genome, idGen *IDGen, rng *rand.Rand, cfg *config.MutationConfig) bool {
	if g == nil {
		return false
	}
	mutated := false

	if rng.Float64() < cfg.WeightProb {
		mutateWeights(g, cfg.WeightPower, rng)
		mutated = true
	}
	if rng.Float64() < cfg.AddNodeProb {
		if addNode(g, idGen, rng) {
			mutated = true
		}
	}
	if rng.Float64() < cfg.AddLinkProb {
		if addLink(g, idGen, rng) {
			mutated = true
		}
	}
	if rng.Float64() < cfg.ToggleProb {
		toggleEnable(g, rng)
		mutated = true
	}

	return mutated
}

func mutateWeights(g *genetics.Genome, power float64, rng *rand.Rand) {
	const perturbProb = 0.9
	for _, gene := range g.Genes {
		if rng.Float64() < perturbProb {
			gene.Link.ConnectionWeight += (rng.Float64()*2 - 1) * power
		} else {
			gene.Link.ConnectionWeight = rng.Float64()*4 - 2
		}
		gene.Link.ConnectionWeight = clampWeight(gene.Link.ConnectionWeight)
	}
}

func clampWeight(w float64) float64 {
	if w > maxConnectionWeight {
		return maxConnectionWeight
	}
	if w < -maxConnectionWeight {
		return -maxConnectionWeight
	}
	return w
}

func addNode(g *genetics.Genome, idGen *IDGen, rng *rand.Rand) bool {
	enabled := make([]*genetics.Gene, 0)
	for _, gene := range g.Genes {
		if gene.IsEnabled {
			enabled = append(enabled, gene)
		}
	}
	if len(enabled) == 0 {
		return false
	}

	geneToSplit := enabled[rng.Intn(len(enabled))]
	geneToSplit.IsEnabled = false

	maxNodeID := 0
	for _, node := range g.Nodes {
		if node.Id > maxNodeID {
			maxNodeID = node.Id
		}
	}

	newNode := network.NewNNode(maxNodeID+1, network.HiddenNeuron)
	newNode.ActivationType = neatmath.TanhActivation

	// Split: in -> new carries weight 1, new -> out carries the old weight.
	gene1 := genetics.NewGeneWithTrait(nil, 1.0, geneToSplit.Link.InNode, newNode, false, idGen.NextInnovation(), 0)
	gene2 := genetics.NewGeneWithTrait(nil, geneToSplit.Link.ConnectionWeight, newNode, geneToSplit.Link.OutNode, false, idGen.NextInnovation(), 0)

	g.Nodes = append(g.Nodes, newNode)
	g.Genes = append(g.Genes, gene1, gene2)

	return true
}

func addLink(g *genetics.Genome, idGen *IDGen, rng *rand.Rand) bool {
	inputs := make([]*network.NNode, 0)
	outputs := make([]*network.NNode, 0)
	hidden := make([]*network.NNode, 0)

	for _, node := range g.Nodes {
		switch node.NeuronType {
		case network.InputNeuron, network.BiasNeuron:
			inputs = append(inputs, node)
		case network.OutputNeuron:
			outputs = append(outputs, node)
		case network.HiddenNeuron:
			hidden = append(hidden, node)
		}
	}

	sources := append(inputs, hidden...)
	targets := append(hidden, outputs...)
	if len(sources) == 0 || len(targets) == 0 {
		return false
	}

	existing := make(map[int64]bool)
	for _, gene := range g.Genes {
		existing[connectionKey(gene.Link.InNode.Id, gene.Link.OutNode.Id)] = true
	}

	for attempt := 0; attempt < maxLinkAttempts; attempt++ {
		source := sources[rng.Intn(len(sources))]
		target := targets[rng.Intn(len(targets))]

		if source.Id == target.Id {
			continue
		}
		if existing[connectionKey(source.Id, target.Id)] {
			continue
		}

		newGene := genetics.NewGeneWithTrait(nil, rng.Float64()*4-2, source, target, false, idGen.NextInnovation(), 0)
		g.Genes = append(g.Genes, newGene)
		return true
	}

	return false
}

// connectionKey creates a unique key for a connection between two nodes.
func connectionKey(inID, outID int) int64 {
	return int64(inID)<<32 | int64(outID)
}

func toggleEnable(g *genetics.Genome, rng *rand.Rand) {
	if len(g.Genes) == 0 {
		return
	}

	gene := g.Genes[rng.Intn(len(g.Genes))]
	gene.IsEnabled = !gene.IsEnabled

	// Keep every output reachable: re-enable if this was the last enabled
	// gene into its output node.
	if !gene.IsEnabled {
		outNode := gene.Link.OutNode
		hasEnabled := false
		for _, other := range g.Genes {
			if other.Link.OutNode.Id == outNode.Id && other.IsEnabled {
				hasEnabled = true
				break
			}
		}
		if !hasEnabled {
			gene.IsEnabled = true
		}
	}
}

// CrossoverBrains performs NEAT-style crossover between two parent brain
// genomes. Genes align by innovation number; disjoint and excess genes come
// from the fitter parent.
func CrossoverBrains(parent1, parent2 *genetics.Genome, fitness1, fitness2 float64, childID int, rng *rand.Rand) (*genetics.Genome, error) {
	if parent1 == nil || parent2 == nil {
		return nil, fmt.Errorf("cannot crossover nil genomes")
	}

	var primary, secondary *genetics.Genome
	if fitness1 >= fitness2 {
		primary, secondary = parent1, parent2
	} else {
		primary, secondary = parent2, parent1
	}

	primaryGenes := make(map[int64]*genetics.Gene)
	for _, gene := range primary.Genes {
		primaryGenes[gene.InnovationNum] = gene
	}
	secondaryGenes := make(map[int64]*genetics.Gene)
	for _, gene := range secondary.Genes {
		secondaryGenes[gene.InnovationNum] = gene
	}

	innovSet := make(map[int64]bool)
	for innov := range primaryGenes {
		innovSet[innov] = true
	}
	for innov := range secondaryGenes {
		innovSet[innov] = true
	}

	// Sorted innovation order keeps crossover deterministic for a given
	// stream state.
	innovations := make([]int64, 0, len(innovSet))
	for innov := range innovSet {
		innovations = append(innovations, innov)
	}
	sort.Slice(innovations, func(i, j int) bool { return innovations[i] < innovations[j] })

	childNodeMap := make(map[int]*network.NNode)
	for _, node := range primary.Nodes {
		childNode := copyNode(node)
		childNodeMap[childNode.Id] = childNode
	}
	for _, node := range secondary.Nodes {
		if _, exists := childNodeMap[node.Id]; !exists {
			childNode := copyNode(node)
			childNodeMap[childNode.Id] = childNode
		}
	}

	childGenes := make([]*genetics.Gene, 0, len(innovations))

	for _, innov := range innovations {
		pGene := primaryGenes[innov]
		sGene := secondaryGenes[innov]

		var selected *genetics.Gene

		switch {
		case pGene != nil && sGene != nil:
			if rng.Float32() < 0.5 {
				selected = pGene
			} else {
				selected = sGene
			}
		case pGene != nil:
			// Disjoint/excess from the fitter parent.
			selected = pGene
		case fitness1 == fitness2 && sGene != nil:
			if rng.Float32() < 0.5 {
				selected = sGene
			}
		}

		if selected == nil {
			continue
		}

		inNode := childNodeMap[selected.Link.InNode.Id]
		outNode := childNodeMap[selected.Link.OutNode.Id]
		if inNode == nil || outNode == nil {
			continue
		}

		childGene := genetics.NewGeneWithTrait(
			nil,
			selected.Link.ConnectionWeight,
			inNode,
			outNode,
			selected.Link.IsRecurrent,
			selected.InnovationNum,
			selected.MutationNum,
		)
		childGene.IsEnabled = selected.IsEnabled
		childGenes = append(childGenes, childGene)
	}

	childNodes := make([]*network.NNode, 0, len(childNodeMap))
	for _, node := range childNodeMap {
		childNodes = append(childNodes, node)
	}
	sort.Slice(childNodes, func(i, j int) bool { return childNodes[i].Id < childNodes[j].Id })

	return genetics.NewGenome(childID, nil, childNodes, childGenes), nil
}

func copyNode(node *network.NNode) *network.NNode {
	newNode := network.NewNNode(node.Id, node.NeuronType)
	newNode.ActivationType = node.ActivationType
	return newNode
}

// CloneBrain creates a deep copy of a brain genome with a new ID.
func CloneBrain(g *genetics.Genome, newID int) (*genetics.Genome, error) {
	if g == nil {
		return nil, fmt.Errorf("cannot clone nil genome")
	}

	nodeMap := make(map[int]*network.NNode)
	newNodes := make([]*network.NNode, 0, len(g.Nodes))
	for _, node := range g.Nodes {
		newNode := copyNode(node)
		nodeMap[node.Id] = newNode
		newNodes = append(newNodes, newNode)
	}

	newGenes := make([]*genetics.Gene, 0, len(g.Genes))
	for _, gene := range g.Genes {
		inNode := nodeMap[gene.Link.InNode.Id]
		outNode := nodeMap[gene.Link.OutNode.Id]
		if inNode == nil || outNode == nil {
			continue
		}
		newGene := genetics.NewGeneWithTrait(
			nil,
			gene.Link.ConnectionWeight,
			inNode,
			outNode,
			gene.Link.IsRecurrent,
			gene.InnovationNum,
			gene.MutationNum,
		)
		newGene.IsEnabled = gene.IsEnabled
		newGenes = append(newGenes, newGene)
	}

	return genetics.NewGenome(newID, nil, newNodes, newGenes), nil
}

// BrainCompatibility calculates the NEAT compatibility distance between two
// brain genomes: a weighted sum of disjoint, excess and average weight
// difference terms.
func BrainCompatibility(g1, g2 *genetics.Genome, cfg *config.NeuralConfig) float64 {
	if g1 == nil || g2 == nil {
		return math.MaxFloat64
	}

	genes1 := make(map[int64]*genetics.Gene)
	for _, gene := range g1.Genes {
		genes1[gene.InnovationNum] = gene
	}
	genes2 := make(map[int64]*genetics.Gene)
	for _, gene := range g2.Genes {
		genes2[gene.InnovationNum] = gene
	}

	maxInnov1 := int64(0)
	for innov := range genes1 {
		if innov > maxInnov1 {
			maxInnov1 = innov
		}
	}
	maxInnov2 := int64(0)
	for innov := range genes2 {
		if innov > maxInnov2 {
			maxInnov2 = innov
		}
	}

	matching := 0
	disjoint := 0
	excess := 0
	weightDiff := 0.0

	for innov, gene1 := range genes1 {
		if gene2, exists := genes2[innov]; exists {
			matching++
			weightDiff += math.Abs(gene1.Link.ConnectionWeight - gene2.Link.ConnectionWeight)
		} else if innov > maxInnov2 {
			excess++
		} else {
			disjoint++
		}
	}
	for innov := range genes2 {
		if _, exists := genes1[innov]; !exists {
			if innov > maxInnov1 {
				excess++
			} else {
				disjoint++
			}
		}
	}

	n := float64(len(g1.Genes))
	if len(g2.Genes) > len(g1.Genes) {
		n = float64(len(g2.Genes))
	}
	if n < 20 {
		n = 1 // Don't normalize small genomes
	}

	avgWeightDiff := 0.0
	if matching > 0 {
		avgWeightDiff = weightDiff / float64(matching)
	}

	return (cfg.ExcessCoeff*float64(excess)+cfg.DisjointCoeff*float64(disjoint))/n +
		cfg.WeightCoeff*avgWeightDiff
}
