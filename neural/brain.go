package neural

import (
	"fmt"
	"math"

	"github.com/yaricom/goNEAT/v4/neat/genetics"
	"github.com/yaricom/goNEAT/v4/neat/network"
)

// Brain wraps a NEAT genome's phenotype network for runtime evaluation.
type Brain struct {
	Genome  *genetics.Genome
	network *network.Network
	viable  bool

	// Reused between ticks to avoid per-evaluation allocation.
	padded [BrainInputs]float64
}

// NewBrain creates a controller from a NEAT genome.
func NewBrain(g *genetics.Genome) (*Brain, error) {
	phenotype, err := g.Genesis(g.Id)
	if err != nil {
		return nil, fmt.Errorf("building network from genome: %w", err)
	}
	return &Brain{Genome: g, network: phenotype, viable: true}, nil
}

// Evaluate runs the network in topological order and maps the extended motor
// vector. Degenerate topologies collapse to neutral output and mark the
// brain non-viable.
func (b *Brain) Evaluate(inputs []float32) MotorOutput {
	if !b.viable {
		return Neutral()
	}

	// Pad or truncate to the fixed input width.
	for i := 0; i < BrainInputs; i++ {
		if i < len(inputs) {
			b.padded[i] = float64(inputs[i])
		} else {
			b.padded[i] = 0
		}
	}

	if err := b.network.LoadSensors(b.padded[:]); err != nil {
		b.viable = false
		return Neutral()
	}

	depth, err := b.network.MaxActivationDepth()
	if err != nil || depth < 1 {
		depth = 5 // Fallback for simple networks
	}

	for i := 0; i < depth; i++ {
		if _, err := b.network.Activate(); err != nil {
			b.viable = false
			return Neutral()
		}
	}

	outputs := b.network.ReadOutputs()

	// Flush activation state so the network is feed-forward across ticks.
	if _, err := b.network.Flush(); err != nil {
		b.viable = false
		return Neutral()
	}

	return motorFromOutputs(outputs)
}

// motorFromOutputs maps raw network outputs onto the motor vector.
// Output activations are tanh, so raw values sit in [-1, 1].
func motorFromOutputs(out []float64) MotorOutput {
	get := func(i int) float32 {
		if i < len(out) {
			v := out[i]
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return 0
			}
			return float32(v)
		}
		return 0
	}

	return MotorOutput{
		SteerAngle:        get(0) * math.Pi,
		SpeedScale:        clamp01(get(1)*0.5 + 0.5),
		AttackTendency:    clamp01(get(2)*0.5 + 0.5),
		FleeTendency:      clamp01(get(3)*0.5 + 0.5),
		GroupCohesionBias: clamp01(get(4)*0.5 + 0.5),
		ExploreBias:       clamp01(get(5)*0.5 + 0.5),
		EmitAlarm:         get(6) > 0.5,
		EmitMating:        get(7) > 0.5,
	}
}

// Viable reports whether the topology can still be evaluated.
func (b *Brain) Viable() bool {
	return b.viable
}

// Rebuild recreates the phenotype network after genome mutation.
func (b *Brain) Rebuild() error {
	phenotype, err := b.Genome.Genesis(b.Genome.Id)
	if err != nil {
		b.viable = false
		return fmt.Errorf("rebuilding network: %w", err)
	}
	b.network = phenotype
	b.viable = true
	return nil
}

// NodeCount returns the number of nodes in the network.
func (b *Brain) NodeCount() int {
	return b.network.NodeCount()
}

// LinkCount returns the number of connections in the network.
func (b *Brain) LinkCount() int {
	return b.network.LinkCount()
}
