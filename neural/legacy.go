package neural

import (
	"math"

	"github.com/pthm-cable/fauna/genome"
)

// Legacy network dimensions: 4 inputs, 4 hidden, 2 outputs, tanh throughout.
const (
	legacyIn     = 4
	legacyHidden = 4
	legacyOut    = 2
)

// Legacy is the fixed-topology 4-4-2 controller. Its weights come straight
// from the genome's legacy weight vector; there is no topology evolution.
type Legacy struct {
	w1 [legacyHidden][legacyIn]float32
	b1 [legacyHidden]float32
	w2 [legacyOut][legacyHidden]float32
	b2 [legacyOut]float32
}

// NewLegacy builds the controller from a phenotype weight vector.
// Layout: 16 input weights, 4 hidden biases, 8 output weights, 2 output biases.
func NewLegacy(weights *[genome.LegacyWeightCount]float32) *Legacy {
	nn := &Legacy{}
	idx := 0
	for i := 0; i < legacyHidden; i++ {
		for j := 0; j < legacyIn; j++ {
			nn.w1[i][j] = weights[idx]
			idx++
		}
	}
	for i := 0; i < legacyHidden; i++ {
		nn.b1[i] = weights[idx]
		idx++
	}
	for i := 0; i < legacyOut; i++ {
		for j := 0; j < legacyHidden; j++ {
			nn.w2[i][j] = weights[idx]
			idx++
		}
	}
	for i := 0; i < legacyOut; i++ {
		nn.b2[i] = weights[idx]
		idx++
	}
	return nn
}

// Evaluate runs the network on the self-state prefix of the input vector.
func (nn *Legacy) Evaluate(inputs []float32) MotorOutput {
	var in [legacyIn]float32
	for i := 0; i < legacyIn && i < len(inputs); i++ {
		in[i] = inputs[i]
	}

	var hidden [legacyHidden]float32
	for i := 0; i < legacyHidden; i++ {
		sum := nn.b1[i]
		for j := 0; j < legacyIn; j++ {
			sum += nn.w1[i][j] * in[j]
		}
		hidden[i] = tanh(sum)
	}

	var out [legacyOut]float32
	for i := 0; i < legacyOut; i++ {
		sum := nn.b2[i]
		for j := 0; j < legacyHidden; j++ {
			sum += nn.w2[i][j] * hidden[j]
		}
		out[i] = tanh(sum)
	}

	return MotorOutput{
		SteerAngle: out[0] * math.Pi,
		SpeedScale: clamp01(out[1]*0.5 + 0.5),
	}
}

// Viable always holds for the fixed topology.
func (nn *Legacy) Viable() bool {
	return true
}
