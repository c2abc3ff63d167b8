// Package neural provides the creature decision controllers: a legacy
// fixed-topology feedforward network and an evolvable NEAT network. Both
// consume the fixed-width input vector produced by the sensory system.
package neural

import "math"

// Input vector layout. Self-state comes first so the legacy controller can
// read a stable prefix; each sense then gets TopK slots of SlotWidth values
// (distance, relative angle, signal strength).
const (
	SelfInputs = 4 // energy, speed, fear, age
	NumSenses  = 4 // vision, hearing, smell, touch
	TopK       = 3
	SlotWidth  = 3

	// BrainInputs is the full fixed-width vector length: 4 + 4*3*3 = 40.
	BrainInputs = SelfInputs + NumSenses*TopK*SlotWidth

	// BrainOutputs is the extended NEAT motor vector width.
	BrainOutputs = 8
)

// Self-state indices.
const (
	InEnergy = iota
	InSpeed
	InFear
	InAge
)

// SenseSlot returns the base index of slot k for a sense ordinal.
func SenseSlot(sense, k int) int {
	return SelfInputs + (sense*TopK+k)*SlotWidth
}

// MotorOutput is the decision vector consumed by the behavior layer.
// Legacy controllers fill only SteerAngle and SpeedScale.
type MotorOutput struct {
	SteerAngle        float32 // [-pi, pi] desired heading change
	SpeedScale        float32 // [0,1] of max speed
	AttackTendency    float32 // [0,1]
	FleeTendency      float32 // [0,1]
	GroupCohesionBias float32 // [0,1]
	ExploreBias       float32 // [0,1]
	EmitAlarm         bool
	EmitMating        bool
}

// Neutral is the safe output used when a controller cannot evaluate.
func Neutral() MotorOutput {
	return MotorOutput{SpeedScale: 0.5}
}

// Controller evaluates sensory inputs into motor output.
type Controller interface {
	// Evaluate runs the network on a fixed-width input vector. Inputs
	// shorter than the controller's width are padded with zeros
	// deterministically; longer inputs are truncated.
	Evaluate(inputs []float32) MotorOutput

	// Viable reports whether the controller's topology can be evaluated.
	Viable() bool
}

// tanh is a float32 wrapper over math.Tanh.
func tanh(x float32) float32 {
	return float32(math.Tanh(float64(x)))
}

// clamp01 clamps x to [0,1].
func clamp01(x float32) float32 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
