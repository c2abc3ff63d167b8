package steering

import (
	"math"
	"math/rand"
	"testing"

	"github.com/pthm-cable/fauna/components"
)

var testParams = Params{MaxSpeed: 10, MaxForce: 5}

// TestSeekPointsTowardTarget verifies seek produces a force toward the target
// and never exceeds max force.
func TestSeekPointsTowardTarget(t *testing.T) {
	pos := components.Vec3{X: 0, Z: 0}
	vel := components.Vec3{}
	target := components.Vec3{X: 100, Z: 0}

	force := Seek(pos, vel, target, testParams)
	if force.X <= 0 {
		t.Errorf("seek force X = %f, want > 0", force.X)
	}
	if math.Abs(float64(force.Z)) > 0.01 {
		t.Errorf("seek force Z = %f, want 0", force.Z)
	}
	if l := force.Len(); l > testParams.MaxForce+0.01 {
		t.Errorf("seek force length = %f, exceeds max %f", l, testParams.MaxForce)
	}
}

// TestSeekAtTarget verifies a zero offset yields no force.
func TestSeekAtTarget(t *testing.T) {
	pos := components.Vec3{X: 5, Z: 5}
	force := Seek(pos, components.Vec3{}, pos, testParams)
	if !force.IsZero() {
		t.Errorf("seek at target = %v, want zero", force)
	}
}

// TestFleePointsAwayFromThreat verifies flee is the mirror of seek.
func TestFleePointsAwayFromThreat(t *testing.T) {
	pos := components.Vec3{X: 0, Z: 0}
	threat := components.Vec3{X: 10, Z: 0}

	force := Flee(pos, components.Vec3{}, threat, testParams)
	if force.X >= 0 {
		t.Errorf("flee force X = %f, want < 0", force.X)
	}
}

// TestFleeCoincidentThreat verifies a threat at the same position still
// produces a nonzero escape force.
func TestFleeCoincidentThreat(t *testing.T) {
	pos := components.Vec3{X: 3, Z: 3}
	force := Flee(pos, components.Vec3{}, pos, testParams)
	if force.IsZero() {
		t.Error("flee from coincident threat produced zero force")
	}
}

// TestArriveSlowsInsideRadius verifies desired speed scales down inside the
// slow radius.
func TestArriveSlowsInsideRadius(t *testing.T) {
	pos := components.Vec3{}
	vel := components.Vec3{}
	slowRadius := float32(20)

	far := Arrive(pos, vel, components.Vec3{X: 100}, slowRadius, testParams)
	near := Arrive(pos, vel, components.Vec3{X: 5}, slowRadius, testParams)

	if near.Len() >= far.Len() {
		t.Errorf("arrive near force %f >= far force %f, want slower near target", near.Len(), far.Len())
	}
}

// TestArriveAtTargetBrakes verifies arrive opposes velocity when on target.
func TestArriveAtTargetBrakes(t *testing.T) {
	pos := components.Vec3{X: 1, Z: 1}
	vel := components.Vec3{X: 4}
	force := Arrive(pos, vel, pos, 10, testParams)
	if force.X >= 0 {
		t.Errorf("arrive braking force X = %f, want < 0", force.X)
	}
}

// TestWanderPersistsTarget verifies the per-agent wander target accumulates
// jitter and stays on the wander circle.
func TestWanderPersistsTarget(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	pos := components.Vec3{}
	vel := components.Vec3{X: 2}
	target := components.Vec3{X: wanderRadius}

	prev := target
	for i := 0; i < 50; i++ {
		force := Wander(pos, vel, &target, rng, testParams)
		if l := force.Len(); l > testParams.MaxForce+0.01 {
			t.Fatalf("wander force length = %f, exceeds max", l)
		}
		if r := target.Len(); math.Abs(float64(r-wanderRadius)) > 0.01 {
			t.Fatalf("wander target radius = %f, want %f", r, wanderRadius)
		}
	}
	if target == prev {
		t.Error("wander target did not move")
	}
}

// TestWanderDeterministic verifies identical seeds produce identical forces.
func TestWanderDeterministic(t *testing.T) {
	run := func() []components.Vec3 {
		rng := rand.New(rand.NewSource(7))
		target := components.Vec3{X: wanderRadius}
		pos := components.Vec3{}
		vel := components.Vec3{X: 1}
		var out []components.Vec3
		for i := 0; i < 20; i++ {
			out = append(out, Wander(pos, vel, &target, rng, testParams))
		}
		return out
	}

	a, b := run(), run()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("wander diverged at step %d: %v vs %v", i, a[i], b[i])
		}
	}
}

// TestPursuitLeadsTarget verifies pursuit aims ahead of a moving target.
func TestPursuitLeadsTarget(t *testing.T) {
	pos := components.Vec3{}
	vel := components.Vec3{X: 5}
	targetPos := components.Vec3{X: 20}
	targetVel := components.Vec3{Z: 5} // moving sideways

	force := Pursuit(pos, vel, targetPos, targetVel, testParams)
	direct := Seek(pos, vel, targetPos, testParams)

	// Pursuit should bend toward the target's direction of travel.
	if force.Z <= direct.Z {
		t.Errorf("pursuit Z = %f, direct seek Z = %f, want pursuit to lead", force.Z, direct.Z)
	}
}

// TestEvasionPredictionClamped verifies slow pursuers do not cause runaway
// extrapolation: prediction time is capped.
func TestEvasionPredictionClamped(t *testing.T) {
	if got := predictionTime(1000, 0.5); got != 2*basePrediction {
		t.Errorf("predictionTime(1000, 0.5) = %f, want %f", got, 2*basePrediction)
	}
	if got := predictionTime(1000, 0); got != 2*basePrediction {
		t.Errorf("predictionTime with zero speed = %f, want %f", got, 2*basePrediction)
	}
	if got := predictionTime(5, 10); math.Abs(float64(got-0.5)) > 1e-4 {
		t.Errorf("predictionTime(5, 10) = %f, want 0.5", got)
	}
}

// TestEvasionFleesFuturePosition verifies evasion moves away from where the
// pursuer will be, not where it is.
func TestEvasionFleesFuturePosition(t *testing.T) {
	pos := components.Vec3{}
	threatPos := components.Vec3{X: -10}
	threatVel := components.Vec3{X: 20} // closing fast

	force := Evasion(pos, components.Vec3{X: 1}, threatPos, threatVel, testParams)
	if force.IsZero() {
		t.Fatal("evasion produced zero force")
	}
}

// TestFlockingTerms exercises separate, align and cohesion against a small
// neighborhood.
func TestFlockingTerms(t *testing.T) {
	pos := components.Vec3{}
	vel := components.Vec3{}
	neighbors := []Neighbor{
		{Pos: components.Vec3{X: 2}, Vel: components.Vec3{Z: 3}},
		{Pos: components.Vec3{X: 4}, Vel: components.Vec3{Z: 3}},
	}

	sep := Separate(pos, vel, neighbors, testParams)
	if sep.X >= 0 {
		t.Errorf("separation X = %f, want < 0 (away from neighbors)", sep.X)
	}

	ali := Align(vel, neighbors, testParams)
	if ali.Z <= 0 {
		t.Errorf("alignment Z = %f, want > 0 (match neighbor heading)", ali.Z)
	}

	coh := Cohesion(pos, vel, neighbors, testParams)
	if coh.X <= 0 {
		t.Errorf("cohesion X = %f, want > 0 (toward centroid)", coh.X)
	}
}

// TestFlockingEmptyNeighborhood verifies all flocking terms are zero with no
// neighbors.
func TestFlockingEmptyNeighborhood(t *testing.T) {
	pos := components.Vec3{}
	vel := components.Vec3{X: 1}

	if f := Separate(pos, vel, nil, testParams); !f.IsZero() {
		t.Errorf("separate(nil) = %v, want zero", f)
	}
	if f := Align(vel, nil, testParams); !f.IsZero() {
		t.Errorf("align(nil) = %v, want zero", f)
	}
	if f := Cohesion(pos, vel, nil, testParams); !f.IsZero() {
		t.Errorf("cohesion(nil) = %v, want zero", f)
	}
	if f := Flock(pos, vel, nil, 1, 1, 1, testParams); !f.IsZero() {
		t.Errorf("flock(nil) = %v, want zero", f)
	}
}

// TestAvoidBoundary verifies the inward force ramps up as the agent nears the
// edge and is zero in the interior.
func TestAvoidBoundary(t *testing.T) {
	halfWorld := float32(500)
	margin := float32(50)

	tests := []struct {
		name  string
		pos   components.Vec3
		check func(f components.Vec3) bool
	}{
		{
			name:  "interior is force-free",
			pos:   components.Vec3{X: 0, Z: 0},
			check: func(f components.Vec3) bool { return f.IsZero() },
		},
		{
			name:  "near east edge pushes west",
			pos:   components.Vec3{X: 480},
			check: func(f components.Vec3) bool { return f.X < 0 },
		},
		{
			name:  "near west edge pushes east",
			pos:   components.Vec3{X: -480},
			check: func(f components.Vec3) bool { return f.X > 0 },
		},
		{
			name:  "near north edge pushes south",
			pos:   components.Vec3{Z: -490},
			check: func(f components.Vec3) bool { return f.Z > 0 },
		},
		{
			name:  "corner pushes diagonally inward",
			pos:   components.Vec3{X: 495, Z: 495},
			check: func(f components.Vec3) bool { return f.X < 0 && f.Z < 0 },
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			force := AvoidBoundary(tc.pos, halfWorld, margin, testParams)
			if !tc.check(force) {
				t.Errorf("AvoidBoundary(%v) = %v", tc.pos, force)
			}
			if l := force.Len(); l > testParams.MaxForce+0.01 {
				t.Errorf("boundary force length = %f, exceeds max", l)
			}
		})
	}
}

// TestAvoidBoundaryUrgencyGrows verifies the force grows monotonically as the
// agent approaches the edge.
func TestAvoidBoundaryUrgencyGrows(t *testing.T) {
	halfWorld := float32(500)
	margin := float32(50)

	prev := float32(-1)
	for _, x := range []float32{460, 470, 480, 490, 499} {
		f := AvoidBoundary(components.Vec3{X: x}, halfWorld, margin, testParams)
		mag := f.Len()
		if mag <= prev {
			t.Fatalf("boundary force at X=%f is %f, not greater than %f", x, mag, prev)
		}
		prev = mag
	}
}

// TestApplyForceClampsSpeed verifies a large force cannot push velocity past
// max speed.
func TestApplyForceClampsSpeed(t *testing.T) {
	vel := components.Vec3{X: 9}
	force := components.Vec3{X: 1000}

	got := ApplyForce(vel, force, 1.0, testParams)
	if l := got.Len(); l > testParams.MaxSpeed+0.01 {
		t.Errorf("speed after apply = %f, exceeds max %f", l, testParams.MaxSpeed)
	}
	if got.X <= vel.X {
		t.Errorf("velocity X = %f, want > %f", got.X, vel.X)
	}
}
