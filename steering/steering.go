// Package steering implements the Reynolds steering kernel: pure functions
// producing force vectors capped at a maximum force. All forces act in the
// horizontal plane; vertical control is handled by the locomotion layer.
package steering

import (
	"math/rand"

	"github.com/pthm-cable/fauna/components"
)

// Params bundles the per-agent limits every steering call needs.
type Params struct {
	MaxSpeed float32
	MaxForce float32
}

// Seek steers toward a target at full speed.
func Seek(pos, vel, target components.Vec3, p Params) components.Vec3 {
	desired := target.Sub(pos)
	desired.Y = 0
	if desired.IsZero() {
		return components.Vec3{}
	}
	desired = desired.Normalized().Scale(p.MaxSpeed)
	return desired.Sub(vel).Truncated(p.MaxForce)
}

// Flee steers directly away from a threat at full speed.
func Flee(pos, vel, threat components.Vec3, p Params) components.Vec3 {
	desired := pos.Sub(threat)
	desired.Y = 0
	if desired.IsZero() {
		// Coincident with the threat: pick an arbitrary fixed direction.
		desired = components.Vec3{X: 1}
	}
	desired = desired.Normalized().Scale(p.MaxSpeed)
	return desired.Sub(vel).Truncated(p.MaxForce)
}

// Arrive seeks a target, slowing inside the given radius.
func Arrive(pos, vel, target components.Vec3, slowRadius float32, p Params) components.Vec3 {
	offset := target.Sub(pos)
	offset.Y = 0
	dist := offset.Len()
	if dist < 1e-4 {
		// At the target: brake.
		return vel.Scale(-1).Truncated(p.MaxForce)
	}
	speed := p.MaxSpeed
	if slowRadius > 0 && dist < slowRadius {
		speed = p.MaxSpeed * dist / slowRadius
	}
	desired := offset.Scale(speed / dist)
	return desired.Sub(vel).Truncated(p.MaxForce)
}

// Wander parameters: a target point jitters on a circle projected ahead of
// the current velocity. The wander target persists per agent so jitter
// accumulates instead of resetting.
const (
	wanderDistance = 8.0
	wanderRadius   = 4.0
	wanderJitter   = 1.5
)

// Wander produces an exploratory force. target is the agent's persisted
// wander point and is updated in place.
func Wander(pos, vel components.Vec3, target *components.Vec3, rng *rand.Rand, p Params) components.Vec3 {
	target.X += (rng.Float32()*2 - 1) * wanderJitter
	target.Z += (rng.Float32()*2 - 1) * wanderJitter
	target.Y = 0
	*target = target.Normalized().Scale(wanderRadius)

	ahead := vel
	ahead.Y = 0
	if ahead.IsZero() {
		ahead = components.Vec3{X: 1}
	}
	circleCenter := pos.Add(ahead.Normalized().Scale(wanderDistance))
	return Seek(pos, vel, circleCenter.Add(*target), p)
}

// basePrediction caps how far ahead pursuit and evasion extrapolate.
const basePrediction = 1.0

// Pursuit seeks the predicted future position of a moving target.
func Pursuit(pos, vel, targetPos, targetVel components.Vec3, p Params) components.Vec3 {
	offset := targetPos.Sub(pos)
	dist := offset.Len2D()
	speed := vel.Len2D()
	t := predictionTime(dist, speed)
	future := targetPos.Add(targetVel.Scale(t))
	return Seek(pos, vel, future, p)
}

// Evasion flees the predicted future position of a pursuer.
func Evasion(pos, vel, threatPos, threatVel components.Vec3, p Params) components.Vec3 {
	offset := threatPos.Sub(pos)
	dist := offset.Len2D()
	speed := vel.Len2D()
	t := predictionTime(dist, speed)
	future := threatPos.Add(threatVel.Scale(t))
	return Flee(pos, vel, future, p)
}

// predictionTime is clamp(distance/speed, 0, 2*basePrediction).
func predictionTime(dist, speed float32) float32 {
	if speed < 1e-4 {
		return 2 * basePrediction
	}
	t := dist / speed
	if t > 2*basePrediction {
		t = 2 * basePrediction
	}
	return t
}

// Neighbor is one nearby agent for the flocking terms.
type Neighbor struct {
	Pos components.Vec3
	Vel components.Vec3
}

// Separate pushes away from close neighbors, weighted by inverse distance.
func Separate(pos, vel components.Vec3, neighbors []Neighbor, p Params) components.Vec3 {
	var sum components.Vec3
	count := 0
	for _, n := range neighbors {
		diff := pos.Sub(n.Pos)
		diff.Y = 0
		d := diff.Len()
		if d < 1e-4 {
			continue
		}
		sum = sum.Add(diff.Scale(1 / (d * d)))
		count++
	}
	if count == 0 {
		return components.Vec3{}
	}
	desired := sum.Normalized().Scale(p.MaxSpeed)
	return desired.Sub(vel).Truncated(p.MaxForce)
}

// Align steers toward the average neighbor heading.
func Align(vel components.Vec3, neighbors []Neighbor, p Params) components.Vec3 {
	var sum components.Vec3
	for _, n := range neighbors {
		sum = sum.Add(n.Vel)
	}
	if len(neighbors) == 0 || sum.IsZero() {
		return components.Vec3{}
	}
	sum.Y = 0
	desired := sum.Normalized().Scale(p.MaxSpeed)
	return desired.Sub(vel).Truncated(p.MaxForce)
}

// Cohesion seeks the neighbor centroid.
func Cohesion(pos, vel components.Vec3, neighbors []Neighbor, p Params) components.Vec3 {
	if len(neighbors) == 0 {
		return components.Vec3{}
	}
	var center components.Vec3
	for _, n := range neighbors {
		center = center.Add(n.Pos)
	}
	center = center.Scale(1 / float32(len(neighbors)))
	return Seek(pos, vel, center, p)
}

// Flock combines separation, alignment and cohesion with the given weights.
func Flock(pos, vel components.Vec3, neighbors []Neighbor, wSep, wAli, wCoh float32, p Params) components.Vec3 {
	force := Separate(pos, vel, neighbors, p).Scale(wSep)
	force = force.Add(Align(vel, neighbors, p).Scale(wAli))
	force = force.Add(Cohesion(pos, vel, neighbors, p).Scale(wCoh))
	return force.Truncated(p.MaxForce)
}

// AvoidBoundary produces an urgency-scaled inward force within margin of the
// world edges. halfWorld is W/2; the force is strictly inward at the edge.
func AvoidBoundary(pos components.Vec3, halfWorld, margin float32, p Params) components.Vec3 {
	var force components.Vec3

	if d := pos.X - (-halfWorld); d < margin {
		force.X += urgency(d, margin) * p.MaxForce
	}
	if d := halfWorld - pos.X; d < margin {
		force.X -= urgency(d, margin) * p.MaxForce
	}
	if d := pos.Z - (-halfWorld); d < margin {
		force.Z += urgency(d, margin) * p.MaxForce
	}
	if d := halfWorld - pos.Z; d < margin {
		force.Z -= urgency(d, margin) * p.MaxForce
	}

	return force.Truncated(p.MaxForce)
}

// urgency grows from 0 at the margin edge to 1 at (or beyond) the boundary.
func urgency(dist, margin float32) float32 {
	if dist <= 0 {
		return 1
	}
	if dist >= margin {
		return 0
	}
	return 1 - dist/margin
}

// ApplyForce integrates a steering force over dt and clamps to max speed.
func ApplyForce(vel, force components.Vec3, dt float32, p Params) components.Vec3 {
	v := vel.Add(force.Scale(dt))
	return v.Truncated(p.MaxSpeed)
}
