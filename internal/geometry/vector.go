// Package geometry implements the 2D/3D primitives the race server needs to
// judge on-track behaviour: track-limits containment, path progress and
// grid-spawn lookup. It intentionally knows nothing about cars, clients or
// the wire protocol.
package geometry

import "math"

// Vec2 is a point or vector in the track's horizontal plane.
type Vec2 struct {
	X, Y float64
}

// Vec3 is a world-space position or velocity.
type Vec3 struct {
	X, Y, Z float64
}

// Quat is a rotation, stored in the internal (w, x, y, z) order. The wire
// format transmits [x, y, z, w]; internal/wire is responsible for the swap.
type Quat struct {
	W, X, Y, Z float64
}

func lerpVec3(a, b Vec3, t float64) Vec3 {
	return Vec3{
		X: a.X + (b.X-a.X)*t,
		Y: a.Y + (b.Y-a.Y)*t,
		Z: a.Z + (b.Z-a.Z)*t,
	}
}

func lerpQuat(a, b Quat, t float64) Quat {
	return Quat{
		W: a.W + (b.W-a.W)*t,
		X: a.X + (b.X-a.X)*t,
		Y: a.Y + (b.Y-a.Y)*t,
		Z: a.Z + (b.Z-a.Z)*t,
	}
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func distance(a, b Vec2) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	return math.Sqrt(dx*dx + dy*dy)
}

func distanceSq(a, b Vec2) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	return dx*dx + dy*dy
}
