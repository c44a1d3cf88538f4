package geometry

import "math"

// PathNode is one waypoint of a track path: a position, a heading, and the
// fraction of total track distance this node represents.
type PathNode struct {
	P Vec2
	D float64 // heading
	T float64 // fraction in [0, 1]
}

// TrackPath is an ordered list of nodes (ascending T, closed loop: the last
// node's successor is the first) plus a triangle-set coverage region reused
// for checkpoint intersection tests, and the precomputed total track length.
type TrackPath struct {
	Nodes     []PathNode
	Coverage  TrackLimits
	TotalDist float64
}

// Intersects reports whether box intersects this path's coverage region.
// Used to evaluate checkpoint crossings (each checkpoint is a TrackPath).
func (tp *TrackPath) Intersects(box AABB) bool {
	return tp.Coverage.CheckLimits(box)
}

// GetPercentageAlongTrack finds the path node nearest car that the car is
// "ahead of" (per the heading-delta filter below) and linearly interpolates
// between it and its successor by relative distance, returning a value in
// [0, 1] (wrapping through 1.0 rather than back to the first node's low T).
// A car exactly on a node has no direction to that node, so such a node is
// taken without the heading filter and yields its own T.
func (tp *TrackPath) GetPercentageAlongTrack(car Vec2) (float64, bool) {
	n := len(tp.Nodes)
	if n == 0 {
		return 0, false
	}

	bestIdx := -1
	bestDistSq := math.Inf(1)

	for i := range tp.Nodes {
		node := tp.Nodes[i]
		next := tp.Nodes[(i+1)%n]

		alpha := deg(math.Atan2(node.P.Y-car.Y, node.P.X-car.X))
		beta := deg(math.Atan2(next.P.Y-node.P.Y, next.P.X-node.P.X))
		diff := math.Mod(math.Abs(alpha-beta), 360)
		if diff >= 90 && node.P != car {
			continue
		}

		d := distanceSq(car, node.P)
		if d < bestDistSq {
			bestDistSq = d
			bestIdx = i
		}
	}

	if bestIdx == -1 {
		return 0, false
	}

	last := tp.Nodes[bestIdx]
	nextIdx := (bestIdx + 1) % n
	next := tp.Nodes[nextIdx]
	nextT := next.T
	if nextIdx == 0 {
		// Closed-loop wrap: treat the successor as a synthetic node at t=1.0
		// so progress climbs toward 1.0 instead of snapping back to ~0.
		nextT = 1.0
	}

	dLast := distance(car, last.P)
	dNext := distance(car, next.P)
	var frac float64
	if denom := dLast + dNext; denom > 0 {
		frac = dLast / denom
	}

	return lerp(last.T, nextT, frac), true
}

func deg(radians float64) float64 {
	return radians * 180 / math.Pi
}
