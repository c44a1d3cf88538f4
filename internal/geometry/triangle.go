package geometry

import "math"

// Triangle is one tile of a track-limits region, in the track's horizontal plane.
type Triangle struct {
	A, B, C Vec2
}

// AABB is an axis-aligned bounding box in the track's horizontal plane.
type AABB struct {
	MinX, MinY, MaxX, MaxY float64
}

// AABBAroundPoint builds a (possibly zero-sized) AABB centered on p with the
// given half-extents in X and Y.
func AABBAroundPoint(p Vec2, halfX, halfY float64) AABB {
	return AABB{
		MinX: p.X - halfX,
		MinY: p.Y - halfY,
		MaxX: p.X + halfX,
		MaxY: p.Y + halfY,
	}
}

// IntersectsAABB reports whether the triangle and box have non-empty
// intersection, using the separating-axis test over the triangle's edge
// normals and the box's axes.
func (t Triangle) IntersectsAABB(box AABB) bool {
	verts := [3]Vec2{t.A, t.B, t.C}

	// Box axes: a separating axis along X or Y is just a range disjoint test.
	triMinX, triMaxX := verts[0].X, verts[0].X
	triMinY, triMaxY := verts[0].Y, verts[0].Y
	for _, v := range verts[1:] {
		triMinX, triMaxX = math.Min(triMinX, v.X), math.Max(triMaxX, v.X)
		triMinY, triMaxY = math.Min(triMinY, v.Y), math.Max(triMaxY, v.Y)
	}
	if triMaxX < box.MinX || triMinX > box.MaxX {
		return false
	}
	if triMaxY < box.MinY || triMinY > box.MaxY {
		return false
	}

	boxVerts := [4]Vec2{
		{box.MinX, box.MinY},
		{box.MaxX, box.MinY},
		{box.MaxX, box.MaxY},
		{box.MinX, box.MaxY},
	}

	// Triangle edge normals.
	edges := [3][2]Vec2{
		{verts[0], verts[1]},
		{verts[1], verts[2]},
		{verts[2], verts[0]},
	}
	for _, e := range edges {
		axis := Vec2{X: -(e[1].Y - e[0].Y), Y: e[1].X - e[0].X}
		if axis.X == 0 && axis.Y == 0 {
			continue
		}
		triMin, triMax := projectOnto(verts[:], axis)
		boxMin, boxMax := projectOnto(boxVerts[:], axis)
		if triMax < boxMin || boxMax < triMin {
			return false
		}
	}

	return true
}

func projectOnto(pts []Vec2, axis Vec2) (min, max float64) {
	min = math.Inf(1)
	max = math.Inf(-1)
	for _, p := range pts {
		d := p.X*axis.X + p.Y*axis.Y
		if d < min {
			min = d
		}
		if d > max {
			max = d
		}
	}
	return min, max
}
