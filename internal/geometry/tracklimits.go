package geometry

// TrackLimits is an unordered set of 2D triangles. A point or AABB is
// "inside the region" iff it intersects at least one triangle.
type TrackLimits struct {
	Triangles []Triangle
}

// CheckLimits reports whether box intersects the region.
func (tl *TrackLimits) CheckLimits(box AABB) bool {
	for _, tri := range tl.Triangles {
		if tri.IntersectsAABB(box) {
			return true
		}
	}
	return false
}

// CheckPoint is CheckLimits with a zero-sized AABB, i.e. a strict point test.
func (tl *TrackLimits) CheckPoint(p Vec2) bool {
	return tl.CheckLimits(AABBAroundPoint(p, 0, 0))
}
