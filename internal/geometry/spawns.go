package geometry

// SpawnSlot is one grid/pit starting position.
type SpawnSlot struct {
	Pos Vec3
	Rot Quat
}

// Spawns is an ordered list of spawn slots. When Extrapolate is set, a
// request for an index past the end of Slots is linearly extrapolated along
// Slots[0]->Slots[1], using the requested index itself as the interpolation
// parameter (so index 2 is twice as far from slot 0 as slot 1 is).
type Spawns struct {
	Slots       []SpawnSlot
	Extrapolate bool
}

// Get returns the slot at k (0-based). If k is within range, the literal
// slot is returned. If k is past the end and extrapolation is enabled (and
// at least two slots exist), the slot is extrapolated from Slots[0] and
// Slots[1]. Otherwise ok is false.
func (s *Spawns) Get(k int) (slot SpawnSlot, ok bool) {
	if k >= 0 && k < len(s.Slots) {
		return s.Slots[k], true
	}
	if !s.Extrapolate || len(s.Slots) < 2 {
		return SpawnSlot{}, false
	}
	t := float64(k)
	return SpawnSlot{
		Pos: lerpVec3(s.Slots[0].Pos, s.Slots[1].Pos, t),
		Rot: lerpQuat(s.Slots[0].Rot, s.Slots[1].Rot, t),
	}, true
}

// Len reports the number of literal slots (not counting extrapolation).
func (s *Spawns) Len() int {
	return len(s.Slots)
}
