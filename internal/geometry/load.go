package geometry

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
)

// Map asset files are plain JSON; a missing or malformed file is fatal at
// startup (spec.md §6/§7 — only startup I/O and map parsing are fatal).

type trackLimitsFile struct {
	Triangles []struct {
		A [2]float64 `json:"a"`
		B [2]float64 `json:"b"`
		C [2]float64 `json:"c"`
	} `json:"triangles"`
}

// LoadTrackLimits reads a TrackLimits JSON asset from disk.
func LoadTrackLimits(path string) (*TrackLimits, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read track-limits asset %q", path)
	}
	var f trackLimitsFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, errors.Wrapf(err, "parse track-limits asset %q", path)
	}
	tl := &TrackLimits{Triangles: make([]Triangle, 0, len(f.Triangles))}
	for _, t := range f.Triangles {
		tl.Triangles = append(tl.Triangles, Triangle{
			A: Vec2{X: t.A[0], Y: t.A[1]},
			B: Vec2{X: t.B[0], Y: t.B[1]},
			C: Vec2{X: t.C[0], Y: t.C[1]},
		})
	}
	return tl, nil
}

type spawnsFile struct {
	Extrapolate bool `json:"extrapolate"`
	Spawns      []struct {
		Pos [3]float64 `json:"pos"`
		Rot [4]float64 `json:"rot"`
	} `json:"spawns"`
}

// LoadSpawns reads a Spawns JSON asset from disk. Wire rotation is
// [x, y, z, w]; it is converted here to the internal (w, x, y, z) order.
func LoadSpawns(path string) (*Spawns, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read spawns asset %q", path)
	}
	var f spawnsFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, errors.Wrapf(err, "parse spawns asset %q", path)
	}
	s := &Spawns{Extrapolate: f.Extrapolate, Slots: make([]SpawnSlot, 0, len(f.Spawns))}
	for _, sp := range f.Spawns {
		s.Slots = append(s.Slots, SpawnSlot{
			Pos: Vec3{X: sp.Pos[0], Y: sp.Pos[1], Z: sp.Pos[2]},
			Rot: Quat{X: sp.Rot[0], Y: sp.Rot[1], Z: sp.Rot[2], W: sp.Rot[3]},
		})
	}
	return s, nil
}

type trackPathFile struct {
	Nodes []struct {
		P [2]float64 `json:"p"`
		D float64    `json:"d"`
		T float64    `json:"t"`
	} `json:"nodes"`
	Triangles []struct {
		A [2]float64 `json:"a"`
		B [2]float64 `json:"b"`
		C [2]float64 `json:"c"`
	} `json:"triangles"`
	TotalDist float64 `json:"total_dist"`
}

// LoadTrackPath reads a TrackPath JSON asset from disk.
func LoadTrackPath(path string) (*TrackPath, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read track-path asset %q", path)
	}
	var f trackPathFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, errors.Wrapf(err, "parse track-path asset %q", path)
	}
	tp := &TrackPath{
		Nodes:     make([]PathNode, 0, len(f.Nodes)),
		TotalDist: f.TotalDist,
	}
	for _, n := range f.Nodes {
		tp.Nodes = append(tp.Nodes, PathNode{P: Vec2{X: n.P[0], Y: n.P[1]}, D: n.D, T: n.T})
	}
	for _, t := range f.Triangles {
		tp.Coverage.Triangles = append(tp.Coverage.Triangles, Triangle{
			A: Vec2{X: t.A[0], Y: t.A[1]},
			B: Vec2{X: t.B[0], Y: t.B[1]},
			C: Vec2{X: t.C[0], Y: t.C[1]},
		})
	}
	return tp, nil
}
