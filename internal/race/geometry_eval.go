package race

import (
	"math"
	"time"

	"github.com/pitwall/raceserver/internal/car"
	"github.com/pitwall/raceserver/internal/geometry"
	"github.com/pitwall/raceserver/internal/overlay"
	"github.com/pitwall/raceserver/internal/session"
)

// EvaluateGeometry runs track-limits enforcement and checkpoint progression
// for exactly one client, chosen round-robin by TrackLimitsClient (spec.md
// §4.6). Unlike the original's wrapping u8 cursor, this is a uint64 modulo
// the live roster size, removing the 256-client ceiling (spec.md §9).
func (e *Engine) EvaluateGeometry(now time.Time, roster []*session.ClientSession, world *World) {
	if len(roster) == 0 {
		return
	}
	idx := int(e.TrackLimitsClient % uint64(len(roster)))
	e.TrackLimitsClient++
	client := roster[idx]

	for _, c := range client.Cars {
		e.evaluateCar(now, client, c, world)
	}
}

func (e *Engine) evaluateCar(now time.Time, client *session.ClientSession, c *car.Car, world *World) {
	pos := c.ExtrapolatedPosition(now)
	xy := geometry.Vec2{X: pos.X, Y: pos.Y}
	box := geometry.AABBAroundPoint(xy, car.EnforcementHalfExtent, car.EnforcementHalfExtent)

	e.enforceTrackLimits(now, client, c, box, world)
	e.advanceCheckpoint(now, client, c, xy, box, world)
}

func (e *Engine) enforceTrackLimits(now time.Time, client *session.ClientSession, c *car.Car, box geometry.AABB, world *World) {
	if world.TrackLimits == nil {
		return
	}
	if world.TrackLimits.CheckLimits(box) {
		if c.OffTrackStart != nil {
			c.OffTrackStart = nil
			client.IncidentCount++
			e.metricIncidents.Inc()
		}
		return
	}
	if world.TrackLimitsPit != nil && world.TrackLimitsPit.CheckLimits(box) {
		c.OffTrackStart = nil
		return
	}
	if c.OffTrackStart == nil {
		started := now
		c.OffTrackStart = &started
	}
}

func (e *Engine) advanceCheckpoint(now time.Time, client *session.ClientSession, c *car.Car, xy geometry.Vec2, box geometry.AABB, world *World) {
	if c.NextCheckpoint < 0 || c.NextCheckpoint >= len(world.Checkpoints) {
		return
	}
	region := world.Checkpoints[c.NextCheckpoint]
	intersects := region != nil && region.Intersects(box)

	if intersects && !c.IntersectsCheckpoint {
		if world.TrackFinish != nil {
			c.VelAngleToTrack = velocityAngleToTrack(world.TrackFinish, xy, c.Transform.Vel)
		}
		result := c.OnCheckpointEnter(now, c.NextCheckpoint, len(world.Checkpoints))
		if result.LapCompleted && client.Overlay != nil {
			_ = client.Overlay.Send(overlay.BuildLap(c.Laps))
			_ = client.Overlay.Send(overlay.BuildMaxLaps(world.Cfg.Game.MaxLaps))
			_ = client.Overlay.Send(overlay.BuildLapHistory(formatLapTimes(c.LapTimes)))
		}
	}
	c.IntersectsCheckpoint = intersects
}

func formatLapTimes(laps []time.Duration) []string {
	out := make([]string, len(laps))
	for i, d := range laps {
		out[i] = overlay.FormatLapTime(d.Milliseconds())
	}
	return out
}

// velocityAngleToTrack is the angle, in degrees, between the car's velocity
// and the track heading at the nearest path node — used to distinguish a
// forward start/finish crossing from a backward one (spec.md §4.6).
func velocityAngleToTrack(path *geometry.TrackPath, pos geometry.Vec2, vel geometry.Vec3) float64 {
	heading, ok := nearestHeading(path, pos)
	if !ok {
		return 0
	}
	velAngle := deg(math.Atan2(vel.Y, vel.X))
	diff := math.Mod(math.Abs(velAngle-heading), 360)
	if diff > 180 {
		diff = 360 - diff
	}
	return diff
}

// nearestHeading returns the track heading, in degrees, stored at the path
// node closest to pos. Node.D is persisted in radians on disk (matching
// `internal/geometry/load.go`'s raw load of the asset's "d" field), so it is
// converted with the same deg() helper trackpath.go uses internally.
func nearestHeading(path *geometry.TrackPath, pos geometry.Vec2) (float64, bool) {
	if len(path.Nodes) == 0 {
		return 0, false
	}
	bestIdx := 0
	bestDistSq := math.Inf(1)
	for i, node := range path.Nodes {
		dx := node.P.X - pos.X
		dy := node.P.Y - pos.Y
		d := dx*dx + dy*dy
		if d < bestDistSq {
			bestDistSq = d
			bestIdx = i
		}
	}
	return deg(path.Nodes[bestIdx].D), true
}

func deg(radians float64) float64 {
	return radians * 180 / math.Pi
}
