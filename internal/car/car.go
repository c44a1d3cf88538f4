// Package car models a single vehicle: its last-known transform, lap
// timing, checkpoint progress and off-track state. A Car never references
// its owning client directly (spec.md §9 "avoid back-references from car to
// client"); callers address cars by the (ClientID, CarID) tuple.
package car

import (
	"encoding/json"
	"time"

	"github.com/pitwall/raceserver/internal/geometry"
	"github.com/pitwall/raceserver/internal/wire"
)

// FixedHalfExtents is the hitbox half-extent vector this server version
// always applies, overriding whatever a SetSize event reports (spec.md §9).
var FixedHalfExtents = geometry.Vec3{X: 0.65, Y: 1.0, Z: 0.6}

// EnforcementHalfExtent is the half-extent (in meters, XY only) used when
// testing a car's footprint against track limits (spec.md §4.6: "hitbox
// half-extents forced to 1.0 m by the current version").
const EnforcementHalfExtent = 1.0

// Car is one vehicle owned by exactly one client.
type Car struct {
	ClientID uint8
	CarID    int // 0-based, per-client

	Config json.RawMessage // opaque vehicle configuration blob

	Transform  wire.Transform
	LastUpdate time.Time

	HalfExtents geometry.Vec3

	OffTrackStart *time.Time
	InPits        bool

	// IntersectsCheckpoint is the previous tick's checkpoint-intersection
	// state, used to detect the rising edge that advances lap progress.
	IntersectsCheckpoint bool

	// VelAngleToTrack is the cached angle (degrees) between the car's
	// velocity and the track direction, used to tell a forward crossing of
	// the start/finish line from a backward one.
	VelAngleToTrack float64

	Laps             int
	LapStart         *time.Time
	LapTimes         []time.Duration
	NextCheckpoint   int
	ActiveCheckpoint int
	LastProgress     float64 // [0, 1]
}

// New creates a car with the fixed hitbox and no lap progress yet.
func New(clientID uint8, carID int, config json.RawMessage) *Car {
	return &Car{
		ClientID:    clientID,
		CarID:       carID,
		Config:      config,
		HalfExtents: FixedHalfExtents,
	}
}

// UpdateTransform records a new transform sample.
func (c *Car) UpdateTransform(t wire.Transform, now time.Time) {
	c.Transform = t
	c.LastUpdate = now
}

// ExtrapolatedPosition projects the car's last-known position forward by its
// last-known linear velocity (spec.md §4.4 share note: "Transform +
// velocity extrapolation").
func (c *Car) ExtrapolatedPosition(now time.Time) geometry.Vec3 {
	dt := now.Sub(c.LastUpdate).Seconds()
	if dt <= 0 {
		return c.Transform.Pos
	}
	return geometry.Vec3{
		X: c.Transform.Pos.X + c.Transform.Vel.X*dt,
		Y: c.Transform.Pos.Y + c.Transform.Vel.Y*dt,
		Z: c.Transform.Pos.Z + c.Transform.Vel.Z*dt,
	}
}

// XY projects a world position onto the track's horizontal plane.
func XY(p geometry.Vec3) geometry.Vec2 {
	return geometry.Vec2{X: p.X, Y: p.Y}
}

// ApplySetSize handles an "E:SetSize" event. Per spec.md §9 the received
// dimensions are never applied — they're the caller's job to log — the
// hitbox is unconditionally reset to FixedHalfExtents.
func (c *Car) ApplySetSize() {
	c.HalfExtents = FixedHalfExtents
}

// CheckpointResult reports the outcome of a checkpoint crossing.
type CheckpointResult struct {
	LapCompleted bool
	LapDecremented bool
	LapDuration  time.Duration
}

// OnCheckpointEnter advances checkpoint/lap state for a rising-edge
// crossing of checkpointIndex, out of checkpointCount total checkpoints
// (spec.md §4.6).
func (c *Car) OnCheckpointEnter(now time.Time, checkpointIndex, checkpointCount int) CheckpointResult {
	if checkpointIndex != 0 {
		c.ActiveCheckpoint = checkpointIndex
		if checkpointCount > 0 {
			c.NextCheckpoint = (checkpointIndex + 1) % checkpointCount
		}
		return CheckpointResult{}
	}

	// Start/finish line.
	if c.VelAngleToTrack > 135 {
		c.Laps--
		c.LapStart = nil
		return CheckpointResult{LapDecremented: true}
	}

	var result CheckpointResult
	if c.LapStart != nil {
		duration := now.Sub(*c.LapStart)
		c.LapTimes = append(c.LapTimes, duration)
		result = CheckpointResult{LapCompleted: true, LapDuration: duration}
	}
	c.Laps++
	lapStart := now
	c.LapStart = &lapStart
	c.NextCheckpoint = 1
	return result
}

// ResetForQualifyingExit clears lap/checkpoint progress for the transition
// out of Qualifying (spec.md §4.5).
func (c *Car) ResetForQualifyingExit() {
	c.Laps = 0
	c.LapTimes = nil
	c.NextCheckpoint = 0
	c.ActiveCheckpoint = 0
	c.LapStart = nil
	c.OffTrackStart = nil
}

// FastestLap returns the shortest recorded lap duration, or ok=false if no
// laps have been completed yet.
func (c *Car) FastestLap() (time.Duration, bool) {
	if len(c.LapTimes) == 0 {
		return 0, false
	}
	best := c.LapTimes[0]
	for _, d := range c.LapTimes[1:] {
		if d < best {
			best = d
		}
	}
	return best, true
}
