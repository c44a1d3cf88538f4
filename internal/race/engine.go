// Package race implements the eight-phase server-wide state machine
// (spec.md §4.5): phase transitions, readiness gating, grid-snap lineup,
// countdown, race progress, and finish-order tracking.
package race

import (
	"sort"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/rs/zerolog"

	"github.com/pitwall/raceserver/internal/config"
	"github.com/pitwall/raceserver/internal/geometry"
	"github.com/pitwall/raceserver/internal/overlay"
	"github.com/pitwall/raceserver/internal/session"
	"github.com/pitwall/raceserver/internal/wire"
)

// World bundles the loaded map assets and config an Engine needs to advance
// the state machine; the server shell owns their lifetime.
type World struct {
	Cfg *config.Config

	SpawnsPit, SpawnsOdd, SpawnsEven *geometry.Spawns

	TrackLimits, TrackLimitsPit, TrackLimitsPitExit *geometry.TrackLimits

	// TrackFinish doubles as the start/finish checkpoint (index 0) and the
	// path used for race-progress-percentage computation.
	TrackFinish *geometry.TrackPath
	Checkpoints []*geometry.TrackPath // index 0 is TrackFinish
}

// Engine owns the server-wide race state (spec.md §3 "Server-wide state").
type Engine struct {
	Phase        Phase
	PhaseEntered time.Time

	Countdown uint8

	AllowSpawns      bool
	ForceRespawnPits bool
	AllowRespawns    bool

	OverlayRefresh time.Time
	SubPhaseTimer  time.Time

	FinishOrder       []uint8
	TrackLimitsClient uint64

	// AcceptAborted is set true once the game-TCP accept loop must stop
	// taking new connections (spec.md §5 "irrevocable for the lifetime of
	// the server").
	AcceptAborted bool
	// ExitRequested is set true once the process should exit (Finish + 30s).
	ExitRequested bool

	log zerolog.Logger

	metricPhase     *metrics.Counter
	metricIncidents *metrics.Counter
}

// NewEngine starts a fresh state machine in WaitingForClients.
func NewEngine(now time.Time, log zerolog.Logger) *Engine {
	return &Engine{
		Phase:           PhaseWaitingForClients,
		PhaseEntered:    now,
		AllowRespawns:   true,
		log:             log.With().Str("component", "race").Logger(),
		metricPhase:     metrics.GetOrCreateCounter("raceserver_phase_transitions_total"),
		metricIncidents: metrics.GetOrCreateCounter("raceserver_track_limit_incidents_total"),
	}
}

func (e *Engine) transition(now time.Time, next Phase) {
	e.log.Info().Stringer("from", e.Phase).Stringer("to", next).Msg("phase transition")
	e.Phase = next
	e.PhaseEntered = now
	e.SubPhaseTimer = now
	e.metricPhase.Inc()
}

// Tick advances the state machine by one server tick (spec.md §5: "happens
// exactly once per tick, at the end"). roster is every live client session
// in deterministic order.
func (e *Engine) Tick(now time.Time, roster []*session.ClientSession, world *World) {
	switch e.Phase {
	case PhaseWaitingForClients:
		e.tickWaitingForClients(now, roster, world)
	case PhaseWaitingForReady:
		e.tickWaitingForReady(now, roster)
	case PhaseWaitingForSpawns:
		e.tickWaitingForSpawns(now, roster, world)
	case PhaseQualifying:
		e.tickQualifying(now, roster, world)
	case PhaseLiningUp:
		e.tickLiningUp(now, roster, world)
	case PhaseCountdown:
		e.tickCountdown(now, roster)
	case PhaseRace:
		e.tickRace(now, roster, world)
	case PhaseFinish:
		e.tickFinish(now)
	}
	e.pushPhaseToOverlays(roster)
}

func (e *Engine) pushPhaseToOverlays(roster []*session.ClientSession) {
	payload := overlay.BuildPhase(uint8(e.Phase))
	for _, c := range roster {
		if c.Overlay != nil {
			_ = c.Overlay.Send(payload)
		}
	}
}

func allExpectedClientsPresent(expected []string, roster []*session.ClientSession) bool {
	for _, name := range expected {
		found := false
		for _, c := range roster {
			if c.Username == name {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (e *Engine) tickWaitingForClients(now time.Time, roster []*session.ClientSession, world *World) {
	elapsed := now.Sub(e.PhaseEntered).Seconds()
	if allExpectedClientsPresent(world.Cfg.Event.ExpectedClients, roster) {
		e.transition(now, PhaseWaitingForReady)
		return
	}
	if elapsed >= WaitingForClientsTimeoutSeconds {
		e.AcceptAborted = true
		e.transition(now, PhaseWaitingForReady)
	}
}

func (e *Engine) tickWaitingForReady(now time.Time, roster []*session.ClientSession) {
	if len(roster) == 0 {
		return
	}
	for _, c := range roster {
		if !c.Ready {
			return
		}
	}
	e.AllowSpawns = true
	e.AcceptAborted = true
	for _, c := range roster {
		c.Ready = false
	}
	e.transition(now, PhaseWaitingForSpawns)
}

func (e *Engine) tickWaitingForSpawns(now time.Time, roster []*session.ClientSession, world *World) {
	if len(roster) == 0 {
		return
	}
	for _, c := range roster {
		if c.CarCount() == 0 {
			return
		}
	}
	e.AllowSpawns = false
	e.ForceRespawnPits = true
	e.teleportAllToPits(roster, world)
	e.transition(now, PhaseQualifying)
}

// teleportAllToPits sends a Respawn event for every car of every client,
// enumerated across all cars of all clients (spec.md §4.5).
func (e *Engine) teleportAllToPits(roster []*session.ClientSession, world *World) {
	if world.SpawnsPit == nil {
		return
	}
	idx := 0
	for _, c := range roster {
		for _, car := range c.Cars {
			slot, ok := world.SpawnsPit.Get(idx)
			idx++
			if !ok {
				continue
			}
			args := wire.RespawnArgs{CarID: car.CarID, Pos: slot.Pos, Rot: slot.Rot}
			c.QueueSend(wire.BuildEventPacket("Respawn", wire.BuildRespawnArgs(args)))
		}
	}
}

func (e *Engine) tickQualifying(now time.Time, roster []*session.ClientSession, world *World) {
	qualTime := float64(world.Cfg.Game.QualTime)
	if now.Sub(e.PhaseEntered).Seconds() < qualTime {
		return
	}

	type entry struct {
		client *session.ClientSession
		best   time.Duration
	}
	entries := make([]entry, 0, len(roster))
	for _, c := range roster {
		best := time.Duration(1<<63 - 1) // MAX
		for _, car := range c.Cars {
			if lap, ok := car.FastestLap(); ok && lap < best {
				best = lap
			}
		}
		entries = append(entries, entry{client: c, best: best})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].best < entries[j].best })
	for i, en := range entries {
		en.client.GridPosition = i + 1
	}

	for _, c := range roster {
		for _, car := range c.Cars {
			car.ResetForQualifyingExit()
		}
		c.Ready = false
	}
	e.AllowRespawns = false
	e.ForceRespawnPits = false
	e.transition(now, PhaseLiningUp)
}

func gridSlot(world *World, gridPosition int) (geometry.SpawnSlot, bool) {
	if gridPosition%2 != 0 {
		if world.SpawnsOdd == nil {
			return geometry.SpawnSlot{}, false
		}
		return world.SpawnsOdd.Get(gridPosition / 2)
	}
	if world.SpawnsEven == nil {
		return geometry.SpawnSlot{}, false
	}
	return world.SpawnsEven.Get(gridPosition/2 - 1)
}

func (e *Engine) tickLiningUp(now time.Time, roster []*session.ClientSession, world *World) {
	if now.Sub(e.SubPhaseTimer) >= time.Second {
		e.SubPhaseTimer = now
		for _, c := range roster {
			if len(c.Cars) == 0 || c.GridPosition == 0 {
				continue
			}
			slot, ok := gridSlot(world, c.GridPosition)
			if !ok {
				continue
			}
			car := c.Cars[0]
			dx := car.Transform.Pos.X - slot.Pos.X
			dy := car.Transform.Pos.Y - slot.Pos.Y
			dz := car.Transform.Pos.Z - slot.Pos.Z
			xyDist := dx*dx + dy*dy
			if xyDist > LineupXYTolerance*LineupXYTolerance || absFloat(dz) > LineupZTolerance {
				args := wire.RespawnArgs{CarID: car.CarID, Pos: slot.Pos, Rot: slot.Rot}
				c.QueueSend(wire.BuildEventPacket("Respawn", wire.BuildRespawnArgs(args)))
			}
		}
	}

	allReady := true
	for _, c := range roster {
		if !c.Ready {
			allReady = false
			break
		}
	}
	elapsed := now.Sub(e.PhaseEntered).Seconds()
	if allReady || elapsed >= LiningUpTimeoutSeconds {
		if !allReady {
			for _, c := range roster {
				if !c.Ready {
					c.Kick("Not ready in time!")
				}
			}
		}
		e.Countdown = InitialCountdown
		e.transition(now, PhaseCountdown)
	}
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func (e *Engine) tickCountdown(now time.Time, roster []*session.ClientSession) {
	if now.Sub(e.SubPhaseTimer) < time.Second {
		return
	}
	e.SubPhaseTimer = now

	if e.Countdown > 0 {
		e.Countdown--
		payload := overlay.BuildCountdown(e.Countdown)
		for _, c := range roster {
			if c.Overlay != nil {
				_ = c.Overlay.Send(payload)
			}
		}
		return
	}

	e.ForceRespawnPits = true
	e.transition(now, PhaseRace)
}

func (e *Engine) tickRace(now time.Time, roster []*session.ClientSession, world *World) {
	if now.Sub(e.SubPhaseTimer) < 50*time.Millisecond {
		return
	}
	e.SubPhaseTimer = now

	type progressEntry struct {
		client  *session.ClientSession
		index   int
		percent float64
	}
	entries := make([]progressEntry, 0, len(roster))
	for i, c := range roster {
		percent := 0.0
		if len(c.Cars) > 0 && world.TrackFinish != nil {
			xy := geometry.Vec2{X: c.Cars[0].Transform.Pos.X, Y: c.Cars[0].Transform.Pos.Y}
			if p, ok := world.TrackFinish.GetPercentageAlongTrack(xy); ok {
				percent = p
			}
		}
		entries = append(entries, progressEntry{client: c, index: i, percent: percent})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].percent != entries[j].percent {
			return entries[i].percent > entries[j].percent
		}
		return entries[i].index < entries[j].index
	})

	total := len(entries)
	for pos, en := range entries {
		if en.client.Overlay != nil {
			_ = en.client.Overlay.Send(overlay.BuildPosition(pos + 1))
			_ = en.client.Overlay.Send(overlay.BuildFieldSize(total))
		}
	}

	maxLaps := world.Cfg.Game.MaxLaps
	allFinished := len(roster) > 0
	for _, c := range roster {
		if len(c.Cars) == 0 {
			allFinished = false
			continue
		}
		if c.Cars[0].Laps > maxLaps {
			if !c.Finished {
				c.Finished = true
				e.FinishOrder = append(e.FinishOrder, c.ID)
			}
		} else {
			allFinished = false
		}
	}
	if allFinished {
		e.transition(now, PhaseFinish)
	}
}

func (e *Engine) tickFinish(now time.Time) {
	if now.Sub(e.PhaseEntered).Seconds() >= FinishTimeoutSeconds {
		e.ExitRequested = true
	}
}
