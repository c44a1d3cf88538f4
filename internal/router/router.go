// Package router dispatches decoded packets by identifier (spec.md §4.3):
// spawn policy, chat commands, vehicle multiplex, transform forwarding, and
// the pass-through/broadcast rules that apply regardless of content.
package router

import (
	"encoding/json"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pitwall/raceserver/internal/car"
	"github.com/pitwall/raceserver/internal/config"
	"github.com/pitwall/raceserver/internal/race"
	"github.com/pitwall/raceserver/internal/session"
	"github.com/pitwall/raceserver/internal/wire"
)

// UDPSender delivers a raw datagram to a specific address; the server shell
// implements it over the process's single UDP socket.
type UDPSender func(addr *net.UDPAddr, payload []byte)

// Router holds the collaborators needed to carry out routing decisions.
// Routing itself never mutates the state machine's phase — only the flags
// (AllowSpawns, ForceRespawnPits) it reads were set by race.Engine.
type Router struct {
	Engine *race.Engine
	Cfg    *config.Config
	World  *race.World
	UDP    UDPSender
	log    zerolog.Logger
}

// New builds a Router.
func New(engine *race.Engine, cfg *config.Config, world *race.World, udp UDPSender, log zerolog.Logger) *Router {
	return &Router{Engine: engine, Cfg: cfg, World: world, UDP: udp, log: log.With().Str("component", "router").Logger()}
}

func findClient(roster []*session.ClientSession, id uint8) (*session.ClientSession, bool) {
	for _, c := range roster {
		if c.ID == id {
			return c, true
		}
	}
	return nil, false
}

func broadcastToPeers(roster []*session.ClientSession, excludeID uint8, payload []byte) {
	for _, c := range roster {
		if c.ID != excludeID {
			c.QueueSend(payload)
		}
	}
}

func broadcastToAll(roster []*session.ClientSession, payload []byte) {
	for _, c := range roster {
		c.QueueSend(payload)
	}
}

// RouteTCP dispatches one payload read from sender's TCP stream.
func (r *Router) RouteTCP(now time.Time, sender *session.ClientSession, roster []*session.ClientSession, raw []byte) {
	pkt := wire.Parse(raw)
	switch pkt.Kind {
	case wire.KindHello:
		sender.QueueSend(wire.BuildHelloReply(sender.Username))

	case wire.KindChat:
		if pkt.Err != nil {
			r.log.Debug().Err(pkt.Err).Msg("broken chat packet")
			return
		}
		r.routeChat(sender, roster, *pkt.Chat)

	case wire.KindEvent:
		if pkt.Err != nil {
			r.log.Debug().Err(pkt.Err).Msg("broken event packet")
			return
		}
		r.routeEvent(sender, *pkt.Event)

	case wire.KindVehicle:
		if pkt.Err != nil {
			r.log.Debug().Err(pkt.Err).Msg("broken vehicle packet")
			return
		}
		r.routeVehicle(sender, roster, *pkt.Vehicle, raw)

	case wire.KindReserved:
		broadcastToPeers(roster, sender.ID, raw)

	default:
		r.log.Debug().Uint8("client_id", sender.ID).Msg("unknown packet identifier, dropped")
	}
}

func (r *Router) routeChat(sender *session.ClientSession, roster []*session.ClientSession, chat wire.ChatPacket) {
	trimmed := strings.TrimSpace(chat.Message)
	if !strings.HasPrefix(trimmed, "!") {
		broadcastToAll(roster, wire.BuildChatPacket(sender.ID, chat.Message))
		return
	}

	switch trimmed {
	case "!ready":
		sender.Ready = true
		sender.QueueSend(wire.BuildChatPacket(sender.ID, "Ready!"))
	case "!pos":
		sender.QueueSend(wire.BuildChatPacket(sender.ID, "Position: "+strconv.Itoa(sender.GridPosition)))
	default:
		sender.QueueSend(wire.BuildChatPacket(sender.ID, "Unknown command."))
	}
}

func (r *Router) routeEvent(sender *session.ClientSession, evt wire.EventPacket) {
	switch evt.Name {
	case "SetSize":
		args, ok := wire.ParseSetSizeArgs(evt.Args)
		if !ok {
			r.log.Debug().Msg("malformed SetSize event")
			return
		}
		c, ok := sender.CarByID(args.CarID)
		if !ok {
			return
		}
		r.log.Debug().Int("car_id", args.CarID).Float64("w", args.Width).Float64("l", args.Length).Float64("h", args.Height).Msg("SetSize received, overriding to fixed hitbox")
		c.ApplySetSize()
	default:
		r.log.Debug().Str("event", evt.Name).Msg("unrecognized event, dropped")
	}
}

func (r *Router) routeVehicle(sender *session.ClientSession, roster []*session.ClientSession, vp wire.VehiclePacket, raw []byte) {
	switch vp.Sub {
	case wire.VehicleSpawn:
		r.routeSpawn(sender, roster, vp)
	case wire.VehicleUpdate:
		r.routeUpdate(roster, vp, raw)
	case wire.VehicleDespawn:
		r.routeDespawn(roster, vp, raw)
	case wire.VehicleRespawn:
		r.routeRespawn(roster, vp, raw)
	case wire.VehicleThrough:
		broadcastToPeers(roster, sender.ID, raw)
	case wire.VehicleThroughAll:
		broadcastToAll(roster, raw)
	}
}

// routeSpawn implements spec.md §4.4. A nil MaxCars means no configured
// per-client car-count limit (spec.md §6 lists no default for it).
func (r *Router) routeSpawn(sender *session.ClientSession, roster []*session.ClientSession, vp wire.VehiclePacket) {
	withinLimit := r.Cfg.Game.MaxCars == nil || sender.CarCount() < int(*r.Cfg.Game.MaxCars)
	allowed := r.Engine.AllowSpawns && withinLimit
	carID := sender.CarCount()

	if !allowed {
		sender.QueueSend(wire.BuildSpawnAck(sender.Roles, sender.Username, sender.ID, carID, vp.JSON))
		sender.QueueSend(wire.BuildDespawn(sender.ID, carID))
		return
	}

	newCar := car.New(sender.ID, carID, json.RawMessage(vp.JSON))
	sender.Cars = append(sender.Cars, newCar)

	sender.QueueSend(wire.BuildEventPacket("GetSize", strconv.Itoa(carID)))
	broadcastToAll(roster, wire.BuildSpawnAck(sender.Roles, sender.Username, sender.ID, carID, vp.JSON))
}

func (r *Router) routeUpdate(roster []*session.ClientSession, vp wire.VehiclePacket, raw []byte) {
	owner, ok := findClient(roster, vp.ClientID)
	if !ok {
		r.log.Debug().Uint8("client_id", vp.ClientID).Msg("vehicle update for unknown client")
		return
	}
	if c, ok := owner.CarByID(vp.CarID); ok {
		c.Config = json.RawMessage(vp.JSON)
	}
	broadcastToPeers(roster, vp.ClientID, raw)
}

func (r *Router) routeDespawn(roster []*session.ClientSession, vp wire.VehiclePacket, raw []byte) {
	if owner, ok := findClient(roster, vp.ClientID); ok {
		owner.RemoveCar(vp.CarID)
	}
	broadcastToAll(roster, raw)
}

func (r *Router) routeRespawn(roster []*session.ClientSession, vp wire.VehiclePacket, raw []byte) {
	if !r.Engine.ForceRespawnPits {
		broadcastToPeers(roster, vp.ClientID, raw)
		return
	}

	owner, ok := findClient(roster, vp.ClientID)
	if !ok || r.World.SpawnsPit == nil {
		return
	}
	slotIdx := indexOf(roster, owner)
	slot, ok := r.World.SpawnsPit.Get(slotIdx)
	if !ok {
		return
	}
	args := wire.RespawnArgs{CarID: vp.CarID, Pos: slot.Pos, Rot: slot.Rot}
	owner.QueueSend(wire.BuildEventPacket("Respawn", wire.BuildRespawnArgs(args)))
}

func indexOf(roster []*session.ClientSession, target *session.ClientSession) int {
	for i, c := range roster {
		if c == target {
			return i
		}
	}
	return 0
}

// RouteUDP dispatches one datagram received from senderAddr, already
// stripped of its 2-byte sender-id header (spec.md §2). senderID must
// resolve to a roster client before anything else about the datagram is
// inspected — an unmatched id (already-disconnected client, spoofed id)
// means the whole datagram is dropped, matching
// `_examples/original_source/src/server/mod.rs`'s client-id search loop.
func (r *Router) RouteUDP(now time.Time, senderID byte, senderAddr *net.UDPAddr, roster []*session.ClientSession, raw []byte) {
	owner, ok := findClient(roster, senderID)
	if !ok {
		r.log.Debug().Uint8("sender_id", senderID).Msg("UDP datagram for unknown client, dropped")
		return
	}
	owner.LearnUDPAddr(senderAddr)

	pkt := wire.Parse(raw)
	switch pkt.Kind {
	case wire.KindPing:
		r.UDP(senderAddr, wire.PingReply())

	case wire.KindTransform:
		if pkt.Err != nil {
			r.log.Debug().Err(pkt.Err).Msg("broken transform packet")
			return
		}
		r.routeTransform(now, owner, roster, *pkt.Transform, raw)

	case wire.KindReserved:
		for _, c := range roster {
			if c == owner {
				continue
			}
			if addr, ok := c.UDPAddr(); ok {
				r.UDP(addr, raw)
			}
		}

	default:
		r.log.Debug().Msg("unrecognized UDP packet identifier, dropped")
	}
}

func (r *Router) routeTransform(now time.Time, owner *session.ClientSession, roster []*session.ClientSession, tp wire.TransformPacket, raw []byte) {
	if c, ok := owner.CarByID(tp.CarID); ok {
		c.UpdateTransform(tp.Transform, now)
	}

	for _, c := range roster {
		if c == owner {
			continue
		}
		if addr, ok := c.UDPAddr(); ok {
			r.UDP(addr, raw)
		}
	}
}
