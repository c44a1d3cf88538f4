// Package server is the shell: dual TCP listeners plus one UDP socket, the
// per-tick drain/read/route/advance/evaluate/flush/prune loop, and the
// collaborator plumbing between internal/session, internal/router and
// internal/race (spec.md §2, §5).
package server

import (
	"net"
	"strconv"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/pitwall/raceserver/internal/config"
	"github.com/pitwall/raceserver/internal/race"
	"github.com/pitwall/raceserver/internal/router"
	"github.com/pitwall/raceserver/internal/session"
	"github.com/pitwall/raceserver/internal/wire"
)

const (
	tickInterval = 50 * time.Millisecond
	idleInterval = 150 * time.Millisecond
)

// Server owns both accept loops, the UDP socket, and the authoritative
// client roster.
type Server struct {
	Cfg    *config.Config
	Engine *race.Engine
	World  *race.World
	Router *router.Router

	log zerolog.Logger

	gameListener    net.Listener
	overlayListener net.Listener
	udpConn         *net.UDPConn

	clientStaging  session.ClientStaging
	overlayStaging *session.OverlayStaging
	identities     *identityRegistry

	roster []*session.ClientSession

	udpInbound chan udpDatagram

	gameAcceptClosed bool

	metricClients *metrics.Counter
}

type udpDatagram struct {
	senderID byte
	addr     *net.UDPAddr
	payload  []byte
}

// New constructs a Server bound to the game/overlay TCP ports and the UDP
// socket from cfg.Network, but does not start accepting yet.
func New(cfg *config.Config, world *race.World, log zerolog.Logger) (*Server, error) {
	gameListener, err := net.Listen("tcp", ":"+strconv.Itoa(int(cfg.Network.Port)))
	if err != nil {
		return nil, errors.Wrap(err, "listen game TCP port")
	}
	overlayListener, err := net.Listen("tcp", ":"+strconv.Itoa(int(cfg.Network.OverlayPort)))
	if err != nil {
		_ = gameListener.Close()
		return nil, errors.Wrap(err, "listen overlay TCP port")
	}
	udpConn, err := net.ListenUDP("udp", &net.UDPAddr{Port: int(cfg.Network.Port)})
	if err != nil {
		_ = gameListener.Close()
		_ = overlayListener.Close()
		return nil, errors.Wrap(err, "listen UDP socket")
	}

	engine := race.NewEngine(time.Now(), log)

	s := &Server{
		Cfg:             cfg,
		Engine:          engine,
		World:           world,
		log:             log.With().Str("component", "server").Logger(),
		gameListener:    gameListener,
		overlayListener: overlayListener,
		udpConn:         udpConn,
		overlayStaging:  session.NewOverlayStaging(),
		identities:      newIdentityRegistry(),
		udpInbound:      make(chan udpDatagram, 256),
		metricClients:   metrics.GetOrCreateCounter("raceserver_clients_total"),
	}
	s.Router = router.New(engine, cfg, world, s.sendUDP, log)
	return s, nil
}

func (s *Server) sendUDP(addr *net.UDPAddr, payload []byte) {
	if _, err := s.udpConn.WriteToUDP(payload, addr); err != nil {
		s.log.Debug().Err(err).Msg("UDP send error")
	}
}

// Run starts both accept loops and the UDP reader, then blocks running the
// tick loop until the race reaches Finish and its timeout elapses.
func (s *Server) Run() {
	go s.acceptGameLoop()
	go s.acceptOverlayLoop()
	go s.udpReadLoop()

	for {
		now := time.Now()
		s.tick(now)
		if s.Engine.ExitRequested {
			return
		}
		if len(s.roster) == 0 {
			time.Sleep(idleInterval)
		} else {
			time.Sleep(tickInterval)
		}
	}
}

func (s *Server) tick(now time.Time) {
	s.drainClientStaging()
	s.drainOverlayStaging()

	udpBatch := s.drainUDP()
	for _, dg := range udpBatch {
		s.Router.RouteUDP(now, dg.senderID, dg.addr, s.roster, dg.payload)
	}

	for _, c := range s.roster {
		if payload, ok := c.ReadPending(); ok {
			s.Router.RouteTCP(now, c, s.roster, payload)
		}
	}

	s.Engine.Tick(now, s.roster, s.World)
	s.Engine.EvaluateGeometry(now, s.roster, s.World)

	for _, c := range s.roster {
		c.FlushSend()
	}

	s.pruneDisconnected()

	if s.Engine.AcceptAborted && !s.gameAcceptClosed {
		s.gameAcceptClosed = true
		_ = s.gameListener.Close()
	}
}

func (s *Server) drainClientStaging() {
	drained := s.clientStaging.Drain()
	if len(drained) == 0 {
		return
	}
	s.roster = append(s.roster, drained...)
	s.metricClients.Add(len(drained))
}

func (s *Server) drainOverlayStaging() {
	for _, c := range s.roster {
		if c.Overlay != nil {
			continue
		}
		if o, ok := s.overlayStaging.Claim(c.Username); ok {
			c.Overlay = o
		}
	}
}

func (s *Server) drainUDP() []udpDatagram {
	var batch []udpDatagram
	for {
		select {
		case dg := <-s.udpInbound:
			batch = append(batch, dg)
		default:
			return batch
		}
	}
}

// pruneDisconnected removes every Disconnected client from the roster,
// broadcasting a despawn for each of its cars first (spec.md §3: "all of a
// client's cars are despawned when the client disconnects").
func (s *Server) pruneDisconnected() {
	kept := s.roster[:0]
	for _, c := range s.roster {
		if !c.Disconnected {
			kept = append(kept, c)
			continue
		}
		for _, car := range c.Cars {
			payload := wire.BuildDespawn(c.ID, car.CarID)
			for _, other := range s.roster {
				if other != c {
					other.QueueSend(payload)
				}
			}
		}
		s.identities.release(c.ID, c.Username)
		_ = c.Close()
		if c.Overlay != nil {
			_ = c.Overlay.Close()
		}
	}
	s.roster = kept
	for _, c := range s.roster {
		c.FlushSend()
	}
}
