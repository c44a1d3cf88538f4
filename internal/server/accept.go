package server

import (
	"net"
	"strings"

	"github.com/pitwall/raceserver/internal/session"
	"github.com/pitwall/raceserver/internal/wire"
)

// acceptGameLoop accepts game-TCP connections and performs the
// username/token handshake asynchronously (spec.md §4.2). It terminates,
// irrevocably, once the listener is closed by a phase transition
// (spec.md §5 "Cancellation").
func (s *Server) acceptGameLoop() {
	for {
		conn, err := s.gameListener.Accept()
		if err != nil {
			s.log.Info().Err(err).Msg("game accept loop stopped")
			return
		}
		go s.handshakeGame(conn)
	}
}

// acceptOverlayLoop accepts overlay-TCP connections. Unlike the game
// listener it is never aborted — overlays may attach at any point in the
// race (spec.md §4.2).
func (s *Server) acceptOverlayLoop() {
	for {
		conn, err := s.overlayListener.Accept()
		if err != nil {
			s.log.Info().Err(err).Msg("overlay accept loop stopped")
			return
		}
		go s.handshakeOverlay(conn)
	}
}

// handshakeGame reads a single framed "<username>\0<token>" payload, checks
// the configured whitelist, and either kicks the connection or stages the
// new session (spec.md §4.2, §3 "at most one authenticated session per
// username").
func (s *Server) handshakeGame(conn net.Conn) {
	payload, err := wire.ReadFrame(conn)
	if err != nil {
		s.log.Debug().Err(err).Msg("game handshake read error")
		_ = conn.Close()
		return
	}

	username, _, ok := splitHandshake(string(payload))
	if !ok {
		_ = wire.WriteFrame(conn, wire.BuildKickPacket("Malformed handshake!"))
		_ = conn.Close()
		return
	}

	if !s.isWhitelisted(username) {
		_ = wire.WriteFrame(conn, wire.BuildKickPacket("Not whitelisted for this server!"))
		_ = conn.Close()
		return
	}

	id, ok := s.identities.reserve(username)
	if !ok {
		_ = wire.WriteFrame(conn, wire.BuildKickPacket("Already connected, or server full!"))
		_ = conn.Close()
		return
	}

	sess := session.NewClientSession(id, username, "driver", conn, s.log)
	s.clientStaging.Push(sess)
}

// handshakeOverlay reads the overlay's "H<username>\0" introduction and
// stages it for attachment by username on the next tick (spec.md §4.2).
func (s *Server) handshakeOverlay(conn net.Conn) {
	payload, err := wire.ReadFrame(conn)
	if err != nil {
		s.log.Debug().Err(err).Msg("overlay handshake read error")
		_ = conn.Close()
		return
	}
	if len(payload) == 0 || payload[0] != wire.IDHello {
		_ = conn.Close()
		return
	}
	username := strings.TrimRight(string(payload[1:]), "\x00")

	overlay := session.NewOverlaySession(username, conn, s.log)
	s.overlayStaging.Push(conn.RemoteAddr().String(), overlay)
}

// splitHandshake parses "<username>\0<token>".
func splitHandshake(payload string) (username, token string, ok bool) {
	parts := strings.SplitN(payload, "\x00", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	return parts[0], parts[1], true
}

func (s *Server) isWhitelisted(username string) bool {
	username = strings.TrimSpace(username)
	for _, expected := range s.Cfg.Event.ExpectedClients {
		if strings.TrimSpace(expected) == username {
			return true
		}
	}
	return len(s.Cfg.Event.ExpectedClients) == 0
}

