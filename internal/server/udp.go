package server

import "github.com/pitwall/raceserver/internal/wire"

// udpReadLoop owns the process's single UDP socket. It runs for the life of
// the server; unlike the game TCP listener it is never aborted, since
// transform/ping traffic from already-spawned cars keeps flowing after the
// accept phase ends (spec.md §2, §4.3).
func (s *Server) udpReadLoop() {
	buf := make([]byte, 4096)
	for {
		n, addr, err := s.udpConn.ReadFromUDP(buf)
		if err != nil {
			s.log.Info().Err(err).Msg("UDP read loop stopped")
			return
		}

		senderID, stripped, ok := wire.StripUDPHeader(buf[:n])
		if !ok {
			s.log.Debug().Msg("UDP datagram too short for sender-id header, dropping")
			continue
		}
		payload := make([]byte, len(stripped))
		copy(payload, stripped)

		select {
		case s.udpInbound <- udpDatagram{senderID: senderID, addr: addr, payload: payload}:
		default:
			s.log.Debug().Msg("UDP inbound channel full, dropping datagram")
		}
	}
}
