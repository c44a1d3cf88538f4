// Package session implements per-connection client and overlay sessions:
// TCP read/write, the send queue, and kick. The authentication handshake
// runs in internal/server before a ClientSession is created.
// Every per-client field here is owned by the main server loop once the
// session leaves staging (spec.md §5 "no other mutable state is shared
// across tasks"); only the reader goroutine's channel crosses that boundary.
package session

import (
	"net"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/pitwall/raceserver/internal/car"
	"github.com/pitwall/raceserver/internal/wire"
)

// AuthState is the outcome of the authentication handshake.
type AuthState int

const (
	AuthPending AuthState = iota
	AuthOK
	AuthFailed
)

// inbound is one decoded frame (or terminal read error) delivered by a
// session's reader goroutine.
type inbound struct {
	payload []byte
	err     error
}

// ClientSession is one authenticated game connection.
type ClientSession struct {
	ID       uint8
	Username string
	Roles    string

	conn    net.Conn
	udpAddr *net.UDPAddr // learned from the first UDP datagram this client sends

	recvCh chan inbound

	sendQueue [][]byte

	Auth  AuthState
	Ready bool

	GridPosition int // 1-based; 0 means unassigned
	Finished     bool

	IncidentCount int
	Cars          []*car.Car

	Overlay *OverlaySession

	LastPhysicsAdvisory time.Time

	Disconnected bool

	log zerolog.Logger
}

// NewClientSession wraps an already-accepted TCP connection and starts its
// reader goroutine. id is assigned by the caller once the handshake
// succeeds (spec.md §4.2).
func NewClientSession(id uint8, username, roles string, conn net.Conn, log zerolog.Logger) *ClientSession {
	s := &ClientSession{
		ID:       id,
		Username: username,
		Roles:    roles,
		conn:     conn,
		recvCh:   make(chan inbound, 32),
		Auth:     AuthOK,
		log:      log.With().Uint8("client_id", id).Str("username", username).Logger(),
	}
	go s.readLoop()
	return s
}

func (s *ClientSession) readLoop() {
	for {
		payload, err := wire.ReadFrame(s.conn)
		if err != nil {
			s.recvCh <- inbound{err: err}
			return
		}
		s.recvCh <- inbound{payload: payload}
	}
}

// ReadPending returns at most one framed packet already received from this
// client, without blocking (spec.md §4.2). Any I/O error observed by the
// reader goroutine transitions the session to Disconnected.
func (s *ClientSession) ReadPending() ([]byte, bool) {
	select {
	case msg := <-s.recvCh:
		if msg.err != nil {
			s.log.Debug().Err(msg.err).Msg("client connection error")
			s.Disconnected = true
			return nil, false
		}
		return msg.payload, true
	default:
		return nil, false
	}
}

// QueueSend enqueues a payload for delivery at the end of this tick's
// routing pass (spec.md §4.2: "send queue is flushed after routing").
func (s *ClientSession) QueueSend(payload []byte) {
	if s.Disconnected {
		return
	}
	s.sendQueue = append(s.sendQueue, payload)
}

// FlushSend writes every queued payload, in order, and clears the queue.
// A write failure marks the session Disconnected.
func (s *ClientSession) FlushSend() {
	for _, payload := range s.sendQueue {
		if err := wire.WriteFrame(s.conn, payload); err != nil {
			s.log.Debug().Err(err).Msg("client write error")
			s.Disconnected = true
			break
		}
	}
	s.sendQueue = s.sendQueue[:0]
}

// Kick writes a kick payload best-effort and marks the session Disconnected
// (spec.md §4.2, §7).
func (s *ClientSession) Kick(reason string) {
	_ = wire.WriteFrame(s.conn, wire.BuildKickPacket(reason))
	s.Disconnected = true
	s.log.Info().Str("reason", reason).Msg("client kicked")
}

// Close releases the underlying connection.
func (s *ClientSession) Close() error {
	return errors.Wrap(s.conn.Close(), "close client connection")
}

// LearnUDPAddr records addr as this client's UDP peer the first time a
// datagram from it is observed (spec.md §3).
func (s *ClientSession) LearnUDPAddr(addr *net.UDPAddr) {
	if s.udpAddr == nil {
		s.udpAddr = addr
		s.log.Debug().Stringer("addr", addr).Msg("learned UDP peer address")
	}
}

// UDPAddr returns the learned UDP peer address, if any.
func (s *ClientSession) UDPAddr() (*net.UDPAddr, bool) {
	return s.udpAddr, s.udpAddr != nil
}

// CarCount returns the number of cars currently owned by this client.
func (s *ClientSession) CarCount() int {
	return len(s.Cars)
}

// CarByID looks up an owned car by its per-client car_id.
func (s *ClientSession) CarByID(carID int) (*car.Car, bool) {
	for _, c := range s.Cars {
		if c.CarID == carID {
			return c, true
		}
	}
	return nil, false
}

// RemoveCar unregisters a car by its per-client car_id.
func (s *ClientSession) RemoveCar(carID int) bool {
	for i, c := range s.Cars {
		if c.CarID == carID {
			s.Cars = append(s.Cars[:i], s.Cars[i+1:]...)
			return true
		}
	}
	return false
}
