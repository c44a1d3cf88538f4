package server

import (
	"net"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitwall/raceserver/internal/config"
	"github.com/pitwall/raceserver/internal/race"
	"github.com/pitwall/raceserver/internal/wire"
)

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	s, err := New(cfg, &race.World{Cfg: cfg}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.gameListener.Close()
		_ = s.overlayListener.Close()
		_ = s.udpConn.Close()
	})
	return s
}

func dialFrame(t *testing.T, addr net.Addr, payload []byte) net.Conn {
	t.Helper()
	conn, err := net.Dial("tcp", addr.String())
	require.NoError(t, err)
	require.NoError(t, wire.WriteFrame(conn, payload))
	return conn
}

func TestHandshakeGameStagesWhitelistedClient(t *testing.T) {
	cfg := &config.Config{Event: config.EventSettings{ExpectedClients: []string{"alice"}}}
	s := newTestServer(t, cfg)
	go s.acceptGameLoop()

	conn := dialFrame(t, s.gameListener.Addr(), []byte("alice\x00token"))
	defer conn.Close()

	require.Eventually(t, func() bool {
		return len(s.clientStaging.Drain()) == 1 || len(s.roster) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestHandshakeGameKicksUnwhitelistedClient(t *testing.T) {
	cfg := &config.Config{Event: config.EventSettings{ExpectedClients: []string{"alice"}}}
	s := newTestServer(t, cfg)
	go s.acceptGameLoop()

	conn := dialFrame(t, s.gameListener.Addr(), []byte("mallory\x00token"))
	defer conn.Close()

	payload, err := wire.ReadFrame(conn)
	require.NoError(t, err)
	assert.Contains(t, string(payload), "Not whitelisted")
}

func TestHandshakeGameRejectsDuplicateUsername(t *testing.T) {
	maxCars := uint8(1)
	cfg := &config.Config{Game: config.GameSettings{MaxCars: &maxCars}}
	s := newTestServer(t, cfg)
	go s.acceptGameLoop()

	first := dialFrame(t, s.gameListener.Addr(), []byte("alice\x00token"))
	defer first.Close()
	require.Eventually(t, func() bool {
		drained := s.clientStaging.Drain()
		if len(drained) == 1 {
			s.roster = append(s.roster, drained...)
			return true
		}
		return false
	}, time.Second, 5*time.Millisecond)

	second := dialFrame(t, s.gameListener.Addr(), []byte("alice\x00token"))
	defer second.Close()
	payload, err := wire.ReadFrame(second)
	require.NoError(t, err)
	assert.Contains(t, string(payload), "Already connected")
}

func TestTickDrainsStagingIntoRoster(t *testing.T) {
	cfg := &config.Config{}
	s := newTestServer(t, cfg)
	go s.acceptGameLoop()

	conn := dialFrame(t, s.gameListener.Addr(), []byte("alice\x00token"))
	defer conn.Close()

	require.Eventually(t, func() bool {
		s.tick(time.Now())
		return len(s.roster) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, "alice", s.roster[0].Username)
}

func TestPruneDisconnectedReleasesIdentity(t *testing.T) {
	cfg := &config.Config{}
	s := newTestServer(t, cfg)
	go s.acceptGameLoop()

	conn := dialFrame(t, s.gameListener.Addr(), []byte("alice\x00token"))

	require.Eventually(t, func() bool {
		s.tick(time.Now())
		return len(s.roster) == 1
	}, time.Second, 5*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool {
		s.tick(time.Now())
		return len(s.roster) == 0
	}, time.Second, 5*time.Millisecond)

	id, ok := s.identities.reserve("alice")
	assert.True(t, ok)
	assert.Equal(t, uint8(0), id)
}

func TestUDPReadLoopForwardsPingToRouter(t *testing.T) {
	cfg := &config.Config{}
	s := newTestServer(t, cfg)
	go s.udpReadLoop()

	conn, err := net.Dial("udp", s.udpConn.LocalAddr().String())
	require.NoError(t, err)
	defer conn.Close()
	// byte 0 is sender id 2, offset by one; byte 1 is the unused pad byte.
	_, err = conn.Write([]byte{3, 0, 'p'})
	require.NoError(t, err)

	var batch []udpDatagram
	require.Eventually(t, func() bool {
		batch = s.drainUDP()
		return len(batch) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, byte(2), batch[0].senderID)
	assert.Equal(t, []byte("p"), batch[0].payload)
}

func TestUDPReadLoopDropsShortDatagram(t *testing.T) {
	cfg := &config.Config{}
	s := newTestServer(t, cfg)
	go s.udpReadLoop()

	conn, err := net.Dial("udp", s.udpConn.LocalAddr().String())
	require.NoError(t, err)
	defer conn.Close()
	_, err = conn.Write([]byte{3})
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, s.drainUDP())
}
