package router

import (
	"net"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitwall/raceserver/internal/config"
	"github.com/pitwall/raceserver/internal/race"
	"github.com/pitwall/raceserver/internal/session"
	"github.com/pitwall/raceserver/internal/wire"
)

type pipedClient struct {
	sess   *session.ClientSession
	client net.Conn
}

func newPipedClient(t *testing.T, id uint8, username string) *pipedClient {
	t.Helper()
	server, client := net.Pipe()
	t.Cleanup(func() { _ = server.Close(); _ = client.Close() })
	return &pipedClient{sess: session.NewClientSession(id, username, "driver", server, zerolog.Nop()), client: client}
}

// flush runs FlushSend on a background goroutine (net.Pipe writes block
// until read) and returns every frame the test reads off the wire.
func (p *pipedClient) flush(t *testing.T, n int) [][]byte {
	t.Helper()
	done := make(chan struct{})
	go func() {
		p.sess.FlushSend()
		close(done)
	}()
	frames := make([][]byte, 0, n)
	for i := 0; i < n; i++ {
		payload, err := wire.ReadFrame(p.client)
		require.NoError(t, err)
		frames = append(frames, payload)
	}
	<-done
	return frames
}

func newRouter(engine *race.Engine, cfg *config.Config) *Router {
	return New(engine, cfg, &race.World{Cfg: cfg}, func(*net.UDPAddr, []byte) {}, zerolog.Nop())
}

func TestSpawnAllowedRegistersCarAndBroadcasts(t *testing.T) {
	engine := race.NewEngine(time.Now(), zerolog.Nop())
	engine.AllowSpawns = true
	maxCars := uint8(2)
	cfg := &config.Config{Game: config.GameSettings{MaxCars: &maxCars}}
	r := newRouter(engine, cfg)

	alice := newPipedClient(t, 0, "alice")
	bob := newPipedClient(t, 1, "bob")
	roster := []*session.ClientSession{alice.sess, bob.sess}

	r.RouteTCP(time.Now(), alice.sess, roster, []byte(`Os:{"k":1}`))

	require.Len(t, alice.sess.Cars, 1)
	assert.Equal(t, 0, alice.sess.Cars[0].CarID)

	aliceFrames := alice.flush(t, 2) // GetSize event, then the spawn ack
	assert.Contains(t, string(aliceFrames[0]), "GetSize")
	assert.Contains(t, string(aliceFrames[1]), "Os:")

	bobFrames := bob.flush(t, 1)
	assert.Contains(t, string(bobFrames[0]), "Os:")
}

func TestSpawnDeniedByMaxCars(t *testing.T) {
	engine := race.NewEngine(time.Now(), zerolog.Nop())
	engine.AllowSpawns = true
	maxCars := uint8(1)
	cfg := &config.Config{Game: config.GameSettings{MaxCars: &maxCars}}
	r := newRouter(engine, cfg)

	alice := newPipedClient(t, 0, "alice")
	roster := []*session.ClientSession{alice.sess}

	r.RouteTCP(time.Now(), alice.sess, roster, []byte(`Os:{}`))
	require.Len(t, alice.sess.Cars, 1)
	alice.flush(t, 2) // GetSize + spawn ack from the first, allowed spawn

	r.RouteTCP(time.Now(), alice.sess, roster, []byte(`Os:{}`))
	assert.Len(t, alice.sess.Cars, 1)

	frames := alice.flush(t, 2)
	assert.Contains(t, string(frames[0]), "Os:")
	assert.Contains(t, string(frames[1]), "Od:")
}

func TestSpawnUnlimitedWhenMaxCarsAbsent(t *testing.T) {
	engine := race.NewEngine(time.Now(), zerolog.Nop())
	engine.AllowSpawns = true
	cfg := &config.Config{} // MaxCars left nil, as an absent TOML field decodes
	r := newRouter(engine, cfg)

	alice := newPipedClient(t, 0, "alice")
	roster := []*session.ClientSession{alice.sess}

	for i := 0; i < 3; i++ {
		r.RouteTCP(time.Now(), alice.sess, roster, []byte(`Os:{}`))
		alice.flush(t, 2)
	}

	assert.Len(t, alice.sess.Cars, 3)
}

func TestChatReadyCommand(t *testing.T) {
	engine := race.NewEngine(time.Now(), zerolog.Nop())
	r := newRouter(engine, &config.Config{})
	alice := newPipedClient(t, 0, "alice")
	roster := []*session.ClientSession{alice.sess}

	r.RouteTCP(time.Now(), alice.sess, roster, []byte("C:0:!ready"))

	assert.True(t, alice.sess.Ready)
	frames := alice.flush(t, 1)
	assert.Contains(t, string(frames[0]), "Ready!")
}

func TestChatBroadcastsToAllIncludingSender(t *testing.T) {
	engine := race.NewEngine(time.Now(), zerolog.Nop())
	r := newRouter(engine, &config.Config{})
	alice := newPipedClient(t, 0, "alice")
	bob := newPipedClient(t, 1, "bob")
	roster := []*session.ClientSession{alice.sess, bob.sess}

	r.RouteTCP(time.Now(), alice.sess, roster, []byte("C:0:hello"))

	aliceFrames := alice.flush(t, 1)
	bobFrames := bob.flush(t, 1)
	assert.Equal(t, string(aliceFrames[0]), string(bobFrames[0]))
}

func TestPingRepliesDirectlyToSender(t *testing.T) {
	engine := race.NewEngine(time.Now(), zerolog.Nop())
	var sentTo *net.UDPAddr
	var sentPayload []byte
	r := New(engine, &config.Config{}, &race.World{}, func(addr *net.UDPAddr, payload []byte) {
		sentTo = addr
		sentPayload = payload
	}, zerolog.Nop())

	alice := newPipedClient(t, 0, "alice")
	roster := []*session.ClientSession{alice.sess}

	addr := &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 9999}
	r.RouteUDP(time.Now(), 0, addr, roster, []byte("p"))

	require.NotNil(t, sentTo)
	assert.Equal(t, addr, sentTo)
	assert.Equal(t, []byte("p"), sentPayload)
}

func TestUnknownSenderIDDropsUDPDatagram(t *testing.T) {
	engine := race.NewEngine(time.Now(), zerolog.Nop())
	sent := false
	r := New(engine, &config.Config{}, &race.World{}, func(*net.UDPAddr, []byte) {
		sent = true
	}, zerolog.Nop())

	addr := &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 9999}
	r.RouteUDP(time.Now(), 7, addr, nil, []byte("p"))

	assert.False(t, sent)
}
