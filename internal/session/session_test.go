package session

import (
	"net"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitwall/raceserver/internal/car"
	"github.com/pitwall/raceserver/internal/wire"
)

func carStub(carID int) *car.Car {
	return car.New(1, carID, nil)
}

func pipeSession(t *testing.T, id uint8) (*ClientSession, net.Conn) {
	t.Helper()
	server, client := net.Pipe()
	t.Cleanup(func() { _ = server.Close(); _ = client.Close() })
	return NewClientSession(id, "alice", "driver", server, zerolog.Nop()), client
}

func TestReadPendingReturnsOneFrameAtATime(t *testing.T) {
	sess, client := pipeSession(t, 1)

	go func() {
		_ = wire.WriteFrame(client, []byte("p"))
		_ = wire.WriteFrame(client, []byte("p"))
	}()

	require.Eventually(t, func() bool {
		_, ok := sess.ReadPending()
		return ok
	}, time.Second, time.Millisecond)

	require.Eventually(t, func() bool {
		_, ok := sess.ReadPending()
		return ok
	}, time.Second, time.Millisecond)

	_, ok := sess.ReadPending()
	assert.False(t, ok)
}

func TestReadPendingNoDataReturnsFalseImmediately(t *testing.T) {
	sess, _ := pipeSession(t, 1)
	_, ok := sess.ReadPending()
	assert.False(t, ok)
}

func TestClientDisconnectOnReadError(t *testing.T) {
	sess, client := pipeSession(t, 1)
	_ = client.Close()

	require.Eventually(t, func() bool {
		sess.ReadPending()
		return sess.Disconnected
	}, time.Second, time.Millisecond)
}

func TestQueueAndFlushSend(t *testing.T) {
	sess, client := pipeSession(t, 1)

	sess.QueueSend([]byte("p"))
	sess.QueueSend(wire.BuildKickPacket("bye"))

	done := make(chan struct{})
	go func() {
		sess.FlushSend()
		close(done)
	}()

	first, err := wire.ReadFrame(client)
	require.NoError(t, err)
	assert.Equal(t, []byte("p"), first)

	second, err := wire.ReadFrame(client)
	require.NoError(t, err)
	assert.NotEmpty(t, second)

	<-done
	assert.False(t, sess.Disconnected)
}

func TestCarLookupAndRemoval(t *testing.T) {
	sess, _ := pipeSession(t, 1)
	sess.Cars = append(sess.Cars, carStub(0), carStub(1))

	_, ok := sess.CarByID(1)
	require.True(t, ok)

	assert.True(t, sess.RemoveCar(0))
	assert.Equal(t, 1, sess.CarCount())
	assert.False(t, sess.RemoveCar(0))
}

func TestStagingDrainIsEmptyThenPopulated(t *testing.T) {
	var staging ClientStaging
	assert.Nil(t, staging.Drain())

	sess, _ := pipeSession(t, 2)
	staging.Push(sess)

	drained := staging.Drain()
	require.Len(t, drained, 1)
	assert.Same(t, sess, drained[0])
	assert.Nil(t, staging.Drain())
}

func TestOverlayStagingClaimByUsername(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	staging := NewOverlayStaging()
	overlay := NewOverlaySession("alice", server, zerolog.Nop())
	staging.Push("127.0.0.1:1234", overlay)

	_, ok := staging.Claim("bob")
	assert.False(t, ok)

	claimed, ok := staging.Claim("alice")
	require.True(t, ok)
	assert.Same(t, overlay, claimed)

	_, ok = staging.Claim("alice")
	assert.False(t, ok)
}
