package session

import (
	"net"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/pitwall/raceserver/internal/wire"
)

// OverlaySession is one write-only HUD stream (spec.md §4.7). It is bound
// to a ClientSession by matching Username once its handshake completes.
type OverlaySession struct {
	Username string
	conn     net.Conn
	log      zerolog.Logger
}

// NewOverlaySession wraps an accepted overlay connection after its
// handshake has produced username.
func NewOverlaySession(username string, conn net.Conn, log zerolog.Logger) *OverlaySession {
	return &OverlaySession{
		Username: username,
		conn:     conn,
		log:      log.With().Str("overlay_username", username).Logger(),
	}
}

// Send writes one framed HUD payload.
func (o *OverlaySession) Send(payload []byte) error {
	if err := wire.WriteFrame(o.conn, payload); err != nil {
		o.log.Debug().Err(err).Msg("overlay write error")
		return errors.Wrap(err, "write overlay frame")
	}
	return nil
}

// Close releases the underlying connection.
func (o *OverlaySession) Close() error {
	return errors.Wrap(o.conn.Close(), "close overlay connection")
}
