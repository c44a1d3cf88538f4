package wire

import "github.com/pkg/errors"

// Sentinel error kinds from spec.md §7. Per-packet errors are logged and
// dropped; they never terminate a session or the main loop.
var (
	// ErrBrokenPacket is returned for malformed or too-short payloads.
	// Identifier extraction and field parsing never panic; this is the
	// worst outcome a bad payload can produce.
	ErrBrokenPacket = errors.New("broken packet")

	// ErrCarNotFound addresses a (clientID, carID) pair with no live car.
	ErrCarNotFound = errors.New("car does not exist")

	// ErrClientNotFound addresses a clientID with no live session.
	ErrClientNotFound = errors.New("client does not exist")
)
