package wire

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// MaxUDPPayload is the largest payload accepted from a single UDP datagram
// (spec.md §4.1).
const MaxUDPPayload = 4096

// CompressAbove is the uncompressed-payload threshold past which outbound
// sends are compressed and wrapped in the "ABG:" envelope (spec.md §4.1, §8).
const CompressAbove = 400

// ReadFrame reads one length-prefixed TCP frame: a little-endian u32 byte
// count followed by that many payload bytes. A short read or I/O error on
// either part is a connection-level failure (spec.md §7 ErrConnection),
// distinct from a malformed payload.
func ReadFrame(r io.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, errors.Wrap(err, "read frame length")
	}
	n := binary.LittleEndian.Uint32(lenBuf[:])
	payload := make([]byte, n)
	if n > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, errors.Wrap(err, "read frame payload")
		}
	}
	return DecodeEnvelope(payload), nil
}

// WriteFrame sends the length prefix and payload as two separate writes,
// matching the teacher's own two-call write-then-check pattern in
// network/client.go (write, then verify n == len(buffer)).
func WriteFrame(w io.Writer, payload []byte) error {
	encoded := EncodeEnvelope(payload)

	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(encoded)))
	n, err := w.Write(lenBuf[:])
	if err != nil {
		return errors.Wrap(err, "write frame length")
	}
	if n != len(lenBuf) {
		return errors.New("short write of frame length")
	}

	if len(encoded) == 0 {
		return nil
	}
	n, err = w.Write(encoded)
	if err != nil {
		return errors.Wrap(err, "write frame payload")
	}
	if n != len(encoded) {
		return errors.New("short write of frame payload")
	}
	return nil
}

// StripUDPHeader demuxes one raw UDP datagram: byte 0 is the sender's
// client id offset by one, byte 1 is unused, and the ASCII payload this
// package's other decoders expect starts at byte 2 (spec.md §2 "demuxed by
// a 1-byte sender id"). ok is false for a datagram too short to carry the
// header, which the caller must drop without looking at senderID.
func StripUDPHeader(datagram []byte) (senderID byte, payload []byte, ok bool) {
	if len(datagram) < 2 {
		return 0, nil, false
	}
	return datagram[0] - 1, datagram[2:], true
}
