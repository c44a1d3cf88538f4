package wire

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/zlib"
)

// compressionMagic marks a zlib-compressed payload (spec.md §4.1, §9).
var compressionMagic = []byte("ABG:")

// DecodeEnvelope strips the "ABG:" compression envelope if present,
// returning the decompressed payload. If the magic isn't present, or
// decompression fails, the original bytes are returned unchanged — a
// malformed envelope is a broken packet, not a connection error, and the
// caller (text-protocol parsing) will reject it on its own terms.
func DecodeEnvelope(payload []byte) []byte {
	if len(payload) < len(compressionMagic) || !bytes.Equal(payload[:len(compressionMagic)], compressionMagic) {
		return payload
	}
	r, err := zlib.NewReader(bytes.NewReader(payload[len(compressionMagic):]))
	if err != nil {
		return payload
	}
	defer r.Close()
	decompressed, err := io.ReadAll(r)
	if err != nil {
		return payload
	}
	return decompressed
}

// EncodeEnvelope compresses payload and prefixes it with "ABG:" if its
// length exceeds CompressAbove; otherwise it is returned unchanged.
func EncodeEnvelope(payload []byte) []byte {
	if len(payload) <= CompressAbove {
		return payload
	}

	var buf bytes.Buffer
	buf.Write(compressionMagic)
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(payload); err != nil {
		return payload
	}
	// Close ends the stream with a final block and checksum, so each
	// envelope is a complete zlib stream that DecodeEnvelope reads to EOF.
	if err := zw.Close(); err != nil {
		return payload
	}
	return buf.Bytes()
}
