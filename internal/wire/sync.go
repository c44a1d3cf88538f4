package wire

// BuildHelloReply serializes the "Sn<username>" reply to an 'H' hello
// request (spec.md §4.3).
func BuildHelloReply(username string) []byte {
	out := make([]byte, 0, len(username)+2)
	out = append(out, IDSync, SyncHelloCode)
	out = append(out, username...)
	return out
}

// kickID is the outbound-only packet identifier used for the kick frame
// sent on authentication failure or lineup timeout (spec.md §4.2, §7). It
// isn't part of the inbound identifier set the router recognizes (spec.md
// §4.1) because the server never receives one — only sends it.
const kickID byte = 'K'

// BuildKickPacket serializes a kick frame carrying a human-readable reason.
func BuildKickPacket(reason string) []byte {
	out := make([]byte, 0, len(reason)+1)
	out = append(out, kickID)
	out = append(out, reason...)
	return out
}

// PingReply is the single-byte reply to a UDP 'p' keepalive.
func PingReply() []byte {
	return []byte{IDPing}
}
