package wire

import "strconv"

// ChatPacket is a parsed "C:<id>:<msg>" payload (spec.md §4.1).
type ChatPacket struct {
	ClientID uint8
	Message  string
}

// ParseChatPacket parses a chat packet. The message itself may contain
// colons, so only the first two separators are significant.
func ParseChatPacket(payload []byte) (ChatPacket, error) {
	fields, ok := splitFields(string(payload), 3)
	if !ok {
		return ChatPacket{}, ErrBrokenPacket
	}
	clientID, ok := parseUint8(fields[1])
	if !ok {
		return ChatPacket{}, ErrBrokenPacket
	}
	return ChatPacket{ClientID: clientID, Message: fields[2]}, nil
}

// BuildChatPacket serializes a chat packet for broadcast.
func BuildChatPacket(clientID uint8, message string) []byte {
	out := make([]byte, 0, len(message)+8)
	out = append(out, IDChat, ':')
	out = append(out, strconv.Itoa(int(clientID))...)
	out = append(out, ':')
	out = append(out, message...)
	return out
}
