package wire

import (
	"strconv"
	"strings"

	"github.com/pitwall/raceserver/internal/geometry"
)

// EventPacket is a parsed "E:<name>:<args>" client->server event
// (spec.md §4.1).
type EventPacket struct {
	Name string
	Args string
}

// ParseEventPacket parses an event packet.
func ParseEventPacket(payload []byte) (EventPacket, error) {
	fields, ok := splitFields(string(payload), 3)
	if !ok {
		return EventPacket{}, ErrBrokenPacket
	}
	return EventPacket{Name: fields[1], Args: fields[2]}, nil
}

// SetSizeArgs is the decoded payload of an "E:SetSize:<id>;<w>;<l>;<h>"
// event (spec.md §4.3). Per spec.md §9 the received dimensions are
// surfaced in logs only — the hitbox is always overwritten with the
// fixed [0.65, 1.0, 0.6] half-extents.
type SetSizeArgs struct {
	CarID         int
	Width, Length, Height float64
}

// ParseSetSizeArgs parses the semicolon-separated args of a SetSize event.
func ParseSetSizeArgs(args string) (SetSizeArgs, bool) {
	fields := strings.Split(args, ";")
	if len(fields) != 4 {
		return SetSizeArgs{}, false
	}
	carID, ok := parseInt(fields[0])
	if !ok {
		return SetSizeArgs{}, false
	}
	w, ok := parseFloat(fields[1])
	if !ok {
		return SetSizeArgs{}, false
	}
	l, ok := parseFloat(fields[2])
	if !ok {
		return SetSizeArgs{}, false
	}
	h, ok := parseFloat(fields[3])
	if !ok {
		return SetSizeArgs{}, false
	}
	return SetSizeArgs{CarID: carID, Width: w, Length: l, Height: h}, true
}

// BuildEventPacket serializes a server->client event such as "GetSize".
func BuildEventPacket(name, args string) []byte {
	out := make([]byte, 0, len(name)+len(args)+4)
	out = append(out, IDEvent, ':')
	out = append(out, name...)
	out = append(out, ':')
	out = append(out, args...)
	return out
}

// RespawnArgs is the semicolon-separated payload of a server->client
// "Respawn" event: the addressed car and the slot it must snap to
// (spec.md §4.5 lineup correction, §4.3 `O r` pit snap).
type RespawnArgs struct {
	CarID int
	Pos   geometry.Vec3
	Rot   geometry.Quat
}

// BuildRespawnArgs serializes a RespawnArgs as "<car_id>;x;y;z;qx;qy;qz;qw",
// matching the wire quaternion order used everywhere else (§4.1: `[x,y,z,w]`).
func BuildRespawnArgs(a RespawnArgs) string {
	fields := []string{
		strconv.Itoa(a.CarID),
		strconv.FormatFloat(a.Pos.X, 'f', -1, 64),
		strconv.FormatFloat(a.Pos.Y, 'f', -1, 64),
		strconv.FormatFloat(a.Pos.Z, 'f', -1, 64),
		strconv.FormatFloat(a.Rot.X, 'f', -1, 64),
		strconv.FormatFloat(a.Rot.Y, 'f', -1, 64),
		strconv.FormatFloat(a.Rot.Z, 'f', -1, 64),
		strconv.FormatFloat(a.Rot.W, 'f', -1, 64),
	}
	return strings.Join(fields, ";")
}
