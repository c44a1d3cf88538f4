package wire

import (
	"encoding/json"
	"strconv"

	"github.com/pitwall/raceserver/internal/geometry"
)

// transformJSON is the wire shape of a transform blob (spec.md §4.1). The
// quaternion is transmitted [x, y, z, w] but consumed internally as
// (w, x, y, z) — see Transform.Rot.
type transformJSON struct {
	Pos  [3]float64 `json:"pos"`
	Rot  [4]float64 `json:"rot"`
	Vel  [3]float64 `json:"vel"`
	RVel [3]float64 `json:"rvel"`
	Tim  float64    `json:"tim"`
	Ping float64    `json:"ping"`
}

// Transform is a car's position/velocity sample, decoded from the wire's
// transformJSON into internal (w, x, y, z) quaternion order.
type Transform struct {
	Pos  geometry.Vec3
	Rot  geometry.Quat
	Vel  geometry.Vec3
	RVel geometry.Vec3
	Tim  float64
	Ping float64
}

// ParseTransform decodes a transform JSON blob.
func ParseTransform(raw []byte) (Transform, error) {
	var w transformJSON
	if err := json.Unmarshal(raw, &w); err != nil {
		return Transform{}, ErrBrokenPacket
	}
	return Transform{
		Pos:  geometry.Vec3{X: w.Pos[0], Y: w.Pos[1], Z: w.Pos[2]},
		Rot:  geometry.Quat{X: w.Rot[0], Y: w.Rot[1], Z: w.Rot[2], W: w.Rot[3]},
		Vel:  geometry.Vec3{X: w.Vel[0], Y: w.Vel[1], Z: w.Vel[2]},
		RVel: geometry.Vec3{X: w.RVel[0], Y: w.RVel[1], Z: w.RVel[2]},
		Tim:  w.Tim,
		Ping: w.Ping,
	}, nil
}

// MarshalTransform encodes a Transform back to its wire JSON shape.
func MarshalTransform(t Transform) ([]byte, error) {
	w := transformJSON{
		Pos:  [3]float64{t.Pos.X, t.Pos.Y, t.Pos.Z},
		Rot:  [4]float64{t.Rot.X, t.Rot.Y, t.Rot.Z, t.Rot.W},
		Vel:  [3]float64{t.Vel.X, t.Vel.Y, t.Vel.Z},
		RVel: [3]float64{t.RVel.X, t.RVel.Y, t.RVel.Z},
		Tim:  t.Tim,
		Ping: t.Ping,
	}
	return json.Marshal(w)
}

// TransformPacket is a parsed "Z:<cid>:<car_id>:<json>" UDP payload.
type TransformPacket struct {
	ClientID  uint8
	CarID     int
	Transform Transform
}

// ParseTransformPacket parses a Z packet.
func ParseTransformPacket(payload []byte) (TransformPacket, error) {
	fields, ok := splitFields(string(payload), 4)
	if !ok {
		return TransformPacket{}, ErrBrokenPacket
	}
	clientID, ok := parseUint8(fields[1])
	if !ok {
		return TransformPacket{}, ErrBrokenPacket
	}
	carID, ok := parseInt(fields[2])
	if !ok {
		return TransformPacket{}, ErrBrokenPacket
	}
	transform, err := ParseTransform([]byte(fields[3]))
	if err != nil {
		return TransformPacket{}, err
	}
	return TransformPacket{ClientID: clientID, CarID: carID, Transform: transform}, nil
}

// BuildTransformPacket serializes a Z packet; tests use it to exercise the
// round trip.
func BuildTransformPacket(clientID uint8, carID int, t Transform) ([]byte, error) {
	body, err := MarshalTransform(t)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(body)+16)
	out = append(out, IDTransform, ':')
	out = append(out, strconv.Itoa(int(clientID))...)
	out = append(out, ':')
	out = append(out, strconv.Itoa(carID)...)
	out = append(out, ':')
	out = append(out, body...)
	return out, nil
}
