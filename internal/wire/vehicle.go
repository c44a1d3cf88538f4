package wire

// VehiclePacket is a parsed "O"-prefixed vehicle-multiplex payload
// (spec.md §4.1, §4.3, §4.4). Which fields are populated depends on Sub:
//
//   - VehicleSpawn:   JSON only (the requesting client has no car_id yet).
//   - VehicleUpdate:  address + JSON.
//   - VehicleDespawn: address only.
//   - VehicleRespawn: address + JSON (new transform, may be empty).
//   - VehicleThrough, VehicleThroughAll: broadcast verbatim, never inspected.
type VehiclePacket struct {
	Sub        VehicleSubCode
	ClientID   uint8
	CarID      int
	JSON       string
	HasAddress bool
}

// ParseVehiclePacket parses an 'O' payload.
func ParseVehiclePacket(payload []byte) (VehiclePacket, error) {
	if len(payload) < 2 || payload[0] != IDVehicle {
		return VehiclePacket{}, ErrBrokenPacket
	}
	sub := payload[1]

	switch sub {
	case VehicleSpawn:
		fields, ok := splitFields(string(payload), 2)
		if !ok {
			return VehiclePacket{}, ErrBrokenPacket
		}
		return VehiclePacket{Sub: sub, JSON: fields[1]}, nil

	case VehicleUpdate, VehicleRespawn:
		fields, ok := splitFields(string(payload), 3)
		if !ok {
			return VehiclePacket{}, ErrBrokenPacket
		}
		clientID, carID, ok := parseCarAddress(fields[1])
		if !ok {
			return VehiclePacket{}, ErrBrokenPacket
		}
		return VehiclePacket{Sub: sub, ClientID: clientID, CarID: carID, JSON: fields[2], HasAddress: true}, nil

	case VehicleDespawn:
		fields, ok := splitFields(string(payload), 2)
		if !ok {
			return VehiclePacket{}, ErrBrokenPacket
		}
		clientID, carID, ok := parseCarAddress(fields[1])
		if !ok {
			return VehiclePacket{}, ErrBrokenPacket
		}
		return VehiclePacket{Sub: sub, ClientID: clientID, CarID: carID, HasAddress: true}, nil

	case VehicleThrough, VehicleThroughAll:
		return VehiclePacket{Sub: sub}, nil

	default:
		return VehiclePacket{}, ErrBrokenPacket
	}
}

// BuildSpawnAck serializes the "Os:<roles>:<name>:<cid>-<car_id>:<json>"
// acknowledgment spec.md §4.4 describes, sent either to everybody (spawn
// allowed) or only to the owner (spawn denied, immediately followed by a
// BuildDespawn of the same address).
func BuildSpawnAck(roles, name string, clientID uint8, carID int, json string) []byte {
	out := make([]byte, 0, len(json)+len(roles)+len(name)+16)
	out = append(out, IDVehicle, VehicleSpawn, ':')
	out = append(out, roles...)
	out = append(out, ':')
	out = append(out, name...)
	out = append(out, ':')
	out = append(out, buildCarAddress(clientID, carID)...)
	out = append(out, ':')
	out = append(out, json...)
	return out
}

// BuildDespawn serializes an "Od:<cid>-<car_id>" payload.
func BuildDespawn(clientID uint8, carID int) []byte {
	out := make([]byte, 0, 12)
	out = append(out, IDVehicle, VehicleDespawn, ':')
	out = append(out, buildCarAddress(clientID, carID)...)
	return out
}

// BuildVehicleUpdate serializes an "Oc:<cid>-<car_id>:<json>" payload.
func BuildVehicleUpdate(clientID uint8, carID int, json string) []byte {
	out := make([]byte, 0, len(json)+16)
	out = append(out, IDVehicle, VehicleUpdate, ':')
	out = append(out, buildCarAddress(clientID, carID)...)
	out = append(out, ':')
	out = append(out, json...)
	return out
}

// BuildRespawn serializes an "Or:<cid>-<car_id>:<json>" payload.
func BuildRespawn(clientID uint8, carID int, json string) []byte {
	out := make([]byte, 0, len(json)+16)
	out = append(out, IDVehicle, VehicleRespawn, ':')
	out = append(out, buildCarAddress(clientID, carID)...)
	out = append(out, ':')
	out = append(out, json...)
	return out
}
