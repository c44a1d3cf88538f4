package wire

// PacketID is the first byte of a text-protocol payload (spec.md §4.1).
type PacketID = byte

const (
	IDHello     PacketID = 'H' // hello / full-sync request
	IDPing      PacketID = 'p' // UDP keepalive ping
	IDChat      PacketID = 'C' // C:<id>:<msg>
	IDEvent     PacketID = 'E' // E:<name>:<args>
	IDVehicle   PacketID = 'O' // vehicle multiplex, sub-code is byte 2
	IDTransform PacketID = 'Z' // Z:<cid>:<car_id>:<json> (UDP)
	IDSync      PacketID = 'S' // S<id>-shaped, server->client only
)

// VehicleSubCode is byte 2 of an 'O' payload.
type VehicleSubCode = byte

const (
	VehicleSpawn      VehicleSubCode = 's' // spawn-request
	VehicleUpdate     VehicleSubCode = 'c' // vehicle-data update
	VehicleDespawn    VehicleSubCode = 'd' // despawn
	VehicleRespawn    VehicleSubCode = 'r' // respawn
	VehicleThrough    VehicleSubCode = 't' // broadcast-through (peers)
	VehicleThroughAll VehicleSubCode = 'm' // broadcast-through (all)
)

// Reserved pass-through range: bytes 86..=89 ('V'-'Y') are broadcast
// verbatim to peers and never inspected (spec.md §4.1).
const (
	ReservedRangeStart = 'V'
	ReservedRangeEnd   = 'Y'
)

// IsReservedPassthrough reports whether id falls in the reserved
// pass-through range.
func IsReservedPassthrough(id byte) bool {
	return id >= ReservedRangeStart && id <= ReservedRangeEnd
}

// SyncHelloCode is the sub-code used in the "Sn<username>" reply to an 'H'
// hello/full-sync request (spec.md §4.3).
const SyncHelloCode = 'n'
