package wire

import (
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// splitFields splits s on ':' into exactly n fields. Mirrors the teacher's
// own "ok-bool, short circuit" idiom (network/buffer.go) rather than
// returning an error — field splitting here is part of the codec's
// never-panic contract, not a higher-level error path.
func splitFields(s string, n int) (fields []string, ok bool) {
	fields = strings.SplitN(s, ":", n)
	if len(fields) != n {
		log.Debug().Str("payload", s).Int("want", n).Msg("broken packet: wrong field count")
		return nil, false
	}
	return fields, true
}

func parseUint8(s string) (uint8, bool) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 8)
	if err != nil {
		log.Debug().Err(err).Str("value", s).Msg("broken packet: bad uint8")
		return 0, false
	}
	return uint8(v), true
}

func parseFloat(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		log.Debug().Err(err).Str("value", s).Msg("broken packet: bad float")
		return 0, false
	}
	return v, true
}

func parseInt(s string) (int, bool) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		log.Debug().Err(err).Str("value", s).Msg("broken packet: bad int")
		return 0, false
	}
	return v, true
}

// parseCarAddress parses the "<cid>-<car_id>" address form used by the
// vehicle multiplex ('O') and despawn packets.
func parseCarAddress(s string) (clientID uint8, carID int, ok bool) {
	fields := strings.SplitN(s, "-", 2)
	if len(fields) != 2 {
		log.Debug().Str("value", s).Msg("broken packet: bad car address")
		return 0, 0, false
	}
	clientID, ok = parseUint8(fields[0])
	if !ok {
		return 0, 0, false
	}
	carID, ok = parseInt(fields[1])
	if !ok {
		return 0, 0, false
	}
	return clientID, carID, true
}

func buildCarAddress(clientID uint8, carID int) string {
	return strconv.Itoa(int(clientID)) + "-" + strconv.Itoa(carID)
}
