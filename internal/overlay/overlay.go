// Package overlay builds the length-prefixed, one-character-code HUD wire
// protocol (spec.md §4.7). Framing is reused verbatim from internal/wire;
// this package only knows how to format the seven message codes.
package overlay

import "strconv"

// Code is the leading byte of an overlay HUD message.
type Code = byte

const (
	CodeLap        Code = 'L' // current lap
	CodeMaxLaps    Code = 'M' // max laps
	CodePhase      Code = 'S' // phase id, u8
	CodeLapHistory Code = 'Q' // lap-time history, mm:ss.SSS entries joined by '-'
	CodeCountdown  Code = 'C' // countdown value, u8
	CodePosition   Code = 'A' // current position
	CodeFieldSize  Code = 'B' // field size
)

func unsignedMessage(code Code, n int) []byte {
	out := make([]byte, 0, 8)
	out = append(out, code)
	out = append(out, strconv.Itoa(n)...)
	return out
}

// BuildLap formats an `L<n>` message.
func BuildLap(lap int) []byte { return unsignedMessage(CodeLap, lap) }

// BuildMaxLaps formats an `M<n>` message.
func BuildMaxLaps(maxLaps int) []byte { return unsignedMessage(CodeMaxLaps, maxLaps) }

// BuildPhase formats an `S<n>` message; n must match the fixed phase-id
// numbering in spec.md §4.7.
func BuildPhase(phaseID uint8) []byte { return unsignedMessage(CodePhase, int(phaseID)) }

// BuildCountdown formats a `C<n>` message.
func BuildCountdown(value uint8) []byte { return unsignedMessage(CodeCountdown, int(value)) }

// BuildPosition formats an `A<n>` message (1-based current position).
func BuildPosition(position int) []byte { return unsignedMessage(CodePosition, position) }

// BuildFieldSize formats a `B<n>` message.
func BuildFieldSize(size int) []byte { return unsignedMessage(CodeFieldSize, size) }

// FormatLapTime renders a duration as `mm:ss.SSS`.
func FormatLapTime(totalMillis int64) string {
	if totalMillis < 0 {
		totalMillis = 0
	}
	minutes := totalMillis / 60000
	seconds := (totalMillis % 60000) / 1000
	millis := totalMillis % 1000
	return padLeft(strconv.FormatInt(minutes, 10), 2) + ":" +
		padLeft(strconv.FormatInt(seconds, 10), 2) + "." +
		padLeft(strconv.FormatInt(millis, 10), 3)
}

func padLeft(s string, width int) string {
	for len(s) < width {
		s = "0" + s
	}
	return s
}

// BuildLapHistory formats a `Q<t0>-<t1>-...` message from a set of lap
// durations already rendered as mm:ss.SSS strings.
func BuildLapHistory(laps []string) []byte {
	out := []byte{CodeLapHistory}
	for i, lap := range laps {
		if i > 0 {
			out = append(out, '-')
		}
		out = append(out, lap...)
	}
	return out
}
