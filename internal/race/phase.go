package race

// Phase is one of the eight numbered server states (spec.md §4.5). The
// numeric values are load-bearing: they are pushed verbatim as the overlay
// protocol's `S<n>` phase-id code (spec.md §4.7) and must not be reordered.
type Phase uint8

const (
	PhaseUnknown Phase = iota
	PhaseWaitingForClients
	PhaseWaitingForReady
	PhaseWaitingForSpawns
	PhaseQualifying
	PhaseLiningUp
	PhaseCountdown
	PhaseRace
	PhaseFinish
)

func (p Phase) String() string {
	switch p {
	case PhaseWaitingForClients:
		return "WaitingForClients"
	case PhaseWaitingForReady:
		return "WaitingForReady"
	case PhaseWaitingForSpawns:
		return "WaitingForSpawns"
	case PhaseQualifying:
		return "Qualifying"
	case PhaseLiningUp:
		return "LiningUp"
	case PhaseCountdown:
		return "Countdown"
	case PhaseRace:
		return "Race"
	case PhaseFinish:
		return "Finish"
	default:
		return "Unknown"
	}
}

// Timeouts fixed by spec.md §5 (qual_time and max_laps come from config
// instead).
const (
	WaitingForClientsTimeoutSeconds = 300
	LiningUpTimeoutSeconds          = 45
	FinishTimeoutSeconds            = 30

	LineupXYTolerance = 1.0 // meters
	LineupZTolerance  = 3.0 // meters

	BackwardCrossingAngleDegrees = 135.0

	InitialCountdown = 5
)
