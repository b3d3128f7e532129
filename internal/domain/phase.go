package domain

// LoadPhase is a step of a listing options load cycle
type LoadPhase string

func (p LoadPhase) String() string {
	return string(p)
}

const (
	PhaseIdle         LoadPhase = "idle"
	PhaseLoading      LoadPhase = "loading"
	PhaseConnected    LoadPhase = "connected"
	PhaseDisconnected LoadPhase = "disconnected"
	PhaseFetching     LoadPhase = "fetching"
	PhaseResolved     LoadPhase = "resolved"
	PhaseFailed       LoadPhase = "failed" // unreachable while fallbacks are non-empty
)
