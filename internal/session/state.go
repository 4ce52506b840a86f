package session

// State is the controller lifecycle state
type State int

const (
	StateIdle State = iota
	StateRecording
	StateStopping
	StateGeneratingTestData
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StateStopping:
		return "stopping"
	case StateGeneratingTestData:
		return "generating_test_data"
	default:
		return "unknown"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// StopReason records what ended a session
type StopReason string

const (
	StopManual      StopReason = "manual"
	StopTimeout     StopReason = "timeout"
	StopSourceEnded StopReason = "source_ended"
	StopTestData    StopReason = "test_data"
)
