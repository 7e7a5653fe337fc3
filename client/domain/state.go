package domain

type SessionState int

const (
	StateIdle SessionState = iota
	StateConnecting
	StateJoined
	StateDisconnected
	StateLeaving
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateJoined:
		return "joined"
	case StateDisconnected:
		return "disconnected"
	case StateLeaving:
		return "leaving"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// IsActive reports whether the session holds a room.
func (s SessionState) IsActive() bool {
	switch s {
	case StateConnecting, StateJoined, StateDisconnected:
		return true
	default:
		return false
	}
}
