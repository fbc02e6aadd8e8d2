package checkpoint

// Status is the lifecycle status of a Strategy: Created -> Started -> Stopped.
type Status int32

const (
	Created Status = iota
	Started
	Stopped
)

func (s Status) String() string {
	switch s {
	case Created:
		return "created"
	case Started:
		return "started"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}
