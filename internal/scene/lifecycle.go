package scene

type State int

const (
	StateConstructing State = iota
	StateRunning            // frames are being scheduled
	StateSuspended          // viewport not visible, no frames scheduled
	StateDisposed           // resources released, every call is a no-op
)

func (s State) String() string {
	switch s {
	case StateConstructing:
		return "constructing"
	case StateRunning:
		return "running"
	case StateSuspended:
		return "suspended"
	case StateDisposed:
		return "disposed"
	}
	return "unknown"
}
