package session

// State is a step of the participation protocol.
type State int

const (
	// Unauthenticated: waiting for the participant to sign in.
	Unauthenticated State = iota
	// Polling: asking the lobby for a turn at a fixed interval.
	Polling
	// Computing: validating, updating and signing the assigned batch.
	Computing
	// Submitting: sending the signed batch.
	Submitting
	// Done: the coordinator accepted the contribution.
	Done
	// Aborted: stopped at the caller's request.
	Aborted
	// Failed: stopped by a fatal error.
	Failed
)

func (s State) String() string {
	switch s {
	case Unauthenticated:
		return "Unauthenticated"
	case Polling:
		return "Polling"
	case Computing:
		return "Computing"
	case Submitting:
		return "Submitting"
	case Done:
		return "Done"
	case Aborted:
		return "Aborted"
	case Failed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return s == Done || s == Aborted || s == Failed
}
