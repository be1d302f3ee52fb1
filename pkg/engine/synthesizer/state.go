package synthesizer

type State int

const (
	Growing State = iota
	Closing
	Success
	OvershootAccepted
	Aborted
)

func (s State) String() string {
	switch s {
	case Growing:
		return "GROWING"
	case Closing:
		return "CLOSING"
	case Success:
		return "SUCCESS"
	case OvershootAccepted:
		return "OVERSHOOT_ACCEPTED"
	case Aborted:
		return "ABORTED"
	default:
		return "UNKNOWN"
	}
}

// Succeeded OvershootAccepted is reported to callers as a success.
func (s State) Succeeded() bool {
	return s == Success || s == OvershootAccepted
}

// Terminal Success, OvershootAccepted and Aborted end a synthesis.
func (s State) Terminal() bool {
	return s == Success || s == OvershootAccepted || s == Aborted
}
