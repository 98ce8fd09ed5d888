package operator

// ProcessingMode is an operator's delivery-semantics contract (spec §4.I
// glossary; propagation rules in spec §4.G pass 6).
type ProcessingMode int

const (
	ModeUnspecified ProcessingMode = iota
	AtMostOnce
	AtLeastOnce
	ExactlyOnce
)

func (m ProcessingMode) String() string {
	switch m {
	case AtMostOnce:
		return "AT_MOST_ONCE"
	case AtLeastOnce:
		return "AT_LEAST_ONCE"
	case ExactlyOnce:
		return "EXACTLY_ONCE"
	default:
		return "UNSPECIFIED"
	}
}
