package interrupt

// IME is the interrupt master enable.
//
// EI does not enable interrupts right away: it moves IME to Scheduled, and the
// CPU promotes it to Enabled at the start of the following step, so the
// instruction after EI always runs before any interrupt can be serviced.
type IME uint8

const (
	Disabled IME = iota
	Enabled
	Scheduled
)

// Enable is the EI transition. An already enabled IME stays enabled.
func (i IME) Enable() IME {
	if i == Enabled {
		return Enabled
	}
	return Scheduled
}

// Disable is the DI transition, and what servicing an interrupt does.
func (i IME) Disable() IME {
	return Disabled
}

// EnableNow is the RETI transition, which has no latency.
func (i IME) EnableNow() IME {
	return Enabled
}

// Promote completes a pending EI. It returns the new state and whether a
// promotion happened.
func (i IME) Promote() (IME, bool) {
	if i == Scheduled {
		return Enabled, true
	}
	return i, false
}

func (i IME) String() string {
	switch i {
	case Disabled:
		return "Disabled"
	case Enabled:
		return "Enabled"
	case Scheduled:
		return "Scheduled"
	}
	return "IME(?)"
}
