package gpio

// Debouncer filters one input line. A new level becomes stable only after it
// has been observed continuously for the debounce period.
type Debouncer struct {
	periodMs uint32

	stable       bool
	pending      bool
	hasPending   bool
	pendingSince uint32
	baselined    bool
}

// NewDebouncer creates a debouncer with the given period in milliseconds.
func NewDebouncer(periodMs uint32) *Debouncer {
	return &Debouncer{periodMs: periodMs}
}

// Update feeds a raw sample taken at now and returns true if the stable
// level changed.
func (d *Debouncer) Update(level bool, now uint32) bool {
	// First time seeing this line
	if !d.baselined {
		if !d.hasPending || d.pending != level {
			// Start observing, or restart on change
			d.pending = level
			d.hasPending = true
			d.pendingSince = now
		}
		if now-d.pendingSince >= d.periodMs {
			d.stable = level
			d.baselined = true
			d.hasPending = false
		}
		return false
	}

	// Already baselined - detect transitions
	if level == d.stable {
		d.hasPending = false
		return false
	}

	if !d.hasPending || d.pending != level {
		d.pending = level
		d.hasPending = true
		d.pendingSince = now
	}

	if now-d.pendingSince >= d.periodMs {
		d.stable = level
		d.hasPending = false
		return true
	}
	return false
}

// Stable returns the debounced level. Before a baseline is established the
// line reads as inactive.
func (d *Debouncer) Stable() bool {
	return d.baselined && d.stable
}

// Baselined reports whether the line has been stable for one full period.
func (d *Debouncer) Baselined() bool {
	return d.baselined
}
