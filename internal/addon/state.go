package addon

import "sync"

// State is the displayed tri-state for one addon.
type State int

const (
	StateUnknown State = iota
	StateInstalled
	StateAbsent
)

func (s State) String() string {
	switch s {
	case StateInstalled:
		return "installed"
	case StateAbsent:
		return "not installed"
	default:
		return "unknown"
	}
}

// cell holds one addon's shared progress state. A worker mutates it while
// it owns the addon; the presentation layer polls it at any time. All
// fields are guarded by mu, which is only ever held across field access,
// never across I/O.
type cell struct {
	mu         sync.Mutex
	desired    State
	inProgress bool
	fraction   float64
}

// Set implements download.Progress. Within one attempt the fraction only
// moves forward; Reset and begin rewind it.
func (c *cell) Set(fraction float64) {
	c.mu.Lock()
	if fraction > c.fraction {
		c.fraction = fraction
	}
	c.mu.Unlock()
}

// Reset implements download.Resetter. The downloader calls it at the
// start of every attempt so a retry restarts the displayed fraction.
func (c *cell) Reset() {
	c.mu.Lock()
	c.fraction = 0
	c.mu.Unlock()
}

// begin claims the cell for a worker. It reports the current desired
// state and false when another worker already owns the addon.
func (c *cell) begin() (State, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inProgress {
		return c.desired, false
	}
	c.inProgress = true
	c.fraction = 0
	return c.desired, true
}

// finish releases the cell, recording the re-derived state.
func (c *cell) finish(derived State) {
	c.mu.Lock()
	c.desired = derived
	c.inProgress = false
	c.mu.Unlock()
}

func (c *cell) snapshot() (State, bool, float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.desired, c.inProgress, c.fraction
}

func (c *cell) setDesired(s State) {
	c.mu.Lock()
	c.desired = s
	c.mu.Unlock()
}
