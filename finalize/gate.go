package finalize

import "sync"

type GateState string

const (
	Armed GateState = "armed"
	Fired GateState = "fired"
)

// Gate lets the finalize action run at most once per session. The zero value is armed.
type Gate struct {
	mu    sync.Mutex
	fired bool
}

// TryFire moves the gate from armed to fired and reports whether this call did it.
func (g *Gate) TryFire() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fired {
		return false
	}
	g.fired = true
	return true
}

// Rearm returns the gate to armed after a failed finalize so it can be retried.
func (g *Gate) Rearm() {
	g.mu.Lock()
	g.fired = false
	g.mu.Unlock()
}

// Reset is the session reset transition. It is equivalent to Rearm.
func (g *Gate) Reset() {
	g.Rearm()
}

func (g *Gate) Fired() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.fired
}

func (g *Gate) State() GateState {
	if g.Fired() {
		return Fired
	}
	return Armed
}
