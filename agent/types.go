package agent

import (
	"github.com/tropica/briefbuddy/brief"
	"github.com/tropica/briefbuddy/finalize"
	"github.com/tropica/briefbuddy/progress"
	"github.com/tropica/briefbuddy/signal"
)

type EventKind string

const (
	EventDelta          EventKind = "delta"
	EventDone           EventKind = "done"
	EventError          EventKind = "error"
	EventFinalizing     EventKind = "finalizing"
	EventFinalized      EventKind = "finalized"
	EventFinalizeFailed EventKind = "finalize_failed"
)

// Event is one item of a turn's output stream: visible reply deltas, then
// optional finalization events, then done; or a single error.
type Event struct {
	Kind   EventKind        `json:"type"`
	Text   string           `json:"text,omitempty"`
	State  *progress.State  `json:"state,omitempty"`
	Result *finalize.Result `json:"result,omitempty"`
	Error  string           `json:"error,omitempty"`
	Err    error            `json:"-"`
}

type FinalizeOptions struct {
	Category string
	Client   string
}

type SeedResult struct {
	Brief   *brief.Brief   `json:"brief"`
	Preview string         `json:"preview"`
	Excerpt string         `json:"excerpt"`
	Meta    signal.Meta    `json:"meta"`
	State   progress.State `json:"state"`
}
