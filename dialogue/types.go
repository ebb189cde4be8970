package dialogue

import (
	"context"

	"github.com/cloudwego/eino/schema"
	"github.com/tropica/briefbuddy/progress"
	"github.com/tropica/briefbuddy/section"
	"github.com/tropica/briefbuddy/types"
)

// Request is everything a generator needs to write the next assistant reply.
type Request struct {
	Table   section.Table
	State   progress.State
	Nudge   string
	History []*schema.Message
	// Welcome is set when the session has no user turns yet.
	Welcome bool
}

// Turns is the history as role/content turns.
func (r *Request) Turns() []types.Turn {
	return types.FromMessages(r.History)
}

// Generator streams the text of the next assistant reply.
type Generator interface {
	GenerateReplyStream(ctx context.Context, req *Request) (*schema.StreamReader[string], error)
}
