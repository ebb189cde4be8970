package dialogue

import (
	"github.com/cloudwego/eino/schema"
)

// Trimmer bounds the history sent to the model. Progress is always evaluated
// over the full history, so trimming never loses an answered section.
type Trimmer interface {
	Trim(history []*schema.Message) []*schema.Message
}

// KeepSystemLastNTrimmer keeps all system messages and the last N non-system messages.
// When N <= 0, it keeps only system messages.
type KeepSystemLastNTrimmer struct {
	N int
}

func (t KeepSystemLastNTrimmer) Trim(history []*schema.Message) []*schema.Message {
	if len(history) == 0 {
		return history
	}
	kept := 0
	start := len(history)
	for i := len(history) - 1; i >= 0 && kept < t.N; i-- {
		if history[i] == nil || history[i].Role == schema.System {
			continue
		}
		kept++
		start = i
	}
	out := make([]*schema.Message, 0, kept+1)
	for i, m := range history {
		if m == nil {
			continue
		}
		if m.Role == schema.System || i >= start {
			out = append(out, m)
		}
	}
	return out
}
