package agent

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"
	"github.com/tropica/briefbuddy/brief"
	"github.com/tropica/briefbuddy/finalize"
	"github.com/tropica/briefbuddy/progress"
	"github.com/tropica/briefbuddy/section"
	"github.com/tropica/briefbuddy/signal"
	"github.com/tropica/briefbuddy/types"
)

var (
	ErrTurnInProgress = errors.New("a turn is already in progress for this session")
	ErrAlreadySeeded  = errors.New("attachment already analyzed for this session")
)

// Session is one intake conversation. Its mutex guards only its own state;
// at most one turn, seed or finalize runs at a time.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu         sync.Mutex
	busy       bool
	history    []*schema.Message
	draft      *brief.Brief
	attachment *finalize.Attachment
	seeded     map[string]bool
	meta       *signal.Meta
	result     *finalize.Result
	gate       finalize.Gate
}

func NewSession() *Session {
	return newSessionWithID(uuid.NewString())
}

func newSessionWithID(id string) *Session {
	return &Session{
		ID:        id,
		CreatedAt: time.Now(),
		seeded:    make(map[string]bool),
	}
}

// Snapshot is a read-only view of a session for transports.
type Snapshot struct {
	ID        string             `json:"id"`
	Phase     types.Phase        `json:"phase"`
	State     progress.State     `json:"state"`
	Turns     []types.Turn       `json:"turns"`
	Seeded    bool               `json:"seeded"`
	Gate      finalize.GateState `json:"gate"`
	Result    *finalize.Result   `json:"result,omitempty"`
	CreatedAt time.Time          `json:"createdAt"`
}

func (s *Session) Snapshot(table section.Table) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	turns := types.FromMessages(s.history)
	state := progress.Evaluate(table, turns)
	phase := types.PhaseCollecting
	switch {
	case s.result != nil:
		phase = types.PhaseFinalized
	case state.Complete:
		phase = types.PhaseComplete
	}
	return Snapshot{
		ID:        s.ID,
		Phase:     phase,
		State:     state,
		Turns:     turns,
		Seeded:    len(s.seeded) > 0,
		Gate:      s.gate.State(),
		Result:    s.result,
		CreatedAt: s.CreatedAt,
	}
}

// History returns a copy of the conversation.
func (s *Session) History() []*schema.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*schema.Message(nil), s.history...)
}

func (s *Session) Draft() *brief.Brief {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

func (s *Session) Result() *finalize.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

func (s *Session) Gate() *finalize.Gate {
	return &s.gate
}

// Reset clears history, attachment, draft and result and re-arms the finalize gate.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = nil
	s.draft = nil
	s.attachment = nil
	s.seeded = make(map[string]bool)
	s.meta = nil
	s.result = nil
	s.gate.Reset()
}

func (s *Session) begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return ErrTurnInProgress
	}
	s.busy = true
	return nil
}

func (s *Session) end() {
	s.mu.Lock()
	s.busy = false
	s.mu.Unlock()
}

func (s *Session) appendMessages(msgs ...*schema.Message) {
	s.mu.Lock()
	s.history = appendHistory(s.history, msgs...)
	s.mu.Unlock()
}

func (s *Session) finalizeInput() finalize.Input {
	s.mu.Lock()
	defer s.mu.Unlock()
	return finalize.Input{
		History:    append([]*schema.Message(nil), s.history...),
		Draft:      s.draft,
		Attachment: s.attachment,
		Meta:       s.meta,
	}
}

func (s *Session) setMeta(meta signal.Meta) {
	s.mu.Lock()
	s.meta = &meta
	s.mu.Unlock()
}

func (s *Session) setResult(res *finalize.Result) {
	s.mu.Lock()
	s.result = res
	s.mu.Unlock()
}

func (s *Session) wasSeeded(fingerprint string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seeded[fingerprint]
}

func (s *Session) applySeed(fingerprint string, att *finalize.Attachment, draft *brief.Brief, preview *schema.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seeded[fingerprint] = true
	s.attachment = att
	s.draft = draft
	s.history = appendHistory(s.history, preview)
}

func fingerprint(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// appendHistory drops nil messages and consecutive duplicates.
func appendHistory(history []*schema.Message, msgs ...*schema.Message) []*schema.Message {
	out := history
	for _, msg := range msgs {
		if msg == nil {
			continue
		}
		if len(out) > 0 {
			last := out[len(out)-1]
			if last != nil && last.Role == msg.Role && last.Content == msg.Content {
				continue
			}
		}
		out = append(out, msg)
	}
	return out
}
