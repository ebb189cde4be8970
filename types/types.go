package types

import "github.com/cloudwego/eino/schema"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Phase string

const (
	PhaseCollecting Phase = "collecting"
	PhaseComplete   Phase = "complete"
	PhaseFinalized  Phase = "finalized"
)

// SeededExtraKey marks a user message whose content was produced from an
// attachment preview rather than typed by the user.
const SeededExtraKey = "briefbuddy_seeded"

type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
	Seeded  bool   `json:"seeded,omitempty"`
}

func UserTurn(content string) Turn {
	return Turn{Role: RoleUser, Content: content}
}

func AssistantTurn(content string) Turn {
	return Turn{Role: RoleAssistant, Content: content}
}

// FromMessages converts chat history into turns. System and tool messages
// are not part of the conversation and are skipped.
func FromMessages(history []*schema.Message) []Turn {
	out := make([]Turn, 0, len(history))
	for _, m := range history {
		if m == nil {
			continue
		}
		switch m.Role {
		case schema.User:
			out = append(out, Turn{Role: RoleUser, Content: m.Content, Seeded: IsSeeded(m)})
		case schema.Assistant:
			out = append(out, Turn{Role: RoleAssistant, Content: m.Content})
		default:
		}
	}
	return out
}

func IsSeeded(m *schema.Message) bool {
	if m == nil || m.Extra == nil {
		return false
	}
	v, ok := m.Extra[SeededExtraKey].(bool)
	return ok && v
}

// SeededMessage builds a user message carrying attachment preview text.
func SeededMessage(content string) *schema.Message {
	msg := schema.UserMessage(content)
	msg.Extra = map[string]any{SeededExtraKey: true}
	return msg
}
