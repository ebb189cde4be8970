package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/cloudwego/eino/adk"
	"github.com/cloudwego/eino/schema"
)

var _ adk.Agent = (*Agent)(nil)

// Agent exposes the flow as an adk agent. Each run is one turn on the session
// named by WithSessionID in the run context.
type Agent struct {
	name        string
	description string
	flow        *Flow
	sessions    *SessionStore
}

func NewAgent(name, description string, flow *Flow, sessions *SessionStore) *Agent {
	return &Agent{
		name:        name,
		description: description,
		flow:        flow,
		sessions:    sessions,
	}
}

func (a *Agent) Name(ctx context.Context) string {
	return a.name
}

func (a *Agent) Description(ctx context.Context) string {
	return a.description
}

func (a *Agent) Run(ctx context.Context, input *adk.AgentInput, options ...adk.AgentRunOption) *adk.AsyncIterator[*adk.AgentEvent] {
	iter, gen := adk.NewAsyncIteratorPair[*adk.AgentEvent]()
	go func() {
		defer func() {
			if e := recover(); e != nil {
				gen.Send(&adk.AgentEvent{Err: fmt.Errorf("recover from panic: %v", e)})
			}
			gen.Close()
		}()
		session, err := a.sessions.FromContext(ctx)
		if err != nil {
			gen.Send(&adk.AgentEvent{Err: err})
			return
		}
		userInput := ""
		if input != nil && len(input.Messages) > 0 {
			userInput = input.Messages[len(input.Messages)-1].Content
		}
		events, err := a.flow.Reply(ctx, session, userInput)
		if err != nil {
			gen.Send(&adk.AgentEvent{Err: fmt.Errorf("flow reply failed: %w", err)})
			return
		}
		messages := schema.StreamReaderWithConvert(events, eventToMessage)
		if input != nil && input.EnableStreaming {
			gen.Send(&adk.AgentEvent{
				AgentName: a.name,
				Output: &adk.AgentOutput{
					MessageOutput: &adk.MessageVariant{
						IsStreaming:   true,
						MessageStream: messages,
						Role:          schema.Assistant,
					},
				},
			})
			return
		}
		text, err := collectText(messages)
		if err != nil {
			gen.Send(&adk.AgentEvent{Err: err})
			return
		}
		gen.Send(&adk.AgentEvent{
			AgentName: a.name,
			Output: &adk.AgentOutput{
				MessageOutput: &adk.MessageVariant{
					Message: schema.AssistantMessage(text, nil),
					Role:    schema.Assistant,
				},
			},
		})
	}()
	return iter
}

// eventToMessage keeps reply deltas and surfaces errors. Finalization events
// carry no text for the chat transcript and are dropped.
func eventToMessage(ev *Event) (*schema.Message, error) {
	switch ev.Kind {
	case EventDelta:
		return schema.AssistantMessage(ev.Text, nil), nil
	case EventError:
		return nil, ev.Err
	default:
		return nil, schema.ErrNoValue
	}
}

func collectText(sr *schema.StreamReader[*schema.Message]) (string, error) {
	defer sr.Close()
	var sb strings.Builder
	for {
		msg, err := sr.Recv()
		if errors.Is(err, io.EOF) {
			return sb.String(), nil
		}
		if err != nil {
			return "", err
		}
		sb.WriteString(msg.Content)
	}
}
