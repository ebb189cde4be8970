package agent

import (
	"context"
	"testing"

	"github.com/cloudwego/eino/adk"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tropica/briefbuddy/internal/llmtest"
)

func runAgent(t *testing.T, a *Agent, ctx context.Context, input *adk.AgentInput) []*adk.AgentEvent {
	t.Helper()
	iter := a.Run(ctx, input)
	var out []*adk.AgentEvent
	for {
		ev, ok := iter.Next()
		if !ok {
			return out
		}
		out = append(out, ev)
	}
}

func TestAgentRunsTurnOnRoutedSession(t *testing.T) {
	t.Parallel()
	fake := &llmtest.ChatModel{Replies: []string{"¿Cuál es tu correo?\n" + `<!-- PROGRESS: {"complete":false,"missing":["Contacto"]} -->`}}
	sessions := NewSessionStore(NewExpiringCache[*Session](0))
	a := NewAgent("brief-buddy", "Creative brief intake", newFlow(t, fake), sessions)
	assert.Equal(t, "brief-buddy", a.Name(context.Background()))

	ctx := WithSessionID(context.Background(), "s1")
	events := runAgent(t, a, ctx, &adk.AgentInput{Messages: []adk.Message{schema.UserMessage("hola")}})
	require.Len(t, events, 1)
	require.NoError(t, events[0].Err)
	msg := events[0].Output.MessageOutput.Message
	require.NotNil(t, msg)
	assert.Equal(t, "¿Cuál es tu correo?", msg.Content)

	s, err := sessions.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, s.History(), 2)
}

func TestAgentStreaming(t *testing.T) {
	t.Parallel()
	fake := &llmtest.ChatModel{Replies: []string{"Hola, soy Brief Buddy."}, ChunkSize: 3}
	a := NewAgent("brief-buddy", "", newFlow(t, fake), NewSessionStore(NewExpiringCache[*Session](0)))
	events := runAgent(t, a, WithSessionID(context.Background(), "s2"), &adk.AgentInput{EnableStreaming: true})
	require.Len(t, events, 1)
	variant := events[0].Output.MessageOutput
	require.True(t, variant.IsStreaming)
	text, err := collectText(variant.MessageStream)
	require.NoError(t, err)
	assert.Equal(t, "Hola, soy Brief Buddy.", text)
}

func TestAgentRequiresSessionID(t *testing.T) {
	t.Parallel()
	a := NewAgent("brief-buddy", "", newFlow(t, &llmtest.ChatModel{}), NewSessionStore(NewExpiringCache[*Session](0)))
	events := runAgent(t, a, context.Background(), &adk.AgentInput{})
	require.Len(t, events, 1)
	require.ErrorIs(t, events[0].Err, ErrNoSessionKey)
}

func TestAgentSurfacesGenerationErrors(t *testing.T) {
	t.Parallel()
	a := NewAgent("brief-buddy", "", newFlow(t, &llmtest.ChatModel{StreamErr: llmtest.ErrScripted}), NewSessionStore(NewExpiringCache[*Session](0)))
	events := runAgent(t, a, WithSessionID(context.Background(), "s3"), &adk.AgentInput{Messages: []adk.Message{schema.UserMessage("hola")}})
	require.Len(t, events, 1)
	require.ErrorIs(t, events[0].Err, llmtest.ErrScripted)
}
