// Package llmtest provides chat models for tests: a scripted in-process fake
// and an env-gated live OpenAI-compatible model.
package llmtest

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

const LiveEnv = "BRIEFBUDDY_RUN_LIVE_TESTS"

var ErrScripted = errors.New("scripted model failure")

// ChatModel replays scripted replies. Stream emits the next reply split into
// chunks of ChunkSize runes. Generate answers tool-forced calls with the next
// ToolArgs entry and plain calls with the next reply.
type ChatModel struct {
	mu sync.Mutex

	Replies   []string
	ToolArgs  []string
	ChunkSize int
	// Hold, when set, pauses every stream after its first chunk until closed.
	Hold chan struct{}

	GenerateErr error
	StreamErr   error

	calls    [][]*schema.Message
	replyIdx int
	toolIdx  int
}

var _ model.ToolCallingChatModel = (*ChatModel)(nil)

func (m *ChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	m.record(input)
	if m.GenerateErr != nil {
		return nil, m.GenerateErr
	}
	options := model.GetCommonOptions(&model.Options{}, opts...)
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(options.Tools) > 0 && len(m.ToolArgs) > 0 {
		args := m.ToolArgs[m.toolIdx%len(m.ToolArgs)]
		m.toolIdx++
		return &schema.Message{
			Role: schema.Assistant,
			ToolCalls: []schema.ToolCall{{
				ID:       "call_1",
				Function: schema.FunctionCall{Name: options.Tools[0].Name, Arguments: args},
			}},
		}, nil
	}
	return schema.AssistantMessage(m.nextReply(), nil), nil
}

func (m *ChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	m.record(input)
	if m.StreamErr != nil {
		return nil, m.StreamErr
	}
	m.mu.Lock()
	chunks := split(m.nextReply(), m.ChunkSize)
	hold := m.Hold
	m.mu.Unlock()

	sr, sw := schema.Pipe[*schema.Message](len(chunks))
	go func() {
		defer sw.Close()
		for i, chunk := range chunks {
			if i == 1 && hold != nil {
				select {
				case <-hold:
				case <-ctx.Done():
					sw.Send(nil, ctx.Err())
					return
				}
			}
			if closed := sw.Send(schema.AssistantMessage(chunk, nil), nil); closed {
				return
			}
		}
	}()
	return sr, nil
}

func (m *ChatModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	return m, nil
}

// Calls returns the message lists the model has received.
func (m *ChatModel) Calls() [][]*schema.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]*schema.Message(nil), m.calls...)
}

func (m *ChatModel) record(input []*schema.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, append([]*schema.Message(nil), input...))
}

func (m *ChatModel) nextReply() string {
	if len(m.Replies) == 0 {
		return ""
	}
	reply := m.Replies[m.replyIdx%len(m.Replies)]
	m.replyIdx++
	return reply
}

func split(s string, size int) []string {
	if size <= 0 {
		size = 8
	}
	runes := []rune(s)
	out := make([]string, 0, len(runes)/size+1)
	for start := 0; start < len(runes); start += size {
		end := min(start+size, len(runes))
		out = append(out, string(runes[start:end]))
	}
	return out
}

// Content joins the contents of messages, for prompt assertions.
func Content(messages []*schema.Message) string {
	parts := make([]string, 0, len(messages))
	for _, m := range messages {
		parts = append(parts, m.Content)
	}
	return strings.Join(parts, "\n")
}

// Live returns a real chat model configured from the environment, or skips.
func Live(t *testing.T) *openai.ChatModel {
	t.Helper()
	if os.Getenv(LiveEnv) != "1" {
		t.Skipf("set %s=1 to run live LLM tests", LiveEnv)
		return nil
	}
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		t.Skip("OPENAI_API_KEY is empty")
		return nil
	}
	modelName := os.Getenv("OPENAI_MODEL")
	if modelName == "" {
		modelName = "gpt-4o-mini"
	}
	chatModel, err := openai.NewChatModel(context.Background(), &openai.ChatModelConfig{
		APIKey:  apiKey,
		Model:   modelName,
		BaseURL: os.Getenv("OPENAI_BASE_URL"),
	})
	if err != nil {
		t.Fatalf("failed to init chat model: %v", err)
		return nil
	}
	return chatModel
}
