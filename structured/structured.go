// Package structured asks a chat model for a typed value through a forced tool call.
package structured

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"
)

var ErrNoOutput = errors.New("model returned no structured output")

type PromptBuilder[TInput any] func(ctx context.Context, input TInput) ([]*schema.Message, error)

type Chain[TInput, TOutput any] struct {
	PromptBuilder PromptBuilder[TInput]
	ChatModel     model.ToolCallingChatModel
	ToolInfo      *schema.ToolInfo
	Options       []model.Option
}

func NewChain[TInput, TOutput any](
	chatModel model.ToolCallingChatModel,
	promptBuilder PromptBuilder[TInput],
	toolName string,
	toolDesc string,
	opts ...model.Option,
) (*Chain[TInput, TOutput], error) {
	if chatModel == nil {
		return nil, fmt.Errorf("chat model is required")
	}
	toolInfo, err := utils.GoStruct2ToolInfo[TOutput](toolName, toolDesc)
	if err != nil {
		return nil, fmt.Errorf("convert tool info failed: %w", err)
	}
	return &Chain[TInput, TOutput]{
		PromptBuilder: promptBuilder,
		ChatModel:     chatModel,
		ToolInfo:      toolInfo,
		Options:       opts,
	}, nil
}

// Invoke runs one forced tool call. Models that answer with a bare JSON body
// instead of a tool call are accepted as well.
func (s *Chain[TInput, TOutput]) Invoke(ctx context.Context, input TInput) (*TOutput, error) {
	messages, err := s.PromptBuilder(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("build prompt failed: %w", err)
	}

	opts := append([]model.Option{
		model.WithTools([]*schema.ToolInfo{s.ToolInfo}),
		model.WithToolChoice(schema.ToolChoiceForced, s.ToolInfo.Name),
	}, s.Options...)
	response, err := s.ChatModel.Generate(ctx, messages, opts...)
	if err != nil {
		return nil, fmt.Errorf("call model failed: %w", err)
	}

	raw := ""
	if len(response.ToolCalls) > 0 {
		raw = response.ToolCalls[0].Function.Arguments
	} else {
		raw = trimFence(response.Content)
	}
	if strings.TrimSpace(raw) == "" {
		return nil, ErrNoOutput
	}

	var result TOutput
	if err := sonic.UnmarshalString(raw, &result); err != nil {
		return nil, fmt.Errorf("parse ToolCall arguments failed: %w", err)
	}
	return &result, nil
}

func trimFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
