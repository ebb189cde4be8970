package dialogue

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// ModelGenerator streams replies from a chat model.
type ModelGenerator struct {
	chatModel    model.BaseChatModel
	systemPrompt string
	trimmer      Trimmer
	options      []model.Option
}

type generatorOptions struct {
	systemPrompt string
	trimmer      Trimmer
	modelOptions []model.Option
}

type GeneratorOption func(*generatorOptions)

// WithSystemPrompt replaces DefaultSystemPrompt.
func WithSystemPrompt(systemPrompt string) GeneratorOption {
	return func(o *generatorOptions) {
		o.systemPrompt = systemPrompt
	}
}

// WithTrimmer bounds the history sent to the model.
func WithTrimmer(trimmer Trimmer) GeneratorOption {
	return func(o *generatorOptions) {
		o.trimmer = trimmer
	}
}

// WithModelOptions passes options such as temperature to every model call.
func WithModelOptions(opts ...model.Option) GeneratorOption {
	return func(o *generatorOptions) {
		o.modelOptions = append(o.modelOptions, opts...)
	}
}

func NewModelGenerator(chatModel model.BaseChatModel, opts ...GeneratorOption) *ModelGenerator {
	options := generatorOptions{systemPrompt: DefaultSystemPrompt}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}
	return &ModelGenerator{
		chatModel:    chatModel,
		systemPrompt: options.systemPrompt,
		trimmer:      options.trimmer,
		options:      options.modelOptions,
	}
}

func (g *ModelGenerator) GenerateReplyStream(ctx context.Context, req *Request) (*schema.StreamReader[string], error) {
	stream, err := g.chatModel.Stream(ctx, g.messages(req), g.options...)
	if err != nil {
		return nil, fmt.Errorf("LLM stream call failed: %w", err)
	}
	return schema.StreamReaderWithConvert(stream, func(message *schema.Message) (string, error) {
		if message == nil || message.Content == "" {
			return "", schema.ErrNoValue
		}
		return message.Content, nil
	}), nil
}

// GenerateReply collects a whole reply without streaming.
func (g *ModelGenerator) GenerateReply(ctx context.Context, req *Request) (string, error) {
	response, err := g.chatModel.Generate(ctx, g.messages(req), g.options...)
	if err != nil {
		return "", fmt.Errorf("LLM call failed: %w", err)
	}
	return response.Content, nil
}

func (g *ModelGenerator) messages(req *Request) []*schema.Message {
	if g.trimmer == nil {
		return BuildMessages(g.systemPrompt, req)
	}
	trimmed := *req
	trimmed.History = g.trimmer.Trim(req.History)
	return BuildMessages(g.systemPrompt, &trimmed)
}
