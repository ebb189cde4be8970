package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/tropica/briefbuddy/structured"
)

const (
	intentToolName        = "interpretar_comando"
	intentToolDescription = "Clasifica si el mensaje del usuario pide una acción sobre la conversación del brief."
)

const intentSystemPrompt = `Eres parte de un asistente que recopila briefs creativos.
Decide si el último mensaje del usuario pide una acción sobre la conversación o si solo aporta información del brief.

Intenciones permitidas:
- finalize: pide explícitamente guardar, enviar o cerrar el brief ("ya guárdalo", "envíalo así").
- reset: pide explícitamente empezar de nuevo o borrar lo conversado.
- quit: pide salir o terminar la sesión.
- none: cualquier otra cosa, incluidas respuestas a las preguntas del brief. Un "sí" o "ok" aislado es none.

Llama a la herramienta '%s' con el resultado.`

type intentOutput struct {
	Intent string `json:"intent" jsonschema:"required,enum=finalize,enum=reset,enum=quit,enum=none,description=Intención del usuario"`
}

var intents = map[string]Command{
	"finalize": Finalize,
	"reset":    Reset,
	"quit":     Quit,
	"none":     None,
}

// ToolParser asks the chat model to classify free-form text as a command.
// It never yields Attach: attaching needs a path the local parser reads.
type ToolParser struct {
	chain *structured.Chain[string, intentOutput]
}

func NewToolParser(chatModel model.ToolCallingChatModel) (*ToolParser, error) {
	chain, err := structured.NewChain[string, intentOutput](
		chatModel,
		func(ctx context.Context, input string) ([]*schema.Message, error) {
			return []*schema.Message{
				schema.SystemMessage(fmt.Sprintf(intentSystemPrompt, intentToolName)),
				schema.UserMessage(input),
			}, nil
		},
		intentToolName,
		intentToolDescription,
		model.WithTemperature(0),
	)
	if err != nil {
		return nil, err
	}
	return &ToolParser{chain: chain}, nil
}

func (p *ToolParser) ParseCommand(ctx context.Context, input string) (Parsed, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return Parsed{Command: None}, nil
	}
	out, err := p.chain.Invoke(ctx, trimmed)
	if err != nil {
		return Parsed{Command: None, Arg: trimmed}, err
	}
	cmd, ok := intents[strings.ToLower(strings.TrimSpace(out.Intent))]
	if !ok {
		return Parsed{Command: None, Arg: trimmed}, fmt.Errorf("unknown intent %q returned by %s", out.Intent, intentToolName)
	}
	if cmd == None {
		return Parsed{Command: None, Arg: trimmed}, nil
	}
	return Parsed{Command: cmd}, nil
}
