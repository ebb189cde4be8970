package dialogue

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"
	"github.com/tropica/briefbuddy/nudge"
	"github.com/tropica/briefbuddy/signal"
	"github.com/tropica/briefbuddy/transcript"
)

// LocalGenerator answers without a model: it acknowledges, asks the suggested
// question for the current section and appends the same markers the nudge asks for.
type LocalGenerator struct{}

func (g *LocalGenerator) GenerateReply(ctx context.Context, req *Request) (string, error) {
	body := g.body(req)
	var sb strings.Builder
	sb.WriteString(body)
	sb.WriteString("\n\n")
	sb.WriteString(g.markers(req))
	return sb.String(), nil
}

func (g *LocalGenerator) GenerateReplyStream(ctx context.Context, req *Request) (*schema.StreamReader[string], error) {
	body := g.body(req)
	return schema.StreamReaderFromArray([]string{body, "\n\n", g.markers(req)}), nil
}

func (g *LocalGenerator) body(req *Request) string {
	question := req.Table.Question(req.State.Current)
	switch {
	case req.Welcome:
		return fmt.Sprintf("¡Hola! Soy **Brief Buddy**. Te acompaño paso a paso para armar un brief claro y accionable.\n\nEmpecemos por **%s**: %s", req.State.Current, question)
	case req.State.Complete:
		return "¡Gracias! Ya tenemos todas las secciones del brief. Si quieres ajustar algo, dímelo; si no, lo dejo listo para el equipo."
	}
	if prev, ok := req.State.Previous(req.Table); ok {
		return fmt.Sprintf("¡Gracias! Con esto cerramos **%s**.\n\nSigamos con **%s**: %s", prev, req.State.Current, question)
	}
	return fmt.Sprintf("¡Gracias! Vamos con **%s**: %s", req.State.Current, question)
}

func (g *LocalGenerator) markers(req *Request) string {
	out := signal.FormatProgress(req.State.Missing)
	if req.State.Complete {
		meta := nudge.Classify(transcript.Evaluable(req.Turns(), req.Table))
		out += "\n" + signal.FormatMeta(meta)
	}
	return out
}

// FailbackGenerator tries each generator in order until one starts a stream.
type FailbackGenerator struct {
	generators []Generator
}

func NewFailbackGenerator(generators ...Generator) *FailbackGenerator {
	return &FailbackGenerator{generators: generators}
}

func (g *FailbackGenerator) GenerateReplyStream(ctx context.Context, req *Request) (*schema.StreamReader[string], error) {
	var lastErr error
	for _, generator := range g.generators {
		if generator == nil {
			continue
		}
		stream, err := generator.GenerateReplyStream(ctx, req)
		if err == nil {
			return stream, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no generator configured")
	}
	return nil, fmt.Errorf("all dialogue generators failed: %w", lastErr)
}
