package dialogue

import (
	"context"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/tropica/briefbuddy/brief"
	"github.com/tropica/briefbuddy/extract"
	"github.com/tropica/briefbuddy/structured"
	"github.com/tropica/briefbuddy/types"
)

// SeedTextLimit bounds the attachment text sent to the model.
const SeedTextLimit = 12000

const jsonSystemPrompt = "Eres un PM creativo. Devuelve SOLO JSON válido usando la herramienta indicada."

type SeedInput struct {
	Filename string
	Text     string
}

// SeedExtractor proposes an initial brief from an attachment's text.
type SeedExtractor struct {
	chain *structured.Chain[SeedInput, brief.Brief]
}

func NewSeedExtractor(chatModel model.ToolCallingChatModel) (*SeedExtractor, error) {
	chain, err := structured.NewChain[SeedInput, brief.Brief](
		chatModel,
		seedPrompt,
		"registrar_brief_inicial",
		"Registra el brief INICIAL propuesto a partir del archivo, rellenando sólo lo seguro.",
		model.WithTemperature(0.2),
	)
	if err != nil {
		return nil, err
	}
	return &SeedExtractor{chain: chain}, nil
}

func (e *SeedExtractor) Extract(ctx context.Context, input SeedInput) (*brief.Brief, error) {
	out, err := e.chain.Invoke(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("seed extraction failed: %w", err)
	}
	return out, nil
}

func seedPrompt(ctx context.Context, input SeedInput) ([]*schema.Message, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Basado en el archivo \"%s\". Texto (truncado):\n\"\"\"\n", input.Filename)
	sb.WriteString(extract.Truncate(input.Text, SeedTextLimit))
	sb.WriteString("\n\"\"\"\n")
	sb.WriteString("Tarea: propón un brief INICIAL rellenando sólo lo seguro y lista en \"faltantes\" las secciones sin datos. ")
	sb.WriteString("Incluye en \"siguiente_pregunta\" la pregunta para la primera sección faltante.")
	return []*schema.Message{
		schema.SystemMessage(jsonSystemPrompt),
		schema.UserMessage(sb.String()),
	}, nil
}

// Consolidator turns a whole conversation into the final brief.
type Consolidator struct {
	chain *structured.Chain[[]*schema.Message, brief.Brief]
}

func NewConsolidator(chatModel model.ToolCallingChatModel) (*Consolidator, error) {
	chain, err := structured.NewChain[[]*schema.Message, brief.Brief](
		chatModel,
		consolidatePrompt,
		"registrar_brief_final",
		"Registra el brief FINAL de la conversación sin inventar datos.",
		model.WithTemperature(0.1),
	)
	if err != nil {
		return nil, err
	}
	return &Consolidator{chain: chain}, nil
}

func (c *Consolidator) Consolidate(ctx context.Context, history []*schema.Message) (*brief.Brief, error) {
	out, err := c.chain.Invoke(ctx, history)
	if err != nil {
		return nil, fmt.Errorf("brief consolidation failed: %w", err)
	}
	return out, nil
}

func consolidatePrompt(ctx context.Context, history []*schema.Message) ([]*schema.Message, error) {
	historyJSON, err := sonic.MarshalString(types.FromMessages(history))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal history: %w", err)
	}
	content := "A partir de este historial de conversación (JSON) devuelve el **brief FINAL**. " +
		"No inventes datos; si falta algo, déjalo vacío o enuméralo en \"faltantes\".\n" +
		"Historial:\n```json\n" + historyJSON + "\n```"
	return []*schema.Message{
		schema.SystemMessage(jsonSystemPrompt),
		schema.UserMessage(content),
	}, nil
}

// StateOfArtWriter drafts the reference research document for a finished brief.
type StateOfArtWriter struct {
	chatModel model.BaseChatModel
}

func NewStateOfArtWriter(chatModel model.BaseChatModel) *StateOfArtWriter {
	return &StateOfArtWriter{chatModel: chatModel}
}

func (w *StateOfArtWriter) WriteStateOfArt(ctx context.Context, b *brief.Brief, label string) (string, error) {
	messages, err := stateOfArtPrompt(b, label)
	if err != nil {
		return "", err
	}
	response, err := w.chatModel.Generate(ctx, messages, model.WithTemperature(0.3))
	if err != nil {
		return "", fmt.Errorf("state of art generation failed: %w", err)
	}
	if strings.TrimSpace(response.Content) == "" {
		return "", structured.ErrNoOutput
	}
	return response.Content, nil
}

type stateOfArtBase struct {
	Alcance     string          `json:"alcance"`
	Objetivos   []string        `json:"objetivos"`
	Audiencia   brief.Audiencia `json:"audiencia"`
	Marca       brief.Marca     `json:"marca"`
	Entregables []string        `json:"entregables"`
	Logistica   brief.Logistica `json:"logistica"`
}

func stateOfArtPrompt(b *brief.Brief, label string) ([]*schema.Message, error) {
	if b == nil {
		b = &brief.Brief{}
	}
	base, err := sonic.ConfigDefault.MarshalIndent(stateOfArtBase{
		Alcance:     b.Alcance,
		Objetivos:   b.Objetivos,
		Audiencia:   b.Audiencia,
		Marca:       b.Marca,
		Entregables: b.Entregables,
		Logistica:   b.Logistica,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal brief summary: %w", err)
	}
	content := strings.Join([]string{
		fmt.Sprintf("Genera un documento en Markdown llamado \"State of Art — %s\".", label),
		"Secciones:",
		"1) **20 proyectos con temáticas similares** al brief. Prioriza ganadores/destacados en **Cannes Lions**.",
		"2) **20 proyectos con técnicas/tecnologías similares** aunque la temática sea distinta.",
		"Por proyecto: Título, Marca/Cliente, Año (aprox), Reconocimiento (Cannes si aplica), 1–2 líneas de relevancia.",
		"No inventes URLs. Puedes sugerir términos de búsqueda.",
		"",
		"Base (resumen del brief):",
		string(base),
	}, "\n")
	return []*schema.Message{
		schema.SystemMessage("Eres un investigador creativo senior. Devuelve SOLO Markdown válido."),
		schema.UserMessage(content),
	}, nil
}
