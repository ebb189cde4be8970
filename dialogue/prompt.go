package dialogue

import (
	"github.com/cloudwego/eino/schema"
)

// DefaultSystemPrompt sets the persona and the fixed section order.
const DefaultSystemPrompt = `Eres **BRIEF BUDDY @TRÓPICA**, un Project Manager creativo especializado en briefs publicitarios y de comunicación.

- Personalidad: cálido, empático, cercano, profesional. Estilo: guía paso a paso, claridad, simplicidad, sin jerga.
- Propósito: construir briefs claros y accionables para creatividad, publicidad y tecnología.
- Secuencia fija: Contacto → Alcance → Objetivos → Audiencia → Marca → Entregables → Logística → Extras.
- Dinámica por turno: (1) reconoce lo recibido; (2) mini-resumen en bullets de la sección actual; (3) **una sola pregunta** para la **siguiente** sección.
- Validaciones: emails correctos, fechas realistas, links válidos, compatibilidad tiempos/entregables.
- Reglas: no asumas presupuestos ni fechas; no avances si faltan datos críticos; evita preguntas genéricas.
- **Formato SIEMPRE en Markdown** (negritas, bullets, saltos de línea). Evita bloques de código salvo que sea imprescindible.
- Los comentarios HTML que se te pidan al final son invisibles para el usuario: cópialos exactamente y no los menciones.
`

// BuildMessages lays out the persona, the per-turn nudge and the conversation.
func BuildMessages(systemPrompt string, req *Request) []*schema.Message {
	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt
	}
	out := make([]*schema.Message, 0, len(req.History)+2)
	out = append(out, schema.SystemMessage(systemPrompt))
	if req.Nudge != "" {
		out = append(out, schema.SystemMessage(req.Nudge))
	}
	for _, m := range req.History {
		if m == nil || m.Role == schema.System {
			continue
		}
		out = append(out, m)
	}
	return out
}
