// Package nudge builds the per-turn instruction that steers the next generated
// reply and tells the generator which hidden markers to append.
package nudge

import (
	"fmt"
	"strings"

	"github.com/tropica/briefbuddy/classify"
	"github.com/tropica/briefbuddy/progress"
	"github.com/tropica/briefbuddy/section"
	"github.com/tropica/briefbuddy/signal"
	"github.com/tropica/briefbuddy/transcript"
	"github.com/tropica/briefbuddy/types"
)

const markerInstruction = "Al final de tu respuesta agrega, exactamente como aparece y sin mencionarlo, este comentario oculto:"

// Build renders the nudge for a conversation that already has user input.
func Build(table section.Table, turns []types.Turn, state progress.State) string {
	var sb strings.Builder
	sb.WriteString(progressStatement(table, state))
	sb.WriteString("\n")
	sb.WriteString(actionBlock(state.Current))
	if asked := lastAssistant(turns); asked != "" && strings.Contains(asked, table.Question(state.Current)) {
		sb.WriteString("- La pregunta sugerida ya se hizo en el turno anterior sin respuesta: reformúlala con otras palabras.\n")
	}
	fmt.Fprintf(&sb, "Pregunta sugerida: \"%s\"\n", table.Question(state.Current))
	sb.WriteString(markers(state, Classify(transcript.Evaluable(turns, table))))
	return sb.String()
}

// Welcome renders the greeting nudge used when the session has no user turns yet.
func Welcome(table section.Table, state progress.State) string {
	first := table.First()
	var sb strings.Builder
	sb.WriteString("Saluda de manera cálida (2–3 líneas) y explica qué harás.\n")
	fmt.Fprintf(&sb, "Luego pasa DIRECTO a la sección **%s** con una sola pregunta positiva.\n", first)
	sb.WriteString("No uses frases como \"¿quieres comenzar?\" ni remarques que falta información.\n")
	fmt.Fprintf(&sb, "Pregunta sugerida: \"%s\"\n", table.Question(first))
	sb.WriteString(markers(state, signal.Meta{}))
	return sb.String()
}

// Classify infers the finalize metadata from evaluable transcript text.
func Classify(text string) signal.Meta {
	return signal.Meta{
		Category: string(classify.GuessCategory(text)),
		Client:   classify.GuessClient(text),
	}
}

func progressStatement(table section.Table, state progress.State) string {
	if state.Complete {
		return fmt.Sprintf("Todas las secciones están completas. Agradece lo recibido, resume el brief en bullets y confirma si falta algo en **%s** antes de cerrar.", state.Current)
	}
	prev, ok := table.Previous(state.Current)
	if !ok {
		return fmt.Sprintf("Iniciemos en **%s**. Pide los datos necesarios de manera positiva, sin preguntar si desea comenzar.", state.Current)
	}
	return fmt.Sprintf("Sección **%s** completada. Ahora avanza a **%s**. Reconoce y agradece lo recibido brevemente.", prev, state.Current)
}

func actionBlock(current section.Name) string {
	return fmt.Sprintf(`Acción:
- Haz un mini-resumen en bullets SOLO si ya hay datos válidos de la sección actual.
- Formula **una sola pregunta** clara y positiva para **%s**.
- Nunca digas frases como "no has compartido información" o "¿quieres comenzar?".
- Si ya hiciste una pregunta y no obtuviste respuesta, reformúlala en lugar de repetirla textualmente.
`, current)
}

func markers(state progress.State, meta signal.Meta) string {
	var sb strings.Builder
	sb.WriteString(markerInstruction)
	sb.WriteString("\n")
	sb.WriteString(signal.FormatProgress(state.Missing))
	if state.Complete {
		sb.WriteString("\n")
		sb.WriteString(signal.FormatMeta(meta))
	}
	return sb.String()
}

func lastAssistant(turns []types.Turn) string {
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == types.RoleAssistant {
			return turns[i].Content
		}
	}
	return ""
}
