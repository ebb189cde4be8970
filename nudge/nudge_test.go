package nudge

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tropica/briefbuddy/classify"
	"github.com/tropica/briefbuddy/progress"
	"github.com/tropica/briefbuddy/section"
	"github.com/tropica/briefbuddy/signal"
	"github.com/tropica/briefbuddy/types"
)

func build(turns ...types.Turn) string {
	table := section.Default()
	return Build(table, turns, progress.Evaluate(table, turns))
}

func TestBuildReflectsProgress(t *testing.T) {
	t.Parallel()
	turns := []types.Turn{
		types.UserTurn("Juan Pérez juan@example.com"),
		types.UserTurn("Necesitamos un video para la campaña y el objetivo es awareness"),
	}
	out := build(turns...)
	assert.Regexp(t, regexp.MustCompile(`Sección \*\*Objetivos\*\* completada\. Ahora avanza a \*\*Audiencia\*\*\.`), out)
	assert.Contains(t, out, `Pregunta sugerida: "¿Quién es la audiencia`)
	assert.Contains(t, out, "una sola pregunta")
	assert.Contains(t, out, `<!-- PROGRESS: {"complete":false,"missing":["Audiencia","Marca","Entregables","Logística","Extras"]} -->`)
	assert.NotContains(t, out, "AUTO_FINALIZE")

	sig, ok := signal.Parse(out)
	require.True(t, ok)
	assert.False(t, sig.Progress.Complete)
}

func TestBuildCleanStart(t *testing.T) {
	t.Parallel()
	out := build(types.UserTurn("hola"))
	assert.Contains(t, out, "Iniciemos en **Contacto**")
	assert.NotContains(t, out, "completada")
}

func TestBuildComplete(t *testing.T) {
	t.Parallel()
	out := build(
		types.UserTurn("Ana Gómez ana@super-empresa.com"),
		types.UserTurn("spot de video, campaña de awareness, audiencia joven, marca con tono alegre, entregables en video, deadline 2024-12-01 con presupuesto, riesgos mínimos"),
	)
	assert.Contains(t, out, `"complete":true`)
	assert.Contains(t, out, `<!-- AUTO_FINALIZE: {"category":"Videos","client":"Super Empresa"} -->`)

	sig, ok := signal.Parse(out)
	require.True(t, ok)
	assert.True(t, sig.Progress.Complete)
	require.True(t, sig.HasMeta)
	_, valid := classify.ParseCategory(sig.Meta.Category)
	assert.True(t, valid)
}

func TestBuildAsksToReformulateRepeatedQuestion(t *testing.T) {
	t.Parallel()
	table := section.Default()
	out := build(
		types.UserTurn("Juan Pérez juan@example.com"),
		types.AssistantTurn("Gracias. "+table.Question(section.Alcance)),
		types.UserTurn("mmm"),
	)
	assert.Contains(t, out, "reformúlala con otras palabras")
}

func TestWelcome(t *testing.T) {
	t.Parallel()
	table := section.Default()
	out := Welcome(table, progress.Evaluate(table, nil))
	assert.Contains(t, out, "**Contacto**")
	assert.True(t, strings.Contains(out, `"complete":false`))
	assert.NotContains(t, out, "AUTO_FINALIZE")
}

func TestClassify(t *testing.T) {
	t.Parallel()
	meta := Classify("Cliente: Mega Studio\nQueremos un sitio nuevo")
	assert.Equal(t, signal.Meta{Category: "Web", Client: "Mega"}, meta)
}
