package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tropica/briefbuddy/section"
	"github.com/tropica/briefbuddy/types"
)

func user(content string) types.Turn {
	return types.UserTurn(content)
}

func TestEmptyTranscriptIsWelcomeState(t *testing.T) {
	t.Parallel()
	table := section.Default()
	st := Evaluate(table, nil)
	assert.Equal(t, table.Names(), st.Missing)
	assert.Equal(t, section.Contacto, st.Current)
	assert.False(t, st.Complete)
	_, ok := st.Previous(table)
	assert.False(t, ok)
}

func TestContactOnly(t *testing.T) {
	t.Parallel()
	table := section.Default()
	turns := []types.Turn{user("Juan Pérez juan@example.com")}
	missing := Missing(table, turns)
	assert.NotContains(t, missing, section.Contacto)
	assert.Equal(t, table.Names()[1:], missing)
	assert.Equal(t, section.Alcance, Next(table, turns))
}

func TestAllSectionsSatisfied(t *testing.T) {
	t.Parallel()
	table := section.Default()
	turns := []types.Turn{
		user("Ana Gómez ana@super-empresa.com"),
		user("spot de video, campaña de awareness, audiencia joven, marca con tono alegre, entregables en video, deadline 2024-12-01 con presupuesto, riesgos mínimos"),
	}
	st := Evaluate(table, turns)
	assert.Empty(t, st.Missing)
	assert.True(t, st.Complete)
	assert.Equal(t, section.Extras, st.Current)
}

func TestAssistantTurnsAreIgnored(t *testing.T) {
	t.Parallel()
	table := section.Default()
	turns := []types.Turn{
		types.AssistantTurn("Cuéntame de la audiencia, la marca y el presupuesto"),
	}
	assert.Equal(t, table.Names(), Missing(table, turns))
}

func TestMissingOrderedUniqueAndIdempotent(t *testing.T) {
	t.Parallel()
	table := section.Default()
	inputs := [][]types.Turn{
		nil,
		{user("hola")},
		{user("marca"), user("riesgos"), user("audiencia")},
		{user("Juan Pérez juan@example.com"), user("El alcance del proyecto es un video para campaña digital y nuestro objetivo principal es awareness")},
	}
	for _, turns := range inputs {
		first := Missing(table, turns)
		second := Missing(table, turns)
		assert.Equal(t, first, second)

		seen := map[section.Name]bool{}
		last := -1
		for _, name := range first {
			idx := table.Index(name)
			require.GreaterOrEqual(t, idx, 0, "unknown section %s", name)
			assert.False(t, seen[name], "duplicate %s", name)
			assert.Greater(t, idx, last, "order broken at %s", name)
			seen[name] = true
			last = idx
		}
	}
}

func TestMonotonicUnderAppend(t *testing.T) {
	t.Parallel()
	table := section.Default()
	turns := []types.Turn{user("Juan Pérez juan@example.com"), user("queremos un video")}
	before := Missing(table, turns)
	require.Contains(t, before, section.Audiencia)

	turns = append(turns, user("la audiencia son jóvenes"))
	after := Missing(table, turns)
	assert.NotContains(t, after, section.Audiencia)

	turns = append(turns, user("gracias, eso es todo por ahora"))
	final := Missing(table, turns)
	for _, name := range final {
		assert.Contains(t, after, name)
	}
}

func TestSeedPlaceholdersLeaveEverythingMissing(t *testing.T) {
	t.Parallel()
	table := section.Default()
	seed := "**Vista previa del archivo analizado.**\n- Contacto: —\n- Alcance: —\n- Objetivos: —\n- Audiencia: —\n- Marca: —\n- Entregables: —\n- Logística: —\n- Extras: —\n\n**Faltantes:** Alcance, Objetivos, Audiencia, Marca, Entregables, Logística, Extras\n\n¿Cuál es el alcance y qué objetivos o metas tiene la marca para su audiencia?"
	turns := []types.Turn{{Role: types.RoleUser, Content: seed, Seeded: true}}
	assert.Equal(t, table.Names(), Missing(table, turns))
	assert.Len(t, Missing(table, turns), 8)
}

func TestSeedValuesPropagate(t *testing.T) {
	t.Parallel()
	table := section.Default()
	seed := "**Vista previa del archivo analizado.**\n- Contacto: Juan Pérez · juan@example.com\n- Alcance: Necesitamos un video y banners.\n- Objetivos: Aumentar awareness.\n- Audiencia: —\n- Marca: —\n- Entregables: —\n- Logística: —\n- Extras: —\n\n**Faltantes:** Audiencia, Marca"
	turns := []types.Turn{{Role: types.RoleUser, Content: seed, Seeded: true}}
	assert.Equal(t, []section.Name{section.Audiencia, section.Marca, section.Entregables, section.Logistica, section.Extras}, Missing(table, turns))
}
