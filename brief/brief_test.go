package brief

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tropica/briefbuddy/progress"
	"github.com/tropica/briefbuddy/section"
	"github.com/tropica/briefbuddy/types"
)

func sample() *Brief {
	return &Brief{
		Contacto:    Contacto{Nombre: "Juan Pérez", Correo: "juan@example.com"},
		Alcance:     "Necesitamos un video y banners.",
		Objetivos:   []string{"Aumentar awareness", "aumentar awareness"},
		Audiencia:   Audiencia{Descripcion: "Público joven urbano", Canales: []string{"Instagram", "TikTok"}},
		Marca:       Marca{Tono: "alegre"},
		Entregables: []string{"Video 30s en dos versiones"},
		Faltantes:   []string{"Logística", "Extras"},
	}
}

func TestPreview(t *testing.T) {
	t.Parallel()
	want := `**Vista previa del archivo analizado.**
- Contacto: Juan Pérez · juan@example.com
- Alcance: Necesitamos un video y banners.
- Objetivos: Aumentar awareness
- Audiencia: Público joven urbano. Canales: Instagram, TikTok
- Marca: Tono: alegre
- Entregables: Video 30s en dos versiones
- Logística: —
- Extras: —

**Faltantes:** Logística, Extras

¿Seguimos con la siguiente sección?`
	assert.Equal(t, want, sample().Preview())
}

func TestPreviewOfEmptyBriefLeavesEverythingMissing(t *testing.T) {
	t.Parallel()
	var b *Brief
	preview := b.Preview()
	assert.Contains(t, preview, "**Faltantes:** —")
	table := section.Default()
	turns := []types.Turn{{Role: types.RoleUser, Content: preview, Seeded: true}}
	assert.Equal(t, table.Names(), progress.Missing(table, turns))
}

func TestPreviewFeedsProgress(t *testing.T) {
	t.Parallel()
	table := section.Default()
	turns := []types.Turn{{Role: types.RoleUser, Content: sample().Preview(), Seeded: true}}
	assert.Equal(t, []section.Name{section.Logistica, section.Extras}, progress.Missing(table, turns))
}

func TestContactMovesEmailLast(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "Ana · ana@x.com", contact(Contacto{Nombre: "Ana", Correo: "ana@x.com"}))
	assert.Equal(t, "ana@x.com", contact(Contacto{Correo: "ana@x.com"}))
	assert.Equal(t, "", contact(Contacto{}))
}

func TestParseToleratesFencesAndNumericBudget(t *testing.T) {
	t.Parallel()
	b, err := Parse("```json\n{\"contacto\":{\"nombre\":\"Ana\",\"correo\":\"\"},\"logistica\":{\"presupuesto\":15000}}\n```")
	require.NoError(t, err)
	assert.Equal(t, "Ana", b.Contacto.Nombre)
	assert.Equal(t, Budget("15000"), b.Logistica.Presupuesto)

	b, err = Parse(`{"logistica":{"presupuesto":null}}`)
	require.NoError(t, err)
	assert.Empty(t, b.Logistica.Presupuesto)

	_, err = Parse("no es json")
	assert.Error(t, err)
}

func TestMarkdown(t *testing.T) {
	t.Parallel()
	md, err := sample().Markdown("Videos | Acme | 01-02-2024", "https://drive/x")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(md, "# Brief — Videos | Acme | 01-02-2024\n"))
	assert.Contains(t, md, "[Link al archivo](https://drive/x)")
	assert.Contains(t, md, "Completa")
	assert.Regexp(t, `\|\s*Contacto\s*\|\s*Completa\s*\|`, md)
	assert.Regexp(t, `\|\s*Extras\s*\|\s*Pendiente\s*\|`, md)
	assert.Contains(t, md, "Pendiente")
	assert.Contains(t, md, "## Objetivos\n- Aumentar awareness\n")
	assert.Contains(t, md, "- Presupuesto: —")
	assert.Contains(t, md, "## Siguiente pregunta\n—")

	empty, err := (*Brief)(nil).Markdown("x", "")
	require.NoError(t, err)
	assert.Contains(t, empty, "**Archivo original:** —")
}

func TestTextAndIsZero(t *testing.T) {
	t.Parallel()
	assert.True(t, (*Brief)(nil).IsZero())
	assert.True(t, (&Brief{}).IsZero())
	assert.False(t, sample().IsZero())
	assert.Contains(t, sample().Text(), "juan@example.com")
	assert.Contains(t, sample().Text(), "video")
	assert.Empty(t, (&Brief{}).Text())
}

func TestJSONSchema(t *testing.T) {
	t.Parallel()
	schema, err := JSONSchema()
	require.NoError(t, err)
	assert.Contains(t, schema, "siguiente_pregunta")
	assert.Contains(t, schema, "Brief creativo")
}
