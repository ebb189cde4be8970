package section

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultDetectors(t *testing.T) {
	t.Parallel()
	table := Default()
	cases := []struct {
		section Name
		text    string
		want    bool
	}{
		{Contacto, "Juan Pérez juan@example.com", true},
		{Contacto, "Juan sin correo", false},
		{Contacto, "juan@example.com", false},
		{Alcance, "Necesitamos un video, banners y más piezas para la campaña", true},
		{Alcance, "hola", false},
		{Objetivos, "Nuestro objetivo es awareness y conversiones", true},
		{Objetivos, "El objetivo principal es crecer", true},
		{Audiencia, "Audiencia: público joven y digital", true},
		{Marca, "La marca tiene un tono alegre y valores claros", true},
		{Entregables, "Entregables: formatos y versiones en video", true},
		{Logistica, "Deadline 2024-12-01 con presupuesto y aprobaciones", true},
		{Logistica, "lo necesitamos para el 15/11", true},
		{Logistica, "sin pistas", false},
		{Extras, "Riesgos y referencias adicionales", true},
		{Extras, "nada más", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, table.Completed(tc.section, tc.text), "%s: %q", tc.section, tc.text)
	}
}

func TestScopeLongDescription(t *testing.T) {
	t.Parallel()
	text := "queremos contar la historia de nuestra cooperativa de café desde el origen hasta la taza con testimonios de productores y familias de la región"
	assert.True(t, Default().Completed(Alcance, text))
}

func TestCompletedRecoversPanics(t *testing.T) {
	t.Parallel()
	table := MustNew(
		Section{Name: "Uno", Detect: func(string) bool { panic("boom") }},
		Section{Name: "Dos", Detect: func(string) bool { return true }},
	)
	assert.False(t, table.Completed("Uno", "x"))
	assert.True(t, table.Completed("Dos", "x"))
	assert.False(t, table.Completed("Tres", "x"))
}

func TestNewValidates(t *testing.T) {
	t.Parallel()
	_, err := New()
	require.ErrorIs(t, err, ErrEmptyTable)

	ok := func(string) bool { return true }
	_, err = New(Section{Name: "A", Detect: ok}, Section{Name: "A", Detect: ok})
	require.ErrorIs(t, err, ErrDuplicateName)

	_, err = New(Section{Name: "A"})
	require.ErrorIs(t, err, ErrNoPredicate)
}

func TestLookupAliases(t *testing.T) {
	t.Parallel()
	table := Default()
	for label, want := range map[string]Name{
		"Fechas":     Logistica,
		"logistica":  Logistica,
		"LOGÍSTICA":  Logistica,
		" contacto ": Contacto,
		"Correo":     Contacto,
		"Extras":     Extras,
	} {
		got, ok := table.Lookup(label)
		require.True(t, ok, label)
		assert.Equal(t, want, got, label)
	}
	_, ok := table.Lookup("Faltantes")
	assert.False(t, ok)
}

func TestTableOrder(t *testing.T) {
	t.Parallel()
	table := Default()
	assert.Equal(t, []Name{Contacto, Alcance, Objetivos, Audiencia, Marca, Entregables, Logistica, Extras}, table.Names())
	assert.Equal(t, Contacto, table.First())
	assert.Equal(t, Extras, table.Last())
	prev, ok := table.Previous(Audiencia)
	require.True(t, ok)
	assert.Equal(t, Objetivos, prev)
	_, ok = table.Previous(Contacto)
	assert.False(t, ok)
	assert.Contains(t, table.Question(Audiencia), "¿Quién es la audiencia")
	assert.Equal(t, fallbackQuestion, table.Question("Nada"))
}
