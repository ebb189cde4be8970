package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tropica/briefbuddy/internal/llmtest"
)

func TestLiveToolParser(t *testing.T) {
	t.Parallel()
	p, err := NewToolParser(llmtest.Live(t))
	require.NoError(t, err)
	ctx := context.Background()
	cases := map[string]Command{
		"Listo, ya puedes guardar el brief así como está": Finalize,
		"Borra todo y empecemos de nuevo":                 Reset,
		"La audiencia son mamás de 30 a 40 años":          None,
		"sí": None,
	}
	for input, want := range cases {
		got, err := p.ParseCommand(ctx, input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got.Command, input)
	}
}
