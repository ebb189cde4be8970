package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalParser(t *testing.T) {
	t.Parallel()
	p := NewLocalParser()
	ctx := context.Background()
	cases := []struct {
		input string
		want  Parsed
	}{
		{"/reiniciar", Parsed{Command: Reset}},
		{"  /FINALIZAR ", Parsed{Command: Finalize}},
		{`/adjuntar "brief cliente.pdf"`, Parsed{Command: Attach, Arg: "brief cliente.pdf"}},
		{"/salir", Parsed{Command: Quit}},
		{"salir", Parsed{Command: Quit}},
		{"salir de la ciudad es parte del rodaje", Parsed{Command: None, Arg: "salir de la ciudad es parte del rodaje"}},
		{"Juan Pérez juan@example.com", Parsed{Command: None, Arg: "Juan Pérez juan@example.com"}},
	}
	for _, tc := range cases {
		got, err := p.ParseCommand(ctx, tc.input)
		require.NoError(t, err, tc.input)
		assert.Equal(t, tc.want, got, tc.input)
	}
}

func TestLocalParserAttachNeedsPath(t *testing.T) {
	t.Parallel()
	got, err := NewLocalParser().ParseCommand(context.Background(), "/adjuntar")
	assert.ErrorIs(t, err, ErrMissingArgument)
	assert.Equal(t, Attach, got.Command)
}
