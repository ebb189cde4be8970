package command

import (
	"context"
	"errors"
	"strings"
)

var ErrMissingArgument = errors.New("command needs an argument")

// LocalParser recognises slash commands and a few bare keywords. Anything else is None.
type LocalParser struct {
	Keywords map[Command][]string
}

func NewLocalParser() *LocalParser {
	return &LocalParser{
		Keywords: map[Command][]string{
			Reset:    {"/reiniciar", "/reset", "/nuevo"},
			Finalize: {"/finalizar", "/finalize", "/terminar"},
			Attach:   {"/adjuntar", "/attach", "/archivo"},
			Quit:     {"/salir", "/quit", "/exit", "salir"},
			Help:     {"/ayuda", "/help", "?"},
		},
	}
}

func (p *LocalParser) ParseCommand(ctx context.Context, input string) (Parsed, error) {
	trimmed := strings.TrimSpace(input)
	head, arg, _ := strings.Cut(trimmed, " ")
	head = strings.ToLower(head)
	arg = strings.Trim(strings.TrimSpace(arg), `"'`)
	for _, cmd := range []Command{Reset, Finalize, Attach, Quit, Help} {
		for _, keyword := range p.Keywords[cmd] {
			if head != keyword {
				continue
			}
			if cmd == Attach && arg == "" {
				return Parsed{Command: cmd}, ErrMissingArgument
			}
			if cmd != Attach && arg != "" && !strings.HasPrefix(keyword, "/") {
				return Parsed{Command: None, Arg: trimmed}, nil
			}
			return Parsed{Command: cmd, Arg: arg}, nil
		}
	}
	return Parsed{Command: None, Arg: trimmed}, nil
}
