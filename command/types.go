package command

import "context"

type Command string

const (
	None     Command = "none"
	Reset    Command = "reset"
	Finalize Command = "finalize"
	Attach   Command = "attach"
	Quit     Command = "quit"
	Help     Command = "help"
)

// Parsed is a recognised command and its free-form argument.
type Parsed struct {
	Command Command
	Arg     string
}

type Parser interface {
	ParseCommand(ctx context.Context, input string) (Parsed, error)
}
