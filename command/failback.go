package command

import (
	"context"
	"log/slog"
	"strings"
)

// FailbackParser asks each parser in turn. The first one that recognises a
// command wins, even when it also reports an error. Errors only surface when
// every parser failed.
type FailbackParser struct {
	parsers []Parser
}

func NewFailbackParser(parsers ...Parser) *FailbackParser {
	return &FailbackParser{parsers: parsers}
}

func (p *FailbackParser) ParseCommand(ctx context.Context, input string) (Parsed, error) {
	var lastErr error
	failed := 0
	for _, parser := range p.parsers {
		parsed, err := parser.ParseCommand(ctx, input)
		if parsed.Command != None && parsed.Command != "" {
			return parsed, err
		}
		if err != nil {
			slog.Debug("Command parser failed", "error", err)
			lastErr = err
			failed++
		}
	}
	none := Parsed{Command: None, Arg: strings.TrimSpace(input)}
	if failed == len(p.parsers) && lastErr != nil {
		return none, lastErr
	}
	return none, nil
}
