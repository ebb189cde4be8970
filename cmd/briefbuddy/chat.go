package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/cloudwego/eino/adk"
	"github.com/cloudwego/eino/schema"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/tropica/briefbuddy/agent"
	"github.com/tropica/briefbuddy/command"
	"github.com/tropica/briefbuddy/extract"
	"github.com/tropica/briefbuddy/finalize"
)

const chatHelp = `Comandos:
  /adjuntar <ruta>  analiza un archivo (PDF, DOCX o texto) y precarga el brief
  /finalizar        guarda el brief aunque falten secciones
  /reiniciar        empieza una conversación nueva
  /salir            termina
  /ayuda            muestra esta ayuda`

var (
	assistantColor = color.New(color.FgCyan)
	userColor      = color.New(color.FgGreen, color.Bold)
	noticeColor    = color.New(color.FgYellow)
	errorColor     = color.New(color.FgRed)
)

func newChatCmd(flags *rootFlags) *cobra.Command {
	var modelIntents bool
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Fill a brief from the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			app, err := loadApp(ctx, flags, os.Stderr)
			if err != nil {
				return err
			}
			defer app.Close()
			var parser command.Parser = command.NewLocalParser()
			if modelIntents {
				toolParser, err := command.NewToolParser(app.ChatModel)
				if err != nil {
					return err
				}
				parser = command.NewFailbackParser(command.NewLocalParser(), toolParser)
			}
			return runChat(ctx, app, parser, os.Stdin, os.Stdout)
		},
	}
	cmd.Flags().BoolVar(&modelIntents, "model-intents", false, "let the model recognise commands written as free text")
	return cmd
}

type chat struct {
	app     *App
	session *agent.Session
	runner  *adk.Runner
	parser  command.Parser
	out     io.Writer
}

func runChat(ctx context.Context, app *App, parser command.Parser, in io.Reader, out io.Writer) error {
	session, err := app.Sessions.Create(ctx)
	if err != nil {
		return err
	}
	ctx = agent.WithSessionID(ctx, session.ID)
	briefAgent := agent.NewAgent(
		"BriefBuddy",
		"Collects a creative brief section by section and files it when complete",
		app.Flow,
		app.Sessions,
	)
	c := &chat{
		app:     app,
		session: session,
		runner:  adk.NewRunner(ctx, adk.RunnerConfig{Agent: briefAgent, EnableStreaming: true}),
		parser:  parser,
		out:     out,
	}

	noticeColor.Fprintln(out, "Escribe /ayuda para ver los comandos.")
	if err := c.welcome(ctx); err != nil {
		return err
	}
	reader := bufio.NewReader(in)
	for {
		userColor.Fprint(out, "Tú: ")
		line, rErr := reader.ReadString('\n')
		if rErr != nil && strings.TrimSpace(line) == "" {
			fmt.Fprintln(out)
			return nil
		}
		parsed, err := c.parser.ParseCommand(ctx, line)
		if errors.Is(err, command.ErrMissingArgument) {
			errorColor.Fprintln(out, "Indica la ruta del archivo: /adjuntar <ruta>")
			continue
		}
		if err != nil {
			errorColor.Fprintln(out, err)
			continue
		}
		switch parsed.Command {
		case command.Quit:
			return nil
		case command.Help:
			fmt.Fprintln(out, chatHelp)
		case command.Reset:
			if err := c.app.Flow.Reset(c.session); err != nil {
				errorColor.Fprintln(out, err)
				continue
			}
			noticeColor.Fprintln(out, "Conversación reiniciada.")
			if err := c.welcome(ctx); err != nil {
				return err
			}
		case command.Finalize:
			c.finalize(ctx)
		case command.Attach:
			c.attach(ctx, parsed.Arg)
		default:
			if parsed.Arg == "" {
				continue
			}
			if err := c.turn(ctx, parsed.Arg); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				errorColor.Fprintln(out, err)
			}
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

func (c *chat) welcome(ctx context.Context) error {
	events, err := c.app.Flow.Welcome(ctx, c.session)
	if err != nil {
		return err
	}
	defer events.Close()
	assistantColor.Fprint(c.out, "Brief Buddy: ")
	for {
		ev, err := events.Recv()
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(c.out)
			return nil
		}
		if err != nil {
			return err
		}
		switch ev.Kind {
		case agent.EventDelta:
			assistantColor.Fprint(c.out, ev.Text)
		case agent.EventError:
			errorColor.Fprintf(c.out, "\n%s\n", ev.Text)
		}
	}
}

// turn runs one user message through the adk runner and reports a
// finalization that happened during it.
func (c *chat) turn(ctx context.Context, input string) error {
	before := c.session.Result()
	iter := c.runner.Run(ctx, []adk.Message{schema.UserMessage(input)})
	assistantColor.Fprint(c.out, "Brief Buddy: ")
	for {
		event, ok := iter.Next()
		if !ok {
			break
		}
		if event.Err != nil {
			fmt.Fprintln(c.out)
			return event.Err
		}
		if event.Output == nil || event.Output.MessageOutput == nil {
			continue
		}
		if err := c.printMessage(event.Output.MessageOutput); err != nil {
			fmt.Fprintln(c.out)
			return err
		}
	}
	fmt.Fprintln(c.out)
	if res := c.session.Result(); res != nil && res != before {
		c.printResult(res)
	}
	return nil
}

func (c *chat) printMessage(mv *adk.MessageVariant) error {
	if !mv.IsStreaming {
		msg, err := mv.GetMessage()
		if err != nil {
			return err
		}
		assistantColor.Fprint(c.out, msg.Content)
		return nil
	}
	defer mv.MessageStream.Close()
	for {
		msg, err := mv.MessageStream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		assistantColor.Fprint(c.out, msg.Content)
	}
}

func (c *chat) finalize(ctx context.Context) {
	noticeColor.Fprintln(c.out, "Guardando el brief...")
	res, err := c.app.Flow.Finalize(ctx, c.session, agent.FinalizeOptions{})
	if err != nil {
		errorColor.Fprintf(c.out, "No se pudo guardar el brief: %v\n", err)
		return
	}
	c.printResult(res)
}

func (c *chat) attach(ctx context.Context, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		errorColor.Fprintf(c.out, "No se pudo leer %s: %v\n", path, err)
		return
	}
	noticeColor.Fprintf(c.out, "Analizando %s...\n", filepath.Base(path))
	res, err := c.app.Flow.Seed(ctx, c.session, finalize.Attachment{
		Filename: filepath.Base(path),
		MimeType: extract.MimeType(path, ""),
		Data:     data,
	})
	if err != nil {
		errorColor.Fprintf(c.out, "No se pudo analizar el archivo: %v\n", err)
		return
	}
	fmt.Fprintln(c.out, res.Preview)
	if res.State.Current != "" {
		noticeColor.Fprintf(c.out, "Siguiente sección: %s\n", res.State.Current)
	}
}

func (c *chat) printResult(res *finalize.Result) {
	noticeColor.Fprintf(c.out, "Brief guardado como %q\n", res.Label)
	if res.ProjectFolder != nil && res.ProjectFolder.Link != "" {
		noticeColor.Fprintf(c.out, "Carpeta: %s\n", res.ProjectFolder.Link)
	}
	if res.BriefDoc != nil && res.BriefDoc.Link != "" {
		noticeColor.Fprintf(c.out, "Documento: %s\n", res.BriefDoc.Link)
	}
}
