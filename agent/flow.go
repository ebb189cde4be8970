package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/tropica/briefbuddy/brief"
	"github.com/tropica/briefbuddy/dialogue"
	"github.com/tropica/briefbuddy/extract"
	"github.com/tropica/briefbuddy/finalize"
	"github.com/tropica/briefbuddy/metrics"
	"github.com/tropica/briefbuddy/nudge"
	"github.com/tropica/briefbuddy/patch"
	"github.com/tropica/briefbuddy/progress"
	"github.com/tropica/briefbuddy/section"
	"github.com/tropica/briefbuddy/signal"
	"github.com/tropica/briefbuddy/transcript"
	"github.com/tropica/briefbuddy/types"
)

const (
	GenerationFailedNotice = "Lo siento, tuve un problema al generar la respuesta. ¿Lo intentamos de nuevo?"

	defaultFinalizeTimeout = 3 * time.Minute
	eventBuffer            = 16
	excerptLength          = 600
)

var (
	ErrFinalizeDisabled = errors.New("finalization is not configured")
	ErrSeedingDisabled  = errors.New("attachment analysis is not configured")
	ErrEmptyReply       = errors.New("generator returned an empty reply")
)

type Seeder interface {
	Extract(ctx context.Context, input dialogue.SeedInput) (*brief.Brief, error)
}

type Finalizer interface {
	Finalize(ctx context.Context, in finalize.Input) (*finalize.Result, error)
}

// Flow runs conversation turns for sessions: it evaluates progress, nudges the
// generator, streams the visible reply and finalizes once the brief is complete.
type Flow struct {
	table           section.Table
	generator       dialogue.Generator
	seeder          Seeder
	finalizer       Finalizer
	metrics         metrics.Recorder
	finalizeTimeout time.Duration
}

type FlowOption func(*Flow)

func WithTable(table section.Table) FlowOption {
	return func(f *Flow) {
		f.table = table
	}
}

func WithSeeder(seeder Seeder) FlowOption {
	return func(f *Flow) {
		f.seeder = seeder
	}
}

func WithFinalizer(finalizer Finalizer) FlowOption {
	return func(f *Flow) {
		f.finalizer = finalizer
	}
}

func WithMetrics(recorder metrics.Recorder) FlowOption {
	return func(f *Flow) {
		if recorder != nil {
			f.metrics = recorder
		}
	}
}

func WithFinalizeTimeout(d time.Duration) FlowOption {
	return func(f *Flow) {
		if d > 0 {
			f.finalizeTimeout = d
		}
	}
}

func NewFlow(generator dialogue.Generator, opts ...FlowOption) (*Flow, error) {
	if generator == nil {
		return nil, fmt.Errorf("dialogue generator is required")
	}
	f := &Flow{
		table:           section.Default(),
		generator:       generator,
		metrics:         metrics.Nop(),
		finalizeTimeout: defaultFinalizeTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f, nil
}

// NewToolBasedFlow wires a chat model as reply generator, with the local
// generator as fallback, and as attachment seeder.
func NewToolBasedFlow(chatModel model.ToolCallingChatModel, maxTurns int, opts ...FlowOption) (*Flow, error) {
	seeder, err := dialogue.NewSeedExtractor(chatModel)
	if err != nil {
		return nil, fmt.Errorf("failed to create seed extractor: %w", err)
	}
	generator := dialogue.NewFailbackGenerator(
		dialogue.NewModelGenerator(chatModel, dialogue.WithTrimmer(dialogue.KeepSystemLastNTrimmer{N: maxTurns})),
		&dialogue.LocalGenerator{},
	)
	return NewFlow(generator, append([]FlowOption{WithSeeder(seeder)}, opts...)...)
}

func (f *Flow) Table() section.Table {
	return f.table
}

// Welcome greets a session that has no user turns yet.
func (f *Flow) Welcome(ctx context.Context, s *Session) (*schema.StreamReader[*Event], error) {
	return f.Reply(ctx, s, "")
}

// Reply runs one turn. The returned stream always ends with a done or an
// error event. History changes only when the reply streamed completely.
func (f *Flow) Reply(ctx context.Context, s *Session, userInput string) (*schema.StreamReader[*Event], error) {
	if err := s.begin(); err != nil {
		return nil, err
	}
	start := time.Now()

	history := s.History()
	var userMsg *schema.Message
	if text := strings.TrimSpace(userInput); text != "" {
		userMsg = schema.UserMessage(text)
		history = appendHistory(history, userMsg)
	}
	turns := types.FromMessages(history)
	state := progress.Evaluate(f.table, turns)
	welcome := !hasUserTurn(turns)

	kind := "reply"
	nudgeText := ""
	if welcome {
		kind = "welcome"
		nudgeText = nudge.Welcome(f.table, state)
	} else {
		nudgeText = nudge.Build(f.table, turns, state)
	}
	slog.Debug("Generating reply", "session", s.ID, "current", state.Current, "missing", state.Missing)

	sr, sw := schema.Pipe[*Event](eventBuffer)
	upstream, err := f.generator.GenerateReplyStream(ctx, &dialogue.Request{
		Table:   f.table,
		State:   state,
		Nudge:   nudgeText,
		History: history,
		Welcome: welcome,
	})
	if err != nil {
		slog.Warn("Reply generation failed", "session", s.ID, "error", err)
		s.end()
		f.metrics.ObserveTurn(kind, metrics.OutcomeError, time.Since(start))
		sw.Send(errorEvent(err), nil)
		sw.Close()
		return sr, nil
	}

	go f.produce(ctx, s, upstream, sw, userMsg, kind, start)
	return sr, nil
}

func (f *Flow) produce(
	ctx context.Context,
	s *Session,
	upstream *schema.StreamReader[string],
	sw *schema.StreamWriter[*Event],
	userMsg *schema.Message,
	kind string,
	start time.Time,
) {
	outcome := metrics.OutcomeOK
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Turn panicked", "session", s.ID, "panic", r)
			outcome = metrics.OutcomeError
			sw.Send(errorEvent(fmt.Errorf("recover from panic: %v", r)), nil)
		}
		upstream.Close()
		s.end()
		f.metrics.ObserveTurn(kind, outcome, time.Since(start))
		sw.Close()
	}()

	var (
		scanner  signal.Scanner
		emitted  string
		sig      signal.Signal
		hasSig   bool
		sendText = func(visible string) bool {
			delta := nextDelta(&emitted, visible)
			if delta == "" {
				return true
			}
			return !sw.Send(&Event{Kind: EventDelta, Text: delta}, nil)
		}
	)
	for {
		if ctx.Err() != nil {
			outcome = metrics.OutcomeCancelled
			return
		}
		chunk, err := upstream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if ctx.Err() != nil {
				outcome = metrics.OutcomeCancelled
				return
			}
			slog.Warn("Reply stream failed", "session", s.ID, "error", err)
			outcome = metrics.OutcomeError
			sw.Send(errorEvent(err), nil)
			return
		}
		sig, hasSig = scanner.Feed(chunk)
		// Trailing whitespace is held back until more text follows it.
		if !sendText(strings.TrimRight(signal.Visible(scanner.Text()), " \t\r\n")) {
			outcome = metrics.OutcomeCancelled
			return
		}
	}

	visible := signal.Strip(scanner.Text())
	if strings.TrimSpace(visible) == "" {
		outcome = metrics.OutcomeError
		sw.Send(errorEvent(ErrEmptyReply), nil)
		return
	}
	if !sendText(visible) || ctx.Err() != nil {
		outcome = metrics.OutcomeCancelled
		return
	}
	s.appendMessages(userMsg, schema.AssistantMessage(visible, nil))

	if hasSig {
		f.metrics.IncSignal(sig.Progress.Complete)
		if sig.HasMeta {
			s.setMeta(sig.Meta)
		}
		slog.Debug("Parsed completion signal", "session", s.ID, "complete", sig.Progress.Complete, "missing", sig.Progress.Missing)
	}
	if hasSig && sig.Progress.Complete {
		f.autoFinalize(ctx, s, sw)
	}
	state := progress.Evaluate(f.table, types.FromMessages(s.History()))
	sw.Send(&Event{Kind: EventDone, State: &state}, nil)
}

func (f *Flow) autoFinalize(ctx context.Context, s *Session, sw *schema.StreamWriter[*Event]) {
	if f.finalizer == nil {
		f.metrics.IncFinalize(metrics.FinalizeSkipped)
		return
	}
	if !s.gate.TryFire() {
		slog.Debug("Finalize gate already fired", "session", s.ID)
		f.metrics.IncFinalize(metrics.FinalizeSkipped)
		return
	}
	sw.Send(&Event{Kind: EventFinalizing}, nil)
	res, err := f.runFinalize(ctx, s, s.finalizeInput())
	if err != nil {
		sw.Send(&Event{Kind: EventFinalizeFailed, Error: err.Error(), Err: err}, nil)
		return
	}
	sw.Send(&Event{Kind: EventFinalized, Result: res}, nil)
}

// Finalize runs the finalization pipeline on demand. It shares the session's
// gate with automatic finalization.
func (f *Flow) Finalize(ctx context.Context, s *Session, opts FinalizeOptions) (*finalize.Result, error) {
	if f.finalizer == nil {
		return nil, ErrFinalizeDisabled
	}
	if err := s.begin(); err != nil {
		return nil, err
	}
	defer s.end()
	if !s.gate.TryFire() {
		return nil, finalize.ErrAlreadyFinalized
	}
	in := s.finalizeInput()
	in.Category = opts.Category
	in.Client = opts.Client
	return f.runFinalize(ctx, s, in)
}

// runFinalize outlives the caller's cancellation: once started, the project
// tree is completed or the gate is re-armed.
func (f *Flow) runFinalize(ctx context.Context, s *Session, in finalize.Input) (*finalize.Result, error) {
	fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), f.finalizeTimeout)
	defer cancel()
	res, err := f.finalizer.Finalize(fctx, in)
	if err != nil {
		s.gate.Rearm()
		f.metrics.IncFinalize(metrics.FinalizeFailed)
		slog.Warn("Finalize failed", "session", s.ID, "error", err)
		return nil, fmt.Errorf("failed to finalize brief: %w", err)
	}
	s.setResult(res)
	f.metrics.IncFinalize(metrics.FinalizeSuccess)
	slog.Info("Brief finalized", "session", s.ID, "label", res.Label)
	return res, nil
}

// Seed analyzes an attachment, merges the proposed brief into the session
// draft and appends its preview as a seeded user turn.
func (f *Flow) Seed(ctx context.Context, s *Session, att finalize.Attachment) (*SeedResult, error) {
	if f.seeder == nil {
		return nil, ErrSeedingDisabled
	}
	if err := s.begin(); err != nil {
		return nil, err
	}
	defer s.end()

	fp := fingerprint(att.Data)
	if s.wasSeeded(fp) {
		return nil, ErrAlreadySeeded
	}
	att.MimeType = extract.MimeType(att.Filename, att.MimeType)
	text, err := extract.Text(att.Filename, att.MimeType, att.Data)
	if err != nil {
		f.metrics.IncSeed(false)
		return nil, fmt.Errorf("failed to extract text from %s: %w", att.Filename, err)
	}
	seed, err := f.seeder.Extract(ctx, dialogue.SeedInput{Filename: att.Filename, Text: text})
	if err != nil {
		f.metrics.IncSeed(false)
		return nil, err
	}

	draft := seed
	if current := s.Draft(); current != nil {
		merged, err := patch.Overlay(*current, *seed)
		if err != nil {
			slog.Warn("Failed to merge seed into draft", "session", s.ID, "error", err)
		} else {
			draft = &merged
		}
	}
	preview := seed.Preview()
	s.applySeed(fp, &att, draft, types.SeededMessage(preview))
	f.metrics.IncSeed(true)

	turns := types.FromMessages(s.History())
	slog.Info("Attachment analyzed", "session", s.ID, "file", att.Filename)
	return &SeedResult{
		Brief:   seed,
		Preview: preview,
		Excerpt: extract.Truncate(text, excerptLength),
		Meta:    nudge.Classify(transcript.Evaluable(turns, f.table)),
		State:   progress.Evaluate(f.table, turns),
	}, nil
}

// Reset clears the session unless a turn is running.
func (f *Flow) Reset(s *Session) error {
	if err := s.begin(); err != nil {
		return err
	}
	defer s.end()
	s.Reset()
	return nil
}

func hasUserTurn(turns []types.Turn) bool {
	for _, t := range turns {
		if t.Role == types.RoleUser {
			return true
		}
	}
	return false
}

// nextDelta returns what visible adds to the text already emitted.
func nextDelta(emitted *string, visible string) string {
	if len(visible) <= len(*emitted) || !strings.HasPrefix(visible, *emitted) {
		return ""
	}
	delta := visible[len(*emitted):]
	*emitted = visible
	return delta
}

func errorEvent(err error) *Event {
	return &Event{Kind: EventError, Text: GenerationFailedNotice, Error: err.Error(), Err: err}
}
