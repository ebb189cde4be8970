package finalize

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/tropica/briefbuddy/brief"
	"github.com/tropica/briefbuddy/classify"
	"github.com/tropica/briefbuddy/patch"
	"github.com/tropica/briefbuddy/signal"
	"github.com/tropica/briefbuddy/storage"
)

const (
	StateOfArtFolder      = "State of Art"
	stateOfArtPlaceholder = "# State of Art\n(Contenido no disponible)"
)

var (
	ErrAlreadyFinalized = errors.New("brief already finalized for this session")
	ErrNoStore          = errors.New("no storage configured")
)

type Consolidator interface {
	Consolidate(ctx context.Context, history []*schema.Message) (*brief.Brief, error)
}

type Researcher interface {
	WriteStateOfArt(ctx context.Context, b *brief.Brief, label string) (string, error)
}

type Attachment struct {
	Filename string
	MimeType string
	Data     []byte
}

type Input struct {
	History    []*schema.Message
	Draft      *brief.Brief
	Attachment *Attachment
	// Meta comes from the AUTO_FINALIZE marker, when one was seen.
	Meta *signal.Meta
	// Category and Client override everything else when set.
	Category string
	Client   string
}

type StateOfArt struct {
	Folder *storage.Object `json:"folder"`
	Doc    *storage.Object `json:"doc"`
}

type Result struct {
	ProjectFolder *storage.Object `json:"projectFolder"`
	BriefDoc      *storage.Object `json:"briefDoc"`
	StateOfArt    StateOfArt      `json:"stateOfArt"`
	File          *storage.Object `json:"file,omitempty"`
	Label         string          `json:"label"`
	Category      string          `json:"category"`
	Client        string          `json:"client"`
	Brief         *brief.Brief    `json:"brief"`
}

// Finalizer writes a finished brief to storage: project folder, uploaded
// attachment, brief document and a State of Art folder.
type Finalizer struct {
	Consolidator Consolidator
	Researcher   Researcher
	Store        storage.Store
	RootFolderID string
	Now          func() time.Time
}

func (f *Finalizer) Finalize(ctx context.Context, in Input) (*Result, error) {
	if f.Store == nil {
		return nil, ErrNoStore
	}
	b := f.consolidate(ctx, in)

	filename := ""
	if in.Attachment != nil {
		filename = in.Attachment.Filename
	}
	category := resolveCategory(in, b, filename)
	client := resolveClient(in, b, filename)
	label := classify.Label(category, client, f.now())
	slog.Info("Finalizing brief", "label", label)

	folder, err := f.Store.EnsureFolder(ctx, label, f.RootFolderID)
	if err != nil {
		return nil, fmt.Errorf("failed to create project folder: %w", err)
	}
	f.share(ctx, folder)

	result := &Result{
		ProjectFolder: folder,
		Label:         label,
		Category:      string(category),
		Client:        client,
		Brief:         b,
	}

	if in.Attachment != nil && len(in.Attachment.Data) > 0 {
		file, err := f.Store.PutFile(ctx, folder.ID, in.Attachment.Filename, in.Attachment.MimeType, bytes.NewReader(in.Attachment.Data))
		if err != nil {
			return nil, fmt.Errorf("failed to upload attachment: %w", err)
		}
		f.share(ctx, file)
		result.File = file
	}

	fileLink := ""
	if result.File != nil {
		fileLink = result.File.Link
	}
	md, err := b.Markdown(label, fileLink)
	if err != nil {
		return nil, fmt.Errorf("failed to render brief document: %w", err)
	}
	doc, err := f.Store.PutFile(ctx, folder.ID, "Brief — "+label+".md", storage.MarkdownMimeType, strings.NewReader(md))
	if err != nil {
		return nil, fmt.Errorf("failed to write brief document: %w", err)
	}
	f.share(ctx, doc)
	result.BriefDoc = doc

	soaFolder, err := f.Store.EnsureFolder(ctx, StateOfArtFolder, folder.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create state of art folder: %w", err)
	}
	f.share(ctx, soaFolder)
	soaDoc, err := f.Store.PutFile(ctx, soaFolder.ID, "State of Art — "+label+".md", storage.MarkdownMimeType, strings.NewReader(f.stateOfArt(ctx, b, label)))
	if err != nil {
		return nil, fmt.Errorf("failed to write state of art document: %w", err)
	}
	f.share(ctx, soaDoc)
	result.StateOfArt = StateOfArt{Folder: soaFolder, Doc: soaDoc}
	return result, nil
}

// consolidate never fails: a model error falls back to the seed draft, and
// gaps in the consolidated brief are filled from it.
func (f *Finalizer) consolidate(ctx context.Context, in Input) *brief.Brief {
	draft := in.Draft
	if draft == nil {
		draft = &brief.Brief{}
	}
	if f.Consolidator == nil {
		return draft
	}
	b, err := f.Consolidator.Consolidate(ctx, in.History)
	if err != nil || b == nil {
		slog.Warn("Brief consolidation failed, using draft", "error", err)
		return draft
	}
	merged, err := patch.FillGaps(*b, *draft)
	if err != nil {
		slog.Warn("Failed to fill brief gaps from draft", "error", err)
		return b
	}
	return &merged
}

func (f *Finalizer) stateOfArt(ctx context.Context, b *brief.Brief, label string) string {
	if f.Researcher == nil {
		return stateOfArtPlaceholder
	}
	doc, err := f.Researcher.WriteStateOfArt(ctx, b, label)
	if err != nil || strings.TrimSpace(doc) == "" {
		slog.Warn("State of art generation failed", "error", err)
		return stateOfArtPlaceholder
	}
	return doc
}

func (f *Finalizer) share(ctx context.Context, obj *storage.Object) {
	if obj == nil {
		return
	}
	if err := f.Store.ShareByLink(ctx, obj.ID); err != nil {
		slog.Warn("Failed to share object", "id", obj.ID, "name", obj.Name, "error", err)
	}
}

func (f *Finalizer) now() time.Time {
	if f.Now != nil {
		return f.Now()
	}
	return time.Now()
}

func resolveCategory(in Input, b *brief.Brief, filename string) classify.Category {
	if c, ok := classify.ParseCategory(in.Category); ok {
		return c
	}
	if in.Meta != nil {
		if c, ok := classify.ParseCategory(in.Meta.Category); ok {
			return c
		}
	}
	return classify.GuessCategory(b.Text() + " " + filename)
}

func resolveClient(in Input, b *brief.Brief, filename string) string {
	candidates := []string{in.Client}
	if in.Meta != nil {
		candidates = append(candidates, in.Meta.Client)
	}
	candidates = append(candidates, classify.GuessClient(b.Text()), classify.ClientFromFilename(filename))
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if c != "" && c != classify.ClientPlaceholder {
			return c
		}
	}
	return classify.ClientPlaceholder
}
