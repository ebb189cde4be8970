package finalize

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tropica/briefbuddy/brief"
	"github.com/tropica/briefbuddy/signal"
	"github.com/tropica/briefbuddy/storage"
)

type fakeConsolidator struct {
	out *brief.Brief
	err error
}

func (f fakeConsolidator) Consolidate(ctx context.Context, history []*schema.Message) (*brief.Brief, error) {
	return f.out, f.err
}

type fakeResearcher struct {
	doc   string
	err   error
	label string
}

func (f *fakeResearcher) WriteStateOfArt(ctx context.Context, b *brief.Brief, label string) (string, error) {
	f.label = label
	return f.doc, f.err
}

type failingStore struct {
	storage.Store
}

func (failingStore) EnsureFolder(ctx context.Context, name, parentID string) (*storage.Object, error) {
	return nil, errors.New("quota exceeded")
}

func fixedNow() time.Time {
	return time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC)
}

func TestFinalizeWritesProjectTree(t *testing.T) {
	t.Parallel()
	store := storage.NewMemory()
	researcher := &fakeResearcher{doc: "# State of Art\n- Spot referencia"}
	f := &Finalizer{
		Consolidator: fakeConsolidator{out: &brief.Brief{Alcance: "Spot de 30 segundos"}},
		Researcher:   researcher,
		Store:        store,
		RootFolderID: "root",
		Now:          fixedNow,
	}
	draft := &brief.Brief{Contacto: brief.Contacto{Nombre: "Ana Ruiz", Correo: "ana@acme.com"}, Alcance: "Video"}
	res, err := f.Finalize(context.Background(), Input{
		Draft:      draft,
		Attachment: &Attachment{Filename: "brief.pdf", MimeType: "application/pdf", Data: []byte("%PDF")},
	})
	require.NoError(t, err)

	assert.Equal(t, "Videos | Acme | 01-02-2024", res.Label)
	assert.Equal(t, "Videos", res.Category)
	assert.Equal(t, "Acme", res.Client)
	assert.Equal(t, "Spot de 30 segundos", res.Brief.Alcance)
	assert.Equal(t, "Ana Ruiz", res.Brief.Contacto.Nombre)
	assert.Equal(t, "Videos | Acme | 01-02-2024", researcher.label)

	roots := store.Children("root")
	require.Len(t, roots, 1)
	assert.Equal(t, "Videos Acme 01-02-2024", roots[0].Name)
	assert.Equal(t, res.ProjectFolder.ID, roots[0].ID)

	children := store.Children(res.ProjectFolder.ID)
	require.Len(t, children, 3)
	assert.Equal(t, "brief.pdf", children[0].Name)
	assert.Equal(t, "Brief — Videos Acme 01-02-2024.md", children[1].Name)
	assert.Equal(t, StateOfArtFolder, children[2].Name)

	doc, err := store.Read(res.BriefDoc.ID)
	require.NoError(t, err)
	assert.Contains(t, string(doc), "# Brief — Videos | Acme | 01-02-2024")
	assert.Contains(t, string(doc), "(memory://"+res.File.ID+")")
	assert.Regexp(t, `\|\s*Contacto\s*\|\s*(Completa|Pendiente)\s*\|`, string(doc))

	soa, err := store.Read(res.StateOfArt.Doc.ID)
	require.NoError(t, err)
	assert.Equal(t, researcher.doc, string(soa))

	for _, obj := range []*storage.Object{res.ProjectFolder, res.File, res.BriefDoc, res.StateOfArt.Folder, res.StateOfArt.Doc} {
		assert.True(t, store.Shared(obj.ID), obj.Name)
	}
}

func TestFinalizeFallsBackOnModelFailures(t *testing.T) {
	t.Parallel()
	store := storage.NewMemory()
	f := &Finalizer{
		Consolidator: fakeConsolidator{err: errors.New("timeout")},
		Researcher:   &fakeResearcher{err: errors.New("timeout")},
		Store:        store,
		Now:          fixedNow,
	}
	res, err := f.Finalize(context.Background(), Input{
		Draft:    &brief.Brief{Alcance: "Nuevo sitio web"},
		Meta:     &signal.Meta{Category: "Web", Client: "Trópica"},
		Category: "branding",
	})
	require.NoError(t, err)
	assert.Equal(t, "Branding | Trópica | 01-02-2024", res.Label)
	assert.Equal(t, "Nuevo sitio web", res.Brief.Alcance)
	assert.Nil(t, res.File)

	soa, err := store.Read(res.StateOfArt.Doc.ID)
	require.NoError(t, err)
	assert.Equal(t, stateOfArtPlaceholder, string(soa))
}

func TestFinalizeClientFallbacks(t *testing.T) {
	t.Parallel()
	f := &Finalizer{Store: storage.NewMemory(), Now: fixedNow}

	res, err := f.Finalize(context.Background(), Input{
		Attachment: &Attachment{Filename: "mercado-libre_brief.docx"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Mercado", res.Client)
	assert.Equal(t, "Proyecto", res.Category)

	res, err = f.Finalize(context.Background(), Input{Meta: &signal.Meta{Category: "desconocida", Client: "Cliente"}})
	require.NoError(t, err)
	assert.Equal(t, "Proyecto | Cliente | 01-02-2024", res.Label)
}

func TestFinalizeStoreErrors(t *testing.T) {
	t.Parallel()
	_, err := (&Finalizer{}).Finalize(context.Background(), Input{})
	require.ErrorIs(t, err, ErrNoStore)

	_, err = (&Finalizer{Store: failingStore{}, Now: fixedNow}).Finalize(context.Background(), Input{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestFinalizeCancelledContext(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := (&Finalizer{Store: storage.NewMemory()}).Finalize(ctx, Input{})
	require.ErrorIs(t, err, context.Canceled)
}
