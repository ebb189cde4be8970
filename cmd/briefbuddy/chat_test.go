package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tropica/briefbuddy/agent"
	"github.com/tropica/briefbuddy/command"
	"github.com/tropica/briefbuddy/config"
	"github.com/tropica/briefbuddy/dialogue"
	"github.com/tropica/briefbuddy/finalize"
	"github.com/tropica/briefbuddy/internal/llmtest"
	"github.com/tropica/briefbuddy/storage"
)

func init() {
	color.NoColor = true
}

func newTestApp(t *testing.T, fake *llmtest.ChatModel, store storage.Store) *App {
	t.Helper()
	flow, err := agent.NewFlow(
		dialogue.NewModelGenerator(fake),
		agent.WithFinalizer(&finalize.Finalizer{
			Store: store,
			Now:   func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) },
		}),
	)
	require.NoError(t, err)
	return &App{
		Config:   config.Default(),
		Flow:     flow,
		Sessions: agent.NewSessionStore(agent.NewExpiringCache[*agent.Session](0)),
	}
}

func TestChatTurnsAndCommands(t *testing.T) {
	fake := &llmtest.ChatModel{
		Replies: []string{
			"¡Hola! Soy Brief Buddy.\n" + `<!-- PROGRESS: {"complete":false,"missing":["Contacto"]} -->`,
			"Gracias, ¿cuál es tu correo?\n" + `<!-- PROGRESS: {"complete":false,"missing":["Contacto"]} -->`,
		},
		ChunkSize: 5,
	}
	store := storage.NewMemory()
	app := newTestApp(t, fake, store)
	in := strings.NewReader("/ayuda\n/adjuntar\nSoy Ana Ruiz\n/finalizar\n/salir\n")
	var out bytes.Buffer

	require.NoError(t, runChat(context.Background(), app, command.NewLocalParser(), in, &out))
	text := out.String()
	assert.Contains(t, text, "¡Hola! Soy Brief Buddy.")
	assert.Contains(t, text, "/adjuntar <ruta>")
	assert.Contains(t, text, "Indica la ruta del archivo")
	assert.Contains(t, text, "Gracias, ¿cuál es tu correo?")
	assert.Contains(t, text, `Brief guardado como "Proyecto | Cliente | 01-06-2024"`)
	assert.NotContains(t, text, "PROGRESS")
	assert.Len(t, store.Children(""), 1)
}

func TestChatEndsOnEOF(t *testing.T) {
	fake := &llmtest.ChatModel{Replies: []string{"Hola"}}
	app := newTestApp(t, fake, storage.NewMemory())
	var out bytes.Buffer
	require.NoError(t, runChat(context.Background(), app, command.NewLocalParser(), strings.NewReader(""), &out))
	assert.Contains(t, out.String(), "Hola")
}

func TestNewStoreBackends(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store, root, err := newStore(ctx, config.StorageConfig{Backend: config.StorageMemory})
	require.NoError(t, err)
	assert.IsType(t, &storage.Memory{}, store)
	assert.Empty(t, root)

	dir := filepath.Join(t.TempDir(), "briefs")
	store, root, err = newStore(ctx, config.StorageConfig{Backend: config.StorageLocal, LocalDir: dir})
	require.NoError(t, err)
	assert.Empty(t, root)
	_, err = store.EnsureFolder(ctx, "Web Acme", root)
	require.NoError(t, err)
	info, err := os.Stat(filepath.Join(dir, "Web Acme"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestSetupLoggerWritesRotatedFile(t *testing.T) {
	cfg := config.Default()
	cfg.Log.File = filepath.Join(t.TempDir(), "briefbuddy.log")
	var out bytes.Buffer
	prev := slog.Default()
	closer := setupLogger(cfg, &out)
	t.Cleanup(func() {
		slog.SetDefault(prev)
		_ = closer.Close()
	})

	slog.Info("hello from test")
	assert.Contains(t, out.String(), "hello from test")
	data, err := os.ReadFile(cfg.Log.File)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello from test")
}
