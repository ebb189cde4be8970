package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/tropica/briefbuddy/agent"
	"github.com/tropica/briefbuddy/config"
	"github.com/tropica/briefbuddy/dialogue"
	"github.com/tropica/briefbuddy/finalize"
	"github.com/tropica/briefbuddy/metrics"
	"github.com/tropica/briefbuddy/storage"
	"github.com/tropica/briefbuddy/storage/drive"
	"github.com/tropica/briefbuddy/storage/local"
)

// App holds the wired service shared by the subcommands.
type App struct {
	Config    *config.Config
	ChatModel model.ToolCallingChatModel
	Flow      *agent.Flow
	Sessions  *agent.SessionStore
	Registry  *prometheus.Registry

	logCloser io.Closer
}

func loadApp(ctx context.Context, flags *rootFlags, logOut io.Writer) (*App, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
	closer := setupLogger(cfg, logOut)
	app, err := newApp(ctx, cfg)
	if err != nil {
		_ = closer.Close()
		return nil, err
	}
	app.logCloser = closer
	return app, nil
}

func newApp(ctx context.Context, cfg *config.Config) (*App, error) {
	temperature := cfg.LLM.Temperature
	cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		BaseURL:     cfg.LLM.BaseURL,
		Temperature: &temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	store, rootID, err := newStore(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}
	consolidator, err := dialogue.NewConsolidator(cm)
	if err != nil {
		return nil, fmt.Errorf("failed to create consolidator: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	flow, err := agent.NewToolBasedFlow(cm, cfg.Session.MaxTurns,
		agent.WithFinalizer(&finalize.Finalizer{
			Consolidator: consolidator,
			Researcher:   dialogue.NewStateOfArtWriter(cm),
			Store:        store,
			RootFolderID: rootID,
		}),
		agent.WithMetrics(metrics.NewPrometheusRecorder(registry)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create flow: %w", err)
	}

	cache := agent.NewExpiringCache[*agent.Session](cfg.Session.TTL)
	cache.OnEvicted(func(_ string, s *agent.Session) {
		slog.Debug("Session evicted", "session", s.ID)
	})
	return &App{
		Config:    cfg,
		ChatModel: cm,
		Flow:      flow,
		Sessions:  agent.NewSessionStore(cache),
		Registry:  registry,
	}, nil
}

// newStore returns the configured backend and the id of the folder that
// receives project folders.
func newStore(ctx context.Context, cfg config.StorageConfig) (storage.Store, string, error) {
	switch cfg.Backend {
	case config.StorageDrive:
		store, err := drive.New(ctx, drive.Credentials{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
			RefreshToken: cfg.GoogleRefreshToken,
		})
		if err != nil {
			return nil, "", err
		}
		return store, cfg.FolderID, nil
	case config.StorageLocal:
		store, err := local.New(cfg.LocalDir)
		if err != nil {
			return nil, "", err
		}
		return store, "", nil
	default:
		slog.Warn("Using in-memory storage, finalized briefs are lost on exit")
		return storage.NewMemory(), "", nil
	}
}

func (a *App) Close() error {
	if a.logCloser != nil {
		return a.logCloser.Close()
	}
	return nil
}
