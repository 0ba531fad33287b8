// Package app assembles the workspace, auth gate, issue relay and analytics
// from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/raphaelgruber/knowbot/internal/analytics"
	"github.com/raphaelgruber/knowbot/internal/auth"
	"github.com/raphaelgruber/knowbot/internal/config"
	"github.com/raphaelgruber/knowbot/internal/db"
	"github.com/raphaelgruber/knowbot/internal/issue"
	"github.com/raphaelgruber/knowbot/internal/llm"
	"github.com/raphaelgruber/knowbot/internal/metrics"
	"github.com/raphaelgruber/knowbot/internal/service"
	"github.com/raphaelgruber/knowbot/internal/state"
)

// App holds every long-lived component.
type App struct {
	Config    config.Config
	Logger    *slog.Logger
	Backend   state.Backend
	Workspace *service.Workspace
	Gate      *auth.Gate
	Relay     *issue.Relay
	Analytics *analytics.Catalog
	Metrics   *metrics.Collector
}

// New opens the state backend and builds the components on top of it.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	backend, err := OpenBackend(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	collector := metrics.NewCollector()

	responder, err := NewResponder(cfg)
	if err != nil {
		_ = backend.Close(ctx)
		return nil, err
	}

	ws, err := service.Open(ctx, backend,
		service.WithLogger(logger),
		service.WithResponder(responder),
		service.WithRecorder(collector),
	)
	if err != nil {
		_ = backend.Close(ctx)
		return nil, fmt.Errorf("open workspace: %w", err)
	}

	var mailer issue.Mailer
	if cfg.ResendAPIKey != "" {
		mailer = issue.NewResendMailer(cfg.ResendAPIKey)
	} else {
		logger.Info("RESEND_API_KEY not set, issue reports will only be logged")
	}

	return &App{
		Config:    cfg,
		Logger:    logger,
		Backend:   backend,
		Workspace: ws,
		Gate:      auth.NewGate(backend),
		Relay: issue.NewRelay(issue.RelayConfig{
			Mailer:   mailer,
			From:     cfg.SystemEmail,
			To:       cfg.IssueReportEmail,
			Logger:   logger,
			Recorder: collector,
		}),
		Analytics: analytics.NewCatalog(time.Now()),
		Metrics:   collector,
	}, nil
}

// Close stops the workspace and closes the backend.
func (a *App) Close(ctx context.Context) error {
	return errors.Join(a.Workspace.Close(), a.Backend.Close(ctx))
}

// OpenBackend connects the configured state backend. A corrupt state file is
// moved aside and replaced by an empty one.
func OpenBackend(ctx context.Context, cfg config.Config, logger *slog.Logger) (state.Backend, error) {
	switch cfg.StateBackend {
	case config.BackendMemory:
		return state.NewMemoryBackend(), nil

	case config.BackendFile:
		b, err := state.NewFileBackend(cfg.StatePath)
		if errors.Is(err, state.ErrCorrupt) {
			dest, qerr := state.QuarantineCorrupt(cfg.StatePath)
			if qerr != nil {
				return nil, qerr
			}
			logger.Warn("state file unreadable, starting fresh", "path", cfg.StatePath, "moved_to", dest, "error", err)
			b, err = state.NewFileBackend(cfg.StatePath)
		}
		if err != nil {
			return nil, fmt.Errorf("open state file: %w", err)
		}
		return b, nil

	case config.BackendSQLite:
		b, err := state.NewSQLiteBackend(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return b, nil

	case config.BackendSurrealDB:
		client, err := db.NewClient(ctx, db.Config{
			URL:       cfg.SurrealDBURL,
			Namespace: cfg.SurrealDBNamespace,
			Database:  cfg.SurrealDBDatabase,
			Username:  cfg.SurrealDBUser,
			Password:  cfg.SurrealDBPass,
			AuthLevel: cfg.SurrealDBAuthLevel,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("connect surrealdb: %w", err)
		}
		if err := client.InitSchema(ctx); err != nil {
			_ = client.Close(ctx)
			return nil, fmt.Errorf("init surrealdb schema: %w", err)
		}
		return client, nil

	default:
		return nil, fmt.Errorf("unsupported state backend: %s", cfg.StateBackend)
	}
}

// WipeState deletes all persisted state of the configured backend.
func WipeState(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	b, err := OpenBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	logger.Warn("wiping workspace state", "backend", cfg.StateBackend)
	return errors.Join(state.Wipe(ctx, b), b.Close(ctx))
}

// NewResponder returns the configured bot responder.
func NewResponder(cfg config.Config) (service.Responder, error) {
	switch cfg.Responder {
	case config.ResponderStatic, "":
		return service.StaticResponder{Text: cfg.StaticReply, Delay: cfg.ReplyDelay}, nil
	case config.ResponderLLM:
		r, err := llm.NewResponder(cfg)
		if err != nil {
			return nil, fmt.Errorf("create llm responder: %w", err)
		}
		return r, nil
	default:
		return nil, fmt.Errorf("unsupported responder: %s", cfg.Responder)
	}
}
