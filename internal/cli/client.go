package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/me/pbadmin/internal/auth"
	"github.com/me/pbadmin/internal/dataprovider"
	"github.com/me/pbadmin/internal/session"
	"github.com/me/pbadmin/internal/store"
	"github.com/me/pbadmin/pkg/pocketbase"
)

// AppConfig selects the backend and where the session is kept.
type AppConfig struct {
	BaseURL    string
	Collection string
	SessionDir string
}

// App wires the data provider and auth adapter for one CLI invocation.
type App struct {
	Provider *dataprovider.Provider
	Auth     *auth.Adapter
	Sessions *session.Store
	Logger   *slog.Logger
}

// NewApp builds the PocketBase client, the file-backed session and the
// adapters on top of them.
func NewApp(cfg AppConfig, logger *slog.Logger) (*App, error) {
	kv, err := store.NewFileStore(cfg.SessionDir)
	if err != nil {
		return nil, err
	}
	sessions := session.New(kv, pocketbase.TokenValid, logger)

	pb := pocketbase.NewClient(pocketbase.DefaultConfig().WithBaseURL(cfg.BaseURL), sessions, logger)

	return &App{
		Provider: dataprovider.New(pb, dataprovider.WithLogger(logger)),
		Auth:     auth.New(pb, sessions, auth.WithCollection(cfg.Collection), auth.WithLogger(logger)),
		Sessions: sessions,
		Logger:   logger,
	}, nil
}

// requireSession reuses the saved session or fails with a login hint.
func (a *App) requireSession(ctx context.Context) error {
	if err := a.Auth.CheckSessionValid(ctx); err != nil {
		return fmt.Errorf("not logged in (run `pbadmin login`): %w", err)
	}
	return nil
}

// checkError passes a provider failure through the session error check so a
// rejected token is dropped from disk.
func (a *App) checkError(ctx context.Context, err error) error {
	var dpErr *dataprovider.Error
	if !errors.As(err, &dpErr) {
		return err
	}
	if pocketbase.IsAuthError(err) {
		if sessErr := a.Auth.CheckSessionError(ctx, dpErr.StatusCode()); sessErr != nil {
			return fmt.Errorf("%w; session cleared, log in again", err)
		}
	}
	var pbErr *pocketbase.Error
	if errors.As(err, &pbErr) && pbErr.Message != "" {
		return fmt.Errorf("%w: %s", err, pbErr.Message)
	}
	return err
}
