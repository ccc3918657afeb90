// Package auth derives, persists and checks the PocketBase session and
// exposes identity and permission facts from it.
package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/me/pbadmin/internal/metrics"
	"github.com/me/pbadmin/internal/session"
	"github.com/me/pbadmin/pkg/model"
)

// DefaultCollection is the auth collection logins go against.
const DefaultCollection = "users"

var (
	// ErrInvalidCredentials is returned when the backend rejects a login.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrSessionInvalid is returned when no valid session is available.
	ErrSessionInvalid = errors.New("session is not valid")
)

// Authenticator performs password logins and resolves file URLs.
// *pocketbase.Client implements it.
type Authenticator interface {
	AuthWithPassword(ctx context.Context, collection, identity, password string) (*model.Session, error)
	FileURL(record model.Record, filename string) string
}

// Adapter implements the auth operations over one session store.
type Adapter struct {
	auth       Authenticator
	sessions   *session.Store
	collection string
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithCollection sets the auth collection (default "users").
func WithCollection(name string) Option {
	return func(a *Adapter) {
		if name != "" {
			a.collection = name
		}
	}
}

// WithLogger sets the adapter's logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Adapter) { a.logger = l }
}

// WithMetrics records logins and session checks in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Adapter) { a.metrics = m }
}

// New creates an Adapter.
func New(auth Authenticator, sessions *session.Store, opts ...Option) *Adapter {
	a := &Adapter{
		auth:       auth,
		sessions:   sessions,
		collection: DefaultCollection,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, o := range opts {
		o(a)
	}
	a.logger = a.logger.With("component", "auth")
	return a
}

// Login authenticates identity (email or username) and password and saves
// the resulting session. On any failure the stored session is unchanged.
func (a *Adapter) Login(ctx context.Context, identity, password string) (err error) {
	defer func(start time.Time) { a.metrics.Observe("login", start, err) }(time.Now())

	sess, err := a.auth.AuthWithPassword(ctx, a.collection, identity, password)
	if err != nil {
		a.logger.Warn("login rejected", "identity", identity, "error", err)
		return ErrInvalidCredentials
	}
	if sess.IsZero() {
		a.logger.Warn("login returned no token", "identity", identity)
		return ErrInvalidCredentials
	}
	if err := a.sessions.Save(ctx, sess); err != nil {
		a.logger.Error("saving session failed", "error", err)
		return fmt.Errorf("login: %w", err)
	}

	a.logger.Info("logged in", "user_id", sess.Record.ID(), "collection", a.collection)
	return nil
}

// Logout clears the live session and its durable copy. It never fails;
// persistence errors are logged.
func (a *Adapter) Logout(ctx context.Context) error {
	if err := a.sessions.Clear(ctx); err != nil {
		a.logger.Error("clearing persisted session failed", "error", err)
	}
	return nil
}

// CheckSessionError reacts to a backend HTTP status: 401 and 403 clear the
// session and return ErrSessionInvalid, anything else is ignored.
func (a *Adapter) CheckSessionError(ctx context.Context, status int) error {
	if status != http.StatusUnauthorized && status != http.StatusForbidden {
		return nil
	}
	a.logger.Info("backend rejected session", "status", status)
	a.clear(ctx)
	return ErrSessionInvalid
}

// CheckSessionValid succeeds when the live session is valid or a valid
// session can be restored from the durable copy. Otherwise it clears both
// and returns ErrSessionInvalid.
func (a *Adapter) CheckSessionValid(ctx context.Context) (err error) {
	defer func(start time.Time) { a.metrics.Observe("check session", start, err) }(time.Now())

	if a.sessions.IsValid() {
		return nil
	}

	ok, err := a.sessions.Restore(ctx)
	if err != nil {
		a.logger.Warn("restoring session failed", "error", err)
	}
	if ok && err == nil {
		a.logger.Debug("session restored")
		return nil
	}

	a.clear(ctx)
	return ErrSessionInvalid
}

// GetPermissions returns the current record's role, "user" when it has none.
func (a *Adapter) GetPermissions(_ context.Context) (model.UserRole, error) {
	rec, ok := a.validRecord()
	if !ok {
		return "", ErrSessionInvalid
	}
	return model.RoleOf(rec), nil
}

// GetIdentity returns the profile view of the current record.
func (a *Adapter) GetIdentity(_ context.Context) (model.Identity, error) {
	rec, ok := a.validRecord()
	if !ok {
		return model.Identity{}, ErrSessionInvalid
	}
	id := model.Identity{
		ID:       rec.ID(),
		FullName: model.DisplayName(rec),
	}
	if avatar := rec.String("avatar"); avatar != "" {
		id.Avatar = a.auth.FileURL(rec, avatar)
	}
	return id, nil
}

// Authenticated reports whether the live session is valid, without
// restoring or clearing anything.
func (a *Adapter) Authenticated() bool {
	return a.sessions.IsValid()
}

// CurrentUser returns a copy of the live auth record, or nil.
func (a *Adapter) CurrentUser() model.Record {
	return a.sessions.Record()
}

// AuthToken returns the live auth token, or "".
func (a *Adapter) AuthToken() string {
	return a.sessions.Token()
}

func (a *Adapter) validRecord() (model.Record, bool) {
	if !a.sessions.IsValid() {
		return nil, false
	}
	rec := a.sessions.Record()
	return rec, rec != nil
}

func (a *Adapter) clear(ctx context.Context) {
	if err := a.sessions.Clear(ctx); err != nil {
		a.logger.Error("clearing persisted session failed", "error", err)
	}
}
