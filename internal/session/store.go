// Package session holds who is signed in on this device.
//
// The Store is the single source of truth for the current credential and
// identity. It restores itself from durable device storage at startup,
// persists sign-in results, and hands out an authorized gateway client bound
// to the current credential.
//
// Lifecycle:
//
//	Uninitialized ──Restore──▶ Loading ──▶ Authenticated | Unauthenticated
//	Authenticated ──SignOut──▶ Unauthenticated
//	Unauthenticated ──SignIn──▶ Authenticated
//
// Anything else is rejected with apperror.ErrInvalidState, and using the store
// before Restore fails with apperror.ErrConfiguration.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sakif/gobarber/internal/api"
	"github.com/sakif/gobarber/internal/apperror"
	"github.com/sakif/gobarber/internal/model"
	"github.com/sakif/gobarber/internal/storage"
)

// Durable storage keys. They are always written and removed as a pair.
const (
	TokenKey = "@GoBarber:token"
	UserKey  = "@GoBarber:user"
)

// State is a point in the store's lifecycle.
type State int

const (
	Uninitialized State = iota
	Loading
	Authenticated
	Unauthenticated
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Loading:
		return "loading"
	case Authenticated:
		return "authenticated"
	case Unauthenticated:
		return "unauthenticated"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// View is what screens read: the signed-in identity (nil when signed out) and
// whether the store is still restoring.
type View struct {
	Identity *model.Identity
	Loading  bool
}

// Store is the session state container. It is safe for concurrent use; state
// changing operations are serialised.
type Store struct {
	ops sync.Mutex // serialises Restore/SignIn/SignOut/UpdateIdentity

	mu      sync.RWMutex
	state   State
	session model.Session

	storage storage.Store
	client  *api.Client
	logger  *slog.Logger
	now     func() time.Time
}

// Option customises a Store.
type Option func(*Store)

// WithClock overrides time.Now, used when checking token expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New returns an Uninitialized store. Call Restore before anything else.
func New(st storage.Store, client *api.Client, logger *slog.Logger, opts ...Option) *Store {
	s := &Store{
		state:   Uninitialized,
		storage: st,
		client:  client,
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Restore loads the session persisted on the device.
//
// Both keys must be present and decodable for the session to count; a half
// written pair (crash between writes, manual tampering) or an expired JWT is
// treated as no session and the leftovers are removed.
func (s *Store) Restore(ctx context.Context) error {
	s.ops.Lock()
	defer s.ops.Unlock()

	if st := s.State(); st != Uninitialized {
		return apperror.InvalidState(st.String(), "restore")
	}
	s.setState(Loading, model.Session{})

	values, err := s.storage.MultiGet(ctx, TokenKey, UserKey)
	if err != nil {
		s.setState(Unauthenticated, model.Session{})
		s.logger.Error("session restore failed", slog.String("error", err.Error()))
		return fmt.Errorf("session: restoring: %w", err)
	}

	token, hasToken := values[TokenKey]
	rawUser, hasUser := values[UserKey]

	if !hasToken && !hasUser {
		s.setState(Unauthenticated, model.Session{})
		s.logger.Debug("no stored session")
		return nil
	}

	restored, reason := s.decode(token, hasToken, rawUser, hasUser)
	if reason != "" {
		s.setState(Unauthenticated, model.Session{})
		s.logger.Warn("discarding stored session", slog.String("reason", reason))
		if err := s.storage.MultiRemove(ctx, TokenKey, UserKey); err != nil {
			s.logger.Warn("could not clear stored session", slog.String("error", err.Error()))
		}
		return nil
	}

	s.setState(Authenticated, restored)
	s.logger.Info("session restored", slog.String("userID", restored.Identity.ID))
	return nil
}

// decode validates a stored pair; a non-empty reason means "treat as absent".
func (s *Store) decode(token string, hasToken bool, rawUser string, hasUser bool) (model.Session, string) {
	if !hasToken || token == "" {
		return model.Session{}, "token missing"
	}
	if !hasUser || rawUser == "" {
		return model.Session{}, "identity missing"
	}

	var identity model.Identity
	if err := json.Unmarshal([]byte(rawUser), &identity); err != nil {
		return model.Session{}, "identity is not valid JSON"
	}
	if identity.ID == "" {
		return model.Session{}, "identity has no id"
	}
	if tokenExpired(token, s.now()) {
		return model.Session{}, "token expired"
	}

	return model.Session{Token: token, Identity: identity}, ""
}

// tokenExpired reports whether token is a JWT whose exp claim has passed.
// The signature is not checked: only the server can do that. Opaque tokens
// never expire from the client's point of view.
func tokenExpired(token string, now time.Time) bool {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}
	return claims.ExpiresAt != nil && !claims.ExpiresAt.After(now)
}

// SignIn posts the credentials, persists the resulting token and identity, and
// moves the store to Authenticated. On any failure the state is unchanged.
func (s *Store) SignIn(ctx context.Context, email, password string) error {
	s.ops.Lock()
	defer s.ops.Unlock()

	switch st := s.State(); st {
	case Unauthenticated:
	case Uninitialized, Loading:
		return apperror.Configuration("session: sign in before Restore completed")
	default:
		return apperror.InvalidState(st.String(), "sign in")
	}

	created, err := s.client.CreateSession(ctx, email, password)
	if err != nil {
		s.logger.Info("sign in rejected", slog.String("email", email), slog.String("error", err.Error()))
		return fmt.Errorf("session: signing in: %w", err)
	}

	rawUser, err := json.Marshal(created.Identity)
	if err != nil {
		return fmt.Errorf("session: encoding identity: %w", err)
	}

	if err := s.storage.MultiSet(ctx,
		storage.Pair{Key: TokenKey, Value: created.Token},
		storage.Pair{Key: UserKey, Value: string(rawUser)},
	); err != nil {
		s.logger.Error("persisting session failed", slog.String("error", err.Error()))
		return fmt.Errorf("session: persisting: %w", err)
	}

	s.setState(Authenticated, *created)
	s.logger.Info("signed in", slog.String("userID", created.Identity.ID))
	return nil
}

// SignOut removes the stored pair and clears the in-memory session. Calling it
// while already signed out is allowed: the removal is still issued.
//
// If storage removal fails the in-memory session is still cleared and the
// storage error is returned.
func (s *Store) SignOut(ctx context.Context) error {
	s.ops.Lock()
	defer s.ops.Unlock()

	switch s.State() {
	case Uninitialized, Loading:
		return apperror.Configuration("session: sign out before Restore completed")
	}

	err := s.storage.MultiRemove(ctx, TokenKey, UserKey)
	s.setState(Unauthenticated, model.Session{})
	if err != nil {
		s.logger.Error("clearing stored session failed", slog.String("error", err.Error()))
		return fmt.Errorf("session: signing out: %w", err)
	}

	s.logger.Info("signed out")
	return nil
}

// UpdateIdentity replaces the stored identity and keeps the token.
func (s *Store) UpdateIdentity(ctx context.Context, identity model.Identity) error {
	s.ops.Lock()
	defer s.ops.Unlock()

	current, st := s.snapshot()
	switch st {
	case Authenticated:
	case Uninitialized, Loading:
		return apperror.Configuration("session: update identity before Restore completed")
	default:
		return apperror.InvalidState(st.String(), "update identity")
	}
	if identity.ID == "" {
		return apperror.ValidationFailed("id", "identity must have an id")
	}

	rawUser, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("session: encoding identity: %w", err)
	}
	if err := s.storage.SetItem(ctx, UserKey, string(rawUser)); err != nil {
		return fmt.Errorf("session: persisting identity: %w", err)
	}

	s.setState(Authenticated, model.Session{Token: current.Token, Identity: identity})
	s.logger.Info("identity updated", slog.String("userID", identity.ID))
	return nil
}

// View returns the identity screens should render and the loading flag.
func (s *Store) View() View {
	sess, st := s.snapshot()
	v := View{Loading: st == Uninitialized || st == Loading}
	if st == Authenticated {
		id := sess.Identity
		v.Identity = &id
	}
	return v
}

// State returns the current lifecycle state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Session returns a copy of the current session and whether one exists.
func (s *Store) Session() (model.Session, bool) {
	sess, st := s.snapshot()
	return sess, st == Authenticated
}

// Gateway returns a gateway client carrying the current credential.
func (s *Store) Gateway() (*api.Client, error) {
	sess, st := s.snapshot()
	switch st {
	case Authenticated:
		return s.client.WithToken(sess.Token), nil
	case Uninitialized, Loading:
		return nil, apperror.Configuration("session: gateway requested before Restore completed")
	default:
		return nil, apperror.Unauthorized("not signed in")
	}
}

// Client returns the unauthenticated gateway client (sign-up, sign-in).
func (s *Store) Client() *api.Client {
	return s.client
}

func (s *Store) snapshot() (model.Session, State) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session, s.state
}

func (s *Store) setState(st State, sess model.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = st
	s.session = sess
}
