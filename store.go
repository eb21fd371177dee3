package authstate

import (
	"context"
	"sync"

	goerrors "github.com/goliatone/go-errors"
)

// Store owns the authentication state: the current Identity, Session, and
// cached Profile. It is the single access point the UI layer reads; all
// mutation goes through the exposed operations, never through returned
// snapshots.
type Store struct {
	client   IdentityClient
	profiles ProfileStore
	logger   Logger
	provider LoggerProvider

	mu          sync.RWMutex
	identity    Identity
	profile     *Profile
	session     Session
	loading     bool
	started     bool
	closed      bool
	unsubscribe Unsubscribe
}

// New creates a Store wired to the given provider client and profile table.
// The store reports loading until Start settles the first session fetch.
func New(client IdentityClient, profiles ProfileStore) *Store {
	loggerProvider, logger := ResolveLogger("authstate.store", nil, nil)
	return &Store{
		client:   client,
		profiles: profiles,
		logger:   logger,
		provider: loggerProvider,
		loading:  true,
	}
}

func (s *Store) WithLogger(logger Logger) *Store {
	s.provider, s.logger = ResolveLogger("authstate.store", s.provider, logger)
	return s
}

// WithLoggerProvider overrides the logger provider used by the store.
func (s *Store) WithLoggerProvider(provider LoggerProvider) *Store {
	s.provider, s.logger = ResolveLogger("authstate.store", provider, s.logger)
	return s
}

// Start runs the initialization protocol once per store lifetime: adopt the
// provider's current session, then subscribe to the session-change stream.
// A failed session fetch is logged and swallowed; a failed subscription is
// returned since the store would otherwise drift silently.
func (s *Store) Start(ctx context.Context) error {
	if s.client == nil {
		return ErrNoIdentityClient
	}
	if s.profiles == nil {
		return ErrNoProfileStore
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrStoreClosed
	}
	if s.started {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.started = true
	s.mu.Unlock()

	session, err := s.client.CurrentSession(ctx)
	if err != nil {
		s.logger.Error("initial session fetch failed", "error", err)
		s.mu.Lock()
		if !s.closed {
			s.loading = false
		}
		s.mu.Unlock()
	} else {
		s.adoptSession(ctx, session)
	}

	unsubscribe, err := s.client.OnSessionChange(func(next Session) {
		s.adoptSession(context.Background(), next)
	})
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to subscribe to session changes")
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		unsubscribe()
		return ErrStoreClosed
	}
	s.unsubscribe = unsubscribe
	s.mu.Unlock()

	return nil
}

// Close releases the session-change subscription. State writes from any
// still in-flight continuation are suppressed afterwards.
func (s *Store) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	s.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// adoptSession replaces Session/Identity with the event payload and re-runs
// the branch logic: fetch the profile when an identity is present, otherwise
// clear it. Both the init path and the subscription callback funnel through
// here; the last write wins, which is fine since both converge on the remote
// session state.
func (s *Store) adoptSession(ctx context.Context, session Session) {
	var identity Identity
	if session != nil {
		identity = session.GetIdentity()
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.session = session
	s.identity = identity
	if identity == nil {
		s.profile = nil
		s.loading = false
		s.mu.Unlock()
		return
	}
	s.loading = true
	s.mu.Unlock()

	s.fetchProfile(ctx, identity.ID())
}

// fetchProfile mirrors the remote profile row into the local cache. A "no
// rows" result is benign; every other failure is logged and swallowed. The
// loading flag clears once the fetch settles, whatever the outcome.
func (s *Store) fetchProfile(ctx context.Context, userID string) {
	var profile *Profile

	defer func() {
		s.mu.Lock()
		if !s.closed {
			s.profile = profile
			s.loading = false
		}
		s.mu.Unlock()
	}()

	record, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		if IsProfileNotFound(err) {
			s.logger.Debug("no profile row for identity", "user_id", userID)
			return
		}
		s.logger.Error("profile fetch failed", "error", err, "user_id", userID)
		return
	}

	profile = record.Clone().EnsureDefaults()
}

// CurrentIdentity returns the signed-in identity, nil when signed out.
func (s *Store) CurrentIdentity() Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity
}

// CurrentProfile returns a snapshot of the cached profile, nil when signed
// out or when no row exists for the identity.
func (s *Store) CurrentProfile() *Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile.Clone()
}

// CurrentSession returns the session adopted from the last provider event.
func (s *Store) CurrentSession() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

// Loading reports whether the store's view of Session/Profile may still be
// behind the latest remote state.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Signup registers the account remotely and inserts its profile row with
// system-assigned defaults (no favorites, unpaid). Either failure is
// returned to the caller; a created identity is not rolled back when the
// insert fails, the account heals lazily on the next profile fetch. Local
// state is left to the session-change event.
func (s *Store) Signup(ctx context.Context, email, password string, input SignupInput) error {
	if err := input.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid signup profile")
	}

	identity, err := s.client.SignUp(ctx, email, password)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryAuth, "sign up failed")
	}

	if identity == nil || identity.ID() == "" {
		return nil
	}

	if _, err := s.profiles.Insert(ctx, input.NewProfile(identity.ID())); err != nil {
		s.logger.Error("signup profile insert failed", "error", err, "user_id", identity.ID())
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create profile")
	}

	return nil
}

// Login delegates to the provider's password sign-in. State updates arrive
// through the session-change subscription, never from here.
func (s *Store) Login(ctx context.Context, email, password string) error {
	if err := s.client.SignInWithPassword(ctx, email, password); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryAuth, "login failed")
	}
	return nil
}

// Logout delegates to the provider's sign-out; the subscription clears state.
func (s *Store) Logout(ctx context.Context) error {
	if err := s.client.SignOut(ctx); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryAuth, "logout failed")
	}
	return nil
}

// ToggleFavorite adds the resource id to favorites, or removes it when
// already present. The full list is written remotely first; the local cache
// is replaced only after the write is confirmed. Without a signed-in
// identity and cached profile this is a no-op.
func (s *Store) ToggleFavorite(ctx context.Context, resourceID string) error {
	s.mu.RLock()
	identity := s.identity
	profile := s.profile
	s.mu.RUnlock()

	if identity == nil || profile == nil {
		return nil
	}

	var next []string
	if profile.HasFavorite(resourceID) {
		next = removeResource(profile.Favorites, resourceID)
	} else {
		next = append(append(make([]string, 0, len(profile.Favorites)+1), profile.Favorites...), resourceID)
	}

	if err := s.profiles.UpdateFavorites(ctx, identity.ID(), next); err != nil {
		s.logger.Error("favorites write failed", "error", err, "resource_id", resourceID)
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update favorites")
	}

	s.mu.Lock()
	if !s.closed && s.profile != nil {
		updated := s.profile.Clone()
		updated.Favorites = next
		s.profile = updated
	}
	s.mu.Unlock()

	return nil
}

// UpdateSubscription writes the paid flag remotely and mirrors it locally on
// confirmed success. Without a signed-in identity and cached profile this is
// a no-op.
func (s *Store) UpdateSubscription(ctx context.Context, isPaid bool) error {
	s.mu.RLock()
	identity := s.identity
	profile := s.profile
	s.mu.RUnlock()

	if identity == nil || profile == nil {
		return nil
	}

	if err := s.profiles.UpdateSubscription(ctx, identity.ID(), isPaid); err != nil {
		s.logger.Error("subscription write failed", "error", err, "is_paid", isPaid)
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update subscription")
	}

	s.mu.Lock()
	if !s.closed && s.profile != nil {
		updated := s.profile.Clone()
		updated.IsPaid = isPaid
		s.profile = updated
	}
	s.mu.Unlock()

	return nil
}

// removeResource copies list without any occurrence of id, so toggling a
// duplicated favorite leaves it fully removed.
func removeResource(list []string, id string) []string {
	next := make([]string, 0, len(list))
	for _, v := range list {
		if v != id {
			next = append(next, v)
		}
	}
	return next
}
