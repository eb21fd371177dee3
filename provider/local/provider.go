package local

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	authstate "github.com/goliatone/go-authstate"
	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// Provider implements authstate.IdentityClient against a local accounts
// table. Sessions live in process memory; every sign-up, sign-in, and
// sign-out is broadcast to subscribers synchronously.
type Provider struct {
	accounts Accounts
	config   Config
	logger   authstate.Logger
	lgrProv  authstate.LoggerProvider

	mu          sync.Mutex
	current     authstate.Session
	subscribers map[int]func(authstate.Session)
	nextSubID   int
}

var _ authstate.IdentityClient = (*Provider)(nil)

// New creates a local identity provider backed by the given accounts
// repository.
func New(accounts Accounts, config Config) (*Provider, error) {
	if accounts == nil {
		return nil, goerrors.New("accounts repository is required", goerrors.CategoryBadInput)
	}

	if err := config.Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid local provider config")
	}

	lgrProv, logger := authstate.ResolveLogger("authstate.provider.local", nil, nil)

	return &Provider{
		accounts:    accounts,
		config:      config,
		logger:      logger,
		lgrProv:     lgrProv,
		subscribers: map[int]func(authstate.Session){},
	}, nil
}

func (p *Provider) WithLogger(logger authstate.Logger) *Provider {
	p.lgrProv, p.logger = authstate.ResolveLogger("authstate.provider.local", p.lgrProv, logger)
	return p
}

// WithLoggerProvider overrides the logger provider used by the provider.
func (p *Provider) WithLoggerProvider(provider authstate.LoggerProvider) *Provider {
	p.lgrProv, p.logger = authstate.ResolveLogger("authstate.provider.local", provider, p.logger)
	return p
}

// CurrentSession returns the session currently held in memory, nil when
// signed out.
func (p *Provider) CurrentSession(ctx context.Context) (authstate.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current, nil
}

// OnSessionChange registers fn for session-change events. The returned
// Unsubscribe is idempotent.
func (p *Provider) OnSessionChange(fn func(authstate.Session)) (authstate.Unsubscribe, error) {
	if fn == nil {
		return nil, goerrors.New("session change callback is required", goerrors.CategoryBadInput)
	}

	p.mu.Lock()
	id := p.nextSubID
	p.nextSubID++
	p.subscribers[id] = fn
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		delete(p.subscribers, id)
		p.mu.Unlock()
	}, nil
}

// SignUp creates the account and signs it in, broadcasting the resulting
// session-change event.
func (p *Provider) SignUp(ctx context.Context, email, password string) (authstate.Identity, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return nil, goerrors.New("email is required", goerrors.CategoryBadInput)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid password provided")
	}

	if _, err := p.accounts.GetByEmail(ctx, email); err == nil {
		return nil, goerrors.New("an account already exists for this email", goerrors.CategoryConflict).
			WithTextCode("EMAIL_TAKEN").
			WithMetadata(map[string]any{"email": email})
	} else if !repository.IsRecordNotFound(err) {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check existing account")
	}

	record := &Account{
		Email:        email,
		Username:     usernameFromEmail(email),
		PasswordHash: hash,
	}

	if id, err := hashid.NewUUID(email); err == nil {
		record.ID = id
	}

	account, err := p.accounts.Register(ctx, record)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryConflict, "could not create account")
	}

	identity := authstate.NewIdentity(account.ID.String(), account.Username, account.Email)

	if err := p.establishSession(identity); err != nil {
		return nil, err
	}

	return identity, nil
}

// SignInWithPassword verifies the credentials and broadcasts the new session.
// Unknown emails and bad passwords produce the same error.
func (p *Provider) SignInWithPassword(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(strings.ToLower(email))

	account, err := p.accounts.GetByEmail(ctx, email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return ErrMismatchedHashAndPassword
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve account during sign in")
	}

	if err := ComparePasswordAndHash(password, account.PasswordHash); err != nil {
		return err
	}

	if err := p.accounts.TrackLogin(ctx, account.ID); err != nil {
		p.logger.Error("failed to track login", "error", err)
	}

	identity := authstate.NewIdentity(account.ID.String(), account.Username, account.Email)

	return p.establishSession(identity)
}

// SignOut drops the in-memory session and broadcasts a nil session.
func (p *Provider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	p.current = nil
	subs := p.snapshotSubscribersLocked()
	p.mu.Unlock()

	p.broadcast(subs, nil)
	return nil
}

func (p *Provider) establishSession(identity authstate.Identity) error {
	now := time.Now()

	token, expires, err := p.mintToken(identity, now)
	if err != nil {
		return err
	}

	session := &authstate.SessionObject{
		UserID:         identity.ID(),
		Identity:       identity,
		AccessToken:    token,
		IssuedAt:       &now,
		ExpirationDate: &expires,
		Data: map[string]any{
			"email": identity.Email(),
		},
	}

	p.mu.Lock()
	p.current = session
	subs := p.snapshotSubscribersLocked()
	p.mu.Unlock()

	p.broadcast(subs, session)
	return nil
}

func (p *Provider) mintToken(identity authstate.Identity, now time.Time) (string, time.Time, error) {
	expires := now.Add(time.Duration(p.config.TokenExpiration) * time.Hour)

	claims := jwt.RegisteredClaims{
		Issuer:    p.config.Issuer,
		Subject:   identity.ID(),
		Audience:  jwt.ClaimStrings(p.config.Audience),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
		ID:        uuid.NewString(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString([]byte(p.config.SigningKey))
	if err != nil {
		return "", time.Time{}, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign session token")
	}

	return signed, expires, nil
}

// snapshotSubscribersLocked copies the callback list so broadcasts run
// without holding the provider lock.
func (p *Provider) snapshotSubscribersLocked() []func(authstate.Session) {
	subs := make([]func(authstate.Session), 0, len(p.subscribers))
	for _, fn := range p.subscribers {
		subs = append(subs, fn)
	}
	return subs
}

func (p *Provider) broadcast(subs []func(authstate.Session), session authstate.Session) {
	for _, fn := range subs {
		fn(session)
	}
}

func usernameFromEmail(email string) string {
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	return email
}
