package authstate

import (
	"context"
	"time"
)

// Identity holds the attributes of an authenticated principal. The remote
// provider owns the record; this layer only reads it.
type Identity interface {
	ID() string
	Username() string
	Email() string
}

// Session holds attributes that are part of an auth session
type Session interface {
	GetUserID() string
	GetIdentity() Identity
	GetIssuedAt() *time.Time
	GetData() map[string]any
}

// Unsubscribe releases a session-change subscription.
type Unsubscribe func()

// IdentityClient is the remote identity provider boundary. Implementations
// live in provider subpackages; the Store treats them as opaque.
type IdentityClient interface {
	// CurrentSession returns the session the provider currently holds,
	// nil when signed out.
	CurrentSession(ctx context.Context) (Session, error)

	// OnSessionChange registers fn to be invoked with the new session
	// (possibly nil) on every sign-up, sign-in, sign-out, or token refresh.
	OnSessionChange(fn func(Session)) (Unsubscribe, error)

	SignUp(ctx context.Context, email, password string) (Identity, error)
	SignInWithPassword(ctx context.Context, email, password string) error
	SignOut(ctx context.Context) error
}

// ProfileStore is the remote profile table surface the Store reads and
// writes. The bun-backed Profiles repository implements it.
type ProfileStore interface {
	GetByUserID(ctx context.Context, userID string) (*Profile, error)
	Insert(ctx context.Context, record *Profile) (*Profile, error)
	UpdateFavorites(ctx context.Context, userID string, favorites []string) error
	UpdateSubscription(ctx context.Context, userID string, isPaid bool) error
}
