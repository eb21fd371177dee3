package authstate_test

import (
	"context"
	"sync"

	authstate "github.com/goliatone/go-authstate"
	"github.com/stretchr/testify/mock"
)

// MockProfileStore implements authstate.ProfileStore
type MockProfileStore struct {
	mock.Mock
}

func (m *MockProfileStore) GetByUserID(ctx context.Context, userID string) (*authstate.Profile, error) {
	args := m.Called(ctx, userID)
	var profile *authstate.Profile
	if v := args.Get(0); v != nil {
		profile = v.(*authstate.Profile)
	}
	return profile, args.Error(1)
}

func (m *MockProfileStore) Insert(ctx context.Context, record *authstate.Profile) (*authstate.Profile, error) {
	args := m.Called(ctx, record)
	var profile *authstate.Profile
	if v := args.Get(0); v != nil {
		profile = v.(*authstate.Profile)
	}
	return profile, args.Error(1)
}

func (m *MockProfileStore) UpdateFavorites(ctx context.Context, userID string, favorites []string) error {
	args := m.Called(ctx, userID, favorites)
	return args.Error(0)
}

func (m *MockProfileStore) UpdateSubscription(ctx context.Context, userID string, isPaid bool) error {
	args := m.Called(ctx, userID, isPaid)
	return args.Error(0)
}

// fakeClient is a scriptable IdentityClient with a working event stream.
type fakeClient struct {
	mu sync.Mutex

	current      authstate.Session
	currentErr   error
	subscribeErr error

	signUpIdentity authstate.Identity
	signUpErr      error
	signInErr      error
	signOutErr     error

	signUpCalls  int
	signInCalls  int
	signOutCalls int

	callbacks    []func(authstate.Session)
	unsubscribed bool
}

func (f *fakeClient) CurrentSession(ctx context.Context) (authstate.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current, f.currentErr
}

func (f *fakeClient) OnSessionChange(fn func(authstate.Session)) (authstate.Unsubscribe, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subscribeErr != nil {
		return nil, f.subscribeErr
	}
	f.callbacks = append(f.callbacks, fn)
	return func() {
		f.mu.Lock()
		f.unsubscribed = true
		f.mu.Unlock()
	}, nil
}

func (f *fakeClient) SignUp(ctx context.Context, email, password string) (authstate.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signUpCalls++
	return f.signUpIdentity, f.signUpErr
}

func (f *fakeClient) SignInWithPassword(ctx context.Context, email, password string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signInCalls++
	return f.signInErr
}

func (f *fakeClient) SignOut(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signOutCalls++
	return f.signOutErr
}

// Emit delivers a session-change event to every registered callback.
func (f *fakeClient) Emit(session authstate.Session) {
	f.mu.Lock()
	callbacks := append([]func(authstate.Session){}, f.callbacks...)
	f.mu.Unlock()

	for _, fn := range callbacks {
		fn(session)
	}
}

func sessionFor(userID, username, email string) *authstate.SessionObject {
	return &authstate.SessionObject{
		UserID:   userID,
		Identity: authstate.NewIdentity(userID, username, email),
	}
}
