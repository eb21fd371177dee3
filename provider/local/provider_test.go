package local

import (
	"context"
	"database/sql"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	authstate "github.com/goliatone/go-authstate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	_ "github.com/mattn/go-sqlite3"
)

const sqliteCreateAccounts = `CREATE TABLE accounts (
    id TEXT NOT NULL PRIMARY KEY,
    username TEXT NOT NULL,
    email TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    loggedin_at TIMESTAMP,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP,
    deleted_at TIMESTAMP
);`

func testConfig() Config {
	return Config{
		SigningKey: "test-signing-key",
		Issuer:     "authstate-test",
		Audience:   []string{"app"},
	}
}

func setupProvider(t *testing.T) (*Provider, Accounts, func()) {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	bunDB := bun.NewDB(db, sqlitedialect.New())

	_, err = bunDB.Exec(sqliteCreateAccounts)
	require.NoError(t, err)

	repo := NewAccountsRepository(bunDB)

	provider, err := New(repo, testConfig())
	require.NoError(t, err)

	cleanup := func() {
		_ = bunDB.Close()
		_ = db.Close()
	}

	return provider, repo, cleanup
}

func TestNewValidatesConfig(t *testing.T) {
	_, _, cleanup := setupProvider(t)
	defer cleanup()

	_, err := New(nil, testConfig())
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	cfg := testConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, DefaultTokenExpiration, cfg.TokenExpiration)

	missingKey := Config{Issuer: "iss"}
	assert.Error(t, missingKey.Validate())

	missingIssuer := Config{SigningKey: "key"}
	assert.Error(t, missingIssuer.Validate())
}

func TestSignUpCreatesAccountAndSignsIn(t *testing.T) {
	provider, repo, cleanup := setupProvider(t)
	defer cleanup()

	ctx := context.Background()

	var events []authstate.Session
	unsubscribe, err := provider.OnSessionChange(func(s authstate.Session) {
		events = append(events, s)
	})
	require.NoError(t, err)
	defer unsubscribe()

	identity, err := provider.SignUp(ctx, "E@X.com", "s3cret-pass")
	require.NoError(t, err)
	require.NotNil(t, identity)

	assert.Equal(t, "e@x.com", identity.Email())
	assert.Equal(t, "e", identity.Username())

	// Sign-up signs the account in and broadcasts the session.
	require.Len(t, events, 1)
	require.NotNil(t, events[0])
	assert.Equal(t, identity.ID(), events[0].GetUserID())

	current, err := provider.CurrentSession(ctx)
	require.NoError(t, err)
	require.NotNil(t, current)

	account, err := repo.GetByEmail(ctx, "e@x.com")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", account.PasswordHash)
	require.NoError(t, ComparePasswordAndHash("s3cret-pass", account.PasswordHash))
}

func TestSignUpRejectsDuplicateEmail(t *testing.T) {
	provider, _, cleanup := setupProvider(t)
	defer cleanup()

	ctx := context.Background()

	_, err := provider.SignUp(ctx, "e@x.com", "s3cret-pass")
	require.NoError(t, err)

	_, err = provider.SignUp(ctx, "e@x.com", "another-pass")
	assert.Error(t, err)
}

func TestSignUpRejectsEmptyCredentials(t *testing.T) {
	provider, _, cleanup := setupProvider(t)
	defer cleanup()

	_, err := provider.SignUp(context.Background(), "", "s3cret-pass")
	assert.Error(t, err)

	_, err = provider.SignUp(context.Background(), "e@x.com", "")
	assert.Error(t, err)
}

func TestSignInWithPasswordVerifiesCredentials(t *testing.T) {
	provider, _, cleanup := setupProvider(t)
	defer cleanup()

	ctx := context.Background()

	identity, err := provider.SignUp(ctx, "e@x.com", "s3cret-pass")
	require.NoError(t, err)
	require.NoError(t, provider.SignOut(ctx))

	err = provider.SignInWithPassword(ctx, "e@x.com", "wrong-pass")
	assert.ErrorIs(t, err, ErrMismatchedHashAndPassword)

	// Unknown accounts produce the same error as bad passwords.
	err = provider.SignInWithPassword(ctx, "nobody@x.com", "s3cret-pass")
	assert.ErrorIs(t, err, ErrMismatchedHashAndPassword)

	require.NoError(t, provider.SignInWithPassword(ctx, "e@x.com", "s3cret-pass"))

	current, err := provider.CurrentSession(ctx)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, identity.ID(), current.GetUserID())
}

func TestSessionTokenClaims(t *testing.T) {
	provider, _, cleanup := setupProvider(t)
	defer cleanup()

	ctx := context.Background()

	identity, err := provider.SignUp(ctx, "e@x.com", "s3cret-pass")
	require.NoError(t, err)

	current, err := provider.CurrentSession(ctx)
	require.NoError(t, err)

	session, ok := current.(*authstate.SessionObject)
	require.True(t, ok)
	require.NotEmpty(t, session.AccessToken)
	require.NotNil(t, session.IssuedAt)
	require.NotNil(t, session.ExpirationDate)

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(session.AccessToken, claims, func(*jwt.Token) (any, error) {
		return []byte("test-signing-key"), nil
	})
	require.NoError(t, err)
	require.True(t, parsed.Valid)

	assert.Equal(t, identity.ID(), claims.Subject)
	assert.Equal(t, "authstate-test", claims.Issuer)
	assert.NotEmpty(t, claims.ID)
}

func TestSignOutBroadcastsNilSession(t *testing.T) {
	provider, _, cleanup := setupProvider(t)
	defer cleanup()

	ctx := context.Background()

	_, err := provider.SignUp(ctx, "e@x.com", "s3cret-pass")
	require.NoError(t, err)

	var events []authstate.Session
	unsubscribe, err := provider.OnSessionChange(func(s authstate.Session) {
		events = append(events, s)
	})
	require.NoError(t, err)
	defer unsubscribe()

	require.NoError(t, provider.SignOut(ctx))

	require.Len(t, events, 1)
	assert.Nil(t, events[0])

	current, err := provider.CurrentSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, current)
}

func TestUnsubscribeStopsEvents(t *testing.T) {
	provider, _, cleanup := setupProvider(t)
	defer cleanup()

	ctx := context.Background()

	calls := 0
	unsubscribe, err := provider.OnSessionChange(func(authstate.Session) {
		calls++
	})
	require.NoError(t, err)

	unsubscribe()

	_, err = provider.SignUp(ctx, "e@x.com", "s3cret-pass")
	require.NoError(t, err)

	assert.Equal(t, 0, calls)
}

func TestOnSessionChangeRequiresCallback(t *testing.T) {
	provider, _, cleanup := setupProvider(t)
	defer cleanup()

	_, err := provider.OnSessionChange(nil)
	assert.Error(t, err)
}
