package identity_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/warp/inventory-engine/audit"
	"github.com/warp/inventory-engine/domain"
	"github.com/warp/inventory-engine/identity"
	"github.com/warp/inventory-engine/store/sqlstore"
)

const testSecret = "test-secret-0123456789"

func newTestIdentity(t *testing.T, policy audit.Policy) (*identity.Service, *sqlstore.Store) {
	logger := zaptest.NewLogger(t)
	store, err := sqlstore.Open(sqlstore.DriverSQLite, ":memory:", sqlstore.WithLogger(logger))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	tokens, err := identity.NewTokens(testSecret, time.Hour)
	require.NoError(t, err)
	return identity.NewService(store, audit.NewRecorder(store, logger, policy), tokens, logger), store
}

func TestPasswordHashing(t *testing.T) {
	hash, err := identity.HashPassword("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)
	assert.NoError(t, identity.CheckPassword("correct horse", hash))
	assert.Error(t, identity.CheckPassword("battery staple", hash))
}

func TestNewTokens_RejectsShortSecret(t *testing.T) {
	_, err := identity.NewTokens("short", time.Hour)
	assert.Error(t, err)
}

func TestTokens_RoundTrip(t *testing.T) {
	tokens, err := identity.NewTokens(testSecret, time.Hour)
	require.NoError(t, err)

	raw, err := tokens.Issue(&domain.User{ID: 42, Role: domain.RoleAdmin})
	require.NoError(t, err)

	claims, err := tokens.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, domain.RoleAdmin, claims.Role)
	assert.NotEmpty(t, claims.ID)
}

func TestTokens_RejectsForeignSignatureAndAlgorithm(t *testing.T) {
	tokens, err := identity.NewTokens(testSecret, time.Hour)
	require.NoError(t, err)
	other, err := identity.NewTokens("another-secret-abcdefgh", time.Hour)
	require.NoError(t, err)

	raw, err := other.Issue(&domain.User{ID: 1, Role: domain.RoleSuperAdmin})
	require.NoError(t, err)
	_, err = tokens.Parse(raw)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, identity.Claims{UserID: 1, Role: domain.RoleSuperAdmin}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = tokens.Parse(unsigned)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestTokens_RejectsExpired(t *testing.T) {
	tokens, err := identity.NewTokens(testSecret, time.Millisecond)
	require.NoError(t, err)

	raw, err := tokens.Issue(&domain.User{ID: 1, Role: domain.RoleUser})
	require.NoError(t, err)
	time.Sleep(1100 * time.Millisecond)

	_, err = tokens.Parse(raw)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestRegisterAuthenticateResolve(t *testing.T) {
	// GIVEN: A registered user
	// WHEN: Logging in and resolving the token
	// THEN: The same user comes back with its current role

	svc, store := newTestIdentity(t, audit.PolicyPermissive)
	ctx := context.Background()

	user, err := svc.Register(ctx, identity.NewUser{Name: "Ana", Email: " Ana@Example.com ", Password: "s3cret-pass"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", user.Email)
	assert.Equal(t, domain.RoleUser, user.Role)

	token, authed, err := svc.Authenticate(ctx, "ana@example.com", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, user.ID, authed.ID)

	resolved, err := svc.Resolve(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, resolved.ID)

	entries, err := store.ListAuditEntries(ctx, domain.AuditFilter{Action: domain.ActionCreateUser})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, user.ID, entries[0].UserID, "self-registration is attributed to the new account")
}

func TestAuthenticate_WrongPassword(t *testing.T) {
	svc, _ := newTestIdentity(t, audit.PolicyPermissive)
	ctx := context.Background()
	_, err := svc.Register(ctx, identity.NewUser{Name: "Bo", Email: "bo@example.com", Password: "password-1"}, nil)
	require.NoError(t, err)

	_, _, err = svc.Authenticate(ctx, "bo@example.com", "password-2")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, _, err = svc.Authenticate(ctx, "nobody@example.com", "password-1")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestRegister_Validation(t *testing.T) {
	svc, _ := newTestIdentity(t, audit.PolicyPermissive)

	_, err := svc.Register(context.Background(), identity.NewUser{Name: "C", Email: "not-an-email", Password: "password-1"}, nil)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "email", verr.Field)

	_, err = svc.Register(context.Background(), identity.NewUser{Name: "C", Email: "c@example.com", Password: "short"}, nil)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "password", verr.Field)

	_, err = svc.Register(context.Background(), identity.NewUser{Name: "C", Email: "c@example.com", Password: "password-1", Role: "root"}, nil)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "role", verr.Field)
}

func TestRegister_DuplicateEmailIsConflict(t *testing.T) {
	svc, _ := newTestIdentity(t, audit.PolicyPermissive)
	in := identity.NewUser{Name: "D", Email: "d@example.com", Password: "password-1"}

	_, err := svc.Register(context.Background(), in, nil)
	require.NoError(t, err)
	_, err = svc.Register(context.Background(), in, nil)

	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestEnsureBootstrapAdmin_Idempotent(t *testing.T) {
	svc, _ := newTestIdentity(t, audit.PolicyStrict)
	ctx := context.Background()

	admin, created, err := svc.EnsureBootstrapAdmin(ctx, "", "root@example.com", "bootstrap-pass")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, domain.RoleSuperAdmin, admin.Role)

	again, created, err := svc.EnsureBootstrapAdmin(ctx, "", "root@example.com", "bootstrap-pass")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, admin.ID, again.ID)

	// Strict policy still rejects anonymous registration.
	_, err = svc.Register(ctx, identity.NewUser{Name: "E", Email: "e@example.com", Password: "password-1"}, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = svc.Register(ctx, identity.NewUser{Name: "E", Email: "e@example.com", Password: "password-1"}, &admin.ID)
	assert.NoError(t, err)
}

func TestResolve_DeletedUserIsUnauthorized(t *testing.T) {
	svc, _ := newTestIdentity(t, audit.PolicyPermissive)
	tokens, err := identity.NewTokens(testSecret, time.Hour)
	require.NoError(t, err)

	raw, err := tokens.Issue(&domain.User{ID: 999, Role: domain.RoleAdmin})
	require.NoError(t, err)

	_, err = svc.Resolve(context.Background(), raw)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}
