package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"communeo.org/internal/account"
	"communeo.org/internal/scope"
)

func newTestService(t *testing.T, opts ...ServiceOption) (*Service, *account.InMemory) {
	t.Helper()
	store := account.NewInMemory()
	opts = append([]ServiceOption{WithSecret("test-secret"), WithIssuer("test")}, opts...)
	return NewService(store, opts...), store
}

func seedAccount(t *testing.T, store *account.InMemory, email, password string, role scope.Role) *account.Account {
	t.Helper()
	hash, err := account.HashPassword(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	acc := &account.Account{
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		CommuneID:    "koungou",
		Active:       true,
	}
	if err := store.Create(context.Background(), acc); err != nil {
		t.Fatalf("seed account: %v", err)
	}
	return acc
}

func TestLoginAndAuthenticate(t *testing.T) {
	svc, store := newTestService(t)
	acc := seedAccount(t, store, "admin@koungou.test", "correct-horse", scope.RoleAdmin)

	token, expiresAt, identity, err := svc.Login(context.Background(), "Admin@Koungou.Test", "correct-horse")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if time.Until(expiresAt) <= 0 {
		t.Fatalf("expected future expiration, got %v", expiresAt)
	}
	if identity.ID != acc.ID || identity.Role != scope.RoleAdmin {
		t.Fatalf("unexpected identity: %+v", identity)
	}

	resolved, err := svc.Authenticate(context.Background(), token)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if resolved.ID != acc.ID || resolved.CommuneID != "koungou" {
		t.Fatalf("unexpected resolved identity: %+v", resolved)
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	svc, store := newTestService(t)
	seedAccount(t, store, "admin@koungou.test", "correct-horse", scope.RoleAdmin)

	for name, creds := range map[string][2]string{
		"wrong password": {"admin@koungou.test", "wrong"},
		"unknown email":  {"ghost@koungou.test", "correct-horse"},
		"empty password": {"admin@koungou.test", ""},
	} {
		_, _, _, err := svc.Login(context.Background(), creds[0], creds[1])
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("%s: expected ErrInvalidCredentials, got %v", name, err)
		}
	}
}

func TestAuthenticateRejectsRevokedSession(t *testing.T) {
	svc, store := newTestService(t)
	acc := seedAccount(t, store, "admin@koungou.test", "correct-horse", scope.RoleAdmin)

	token, _, _, err := svc.Login(context.Background(), acc.Email, "correct-horse")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), token); err != nil {
		t.Fatalf("Authenticate before revoke: %v", err)
	}

	if err := svc.RevokeSessions(context.Background(), acc.ID); err != nil {
		t.Fatalf("RevokeSessions: %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), token); !errors.Is(err, ErrSessionInvalidated) {
		t.Fatalf("expected ErrSessionInvalidated, got %v", err)
	}

	// A fresh login embeds the bumped version and works again.
	token, _, _, err = svc.Login(context.Background(), acc.Email, "correct-horse")
	if err != nil {
		t.Fatalf("re-login: %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), token); err != nil {
		t.Fatalf("Authenticate after re-login: %v", err)
	}
}

func TestAuthenticateHonorsLegacyVersionClaim(t *testing.T) {
	svc, store := newTestService(t)
	acc := seedAccount(t, store, "admin@koungou.test", "correct-horse", scope.RoleAdmin)

	// Tokens minted by older deployments carried the version under
	// tokenVersion; they must still authenticate and still be revocable.
	version := acc.SessionVersion
	token, _, err := svc.mintToken(acc.ID, Claims{TokenVersion: &version}, time.Now().UTC())
	if err != nil {
		t.Fatalf("mintToken: %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), token); err != nil {
		t.Fatalf("Authenticate legacy claim: %v", err)
	}

	if _, err := store.BumpSessionVersion(context.Background(), acc.ID); err != nil {
		t.Fatalf("BumpSessionVersion: %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), token); !errors.Is(err, ErrSessionInvalidated) {
		t.Fatalf("expected ErrSessionInvalidated, got %v", err)
	}
}

func TestAuthenticateTokenWithoutVersionClaim(t *testing.T) {
	svc, store := newTestService(t)
	acc := seedAccount(t, store, "admin@koungou.test", "correct-horse", scope.RoleAdmin)

	// Pre-versioning tokens carry no version claim at all and skip the check.
	token, _, err := svc.mintToken(acc.ID, Claims{}, time.Now().UTC())
	if err != nil {
		t.Fatalf("mintToken: %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), token); err != nil {
		t.Fatalf("Authenticate versionless token: %v", err)
	}
}

func TestAuthenticateRejectsExpiredToken(t *testing.T) {
	past := time.Now().UTC().Add(-48 * time.Hour)
	svc, store := newTestService(t, WithAccessTTL(time.Hour))
	acc := seedAccount(t, store, "admin@koungou.test", "correct-horse", scope.RoleAdmin)

	token, _, err := svc.mintToken(acc.ID, Claims{}, past)
	if err != nil {
		t.Fatalf("mintToken: %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), token); !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("expected ErrExpiredToken, got %v", err)
	}
}

func TestAuthenticateRejectsDisabledAccount(t *testing.T) {
	svc, store := newTestService(t)
	acc := seedAccount(t, store, "admin@koungou.test", "correct-horse", scope.RoleAdmin)

	token, _, _, err := svc.Login(context.Background(), acc.Email, "correct-horse")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := store.SetActive(context.Background(), acc.ID, false); err != nil {
		t.Fatalf("SetActive: %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), token); !errors.Is(err, ErrAccountDisabled) {
		t.Fatalf("expected ErrAccountDisabled, got %v", err)
	}
	if _, _, _, err := svc.Login(context.Background(), acc.Email, "correct-horse"); !errors.Is(err, ErrAccountDisabled) {
		t.Fatalf("expected ErrAccountDisabled on login, got %v", err)
	}
}

func TestAuthenticateResolvesLegacyAdminByEmailSubject(t *testing.T) {
	svc, store := newTestService(t)

	hash, err := account.HashPassword("legacy-pass")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	legacy := &account.Account{
		Email:        "maire@dembeni.yt",
		PasswordHash: hash,
		Role:         scope.RoleAdmin,
		CommuneID:    "Dembéni",
		Active:       true,
	}
	store.AddLegacy(legacy)

	// Legacy tokens used the email as subject instead of the account id.
	token, _, err := svc.mintToken("maire@dembeni.yt", Claims{}, time.Now().UTC())
	if err != nil {
		t.Fatalf("mintToken: %v", err)
	}
	identity, err := svc.Authenticate(context.Background(), token)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if identity.ID != legacy.ID || identity.Role != scope.RoleAdmin {
		t.Fatalf("unexpected identity: %+v", identity)
	}
}

func TestAuthenticateRejectsGarbageTokens(t *testing.T) {
	svc, store := newTestService(t)
	seedAccount(t, store, "admin@koungou.test", "correct-horse", scope.RoleAdmin)

	if _, err := svc.Authenticate(context.Background(), ""); !errors.Is(err, ErrMissingToken) {
		t.Fatalf("expected ErrMissingToken, got %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), "not.a.jwt"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}

	// Tokens signed with a different secret are invalid, not expired.
	other := NewService(store, WithSecret("other-secret"))
	acc, err := store.FindByEmail(context.Background(), "admin@koungou.test")
	if err != nil {
		t.Fatalf("FindByEmail: %v", err)
	}
	forged, _, err := other.mintToken(acc.ID, Claims{}, time.Now().UTC())
	if err != nil {
		t.Fatalf("mintToken: %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), forged); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestServiceRequiresSecret(t *testing.T) {
	store := account.NewInMemory()
	svc := NewService(store)
	seedAccount(t, store, "admin@koungou.test", "correct-horse", scope.RoleAdmin)

	if _, _, _, err := svc.Login(context.Background(), "admin@koungou.test", "correct-horse"); !errors.Is(err, ErrMissingSecret) {
		t.Fatalf("expected ErrMissingSecret, got %v", err)
	}
}
