package application

import (
	"context"
	"errors"
	"testing"
	"time"
)

type credentialStoreStub struct {
	creds   AccountCredentials
	account Account
	err     error
}

func (c *credentialStoreStub) GetAccountCredentialsByEmail(ctx context.Context, email string) (AccountCredentials, error) {
	if c.err != nil {
		return AccountCredentials{}, c.err
	}
	if c.creds.Account.ID == "" {
		return AccountCredentials{}, ErrNotFound
	}
	return c.creds, nil
}

func (c *credentialStoreStub) GetAccount(ctx context.Context, id string) (Account, error) {
	if c.err != nil {
		return Account{}, c.err
	}
	if c.account.ID == "" {
		return Account{}, ErrNotFound
	}
	return c.account, nil
}

type sessionRepoStub struct {
	session   Session
	created   Session
	revoked   string
	createErr error
	getErr    error
	revokeErr error
	deleteErr error
}

func (s *sessionRepoStub) CreateSession(ctx context.Context, session Session) (Session, error) {
	if s.createErr != nil {
		return Session{}, s.createErr
	}
	s.created = session
	return session, nil
}

func (s *sessionRepoStub) GetSession(ctx context.Context, token string) (Session, error) {
	if s.getErr != nil {
		return Session{}, s.getErr
	}
	if s.session.ID == "" {
		return Session{}, ErrNotFound
	}
	return s.session, nil
}

func (s *sessionRepoStub) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error) {
	if s.revokeErr != nil {
		return Session{}, s.revokeErr
	}
	s.revoked = token
	revoked := s.session
	revoked.RevokedAt = &revokedAt
	return revoked, nil
}

func (s *sessionRepoStub) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	return s.deleteErr
}

func passwordAlwaysValid(hashedPassword, password string) error { return nil }

func pharmacistAccount() Account {
	return Account{ID: "acc-1", Role: RolePharmacist, Email: "taro@example.com", DisplayName: "佐藤太郎"}
}

func TestAuthService_Authenticate(t *testing.T) {
	t.Parallel()

	t.Run("issues a session for valid credentials", func(t *testing.T) {
		account := pharmacistAccount()
		creds := &credentialStoreStub{creds: AccountCredentials{Account: account, PasswordHash: "hash"}}
		sessions := &sessionRepoStub{}
		svc := NewAuthService(creds, sessions, passwordAlwaysValid, sequenceIDs("sess-1", "token-1"), fixedNow(t), time.Hour, nil)

		result, err := svc.Authenticate(context.Background(), AuthenticateParams{Email: "Taro@Example.com", Password: "secret"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Account.ID != "acc-1" {
			t.Fatalf("unexpected account: %+v", result.Account)
		}
		if result.Session.Token != "token-1" {
			t.Fatalf("unexpected token %q", result.Session.Token)
		}
		if !result.Session.ExpiresAt.After(result.Session.CreatedAt) {
			t.Fatal("expected a future expiry")
		}
	})

	t.Run("unknown email maps to invalid credentials", func(t *testing.T) {
		svc := NewAuthService(&credentialStoreStub{}, &sessionRepoStub{}, passwordAlwaysValid, nil, fixedNow(t), time.Hour, nil)

		_, err := svc.Authenticate(context.Background(), AuthenticateParams{Email: "nobody@example.com", Password: "secret"})
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("wrong password maps to invalid credentials", func(t *testing.T) {
		creds := &credentialStoreStub{creds: AccountCredentials{Account: pharmacistAccount(), PasswordHash: "hash"}}
		failVerify := func(hashedPassword, password string) error { return ErrInvalidCredentials }
		svc := NewAuthService(creds, &sessionRepoStub{}, failVerify, nil, fixedNow(t), time.Hour, nil)

		_, err := svc.Authenticate(context.Background(), AuthenticateParams{Email: "taro@example.com", Password: "wrong"})
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("disabled accounts cannot authenticate", func(t *testing.T) {
		creds := &credentialStoreStub{creds: AccountCredentials{Account: pharmacistAccount(), PasswordHash: "hash", Disabled: true}}
		svc := NewAuthService(creds, &sessionRepoStub{}, passwordAlwaysValid, nil, fixedNow(t), time.Hour, nil)

		_, err := svc.Authenticate(context.Background(), AuthenticateParams{Email: "taro@example.com", Password: "secret"})
		if !errors.Is(err, ErrAccountDisabled) {
			t.Fatalf("expected ErrAccountDisabled, got %v", err)
		}
	})
}

func TestAuthService_ValidateSession(t *testing.T) {
	t.Parallel()

	now := fixedNow(t)
	account := pharmacistAccount()

	valid := Session{ID: "sess-1", AccountID: "acc-1", Token: "token-1", ExpiresAt: now().Add(time.Hour)}

	t.Run("returns a role-typed principal", func(t *testing.T) {
		sessions := &sessionRepoStub{session: valid}
		creds := &credentialStoreStub{account: account}
		svc := NewAuthService(creds, sessions, passwordAlwaysValid, nil, now, time.Hour, nil)

		principal, err := svc.ValidateSession(context.Background(), "token-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if principal.UserID != "acc-1" || principal.Role != RolePharmacist {
			t.Fatalf("unexpected principal: %+v", principal)
		}
	})

	t.Run("expired sessions are refused", func(t *testing.T) {
		expired := valid
		expired.ExpiresAt = now().Add(-time.Minute)
		svc := NewAuthService(&credentialStoreStub{account: account}, &sessionRepoStub{session: expired}, passwordAlwaysValid, nil, now, time.Hour, nil)

		_, err := svc.ValidateSession(context.Background(), "token-1")
		if !errors.Is(err, ErrSessionExpired) {
			t.Fatalf("expected ErrSessionExpired, got %v", err)
		}
	})

	t.Run("revoked sessions are refused", func(t *testing.T) {
		revokedAt := now().Add(-time.Minute)
		revoked := valid
		revoked.RevokedAt = &revokedAt
		svc := NewAuthService(&credentialStoreStub{account: account}, &sessionRepoStub{session: revoked}, passwordAlwaysValid, nil, now, time.Hour, nil)

		_, err := svc.ValidateSession(context.Background(), "token-1")
		if !errors.Is(err, ErrSessionRevoked) {
			t.Fatalf("expected ErrSessionRevoked, got %v", err)
		}
	})

	t.Run("unknown tokens map to unauthorized", func(t *testing.T) {
		svc := NewAuthService(&credentialStoreStub{account: account}, &sessionRepoStub{}, passwordAlwaysValid, nil, now, time.Hour, nil)

		_, err := svc.ValidateSession(context.Background(), "missing")
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})
}

func TestAuthService_RevokeSession(t *testing.T) {
	t.Parallel()

	t.Run("revokes an existing token", func(t *testing.T) {
		sessions := &sessionRepoStub{session: Session{ID: "sess-1", Token: "token-1"}}
		svc := NewAuthService(&credentialStoreStub{}, sessions, passwordAlwaysValid, nil, fixedNow(t), time.Hour, nil)

		if err := svc.RevokeSession(context.Background(), "token-1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if sessions.revoked != "token-1" {
			t.Fatalf("expected token-1 revoked, got %q", sessions.revoked)
		}
	})

	t.Run("unknown tokens map to invalid credentials", func(t *testing.T) {
		sessions := &sessionRepoStub{revokeErr: ErrNotFound}
		svc := NewAuthService(&credentialStoreStub{}, sessions, passwordAlwaysValid, nil, fixedNow(t), time.Hour, nil)

		err := svc.RevokeSession(context.Background(), "missing")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})
}
