package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"quiztopia-api/internal/app"
	"quiztopia-api/internal/domain"
	"quiztopia-api/internal/secret"
	"quiztopia-api/internal/store/memory"
)

func newAuth(t *testing.T) *app.AuthService {
	t.Helper()
	return app.NewAuthService(memory.New(), secret.Static("test-secret"), time.Hour)
}

func TestSignupLoginAuthenticate(t *testing.T) {
	ctx := context.Background()
	auth := newAuth(t)

	id, token, err := auth.Signup(ctx, "grace@example.com", "hunter2")
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if token == "" || id.UserID == "" {
		t.Fatalf("expected identity and token, got %+v / %q", id, token)
	}

	verified, err := auth.Authenticate(ctx, token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if verified.UserID != id.UserID || verified.Email != "grace@example.com" {
		t.Fatalf("token identity mismatch: %+v", verified)
	}

	loginID, loginToken, err := auth.Login(ctx, "grace@example.com", "hunter2")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if loginID.UserID != id.UserID || loginToken == "" {
		t.Fatalf("login identity mismatch: %+v", loginID)
	}
}

func TestSignupRejectsDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	auth := newAuth(t)

	if _, _, err := auth.Signup(ctx, "taken@example.com", "pw"); err != nil {
		t.Fatalf("signup: %v", err)
	}
	if _, _, err := auth.Signup(ctx, "taken@example.com", "other"); !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected email taken, got %v", err)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	ctx := context.Background()
	auth := newAuth(t)

	if _, _, err := auth.Signup(ctx, "ada@example.com", "correct"); err != nil {
		t.Fatalf("signup: %v", err)
	}
	if _, _, err := auth.Login(ctx, "ada@example.com", "wrong"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if _, _, err := auth.Login(ctx, "nobody@example.com", "whatever"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials for unknown email, got %v", err)
	}
}

func TestAuthenticateRejectsGarbageAndForeignTokens(t *testing.T) {
	ctx := context.Background()
	auth := newAuth(t)

	if _, err := auth.Authenticate(ctx, "not-a-token"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}

	// Token signed with another secret must not verify.
	other := app.NewAuthService(memory.New(), secret.Static("other-secret"), time.Hour)
	_, token, err := other.Signup(ctx, "eve@example.com", "pw")
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if _, err := auth.Authenticate(ctx, token); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected foreign token rejection, got %v", err)
	}
}
