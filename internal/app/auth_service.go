package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"quiztopia-api/internal/domain"
	"quiztopia-api/internal/secret"
)

// Identity is the authenticated caller as carried through a request.
type Identity struct {
	UserID string
	Email  string
}

// AuthService handles signup, login and token verification. The signing
// secret comes from an injected source so its caching policy lives in
// the wiring, not in a package global.
type AuthService struct {
	users    UserStore
	secrets  secret.Source
	tokenTTL time.Duration
	now      func() time.Time
	newID    func() string
}

const defaultTokenTTL = 7 * 24 * time.Hour

func NewAuthService(users UserStore, secrets secret.Source, tokenTTL time.Duration) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = defaultTokenTTL
	}
	return &AuthService{
		users:    users,
		secrets:  secrets,
		tokenTTL: tokenTTL,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Signup creates an account and returns a signed token for it.
func (a *AuthService) Signup(ctx context.Context, email, password string) (Identity, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return Identity{}, "", fmt.Errorf("%w: email and password required", domain.ErrValidation)
	}

	_, err := a.users.UserByEmail(ctx, email)
	switch {
	case err == nil:
		return Identity{}, "", domain.ErrEmailTaken
	case !errors.Is(err, domain.ErrUserNotFound):
		return Identity{}, "", fmt.Errorf("lookup email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Identity{}, "", fmt.Errorf("hash password: %w", err)
	}
	user := domain.User{
		UserID:       a.newID(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    a.now().UTC(),
	}
	if err := a.users.PutUser(ctx, user); err != nil {
		return Identity{}, "", fmt.Errorf("put user: %w", err)
	}

	id := Identity{UserID: user.UserID, Email: user.Email}
	token, err := a.sign(ctx, id)
	if err != nil {
		return Identity{}, "", err
	}
	return id, token, nil
}

// Login verifies credentials and returns a fresh token.
func (a *AuthService) Login(ctx context.Context, email, password string) (Identity, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return Identity{}, "", fmt.Errorf("%w: email and password required", domain.ErrValidation)
	}

	user, err := a.users.UserByEmail(ctx, email)
	if errors.Is(err, domain.ErrUserNotFound) {
		return Identity{}, "", domain.ErrInvalidCredentials
	}
	if err != nil {
		return Identity{}, "", fmt.Errorf("lookup email: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return Identity{}, "", domain.ErrInvalidCredentials
	}

	id := Identity{UserID: user.UserID, Email: user.Email}
	token, err := a.sign(ctx, id)
	if err != nil {
		return Identity{}, "", err
	}
	return id, token, nil
}

// Authenticate validates a bearer token and returns the identity it
// carries. Any parse or signature failure maps to invalid credentials.
func (a *AuthService) Authenticate(ctx context.Context, token string) (Identity, error) {
	if token == "" {
		return Identity{}, domain.ErrInvalidCredentials
	}
	key, err := a.secrets.Resolve(ctx)
	if err != nil {
		return Identity{}, fmt.Errorf("resolve secret: %w", err)
	}

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(key), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return Identity{}, domain.ErrInvalidCredentials
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, domain.ErrInvalidCredentials
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return Identity{}, domain.ErrInvalidCredentials
	}
	email, _ := claims["email"].(string)
	return Identity{UserID: sub, Email: email}, nil
}

func (a *AuthService) sign(ctx context.Context, id Identity) (string, error) {
	key, err := a.secrets.Resolve(ctx)
	if err != nil {
		return "", fmt.Errorf("resolve secret: %w", err)
	}
	now := a.now()
	claims := jwt.MapClaims{
		"sub":   id.UserID,
		"email": id.Email,
		"iat":   now.Unix(),
		"exp":   now.Add(a.tokenTTL).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}
