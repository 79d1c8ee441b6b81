package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/zaikoworks/zaiko-backend/internal/users"
	pkgauth "github.com/zaikoworks/zaiko-backend/pkg/auth"
	"github.com/zaikoworks/zaiko-backend/pkg/auth/session"
	"github.com/zaikoworks/zaiko-backend/pkg/config"
	"github.com/zaikoworks/zaiko-backend/pkg/db/models"
	"github.com/zaikoworks/zaiko-backend/pkg/enums"
	pkgerrors "github.com/zaikoworks/zaiko-backend/pkg/errors"
	"github.com/zaikoworks/zaiko-backend/pkg/security"
)

type stubUserRepo struct {
	users.Repository
	user          *models.User
	lastLoginAt   *time.Time
	findByIDCalls int
}

func (s *stubUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	if s.user == nil || s.user.Email != email {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	return s.user, nil
}

func (s *stubUserRepo) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.findByIDCalls++
	if s.user == nil || s.user.ID != id {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	return s.user, nil
}

func (s *stubUserRepo) TouchLastLogin(_ context.Context, _ uuid.UUID, now time.Time) error {
	s.lastLoginAt = &now
	return nil
}

type stubSessions struct {
	refreshToken string
	rotateErr    error
	revoked      []string
	rotatedTo    string
}

func (s *stubSessions) Generate(_ context.Context, accessID string) (string, error) {
	return s.refreshToken, nil
}

func (s *stubSessions) Rotate(_ context.Context, oldAccessID, provided string) (string, string, error) {
	if s.rotateErr != nil {
		return "", "", s.rotateErr
	}
	s.rotatedTo = session.NewAccessID()
	return s.rotatedTo, s.refreshToken + "-rotated", nil
}

func (s *stubSessions) Revoke(_ context.Context, accessID string) error {
	s.revoked = append(s.revoked, accessID)
	return nil
}

type stubLimiter struct {
	allowed bool
	calls   int
}

func (s *stubLimiter) FixedWindowAllow(_ context.Context, _ string, _ int64, _ time.Duration) (bool, int64, error) {
	s.calls++
	return s.allowed, int64(s.calls), nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:                 "secret",
		Issuer:                 "zaiko",
		ExpirationMinutes:      30,
		RefreshTokenTTLMinutes: 60,
	}
}

func testUser(t *testing.T, password string) *models.User {
	t.Helper()
	hash, err := security.HashPassword(password, config.PasswordConfig{
		ArgonMemoryKB: 8, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 8, ArgonKeyLen: 16,
	})
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return &models.User{
		ID:           uuid.New(),
		Email:        "staff@example.com",
		Username:     "staffer",
		PasswordHash: hash,
		SystemRole:   "staff",
		IsActive:     true,
	}
}

func TestLoginIssuesTokenPair(t *testing.T) {
	user := testUser(t, "open sesame")
	repo := &stubUserRepo{user: user}
	sessions := &stubSessions{refreshToken: "refresh-token"}
	cfg := testJWTConfig()

	svc, err := NewService(repo, sessions, nil, cfg)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	pair, err := svc.Login(context.Background(), LoginInput{
		Email:    "Staff@Example.com",
		Password: "open sesame",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if pair.RefreshToken != "refresh-token" {
		t.Fatalf("unexpected refresh token %q", pair.RefreshToken)
	}
	if pair.User.Email != user.Email {
		t.Fatalf("unexpected user %+v", pair.User)
	}

	claims, err := pkgauth.ParseAccessToken(cfg, pair.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.UserID != user.ID || claims.Role != enums.SystemRoleStaff {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.ID == "" {
		t.Fatal("expected jti to be set")
	}

	if repo.lastLoginAt == nil {
		t.Fatal("expected last login to be touched")
	}
}

func TestLoginFailuresAreUniform(t *testing.T) {
	user := testUser(t, "open sesame")

	cases := []struct {
		name  string
		setup func(*models.User)
		input LoginInput
	}{
		{
			name:  "unknown email",
			input: LoginInput{Email: "nobody@example.com", Password: "open sesame"},
		},
		{
			name:  "wrong password",
			input: LoginInput{Email: user.Email, Password: "wrong"},
		},
		{
			name:  "inactive account",
			setup: func(u *models.User) { u.IsActive = false },
			input: LoginInput{Email: user.Email, Password: "open sesame"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			u := *user
			if tc.setup != nil {
				tc.setup(&u)
			}
			svc, err := NewService(&stubUserRepo{user: &u}, &stubSessions{}, nil, testJWTConfig())
			if err != nil {
				t.Fatalf("build service: %v", err)
			}

			_, err = svc.Login(context.Background(), tc.input)
			typed := pkgerrors.As(err)
			if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
				t.Fatalf("expected unauthorized, got %v", err)
			}
			if typed.Message() != "invalid credentials" {
				t.Fatalf("expected uniform message, got %q", typed.Message())
			}
		})
	}
}

func TestLoginRateLimited(t *testing.T) {
	user := testUser(t, "open sesame")
	limiter := &stubLimiter{allowed: false}

	svc, err := NewService(&stubUserRepo{user: user}, &stubSessions{}, limiter, testJWTConfig())
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	_, err = svc.Login(context.Background(), LoginInput{Email: user.Email, Password: "open sesame"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if limiter.calls != 1 {
		t.Fatalf("expected limiter to be consulted once, got %d", limiter.calls)
	}
}

func TestRefreshRotatesSession(t *testing.T) {
	user := testUser(t, "open sesame")
	repo := &stubUserRepo{user: user}
	sessions := &stubSessions{refreshToken: "refresh-token"}
	cfg := testJWTConfig()

	svc, err := NewService(repo, sessions, nil, cfg)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	pair, err := svc.Login(context.Background(), LoginInput{Email: user.Email, Password: "open sesame"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	refreshed, err := svc.Refresh(context.Background(), pair.AccessToken, pair.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if refreshed.RefreshToken != "refresh-token-rotated" {
		t.Fatalf("unexpected rotated token %q", refreshed.RefreshToken)
	}

	claims, err := pkgauth.ParseAccessToken(cfg, refreshed.AccessToken)
	if err != nil {
		t.Fatalf("parse refreshed token: %v", err)
	}
	if claims.ID != sessions.rotatedTo {
		t.Fatalf("expected jti %q, got %q", sessions.rotatedTo, claims.ID)
	}
}

func TestRefreshRejectsStaleToken(t *testing.T) {
	user := testUser(t, "open sesame")
	sessions := &stubSessions{refreshToken: "refresh-token", rotateErr: session.ErrInvalidRefreshToken}

	svc, err := NewService(&stubUserRepo{user: user}, sessions, nil, testJWTConfig())
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	pair, err := svc.Login(context.Background(), LoginInput{Email: user.Email, Password: "open sesame"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	_, err = svc.Refresh(context.Background(), pair.AccessToken, "stale")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestRefreshRevokesWhenAccountInactive(t *testing.T) {
	user := testUser(t, "open sesame")
	repo := &stubUserRepo{user: user}
	sessions := &stubSessions{refreshToken: "refresh-token"}

	svc, err := NewService(repo, sessions, nil, testJWTConfig())
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	pair, err := svc.Login(context.Background(), LoginInput{Email: user.Email, Password: "open sesame"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	user.IsActive = false
	_, err = svc.Refresh(context.Background(), pair.AccessToken, pair.RefreshToken)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if len(sessions.revoked) != 1 || sessions.revoked[0] != sessions.rotatedTo {
		t.Fatalf("expected rotated session to be revoked, got %v", sessions.revoked)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	user := testUser(t, "open sesame")
	sessions := &stubSessions{refreshToken: "refresh-token"}
	cfg := testJWTConfig()

	svc, err := NewService(&stubUserRepo{user: user}, sessions, nil, cfg)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	pair, err := svc.Login(context.Background(), LoginInput{Email: user.Email, Password: "open sesame"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if err := svc.Logout(context.Background(), pair.AccessToken); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if len(sessions.revoked) != 1 {
		t.Fatalf("expected one revoked session, got %v", sessions.revoked)
	}

	if err := svc.Logout(context.Background(), "garbage"); err == nil {
		t.Fatal("expected error for malformed token")
	}
}
