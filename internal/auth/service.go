package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/zaikoworks/zaiko-backend/internal/users"
	pkgauth "github.com/zaikoworks/zaiko-backend/pkg/auth"
	"github.com/zaikoworks/zaiko-backend/pkg/auth/session"
	"github.com/zaikoworks/zaiko-backend/pkg/config"
	"github.com/zaikoworks/zaiko-backend/pkg/db/models"
	"github.com/zaikoworks/zaiko-backend/pkg/enums"
	pkgerrors "github.com/zaikoworks/zaiko-backend/pkg/errors"
	"github.com/zaikoworks/zaiko-backend/pkg/security"
)

const (
	loginRateLimit  = 10
	loginRateWindow = time.Minute
)

// RateLimiter throttles repeated login attempts per identity.
type RateLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

type sessionManager interface {
	Generate(ctx context.Context, accessID string) (string, error)
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

// Service exposes login, token refresh, and logout.
type Service interface {
	Login(ctx context.Context, input LoginInput) (*TokenPairDTO, error)
	Refresh(ctx context.Context, accessToken, refreshToken string) (*TokenPairDTO, error)
	Logout(ctx context.Context, accessToken string) error
}

type service struct {
	userRepo users.Repository
	sessions sessionManager
	limiter  RateLimiter
	jwtCfg   config.JWTConfig
}

// NewService wires the auth service.
func NewService(userRepo users.Repository, sessions sessionManager, limiter RateLimiter, jwtCfg config.JWTConfig) (Service, error) {
	if userRepo == nil {
		return nil, fmt.Errorf("user repository required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session manager required")
	}
	return &service{
		userRepo: userRepo,
		sessions: sessions,
		limiter:  limiter,
		jwtCfg:   jwtCfg,
	}, nil
}

// Login verifies credentials and issues an access/refresh pair. Lookup and
// verification failures return the same unauthorized error so the response
// does not reveal which accounts exist.
func (s *service) Login(ctx context.Context, input LoginInput) (*TokenPairDTO, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || input.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email and password are required")
	}

	if s.limiter != nil {
		allowed, _, err := s.limiter.FixedWindowAllow(ctx, "login:"+email, loginRateLimit, loginRateWindow)
		if err == nil && !allowed {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "too many login attempts")
		}
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}
	if !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}

	ok, err := security.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil || !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}

	pair, err := s.issuePair(ctx, user, session.NewAccessID())
	if err != nil {
		return nil, err
	}

	// Best effort; login already succeeded.
	_ = s.userRepo.TouchLastLogin(ctx, user.ID, time.Now().UTC())

	return pair, nil
}

// Refresh rotates the refresh token and mints a new access token. The old
// session is invalidated even when the provided refresh token was stale, so
// a stolen token cannot be replayed.
func (s *service) Refresh(ctx context.Context, accessToken, refreshToken string) (*TokenPairDTO, error) {
	claims, err := pkgauth.ParseAccessTokenAllowExpired(s.jwtCfg, accessToken)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid access token")
	}

	newAccessID, newRefresh, err := s.sessions.Rotate(ctx, claims.ID, refreshToken)
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rotate session")
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil || !user.IsActive {
		_ = s.sessions.Revoke(ctx, newAccessID)
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "account unavailable")
	}

	access, err := s.mintAccess(user, newAccessID)
	if err != nil {
		return nil, err
	}

	dto := users.ToDTO(user)
	return &TokenPairDTO{AccessToken: access, RefreshToken: newRefresh, User: dto}, nil
}

// Logout revokes the session tied to the presented access token.
func (s *service) Logout(ctx context.Context, accessToken string) error {
	claims, err := pkgauth.ParseAccessTokenAllowExpired(s.jwtCfg, accessToken)
	if err != nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid access token")
	}
	if err := s.sessions.Revoke(ctx, claims.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}

func (s *service) issuePair(ctx context.Context, user *models.User, accessID string) (*TokenPairDTO, error) {
	access, err := s.mintAccess(user, accessID)
	if err != nil {
		return nil, err
	}

	refresh, err := s.sessions.Generate(ctx, accessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create session")
	}

	dto := users.ToDTO(user)
	return &TokenPairDTO{AccessToken: access, RefreshToken: refresh, User: dto}, nil
}

func (s *service) mintAccess(user *models.User, accessID string) (string, error) {
	token, err := pkgauth.MintAccessToken(s.jwtCfg, time.Now().UTC(), pkgauth.AccessTokenPayload{
		UserID: user.ID,
		Email:  user.Email,
		Role:   enums.SystemRole(user.SystemRole),
		JTI:    accessID,
	})
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}
	return token, nil
}
