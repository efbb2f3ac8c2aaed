package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/iliyamo/table-reservation/internal/apperr"
	"github.com/iliyamo/table-reservation/internal/model"
	"github.com/iliyamo/table-reservation/internal/repository"
	"github.com/iliyamo/table-reservation/internal/utils"
)

// MinPasswordLen is the shortest password accepted at signup.
const MinPasswordLen = 6

type AuthConfig struct {
	JWTSecret  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	BcryptCost int
}

// AuthService registers users, issues tokens and verifies them.
type AuthService struct {
	users  UserStore
	tokens TokenStore
	cfg    AuthConfig
	log    zerolog.Logger
	now    func() time.Time
}

func NewAuthService(users UserStore, tokens TokenStore, cfg AuthConfig, log zerolog.Logger) *AuthService {
	return &AuthService{users: users, tokens: tokens, cfg: cfg, log: log, now: time.Now}
}

// WithClock replaces the time source; used by tests.
func (s *AuthService) WithClock(now func() time.Time) *AuthService {
	s.now = now
	return s
}

type SignupInput struct {
	Name     string
	Email    string
	Password string
}

// AuthResult is returned by signup, login and refresh.
type AuthResult struct {
	Token        string           `json:"token"`
	RefreshToken string           `json:"refreshToken"`
	ExpiresAt    time.Time        `json:"expiresAt"`
	User         model.PublicUser `json:"user"`
}

var errBadCredentials = apperr.New(apperr.KindInvalidCredentials, "Invalid credentials")

// Signup creates a user with role "user" and signs them in.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (AuthResult, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if name == "" || email == "" || in.Password == "" {
		return AuthResult{}, apperr.Validation("name, email and password are required")
	}
	if !validEmail(email) {
		return AuthResult{}, apperr.Validation("email is not valid")
	}
	if len(in.Password) < MinPasswordLen {
		return AuthResult{}, apperr.Validation("password must be at least 6 characters")
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return AuthResult{}, apperr.New(apperr.KindConflict, "Email already exists")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return AuthResult{}, apperr.Internal("lookup user failed", err)
	}

	hash, err := utils.HashPassword(in.Password, s.cfg.BcryptCost)
	if err != nil {
		return AuthResult{}, apperr.Internal("hash password failed", err)
	}
	u := model.User{Name: name, Email: email, PasswordHash: hash, Role: model.RoleUser}
	if err := s.users.Create(ctx, &u); err != nil {
		// The unique index catches a concurrent signup for the same email.
		if errors.Is(err, repository.ErrEmailExists) {
			return AuthResult{}, apperr.New(apperr.KindConflict, "Email already exists")
		}
		return AuthResult{}, apperr.Internal("create user failed", err)
	}
	s.log.Info().Uint64("user_id", u.ID).Msg("user signed up")
	return s.issue(ctx, u)
}

// Login checks the credentials. Unknown email and wrong password share one
// error so callers cannot probe for accounts.
func (s *AuthService) Login(ctx context.Context, email, password string) (AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return AuthResult{}, apperr.Validation("email and password are required")
	}
	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return AuthResult{}, errBadCredentials
	}
	if err != nil {
		return AuthResult{}, apperr.Internal("lookup user failed", err)
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return AuthResult{}, errBadCredentials
	}
	return s.issue(ctx, u)
}

// Me returns the caller's public profile.
func (s *AuthService) Me(ctx context.Context, id model.Identity) (model.PublicUser, error) {
	u, err := s.users.GetByID(ctx, id.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.PublicUser{}, apperr.NotFound("User not found")
	}
	if err != nil {
		return model.PublicUser{}, apperr.Internal("load user failed", err)
	}
	return u.Public(), nil
}

// Refresh validates a refresh token, revokes it and issues a new pair.
func (s *AuthService) Refresh(ctx context.Context, raw string) (AuthResult, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return AuthResult{}, apperr.Validation("refreshToken is required")
	}
	hash := utils.HashRefreshRaw(raw)
	userID, err := s.tokens.ValidateRefresh(ctx, hash, s.now())
	if errors.Is(err, repository.ErrNotFound) {
		return AuthResult{}, apperr.New(apperr.KindInvalidToken, "Invalid refresh token")
	}
	if err != nil {
		return AuthResult{}, apperr.Internal("validate refresh failed", err)
	}
	// Losing the race to revoke means another request already rotated it.
	if err := s.tokens.RevokeByHash(ctx, hash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return AuthResult{}, apperr.New(apperr.KindInvalidToken, "Invalid refresh token")
		}
		return AuthResult{}, apperr.Internal("revoke refresh failed", err)
	}
	u, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return AuthResult{}, apperr.New(apperr.KindInvalidToken, "Invalid refresh token")
	}
	if err != nil {
		return AuthResult{}, apperr.Internal("load user failed", err)
	}
	return s.issue(ctx, u)
}

// Logout revokes one refresh token when given, otherwise every token of
// the authenticated caller.
func (s *AuthService) Logout(ctx context.Context, caller *model.Identity, raw string) error {
	raw = strings.TrimSpace(raw)
	switch {
	case raw != "":
		err := s.tokens.RevokeByHash(ctx, utils.HashRefreshRaw(raw))
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return apperr.Internal("revoke refresh failed", err)
		}
		return nil
	case caller != nil:
		if err := s.tokens.RevokeAllForUser(ctx, caller.ID); err != nil {
			return apperr.Internal("revoke refresh failed", err)
		}
		return nil
	}
	return apperr.Validation("refreshToken is required")
}

// Verify checks an access token and returns its identity.
func (s *AuthService) Verify(raw string) (model.Identity, error) {
	if strings.TrimSpace(raw) == "" {
		return model.Identity{}, apperr.New(apperr.KindUnauthenticated, "Access token required")
	}
	id, err := utils.ParseAccessToken(s.cfg.JWTSecret, raw)
	if err != nil {
		return model.Identity{}, apperr.Wrap(apperr.KindInvalidToken, "Invalid token", err)
	}
	return id, nil
}

func (s *AuthService) issue(ctx context.Context, u model.User) (AuthResult, error) {
	now := s.now()
	access, err := utils.NewAccessToken(s.cfg.JWTSecret, u.Identity(), s.cfg.AccessTTL, now)
	if err != nil {
		return AuthResult{}, apperr.Internal("issue access failed", err)
	}
	refresh, err := utils.NewRefreshToken(s.cfg.RefreshTTL, now)
	if err != nil {
		return AuthResult{}, apperr.Internal("issue refresh failed", err)
	}
	if err := s.tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return AuthResult{}, apperr.Internal("save refresh failed", err)
	}
	return AuthResult{Token: access.Token, RefreshToken: refresh.Raw, ExpiresAt: access.Exp, User: u.Public()}, nil
}

func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s && strings.Contains(s[strings.LastIndex(s, "@"):], ".")
}
