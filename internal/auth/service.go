// AngelaMos | 2026
// service.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/recipe-shop/internal/core"
	"github.com/carterperez-dev/recipe-shop/internal/middleware"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenReuse         = errors.New("token reuse detected")
	ErrEmailExists        = errors.New("email already exists")
)

// UserInfo is the account view the auth flows need, including the stored
// password hash.
type UserInfo struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	Role         core.Role
	CreatedAt    time.Time
}

func (u *UserInfo) response() UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

// UserProvider is implemented by the user service.
type UserProvider interface {
	GetByEmail(ctx context.Context, email string) (*UserInfo, error)
	GetByID(ctx context.Context, id int64) (*UserInfo, error)
	Create(ctx context.Context, email, passwordHash, name, requestedRole string) (*UserInfo, error)
	UpdatePassword(ctx context.Context, userID int64, passwordHash string) error
}

// Client describes where a session was opened from.
type Client struct {
	UserAgent string
	IP        string
}

type Service struct {
	repo   Repository
	jwt    *JWTManager
	users  UserProvider
	denied denylist
	now    func() time.Time
}

func NewService(
	repo Repository,
	jwt *JWTManager,
	users UserProvider,
	rdb *redis.Client,
) *Service {
	return &Service{
		repo:   repo,
		jwt:    jwt,
		users:  users,
		denied: denylist{rdb: rdb},
		now:    time.Now,
	}
}

func (s *Service) Login(ctx context.Context, req LoginRequest, client Client) (*AuthResponse, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)

	var stored *string
	switch {
	case err == nil:
		stored = &user.PasswordHash
	case !errors.Is(err, core.ErrNotFound):
		return nil, fmt.Errorf("login: %w", err)
	}

	ok, upgraded, err := core.VerifyPasswordTimingSafe(req.Password, stored)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	if upgraded != "" {
		if err := s.users.UpdatePassword(ctx, user.ID, upgraded); err != nil {
			slog.WarnContext(ctx, "password rehash not saved",
				"user_id", user.ID,
				"error", err,
			)
		}
	}

	return s.openSession(ctx, user, client)
}

// Register creates the account and signs it in. The requested role is
// passed through untouched; the user service decides whether to honour it.
func (s *Service) Register(ctx context.Context, req RegisterRequest, client Client) (*AuthResponse, error) {
	hash, err := core.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	user, err := s.users.Create(ctx, req.Email, hash, req.Name, req.Role)
	if errors.Is(err, core.ErrDuplicateKey) {
		return nil, ErrEmailExists
	}
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	return s.openSession(ctx, user, client)
}

// Refresh exchanges a refresh token for a new pair. Presenting a token
// that was already exchanged revokes its whole family.
func (s *Service) Refresh(ctx context.Context, refreshToken string, client Client) (*AuthResponse, error) {
	prev, err := s.repo.ByHash(ctx, core.HashToken(refreshToken))
	if errors.Is(err, core.ErrNotFound) {
		return nil, fmt.Errorf("refresh: %w", core.ErrTokenInvalid)
	}
	if err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}

	if err := prev.usable(s.now()); err != nil {
		if errors.Is(err, ErrTokenReuse) {
			s.burnFamily(ctx, prev)
		}
		return nil, err
	}

	user, err := s.users.GetByID(ctx, prev.UserID)
	if err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}

	resp, next, err := s.mint(user, client, prev.FamilyID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Rotate(ctx, prev.ID, next); err != nil {
		if errors.Is(err, ErrTokenReuse) {
			s.burnFamily(ctx, prev)
		}
		return nil, fmt.Errorf("refresh: %w", err)
	}

	return resp, nil
}

func (s *Service) burnFamily(ctx context.Context, token *RefreshToken) {
	slog.WarnContext(ctx, "refresh token replayed, revoking family",
		"user_id", token.UserID,
		"family_id", token.FamilyID,
	)
	if err := s.repo.RevokeFamily(ctx, token.FamilyID); err != nil {
		slog.ErrorContext(ctx, "revoke token family", "error", err)
	}
}

// Logout revokes whatever the caller presented. Both tokens are optional
// and an unknown refresh token is ignored, so the call always succeeds
// for the client.
func (s *Service) Logout(
	ctx context.Context,
	refreshToken string,
	claims *middleware.AccessTokenClaims,
) error {
	if claims != nil {
		if err := s.denied.denyToken(ctx, claims.JTI, claims.ExpiresAt); err != nil {
			return err
		}
	}

	if refreshToken == "" {
		return nil
	}

	token, err := s.repo.ByHash(ctx, core.HashToken(refreshToken))
	if errors.Is(err, core.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}

	if claims != nil && token.UserID != claims.UserID {
		return nil
	}

	if err := s.repo.RevokeOne(ctx, token.ID); err != nil && !errors.Is(err, core.ErrNotFound) {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// LogoutAll ends every session of the user, including access tokens that
// have not expired yet.
func (s *Service) LogoutAll(ctx context.Context, userID int64) error {
	if err := s.repo.RevokeUser(ctx, userID); err != nil {
		return fmt.Errorf("logout all: %w", err)
	}
	return s.denied.denyUserBefore(ctx, userID, s.now(), s.jwt.AccessTokenTTL())
}

// VerifyAccessToken is the middleware.TokenVerifier used by the API.
func (s *Service) VerifyAccessToken(ctx context.Context, token string) (*middleware.AccessTokenClaims, error) {
	claims, err := s.jwt.VerifyAccessToken(token)
	if err != nil {
		return nil, err
	}
	if err := s.denied.check(ctx, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func (s *Service) GetActiveSessions(ctx context.Context, userID int64) ([]SessionInfo, error) {
	tokens, err := s.repo.Active(ctx, userID)
	if err != nil {
		return nil, err
	}

	sessions := make([]SessionInfo, len(tokens))
	for i := range tokens {
		sessions[i] = tokens[i].session()
	}
	return sessions, nil
}

func (s *Service) RevokeSession(ctx context.Context, userID int64, sessionID string) error {
	token, err := s.repo.ByID(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	if token.UserID != userID {
		return fmt.Errorf("revoke session: %w", core.ErrForbidden)
	}
	return s.repo.RevokeOne(ctx, sessionID)
}

// ChangePassword replaces the password and signs the user out everywhere.
func (s *Service) ChangePassword(ctx context.Context, userID int64, current, next string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("change password: %w", err)
	}

	ok, err := core.VerifyPassword(current, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	if !ok {
		return ErrInvalidCredentials
	}

	hash, err := core.HashPassword(next)
	if err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return fmt.Errorf("change password: %w", err)
	}

	return s.LogoutAll(ctx, userID)
}

func (s *Service) GetCurrentUser(ctx context.Context, userID int64) (*UserResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := user.response()
	return &resp, nil
}

// PruneExpiredTokens deletes refresh tokens that expired more than grace
// ago and returns how many were removed.
func (s *Service) PruneExpiredTokens(ctx context.Context, grace time.Duration) (int64, error) {
	return s.repo.Prune(ctx, s.now().Add(-grace))
}

func (s *Service) openSession(ctx context.Context, user *UserInfo, client Client) (*AuthResponse, error) {
	resp, token, err := s.mint(user, client, "")
	if err != nil {
		return nil, err
	}
	if err := s.repo.Insert(ctx, token); err != nil {
		return nil, err
	}
	return resp, nil
}

// mint signs an access token and generates a refresh token in familyID,
// or in a new family when familyID is empty. The refresh row is returned
// unsaved.
func (s *Service) mint(user *UserInfo, client Client, familyID string) (*AuthResponse, *RefreshToken, error) {
	access, err := s.jwt.CreateAccessToken(AccessTokenClaims{UserID: user.ID, Role: user.Role})
	if err != nil {
		return nil, nil, fmt.Errorf("create access token: %w", err)
	}

	refresh, err := s.jwt.CreateRefreshToken(familyID)
	if err != nil {
		return nil, nil, fmt.Errorf("create refresh token: %w", err)
	}

	row := &RefreshToken{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		TokenHash: refresh.Hash,
		FamilyID:  refresh.FamilyID,
		ExpiresAt: refresh.ExpiresAt,
		UserAgent: client.UserAgent,
		IPAddress: client.IP,
	}

	ttl := s.jwt.AccessTokenTTL()
	resp := &AuthResponse{
		User: user.response(),
		Tokens: TokenResponse{
			AccessToken:  access,
			RefreshToken: refresh.Token,
			TokenType:    "Bearer",
			ExpiresIn:    int(ttl.Seconds()),
			ExpiresAt:    s.now().Add(ttl),
		},
	}
	return resp, row, nil
}
