// AngelaMos | 2026
// service_test.go

package auth

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/recipe-shop/internal/core"
)

var testClient = Client{UserAgent: "test-agent", IP: "192.0.2.1"}

type memTokens struct {
	tokens map[string]*RefreshToken
}

func (m *memTokens) Insert(_ context.Context, t *RefreshToken) error {
	cp := *t
	cp.CreatedAt = time.Now()
	m.tokens[t.ID] = &cp
	return nil
}

func (m *memTokens) ByHash(_ context.Context, hash string) (*RefreshToken, error) {
	for _, t := range m.tokens {
		if t.TokenHash == hash {
			cp := *t
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("find refresh token: %w", core.ErrNotFound)
}

func (m *memTokens) ByID(_ context.Context, id string) (*RefreshToken, error) {
	t, ok := m.tokens[id]
	if !ok {
		return nil, fmt.Errorf("find refresh token: %w", core.ErrNotFound)
	}
	cp := *t
	return &cp, nil
}

func (m *memTokens) Rotate(ctx context.Context, prevID string, next *RefreshToken) error {
	prev, ok := m.tokens[prevID]
	if !ok || prev.IsUsed || prev.RevokedAt != nil {
		return ErrTokenReuse
	}
	prev.IsUsed = true
	prev.ReplacedByID = &next.ID
	return m.Insert(ctx, next)
}

func (m *memTokens) revoke(match func(*RefreshToken) bool) int {
	now := time.Now()
	n := 0
	for _, t := range m.tokens {
		if t.RevokedAt == nil && match(t) {
			t.RevokedAt = &now
			n++
		}
	}
	return n
}

func (m *memTokens) RevokeOne(_ context.Context, id string) error {
	if m.revoke(func(t *RefreshToken) bool { return t.ID == id }) == 0 {
		return fmt.Errorf("revoke refresh token: %w", core.ErrNotFound)
	}
	return nil
}

func (m *memTokens) RevokeFamily(_ context.Context, familyID string) error {
	m.revoke(func(t *RefreshToken) bool { return t.FamilyID == familyID })
	return nil
}

func (m *memTokens) RevokeUser(_ context.Context, userID int64) error {
	m.revoke(func(t *RefreshToken) bool { return t.UserID == userID })
	return nil
}

func (m *memTokens) Active(_ context.Context, userID int64) ([]RefreshToken, error) {
	var out []RefreshToken
	for _, t := range m.tokens {
		if t.UserID == userID && t.usable(time.Now()) == nil {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (m *memTokens) Prune(_ context.Context, before time.Time) (int64, error) {
	var n int64
	for id, t := range m.tokens {
		if t.ExpiresAt.Before(before) {
			delete(m.tokens, id)
			n++
		}
	}
	return n, nil
}

type memUsers struct {
	byEmail map[string]*UserInfo
	nextID  int64
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*UserInfo, error) {
	u, ok := m.byEmail[email]
	if !ok {
		return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
	}
	return u, nil
}

func (m *memUsers) GetByID(_ context.Context, id int64) (*UserInfo, error) {
	for _, u := range m.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
}

func (m *memUsers) Create(
	_ context.Context,
	email, passwordHash, name, requestedRole string,
) (*UserInfo, error) {
	if _, ok := m.byEmail[email]; ok {
		return nil, fmt.Errorf("create user: %w", core.ErrDuplicateKey)
	}
	role, ok := core.ParseRole(requestedRole)
	if !ok {
		role = core.RoleUser
	}
	m.nextID++
	u := &UserInfo{ID: m.nextID, Email: email, Name: name, PasswordHash: passwordHash, Role: role}
	m.byEmail[email] = u
	return u, nil
}

func (m *memUsers) UpdatePassword(_ context.Context, userID int64, hash string) error {
	for _, u := range m.byEmail {
		if u.ID == userID {
			u.PasswordHash = hash
		}
	}
	return nil
}

func newTestService(t *testing.T) (*Service, *memTokens) {
	t.Helper()
	tokens := &memTokens{tokens: map[string]*RefreshToken{}}
	users := &memUsers{byEmail: map[string]*UserInfo{}}
	return NewService(tokens, newTestJWTManager(t, "recipe-shop-api"), users, nil), tokens
}

func TestRegisterAndLogin(t *testing.T) {
	svc, tokens := newTestService(t)
	ctx := context.Background()

	reg, err := svc.Register(ctx, RegisterRequest{
		Email:    "chef@example.com",
		Password: "correct horse",
		Name:     "Chef",
		Role:     "admin",
	}, testClient)
	require.NoError(t, err)
	assert.Equal(t, core.RoleAdmin, reg.User.Role)
	assert.Equal(t, "Bearer", reg.Tokens.TokenType)
	assert.Equal(t, 900, reg.Tokens.ExpiresIn)
	assert.Len(t, tokens.tokens, 1)

	claims, err := svc.jwt.VerifyAccessToken(reg.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, claims.UserID)
	assert.Equal(t, core.RoleAdmin, claims.Role)

	login, err := svc.Login(ctx, LoginRequest{
		Email:    "chef@example.com",
		Password: "correct horse",
	}, testClient)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, login.User.ID)
	assert.Len(t, tokens.tokens, 2)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	req := RegisterRequest{Email: "a@example.com", Password: "password1", Name: "A"}

	_, err := svc.Register(ctx, req, Client{})
	require.NoError(t, err)

	_, err = svc.Register(ctx, req, Client{})
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestLoginInvalidCredentials(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{
		Email: "a@example.com", Password: "password1", Name: "A",
	}, Client{})
	require.NoError(t, err)

	_, err = svc.Login(ctx, LoginRequest{Email: "a@example.com", Password: "wrong-password"}, Client{})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, LoginRequest{Email: "nobody@example.com", Password: "password1"}, Client{})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func registerChef(t *testing.T, svc *Service) *AuthResponse {
	t.Helper()
	resp, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "chef@example.com",
		Password: "correct horse",
		Name:     "Chef",
	}, testClient)
	require.NoError(t, err)
	return resp
}

func TestRefreshRotatesWithinFamily(t *testing.T) {
	svc, tokens := newTestService(t)
	ctx := context.Background()
	first := registerChef(t, svc)

	second, err := svc.Refresh(ctx, first.Tokens.RefreshToken, testClient)
	require.NoError(t, err)
	assert.NotEqual(t, first.Tokens.RefreshToken, second.Tokens.RefreshToken)

	old, err := tokens.ByHash(ctx, core.HashToken(first.Tokens.RefreshToken))
	require.NoError(t, err)
	next, err := tokens.ByHash(ctx, core.HashToken(second.Tokens.RefreshToken))
	require.NoError(t, err)

	assert.True(t, old.IsUsed)
	require.NotNil(t, old.ReplacedByID)
	assert.Equal(t, next.ID, *old.ReplacedByID)
	assert.Equal(t, old.FamilyID, next.FamilyID)
	assert.Equal(t, "192.0.2.1", next.IPAddress)
}

func TestRefreshReplayRevokesFamily(t *testing.T) {
	svc, tokens := newTestService(t)
	ctx := context.Background()
	first := registerChef(t, svc)

	second, err := svc.Refresh(ctx, first.Tokens.RefreshToken, testClient)
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, first.Tokens.RefreshToken, testClient)
	assert.ErrorIs(t, err, ErrTokenReuse)

	_, err = svc.Refresh(ctx, second.Tokens.RefreshToken, testClient)
	assert.ErrorIs(t, err, core.ErrTokenRevoked)

	for _, tok := range tokens.tokens {
		assert.NotNil(t, tok.RevokedAt)
	}
}

func TestRefreshRejects(t *testing.T) {
	svc, tokens := newTestService(t)
	ctx := context.Background()

	_, err := svc.Refresh(ctx, "unknown", testClient)
	assert.ErrorIs(t, err, core.ErrTokenInvalid)

	first := registerChef(t, svc)
	for _, tok := range tokens.tokens {
		tok.ExpiresAt = time.Now().Add(-time.Minute)
	}

	_, err = svc.Refresh(ctx, first.Tokens.RefreshToken, testClient)
	assert.ErrorIs(t, err, core.ErrTokenExpired)
}

func TestSessionsAndRevoke(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	reg := registerChef(t, svc)

	_, err := svc.Login(ctx, LoginRequest{Email: "chef@example.com", Password: "correct horse"}, Client{})
	require.NoError(t, err)

	sessions, err := svc.GetActiveSessions(ctx, reg.User.ID)
	require.NoError(t, err)
	require.Len(t, sessions, 2)

	err = svc.RevokeSession(ctx, reg.User.ID+1, sessions[0].ID)
	assert.ErrorIs(t, err, core.ErrForbidden)

	require.NoError(t, svc.RevokeSession(ctx, reg.User.ID, sessions[0].ID))

	sessions, err = svc.GetActiveSessions(ctx, reg.User.ID)
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
}

func TestLogoutIgnoresUnknownToken(t *testing.T) {
	svc, tokens := newTestService(t)
	ctx := context.Background()
	reg := registerChef(t, svc)

	require.NoError(t, svc.Logout(ctx, "", nil))
	require.NoError(t, svc.Logout(ctx, "not-a-token", nil))

	require.NoError(t, svc.Logout(ctx, reg.Tokens.RefreshToken, nil))
	for _, tok := range tokens.tokens {
		assert.NotNil(t, tok.RevokedAt)
	}
}

func TestChangePasswordEndsSessions(t *testing.T) {
	svc, tokens := newTestService(t)
	ctx := context.Background()
	reg := registerChef(t, svc)

	err := svc.ChangePassword(ctx, reg.User.ID, "wrong", "new password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, svc.ChangePassword(ctx, reg.User.ID, "correct horse", "new password"))
	for _, tok := range tokens.tokens {
		assert.NotNil(t, tok.RevokedAt)
	}

	_, err = svc.Login(ctx, LoginRequest{Email: "chef@example.com", Password: "new password"}, Client{})
	assert.NoError(t, err)
}

func TestPruneExpiredTokens(t *testing.T) {
	svc, tokens := newTestService(t)
	registerChef(t, svc)
	for _, tok := range tokens.tokens {
		tok.ExpiresAt = time.Now().Add(-48 * time.Hour)
	}

	n, err := svc.PruneExpiredTokens(context.Background(), 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Empty(t, tokens.tokens)
}
