// AngelaMos | 2026
// repository.go

package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/recipe-shop/internal/core"
)

type Repository interface {
	Insert(ctx context.Context, token *RefreshToken) error
	ByHash(ctx context.Context, tokenHash string) (*RefreshToken, error)
	ByID(ctx context.Context, id string) (*RefreshToken, error)
	Rotate(ctx context.Context, prevID string, next *RefreshToken) error
	RevokeOne(ctx context.Context, id string) error
	RevokeFamily(ctx context.Context, familyID string) error
	RevokeUser(ctx context.Context, userID int64) error
	Active(ctx context.Context, userID int64) ([]RefreshToken, error)
	Prune(ctx context.Context, expiredBefore time.Time) (int64, error)
}

const tokenColumns = `
	id, user_id, token_hash, family_id, expires_at, created_at,
	is_used, used_at, revoked_at, replaced_by_id, user_agent, ip_address`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func insertToken(ctx context.Context, db core.DBTX, token *RefreshToken) error {
	const query = `
		INSERT INTO refresh_tokens
			(id, user_id, token_hash, family_id, expires_at, user_agent, ip_address)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`

	err := db.GetContext(ctx, &token.CreatedAt, query,
		token.ID, token.UserID, token.TokenHash, token.FamilyID,
		token.ExpiresAt, token.UserAgent, token.IPAddress,
	)
	if err != nil {
		return fmt.Errorf("insert refresh token: %w", core.ClassifyError(err))
	}
	return nil
}

func (r *repository) Insert(ctx context.Context, token *RefreshToken) error {
	return insertToken(ctx, r.db, token)
}

func (r *repository) one(ctx context.Context, where string, arg any) (*RefreshToken, error) {
	var token RefreshToken
	err := r.db.GetContext(ctx, &token,
		`SELECT `+tokenColumns+` FROM refresh_tokens WHERE `+where, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("find refresh token: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find refresh token: %w", err)
	}
	return &token, nil
}

func (r *repository) ByHash(ctx context.Context, tokenHash string) (*RefreshToken, error) {
	return r.one(ctx, "token_hash = $1", tokenHash)
}

func (r *repository) ByID(ctx context.Context, id string) (*RefreshToken, error) {
	return r.one(ctx, "id = $1", id)
}

// Rotate retires prevID and stores next in one transaction. When prevID
// was already retired by a concurrent refresh nothing is written and
// ErrTokenReuse is returned.
func (r *repository) Rotate(ctx context.Context, prevID string, next *RefreshToken) error {
	return core.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE refresh_tokens
			SET is_used = true, used_at = NOW(), replaced_by_id = $2
			WHERE id = $1 AND is_used = false AND revoked_at IS NULL`,
			prevID, next.ID,
		)
		if err != nil {
			return fmt.Errorf("retire refresh token: %w", err)
		}

		if n, err := res.RowsAffected(); err != nil {
			return fmt.Errorf("retire refresh token: %w", err)
		} else if n == 0 {
			return ErrTokenReuse
		}

		return insertToken(ctx, tx, next)
	})
}

func (r *repository) revokeWhere(ctx context.Context, where string, arg any) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked_at = NOW()
		 WHERE revoked_at IS NULL AND `+where, arg)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *repository) RevokeOne(ctx context.Context, id string) error {
	n, err := r.revokeWhere(ctx, "id = $1", id)
	if err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("revoke refresh token: %w", core.ErrNotFound)
	}
	return nil
}

func (r *repository) RevokeFamily(ctx context.Context, familyID string) error {
	if _, err := r.revokeWhere(ctx, "family_id = $1", familyID); err != nil {
		return fmt.Errorf("revoke token family: %w", err)
	}
	return nil
}

func (r *repository) RevokeUser(ctx context.Context, userID int64) error {
	if _, err := r.revokeWhere(ctx, "user_id = $1", userID); err != nil {
		return fmt.Errorf("revoke user tokens: %w", err)
	}
	return nil
}

// Active lists the tokens a user could still refresh with, newest first.
func (r *repository) Active(ctx context.Context, userID int64) ([]RefreshToken, error) {
	var tokens []RefreshToken
	err := r.db.SelectContext(ctx, &tokens, `
		SELECT `+tokenColumns+`
		FROM refresh_tokens
		WHERE user_id = $1
		  AND NOT is_used
		  AND revoked_at IS NULL
		  AND expires_at > NOW()
		ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list active sessions: %w", err)
	}
	return tokens, nil
}

// Prune deletes tokens that expired before the cutoff. Used and revoked
// rows survive until then so a replay is still recognised.
func (r *repository) Prune(ctx context.Context, expiredBefore time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM refresh_tokens WHERE expires_at < $1`, expiredBefore)
	if err != nil {
		return 0, fmt.Errorf("prune refresh tokens: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune refresh tokens: %w", err)
	}
	return n, nil
}
