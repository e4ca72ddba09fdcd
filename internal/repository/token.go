package repository

import (
	"context"
	"errors"
	"time"

	"github.com/eatmeetclub/api/internal/database"
	"github.com/eatmeetclub/api/internal/service"
)

// TokenRepository handles refresh token data access
type TokenRepository struct {
	db database.Database
}

// NewTokenRepository creates a new token repository
func NewTokenRepository(db database.Database) *TokenRepository {
	return &TokenRepository{db: db}
}

// CreateRefreshToken stores a new refresh token
func (r *TokenRepository) CreateRefreshToken(ctx context.Context, token *service.RefreshToken) error {
	query := `
		CREATE refresh_token CONTENT {
			user_id: $user_id,
			token_hash: $token_hash,
			expires_at: <datetime>$expires_at,
			created_on: time::now(),
			revoked: false
		}
	`
	vars := map[string]interface{}{
		"user_id":    token.UserID,
		"token_hash": token.TokenHash,
		"expires_at": datetime(token.ExpiresAt),
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return err
	}

	created, err := extractCreatedRecord(result)
	if err != nil {
		return err
	}

	token.ID = created.ID
	token.CreatedOn = created.CreatedOn
	return nil
}

// GetRefreshTokenByHash retrieves a refresh token by its hash
func (r *TokenRepository) GetRefreshTokenByHash(ctx context.Context, hash string) (*service.RefreshToken, error) {
	query := `SELECT * FROM refresh_token WHERE token_hash = $hash LIMIT 1`
	vars := map[string]interface{}{"hash": hash}

	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	token, err := decodeRecord[service.RefreshToken](result)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return token, nil
}

// RevokeRefreshToken marks a refresh token as revoked. It reports false when
// the token was already revoked, so two concurrent refreshes cannot both win.
func (r *TokenRepository) RevokeRefreshToken(ctx context.Context, hash string) (bool, error) {
	query := `UPDATE refresh_token SET revoked = true WHERE token_hash = $hash AND revoked = false RETURN AFTER`
	vars := map[string]interface{}{"hash": hash}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return false, err
	}
	return len(statementRows(result, 0)) > 0, nil
}

// RevokeAllUserTokens revokes all refresh tokens for a user
func (r *TokenRepository) RevokeAllUserTokens(ctx context.Context, userID string) error {
	query := `UPDATE refresh_token SET revoked = true WHERE user_id = $user_id AND revoked = false`
	vars := map[string]interface{}{"user_id": userID}

	return r.db.Execute(ctx, query, vars)
}

// DeleteExpiredTokens removes expired tokens and tokens revoked more than a week ago
func (r *TokenRepository) DeleteExpiredTokens(ctx context.Context) error {
	cutoff := datetime(time.Now().Add(-7 * 24 * time.Hour))
	query := `
		DELETE refresh_token WHERE expires_at < time::now();
		DELETE refresh_token WHERE revoked = true AND created_on < <datetime>$cutoff;
	`
	vars := map[string]interface{}{"cutoff": cutoff}

	return r.db.Execute(ctx, query, vars)
}
