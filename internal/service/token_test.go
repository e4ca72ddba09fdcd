package service

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"testing"
	"time"

	"github.com/eatmeetclub/api/internal/model"
	"github.com/eatmeetclub/api/pkg/jwt"
)

// ============================================================================
// Mock Repositories
// ============================================================================

type mockTokenRepo struct {
	createRefreshTokenFunc    func(ctx context.Context, token *RefreshToken) error
	getRefreshTokenByHashFunc func(ctx context.Context, hash string) (*RefreshToken, error)
	revokeRefreshTokenFunc    func(ctx context.Context, hash string) (bool, error)
	revokeAllUserTokensFunc   func(ctx context.Context, userID string) error
	deleteExpiredTokensFunc   func(ctx context.Context) error
}

func (m *mockTokenRepo) CreateRefreshToken(ctx context.Context, token *RefreshToken) error {
	if m.createRefreshTokenFunc != nil {
		return m.createRefreshTokenFunc(ctx, token)
	}
	return nil
}

func (m *mockTokenRepo) GetRefreshTokenByHash(ctx context.Context, hash string) (*RefreshToken, error) {
	if m.getRefreshTokenByHashFunc != nil {
		return m.getRefreshTokenByHashFunc(ctx, hash)
	}
	return nil, nil
}

func (m *mockTokenRepo) RevokeRefreshToken(ctx context.Context, hash string) (bool, error) {
	if m.revokeRefreshTokenFunc != nil {
		return m.revokeRefreshTokenFunc(ctx, hash)
	}
	return true, nil
}

func (m *mockTokenRepo) RevokeAllUserTokens(ctx context.Context, userID string) error {
	if m.revokeAllUserTokensFunc != nil {
		return m.revokeAllUserTokensFunc(ctx, userID)
	}
	return nil
}

func (m *mockTokenRepo) DeleteExpiredTokens(ctx context.Context) error {
	if m.deleteExpiredTokensFunc != nil {
		return m.deleteExpiredTokensFunc(ctx)
	}
	return nil
}

// ============================================================================
// Helper Functions
// ============================================================================

func createTestJWTService(t *testing.T) *jwt.Service {
	t.Helper()
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate RSA key: %v", err)
	}
	return jwt.NewTestService(privateKey, "test-issuer", time.Hour)
}

// ============================================================================
// hashToken Tests
// ============================================================================

func TestHashToken_Deterministic(t *testing.T) {
	t.Parallel()

	if hashToken("abc") != hashToken("abc") {
		t.Error("expected identical hashes for identical input")
	}
}

func TestHashToken_DifferentInputsDifferentHashes(t *testing.T) {
	t.Parallel()

	if hashToken("abc") == hashToken("abd") {
		t.Error("expected different hashes for different input")
	}
}

func TestHashToken_CorrectLength(t *testing.T) {
	t.Parallel()

	// SHA-256 hex
	if got := len(hashToken("anything")); got != 64 {
		t.Errorf("expected 64 hex chars, got %d", got)
	}
}

// ============================================================================
// NewTokenService Tests
// ============================================================================

func TestNewTokenService_DefaultDuration(t *testing.T) {
	t.Parallel()

	svc := NewTokenService(TokenServiceConfig{})
	if svc.refreshDuration != 30*24*time.Hour {
		t.Errorf("expected 30 day default, got %v", svc.refreshDuration)
	}
}

// ============================================================================
// GenerateTokenPair Tests
// ============================================================================

func TestGenerateTokenPair_Success(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	jwtSvc := createTestJWTService(t)
	svc := NewTokenService(TokenServiceConfig{
		JWTService: jwtSvc,
		TokenRepo:  &mockTokenRepo{},
	})

	user := &model.User{ID: "user:123", Email: "test@example.com", Role: model.UserRoleRestaurant}
	pair, err := svc.GenerateTokenPair(ctx, user)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("expected both tokens")
	}
	if pair.TokenType != "Bearer" {
		t.Errorf("expected token type 'Bearer', got %q", pair.TokenType)
	}

	claims, err := svc.ValidateAccessToken(pair.AccessToken)
	if err != nil {
		t.Fatalf("access token did not validate: %v", err)
	}
	if claims.UserID != "user:123" || claims.Role != "restaurant" {
		t.Errorf("unexpected claims: %+v", claims)
	}
}

func TestGenerateTokenPair_StoresHashedToken(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	var storedToken *RefreshToken
	svc := NewTokenService(TokenServiceConfig{
		JWTService: createTestJWTService(t),
		TokenRepo: &mockTokenRepo{
			createRefreshTokenFunc: func(ctx context.Context, token *RefreshToken) error {
				storedToken = token
				return nil
			},
		},
		RefreshDuration: 7 * 24 * time.Hour,
	})

	pair, err := svc.GenerateTokenPair(ctx, &model.User{ID: "user:123", Email: "test@example.com"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if storedToken.TokenHash != hashToken(pair.RefreshToken) {
		t.Error("stored hash should match hashed refresh token")
	}
	if storedToken.TokenHash == pair.RefreshToken {
		t.Error("raw refresh token must not be stored")
	}

	diff := storedToken.ExpiresAt.Sub(time.Now().Add(7 * 24 * time.Hour))
	if diff > time.Second || diff < -time.Second {
		t.Error("expiry time not set correctly")
	}
}

func TestGenerateTokenPair_RepoError(t *testing.T) {
	t.Parallel()

	svc := NewTokenService(TokenServiceConfig{
		JWTService: createTestJWTService(t),
		TokenRepo: &mockTokenRepo{
			createRefreshTokenFunc: func(ctx context.Context, token *RefreshToken) error {
				return errors.New("database error")
			},
		},
	})

	_, err := svc.GenerateTokenPair(context.Background(), &model.User{ID: "user:123"})
	if err == nil || err.Error() != "database error" {
		t.Errorf("expected database error, got %v", err)
	}
}

// ============================================================================
// ConsumeRefreshToken Tests
// ============================================================================

func TestConsumeRefreshToken_Success(t *testing.T) {
	t.Parallel()

	refreshToken := "valid-refresh-token"
	revoked := ""
	svc := NewTokenService(TokenServiceConfig{
		JWTService: createTestJWTService(t),
		TokenRepo: &mockTokenRepo{
			getRefreshTokenByHashFunc: func(ctx context.Context, hash string) (*RefreshToken, error) {
				return &RefreshToken{UserID: "user:123", TokenHash: hash, ExpiresAt: time.Now().Add(time.Hour)}, nil
			},
			revokeRefreshTokenFunc: func(ctx context.Context, hash string) (bool, error) {
				revoked = hash
				return true, nil
			},
		},
	})

	userID, err := svc.ConsumeRefreshToken(context.Background(), refreshToken)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if userID != "user:123" {
		t.Errorf("expected user:123, got %s", userID)
	}
	if revoked != hashToken(refreshToken) {
		t.Error("expected the consumed token to be revoked")
	}
}

func TestConsumeRefreshToken_UnknownToken_ReturnsError(t *testing.T) {
	t.Parallel()

	svc := NewTokenService(TokenServiceConfig{
		JWTService: createTestJWTService(t),
		TokenRepo:  &mockTokenRepo{},
	})

	_, err := svc.ConsumeRefreshToken(context.Background(), "nope")
	if !errors.Is(err, ErrInvalidRefreshToken) {
		t.Errorf("expected ErrInvalidRefreshToken, got %v", err)
	}
}

func TestConsumeRefreshToken_RevokedToken_RevokesAll(t *testing.T) {
	t.Parallel()

	revokedAllFor := ""
	svc := NewTokenService(TokenServiceConfig{
		JWTService: createTestJWTService(t),
		TokenRepo: &mockTokenRepo{
			getRefreshTokenByHashFunc: func(ctx context.Context, hash string) (*RefreshToken, error) {
				return &RefreshToken{UserID: "user:123", Revoked: true, ExpiresAt: time.Now().Add(time.Hour)}, nil
			},
			revokeAllUserTokensFunc: func(ctx context.Context, userID string) error {
				revokedAllFor = userID
				return nil
			},
		},
	})

	_, err := svc.ConsumeRefreshToken(context.Background(), "reused")
	if !errors.Is(err, ErrRefreshTokenRevoked) {
		t.Errorf("expected ErrRefreshTokenRevoked, got %v", err)
	}
	if revokedAllFor != "user:123" {
		t.Error("expected every token of the user to be revoked")
	}
}

func TestConsumeRefreshToken_ExpiredToken_ReturnsError(t *testing.T) {
	t.Parallel()

	svc := NewTokenService(TokenServiceConfig{
		JWTService: createTestJWTService(t),
		TokenRepo: &mockTokenRepo{
			getRefreshTokenByHashFunc: func(ctx context.Context, hash string) (*RefreshToken, error) {
				return &RefreshToken{UserID: "user:123", ExpiresAt: time.Now().Add(-time.Minute)}, nil
			},
		},
	})

	_, err := svc.ConsumeRefreshToken(context.Background(), "old")
	if !errors.Is(err, ErrRefreshTokenExpired) {
		t.Errorf("expected ErrRefreshTokenExpired, got %v", err)
	}
}

func TestConsumeRefreshToken_LostRace_RevokesAll(t *testing.T) {
	t.Parallel()

	revokedAll := false
	svc := NewTokenService(TokenServiceConfig{
		JWTService: createTestJWTService(t),
		TokenRepo: &mockTokenRepo{
			getRefreshTokenByHashFunc: func(ctx context.Context, hash string) (*RefreshToken, error) {
				return &RefreshToken{UserID: "user:123", ExpiresAt: time.Now().Add(time.Hour)}, nil
			},
			revokeRefreshTokenFunc: func(ctx context.Context, hash string) (bool, error) {
				return false, nil
			},
			revokeAllUserTokensFunc: func(ctx context.Context, userID string) error {
				revokedAll = true
				return nil
			},
		},
	})

	_, err := svc.ConsumeRefreshToken(context.Background(), "raced")
	if !errors.Is(err, ErrRefreshTokenRevoked) {
		t.Errorf("expected ErrRefreshTokenRevoked, got %v", err)
	}
	if !revokedAll {
		t.Error("expected every token of the user to be revoked")
	}
}

// ============================================================================
// ValidateAccessToken Tests
// ============================================================================

func TestValidateAccessToken_InvalidToken(t *testing.T) {
	t.Parallel()

	svc := NewTokenService(TokenServiceConfig{JWTService: createTestJWTService(t)})
	if _, err := svc.ValidateAccessToken("not.a.jwt"); err == nil {
		t.Error("expected an error for a malformed token")
	}
}

// ============================================================================
// generateRefreshToken Tests
// ============================================================================

func TestGenerateRefreshToken_UniqueTokens(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		tok, err := generateRefreshToken()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if seen[tok] {
			t.Fatal("generated a duplicate token")
		}
		seen[tok] = true
	}
}

func TestGenerateRefreshToken_CorrectLength(t *testing.T) {
	t.Parallel()

	tok, err := generateRefreshToken()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tok) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(tok))
	}
}
