package jwt

import (
	"crypto/rand"
	"crypto/rsa"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Test Helpers
// ============================================================================

func newTestKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewTestService(newTestKey(t), "test-issuer", 15*time.Minute)
}

// ============================================================================
// Claims Tests
// ============================================================================

func TestClaims_HasRole_AdminHoldsEveryRole(t *testing.T) {
	t.Parallel()

	admin := &Claims{Role: "admin"}
	owner := &Claims{Role: "restaurant"}

	assert.True(t, admin.IsAdmin())
	assert.True(t, admin.HasRole("restaurant"))
	assert.True(t, owner.HasRole("restaurant"))
	assert.False(t, owner.HasRole("admin"))
}

// ============================================================================
// Sign / Validate Tests
// ============================================================================

func TestSignAndValidate_RoundTrip(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)

	token, err := svc.Sign(Claims{UserID: "user:abc", Email: "ada@example.com", Role: "member"})
	require.NoError(t, err)
	assert.Len(t, strings.Split(token, "."), 3)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "user:abc", claims.UserID)
	assert.Equal(t, "user:abc", claims.Subject)
	assert.Equal(t, "ada@example.com", claims.Email)
	assert.Equal(t, "member", claims.Role)
	assert.Equal(t, "test-issuer", claims.Issuer)
	assert.NotEmpty(t, claims.ID)
}

func TestSign_SetsDefaultExpiration(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)

	token, err := svc.Sign(Claims{UserID: "user:1"})
	require.NoError(t, err)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), claims.ExpiresAt.Time, 5*time.Second)
}

func TestSign_PreservesCustomExpiration(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)

	exp := time.Now().Add(24 * time.Hour).Truncate(time.Second)
	claims := Claims{UserID: "user:1"}
	claims.ExpiresAt = gojwt.NewNumericDate(exp)

	token, err := svc.Sign(claims)
	require.NoError(t, err)

	parsed, err := svc.Validate(token)
	require.NoError(t, err)
	assert.True(t, parsed.ExpiresAt.Time.Equal(exp))
}

func TestSign_NoPrivateKey_ReturnsErrInvalidKey(t *testing.T) {
	t.Parallel()

	svc := &Service{issuer: "test-issuer"}
	_, err := svc.Sign(Claims{UserID: "user:1"})
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestValidate_NoPublicKey_ReturnsErrInvalidKey(t *testing.T) {
	t.Parallel()

	svc := &Service{issuer: "test-issuer"}
	_, err := svc.Validate("a.b.c")
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestValidate_Malformed_ReturnsErrInvalidToken(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)

	for _, token := range []string{"", "abc", "a.b", "a.b.c.d"} {
		_, err := svc.Validate(token)
		assert.ErrorIs(t, err, ErrInvalidToken, "token %q", token)
	}
}

func TestValidate_Expired_ReturnsErrTokenExpired(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)

	claims := Claims{UserID: "user:1"}
	claims.ExpiresAt = gojwt.NewNumericDate(time.Now().Add(-time.Hour))
	token, err := svc.Sign(claims)
	require.NoError(t, err)

	_, err = svc.Validate(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestValidate_DifferentKey_ReturnsErrInvalidSignature(t *testing.T) {
	t.Parallel()

	signer := newTestService(t)
	verifier := newTestService(t)

	token, err := signer.Sign(Claims{UserID: "user:1"})
	require.NoError(t, err)

	_, err = verifier.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestValidate_WrongIssuer_ReturnsErrInvalidToken(t *testing.T) {
	t.Parallel()

	key := newTestKey(t)
	signer := NewTestService(key, "someone-else", time.Minute)
	verifier := NewTestService(key, "test-issuer", time.Minute)

	token, err := signer.Sign(Claims{UserID: "user:1"})
	require.NoError(t, err)

	_, err = verifier.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidate_HS256Token_Rejected(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)

	claims := Claims{UserID: "user:1", Role: "admin"}
	claims.Issuer = "test-issuer"
	claims.ExpiresAt = gojwt.NewNumericDate(time.Now().Add(time.Hour))
	forged, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString([]byte("guess"))
	require.NoError(t, err)

	_, err = svc.Validate(forged)
	assert.Error(t, err)
}

func TestValidate_TamperedPayload_Rejected(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)

	token, err := svc.Sign(Claims{UserID: "user:1", Role: "member"})
	require.NoError(t, err)

	other, err := svc.Sign(Claims{UserID: "user:2", Role: "admin"})
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	otherParts := strings.Split(other, ".")
	spliced := parts[0] + "." + otherParts[1] + "." + parts[2]

	_, err = svc.Validate(spliced)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

// ============================================================================
// Key Loading Tests
// ============================================================================

func TestGenerateKeyPair_LoadsBack(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	priv := filepath.Join(dir, "private.pem")
	pub := filepath.Join(dir, "public.pem")
	require.NoError(t, GenerateKeyPair(priv, pub))

	signer, err := NewService(Config{PrivateKeyPath: priv, Issuer: "iss", ExpirationMins: 5})
	require.NoError(t, err)
	verifier, err := NewService(Config{PublicKeyPath: pub, Issuer: "iss"})
	require.NoError(t, err)

	token, err := signer.Sign(Claims{UserID: "user:1"})
	require.NoError(t, err)
	_, err = verifier.Validate(token)
	assert.NoError(t, err)

	_, err = verifier.Sign(Claims{UserID: "user:1"})
	assert.ErrorIs(t, err, ErrInvalidKey)
	assert.Equal(t, 5*time.Minute, signer.GetExpiration())
}

func TestNewService_MissingFile_ReturnsError(t *testing.T) {
	t.Parallel()

	_, err := NewService(Config{PrivateKeyPath: filepath.Join(t.TempDir(), "nope.pem")})
	assert.Error(t, err)
}

func TestNewService_InvalidPEM_ReturnsError(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bad.pem")
	require.NoError(t, os.WriteFile(path, []byte("not a key"), 0600))

	_, err := NewService(Config{PublicKeyPath: path})
	assert.Error(t, err)
}

func TestNewService_NoKeys_ReturnsService(t *testing.T) {
	t.Parallel()

	svc, err := NewService(Config{Issuer: "iss", ExpirationMins: 15})
	require.NoError(t, err)
	_, err = svc.Sign(Claims{})
	assert.ErrorIs(t, err, ErrInvalidKey)
}
