package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reflectus-app/backend/internal/models"
)

func testClaims() Claims {
	c := Claims{
		Email: "teacher@school.example",
		Role:  models.RoleStaff,
	}
	c.Subject = uuid.New().String()
	return c
}

func TestSignVerifyRoundtrip(t *testing.T) {
	svc := NewTokenService("test-secret", 7)

	token, err := svc.Sign(testClaims(), 0)
	require.NoError(t, err)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "teacher@school.example", claims.Email)
	assert.Equal(t, models.RoleStaff, claims.Role)

	_, ok := claims.UserID()
	assert.True(t, ok)
}

func TestVerifyRejectsTamperedToken(t *testing.T) {
	svc := NewTokenService("test-secret", 7)
	token, err := svc.Sign(testClaims(), 0)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	_, err = svc.Verify(tampered)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	signer := NewTokenService("secret-a", 7)
	verifier := NewTokenService("secret-b", 7)

	token, err := signer.Sign(testClaims(), 0)
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	svc := NewTokenService("test-secret", 7)
	token, err := svc.Sign(testClaims(), time.Millisecond)
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)

	_, err = svc.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	svc := NewTokenService("test-secret", 7)
	for _, raw := range []string{"", "garbage", "a.b.c"} {
		_, err := svc.Verify(raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	}
}

func TestOptionalClaimsStayAbsent(t *testing.T) {
	svc := NewTokenService("test-secret", 7)
	token, err := svc.Sign(testClaims(), 0)
	require.NoError(t, err)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Empty(t, claims.OrgID)
	assert.Empty(t, claims.OrgRole)
	assert.Empty(t, claims.WorkspaceID)
	assert.Empty(t, claims.WorkspaceRole)
}

func TestDefaultTTLIsSevenDays(t *testing.T) {
	svc := NewTokenService("test-secret", 0)
	assert.Equal(t, DefaultTTL, svc.TTL())
}

func TestIsAdminEmail(t *testing.T) {
	allow := []string{"head@school.example", " Admin@School.example "}
	assert.True(t, IsAdminEmail(allow, "head@school.example"))
	assert.True(t, IsAdminEmail(allow, "admin@school.example"))
	assert.False(t, IsAdminEmail(allow, "student@school.example"))
	assert.False(t, IsAdminEmail(nil, "head@school.example"))
}
