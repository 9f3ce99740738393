package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/churn-prediction-api/internal/utils"
)

const testSecret = "middleware-test-secret"

func runAuth(t *testing.T, authHeader string) (*httptest.ResponseRecorder, bool, uint64) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	reached := false
	var gotID uint64
	next := func(c echo.Context) error {
		reached = true
		gotID, _ = c.Get("account_id").(uint64)
		return c.NoContent(http.StatusOK)
	}
	require.NoError(t, Auth(testSecret)(next)(c))
	return rec, reached, gotID
}

func TestAuthValidToken(t *testing.T) {
	tok, err := utils.NewIdentityToken(testSecret, 42)
	require.NoError(t, err)

	rec, reached, gotID := runAuth(t, "Bearer "+tok.Token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, reached)
	assert.Equal(t, uint64(42), gotID)
}

func TestAuthMissingHeader(t *testing.T) {
	rec, reached, _ := runAuth(t, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, reached)
}

func TestAuthGarbageToken(t *testing.T) {
	rec, reached, _ := runAuth(t, "Bearer not-a-token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, reached)
}

func TestAuthWrongSecret(t *testing.T) {
	tok, err := utils.NewIdentityToken("some-other-secret", 42)
	require.NoError(t, err)

	rec, reached, _ := runAuth(t, "Bearer "+tok.Token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, reached)
}

func TestAuthRejectionBodiesAreIndistinguishable(t *testing.T) {
	// Missing header, garbage token, wrong secret and expired token
	// must all produce the same body; the response may not reveal why
	// verification failed.
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": uint64(42),
		"exp": time.Now().UTC().Add(-time.Minute).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	wrongSecret, err := utils.NewIdentityToken("some-other-secret", 42)
	require.NoError(t, err)

	headers := []string{
		"",
		"Bearer not-a-token",
		"Bearer " + wrongSecret.Token,
		"Bearer " + expired,
	}
	var bodies []string
	for _, h := range headers {
		rec, reached, _ := runAuth(t, h)
		require.Equal(t, http.StatusUnauthorized, rec.Code, "header=%q", h)
		require.False(t, reached, "header=%q", h)
		bodies = append(bodies, rec.Body.String())
	}
	for i := 1; i < len(bodies); i++ {
		assert.JSONEq(t, bodies[0], bodies[i])
	}
}

func TestAuthExpiredToken(t *testing.T) {
	// Valid signature, past expiry: the handler must not run.
	claims := jwt.MapClaims{
		"sub": uint64(42),
		"exp": time.Now().UTC().Add(-time.Minute).Unix(),
		"iat": time.Now().UTC().Add(-time.Hour).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	rec, reached, _ := runAuth(t, "Bearer "+signed)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, reached)
}
