package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = []byte("test-secret")

func serve(t *testing.T, auth string) (*httptest.ResponseRecorder, *Claims) {
	t.Helper()
	e := echo.New()
	var seen *Claims
	e.GET("/", func(c echo.Context) error {
		seen, _ = ClaimsFrom(c)
		return c.NoContent(http.StatusNoContent)
	}, Identity(testKey))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if auth != "" {
		req.Header.Set(echo.HeaderAuthorization, auth)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec, seen
}

func TestIdentityAnonymous(t *testing.T) {
	rec, claims := serve(t, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Nil(t, claims)
}

func TestIdentityValidToken(t *testing.T) {
	tok, err := Issue(testKey, 42, "ytake", time.Now())
	require.NoError(t, err)

	rec, claims := serve(t, "Bearer "+tok)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.NotNil(t, claims)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "ytake", claims.Username)
}

func TestIdentityRejectsBadTokens(t *testing.T) {
	wrongKey, err := Issue([]byte("other"), 1, "x", time.Now())
	require.NoError(t, err)
	expired, err := Issue(testKey, 1, "x", time.Now().Add(-2*TokenTTL))
	require.NoError(t, err)

	for name, auth := range map[string]string{
		"garbage":   "Bearer not-a-token",
		"wrong key": "Bearer " + wrongKey,
		"expired":   "Bearer " + expired,
	} {
		t.Run(name, func(t *testing.T) {
			rec, _ := serve(t, auth)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestRequireUser(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	assert.NoError(t, RequireUser(c, 7))

	c.Set(identityKey, &Claims{UserID: 7})
	assert.NoError(t, RequireUser(c, 7))

	err := RequireUser(c, 8)
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusForbidden, he.Code)
}
