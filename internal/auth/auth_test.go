package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func validClaims() Claims {
	return Claims{
		Role: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func TestParse(t *testing.T) {
	v := NewVerifier(testSecret)

	claims, err := v.Parse(signToken(t, testSecret, validClaims()))
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "admin", claims.Role)

	_, err = v.Parse(signToken(t, "wrong-secret", validClaims()))
	assert.Error(t, err)

	expired := validClaims()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
	_, err = v.Parse(signToken(t, testSecret, expired))
	assert.Error(t, err)

	noSubject := validClaims()
	noSubject.Subject = ""
	_, err = v.Parse(signToken(t, testSecret, noSubject))
	assert.Error(t, err)
}

func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequirePage(t *testing.T) {
	v := NewVerifier(testSecret)

	t.Run("temp token bypasses", func(t *testing.T) {
		var called bool
		rec := httptest.NewRecorder()
		v.RequirePage(okHandler(&called)).ServeHTTP(rec, httptest.NewRequest("GET", "/dashboard?temp=abc", nil))
		assert.True(t, called)
	})

	t.Run("no token passes through", func(t *testing.T) {
		var called bool
		rec := httptest.NewRecorder()
		v.RequirePage(okHandler(&called)).ServeHTTP(rec, httptest.NewRequest("GET", "/dashboard", nil))
		assert.True(t, called)
		assert.Equal(t, 200, rec.Code)
	})

	t.Run("invalid token redirects to login", func(t *testing.T) {
		var called bool
		req := httptest.NewRequest("GET", "/dashboard", nil)
		req.Header.Set("Authorization", "Bearer garbage")
		rec := httptest.NewRecorder()
		v.RequirePage(okHandler(&called)).ServeHTTP(rec, req)
		assert.False(t, called)
		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/login", rec.Header().Get("Location"))
	})

	t.Run("valid token passes with claims", func(t *testing.T) {
		var claims *Claims
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, _ = AuthenticatedUser(r)
		})
		req := httptest.NewRequest("GET", "/dashboard", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, validClaims()))
		v.RequirePage(next).ServeHTTP(httptest.NewRecorder(), req)
		require.NotNil(t, claims)
		assert.Equal(t, "user-1", claims.Subject)
	})
}

func TestRequireAPI(t *testing.T) {
	v := NewVerifier(testSecret)

	t.Run("invalid token gets 401 json", func(t *testing.T) {
		var called bool
		req := httptest.NewRequest("GET", "/report/top_menus", nil)
		req.Header.Set("Authorization", "Bearer garbage")
		rec := httptest.NewRecorder()
		v.RequireAPI(okHandler(&called)).ServeHTTP(rec, req)
		assert.False(t, called)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"error":"unauthorized: invalid token"}`, rec.Body.String())
	})

	t.Run("query token accepted", func(t *testing.T) {
		var called bool
		req := httptest.NewRequest("GET", "/report/top_menus?token="+signToken(t, testSecret, validClaims()), nil)
		v.RequireAPI(okHandler(&called)).ServeHTTP(httptest.NewRecorder(), req)
		assert.True(t, called)
	})

	t.Run("missing token gets 401 json", func(t *testing.T) {
		var called bool
		rec := httptest.NewRecorder()
		v.RequireAPI(okHandler(&called)).ServeHTTP(rec, httptest.NewRequest("GET", "/report/top_menus", nil))
		assert.False(t, called)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"error":"unauthorized: missing token"}`, rec.Body.String())
	})

	t.Run("temp token bypasses", func(t *testing.T) {
		var called bool
		v.RequireAPI(okHandler(&called)).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/report/top_menus?temp=abc", nil))
		assert.True(t, called)
	})
}

func TestAuthenticatedUser_NoContext(t *testing.T) {
	_, err := AuthenticatedUser(httptest.NewRequest("GET", "/", nil))
	assert.Error(t, err)
}
