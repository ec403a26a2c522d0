package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type loaderFunc func(ctx context.Context, id int64) (Identity, error)

func (f loaderFunc) LoadIdentity(ctx context.Context, id int64) (Identity, error) { return f(ctx, id) }

func activeUsers(users map[int64]Identity) IdentityLoader {
	return loaderFunc(func(_ context.Context, id int64) (Identity, error) {
		u, ok := users[id]
		if !ok {
			return Identity{}, ErrUnauthenticated
		}
		return u, nil
	})
}

func newTestRouter(loader IdentityLoader, jwtManager *JWTManager) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	protected := r.Group("", AuthRequired(jwtManager, loader))
	protected.GET("/me", func(c *gin.Context) {
		id, _ := GetIdentity(c)
		c.JSON(http.StatusOK, gin.H{"id": id.UserID, "role": id.Role})
	})
	protected.DELETE("/things/:id", RequireRole(DeleteRoles...), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func doRequest(r http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthRequired(t *testing.T) {
	jwtManager := NewJWTManager("secret", time.Hour)
	users := map[int64]Identity{
		1: {UserID: 1, Email: "admin@example.com", Role: RoleAdmin},
		2: {UserID: 2, Email: "sales@example.com", Role: RoleSales},
	}
	r := newTestRouter(activeUsers(users), jwtManager)

	token := func(id int64) string {
		s, err := jwtManager.GenerateAccessToken(id, "x@example.com")
		require.NoError(t, err)
		return s
	}

	t.Run("Missing Token", func(t *testing.T) {
		w := doRequest(r, http.MethodGet, "/me", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Malformed Header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Token abc")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Invalid Token", func(t *testing.T) {
		w := doRequest(r, http.MethodGet, "/me", "abc.def.ghi")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Unknown Or Inactive User", func(t *testing.T) {
		w := doRequest(r, http.MethodGet, "/me", token(99))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"error":"Token is not valid or user is inactive"}`, w.Body.String())
	})

	t.Run("Loads Identity", func(t *testing.T) {
		w := doRequest(r, http.MethodGet, "/me", token(2))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"id":2,"role":"sales"}`, w.Body.String())
	})

	t.Run("Store Failure Is 500", func(t *testing.T) {
		broken := newTestRouter(loaderFunc(func(context.Context, int64) (Identity, error) {
			return Identity{}, errors.New("db down")
		}), jwtManager)
		w := doRequest(broken, http.MethodGet, "/me", token(1))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestRequireRole(t *testing.T) {
	jwtManager := NewJWTManager("secret", time.Hour)
	users := map[int64]Identity{
		1: {UserID: 1, Role: RoleAdmin},
		2: {UserID: 2, Role: RoleManager},
		3: {UserID: 3, Role: RoleSales},
		4: {UserID: 4, Role: RoleSupport},
	}
	r := newTestRouter(activeUsers(users), jwtManager)

	cases := []struct {
		id   int64
		want int
	}{
		{1, http.StatusNoContent},
		{2, http.StatusNoContent},
		{3, http.StatusForbidden},
		{4, http.StatusForbidden},
	}
	for _, tc := range cases {
		s, err := jwtManager.GenerateAccessToken(tc.id, "x@example.com")
		require.NoError(t, err)
		w := doRequest(r, http.MethodDelete, "/things/5", s)
		assert.Equal(t, tc.want, w.Code, "role %s", users[tc.id].Role)
	}
}

func TestIdentityCanDelete(t *testing.T) {
	assert.True(t, Identity{Role: RoleAdmin}.CanDelete())
	assert.True(t, Identity{Role: RoleManager}.CanDelete())
	assert.False(t, Identity{Role: RoleSales}.CanDelete())
	assert.False(t, Identity{Role: RoleSupport}.CanDelete())
	assert.False(t, Identity{}.CanDelete())
}
