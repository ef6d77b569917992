package webserver

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dupelab/dupelab-api/src/api/types"
)

var testSecret = []byte("test-secret")

func newGateRouter(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers := append(mw, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"uid": c.GetString("uid")})
	})
	r.GET("/probe", handlers...)
	return r
}

func probe(t *testing.T, r *gin.Engine, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTMiddleware(t *testing.T) {
	r := newGateRouter(JWTMiddleware(testSecret, nil))

	w := probe(t, r, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code, "missing token")

	w = probe(t, r, "garbage")
	assert.Equal(t, http.StatusUnauthorized, w.Code, "malformed token")

	token, err := issueJWT(types.User{ID: "user-1", Email: "a@b.c"}, testSecret, time.Hour)
	require.NoError(t, err)
	w = probe(t, r, token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "user-1")

	wrong, err := issueJWT(types.User{ID: "user-1"}, []byte("other-secret"), time.Hour)
	require.NoError(t, err)
	w = probe(t, r, wrong)
	assert.Equal(t, http.StatusUnauthorized, w.Code, "wrong signing key")

	expired, err := issueJWT(types.User{ID: "user-1"}, testSecret, -time.Minute)
	require.NoError(t, err)
	w = probe(t, r, expired)
	assert.Equal(t, http.StatusUnauthorized, w.Code, "expired token")
}

func TestModeratorOnly(t *testing.T) {
	r := newGateRouter(JWTMiddleware(testSecret, nil), ModeratorOnly())

	user, err := issueJWT(types.User{ID: "user-1"}, testSecret, time.Hour)
	require.NoError(t, err)
	w := probe(t, r, user)
	assert.Equal(t, http.StatusForbidden, w.Code, "plain users are refused")

	mod, err := issueJWT(types.User{ID: "mod-1", IsModerator: true}, testSecret, time.Hour)
	require.NoError(t, err)
	w = probe(t, r, mod)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestOptionalJWT(t *testing.T) {
	r := newGateRouter(OptionalJWT(testSecret, nil))

	w := probe(t, r, "")
	assert.Equal(t, http.StatusOK, w.Code, "anonymous access passes")

	w = probe(t, r, "garbage")
	assert.Equal(t, http.StatusOK, w.Code, "bad token degrades to anonymous")
	assert.Contains(t, w.Body.String(), `"uid":""`)

	token, err := issueJWT(types.User{ID: "user-1"}, testSecret, time.Hour)
	require.NoError(t, err)
	w = probe(t, r, token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "user-1")
}
