package webserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/dupelab/dupelab-api/src/api/data"
	"github.com/dupelab/dupelab-api/src/api/types"
)

func issueJWT(u types.User, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"uid":   u.ID,
		"email": u.Email,
		"mod":   u.IsModerator,
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// JWTMiddleware validates the bearer token, rejects revoked tokens and loads
// the identity into the gin context: "uid" and the global "moderator" flag.
func JWTMiddleware(secret []byte, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if !strings.HasPrefix(h, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"err": "authentication required"})
			return
		}
		raw := h[7:]
		tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) { return secret, nil })
		if err != nil || !tok.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"err": "invalid token"})
			return
		}
		if rdb != nil && data.IsTokenRevoked(c, rdb, raw) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"err": "token revoked"})
			return
		}
		setIdentity(c, tok, raw)
		c.Next()
	}
}

// OptionalJWT loads the identity when a valid token is present and continues
// anonymously otherwise. Used on public catalog reads where moderators get
// extra visibility.
func OptionalJWT(secret []byte, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if strings.HasPrefix(h, "Bearer ") {
			raw := h[7:]
			tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) { return secret, nil })
			if err == nil && tok.Valid && !(rdb != nil && data.IsTokenRevoked(c, rdb, raw)) {
				setIdentity(c, tok, raw)
			}
		}
		c.Next()
	}
}

// ModeratorOnly gates moderator endpoints on the global flag carried in the
// token. This axis is independent of group/expedition roles.
func ModeratorOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !c.GetBool("moderator") {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"err": "moderator access required"})
			return
		}
		c.Next()
	}
}

func setIdentity(c *gin.Context, tok *jwt.Token, raw string) {
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return
	}
	uid, _ := claims["uid"].(string)
	mod, _ := claims["mod"].(bool)
	c.Set("uid", uid)
	c.Set("moderator", mod)
	c.Set("token", raw)
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		c.Set("tokenExp", exp.Time)
	}
}
