package webserver

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/dupelab/dupelab-api/src/api/data"
	"github.com/dupelab/dupelab-api/src/api/types"
)

type Auth struct {
	db     *gorm.DB
	rdb    *redis.Client
	secret []byte
	ttl    time.Duration
}

func NewAuth(db *gorm.DB, rdb *redis.Client, secret []byte, ttl time.Duration) Auth {
	return Auth{db: db, rdb: rdb, secret: secret, ttl: ttl}
}

// Register creates a local email/password account and signs the user in.
func (a Auth) Register(c *gin.Context) {
	var req struct {
		Email       string `json:"email" binding:"required,email,max=256"`
		Password    string `json:"password" binding:"required,min=8,max=72"`
		DisplayName string `json:"displayName" binding:"required,min=2,max=100"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}

	u := types.User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		DisplayName:  req.DisplayName,
		AuthProvider: "local",
		PasswordHash: string(hash),
	}
	if err := a.db.Create(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusConflict, gin.H{"err": "email already registered"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}

	a.respondWithToken(c, u, http.StatusCreated)
}

func (a Auth) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	var u types.User
	if err := a.db.First(&u, "email = ?", req.Email).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"err": "bad credentials"})
		return
	}
	if u.AuthProvider != "local" || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"err": "bad credentials"})
		return
	}

	a.respondWithToken(c, u, http.StatusOK)
}

// Google exchanges a Google sign-in for a session, creating the user on
// first login. The decoded token payload is trusted as supplied.
func (a Auth) Google(c *gin.Context) {
	var req struct {
		IDToken string `json:"idToken" binding:"required"`
		Email   string `json:"email" binding:"required,email"`
		Name    string `json:"name" binding:"max=100"`
		Picture string `json:"picture" binding:"max=512"`
		Sub     string `json:"sub" binding:"max=64"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	var u types.User
	err := a.db.First(&u, "email = ?", req.Email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		u = types.User{
			ID:           uuid.NewString(),
			Email:        req.Email,
			DisplayName:  req.Name,
			PhotoURL:     req.Picture,
			AuthProvider: "google",
		}
		if err := a.db.Create(&u).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
			return
		}
		log.Printf("new google user %s", u.ID)
	} else if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}

	a.respondWithToken(c, u, http.StatusOK)
}

func (a Auth) Me(c *gin.Context) {
	var u types.User
	if err := a.db.First(&u, "id = ?", c.GetString("uid")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"err": "user not found"})
		return
	}
	c.JSON(http.StatusOK, u)
}

// Logout denylists the presented token until its natural expiry.
func (a Auth) Logout(c *gin.Context) {
	token := c.GetString("token")
	ttl := a.ttl
	if exp, ok := c.Get("tokenExp"); ok {
		if t, ok := exp.(time.Time); ok {
			ttl = time.Until(t)
		}
	}
	if err := data.RevokeToken(c, a.rdb, token, ttl); err != nil {
		log.Printf("failed to revoke token: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"err": "logout failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (a Auth) Refresh(c *gin.Context) {
	var u types.User
	if err := a.db.First(&u, "id = ?", c.GetString("uid")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"err": "user not found"})
		return
	}
	a.respondWithToken(c, u, http.StatusOK)
}

func (a Auth) respondWithToken(c *gin.Context, u types.User, status int) {
	token, err := issueJWT(u, a.secret, a.ttl)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	c.JSON(status, gin.H{"token": token, "user": u})
}
