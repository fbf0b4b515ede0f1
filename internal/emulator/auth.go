package emulator

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glowempire/storefront/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const claimsKey = "claims"

type tokenClaims struct {
	Email     string `json:"email"`
	Role      string `json:"role"`
	SessionID string `json:"session_id"`
	jwt.RegisteredClaims
}

func (b *Backend) issueToken(email string, acct account) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(b.cfg.TokenTTL)

	claims := tokenClaims{
		Email:     email,
		Role:      "authenticated",
		SessionID: uuid.New().String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   acct.id,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(b.cfg.JWTSecret))
	return signed, exp, err
}

func (b *Backend) parseToken(raw string) (*tokenClaims, bool) {
	claims := &tokenClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(b.cfg.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, false
	}

	b.mutex.RLock()
	revoked := b.revoked[claims.SessionID]
	b.mutex.RUnlock()

	return claims, !revoked
}

// requireUser lets through requests carrying a live user token; the anon
// key alone is not enough
func (b *Backend) requireUser(c *gin.Context) {
	raw := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	claims, ok := b.parseToken(raw)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"code":    "42501",
			"message": "permission denied: a signed-in user is required",
		})
		return
	}
	c.Set(claimsKey, claims)
	c.Next()
}

func (b *Backend) token(c *gin.Context) {
	if c.Query("grant_type") != "password" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "unsupported_grant_type",
			"error_description": "Only password grants are supported",
		})
		return
	}

	var req models.SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "invalid_request",
			"error_description": "Email and password are required",
		})
		return
	}

	b.mutex.RLock()
	acct, exists := b.accounts[strings.ToLower(strings.TrimSpace(req.Email))]
	b.mutex.RUnlock()

	if !exists || bcrypt.CompareHashAndPassword(acct.hash, []byte(req.Password)) != nil {
		log.WithField("email", req.Email).Warn("Rejected sign-in")
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "invalid_grant",
			"error_description": "Invalid login credentials",
		})
		return
	}

	signed, exp, err := b.issueToken(req.Email, acct)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to sign token"})
		return
	}

	log.WithField("email", req.Email).Info("Issued session")

	c.JSON(http.StatusOK, gin.H{
		"access_token":  signed,
		"token_type":    "bearer",
		"expires_in":    int(b.cfg.TokenTTL.Seconds()),
		"expires_at":    exp.Unix(),
		"refresh_token": uuid.New().String(),
		"user": models.User{
			ID:    acct.id,
			Email: req.Email,
		},
	})
}

func (b *Backend) logout(c *gin.Context) {
	claims := c.MustGet(claimsKey).(*tokenClaims)

	b.mutex.Lock()
	b.revoked[claims.SessionID] = true
	b.mutex.Unlock()

	c.Status(http.StatusNoContent)
}

func (b *Backend) user(c *gin.Context) {
	claims := c.MustGet(claimsKey).(*tokenClaims)
	c.JSON(http.StatusOK, models.User{ID: claims.Subject, Email: claims.Email})
}
