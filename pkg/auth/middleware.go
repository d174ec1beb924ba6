package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Gin context keys set by the auth middleware.
const (
	CtxUserID = "user_id"
	CtxEmail  = "email"
	CtxRole   = "role"
)

func bearerToken(c *gin.Context) (string, bool) {
	auth := c.GetHeader("Authorization")
	if auth == "" {
		// Browser clients typically use httpOnly cookies for auth.
		if cookieToken, err := c.Cookie("access_token"); err == nil && cookieToken != "" {
			auth = "Bearer " + cookieToken
		} else {
			return "", false
		}
	}
	parts := strings.Split(auth, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}
	return parts[1], true
}

func setClaims(c *gin.Context, claims *Claims) {
	c.Set(CtxUserID, claims.UserID)
	c.Set(CtxEmail, claims.Email)
	c.Set(CtxRole, claims.Role)
}

// JWTAuthMiddleware validates JWT tokens and rejects unauthenticated requests.
func JWTAuthMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "No authorization header"})
			c.Abort()
			return
		}

		claims, err := ValidateJWT(token, secret)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid JWT token"})
			c.Abort()
			return
		}

		setClaims(c, claims)
		c.Next()
	}
}

// OptionalJWTAuthMiddleware validates a JWT token when one is supplied but
// admits anonymous requests with no identity set. Downstream consumers decide
// what an absent identity means (the assistant exposes a reduced tool set).
func OptionalJWTAuthMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.Next()
			return
		}

		claims, err := ValidateJWT(token, secret)
		if err != nil {
			// A present-but-invalid token is rejected rather than downgraded
			// to anonymous, so expired sessions surface instead of silently
			// losing their capability-gated tools.
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid JWT token"})
			c.Abort()
			return
		}

		setClaims(c, claims)
		c.Next()
	}
}
