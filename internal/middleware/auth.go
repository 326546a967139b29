package middleware

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"socialapp/internal/models"
	"socialapp/internal/services"
)

const (
	// CookieName is the session cookie set on register and login.
	CookieName  = "token"
	identityKey = "identity"
)

// AuthMiddleware verifies the session token and stores the caller's identity in
// the context. The cookie is preferred; a Bearer header is accepted for API clients.
// No database lookup happens here.
func AuthMiddleware(auth services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		tokenStr := sessionToken(c)
		if tokenStr == "" {
			unauthorized(c)
			return
		}

		identity, err := auth.ParseToken(tokenStr)
		if err != nil {
			log.Printf("[auth][session] rejected token path=%s: %v", c.Request.URL.Path, err)
			unauthorized(c)
			return
		}

		SetIdentity(c, *identity)
		c.Next()
	}
}

func SetIdentity(c *gin.Context, id models.Identity) {
	c.Set(identityKey, id)
}

// CurrentIdentity returns the identity stored by AuthMiddleware.
func CurrentIdentity(c *gin.Context) (models.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return models.Identity{}, false
	}
	id, ok := v.(models.Identity)
	if !ok || id.ID == "" {
		return models.Identity{}, false
	}
	return id, true
}

func sessionToken(c *gin.Context) string {
	if cookie, err := c.Cookie(CookieName); err == nil && strings.TrimSpace(cookie) != "" {
		return strings.TrimSpace(cookie)
	}
	authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

func unauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Unauthorized"})
}
