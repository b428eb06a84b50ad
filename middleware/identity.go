package middleware

import (
	"net/http"
	"strings"

	"medibook/models"
	"medibook/utils"

	"github.com/gin-gonic/gin"
)

// SessionIdentityMiddleware extracts the opaque caller identity from a
// signed session token and places it on the context. Identity issuance and
// account management live outside this service; here a token is only a
// carrier for {id, displayName, contact}.
func SessionIdentityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Insufficient authorization",
			})
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Insufficient authorization",
			})
			return
		}

		token, err := utils.ValidateToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired session token",
			})
			return
		}
		id, name, contact, err := utils.ExtractIdentityClaims(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid session token claims",
			})
			return
		}

		c.Set("identity", models.CallerIdentity{
			ID:          id,
			DisplayName: name,
			Contact:     contact,
		})
		c.Next()
	}
}
