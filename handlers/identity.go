package handlers

import (
	"net/http"

	"medibook/models"

	"github.com/gin-gonic/gin"
)

// CallerIdentity pulls the authenticated caller identity placed on the
// context by the session middleware.
func CallerIdentity(c *gin.Context) (models.CallerIdentity, bool) {
	v, exists := c.Get("identity")
	if !exists {
		return models.CallerIdentity{}, false
	}
	identity, ok := v.(models.CallerIdentity)
	return identity, ok
}

func requireIdentity(c *gin.Context) (models.CallerIdentity, bool) {
	identity, ok := CallerIdentity(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing caller identity"})
		return models.CallerIdentity{}, false
	}
	return identity, true
}
