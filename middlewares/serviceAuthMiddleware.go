package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/supplyline/procurement_backend/utils"
)

// ServiceAuthMiddleware authenticates trusted internal callers (marketplace
// sync) via a bearer service token instead of a user session.
func ServiceAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.Request.Header.Get("Authorization")
		token := strings.TrimPrefix(header, "Bearer ")
		if token == "" || token == header {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "service token required"})
			c.Abort()
			return
		}
		claims, err := utils.ServiceTokenValidate(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		c.Request = c.Request.WithContext(utils.SetServiceNameInContext(c.Request.Context(), claims.Service))
		c.Next()
	}
}
