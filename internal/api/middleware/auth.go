package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/coralcart/storefront/internal/domain"
	"github.com/coralcart/storefront/internal/repository"
	"github.com/coralcart/storefront/pkg/errors"
)

const adminContextKey = "admin"

// AuthMiddleware authenticates back-office requests by API key and enforces
// the required role. Roles form a ladder, so an Admin passes a
// ContentManager requirement.
func AuthMiddleware(repos *repository.Repositories, required domain.Role, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		apiKey := strings.TrimPrefix(header, "Bearer ")
		if apiKey == "" || apiKey == header {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing API key"})
			return
		}

		admin, err := repos.Admin.GetByAPIKey(c.Request.Context(), apiKey)
		if err != nil {
			if _, ok := err.(*errors.ErrUnauthorized); ok {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid API key"})
				return
			}
			logger.Error("Failed to authenticate admin", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		if !admin.Role.Allows(required) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient role"})
			return
		}

		c.Set(adminContextKey, admin)
		c.Next()
	}
}

// GetAdminFromContext returns the authenticated admin set by AuthMiddleware
func GetAdminFromContext(c *gin.Context) (*domain.AdminUser, bool) {
	v, ok := c.Get(adminContextKey)
	if !ok {
		return nil, false
	}
	admin, ok := v.(*domain.AdminUser)
	return admin, ok
}
