package middlewares

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/primechances/primechances-api/models"
	"github.com/primechances/primechances-api/utils"
)

// RoleFromContext returns the typed role the auth middleware stored.
func RoleFromContext(c *gin.Context) (models.Role, bool) {
	v, exists := c.Get("role")
	if !exists {
		return "", false
	}
	role, ok := v.(models.Role)
	return role, ok
}

// RequireModerator guards the admin surface. The role set is closed, so
// the switch is exhaustive rather than a string comparison.
func RequireModerator() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := RoleFromContext(c)
		if !ok {
			utils.RespondError(c, http.StatusUnauthorized, fmt.Errorf("unauthorized"))
			c.Abort()
			return
		}

		switch role {
		case models.RoleAdmin, models.RoleStaffAdmin:
			c.Next()
		case models.RoleUser:
			utils.RespondError(c, http.StatusForbidden, fmt.Errorf("admin access required"))
			c.Abort()
		default:
			utils.RespondError(c, http.StatusForbidden, fmt.Errorf("unknown role"))
			c.Abort()
		}
	}
}

// RequireAdmin guards operations reserved for full admins (user role
// management, feature toggles).
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := RoleFromContext(c)
		if !ok {
			utils.RespondError(c, http.StatusUnauthorized, fmt.Errorf("unauthorized"))
			c.Abort()
			return
		}

		switch role {
		case models.RoleAdmin:
			c.Next()
		case models.RoleStaffAdmin, models.RoleUser:
			utils.RespondError(c, http.StatusForbidden, fmt.Errorf("admin access required"))
			c.Abort()
		default:
			utils.RespondError(c, http.StatusForbidden, fmt.Errorf("unknown role"))
			c.Abort()
		}
	}
}
