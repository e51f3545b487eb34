package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/transcript-clearance-api/internal/models"
	appErrors "github.com/noah-isme/transcript-clearance-api/pkg/errors"
	"github.com/noah-isme/transcript-clearance-api/pkg/response"
)

// RBAC enforces role-based access control for routes. "STAFF" admits every
// reviewing or processing office.
func RBAC(allowed ...string) gin.HandlerFunc {
	allowStaff := false
	allowedRoles := make(map[models.UserRole]struct{})
	for _, a := range allowed {
		if a == "STAFF" {
			allowStaff = true
			continue
		}
		allowedRoles[models.UserRole(a)] = struct{}{}
	}

	return func(c *gin.Context) {
		claims := Claims(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		if _, ok := allowedRoles[claims.Role]; ok {
			c.Next()
			return
		}
		if allowStaff && claims.Role.IsStaff() {
			c.Next()
			return
		}

		response.Error(c, appErrors.ErrForbidden)
		c.Abort()
	}
}

// RequireRoles is a helper that accepts a list of roles.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make([]string, len(roles))
	for i, r := range roles {
		allowed[i] = string(r)
	}
	return RBAC(allowed...)
}

// RequireStaff admits staff roles only.
func RequireStaff() gin.HandlerFunc {
	return RBAC("STAFF")
}

// RequireReviewer admits callers allowed to decide for the department named
// by the :department path parameter.
func RequireReviewer() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := Claims(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		dept, ok := models.ParseDepartment(c.Param("department"))
		if !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "unknown department"))
			c.Abort()
			return
		}
		if !claims.Role.CanReview(dept) {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}
