package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/noah-isme/clinic-admin-api/internal/models"
	appErrors "github.com/noah-isme/clinic-admin-api/pkg/errors"
	"github.com/noah-isme/clinic-admin-api/pkg/logger"
	"github.com/noah-isme/clinic-admin-api/pkg/response"
)

// ClinicHeader lets a SUPERADMIN act inside a specific clinic.
const ClinicHeader = "X-Clinic-ID"

// Tenant resolves the clinic every downstream query is scoped by. It must run after JWT.
func Tenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := Claims(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		clinicID := claims.ClinicID
		if override := strings.TrimSpace(c.GetHeader(ClinicHeader)); override != "" {
			if claims.Role != models.RoleSuperAdmin {
				response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "clinic override requires SUPERADMIN"))
				c.Abort()
				return
			}
			if _, err := uuid.Parse(override); err != nil {
				response.Error(c, appErrors.WithDetails(appErrors.Clone(appErrors.ErrValidation, "invalid clinic header"), map[string]string{ClinicHeader: "must be a UUID"}))
				c.Abort()
				return
			}
			clinicID = override
		}

		if clinicID == "" {
			response.Error(c, appErrors.ErrTenantRequired)
			c.Abort()
			return
		}

		c.Set(logger.ClinicKey, clinicID)
		c.Next()
	}
}

// ClinicID returns the clinic resolved by Tenant.
func ClinicID(c *gin.Context) string {
	return c.GetString(logger.ClinicKey)
}
