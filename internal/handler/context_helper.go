package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/clinic-admin-api/internal/calendar"
	"github.com/noah-isme/clinic-admin-api/internal/middleware"
	"github.com/noah-isme/clinic-admin-api/internal/models"
	"github.com/noah-isme/clinic-admin-api/internal/service"
	appErrors "github.com/noah-isme/clinic-admin-api/pkg/errors"
	"github.com/noah-isme/clinic-admin-api/pkg/response"
)

// actorFrom builds the service actor from the JWT and tenancy middleware. It writes a 401 when claims are missing.
func actorFrom(c *gin.Context) (service.Actor, bool) {
	claims := middleware.Claims(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return service.Actor{}, false
	}
	return service.ActorFromClaims(claims, middleware.ClinicID(c)), true
}

func requestMeta(c *gin.Context) models.LoginRequest {
	return models.LoginRequest{IP: c.ClientIP(), UserAgent: c.GetHeader("User-Agent")}
}

// bindJSON decodes the body into dest and writes a 400 on malformed JSON.
func bindJSON(c *gin.Context, dest interface{}, message string) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, message))
		return false
	}
	return true
}

// pickQuery returns the first non-empty value among keys.
func pickQuery(c *gin.Context, keys ...string) string {
	for _, key := range keys {
		if v := strings.TrimSpace(c.Query(key)); v != "" {
			return v
		}
	}
	return ""
}

// pageQuery reads the shared paging contract, accepting the short aliases.
func pageQuery(c *gin.Context) models.PageQuery {
	var q models.PageQuery
	if n, err := strconv.Atoi(pickQuery(c, "pageNumber", "page")); err == nil {
		q.PageNumber = n
	}
	if n, err := strconv.Atoi(pickQuery(c, "pageSize", "limit")); err == nil {
		q.PageSize = n
	}
	q.SortColumn = pickQuery(c, "sortColumn", "sort")
	q.SortDirection = pickQuery(c, "sortDirection", "order")
	q.SearchValue = pickQuery(c, "searchValue", "search")
	return q.Normalize()
}

// dateQuery parses an optional YYYY-MM-DD query value.
func dateQuery(c *gin.Context, details map[string]string, keys ...string) *calendar.Date {
	raw := pickQuery(c, keys...)
	if raw == "" {
		return nil
	}
	d, err := calendar.ParseDate(raw)
	if err != nil {
		details[keys[0]] = "must be a date in YYYY-MM-DD format"
		return nil
	}
	return &d
}

func invalidQuery(c *gin.Context, details map[string]string) bool {
	if len(details) == 0 {
		return false
	}
	response.Error(c, appErrors.WithDetails(appErrors.Clone(appErrors.ErrValidation, "invalid query parameters"), details))
	return true
}
