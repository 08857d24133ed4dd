package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/clinic-admin-api/internal/middleware"
	"github.com/noah-isme/clinic-admin-api/internal/models"
	"github.com/noah-isme/clinic-admin-api/internal/navigation"
	"github.com/noah-isme/clinic-admin-api/internal/service"
	appErrors "github.com/noah-isme/clinic-admin-api/pkg/errors"
	"github.com/noah-isme/clinic-admin-api/pkg/response"
)

type navigationService interface {
	Tree(perms []models.Permission) []navigation.Node
	Quick(perms []models.Permission, path string) (*service.QuickMenu, error)
}

// NavigationHandler serves the permission-filtered sidebar.
type NavigationHandler struct {
	service navigationService
}

// NewNavigationHandler constructs the handler.
func NewNavigationHandler(svc navigationService) *NavigationHandler {
	return &NavigationHandler{service: svc}
}

// Tree godoc
// @Summary Sidebar navigation
// @Description Navigation tree filtered by the caller's permissions. Empty groups are dropped.
// @Tags Navigation
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /navigation [get]
func (h *NavigationHandler) Tree(c *gin.Context) {
	claims := middleware.Claims(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	response.OK(c, h.service.Tree(claims.Permissions))
}

// Quick godoc
// @Summary Quick menu level
// @Description Walks the filtered tree along a slash separated group path and returns the breadcrumb and the items at that level.
// @Tags Navigation
// @Produce json
// @Param path query string false "Group path, for example Finance/Billing"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /navigation/quick [get]
func (h *NavigationHandler) Quick(c *gin.Context) {
	claims := middleware.Claims(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	menu, err := h.service.Quick(claims.Permissions, c.Query("path"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, menu)
}
