package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campora/notice-board-api/internal/models"
	"github.com/campora/notice-board-api/internal/service"
	appErrors "github.com/campora/notice-board-api/pkg/errors"
	"github.com/campora/notice-board-api/pkg/response"
)

// DashboardHandler serves the role-specific dashboard.
type DashboardHandler struct {
	service *service.DashboardService
}

// NewDashboardHandler creates a new handler.
func NewDashboardHandler(svc *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: svc}
}

// Get godoc
// @Summary Dashboard for the authenticated user's role
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard [get]
func (h *DashboardHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	switch claims.Role {
	case models.RoleAdmin:
		dashboard, cached, err := h.service.Admin(c.Request.Context())
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, dashboard, nil, map[string]interface{}{"cached": cached})
	case models.RoleFaculty:
		dashboard, err := h.service.Faculty(c.Request.Context(), claims)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, dashboard, nil)
	case models.RoleStudent:
		dashboard, err := h.service.Student(c.Request.Context(), claims)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, dashboard, nil)
	default:
		response.Error(c, appErrors.ErrForbidden)
	}
}
