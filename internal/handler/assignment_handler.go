package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campora/notice-board-api/internal/service"
	appErrors "github.com/campora/notice-board-api/pkg/errors"
	"github.com/campora/notice-board-api/pkg/response"
)

// AssignmentHandler exposes faculty assignment endpoints. Admins manage
// assignments; faculty read their own scope via the /me routes.
type AssignmentHandler struct {
	service *service.AssignmentService
}

// NewAssignmentHandler creates a new handler.
func NewAssignmentHandler(svc *service.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{service: svc}
}

type assignClassRequest struct {
	FacultyID string `json:"faculty_id" binding:"required"`
	ClassID   string `json:"class_id" binding:"required"`
}

type assignSectionRequest struct {
	FacultyID string `json:"faculty_id" binding:"required"`
	SectionID string `json:"section_id" binding:"required"`
}

// AssignClass godoc
// @Summary Assign a class to a faculty member
// @Tags Assignments
// @Accept json
// @Produce json
// @Param payload body assignClassRequest true "Assignment payload"
// @Success 204
// @Router /assignments/classes [post]
func (h *AssignmentHandler) AssignClass(c *gin.Context) {
	var req assignClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assignment payload"))
		return
	}
	if err := h.service.AssignClass(c.Request.Context(), req.FacultyID, req.ClassID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// RemoveClass godoc
// @Summary Remove a class assignment
// @Tags Assignments
// @Accept json
// @Produce json
// @Param payload body assignClassRequest true "Assignment payload"
// @Success 204
// @Router /assignments/classes [delete]
func (h *AssignmentHandler) RemoveClass(c *gin.Context) {
	var req assignClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assignment payload"))
		return
	}
	if err := h.service.RemoveClass(c.Request.Context(), req.FacultyID, req.ClassID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// AssignSection godoc
// @Summary Assign a section to a faculty member
// @Tags Assignments
// @Accept json
// @Produce json
// @Param payload body assignSectionRequest true "Assignment payload"
// @Success 204
// @Router /assignments/sections [post]
func (h *AssignmentHandler) AssignSection(c *gin.Context) {
	var req assignSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assignment payload"))
		return
	}
	if err := h.service.AssignSection(c.Request.Context(), req.FacultyID, req.SectionID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// RemoveSection godoc
// @Summary Remove a section assignment
// @Tags Assignments
// @Accept json
// @Produce json
// @Param payload body assignSectionRequest true "Assignment payload"
// @Success 204
// @Router /assignments/sections [delete]
func (h *AssignmentHandler) RemoveSection(c *gin.Context) {
	var req assignSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assignment payload"))
		return
	}
	if err := h.service.RemoveSection(c.Request.Context(), req.FacultyID, req.SectionID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// FacultyClasses godoc
// @Summary List classes assigned to a faculty member
// @Tags Assignments
// @Produce json
// @Param id path string true "Faculty ID"
// @Success 200 {object} response.Envelope
// @Router /assignments/faculty/{id}/classes [get]
func (h *AssignmentHandler) FacultyClasses(c *gin.Context) {
	classes, err := h.service.Classes(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classes, nil)
}

// FacultySections godoc
// @Summary List sections assigned to a faculty member
// @Tags Assignments
// @Produce json
// @Param id path string true "Faculty ID"
// @Success 200 {object} response.Envelope
// @Router /assignments/faculty/{id}/sections [get]
func (h *AssignmentHandler) FacultySections(c *gin.Context) {
	sections, err := h.service.Sections(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sections, nil)
}

// MyClasses godoc
// @Summary List the authenticated faculty member's classes
// @Tags Assignments
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /me/classes [get]
func (h *AssignmentHandler) MyClasses(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	classes, err := h.service.Classes(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classes, nil)
}

// MySections godoc
// @Summary List the authenticated faculty member's sections
// @Tags Assignments
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /me/sections [get]
func (h *AssignmentHandler) MySections(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	sections, err := h.service.Sections(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sections, nil)
}

// MyStudents godoc
// @Summary List students in the authenticated faculty member's classes
// @Tags Assignments
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /me/students [get]
func (h *AssignmentHandler) MyStudents(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	students, err := h.service.Students(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, nil)
}
