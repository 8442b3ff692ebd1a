package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campora/notice-board-api/internal/service"
	appErrors "github.com/campora/notice-board-api/pkg/errors"
	"github.com/campora/notice-board-api/pkg/response"
)

// ReplyHandler exposes reply endpoints.
type ReplyHandler struct {
	service *service.ReplyService
	metrics *service.MetricsService
}

// NewReplyHandler creates a new handler.
func NewReplyHandler(svc *service.ReplyService, metrics *service.MetricsService) *ReplyHandler {
	return &ReplyHandler{service: svc, metrics: metrics}
}

// Create godoc
// @Summary Post a reply to a notice
// @Tags Replies
// @Accept json
// @Produce json
// @Param payload body service.CreateReplyRequest true "Reply payload"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /replies [post]
func (h *ReplyHandler) Create(c *gin.Context) {
	var req service.CreateReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid reply payload"))
		return
	}

	reply, err := h.service.Create(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordReplyFanout(string(reply.Type), len(reply.Recipients))
	response.JSON(c, http.StatusCreated, reply, nil)
}

// ListForNotice godoc
// @Summary List replies on a notice visible to the authenticated user
// @Tags Replies
// @Produce json
// @Param id path string true "Notice ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /notices/{id}/replies [get]
func (h *ReplyHandler) ListForNotice(c *gin.Context) {
	replies, err := h.service.ListForNotice(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, replies, nil)
}

// ListMine godoc
// @Summary List replies addressed to the authenticated user
// @Tags Replies
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /replies/mine [get]
func (h *ReplyHandler) ListMine(c *gin.Context) {
	replies, err := h.service.ListForUser(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, replies, nil)
}

// Update godoc
// @Summary Edit a reply
// @Tags Replies
// @Accept json
// @Produce json
// @Param id path string true "Reply ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /replies/{id} [put]
func (h *ReplyHandler) Update(c *gin.Context) {
	var req struct {
		Message string `json:"message" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid reply payload"))
		return
	}

	reply, err := h.service.Update(c.Request.Context(), c.Param("id"), req.Message, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reply, nil)
}

// Delete godoc
// @Summary Delete a reply
// @Tags Replies
// @Produce json
// @Param id path string true "Reply ID"
// @Success 204
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /replies/{id} [delete]
func (h *ReplyHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), claimsFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// MarkRead godoc
// @Summary Mark a reply as read
// @Tags Replies
// @Produce json
// @Param id path string true "Reply ID"
// @Success 204
// @Router /replies/{id}/read [post]
func (h *ReplyHandler) MarkRead(c *gin.Context) {
	if err := h.service.MarkRead(c.Request.Context(), c.Param("id"), claimsFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// UnreadCount godoc
// @Summary Count unread replies for the authenticated user
// @Tags Replies
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /replies/unread-count [get]
func (h *ReplyHandler) UnreadCount(c *gin.Context) {
	count, err := h.service.UnreadCount(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"unread": count}, nil)
}
