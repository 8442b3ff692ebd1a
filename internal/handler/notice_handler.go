package handler

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/campora/notice-board-api/internal/service"
	appErrors "github.com/campora/notice-board-api/pkg/errors"
	"github.com/campora/notice-board-api/pkg/response"
)

// NoticeHandler exposes notice endpoints. Create and update accept
// multipart form data so attachments travel with the payload.
type NoticeHandler struct {
	service *service.NoticeService
	metrics *service.MetricsService
}

// NewNoticeHandler creates a new handler.
func NewNoticeHandler(svc *service.NoticeService, metrics *service.MetricsService) *NoticeHandler {
	return &NoticeHandler{service: svc, metrics: metrics}
}

// List godoc
// @Summary List notices visible to the authenticated user
// @Tags Notices
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /notices [get]
func (h *NoticeHandler) List(c *gin.Context) {
	notices, err := h.service.List(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, notices, nil)
}

// Get godoc
// @Summary Get a notice
// @Tags Notices
// @Produce json
// @Param id path string true "Notice ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /notices/{id} [get]
func (h *NoticeHandler) Get(c *gin.Context) {
	notice, err := h.service.Get(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, notice, nil)
}

// Create godoc
// @Summary Publish a notice
// @Tags Notices
// @Accept multipart/form-data
// @Produce json
// @Param title formData string true "Title"
// @Param message formData string true "Message"
// @Param notice_type formData string true "ALL, FACULTY, CLASS or SECTION"
// @Param class_ids formData []string false "Target class ids"
// @Param section_ids formData []string false "Target section ids"
// @Param attachments formData file false "Attachments"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /notices [post]
func (h *NoticeHandler) Create(c *gin.Context) {
	req := service.CreateNoticeRequest{
		Title:      strings.TrimSpace(c.PostForm("title")),
		Message:    strings.TrimSpace(c.PostForm("message")),
		Type:       strings.TrimSpace(c.PostForm("notice_type")),
		ClassIDs:   c.PostFormArray("class_ids"),
		SectionIDs: c.PostFormArray("section_ids"),
	}
	uploads, err := uploadsFromForm(c, h.service.MaxUploadSize())
	if err != nil {
		response.Error(c, err)
		return
	}

	notice, err := h.service.Create(c.Request.Context(), req, uploads, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordNoticeSent(string(notice.Type))
	response.JSON(c, http.StatusCreated, notice, nil)
}

// Update godoc
// @Summary Update a notice
// @Tags Notices
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Notice ID"
// @Param title formData string true "Title"
// @Param message formData string true "Message"
// @Param notice_type formData string true "ALL, FACULTY, CLASS or SECTION"
// @Param class_ids formData []string false "Target class ids"
// @Param section_ids formData []string false "Target section ids"
// @Param attachments formData file false "Additional attachments"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /notices/{id} [put]
func (h *NoticeHandler) Update(c *gin.Context) {
	req := service.UpdateNoticeRequest{
		Title:      strings.TrimSpace(c.PostForm("title")),
		Message:    strings.TrimSpace(c.PostForm("message")),
		Type:       strings.TrimSpace(c.PostForm("notice_type")),
		ClassIDs:   c.PostFormArray("class_ids"),
		SectionIDs: c.PostFormArray("section_ids"),
	}
	uploads, err := uploadsFromForm(c, h.service.MaxUploadSize())
	if err != nil {
		response.Error(c, err)
		return
	}

	notice, err := h.service.Update(c.Request.Context(), c.Param("id"), req, uploads, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, notice, nil)
}

// Delete godoc
// @Summary Delete a notice
// @Tags Notices
// @Produce json
// @Param id path string true "Notice ID"
// @Success 204
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /notices/{id} [delete]
func (h *NoticeHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), claimsFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// DeleteAttachment godoc
// @Summary Delete one attachment from a notice
// @Tags Notices
// @Produce json
// @Param id path string true "Attachment ID"
// @Success 204
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /notices/attachments/{id} [delete]
func (h *NoticeHandler) DeleteAttachment(c *gin.Context) {
	if err := h.service.DeleteAttachment(c.Request.Context(), c.Param("id"), claimsFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// AttachmentURL godoc
// @Summary Get a signed download URL for an attachment
// @Tags Notices
// @Produce json
// @Param id path string true "Attachment ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /notices/attachments/{id}/url [get]
func (h *NoticeHandler) AttachmentURL(c *gin.Context) {
	url, err := h.service.AttachmentURL(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"download_url": url}, nil)
}

// DownloadAttachment godoc
// @Summary Download an attachment via signed token
// @Tags Notices
// @Produce octet-stream
// @Param id path string true "Attachment ID"
// @Param token query string true "Signed token"
// @Success 200 {file} binary
// @Router /notices/attachments/{id}/download [get]
func (h *NoticeHandler) DownloadAttachment(c *gin.Context) {
	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}
	result, err := h.service.DownloadAttachment(c.Request.Context(), c.Param("id"), token, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer result.File.Close() //nolint:errcheck
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Header("Cache-Control", "no-store")
	c.DataFromReader(http.StatusOK, result.SizeBytes, result.MimeType, result.File, nil)
}

func uploadsFromForm(c *gin.Context, maxSize int64) ([]service.NoticeUpload, error) {
	form, err := c.MultipartForm()
	if err != nil {
		if err == http.ErrNotMultipart {
			return nil, nil
		}
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid multipart payload")
	}
	var uploads []service.NoticeUpload
	for _, header := range form.File["attachments"] {
		upload, err := uploadFromHeader(header, maxSize)
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, upload)
	}
	return uploads, nil
}

// uploadFromHeader buffers one attachment, rejecting oversized files before
// reading them into memory. The declared size is checked first and the read
// is capped in case the header understates it.
func uploadFromHeader(header *multipart.FileHeader, maxSize int64) (service.NoticeUpload, error) {
	if maxSize > 0 && header.Size > maxSize {
		return service.NoticeUpload{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("attachment exceeds %d bytes limit", maxSize))
	}

	src, err := header.Open()
	if err != nil {
		return service.NoticeUpload{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open upload")
	}
	defer src.Close()

	reader := io.Reader(src)
	if maxSize > 0 {
		reader = io.LimitReader(src, maxSize+1)
	}
	buf, err := io.ReadAll(reader)
	if err != nil {
		return service.NoticeUpload{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to buffer upload")
	}
	if maxSize > 0 && int64(len(buf)) > maxSize {
		return service.NoticeUpload{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("attachment exceeds %d bytes limit", maxSize))
	}
	return service.NoticeUpload{
		Filename: header.Filename,
		MimeType: header.Header.Get("Content-Type"),
		Size:     int64(len(buf)),
		Content:  bytes.NewReader(buf),
	}, nil
}
