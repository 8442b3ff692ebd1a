package handler

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/campora/notice-board-api/pkg/errors"
)

func attachmentContext(t *testing.T, filename, content string) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("attachments", filename)
	require.NoError(t, err)
	_, err = io.WriteString(part, content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/notices", body)
	c.Request.Header.Set("Content-Type", writer.FormDataContentType())
	return c
}

func TestUploadsFromFormRejectsOversizedAttachment(t *testing.T) {
	c := attachmentContext(t, "scan.pdf", strings.Repeat("x", 64))

	// The declared size already exceeds the limit, so the form must be
	// rejected without buffering the file.
	uploads, err := uploadsFromForm(c, 16)
	require.Error(t, err)
	assert.Nil(t, uploads)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUploadsFromFormAcceptsAttachmentWithinLimit(t *testing.T) {
	c := attachmentContext(t, "syllabus.pdf", "hello world")

	uploads, err := uploadsFromForm(c, 1024)
	require.NoError(t, err)
	require.Len(t, uploads, 1)
	assert.Equal(t, "syllabus.pdf", uploads[0].Filename)
	assert.Equal(t, int64(len("hello world")), uploads[0].Size)

	buf, err := io.ReadAll(uploads[0].Content)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(buf))
}

func TestUploadsFromFormIgnoresNonMultipartBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/notices", strings.NewReader(`{"title":"t"}`))
	c.Request.Header.Set("Content-Type", "application/json")

	uploads, err := uploadsFromForm(c, 1024)
	require.NoError(t, err)
	assert.Empty(t, uploads)
}
