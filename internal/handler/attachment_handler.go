package handler

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/hrms-api/internal/models"
	"github.com/noah-isme/hrms-api/pkg/response"
)

type attachmentOpener interface {
	Open(ctx context.Context, id, token string) (*models.Attachment, *os.File, error)
}

// AttachmentHandler serves request attachments behind signed links.
type AttachmentHandler struct {
	attachments attachmentOpener
}

// NewAttachmentHandler constructs AttachmentHandler.
func NewAttachmentHandler(attachments attachmentOpener) *AttachmentHandler {
	return &AttachmentHandler{attachments: attachments}
}

// Download godoc
// @Summary Download a leave or miss-punch attachment
// @Tags Attachments
// @Produce octet-stream
// @Param id path string true "Attachment ID"
// @Param token query string true "Signed token from download_url"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Router /attachments/{id}/download [get]
func (h *AttachmentHandler) Download(c *gin.Context) {
	attachment, file, err := h.attachments.Open(c.Request.Context(), c.Param("id"), c.Query("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", attachment.FileName))
	c.Header("X-Content-Type-Options", "nosniff")
	c.DataFromReader(http.StatusOK, info.Size(), attachment.FileType, file, nil)
}
