package handler

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/hrms-api/internal/middleware"
	"github.com/noah-isme/hrms-api/internal/service"
	appErrors "github.com/noah-isme/hrms-api/pkg/errors"
)

const attachmentsField = "attachments"

func bindError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, message)
}

func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	return page, size
}

// multipartUploads converts the attachments of a multipart form into service
// uploads. Non-multipart requests carry no attachments.
func multipartUploads(c *gin.Context) []service.FileUpload {
	form, err := c.MultipartForm()
	if err != nil || form == nil {
		return nil
	}
	headers := form.File[attachmentsField]
	uploads := make([]service.FileUpload, 0, len(headers))
	for _, header := range headers {
		fh := header
		uploads = append(uploads, service.FileUpload{
			Name: fh.Filename,
			Size: fh.Size,
			Open: func() (io.ReadCloser, error) { return fh.Open() },
		})
	}
	return uploads
}

func clientActor(c *gin.Context) string {
	if actor := strings.TrimSpace(c.GetHeader(middleware.ActorHeader)); actor != "" {
		return actor
	}
	return c.ClientIP()
}
