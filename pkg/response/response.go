package response

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/hrms-api/internal/models"
	appErrors "github.com/noah-isme/hrms-api/pkg/errors"
)

const (
	metaKey  = "response.meta"
	startKey = "response.start"
)

// Envelope is the body of every JSON response.
type Envelope struct {
	Data       interface{}            `json:"data,omitempty"`
	Error      *appErrors.Error       `json:"error,omitempty"`
	Pagination *models.Pagination     `json:"pagination,omitempty"`
	Meta       map[string]interface{} `json:"meta,omitempty"`
}

// StartTimer marks the request start; successful envelopes written afterwards
// report processing_time_ms in meta.
func StartTimer(c *gin.Context) {
	c.Set(startKey, time.Now())
}

// SetMeta attaches key to the meta block of the next success envelope.
func SetMeta(c *gin.Context, key string, value interface{}) {
	meta, _ := c.Get(metaKey)
	m, ok := meta.(map[string]interface{})
	if !ok {
		m = map[string]interface{}{}
		c.Set(metaKey, m)
	}
	m[key] = value
}

// JSON writes data with optional pagination.
func JSON(c *gin.Context, status int, data interface{}, pagination *models.Pagination) {
	write(c, status, Envelope{Data: data, Pagination: pagination, Meta: collectMeta(c)})
}

// Created responds with 201.
func Created(c *gin.Context, data interface{}) {
	JSON(c, http.StatusCreated, data, nil)
}

// Accepted responds with 202 for work handed to a background queue.
func Accepted(c *gin.Context, data interface{}) {
	JSON(c, http.StatusAccepted, data, nil)
}

// Message responds with 200 and puts a confirmation text in meta.message.
func Message(c *gin.Context, message string, data interface{}) {
	SetMeta(c, "message", message)
	JSON(c, http.StatusOK, data, nil)
}

// NoContent sends a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error converts err into the error envelope. The original error is recorded
// on the gin context for the request logger; clients only see the mapped code
// and message.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	_ = c.Error(err)
	write(c, appErr.Status, Envelope{Error: appErr})
}

func write(c *gin.Context, status int, env Envelope) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.JSON(status, env)
}

func collectMeta(c *gin.Context) map[string]interface{} {
	var meta map[string]interface{}
	if stored, ok := c.Get(metaKey); ok {
		meta, _ = stored.(map[string]interface{})
	}
	if started, ok := c.Get(startKey); ok {
		if start, ok := started.(time.Time); ok {
			if meta == nil {
				meta = map[string]interface{}{}
			}
			meta["processing_time_ms"] = time.Since(start).Milliseconds()
		}
	}
	return meta
}
