package requestid

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func serveWithHeader(t *testing.T, header string) (resp *httptest.ResponseRecorder, seen, fromCtx string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	r.GET("/api/holidays", func(c *gin.Context) {
		seen = Value(c)
		fromCtx = FromContext(c.Request.Context())
		c.Status(http.StatusOK)
	})
	req := httptest.NewRequest(http.MethodGet, "/api/holidays", nil)
	if header != "" {
		req.Header.Set(Header, header)
	}
	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp, seen, fromCtx
}

func TestMiddlewareGeneratesID(t *testing.T) {
	w, seen, fromCtx := serveWithHeader(t, "")
	assert.Len(t, seen, 36)
	assert.Equal(t, seen, fromCtx)
	assert.Equal(t, seen, w.Header().Get(Header))
}

func TestMiddlewareClientIDs(t *testing.T) {
	cases := map[string]bool{
		"abc-123":               true,
		"trace_01.HR":           true,
		"has space":             false,
		"inject\r\nX-Evil: 1":   false,
		strings.Repeat("a", 65): false,
		strings.Repeat("b", 64): true,
	}
	for id, kept := range cases {
		w, seen, _ := serveWithHeader(t, id)
		if kept {
			assert.Equal(t, id, seen)
		} else {
			assert.NotEqual(t, id, seen)
		}
		assert.Equal(t, seen, w.Header().Get(Header))
	}
}

func TestWithIDAndEmptyContexts(t *testing.T) {
	assert.Equal(t, "job-7", FromContext(WithID(context.Background(), "job-7")))
	assert.Empty(t, FromContext(context.Background()))
	assert.Empty(t, Value(nil))
}
