package cors

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// Options configures the CORS middleware. Zero values fall back to defaults
// suited to the admin web client.
type Options struct {
	// Origins lists exact origins or "*.domain" patterns. Empty allows any
	// origin but never sends credentials.
	Origins        []string
	Methods        []string
	Headers        []string
	ExposedHeaders []string
	MaxAge         time.Duration
}

var (
	defaultMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions}
	defaultHeaders = []string{"Content-Type", "X-Request-ID", "X-Actor"}
	defaultExposed = []string{"Content-Disposition", "X-Request-ID"}
)

type policy struct {
	any      bool
	exact    map[string]struct{}
	suffixes []string
}

func newPolicy(origins []string) policy {
	p := policy{exact: map[string]struct{}{}}
	for _, origin := range origins {
		origin = strings.TrimRight(strings.TrimSpace(origin), "/")
		switch {
		case origin == "":
		case origin == "*":
			p.any = true
		case strings.Contains(origin, "://*."):
			// https://*.example.com matches any subdomain over the same scheme.
			scheme, host, _ := strings.Cut(origin, "://*")
			p.suffixes = append(p.suffixes, scheme+"://|"+host)
		default:
			p.exact[origin] = struct{}{}
		}
	}
	if len(p.exact) == 0 && len(p.suffixes) == 0 {
		p.any = true
	}
	return p
}

func (p policy) allows(origin string) bool {
	if p.any {
		return true
	}
	origin = strings.TrimRight(origin, "/")
	if _, ok := p.exact[origin]; ok {
		return true
	}
	for _, pattern := range p.suffixes {
		scheme, host, _ := strings.Cut(pattern, "|")
		if strings.HasPrefix(origin, scheme) && strings.HasSuffix(origin, host) && len(origin) > len(scheme)+len(host) {
			return true
		}
	}
	return false
}

// New returns the CORS middleware. Preflight requests are answered with 204
// and never reach the handlers.
func New(opts Options) gin.HandlerFunc {
	p := newPolicy(opts.Origins)
	methods := strings.Join(orDefault(opts.Methods, defaultMethods), ", ")
	headers := strings.Join(orDefault(opts.Headers, defaultHeaders), ", ")
	exposed := strings.Join(orDefault(opts.ExposedHeaders, defaultExposed), ", ")
	maxAge := opts.MaxAge
	if maxAge <= 0 {
		maxAge = 10 * time.Minute
	}
	maxAgeSeconds := strconv.Itoa(int(maxAge.Seconds()))

	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Add("Vary", "Origin")
		origin := c.GetHeader("Origin")
		switch {
		case origin == "" && p.any:
			h.Set("Access-Control-Allow-Origin", "*")
		case origin != "" && p.allows(origin):
			h.Set("Access-Control-Allow-Origin", origin)
			if !p.any {
				h.Set("Access-Control-Allow-Credentials", "true")
			}
		}
		h.Set("Access-Control-Expose-Headers", exposed)

		if c.Request.Method == http.MethodOptions {
			h.Set("Access-Control-Allow-Methods", methods)
			h.Set("Access-Control-Allow-Headers", headers)
			h.Set("Access-Control-Max-Age", maxAgeSeconds)
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func orDefault(values, fallback []string) []string {
	if len(values) == 0 {
		return fallback
	}
	return values
}
