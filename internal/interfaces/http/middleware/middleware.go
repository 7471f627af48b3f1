// Package middleware holds the gin middleware shared across handlers.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader is the header carrying the per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// requestIDKey is the gin context key the id is stored under
const requestIDKey = "request_id"

// RequestID assigns each request a correlation id, honoring one supplied
// by the caller.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Writer.Header().Set(RequestIDHeader, requestID)
		c.Next()
	}
}

// GetRequestID returns the correlation id assigned to this request
func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// CORSConfig holds CORS middleware configuration.
type CORSConfig struct {
	AllowOrigins []string
	AllowMethods []string
	AllowHeaders []string
	MaxAge       time.Duration
}

// DefaultCORSConfig returns the default CORS configuration. Origins are
// empty by default; cross-origin access must be configured explicitly.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowOrigins: []string{},
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Content-Type", "Authorization", RequestIDHeader},
		MaxAge:       12 * time.Hour,
	}
}

// CORS returns a CORS middleware with the given configuration
func CORS(cfg CORSConfig) gin.HandlerFunc {
	allowWildcard := false
	for _, o := range cfg.AllowOrigins {
		if o == "*" {
			allowWildcard = true
			break
		}
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := ""
		if allowWildcard {
			allowed = "*"
		} else {
			for _, o := range cfg.AllowOrigins {
				if o == origin {
					allowed = origin
					break
				}
			}
		}

		if allowed != "" {
			h := c.Writer.Header()
			h.Set("Access-Control-Allow-Origin", allowed)
			h.Set("Access-Control-Allow-Methods", strings.Join(cfg.AllowMethods, ", "))
			h.Set("Access-Control-Allow-Headers", strings.Join(cfg.AllowHeaders, ", "))
			if cfg.MaxAge > 0 {
				h.Set("Access-Control-Max-Age", strconv.Itoa(int(cfg.MaxAge.Seconds())))
			}
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// BodyLimit rejects requests whose body exceeds maxBytes
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatus(http.StatusRequestEntityTooLarge)
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
