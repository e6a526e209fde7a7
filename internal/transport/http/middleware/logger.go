package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"apicatalog/internal/logging"
	"apicatalog/internal/metrics"
)

const RequestIDHeader = "X-Request-ID"

// RequestLogger tags each request with an id, logs it through zerolog and
// records request metrics.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = logging.NewRequestID()
		}
		c.Header(RequestIDHeader, requestID)
		c.Request = c.Request.WithContext(logging.ContextWithRequestID(c.Request.Context(), requestID))

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		elapsed := time.Since(start)

		metrics.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		metrics.HTTPDuration.WithLabelValues(c.Request.Method, route).Observe(elapsed.Seconds())

		event := logging.Ctx(c.Request.Context()).Info()
		if status >= 500 {
			event = logging.Ctx(c.Request.Context()).Error()
		}
		event.
			Str("method", c.Request.Method).
			Str("route", route).
			Int("status", status).
			Dur("latency", elapsed).
			Str("client_ip", c.ClientIP()).
			Msg("request handled")
	}
}
