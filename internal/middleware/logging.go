package middleware

import (
	"strconv" // Status labels
	"time"    // Request timing

	"keja/internal/metrics" // HTTP collectors

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/google/uuid"     // Request ids
	"github.com/sirupsen/logrus" // Logging library
)

// RequestIDHeader carries the request id back to the client
const RequestIDHeader = "X-Request-ID"

// RequestLogger tags each request with an id and logs its outcome
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString() // Client sent none
		}
		c.Header(RequestIDHeader, requestID) // Echo it back
		c.Set("requestID", requestID)        // Available to handlers

		start := time.Now()
		log := logrus.WithFields(logrus.Fields{
			"http.req.path":   c.Request.URL.Path,
			"http.req.method": c.Request.Method,
			"http.req.id":     requestID,
		})
		log.Debug("request started")

		c.Next() // Run the handlers

		log = log.WithFields(logrus.Fields{
			"http.resp.took_ms": time.Since(start).Milliseconds(),
			"http.resp.status":  c.Writer.Status(),
			"http.resp.bytes":   c.Writer.Size(),
		})
		if user, ok := CurrentUser(c); ok {
			log = log.WithField("user_id", user.ID)
		}
		if len(c.Errors) > 0 {
			log.WithField("errors", c.Errors.String()).Warn("request complete")
			return
		}
		log.Info("request complete")
	}
}

// MetricsMiddleware records HTTP metrics for each request
func MetricsMiddleware(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		m.IncrementInFlight()
		defer m.DecrementInFlight()

		c.Next()

		path := c.FullPath() // Route pattern keeps label cardinality bounded
		if path == "" {
			path = "unmatched" // 404s share one label
		}
		m.RecordHTTPRequest(c.Request.Method, path, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
