package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/AnTengye/recscan/pkg/logger"
	"github.com/gin-gonic/gin"
)

// Recovery turns a handler panic into a 500 response carrying the request ID.
// http.ErrAbortHandler is re-raised so net/http drops the connection quietly,
// which is how an interrupted workbook download ends. metrics may be nil.
func Recovery(metrics *HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			route := c.FullPath()
			metrics.observePanic(route)
			logger.Error(c.Request.Context(), "panic recovered",
				"error", rec,
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"route", route,
				"stack", string(debug.Stack()),
			)

			if c.Writer.Written() {
				c.Abort()
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":      "Internal server error",
				"request_id": GetRequestID(c),
			})
		}()

		c.Next()
	}
}
