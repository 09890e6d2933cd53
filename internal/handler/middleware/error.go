package middleware

import (
	"log/slog"
	"net/http"

	"approval-engine/internal/handler/httperr"

	"github.com/gin-gonic/gin"
)

// ErrorHandler renders the last public error when a handler recorded one
// without writing a body, and logs the cause of every 5xx.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Status() >= http.StatusInternalServerError {
			if last := c.Errors.Last(); last != nil {
				slog.Error("request failed",
					"request_id", GetRequestID(c),
					"route", c.FullPath(),
					"error", last.Err.Error())
			}
		}
		if c.Writer.Written() {
			return
		}

		for _, e := range c.Errors.ByType(gin.ErrorTypePublic) {
			if resp, ok := e.Meta.(httperr.Response); ok {
				c.JSON(resp.Status, resp)
				return
			}
		}
		if status := c.Writer.Status(); status != http.StatusOK {
			c.Status(status)
			c.Writer.WriteHeaderNow()
			return
		}
		c.JSON(http.StatusInternalServerError, internalError())
	}
}

// CustomRecovery turns a panic into a 500 with the standard error body.
func CustomRecovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("recovered from panic",
					"request_id", GetRequestID(c),
					"path", c.Request.URL.Path,
					"error", r)
				c.AbortWithStatusJSON(http.StatusInternalServerError, internalError())
			}
		}()
		c.Next()
	}
}

func internalError() httperr.Response {
	resp := httperr.Response{Status: http.StatusInternalServerError}
	resp.Error.Message = "Internal server error"
	return resp
}
