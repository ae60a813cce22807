package middleware

import (
	"net/http"
	"runtime/debug"

	"growtasks/pkg/log"

	"github.com/gin-gonic/gin"
)

// RecoveryWithLog turns a panic in any handler into a 500 and logs it with the stack.
func RecoveryWithLog(l log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				l.Errorf(c.Request.Context(), "middleware.Recovery: panic on %s %s: %v\n%s",
					c.Request.Method, c.Request.URL.Path, r, debug.Stack())
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			}
		}()
		c.Next()
	}
}
