package middleware

import (
	"github.com/gin-gonic/gin"
)

// CacheControl sets the Cache-Control header for every response of a group.
func CacheControl(directive string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", directive)
		c.Next()
	}
}

// NoStore keeps authenticated payloads out of shared caches.
func NoStore() gin.HandlerFunc {
	return CacheControl("no-store")
}
