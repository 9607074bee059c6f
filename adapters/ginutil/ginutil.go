// Package ginutil holds shared response helpers for the gin handlers.
package ginutil

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// RateLimiter is the slice of the limiter the handlers need.
type RateLimiter interface {
	Allow(ctx context.Context, bucket, key string) (bool, error)
}

// Allow checks the limiter, treating limiter errors as allow: a broken
// redis must not take order placement down with it.
func Allow(c *gin.Context, rl RateLimiter, bucket, key string) bool {
	if rl == nil {
		return true
	}
	ok, err := rl.Allow(c.Request.Context(), bucket, key)
	if err != nil {
		return true
	}
	return ok
}

func BadRequest(c *gin.Context, detail string) {
	c.JSON(http.StatusBadRequest, gin.H{"detail": detail})
}

func Unauthorized(c *gin.Context, detail string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": detail})
}

func Forbidden(c *gin.Context, detail string) {
	c.JSON(http.StatusForbidden, gin.H{"detail": detail})
}

func NotFound(c *gin.Context, detail string) {
	c.JSON(http.StatusNotFound, gin.H{"detail": detail})
}

func TooMany(c *gin.Context) {
	c.JSON(http.StatusTooManyRequests, gin.H{"detail": "request was throttled"})
}

func ServerErr(c *gin.Context, detail string) {
	c.JSON(http.StatusInternalServerError, gin.H{"detail": detail})
}
