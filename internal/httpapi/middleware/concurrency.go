package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/semaphore"
)

// CapConcurrentEvals returns a Gin middleware that limits the number of
// evaluations running at once. Where the teacher's CapConcurrentRequests
// used a raw buffered channel as a semaphore, this uses
// golang.org/x/sync/semaphore.Weighted instead, taking a slot with the
// non-blocking TryAcquire. A request that finds every slot taken is
// rejected with 429 at once, same as the teacher's default path; it is
// never queued to wait for a slot to free up.
func CapConcurrentEvals(maxConcurrent int64) gin.HandlerFunc {
	sem := semaphore.NewWeighted(maxConcurrent)

	return func(c *gin.Context) {
		if !sem.TryAcquire(1) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "too many concurrent evaluations",
			})
			return
		}
		defer sem.Release(1)
		c.Next()
	}
}
