package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestCapConcurrentEvalsRejectsOverflow(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	release := make(chan struct{})
	r.Use(CapConcurrentEvals(1))
	r.GET("/x", func(c *gin.Context) {
		<-release
		c.Status(http.StatusOK)
	})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	}()

	time.Sleep(50 * time.Millisecond) // let the first request take the only slot

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	close(release)
	wg.Wait()
}

func TestCapConcurrentEvalsAllowsSequential(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CapConcurrentEvals(1))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}
