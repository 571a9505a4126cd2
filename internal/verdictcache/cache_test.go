package verdictcache

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/edirooss/codeeval-server/internal/evalmodel"
)

func TestNilCacheAlwaysMisses(t *testing.T) {
	var c *Cache

	_, _, err := c.Get(context.Background(), "any-uuid")
	assert.True(t, errors.Is(err, ErrMiss))
}

func TestNilCacheSetIsNoop(t *testing.T) {
	var c *Cache
	assert.NotPanics(t, func() {
		c.Set(context.Background(), "any-uuid", evalmodel.Passed, evalmodel.ResourceStats{})
	})
}

func TestNilCacheCloseIsNoop(t *testing.T) {
	var c *Cache
	assert.NoError(t, c.Close())
}
