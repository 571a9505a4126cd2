package childproc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanupRunsLIFO(t *testing.T) {
	var order []int
	var c Cleanup

	c.Push(func() { order = append(order, 1) })
	c.Push(func() { order = append(order, 2) })
	c.Push(func() { order = append(order, 3) })

	c.Run()

	assert.Equal(t, []int{3, 2, 1}, order)
}

func TestCleanupRunIsIdempotent(t *testing.T) {
	calls := 0
	var c Cleanup
	c.Push(func() { calls++ })

	c.Run()
	c.Run()

	assert.Equal(t, 1, calls)
}

func TestCleanupRunWithNoSteps(t *testing.T) {
	var c Cleanup
	assert.NotPanics(t, func() { c.Run() })
}
