package childproc

import "sync"

// Cleanup is the scoped-resource construct spec §9 calls for: a runner
// owns exactly one child handle, one sampler task, one stop signal, and
// one temp artifact, and all four must be released on every exit path
// (success, failure, timeout, or panic). Rather than scattering defers
// across a runner's Run method — easy to get wrong once timeout and
// panic paths diverge — callers push cleanup steps as they acquire each
// resource and call Run once, in LIFO order, exactly like defer would,
// but from a single guaranteed call site.
type Cleanup struct {
	mu    sync.Mutex
	steps []func()
}

// Push registers a cleanup step. Last pushed, first run.
func (c *Cleanup) Push(step func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.steps = append(c.steps, step)
}

// Run executes every registered step in reverse registration order and
// clears the stack. Safe to call more than once; subsequent calls are a
// no-op. Intended to be invoked via `defer cleanup.Run()` at the top of
// a runner's Run method.
func (c *Cleanup) Run() {
	c.mu.Lock()
	steps := c.steps
	c.steps = nil
	c.mu.Unlock()

	for i := len(steps) - 1; i >= 0; i-- {
		steps[i]()
	}
}
