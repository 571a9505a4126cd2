// Package evalrunner implements one Runner per supported language: the
// per-process spawn → monitor → timeout/terminate → reap lifecycle of
// spec §4.5, built on internal/childproc and internal/resourcemon.
package evalrunner

import (
	"context"
	"time"

	"github.com/edirooss/codeeval-server/internal/evalmodel"
)

// Request is everything a Runner needs to evaluate one Sample's code.
// Test is nil outside LiveCodeBench's test-mode path.
type Request struct {
	Code          string
	Test          *evalmodel.TestSpec
	Timeout       time.Duration
	MemoryLimitMB int
}

// Runner executes one Request in an isolated child process and reports
// a Verdict plus whatever ResourceStats sampling managed to gather.
// Implementations guarantee the child is reaped before Run returns, on
// every exit path.
type Runner interface {
	Run(ctx context.Context, req Request) (evalmodel.Verdict, evalmodel.ResourceStats)
}
