package diag

import (
	"errors"
	"fmt"
	"testing"

	"go.uber.org/zap/zaptest"
)

func TestDumpUnexpectedDoesNotPanicOnError(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", errors.New("inner"))
	DumpUnexpected(zaptest.NewLogger(t), "unexpected verdict shape", wrapped)
}

func TestDumpUnexpectedDoesNotPanicOnNonError(t *testing.T) {
	DumpUnexpected(zaptest.NewLogger(t), "unexpected verdict shape", struct{ X int }{X: 1})
}
