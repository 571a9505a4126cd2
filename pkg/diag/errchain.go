// Package diag holds debugging helpers for the rare case where a
// runner's result doesn't match any expected shape — a Verdict that
// somehow carries neither a pass nor a parseable failure reason. These
// are defensive dumps for server logs, never part of the HTTP response.
package diag

import (
	"errors"
	"reflect"

	"github.com/davecgh/go-spew/spew"
	"go.uber.org/zap"
)

// DumpUnexpected logs a structured, deep dump of v (typically an
// evalmodel.Verdict or evalrunner error whose shape looks wrong) via
// go-spew, plus the full wrapped-error chain if v is an error. Adapted
// from the teacher's pkg/fmtt.PrintErrChainDebug, repointed from stdout
// prints to a zap.Logger so it composes with the rest of the service's
// structured logging instead of writing around it.
func DumpUnexpected(log *zap.Logger, label string, v any) {
	log = log.Named("diag")
	log.Warn(label, zap.String("dump", spew.Sdump(v)))

	err, ok := v.(error)
	if !ok {
		return
	}

	for i := 0; err != nil; err = errors.Unwrap(err) {
		fields := []zap.Field{
			zap.Int("depth", i),
			zap.String("type", reflect.TypeOf(err).String()),
			zap.String("msg", err.Error()),
		}
		log.Warn("error chain layer", fields...)
		i++
	}
}
