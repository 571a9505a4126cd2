// Package dispatch maps a Sample's (source, lang, test-presence) onto a
// Runner and a default timeout, per spec §4.7. It never starts a
// process itself; it only decides which evalrunner.Runner handles a
// Sample and what timeout applies when the caller omitted one.
package dispatch

import (
	"fmt"
	"time"

	"github.com/edirooss/codeeval-server/internal/evalmodel"
	"github.com/edirooss/codeeval-server/internal/evalrunner"
)

// Default timeouts, per §4.7. LiveCodeBench's test mode scales with the
// number of test cases instead of using a flat default.
const (
	DefaultTimeoutHumanEvalMBPP = 3 * time.Second
	DefaultTimeoutTypeScript    = 5 * time.Second
	livecodebenchBase           = 6 * time.Second
	livecodebenchPerInput       = 2 * time.Second
)

// Dispatcher owns one Runner per language and routes Samples to them.
type Dispatcher struct {
	Python     evalrunner.Runner
	JavaScript evalrunner.Runner
	TypeScript evalrunner.Runner
}

// Resolve picks the Runner and effective timeout for sample, or returns
// an error describing why the combination is refused (§4.7's "precise
// refusal reason" requirement — these strings are returned to the
// caller as status=false verdicts over HTTP 200, never executed).
func (d *Dispatcher) Resolve(sample *evalmodel.Sample) (evalrunner.Runner, time.Duration, error) {
	hasTest := sample.Test != nil

	switch sample.Source {
	case evalmodel.SourceHumanEval, evalmodel.SourceMBPP, evalmodel.SourceLiveCodeBench:
	default:
		return nil, 0, fmt.Errorf("not supported source: %s", sample.Source)
	}

	// LiveCodeBench only ever runs Python, per the original's dedicated
	// livecodebench branch (it never consults CODE_EXECUTOR_MAP).
	if sample.Source == evalmodel.SourceLiveCodeBench && sample.Lang != evalmodel.LangPython {
		return nil, 0, fmt.Errorf("not supported language: %s", sample.Lang)
	}

	switch sample.Lang {
	case evalmodel.LangPython:
		if hasTest && sample.Source != evalmodel.SourceLiveCodeBench {
			return nil, 0, fmt.Errorf("test mode is only supported for source=%s", evalmodel.SourceLiveCodeBench)
		}
		return d.Python, timeoutFor(sample), nil

	case evalmodel.LangJavaScript:
		if hasTest {
			return nil, 0, fmt.Errorf("test mode is not supported for lang=%s", evalmodel.LangJavaScript)
		}
		return d.JavaScript, timeoutFor(sample), nil

	case evalmodel.LangTypeScript:
		if hasTest {
			return nil, 0, fmt.Errorf("test mode is not supported for lang=%s", evalmodel.LangTypeScript)
		}
		return d.TypeScript, timeoutFor(sample), nil

	default:
		return nil, 0, fmt.Errorf("unsupported lang %q", sample.Lang)
	}
}

func timeoutFor(sample *evalmodel.Sample) time.Duration {
	if sample.Timeout != nil && *sample.Timeout > 0 {
		return time.Duration(*sample.Timeout * float64(time.Second))
	}
	if sample.Lang == evalmodel.LangTypeScript {
		return DefaultTimeoutTypeScript
	}
	if sample.Test != nil {
		return livecodebenchBase + time.Duration(len(sample.Test.Inputs))*livecodebenchPerInput
	}
	return DefaultTimeoutHumanEvalMBPP
}
