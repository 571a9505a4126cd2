package evalrunner

import (
	"context"
	"os"
	"os/exec"
	"time"

	"go.uber.org/zap"

	"github.com/edirooss/codeeval-server/internal/childproc"
	"github.com/edirooss/codeeval-server/internal/evalmodel"
	"github.com/edirooss/codeeval-server/internal/pyrunner"
	"github.com/edirooss/codeeval-server/internal/resourcemon"
)

// PythonRunner executes Python code and LiveCodeBench-style Python tests
// by spawning the embedded driver.py under a fresh interpreter (§4.5.a,
// §4.5.b). One PythonRunner is shared across evaluations; it carries no
// per-request state.
type PythonRunner struct {
	Log       *zap.Logger
	PythonBin string
}

// Run implements Runner.
func (r *PythonRunner) Run(ctx context.Context, req Request) (evalmodel.Verdict, evalmodel.ResourceStats) {
	if req.Test != nil {
		if err := req.Test.Validate(); err != nil {
			// §8: a length mismatch is rejected before any process is
			// spawned or any code compiled.
			return evalmodel.Failedf("%s", err), evalmodel.ResourceStats{}
		}
	}

	log := r.Log.With(zap.String("lang", "python"))

	dir, err := os.MkdirTemp("", "codeeval-py-")
	if err != nil {
		return evalmodel.Failedf("[OSError] %s", err), evalmodel.ResourceStats{}
	}
	defer os.RemoveAll(dir)

	driverPath, err := pyrunner.WriteDriver(dir)
	if err != nil {
		return evalmodel.Failedf("[OSError] %s", err), evalmodel.ResourceStats{}
	}

	instr := pyrunner.Instruction{Code: req.Code, MemoryLimitMB: req.MemoryLimitMB}
	if req.Test != nil {
		instr.Mode = "test"
		instr.Inputs = req.Test.Inputs
		instr.Outputs = req.Test.Outputs
		instr.FnName = req.Test.FnName
	} else {
		instr.Mode = "code"
	}

	return runDriver(ctx, log, r.PythonBin, driverPath, instr, req.Timeout)
}

// runDriver owns the full spawn → monitor → timeout/terminate → reap
// lifecycle shared by the code and test paths: exactly one child is
// started, exactly one sampler attached to it, and the child is always
// reaped before this function returns, on every exit path (success,
// driver failure, timeout, or caller cancellation).
func runDriver(ctx context.Context, log *zap.Logger, pythonBin, driverPath string, instr pyrunner.Instruction, timeout time.Duration) (evalmodel.Verdict, evalmodel.ResourceStats) {
	cmd, instrIn, resultOut, err := pyrunner.Command(pythonBin, driverPath)
	if err != nil {
		return evalmodel.Failedf("[OSError] %s", err), evalmodel.ResourceStats{}
	}
	cmd.SysProcAttr = childproc.SysProcAttr()

	var cleanup childproc.Cleanup
	defer cleanup.Run()

	startErr := cmd.Start()
	// The child holds its own copies of fd 3 and fd 4 once started; close
	// the parent's so resultOut reaches EOF when the child exits.
	for _, f := range cmd.ExtraFiles {
		_ = f.Close()
	}
	if startErr != nil {
		_ = instrIn.Close()
		_ = resultOut.Close()
		return evalmodel.Failedf("[OSError] failed to start subprocess: %s", startErr), evalmodel.ResourceStats{}
	}
	pid := cmd.Process.Pid

	reaped := make(chan struct{})
	var waitErr error
	go func() {
		waitErr = cmd.Wait()
		close(reaped)
	}()
	cleanup.Push(func() { <-reaped })

	cleanup.Push(func() { childproc.Kill(log, pid, reaped) })

	sampler := resourcemon.Start(pid, resourcemon.DefaultInterval)
	cleanup.Push(sampler.Stop)

	if err := pyrunner.WriteInstruction(instrIn, instr); err != nil {
		sampler.Stop()
		return evalmodel.Failedf("[OSError] %s", err), sampler.Stats()
	}

	resultCh := make(chan driverResult, 1)
	go func() {
		res, err := pyrunner.ReadResult(resultOut)
		resultCh <- driverResult{res, err}
	}()

	select {
	case dr := <-resultCh:
		// The child wrote its verdict; give it GraceWindow to exit on its
		// own so waitErr is safe to read, forcing the issue with Kill
		// only if it doesn't.
		select {
		case <-reaped:
		case <-time.After(childproc.GraceWindow):
			childproc.Kill(log, pid, reaped)
			<-reaped
		}
		sampler.Stop()
		return verdictFromResult(dr, waitErr), sampler.Stats()
	case <-ctx.Done():
		sampler.Stop()
		return evalmodel.Failedf("[Cancelled] %s", ctx.Err()), sampler.Stats()
	case <-time.After(timeout):
		select {
		case <-reaped:
			sampler.Stop()
			return evalmodel.Failedf("no result from subprocess"), sampler.Stats()
		default:
		}
		sampler.Stop()
		return evalmodel.Failedf("subprocess timeout: %gs", timeout.Seconds()), sampler.Stats()
	}
}

type driverResult struct {
	res pyrunner.Result
	err error
}

// verdictFromResult turns the child's raw result into a Verdict. waitErr
// is only read here once the caller has confirmed (via the reaped
// channel) that the wait goroutine already wrote it — see runDriver.
func verdictFromResult(dr driverResult, waitErr error) evalmodel.Verdict {
	if dr.err != nil {
		if exitErr, ok := waitErr.(*exec.ExitError); ok {
			return evalmodel.Failedf("[exit %d] %s", exitErr.ExitCode(), dr.err)
		}
		return evalmodel.Failedf("%s", dr.err)
	}
	if !dr.res.Ok {
		return evalmodel.Failedf("%s", dr.res.Msg)
	}
	return evalmodel.Passed
}
