package evalrunner

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/edirooss/codeeval-server/internal/childproc"
	"github.com/edirooss/codeeval-server/internal/evalmodel"
	"github.com/edirooss/codeeval-server/internal/resourcemon"
)

// JavaScriptRunner executes plain JavaScript snippets under node, per
// §4.5.c. LiveCodeBench test mode is not supported for this language
// (the dispatcher refuses those combinations before a Runner is ever
// reached), so Run only ever sees req.Test == nil.
type JavaScriptRunner struct {
	Log     *zap.Logger
	NodeBin string
}

func (r *JavaScriptRunner) Run(ctx context.Context, req Request) (evalmodel.Verdict, evalmodel.ResourceStats) {
	return runScript(ctx, r.Log.With(zap.String("lang", "javascript")), r.NodeBin, nil, "snippet-*.js", req)
}

// runScript is the shared shell-out path for both Node-based runners:
// write the snippet to a temp file, spawn the interpreter, wait up to
// Timeout, and translate a non-zero exit code or timeout into a
// Verdict. Neither interpreter speaks the fd-3/fd-4 protocol the Python
// driver does, so success is judged purely by exit code, per §4.5.c.
func runScript(ctx context.Context, log *zap.Logger, bin string, extraEnv []string, pattern string, req Request) (evalmodel.Verdict, evalmodel.ResourceStats) {
	f, err := os.CreateTemp("", pattern)
	if err != nil {
		return evalmodel.Failedf("[OSError] %s", err), evalmodel.ResourceStats{}
	}
	path := f.Name()
	defer os.Remove(path)

	if _, err := f.WriteString(req.Code); err != nil {
		f.Close()
		return evalmodel.Failedf("[OSError] %s", err), evalmodel.ResourceStats{}
	}
	if err := f.Close(); err != nil {
		return evalmodel.Failedf("[OSError] %s", err), evalmodel.ResourceStats{}
	}

	cmd := exec.Command(bin, path)
	cmd.Dir = filepath.Dir(path)
	cmd.SysProcAttr = childproc.SysProcAttr()
	if len(extraEnv) > 0 {
		cmd.Env = append(os.Environ(), extraEnv...)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	var cleanup childproc.Cleanup
	defer cleanup.Run()

	if err := cmd.Start(); err != nil {
		return evalmodel.Failedf("[OSError] failed to start subprocess: %s", err), evalmodel.ResourceStats{}
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

	select {
	case <-reaped:
		sampler.Stop()
		stats := sampler.Stats()
		if waitErr != nil {
			if exitErr, ok := waitErr.(*exec.ExitError); ok {
				msg := fmt.Sprintf("failed [exit %d]: %s", exitErr.ExitCode(), stderrTail(stderr.Bytes()))
				return evalmodel.Verdict{Status: false, Msg: msg}, stats
			}
			return evalmodel.Failedf("[OSError] %s", waitErr), stats
		}
		return evalmodel.Verdict{Status: true, Msg: strings.TrimSpace(stdout.String())}, stats
	case <-ctx.Done():
		sampler.Stop()
		return evalmodel.Failedf("[Cancelled] %s", ctx.Err()), sampler.Stats()
	case <-time.After(req.Timeout):
		sampler.Stop()
		return evalmodel.Failedf("timeout"), sampler.Stats()
	}
}

func stderrTail(b []byte) string {
	const max = 2000
	if len(b) > max {
		b = b[len(b)-max:]
	}
	if len(b) == 0 {
		return "process exited with a non-zero status"
	}
	return string(b)
}
